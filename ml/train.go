package ml

import (
	"path/filepath"
	"time"

	torch "github.com/wangkuiyi/gotorch"
	F "github.com/wangkuiyi/gotorch/nn/functional"
	"github.com/wangkuiyi/gotorch/vision/imageloader"

	"densecls/util"
)

// TrainConfig collects the knobs of one training run.
type TrainConfig struct {
	Arch        string
	Classes     int64
	Epochs      int
	BatchSize   int
	Lr          float64
	Momentum    float64
	WeightDecay float64
	Patience    int
	PrintFreq   int
	SaveDir     string
}

// CurvesFile is the training curve plot written at the end of a run.
const CurvesFile = "training.svg"

// Train fits a fresh classifier with SGD, evaluating on the validation
// tarball after every epoch. The best weights and the metrics log are kept
// under cfg.SaveDir; training stops early once the validation accuracy has
// not improved for cfg.Patience epochs.
func Train(trainTar, validTar string, cfg TrainConfig, device torch.Device) error {
	vocab, err := imageloader.BuildLabelVocabularyFromTgz(trainTar)
	if err != nil {
		return err
	}
	net, err := DenseNet(cfg.Arch, cfg.Classes)
	if err != nil {
		return err
	}
	net.To(device)
	defer torch.FinishGC()

	opt := torch.SGD(cfg.Lr, cfg.Momentum, 0, cfg.WeightDecay, false)
	opt.AddParameters(net.Parameters())

	curves := util.NewCurves("train loss", "train error", "valid error")
	cpu := torch.NewDevice("cpu")
	best := 0.0
	counter := 0
	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		trainLoader, err := newLoader(trainTar, vocab, TrainTransforms(), cfg.BatchSize)
		if err != nil {
			return err
		}
		validLoader, err := newLoader(validTar, vocab, EvalTransforms(), cfg.BatchSize)
		if err != nil {
			return err
		}

		trainStats := trainEpoch(net, opt, trainLoader, device, cfg.PrintFreq, epoch)
		validStats := Evaluate(net, validLoader, device, cfg.PrintFreq, false)

		acc := validStats.Accuracy()
		isBest := acc > best
		if isBest {
			best = acc
			counter = 0
		} else {
			counter++
		}

		// Weights are snapshotted on the CPU so the state dict stays loadable
		// on machines without a GPU.
		net.To(cpu)
		ckpt := Checkpoint{
			Epoch:        epoch,
			TrainLoss:    trainStats.Loss,
			TrainError:   trainStats.Error,
			ValidLoss:    validStats.Loss,
			ValidError:   validStats.Error,
			BestAccuracy: best,
			Counter:      counter,
			StateDict:    net.StateDict(),
		}
		stop, err := SaveCheckpoint(ckpt, isBest, cfg.SaveDir, cfg.Patience)
		net.To(device)
		if err != nil {
			return err
		}
		curves.Add(epoch, trainStats.Loss, trainStats.Error, validStats.Error)
		if stop {
			break
		}
	}
	if err := curves.Save(filepath.Join(cfg.SaveDir, CurvesFile)); err != nil {
		util.Logger.Println("saving training curves:", err)
	}
	util.Logger.Printf("training finished, best top1 accuracy %.4f", best)
	return nil
}

// trainEpoch performs one pass over the training loader, updating the
// weights and accumulating the same per-batch meters as Evaluate.
func trainEpoch(net *DenseNetModule, opt torch.Optimizer, loader *imageloader.ImageLoader, device torch.Device, printFreq, epoch int) EvalStats {
	batchTime := NewAverageMeter()
	losses := NewAverageMeter()
	errors := NewAverageMeter()
	net.Train(true)
	samples, batch := 0, 0
	end := time.Now()
	for loader.Scan() {
		data, label := loader.Minibatch()
		data = data.To(device, data.Dtype())
		label = label.To(device, label.Dtype())
		opt.ZeroGrad()
		output := net.Forward(data)
		loss := F.NllLoss(output, label, torch.Tensor{}, -100, "mean")
		loss.Backward()
		opt.Step()

		n := int(label.Shape()[0])
		pred := output.Argmax(1)
		correct := pred.Eq(label.View(pred.Shape()...)).
			Sum(map[string]interface{}{"dim": 0, "keepDim": false}).Item().(int64)
		errors.Update(float64(n-int(correct))/float64(n), n)
		losses.Update(float64(loss.Item().(float32)), n)
		batchTime.Update(time.Since(end).Seconds(), 1)
		end = time.Now()
		samples += n
		if printFreq > 0 && batch%printFreq == 0 {
			util.Logger.Printf("Train Epoch: %d\tIter: [%d]\tAvg_Time_Batch/Avg_Time_Epoch: %.3f/%.3f\t"+
				"Avg_Loss_Batch/Avg_Loss_Epoch: %.4f/%.4f\tAvg_Error_Batch/Avg_Error_Epoch: %.4f/%.4f",
				epoch, batch+1, batchTime.Val, batchTime.Avg, losses.Val, losses.Avg, errors.Val, errors.Avg)
		}
		batch++
	}
	return EvalStats{BatchTime: batchTime.Avg, Loss: losses.Avg, Error: errors.Avg, Samples: samples}
}
