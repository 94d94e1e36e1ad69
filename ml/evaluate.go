package ml

import (
	"time"

	torch "github.com/wangkuiyi/gotorch"
	F "github.com/wangkuiyi/gotorch/nn/functional"
	"github.com/wangkuiyi/gotorch/vision/imageloader"
	"github.com/wangkuiyi/gotorch/vision/transforms"

	"densecls/util"
)

// EvalStats summarises one pass over a data loader.
type EvalStats struct {
	BatchTime float64 // seconds, averaged over batches
	Loss      float64
	Error     float64 // top-1 error rate
	Samples   int
}

// Accuracy is the top-1 accuracy corresponding to the error rate.
func (s EvalStats) Accuracy() float64 {
	return 1 - s.Error
}

// Evaluate runs net over loader without tracking gradients, accumulating
// batch time, cross-entropy loss and top-1 error. A progress line is logged
// every printFreq batches.
func Evaluate(net *DenseNetModule, loader *imageloader.ImageLoader, device torch.Device, printFreq int, isTest bool) EvalStats {
	batchTime := NewAverageMeter()
	losses := NewAverageMeter()
	errors := NewAverageMeter()
	tag := "Valid"
	if isTest {
		tag = "Test"
	}
	// The framework exposes no gradient-mode switch; inference mode plus
	// never calling Backward keeps evaluation free of weight updates.
	net.Train(false)
	samples, batch := 0, 0
	end := time.Now()
	for loader.Scan() {
		data, label := loader.Minibatch()
		data = data.To(device, data.Dtype())
		label = label.To(device, label.Dtype())
		output := net.Forward(data)
		loss := F.NllLoss(output, label, torch.Tensor{}, -100, "mean")
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
			util.Logger.Printf("%s\tIter: [%d]\tAvg_Time_Batch/Avg_Time_Epoch: %.3f/%.3f\t"+
				"Avg_Loss_Batch/Avg_Loss_Epoch: %.4f/%.4f\tAvg_Error_Batch/Avg_Error_Epoch: %.4f/%.4f",
				tag, batch+1, batchTime.Val, batchTime.Avg, losses.Val, losses.Avg, errors.Val, errors.Avg)
		}
		batch++
	}
	return EvalStats{BatchTime: batchTime.Avg, Loss: losses.Avg, Error: errors.Avg, Samples: samples}
}

// NewEvalLoader opens a labelled image tarball with the deterministic
// evaluation pipeline. The label vocabulary is built from the tarball itself.
func NewEvalLoader(tarball string, batchSize int) (*imageloader.ImageLoader, error) {
	vocab, err := imageloader.BuildLabelVocabularyFromTgz(tarball)
	if err != nil {
		return nil, err
	}
	return newLoader(tarball, vocab, EvalTransforms(), batchSize)
}

func newLoader(tarball string, vocab map[string]int, trans *transforms.ComposeTransformer, batchSize int) (*imageloader.ImageLoader, error) {
	return imageloader.New(tarball, vocab, trans, batchSize, batchSize,
		time.Now().UnixNano(), torch.IsCUDAAvailable(), "rgb")
}
