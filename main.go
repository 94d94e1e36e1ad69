package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	torch "github.com/wangkuiyi/gotorch"
	"github.com/wangkuiyi/gotorch/nn/initializer"

	"densecls/ml"
	"densecls/util"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s needs subcommand train, evaluate or predict\n", os.Args[0])
		os.Exit(1)
	}

	if torch.IsCUDAAvailable() {
		util.Logger.Println("CUDA is valid")
	} else {
		util.Logger.Println("No CUDA found; CPU only")
	}
	device := ml.Device()
	initializer.ManualSeed(1)

	switch os.Args[1] {
	case "train":
		runTrain(os.Args[2:], device)
	case "evaluate":
		runEvaluate(os.Args[2:], device)
	case "predict":
		runPredict(os.Args[2:], device)
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q: want train, evaluate or predict\n", os.Args[1])
		os.Exit(1)
	}
}

func runTrain(args []string, device torch.Device) {
	cmd := flag.NewFlagSet("train", flag.ExitOnError)
	data := cmd.String("data", "./data/train.tar.gz", "training data tarball")
	valid := cmd.String("valid", "./data/valid.tar.gz", "validation data tarball")
	save := cmd.String("save", "./checkpoints", "directory for the metrics log and model weights")
	arch := cmd.String("arch", "densenet121", "model type: densenet121, densenet169 or densenet201")
	classes := cmd.Int64("classes", 10, "number of target classes")
	lr := cmd.Float64("lr", 0.01, "learning rate")
	momentum := cmd.Float64("momentum", 0.9, "SGD momentum")
	wd := cmd.Float64("wd", 1e-4, "weight decay")
	epochs := cmd.Int("epochs", 100, "number of epochs")
	batch := cmd.Int("batch", 64, "minibatch size")
	patience := cmd.Int("patience", 10, "epochs without improvement before early stop")
	printFreq := cmd.Int("print-freq", 10, "batches between progress lines")
	cmd.Parse(args)

	if err := util.InitLogger(*save); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg := ml.TrainConfig{
		Arch:        *arch,
		Classes:     *classes,
		Epochs:      *epochs,
		BatchSize:   *batch,
		Lr:          *lr,
		Momentum:    *momentum,
		WeightDecay: *wd,
		Patience:    *patience,
		PrintFreq:   *printFreq,
		SaveDir:     *save,
	}
	util.Debug(cfg)
	if err := ml.Train(*data, *valid, cfg, device); err != nil {
		util.Logger.Fatal(err)
	}
}

func runEvaluate(args []string, device torch.Device) {
	cmd := flag.NewFlagSet("evaluate", flag.ExitOnError)
	data := cmd.String("data", "./data/test.tar.gz", "test data tarball")
	model := cmd.String("model", "./checkpoints", "directory holding "+ml.BestModelFile)
	arch := cmd.String("arch", "densenet121", "model type the weights were trained with")
	classes := cmd.Int64("classes", 10, "number of target classes")
	batch := cmd.Int("batch", 64, "minibatch size")
	printFreq := cmd.Int("print-freq", 10, "batches between progress lines")
	cmd.Parse(args)

	net, err := ml.LoadModel(*model, *arch, *classes, device)
	if err != nil {
		util.Logger.Fatal(err)
	}
	loader, err := ml.NewEvalLoader(*data, *batch)
	if err != nil {
		util.Logger.Fatal(err)
	}
	stats := ml.Evaluate(net, loader, device, *printFreq, true)
	util.Logger.Printf("Test finished: avg batch time %.3fs loss %.4f top1 error %.4f (%d samples)",
		stats.BatchTime, stats.Loss, stats.Error, stats.Samples)
}

func runPredict(args []string, device torch.Device) {
	cmd := flag.NewFlagSet("predict", flag.ExitOnError)
	model := cmd.String("model", "./checkpoints", "directory holding "+ml.BestModelFile)
	arch := cmd.String("arch", "densenet121", "model type the weights were trained with")
	classes := cmd.Int64("classes", 10, "number of target classes")
	cmd.Parse(args)

	net, err := ml.LoadModel(*model, *arch, *classes, device)
	if err != nil {
		util.Logger.Fatal(err)
	}
	for _, in := range cmd.Args() {
		for _, pa := range strings.Split(in, ":") {
			fns, err := filepath.Glob(pa)
			if err != nil {
				util.Logger.Fatal(err)
			}
			for _, fn := range fns {
				cls, err := ml.Predict(net, fn, device)
				if err != nil {
					util.Logger.Println(err)
					continue
				}
				fmt.Printf("%s: class %d\n", fn, cls)
			}
		}
	}
}
