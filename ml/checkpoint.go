package ml

import (
	"fmt"
	"os"
	"path/filepath"

	torch "github.com/wangkuiyi/gotorch"

	"densecls/util"
)

// TrainLogFile is the append-only metrics log kept next to the weights.
const TrainLogFile = "log.txt"

// Checkpoint captures the metrics of one finished epoch together with the
// model weights at that point.
type Checkpoint struct {
	Epoch        int
	TrainLoss    float64
	TrainError   float64
	ValidLoss    float64
	ValidError   float64
	BestAccuracy float64
	Counter      int // epochs since the last improvement
	StateDict    map[string]torch.Tensor
}

// SaveCheckpoint appends the epoch metrics to log.txt under dir, persists
// the weights when the epoch produced a new best accuracy, and reports
// whether the patience budget is exhausted and training should stop.
func SaveCheckpoint(ckpt Checkpoint, isBest bool, dir string, patience int) (bool, error) {
	line := fmt.Sprintf("Epoch %d,train_loss %.6f,train_error %.6f,valid_loss %.5f,valid_error %.5f\n",
		ckpt.Epoch, ckpt.TrainLoss, ckpt.TrainError, ckpt.ValidLoss, ckpt.ValidError)
	if err := appendLog(dir, line); err != nil {
		return false, err
	}
	if isBest {
		best := filepath.Join(dir, BestModelFile)
		if err := writeStateDict(ckpt.StateDict, best); err != nil {
			return false, fmt.Errorf("saving weights to %s: %w", best, err)
		}
		msg := fmt.Sprintf("Get better top1 accuracy: %.4f saving weights to %s\n", ckpt.BestAccuracy, best)
		util.Logger.Print(msg)
		if err := appendLog(dir, msg); err != nil {
			return false, err
		}
	}
	if ckpt.Counter >= patience {
		util.Logger.Print("early stopped.")
		if err := appendLog(dir, "early stopped.\n"); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func appendLog(dir, line string) error {
	f, err := os.OpenFile(filepath.Join(dir, TrainLogFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line)
	return err
}
