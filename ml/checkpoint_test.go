package ml

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	torch "github.com/wangkuiyi/gotorch"
)

func readLog(t *testing.T, dir string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(dir, TrainLogFile))
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestSaveCheckpointAppendsMetrics(t *testing.T) {
	dir := t.TempDir()
	ckpt := Checkpoint{Epoch: 1, TrainLoss: 0.5, TrainError: 0.25, ValidLoss: 0.4, ValidError: 0.2}
	stop, err := SaveCheckpoint(ckpt, false, dir, 5)
	if err != nil {
		t.Fatal(err)
	}
	if stop {
		t.Error("early stop signalled before patience exhausted")
	}
	want := "Epoch 1,train_loss 0.500000,train_error 0.250000,valid_loss 0.40000,valid_error 0.20000\n"
	if got := readLog(t, dir); got != want {
		t.Errorf("log.txt = %q, want %q", got, want)
	}

	ckpt.Epoch = 2
	if _, err := SaveCheckpoint(ckpt, false, dir, 5); err != nil {
		t.Fatal(err)
	}
	if got := readLog(t, dir); strings.Count(got, "Epoch ") != 2 {
		t.Errorf("expected two epoch lines, got %q", got)
	}
}

func TestSaveCheckpointBestWritesWeights(t *testing.T) {
	dir := t.TempDir()
	ckpt := Checkpoint{
		Epoch:        3,
		BestAccuracy: 0.9125,
		StateDict:    map[string]torch.Tensor{},
	}
	stop, err := SaveCheckpoint(ckpt, true, dir, 5)
	if err != nil {
		t.Fatal(err)
	}
	if stop {
		t.Error("early stop signalled at counter 0")
	}
	if _, err := os.Stat(filepath.Join(dir, BestModelFile)); err != nil {
		t.Errorf("weights file not written: %v", err)
	}
	if got := readLog(t, dir); !strings.Contains(got, "Get better top1 accuracy: 0.9125") {
		t.Errorf("best message missing from log: %q", got)
	}
}

func TestSaveCheckpointEarlyStop(t *testing.T) {
	dir := t.TempDir()
	ckpt := Checkpoint{Epoch: 12, Counter: 7}
	stop, err := SaveCheckpoint(ckpt, false, dir, 7)
	if err != nil {
		t.Fatal(err)
	}
	if !stop {
		t.Error("expected early stop at counter == patience")
	}
	if got := readLog(t, dir); !strings.Contains(got, "early stopped.\n") {
		t.Errorf("early stop message missing from log: %q", got)
	}
}
