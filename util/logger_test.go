package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	old := Logger
	defer func() { Logger = old }()

	if err := InitLogger(dir); err != nil {
		t.Fatal(err)
	}
	Logger.Println("hello from the trainer")
	b, err := os.ReadFile(filepath.Join(dir, "run.log"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "hello from the trainer") {
		t.Errorf("run.log missing message: %q", string(b))
	}
	if !strings.Contains(string(b), "training ") {
		t.Errorf("run.log missing prefix: %q", string(b))
	}
}
