package util

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// Logger is the process wide training logger. It writes to stderr until
// InitLogger points it at a run directory as well.
var Logger = log.New(os.Stderr, "training ", log.LstdFlags)

// InitLogger creates dir if needed and duplicates all subsequent log output
// into run.log under it.
func InitLogger(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(dir, "run.log"))
	if err != nil {
		return err
	}
	Logger = log.New(io.MultiWriter(f, os.Stderr), "training ", log.LstdFlags)
	return nil
}

var debug = os.Getenv("DENSECLS_DEBUG") != ""

// Debug prints s when DENSECLS_DEBUG is set.
func Debug[T any](s T) {
	if debug {
		fmt.Println(s)
	}
}
