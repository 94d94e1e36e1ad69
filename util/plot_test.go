package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCurvesSave(t *testing.T) {
	c := NewCurves("train loss", "valid error")
	c.Add(1, 0.9, 0.5)
	c.Add(2, 0.7, 0.4)
	c.Add(3, 0.6, 0.35)
	if c.Len() != 3 {
		t.Errorf("Len = %d, want 3", c.Len())
	}
	path := filepath.Join(t.TempDir(), "curves.svg")
	if err := c.Save(path); err != nil {
		t.Fatal(err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Size() == 0 {
		t.Error("empty plot file")
	}
}

func TestCurvesAddExtraValues(t *testing.T) {
	c := NewCurves("loss")
	c.Add(1, 0.5, 0.9) // second value has no series and is dropped
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestCurvesEmptySeries(t *testing.T) {
	c := NewCurves("loss")
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
	path := filepath.Join(t.TempDir(), "empty.svg")
	if err := c.Save(path); err != nil {
		t.Fatal(err)
	}
}
