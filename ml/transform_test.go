package ml

import (
	"testing"

	"gocv.io/x/gocv"
)

func TestResizeShortSide(t *testing.T) {
	// 300 rows x 400 cols: the short side is the height. Resize reworks the
	// input in place and returns it.
	m := gocv.NewMatWithSize(300, 400, gocv.MatTypeCV8UC3)
	out := Resize(256).Run(m)
	defer out.Close()
	if out.Rows() != 256 {
		t.Errorf("rows = %d, want 256", out.Rows())
	}
	if want := 400 * 256 / 300; out.Cols() != want {
		t.Errorf("cols = %d, want %d", out.Cols(), want)
	}
}

func TestResizePortrait(t *testing.T) {
	m := gocv.NewMatWithSize(500, 250, gocv.MatTypeCV8UC3)
	out := Resize(256).Run(m)
	defer out.Close()
	if out.Cols() != 256 {
		t.Errorf("cols = %d, want 256", out.Cols())
	}
	if want := 500 * 256 / 250; out.Rows() != want {
		t.Errorf("rows = %d, want %d", out.Rows(), want)
	}
}

func TestCenterCrop(t *testing.T) {
	// CenterCrop consumes its input and returns a fresh contiguous Mat.
	m := gocv.NewMatWithSize(300, 400, gocv.MatTypeCV8UC3)
	out := CenterCrop(224).Run(m)
	defer out.Close()
	if out.Rows() != 224 || out.Cols() != 224 {
		t.Errorf("crop = %dx%d, want 224x224", out.Rows(), out.Cols())
	}
}

func TestRandomHorizontalFlip(t *testing.T) {
	m := gocv.NewMatWithSize(1, 2, gocv.MatTypeCV8UC1)
	m.SetUCharAt(0, 0, 10)
	m.SetUCharAt(0, 1, 200)

	// p=1 always flips, in place.
	out := RandomHorizontalFlip(1).Run(m)
	defer out.Close()
	if got := out.GetUCharAt(0, 0); got != 200 {
		t.Errorf("flipped[0,0] = %d, want 200", got)
	}
	if got := out.GetUCharAt(0, 1); got != 10 {
		t.Errorf("flipped[0,1] = %d, want 10", got)
	}

	// p=0 passes the input through untouched.
	same := RandomHorizontalFlip(0).Run(out)
	if got := same.GetUCharAt(0, 0); got != 200 {
		t.Errorf("unflipped[0,0] = %d, want 200", got)
	}
}

func TestGeometricPipelineSingleBuffer(t *testing.T) {
	// Chaining the geometric stages by hand must leave exactly one Mat to
	// close, the way the composed loader pipeline runs them.
	m := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	out := CenterCrop(224).Run(Resize(256).Run(m))
	out = RandomHorizontalFlip(1).Run(out)
	defer out.Close()
	if out.Rows() != 224 || out.Cols() != 224 {
		t.Errorf("pipeline output = %dx%d, want 224x224", out.Rows(), out.Cols())
	}
}
