package ml

import (
	"image"
	"math/rand"

	"github.com/wangkuiyi/gotorch/vision/transforms"
	"gocv.io/x/gocv"
)

// Mean and stdv of the imagenet dataset. Good enough for data in the same
// domain; recalculate on your own data for anything else, e.g. medical images.
var (
	imageNetMean = []float32{0.485, 0.456, 0.406}
	imageNetStdv = []float32{0.229, 0.224, 0.225}
)

// The geometric transformers own their input Mat: they either rework it in
// place or close it once the output Mat is produced, so a pipeline only ever
// holds one live image buffer.

// ResizeTransformer scales the shorter image side to a fixed size, keeping
// the aspect ratio.
type ResizeTransformer struct {
	size int
}

func Resize(size int) *ResizeTransformer {
	return &ResizeTransformer{size: size}
}

func (t *ResizeTransformer) Run(m gocv.Mat) gocv.Mat {
	w, h := m.Cols(), m.Rows()
	outW, outH := t.size, t.size
	if h < w {
		outW = w * t.size / h
	} else if w < h {
		outH = h * t.size / w
	}
	gocv.Resize(m, &m, image.Pt(outW, outH), 0, 0, gocv.InterpolationLinear)
	return m
}

// CenterCropTransformer cuts the central size x size region out of the image.
type CenterCropTransformer struct {
	size int
}

func CenterCrop(size int) *CenterCropTransformer {
	return &CenterCropTransformer{size: size}
}

func (t *CenterCropTransformer) Run(m gocv.Mat) gocv.Mat {
	x := (m.Cols() - t.size) / 2
	y := (m.Rows() - t.size) / 2
	r := m.Region(image.Rect(x, y, x+t.size, y+t.size))
	// Region is a view into m; ToTensor needs contiguous data.
	out := r.Clone()
	r.Close()
	m.Close()
	return out
}

// RandomHorizontalFlipTransformer mirrors the image around the vertical axis
// with probability p.
type RandomHorizontalFlipTransformer struct {
	p float64
}

func RandomHorizontalFlip(p float64) *RandomHorizontalFlipTransformer {
	return &RandomHorizontalFlipTransformer{p: p}
}

func (t *RandomHorizontalFlipTransformer) Run(m gocv.Mat) gocv.Mat {
	if rand.Float64() >= t.p {
		return m
	}
	gocv.Flip(m, &m, 1)
	return m
}

// TrainTransforms is the augmentation pipeline used during training.
func TrainTransforms() *transforms.ComposeTransformer {
	return transforms.Compose(
		Resize(256),
		CenterCrop(224),
		RandomHorizontalFlip(0.5),
		transforms.ToTensor(),
		transforms.Normalize(imageNetMean, imageNetStdv))
}

// EvalTransforms is the deterministic pipeline used for validation, testing
// and prediction.
func EvalTransforms() *transforms.ComposeTransformer {
	return transforms.Compose(
		Resize(256),
		CenterCrop(224),
		transforms.ToTensor(),
		transforms.Normalize(imageNetMean, imageNetStdv))
}
