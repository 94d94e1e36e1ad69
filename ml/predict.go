package ml

import (
	"fmt"

	torch "github.com/wangkuiyi/gotorch"
	"gocv.io/x/gocv"
)

// Predict classifies a single image file and returns the top-1 class index.
func Predict(net *DenseNetModule, path string, device torch.Device) (int64, error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	if img.Empty() {
		img.Close()
		return 0, fmt.Errorf("cannot read image %s", path)
	}
	// The transform pipeline takes ownership of img and closes it.
	x := EvalTransforms().Run(img).(torch.Tensor)
	x = x.To(device, x.Dtype())
	x = x.View(1, 3, 224, 224)
	net.Train(false)
	return net.Forward(x).Argmax(1).Item().(int64), nil
}
