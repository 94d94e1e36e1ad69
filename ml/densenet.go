package ml

import (
	"fmt"

	torch "github.com/wangkuiyi/gotorch"
	"github.com/wangkuiyi/gotorch/nn"
	F "github.com/wangkuiyi/gotorch/nn/functional"
)

// Block configurations for the supported DenseNet-BC depths.
var archBlocks = map[string][4]int{
	"densenet121": {6, 12, 24, 16},
	"densenet169": {6, 12, 32, 32},
	"densenet201": {6, 12, 48, 32},
}

const (
	growthRate int64 = 32
	bnSize     int64 = 4
	// Dense features travel as equal-width channel groups of growthRate
	// channels each; the stem and the transitions emit stemGroups of them.
	stemGroups = 2
)

// catGroups concatenates equal-width feature groups along the channel dim.
// The framework has no concat op; stacking same-shape groups on a fresh dim
// and folding it into the channels is equivalent.
func catGroups(groups []torch.Tensor) torch.Tensor {
	if len(groups) == 1 {
		return groups[0]
	}
	s := torch.Stack(groups, 1)
	sh := groups[0].Shape()
	return s.View(sh[0], int64(len(groups))*sh[1], sh[2], sh[3])
}

// halve pools the feature maps down to half their spatial resolution.
func halve(x torch.Tensor) torch.Tensor {
	sh := x.Shape()
	return F.AdaptiveAvgPool2d(x, []int64{sh[2] / 2, sh[3] / 2})
}

// DenseLayerModule is one BN-ReLU-Conv(1x1)-BN-ReLU-Conv(3x3) unit. It reads
// the concatenation of every group produced so far and appends one new
// growthRate-wide group.
type DenseLayerModule struct {
	nn.Module
	Norm1 *nn.BatchNorm2dModule
	Conv1 *nn.Conv2dModule
	Norm2 *nn.BatchNorm2dModule
	Conv2 *nn.Conv2dModule
}

func DenseLayer(in int64) *DenseLayerModule {
	l := &DenseLayerModule{
		Norm1: nn.BatchNorm2d(in, 1e-5, 0.1, true, true),
		Conv1: nn.Conv2d(in, bnSize*growthRate, 1, 1, 0, 1, 1, false, "zeros"),
		Norm2: nn.BatchNorm2d(bnSize*growthRate, 1e-5, 0.1, true, true),
		Conv2: nn.Conv2d(bnSize*growthRate, growthRate, 3, 1, 1, 1, 1, false, "zeros"),
	}
	l.Init(l)
	return l
}

func (l *DenseLayerModule) Forward(groups []torch.Tensor) []torch.Tensor {
	x := catGroups(groups)
	y := l.Conv1.Forward(torch.Relu(l.Norm1.Forward(x)))
	y = l.Conv2.Forward(torch.Relu(l.Norm2.Forward(y)))
	return append(groups, y)
}

// TransitionModule compresses a finished dense block back down to stemGroups
// feature groups at half the spatial resolution.
type TransitionModule struct {
	nn.Module
	Norm  *nn.BatchNorm2dModule
	Conv1 *nn.Conv2dModule
	Conv2 *nn.Conv2dModule
}

func Transition(in int64) *TransitionModule {
	t := &TransitionModule{
		Norm:  nn.BatchNorm2d(in, 1e-5, 0.1, true, true),
		Conv1: nn.Conv2d(in, growthRate, 1, 1, 0, 1, 1, false, "zeros"),
		Conv2: nn.Conv2d(in, growthRate, 1, 1, 0, 1, 1, false, "zeros"),
	}
	t.Init(t)
	return t
}

func (t *TransitionModule) Forward(groups []torch.Tensor) []torch.Tensor {
	x := torch.Relu(t.Norm.Forward(catGroups(groups)))
	return []torch.Tensor{halve(t.Conv1.Forward(x)), halve(t.Conv2.Forward(x))}
}

// DenseNetModule is a DenseNet-BC variant built from channel groups: each
// stage opens with stemGroups groups, so every concatenation works on
// growthRate-wide tensors. The head emits log-probabilities so that NllLoss
// yields the cross-entropy.
type DenseNetModule struct {
	nn.Module
	Conv0a     *nn.Conv2dModule
	Norm0a     *nn.BatchNorm2dModule
	Conv0b     *nn.Conv2dModule
	Norm0b     *nn.BatchNorm2dModule
	Block1     *nn.SequentialModule
	Trans1     *TransitionModule
	Block2     *nn.SequentialModule
	Trans2     *TransitionModule
	Block3     *nn.SequentialModule
	Trans3     *TransitionModule
	Block4     *nn.SequentialModule
	Norm5      *nn.BatchNorm2dModule
	Classifier *nn.LinearModule
}

// DenseNet builds the classifier for one of the supported architectures with
// the given number of target classes.
func DenseNet(arch string, classes int64) (*DenseNetModule, error) {
	blocks, ok := archBlocks[arch]
	if !ok {
		return nil, fmt.Errorf("unknown model type %q", arch)
	}
	m := &DenseNetModule{
		Conv0a: nn.Conv2d(3, growthRate, 7, 2, 3, 1, 1, false, "zeros"),
		Norm0a: nn.BatchNorm2d(growthRate, 1e-5, 0.1, true, true),
		Conv0b: nn.Conv2d(3, growthRate, 7, 2, 3, 1, 1, false, "zeros"),
		Norm0b: nn.BatchNorm2d(growthRate, 1e-5, 0.1, true, true),
	}
	ch := int64(stemGroups) * growthRate
	seqs := make([]*nn.SequentialModule, 4)
	trans := make([]*TransitionModule, 3)
	for i, n := range blocks {
		layers := make([]nn.IModule, n)
		for j := range layers {
			layers[j] = DenseLayer(ch)
			ch += growthRate
		}
		seqs[i] = nn.Sequential(layers...)
		if i < 3 {
			trans[i] = Transition(ch)
			ch = int64(stemGroups) * growthRate
		}
	}
	m.Block1, m.Block2, m.Block3, m.Block4 = seqs[0], seqs[1], seqs[2], seqs[3]
	m.Trans1, m.Trans2, m.Trans3 = trans[0], trans[1], trans[2]
	m.Norm5 = nn.BatchNorm2d(ch, 1e-5, 0.1, true, true)
	m.Classifier = nn.Linear(ch, classes, true)
	m.Init(m)
	return m, nil
}

func (m *DenseNetModule) stem(x torch.Tensor, conv *nn.Conv2dModule, norm *nn.BatchNorm2dModule) torch.Tensor {
	y := torch.Relu(norm.Forward(conv.Forward(x)))
	return F.MaxPool2d(y, []int64{3, 3}, []int64{2, 2}, []int64{1, 1}, []int64{1, 1}, false)
}

func (m *DenseNetModule) Forward(x torch.Tensor) torch.Tensor {
	groups := []torch.Tensor{
		m.stem(x, m.Conv0a, m.Norm0a),
		m.stem(x, m.Conv0b, m.Norm0b),
	}
	groups = m.Block1.Forward(groups).([]torch.Tensor)
	groups = m.Trans1.Forward(groups)
	groups = m.Block2.Forward(groups).([]torch.Tensor)
	groups = m.Trans2.Forward(groups)
	groups = m.Block3.Forward(groups).([]torch.Tensor)
	groups = m.Trans3.Forward(groups)
	groups = m.Block4.Forward(groups).([]torch.Tensor)
	y := torch.Relu(m.Norm5.Forward(catGroups(groups)))
	y = F.AdaptiveAvgPool2d(y, []int64{1, 1})
	y = y.View(y.Shape()[0], -1)
	return F.LogSoftmax(m.Classifier.Forward(y), 1)
}
