package ml

// AverageMeter stores the latest value of a metric together with its running
// average over everything recorded so far.
type AverageMeter struct {
	Val   float64
	Sum   float64
	Count int
	Avg   float64
}

func NewAverageMeter() *AverageMeter {
	m := &AverageMeter{}
	m.Reset()
	return m
}

func (m *AverageMeter) Reset() {
	*m = AverageMeter{}
}

// Update records val for n samples. Avg stays Sum/Count.
func (m *AverageMeter) Update(val float64, n int) {
	m.Val = val
	m.Sum += val * float64(n)
	m.Count += n
	m.Avg = m.Sum / float64(m.Count)
}
