package ml

import "testing"

func TestAverageMeter(t *testing.T) {
	m := NewAverageMeter()
	if m.Val != 0 || m.Sum != 0 || m.Count != 0 || m.Avg != 0 {
		t.Fatalf("fresh meter not zeroed: %+v", m)
	}
	m.Update(2, 1)
	if m.Val != 2 || m.Avg != 2 || m.Sum != 2 || m.Count != 1 {
		t.Errorf("after first update: %+v", m)
	}
	m.Update(4, 3)
	if m.Val != 4 {
		t.Errorf("Val = %v, want 4", m.Val)
	}
	if m.Count != 4 {
		t.Errorf("Count = %v, want 4", m.Count)
	}
	if m.Sum != 14 {
		t.Errorf("Sum = %v, want 14", m.Sum)
	}
	if m.Avg != 3.5 {
		t.Errorf("Avg = %v, want 3.5", m.Avg)
	}
}

func TestAverageMeterReset(t *testing.T) {
	m := NewAverageMeter()
	m.Update(1.5, 10)
	m.Reset()
	if m.Val != 0 || m.Sum != 0 || m.Count != 0 || m.Avg != 0 {
		t.Errorf("after reset: %+v", m)
	}
	m.Update(0.5, 2)
	if m.Avg != 0.5 {
		t.Errorf("Avg after reset and update = %v, want 0.5", m.Avg)
	}
}
