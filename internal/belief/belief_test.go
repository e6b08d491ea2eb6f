package belief

import (
	"testing"
	"time"
)

func TestDefaultScore(t *testing.T) {
	b := Default()
	if got := b.Score(); got != 0.5 {
		t.Errorf("Default().Score() = %v, want 0.5", got)
	}
}

func TestUpdateArithmetic(t *testing.T) {
	tests := []struct {
		name        string
		successes   int
		failures    int
		wantPos     float64
		wantNeg     float64
	}{
		{"no outcomes", 0, 0, 1, 1},
		{"three successes", 3, 0, 4, 1},
		{"two failures", 0, 2, 1, 3},
		{"mixed", 3, 2, 4, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Default()
			for i := 0; i < tt.successes; i++ {
				b = b.Update(true)
			}
			for i := 0; i < tt.failures; i++ {
				b = b.Update(false)
			}
			if b.Pos != tt.wantPos || b.Neg != tt.wantNeg {
				t.Errorf("got (%v,%v), want (%v,%v)", b.Pos, b.Neg, tt.wantPos, tt.wantNeg)
			}
		})
	}
}

func TestDecayDisabledAtZeroRate(t *testing.T) {
	b := Belief{Pos: 10, Neg: 1, UpdatedAt: time.Now().Add(-time.Hour)}
	got := b.Decay(0, time.Now())
	if got != b {
		t.Errorf("Decay(0, ...) should be a no-op, got %+v", got)
	}
}

func TestDecayMovesTowardPrior(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	b := Belief{Pos: 100, Neg: 1, UpdatedAt: past}
	decayed := b.Decay(0.000001, time.Now())
	if decayed.Pos >= b.Pos {
		t.Errorf("expected decay to shrink Pos toward 1, got %v", decayed.Pos)
	}
	if decayed.Pos <= 1 {
		t.Errorf("decay should not overshoot past the prior, got %v", decayed.Pos)
	}
}

func TestScoreMonotonic(t *testing.T) {
	b := Default()
	prev := b.Score()
	for i := 0; i < 5; i++ {
		b = b.Update(true)
		if b.Score() <= prev {
			t.Errorf("score should increase after each success: %v <= %v", b.Score(), prev)
		}
		prev = b.Score()
	}
}
