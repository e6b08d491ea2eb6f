// Package belief implements the Beta-style success/failure counters
// used as selection weights throughout the engine.
package belief

import (
	"math"
	"time"
)

// Belief is a two-count estimate of action success: pos and neg are
// Beta-distribution pseudo-counts, never below 1.
type Belief struct {
	Pos       float64   `json:"pos"`
	Neg       float64   `json:"neg"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Default returns the uninformative prior (1, 1).
func Default() Belief {
	return Belief{Pos: 1, Neg: 1, UpdatedAt: time.Now()}
}

// Score returns the Laplace-smoothed success probability
// (pos+1)/(pos+neg+2).
func (b Belief) Score() float64 {
	return (b.Pos + 1) / (b.Pos + b.Neg + 2)
}

// Succeed returns a new Belief with pos incremented.
func (b Belief) Succeed() Belief {
	return Belief{Pos: b.Pos + 1, Neg: b.Neg, UpdatedAt: time.Now()}
}

// Fail returns a new Belief with neg incremented.
func (b Belief) Fail() Belief {
	return Belief{Pos: b.Pos, Neg: b.Neg + 1, UpdatedAt: time.Now()}
}

// Update applies a success or failure outcome.
func (b Belief) Update(success bool) Belief {
	if success {
		return b.Succeed()
	}
	return b.Fail()
}

// Decay applies exponential decay toward the uninformative prior (1,1)
// at the given per-millisecond rate, evaluated at `now`. A rate of 0
// disables decay and returns b unchanged. Decay is applied at read
// time (see design note on belief decay timing): samplePending calls
// Decay just before reading Score (rule scoring in findAndSample reads
// the stored belief undecayed), so stored beliefs are only ever
// rewritten by Update.
func (b Belief) Decay(ratePerMilli float64, now time.Time) Belief {
	if ratePerMilli <= 0 {
		return b
	}
	elapsedMs := float64(now.Sub(b.UpdatedAt).Milliseconds())
	if elapsedMs <= 0 {
		return b
	}
	factor := math.Exp(-ratePerMilli * elapsedMs)
	return Belief{
		Pos:       1 + (b.Pos-1)*factor,
		Neg:       1 + (b.Neg-1)*factor,
		UpdatedAt: b.UpdatedAt,
	}
}
