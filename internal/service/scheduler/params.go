// Package scheduler implements the FSRS-family spaced-repetition engine.
// Everything in this package is pure: no clock access beyond the explicit
// now argument, no randomness, no I/O.
package scheduler

import (
	"fmt"
	"math"
	"time"
)

// Version identifies the algorithm revision. It is persisted with every
// projection row; a mismatch at read time forces a re-projection.
const Version = "fsrs-21w-1"

// MinStability is the floor for stability values.
const MinStability = 0.1

// DefaultWeights is the published 21-element baseline weight vector.
var DefaultWeights = []float64{
	0.2172,  // w0  - initial stability for Again
	1.1771,  // w1  - initial stability for Hard
	3.2602,  // w2  - initial stability for Good
	16.1507, // w3  - initial stability for Easy
	7.0114,  // w4  - initial difficulty intercept
	0.5700,  // w5  - initial difficulty slope
	2.0966,  // w6  - difficulty update step
	0.0069,  // w7  - difficulty mean-reversion weight
	1.5261,  // w8  - recall stability: exp(w8)
	0.1120,  // w9  - recall stability: S^(-w9)
	1.0178,  // w10 - recall stability: exp(w10*(1-R)) - 1
	1.8490,  // w11 - forget stability: multiplier
	0.1133,  // w12 - forget stability: D^(-w12)
	0.3127,  // w13 - forget stability: (S+1)^w13 - 1
	2.2934,  // w14 - forget stability: exp(w14*(1-R))
	0.2191,  // w15 - recall stability: hard penalty
	3.0004,  // w16 - recall stability: easy bonus
	0.7536,  // w17 - short-term stability scale
	0.3332,  // w18 - short-term stability offset
	0.1437,  // w19 - short-term stability damping exponent
	0.2000,  // w20 - post-lapse stability cap exponent
}

// WeightCount is the required length of a weight vector.
const WeightCount = 21

const (
	minRetention = 0.70
	maxRetention = 0.97
)

// Parameters holds the full scheduling configuration for one deck.
type Parameters struct {
	W                []float64
	RequestRetention float64
	MaxIntervalDays  int
	LearningSteps    []time.Duration
	RelearningSteps  []time.Duration
}

// DefaultParameters returns the server baseline.
func DefaultParameters() Parameters {
	return Parameters{
		W:                DefaultWeights,
		RequestRetention: 0.9,
		MaxIntervalDays:  36500,
		LearningSteps:    []time.Duration{time.Minute, 10 * time.Minute},
		RelearningSteps:  []time.Duration{10 * time.Minute},
	}
}

// Validate checks the parameter set for use by Apply.
func (p Parameters) Validate() error {
	if len(p.W) != WeightCount {
		return fmt.Errorf("weight vector must have %d elements, got %d", WeightCount, len(p.W))
	}
	for i, v := range p.W {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("weight w[%d] is invalid: %v", i, v)
		}
	}
	for i := 0; i < 4; i++ {
		if p.W[i] <= 0 {
			return fmt.Errorf("initial stability weights w[0]-w[3] must be positive")
		}
	}
	if p.RequestRetention < minRetention || p.RequestRetention > maxRetention {
		return fmt.Errorf("request retention must be in [%.2f, %.2f], got %v",
			minRetention, maxRetention, p.RequestRetention)
	}
	if p.MaxIntervalDays < 1 {
		return fmt.Errorf("max interval must be at least 1 day")
	}
	return nil
}

// learningSteps returns the step schedule for the given phase, falling
// back to a single one-minute step when unconfigured.
func (p Parameters) learningSteps(relearning bool) []time.Duration {
	steps := p.LearningSteps
	if relearning {
		steps = p.RelearningSteps
	}
	if len(steps) == 0 {
		steps = []time.Duration{time.Minute}
	}
	return steps
}
