package model

import (
	"fmt"
	"math"
)

// MaxTopics is the largest topic count a sampler accepts.
const MaxTopics = 1 << 20

// Config holds the hyperparameters and run schedule of a sampler.
// It is passed by value and never changed by the sampler.
type Config struct {
	// number of topics K
	Topics int
	// document-topic Dirichlet prior
	Alpha float64
	// topic-word Dirichlet prior
	Beta float64
	// total number of sweeps
	Iterations int
	// sweeps discarded before statistics are collected
	BurnIn int
	// progress reporting cadence, <= 0 disables reporting
	ThinInterval int
	// spacing of accumulated samples, <= 0 keeps only the final state
	SampleLag int
}

// DefaultConfig returns the default schedule for k topics.
func DefaultConfig(k int) Config {
	return Config{
		Topics:       k,
		Alpha:        2.0,
		Beta:         0.5,
		Iterations:   1000,
		BurnIn:       100,
		ThinInterval: 20,
		SampleLag:    10,
	}
}

// Accumulates reports whether averaged statistics are collected.
func (c Config) Accumulates() bool {
	return c.SampleLag > 0
}

// Validate checks the whole configuration.
func (c Config) Validate() error {
	if c.Topics < 1 || c.Topics > MaxTopics {
		return fmt.Errorf("%w: topics %d outside [1, %d]", ErrInvalidConfig, c.Topics, MaxTopics)
	}
	if err := c.validatePriors(); err != nil {
		return err
	}
	return c.validateSchedule()
}

func (c Config) validatePriors() error {
	if !(c.Alpha > 0) || math.IsInf(c.Alpha, 0) {
		return fmt.Errorf("%w: alpha %v must be positive", ErrInvalidConfig, c.Alpha)
	}
	if !(c.Beta > 0) || math.IsInf(c.Beta, 0) {
		return fmt.Errorf("%w: beta %v must be positive", ErrInvalidConfig, c.Beta)
	}
	return nil
}

func (c Config) validateSchedule() error {
	if c.Iterations < 1 {
		return fmt.Errorf("%w: iterations %d must be at least 1", ErrInvalidConfig, c.Iterations)
	}
	if c.BurnIn < 0 || c.BurnIn >= c.Iterations {
		return fmt.Errorf("%w: burn-in %d must be in [0, %d)", ErrInvalidConfig, c.BurnIn, c.Iterations)
	}
	return nil
}

// sampled reports whether the statistics are updated after sweep iter.
// Sweep BurnIn itself still belongs to the burn-in.
func (c Config) sampled(iter int) bool {
	return iter > c.BurnIn && c.Accumulates() && iter%c.SampleLag == 0
}

// ExpectedSamples is the number of snapshots a full run folds into the
// averaged estimates.
func (c Config) ExpectedSamples() int {
	n := 0
	for i := 0; i < c.Iterations; i += 1 {
		if c.sampled(i) {
			n += 1
		}
	}
	return n
}
