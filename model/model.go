package model

import (
	"context"

	"gonum.org/v1/gonum/mat"
)

// the common interface topic model samplers follow
type Model interface {
	// run the sampler for the configured schedule
	Run(ctx context.Context) error
	// get doc-topic distribution (M x K)
	Theta() *mat.Dense
	// get topic-word distribution (K x V)
	Phi() *mat.Dense
	// joint log-likelihood of the corpus under the current state
	LogLikelihood() float64
	// the artifact kept after training
	Fitted() *Fitted
}

// Fitted is what survives a training run. Phi alone is enough for
// inference on new documents.
type Fitted struct {
	Config        Config
	VocabSize     int
	Phi           *mat.Dense
	Theta         *mat.Dense
	LogLikelihood float64
}

// State is the lifecycle position of a sampler.
type State int

const (
	Uninitialized State = iota
	Initialized
	Running
	Converged
	Failed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case Running:
		return "running"
	case Converged:
		return "converged"
	case Failed:
		return "failed"
	}
	return "unknown"
}
