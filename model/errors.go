package model

import "errors"

var (
	// ErrInvalidConfig is returned before any sampling for a bad Config.
	ErrInvalidConfig = errors.New("model: invalid configuration")
	// ErrDegenerate means the cumulative topic weights could not select
	// a topic, usually because K is too small for the data or the
	// weights underflowed.
	ErrDegenerate = errors.New("model: degenerate topic distribution, the number of topics may be too small")
	// ErrEntropy wraps a failure of the random source.
	ErrEntropy = errors.New("model: entropy source failed")
	// ErrNotInitialized is returned when sampling is requested before Init.
	ErrNotInitialized = errors.New("model: sampler not initialized")
	// ErrFailed is returned when stepping a sampler whose run has failed.
	ErrFailed = errors.New("model: sampler failed, restart from initialization")
	// ErrBadPhi rejects topic-word matrices unusable for inference.
	ErrBadPhi = errors.New("model: invalid topic-word matrix")
)
