package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bobonovski/ldagibbs/model"
)

// Run is the YAML run file of a training job. Pointer fields
// distinguish an absent key from a zero value.
type Run struct {
	Topics       *int     `yaml:"topics"`
	Alpha        *float64 `yaml:"alpha"`
	Beta         *float64 `yaml:"beta"`
	Iterations   *int     `yaml:"iterations"`
	BurnIn       *int     `yaml:"burn_in"`
	ThinInterval *int     `yaml:"thin_interval"`
	SampleLag    *int     `yaml:"sample_lag"`
	Seed         *int64   `yaml:"seed"`
}

// Load reads a run file from path.
func Load(path string) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a run file. Unknown keys are rejected.
func Parse(data []byte) (*Run, error) {
	var run Run
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&run); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidConfig, err)
	}
	return &run, nil
}

// Config applies the run file on top of model.DefaultConfig(topics).
// The result is validated.
func (r *Run) Config(topics int) (model.Config, error) {
	if r.Topics != nil {
		topics = *r.Topics
	}
	cfg := model.DefaultConfig(topics)
	if r.Alpha != nil {
		cfg.Alpha = *r.Alpha
	}
	if r.Beta != nil {
		cfg.Beta = *r.Beta
	}
	if r.Iterations != nil {
		cfg.Iterations = *r.Iterations
	}
	if r.BurnIn != nil {
		cfg.BurnIn = *r.BurnIn
	}
	if r.ThinInterval != nil {
		cfg.ThinInterval = *r.ThinInterval
	}
	if r.SampleLag != nil {
		cfg.SampleLag = *r.SampleLag
	}
	if err := cfg.Validate(); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

// SeedOr returns the configured seed, or fallback when none is set.
func (r *Run) SeedOr(fallback int64) int64 {
	if r.Seed != nil {
		return *r.Seed
	}
	return fallback
}

// Marshal renders cfg and seed as a run file.
func Marshal(cfg model.Config, seed int64) ([]byte, error) {
	return yaml.Marshal(&Run{
		Topics:       &cfg.Topics,
		Alpha:        &cfg.Alpha,
		Beta:         &cfg.Beta,
		Iterations:   &cfg.Iterations,
		BurnIn:       &cfg.BurnIn,
		ThinInterval: &cfg.ThinInterval,
		SampleLag:    &cfg.SampleLag,
		Seed:         &seed,
	})
}

// DefaultSeed is used when neither the run file nor the command line
// sets a seed.
func DefaultSeed() int64 {
	return time.Now().UnixNano()
}
