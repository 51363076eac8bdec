package model

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"math/rand"
)

// Entropy is the single source of randomness of a sampler. Every draw
// can fail, and a failed draw stops the run.
type Entropy interface {
	// Float64 returns a value in [0, 1)
	Float64() (float64, error)
	// Intn returns a value in [0, n)
	Intn(n int) (int, error)
}

type seededEntropy struct {
	rnd *rand.Rand
}

// NewSeededEntropy returns a deterministic source: equal seeds give
// equal sequences of draws.
func NewSeededEntropy(seed int64) Entropy {
	return &seededEntropy{rnd: rand.New(rand.NewSource(seed))}
}

func (s *seededEntropy) Float64() (float64, error) {
	return s.rnd.Float64(), nil
}

func (s *seededEntropy) Intn(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("%w: Intn(%d)", ErrEntropy, n)
	}
	return s.rnd.Intn(n), nil
}

type readerEntropy struct {
	r   io.Reader
	buf [8]byte
}

// NewReaderEntropy draws from a byte stream such as crypto/rand.Reader.
// Read errors, including a short stream, surface as ErrEntropy.
func NewReaderEntropy(r io.Reader) Entropy {
	return &readerEntropy{r: r}
}

func (s *readerEntropy) uint64() (uint64, error) {
	if _, err := io.ReadFull(s.r, s.buf[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrEntropy, err)
	}
	return binary.LittleEndian.Uint64(s.buf[:]), nil
}

func (s *readerEntropy) Float64() (float64, error) {
	v, err := s.uint64()
	if err != nil {
		return 0, err
	}
	return float64(v>>11) / (1 << 53), nil
}

func (s *readerEntropy) Intn(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("%w: Intn(%d)", ErrEntropy, n)
	}
	bound := uint64(n)
	// reject the low values that would bias the modulo
	threshold := (math.MaxUint64 - bound + 1) % bound
	for {
		v, err := s.uint64()
		if err != nil {
			return 0, err
		}
		if v >= threshold {
			return int(v % bound), nil
		}
	}
}
