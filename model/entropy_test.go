package model

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeededEntropyRepeats(t *testing.T) {
	a := NewSeededEntropy(99)
	b := NewSeededEntropy(99)
	for i := 0; i < 50; i += 1 {
		x, err := a.Float64()
		require.NoError(t, err)
		y, err := b.Float64()
		require.NoError(t, err)
		assert.Equal(t, x, y)

		n, err := a.Intn(7)
		require.NoError(t, err)
		m, err := b.Intn(7)
		require.NoError(t, err)
		assert.Equal(t, n, m)
	}

	_, err := a.Intn(0)
	assert.True(t, errors.Is(err, ErrEntropy))
}

func TestReaderEntropyRange(t *testing.T) {
	src := NewReaderEntropy(rand.Reader)
	for i := 0; i < 200; i += 1 {
		f, err := src.Float64()
		require.NoError(t, err)
		assert.True(t, f >= 0 && f < 1)

		n, err := src.Intn(3)
		require.NoError(t, err)
		assert.True(t, n >= 0 && n < 3)
	}

	_, err := src.Intn(-1)
	assert.True(t, errors.Is(err, ErrEntropy))
}

func TestReaderEntropyExhausted(t *testing.T) {
	src := NewReaderEntropy(bytes.NewReader([]byte{1, 2, 3}))

	_, err := src.Float64()
	assert.True(t, errors.Is(err, ErrEntropy))
	_, err = src.Intn(4)
	assert.True(t, errors.Is(err, ErrEntropy))
}

func TestReaderEntropyMaxValue(t *testing.T) {
	src := NewReaderEntropy(bytes.NewReader(bytes.Repeat([]byte{0xff}, 8)))
	f, err := src.Float64()
	require.NoError(t, err)
	assert.Less(t, f, 1.0)
}
