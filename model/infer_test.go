package model

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/bobonovski/ldagibbs/corpus"
	"github.com/bobonovski/ldagibbs/util"
)

// separatedPhi is the topic-word estimate of a training state where
// every occurrence of word 0 sits in topic 0 and every occurrence of
// word 1 in topic 1.
func separatedPhi(n, vocabSize int, beta float64) *mat.Dense {
	phi := mat.NewDense(2, vocabSize, nil)
	for k := 0; k < 2; k += 1 {
		for w := 0; w < vocabSize; w += 1 {
			count := 0.0
			if w == k {
				count = float64(n)
			}
			phi.Set(k, w, (count+beta)/(float64(n)+float64(vocabSize)*beta))
		}
	}
	return phi
}

func repeat(w uint32, n int) []uint32 {
	doc := make([]uint32, n)
	for i := range doc {
		doc[i] = w
	}
	return doc
}

func inferConfig() Config {
	cfg := DefaultConfig(2)
	cfg.Iterations = 100
	cfg.BurnIn = 0
	return cfg
}

func TestInferSeparatedTopics(t *testing.T) {
	phi := separatedPhi(1000, 3, 0.01)

	theta, err := Infer(phi, repeat(0, 50), inferConfig(), NewSeededEntropy(3))
	require.NoError(t, err)
	require.Len(t, theta, 2)
	assert.InDelta(t, 1.0, floats.Sum(theta), 1e-12)
	assert.Greater(t, theta[0], 0.9)
	assert.Less(t, theta[1], 0.1)

	theta, err = Infer(phi, repeat(1, 50), inferConfig(), NewSeededEntropy(3))
	require.NoError(t, err)
	assert.Greater(t, theta[1], 0.9)
}

func TestInferDoesNotTouchPhi(t *testing.T) {
	phi := separatedPhi(100, 3, 0.5)
	before := mat.DenseCopyOf(phi)

	_, err := Infer(phi, []uint32{0, 1, 2, 0}, inferConfig(), NewSeededEntropy(8))
	require.NoError(t, err)
	assert.True(t, mat.Equal(before, phi))
}

func TestInferDeterministic(t *testing.T) {
	phi := separatedPhi(10, 4, 0.5)
	doc := []uint32{0, 1, 2, 3, 0, 1}

	a, err := Infer(phi, doc, inferConfig(), NewSeededEntropy(17))
	require.NoError(t, err)
	b, err := Infer(phi, doc, inferConfig(), NewSeededEntropy(17))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestInferDocumentCounts(t *testing.T) {
	phi := separatedPhi(10, 4, 0.5)
	cfg := inferConfig()

	for _, doc := range [][]uint32{{0}, {0, 1, 2, 3}, {3, 3, 3, 1, 0, 2, 2}} {
		nd, err := sampleDocument(phi, 2, doc, cfg, NewSeededEntropy(5))
		require.NoError(t, err)
		require.Len(t, nd, 2)
		assert.Equal(t, uint64(len(doc)), util.VectorSum(nd), "%v", doc)

		// theta[k] * (N + K*alpha) - alpha recovers the counts
		theta, err := Infer(phi, doc, cfg, NewSeededEntropy(5))
		require.NoError(t, err)
		n := float64(len(doc))
		total := 0.0
		for k, p := range theta {
			count := p*(n+2*cfg.Alpha) - cfg.Alpha
			assert.InDelta(t, float64(nd[k]), count, 1e-9)
			total += count
		}
		assert.InDelta(t, n, total, 1e-9)
	}
}

func TestInferEmptyDocumentIsPrior(t *testing.T) {
	theta, err := Infer(separatedPhi(10, 3, 0.5), nil, inferConfig(), NewSeededEntropy(1))
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.5}, theta)
}

func TestInferWithFittedPhi(t *testing.T) {
	c, err := corpus.New([][]uint32{
		{0, 1, 2, 0, 1, 2},
		{3, 4, 5, 3, 4, 5},
		{0, 2, 1, 1, 0},
		{5, 4, 3, 3, 4},
	}, 6)
	require.NoError(t, err)
	cfg := testConfig(2)
	m := newTestLDA(t, c, cfg, 4)
	require.NoError(t, m.Run(context.Background()))

	theta, err := Infer(m.Phi(), []uint32{0, 1, 2, 2}, cfg, NewSeededEntropy(4))
	require.NoError(t, err)
	assert.Len(t, theta, 2)
	assert.InDelta(t, 1.0, floats.Sum(theta), 1e-12)
}

func TestInferRejectsBadInput(t *testing.T) {
	phi := separatedPhi(10, 3, 0.5)
	cfg := inferConfig()

	_, err := Infer(phi, []uint32{0, 3}, cfg, NewSeededEntropy(1))
	assert.True(t, errors.Is(err, corpus.ErrTokenOutOfRange))

	_, err = Infer(nil, []uint32{0}, cfg, NewSeededEntropy(1))
	assert.True(t, errors.Is(err, ErrBadPhi))

	bad := mat.DenseCopyOf(phi)
	bad.Set(1, 2, -0.1)
	_, err = Infer(bad, []uint32{0}, cfg, NewSeededEntropy(1))
	assert.True(t, errors.Is(err, ErrBadPhi))

	bad.Set(1, 2, math.NaN())
	_, err = Infer(bad, []uint32{0}, cfg, NewSeededEntropy(1))
	assert.True(t, errors.Is(err, ErrBadPhi))

	noAlpha := cfg
	noAlpha.Alpha = 0
	_, err = Infer(phi, []uint32{0}, noAlpha, NewSeededEntropy(1))
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	noIter := cfg
	noIter.Iterations = 0
	_, err = Infer(phi, []uint32{0}, noIter, NewSeededEntropy(1))
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	_, err = Infer(phi, []uint32{0}, cfg, nil)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestInferDegenerateWord(t *testing.T) {
	// no topic gives any mass to word 2
	phi := mat.NewDense(2, 3, []float64{
		0.5, 0.5, 0,
		0.7, 0.3, 0,
	})
	_, err := Infer(phi, []uint32{0, 2}, inferConfig(), NewSeededEntropy(1))
	assert.True(t, errors.Is(err, ErrDegenerate))
}
