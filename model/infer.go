package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/bobonovski/ldagibbs/corpus"
)

// Infer estimates the topic mixture of a new document against a fitted
// topic-word matrix phi (K x V). Only the document's own topic
// assignments are sampled, phi is never modified. The chain runs for
// cfg.Iterations sweeps with prior cfg.Alpha; cfg.Topics is ignored in
// favour of the row count of phi, and cfg.Beta is unused because the
// topic-word side is fixed. The result has length K and sums to one.
func Infer(phi mat.Matrix, doc []uint32, cfg Config, rnd Entropy) ([]float64, error) {
	if err := cfg.validatePriors(); err != nil {
		return nil, err
	}
	if err := cfg.validateSchedule(); err != nil {
		return nil, err
	}
	if rnd == nil {
		return nil, fmt.Errorf("%w: no entropy source", ErrInvalidConfig)
	}
	topicNum, vocabSize, err := checkPhi(phi)
	if err != nil {
		return nil, err
	}
	if err := corpus.CheckTokens(doc, vocabSize); err != nil {
		return nil, err
	}

	nd, err := sampleDocument(phi, topicNum, doc, cfg, rnd)
	if err != nil {
		return nil, err
	}

	kAlpha := float64(topicNum) * cfg.Alpha
	theta := make([]float64, topicNum)
	for k := range theta {
		theta[k] = (float64(nd[k]) + cfg.Alpha) / (float64(len(doc)) + kAlpha)
	}
	return theta, nil
}

// sampleDocument runs the inference chain of doc against phi and
// returns the final per-topic counts of the document.
func sampleDocument(phi mat.Matrix, topicNum int, doc []uint32, cfg Config, rnd Entropy) ([]uint32, error) {
	// phi columns of the words present in doc
	wordTopic := make(map[uint32][]float64)
	for _, w := range doc {
		if _, ok := wordTopic[w]; !ok {
			wordTopic[w] = mat.Col(nil, int(w), phi)
		}
	}

	nd := make([]uint32, topicNum)
	z := make([]uint32, len(doc))
	for n := range doc {
		k, err := rnd.Intn(topicNum)
		if err != nil {
			return nil, fmt.Errorf("init word %d: %w", n, err)
		}
		z[n] = uint32(k)
		nd[k] += 1
	}
	ndsum := len(doc)

	kAlpha := float64(topicNum) * cfg.Alpha
	cumsum := make([]float64, topicNum)
	for iter := 0; iter < cfg.Iterations; iter += 1 {
		for n, w := range doc {
			nd[z[n]] -= 1
			ndsum -= 1

			col := wordTopic[w]
			for k := range cumsum {
				p := col[k] * (float64(nd[k]) + cfg.Alpha) / (float64(ndsum) + kAlpha)
				if k == 0 {
					cumsum[k] = p
				} else {
					cumsum[k] = cumsum[k-1] + p
				}
			}
			k, err := drawTopic(cumsum, rnd)
			if err != nil {
				return nil, fmt.Errorf("iteration %d word %d: %w", iter, n, err)
			}

			nd[k] += 1
			ndsum += 1
			z[n] = k
		}
	}

	return nd, nil
}

func checkPhi(phi mat.Matrix) (int, int, error) {
	if phi == nil {
		return 0, 0, fmt.Errorf("%w: nil", ErrBadPhi)
	}
	topicNum, vocabSize := phi.Dims()
	if topicNum < 1 || vocabSize < 1 {
		return 0, 0, fmt.Errorf("%w: shape %dx%d", ErrBadPhi, topicNum, vocabSize)
	}
	for k := 0; k < topicNum; k += 1 {
		for w := 0; w < vocabSize; w += 1 {
			v := phi.At(k, w)
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return 0, 0, fmt.Errorf("%w: entry [%d, %d] = %v", ErrBadPhi, k, w, v)
			}
		}
	}
	return topicNum, vocabSize, nil
}
