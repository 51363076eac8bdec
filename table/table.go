package table

import (
	"errors"
	"fmt"

	"github.com/bobonovski/ldagibbs/matrix"
	"github.com/bobonovski/ldagibbs/util"
)

var ErrInvariant = errors.New("table: count invariant violated")

// Counts holds the sufficient statistics of a collapsed Gibbs sampler
// over one corpus. It is owned by a single sampler and is not safe for
// concurrent use.
type Counts struct {
	// [w, t]-th element counts how many times
	// word w has been assigned to topic t
	WordTopic *matrix.Uint32Matrix
	// [d, t]-th element counts how many words
	// in d has been assigned to topic t
	DocTopic *matrix.Uint32Matrix
	// [t]-th element counts how many words
	// in total has been assigned to topic t
	WordTopicSum []uint32
	// [d]-th element is the length of document d
	DocTopicSum []uint32
	// topic of the i-th word of doc d
	DocWordTopic [][]uint32
}

// NewCounts allocates zeroed tables for docLens documents over a
// vocabulary of vocabSize words and topicNum topics.
func NewCounts(docLens []int, vocabSize, topicNum int) (*Counts, error) {
	wt, err := matrix.NewUint32Matrix(vocabSize, topicNum)
	if err != nil {
		return nil, fmt.Errorf("word-topic table: %w", err)
	}
	dt, err := matrix.NewUint32Matrix(len(docLens), topicNum)
	if err != nil {
		return nil, fmt.Errorf("doc-topic table: %w", err)
	}
	dwt := make([][]uint32, len(docLens))
	for d, n := range docLens {
		dwt[d] = make([]uint32, n)
	}
	return &Counts{
		WordTopic:    wt,
		DocTopic:     dt,
		WordTopicSum: make([]uint32, topicNum),
		DocTopicSum:  make([]uint32, len(docLens)),
		DocWordTopic: dwt,
	}, nil
}

// Assign records topic k for the i-th word w of doc d.
func (this *Counts) Assign(d, i, w, k uint32) {
	this.WordTopic.Incr(w, k, 1)
	this.DocTopic.Incr(d, k, 1)
	this.WordTopicSum[k] += 1
	this.DocTopicSum[d] += 1
	this.DocWordTopic[d][i] = k
}

// Unassign removes the current topic of the i-th word w of doc d from
// the counts and returns it. The assignment itself is left in place
// until the next Assign.
func (this *Counts) Unassign(d, i, w uint32) uint32 {
	k := this.DocWordTopic[d][i]
	this.WordTopic.Decr(w, k, 1)
	this.DocTopic.Decr(d, k, 1)
	this.WordTopicSum[k] -= 1
	this.DocTopicSum[d] -= 1
	return k
}

// Check verifies that topic totals are the column sums of the
// word-topic table, that every document total equals both its row sum
// in the doc-topic table and its length, and that the assignments
// reproduce both tables.
func (this *Counts) Check(docs [][]uint32) error {
	_, topicNum := this.WordTopic.Shape()
	for k := uint32(0); k < topicNum; k += 1 {
		sum := util.VectorSum(this.WordTopic.GetCol(k))
		if sum != uint64(this.WordTopicSum[k]) {
			return fmt.Errorf("%w: topic %d column sum %d, total %d",
				ErrInvariant, k, sum, this.WordTopicSum[k])
		}
	}

	wt, _ := matrix.NewUint32Matrix(int(this.vocabSize()), int(topicNum))
	for d, doc := range docs {
		sum := util.VectorSum(this.DocTopic.GetRow(uint32(d)))
		if sum != uint64(this.DocTopicSum[d]) || sum != uint64(len(doc)) {
			return fmt.Errorf("%w: document %d row sum %d, total %d, length %d",
				ErrInvariant, d, sum, this.DocTopicSum[d], len(doc))
		}
		dt := make([]uint32, topicNum)
		for i, w := range doc {
			k := this.DocWordTopic[d][i]
			dt[k] += 1
			wt.Incr(w, k, 1)
		}
		for k, n := range dt {
			if n != this.DocTopic.Get(uint32(d), uint32(k)) {
				return fmt.Errorf("%w: document %d topic %d has %d assignments, count %d",
					ErrInvariant, d, k, n, this.DocTopic.Get(uint32(d), uint32(k)))
			}
		}
	}
	if !wt.Equal(this.WordTopic) {
		return fmt.Errorf("%w: word-topic table disagrees with assignments", ErrInvariant)
	}
	return nil
}

// Clone returns a deep copy of the tables.
func (this *Counts) Clone() *Counts {
	vocabSize, topicNum := this.WordTopic.Shape()
	docLens := make([]int, len(this.DocWordTopic))
	for d := range docLens {
		docLens[d] = len(this.DocWordTopic[d])
	}
	c, _ := NewCounts(docLens, int(vocabSize), int(topicNum))
	for w := uint32(0); w < vocabSize; w += 1 {
		copy(c.WordTopic.Row(w), this.WordTopic.Row(w))
	}
	for d := range docLens {
		copy(c.DocTopic.Row(uint32(d)), this.DocTopic.Row(uint32(d)))
		copy(c.DocWordTopic[d], this.DocWordTopic[d])
	}
	copy(c.WordTopicSum, this.WordTopicSum)
	copy(c.DocTopicSum, this.DocTopicSum)
	return c
}

func (this *Counts) vocabSize() uint32 {
	v, _ := this.WordTopic.Shape()
	return v
}
