package model

import (
	"context"
	"fmt"
	"math"
	"time"

	log "github.com/golang/glog"
	"github.com/rcrowley/go-metrics"
	"gonum.org/v1/gonum/mat"

	"github.com/bobonovski/ldagibbs/corpus"
	"github.com/bobonovski/ldagibbs/table"
)

// LDA fits a Latent Dirichlet Allocation model with a collapsed Gibbs
// sampler. Every draw reads and updates the shared count tables, so a
// sampler is strictly sequential and must not be used from several
// goroutines. Independent chains need independent samplers.
type LDA struct {
	data *corpus.Corpus
	cfg  Config
	rnd  Entropy

	counts *table.Counts
	cumsum []float64

	thetasum *mat.Dense // accumulated doc-topic estimates
	phisum   *mat.Dense // accumulated topic-word estimates
	numstats int

	iter  int
	state State

	sweeps metrics.Timer // duration of completed sweeps
}

// NewLDA creates a LDA instance with collapsed gibbs sampler. The
// configuration and the corpus are validated here, before any state is
// allocated.
func NewLDA(dat *corpus.Corpus, cfg Config, rnd Entropy) (*LDA, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if dat == nil {
		return nil, corpus.ErrEmptyCorpus
	}
	if err := dat.Validate(); err != nil {
		return nil, err
	}
	if uint64(dat.VocabSize)*uint64(cfg.Topics) > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %d topics over %d words exceed the table size",
			ErrInvalidConfig, cfg.Topics, dat.VocabSize)
	}
	if uint64(dat.DocNum())*uint64(cfg.Topics) > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %d topics over %d documents exceed the table size",
			ErrInvalidConfig, cfg.Topics, dat.DocNum())
	}
	if rnd == nil {
		return nil, fmt.Errorf("%w: no entropy source", ErrInvalidConfig)
	}
	return &LDA{
		data:   dat,
		cfg:    cfg,
		rnd:    rnd,
		cumsum: make([]float64, cfg.Topics),
		sweeps: metrics.NewTimer(),
	}, nil
}

func (this *LDA) Config() Config {
	return this.cfg
}

func (this *LDA) State() State {
	return this.state
}

// Iteration is the number of sweeps done since Init.
func (this *LDA) Iteration() int {
	return this.iter
}

// NumStats is the number of snapshots folded into the averages.
func (this *LDA) NumStats() int {
	return this.numstats
}

// SweepTimer records the duration of every successful sweep.
func (this *LDA) SweepTimer() metrics.Timer {
	return this.sweeps
}

// Init allocates the count tables and assigns every token a topic drawn
// uniformly from [0, K). Calling it again discards the previous run.
func (this *LDA) Init() error {
	docLens := make([]int, this.data.DocNum())
	for d, doc := range this.data.Docs {
		docLens[d] = len(doc)
	}
	counts, err := table.NewCounts(docLens, this.data.VocabSize, this.cfg.Topics)
	if err != nil {
		this.state = Failed
		return err
	}

	this.thetasum, this.phisum = nil, nil
	if this.cfg.Accumulates() {
		this.thetasum = mat.NewDense(this.data.DocNum(), this.cfg.Topics, nil)
		this.phisum = mat.NewDense(this.cfg.Topics, this.data.VocabSize, nil)
	}
	this.numstats = 0
	this.iter = 0

	// randomly assign topic to word
	for doc, words := range this.data.Docs {
		for i, w := range words {
			k, err := this.rnd.Intn(this.cfg.Topics)
			if err != nil {
				this.state = Failed
				return fmt.Errorf("init document %d word %d: %w", doc, i, err)
			}
			counts.Assign(uint32(doc), uint32(i), w, uint32(k))
		}
	}

	this.counts = counts
	this.state = Initialized
	return nil
}

// Step runs one sweep over every token of every document, in document
// then token order, and folds the new state into the statistics when
// the schedule asks for it.
func (this *LDA) Step() error {
	switch this.state {
	case Uninitialized:
		return ErrNotInitialized
	case Failed:
		return ErrFailed
	}

	start := time.Now()
	for doc, words := range this.data.Docs {
		for i := range words {
			if err := this.sampleFullConditional(uint32(doc), uint32(i)); err != nil {
				this.state = Failed
				return fmt.Errorf("iteration %d document %d word %d: %w", this.iter, doc, i, err)
			}
		}
	}
	this.sweeps.UpdateSince(start)

	if this.cfg.sampled(this.iter) {
		this.updateParams()
	}
	if this.cfg.ThinInterval > 0 && this.iter%this.cfg.ThinInterval == 0 {
		log.Infof("iter %5d, likelihood %f", this.iter, this.LogLikelihood())
	}

	this.iter += 1
	if this.iter >= this.cfg.Iterations {
		this.state = Converged
	} else {
		this.state = Running
	}
	return nil
}

// Run initializes the sampler and performs the configured number of
// sweeps. The context is checked between sweeps; a cancelled run has to
// be started again from Run.
func (this *LDA) Run(ctx context.Context) error {
	if err := this.Init(); err != nil {
		return err
	}

	log.Infof("Sampling %d iterations with burn-in of %d (B/S=%d).",
		this.cfg.Iterations, this.cfg.BurnIn, this.cfg.ThinInterval)

	for this.iter < this.cfg.Iterations {
		if err := ctx.Err(); err != nil {
			this.state = Failed
			return err
		}
		if err := this.Step(); err != nil {
			return err
		}
	}

	if this.cfg.Accumulates() && this.numstats == 0 {
		log.Warningf("no sample collected after burn-in %d with lag %d, reporting the final state",
			this.cfg.BurnIn, this.cfg.SampleLag)
	}
	return nil
}

// sampleFullConditional draws a new topic for the i-th word of doc from
//
//	p(z_i = k | z_-i, w) = (nw[w][k] + beta) / (nwsum[k] + V*beta)
//	                     * (nd[doc][k] + alpha) / (ndsum[doc] + K*alpha)
//
// and records it. On failure the previous topic is restored so the
// tables stay consistent.
func (this *LDA) sampleFullConditional(doc, i uint32) error {
	w := this.data.Docs[doc][i]

	// decrease corresponding sufficient statistics
	old := this.counts.Unassign(doc, i, w)

	vBeta := float64(this.data.VocabSize) * this.cfg.Beta
	kAlpha := float64(this.cfg.Topics) * this.cfg.Alpha
	wordTopic := this.counts.WordTopic.Row(w)
	docTopic := this.counts.DocTopic.Row(doc)
	docSum := float64(this.counts.DocTopicSum[doc])

	for k := range this.cumsum {
		p := (float64(wordTopic[k]) + this.cfg.Beta) /
			(float64(this.counts.WordTopicSum[k]) + vBeta) *
			(float64(docTopic[k]) + this.cfg.Alpha) / (docSum + kAlpha)
		if k == 0 {
			this.cumsum[k] = p
		} else {
			this.cumsum[k] = this.cumsum[k-1] + p
		}
	}

	k, err := drawTopic(this.cumsum, this.rnd)
	if err != nil {
		this.counts.Assign(doc, i, w, old)
		return err
	}

	// increase corresponding sufficient statistics
	this.counts.Assign(doc, i, w, k)
	return nil
}

// drawTopic picks the smallest index whose cumulative weight exceeds a
// uniform draw over [0, cumsum[K-1]).
func drawTopic(cumsum []float64, rnd Entropy) (uint32, error) {
	total := cumsum[len(cumsum)-1]
	if !(total > 0) || math.IsInf(total, 0) {
		return 0, fmt.Errorf("%w: cumulative weight %v", ErrDegenerate, total)
	}
	r, err := rnd.Float64()
	if err != nil {
		return 0, err
	}
	u := r * total
	for k, c := range cumsum {
		if u < c {
			return uint32(k), nil
		}
	}
	return 0, fmt.Errorf("%w: draw %v not below cumulative weight %v", ErrDegenerate, u, total)
}

// add the current theta and phi to the statistics
func (this *LDA) updateParams() {
	this.thetasum.Add(this.thetasum, this.SnapshotTheta())
	this.phisum.Add(this.phisum, this.SnapshotPhi())
	this.numstats += 1
}

// SnapshotTheta computes the posterior point estimate of the
// document-topic mixture from the current counts,
// alpha (Dirichlet prior) + data -> theta. It returns nil before Init.
func (this *LDA) SnapshotTheta() *mat.Dense {
	if this.counts == nil {
		return nil
	}
	docNum, topicNum := this.data.DocNum(), this.cfg.Topics
	kAlpha := float64(topicNum) * this.cfg.Alpha

	theta := mat.NewDense(docNum, topicNum, nil)
	for d := 0; d < docNum; d += 1 {
		row := this.counts.DocTopic.Row(uint32(d))
		sum := float64(this.counts.DocTopicSum[d])
		for k := 0; k < topicNum; k += 1 {
			theta.Set(d, k, (float64(row[k])+this.cfg.Alpha)/(sum+kAlpha))
		}
	}
	return theta
}

// SnapshotPhi computes the posterior point estimate of the topic-word
// mixture from the current counts, beta (Dirichlet prior) + data -> phi.
// It returns nil before Init.
func (this *LDA) SnapshotPhi() *mat.Dense {
	if this.counts == nil {
		return nil
	}
	vocabSize, topicNum := this.data.VocabSize, this.cfg.Topics
	vBeta := float64(vocabSize) * this.cfg.Beta

	phi := mat.NewDense(topicNum, vocabSize, nil)
	for w := 0; w < vocabSize; w += 1 {
		row := this.counts.WordTopic.Row(uint32(w))
		for k := 0; k < topicNum; k += 1 {
			phi.Set(k, w, (float64(row[k])+this.cfg.Beta)/
				(float64(this.counts.WordTopicSum[k])+vBeta))
		}
	}
	return phi
}

// Theta is the doc-topic estimate (M x K): the mean of the collected
// samples when any were collected, otherwise the current snapshot.
func (this *LDA) Theta() *mat.Dense {
	if this.numstats > 0 {
		theta := mat.DenseCopyOf(this.thetasum)
		theta.Scale(1/float64(this.numstats), theta)
		return theta
	}
	return this.SnapshotTheta()
}

// Phi is the topic-word estimate (K x V), averaged like Theta.
func (this *LDA) Phi() *mat.Dense {
	if this.numstats > 0 {
		phi := mat.DenseCopyOf(this.phisum)
		phi.Scale(1/float64(this.numstats), phi)
		return phi
	}
	return this.SnapshotPhi()
}

// LogLikelihood is the log-likelihood of the corpus under the current
// snapshot, sum over tokens of log sum_k phi[k][w] * theta[d][k].
func (this *LDA) LogLikelihood() float64 {
	if this.counts == nil {
		return math.NaN()
	}
	phi := this.SnapshotPhi()
	theta := this.SnapshotTheta()

	sum := float64(0.0)
	for doc, words := range this.data.Docs {
		for _, w := range words {
			topicSum := float64(0.0)
			for k := 0; k < this.cfg.Topics; k += 1 {
				topicSum += phi.At(k, int(w)) * theta.At(doc, k)
			}
			sum += math.Log(topicSum)
		}
	}
	return sum
}

// Assignments returns a copy of the topic of every token.
func (this *LDA) Assignments() [][]uint32 {
	if this.counts == nil {
		return nil
	}
	z := make([][]uint32, len(this.counts.DocWordTopic))
	for d, topics := range this.counts.DocWordTopic {
		z[d] = append([]uint32(nil), topics...)
	}
	return z
}

// Counts returns a copy of the count tables.
func (this *LDA) Counts() *table.Counts {
	if this.counts == nil {
		return nil
	}
	return this.counts.Clone()
}

// CheckInvariants verifies the count tables against the assignments.
func (this *LDA) CheckInvariants() error {
	if this.counts == nil {
		return ErrNotInitialized
	}
	return this.counts.Check(this.data.Docs)
}

func (this *LDA) Fitted() *Fitted {
	return &Fitted{
		Config:        this.cfg,
		VocabSize:     this.data.VocabSize,
		Phi:           this.Phi(),
		Theta:         this.Theta(),
		LogLikelihood: this.LogLikelihood(),
	}
}

var _ Model = (*LDA)(nil)
