package main

import (
	"fmt"
	"time"

	log "github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/bobonovski/ldagibbs/config"
	"github.com/bobonovski/ldagibbs/corpus"
	"github.com/bobonovski/ldagibbs/model"
	"github.com/bobonovski/ldagibbs/sstable"
	"github.com/bobonovski/ldagibbs/store"
)

var trainFlags struct {
	input      string
	format     string
	vocabSize  int
	configFile string
	topicNum   int
	alpha      float64
	beta       float64
	iteration  int
	burnIn     int
	thin       int
	sampleLag  int
	seed       int64
	output     string
	db         string
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fit an LDA model to a corpus",
	Long: `Fits an LDA model and writes <output>.phi, <output>.theta and
<output>.wt (word-topic counts). With --db the fitted phi is also stored
in a SQLite database and the run id is printed.`,
	Args: cobra.NoArgs,
	RunE: runTrain,
}

func init() {
	f := trainCmd.Flags()
	f.StringVar(&trainFlags.input, "input_file", "", "input training file")
	f.StringVar(&trainFlags.format, "format", "wordcount", "input format: wordcount or tokens")
	f.IntVar(&trainFlags.vocabSize, "vocab_size", 0, "vocabulary size, every word id must be below it")
	f.StringVar(&trainFlags.configFile, "config", "", "YAML run file")
	f.IntVar(&trainFlags.topicNum, "k", 20, "number of topics")
	f.Float64Var(&trainFlags.alpha, "alpha", 2.0, "document-topic mixture hyperparameter")
	f.Float64Var(&trainFlags.beta, "beta", 0.5, "topic-word mixture hyperparameter")
	f.IntVar(&trainFlags.iteration, "iter", 1000, "number of iterations")
	f.IntVar(&trainFlags.burnIn, "burn_in", 100, "iterations discarded before statistics are collected")
	f.IntVar(&trainFlags.thin, "thin", 20, "progress reporting interval, 0 disables it")
	f.IntVar(&trainFlags.sampleLag, "sample_lag", 10, "iterations between collected samples, -1 keeps only the final state")
	f.Int64Var(&trainFlags.seed, "seed", 0, "random seed, defaults to the run file seed or the clock")
	f.StringVar(&trainFlags.output, "output", "", "output file prefix")
	f.StringVar(&trainFlags.db, "db", "", "SQLite database to store the fitted model in")
	trainCmd.MarkFlagRequired("input_file")
	trainCmd.MarkFlagRequired("vocab_size")
}

func parseFormat(s string) (corpus.Format, error) {
	switch s {
	case "wordcount":
		return corpus.FormatWordCount, nil
	case "tokens":
		return corpus.FormatTokens, nil
	}
	return 0, fmt.Errorf("unknown format %q", s)
}

// trainConfig merges defaults, the run file and the flags set on the
// command line, in that order.
func trainConfig(cmd *cobra.Command) (model.Config, int64, error) {
	run := &config.Run{}
	if trainFlags.configFile != "" {
		var err error
		if run, err = config.Load(trainFlags.configFile); err != nil {
			return model.Config{}, 0, err
		}
	}

	f := cmd.Flags()
	if f.Changed("k") || run.Topics == nil {
		run.Topics = &trainFlags.topicNum
	}
	if f.Changed("alpha") {
		run.Alpha = &trainFlags.alpha
	}
	if f.Changed("beta") {
		run.Beta = &trainFlags.beta
	}
	if f.Changed("iter") {
		run.Iterations = &trainFlags.iteration
	}
	if f.Changed("burn_in") {
		run.BurnIn = &trainFlags.burnIn
	}
	if f.Changed("thin") {
		run.ThinInterval = &trainFlags.thin
	}
	if f.Changed("sample_lag") {
		run.SampleLag = &trainFlags.sampleLag
	}
	if f.Changed("seed") {
		run.Seed = &trainFlags.seed
	}

	cfg, err := run.Config(trainFlags.topicNum)
	if err != nil {
		return model.Config{}, 0, err
	}
	return cfg, run.SeedOr(config.DefaultSeed()), nil
}

func runTrain(cmd *cobra.Command, args []string) error {
	cfg, seed, err := trainConfig(cmd)
	if err != nil {
		return err
	}
	format, err := parseFormat(trainFlags.format)
	if err != nil {
		return err
	}

	// read training data
	data, err := corpus.LoadFile(trainFlags.input, format, trainFlags.vocabSize)
	if err != nil {
		return err
	}

	// init model
	log.Infof("training %d topics with seed %d", cfg.Topics, seed)
	m, err := model.NewLDA(data, cfg, model.NewSeededEntropy(seed))
	if err != nil {
		return err
	}
	if err := m.Run(cmd.Context()); err != nil {
		return err
	}

	sweeps := m.SweepTimer()
	log.Infof("%d sweeps, mean %v, p99 %v", sweeps.Count(),
		time.Duration(sweeps.Mean()), time.Duration(sweeps.Percentile(0.99)))

	fitted := m.Fitted()
	log.Infof("final likelihood %f", fitted.LogLikelihood)

	if trainFlags.output != "" {
		if err := saveFitted(trainFlags.output, fitted, m); err != nil {
			return err
		}
	}

	if trainFlags.db != "" {
		s, err := store.Open(cmd.Context(), trainFlags.db)
		if err != nil {
			return err
		}
		defer s.Close()
		id, err := s.Save(cmd.Context(), fitted)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}

// saveFitted writes phi, theta and the word-topic counts next to each
// other under the same prefix.
func saveFitted(prefix string, fitted *model.Fitted, m *model.LDA) error {
	if err := sstable.Float64Serialize(fitted.Phi, prefix+".phi"); err != nil {
		return err
	}
	if err := sstable.Float64Serialize(fitted.Theta, prefix+".theta"); err != nil {
		return err
	}
	if err := sstable.Uint32Serialize(m.Counts().WordTopic, prefix+".wt"); err != nil {
		return err
	}
	return nil
}
