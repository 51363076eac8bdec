package main

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	log "github.com/golang/glog"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/bobonovski/ldagibbs/config"
	"github.com/bobonovski/ldagibbs/corpus"
	"github.com/bobonovski/ldagibbs/model"
	"github.com/bobonovski/ldagibbs/sstable"
	"github.com/bobonovski/ldagibbs/store"
)

var inferFlags struct {
	input     string
	format    string
	phi       string
	db        string
	run       string
	alpha     float64
	iteration int
	seed      int64
}

var inferCmd = &cobra.Command{
	Use:   "infer",
	Short: "Infer topic mixtures of new documents against a fitted phi",
	Long: `Samples the topic assignments of every input document against a
fixed phi and prints one line per document: its id followed by K
topic proportions. Phi comes from --phi or from run --run in --db.`,
	Args: cobra.NoArgs,
	RunE: runInfer,
}

func init() {
	f := inferCmd.Flags()
	f.StringVar(&inferFlags.input, "input_file", "", "documents to infer")
	f.StringVar(&inferFlags.format, "format", "wordcount", "input format: wordcount or tokens")
	addPhiFlags(f, &inferFlags.phi, &inferFlags.db, &inferFlags.run)
	f.Float64Var(&inferFlags.alpha, "alpha", 2.0, "document-topic mixture hyperparameter")
	f.IntVar(&inferFlags.iteration, "iter", 100, "number of iterations per document")
	f.Int64Var(&inferFlags.seed, "seed", 0, "random seed, defaults to the clock")
	inferCmd.MarkFlagRequired("input_file")
}

type flagSet interface {
	StringVar(p *string, name, value, usage string)
}

func addPhiFlags(f flagSet, phi, db, run *string) {
	f.StringVar(phi, "phi", "", "phi file written by train")
	f.StringVar(db, "db", "", "SQLite database holding fitted runs")
	f.StringVar(run, "run", "", "run id in --db")
}

// loadPhi reads phi from a file or from a stored run.
func loadPhi(cmd *cobra.Command, phiFile, db, run string) (*mat.Dense, error) {
	switch {
	case phiFile != "" && db != "":
		return nil, fmt.Errorf("--phi and --db are exclusive")
	case phiFile != "":
		return sstable.Float64Deserialize(phiFile)
	case db != "":
		if run == "" {
			return nil, fmt.Errorf("--db needs --run")
		}
		s, err := store.Open(cmd.Context(), db)
		if err != nil {
			return nil, err
		}
		defer s.Close()
		fitted, err := s.Load(cmd.Context(), run)
		if err != nil {
			return nil, err
		}
		return fitted.Phi, nil
	}
	return nil, fmt.Errorf("one of --phi or --db is required")
}

func runInfer(cmd *cobra.Command, args []string) error {
	phi, err := loadPhi(cmd, inferFlags.phi, inferFlags.db, inferFlags.run)
	if err != nil {
		return err
	}
	topicNum, vocabSize := phi.Dims()

	format, err := parseFormat(inferFlags.format)
	if err != nil {
		return err
	}
	data, err := corpus.LoadFile(inferFlags.input, format, vocabSize)
	if err != nil {
		return err
	}

	cfg := model.DefaultConfig(topicNum)
	cfg.Alpha = inferFlags.alpha
	cfg.Iterations = inferFlags.iteration
	cfg.BurnIn = 0

	seed := inferFlags.seed
	if !cmd.Flags().Changed("seed") {
		seed = config.DefaultSeed()
	}
	rnd := model.NewSeededEntropy(seed)
	log.Infof("inferring %d documents over %d topics with seed %d", data.DocNum(), topicNum, seed)

	out := bufio.NewWriter(cmd.OutOrStdout())
	defer out.Flush()
	for d, doc := range data.Docs {
		if err := cmd.Context().Err(); err != nil {
			return err
		}
		theta, err := model.Infer(phi, doc, cfg, rnd)
		if err != nil {
			return fmt.Errorf("document %d: %w", data.DocIds[d], err)
		}
		fmt.Fprintln(out, formatRow(data.DocIds[d], theta))
	}
	return nil
}

func formatRow(id uint32, values []float64) string {
	var sb strings.Builder
	sb.WriteString(strconv.FormatUint(uint64(id), 10))
	for _, v := range values {
		sb.WriteByte(' ')
		sb.WriteString(strconv.FormatFloat(v, 'f', 6, 64))
	}
	return sb.String()
}
