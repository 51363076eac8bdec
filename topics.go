package main

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/bobonovski/ldagibbs/sstable"
	"github.com/bobonovski/ldagibbs/util"
)

var topicsFlags struct {
	phi   string
	db    string
	run   string
	theta string
	top   int
}

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Print the top words of every topic",
	Long: `Prints one line per topic: the topic id followed by its top word ids
and their probabilities. With --theta, also prints the number of
documents whose dominant topic is each topic.`,
	Args: cobra.NoArgs,
	RunE: runTopics,
}

func init() {
	f := topicsCmd.Flags()
	addPhiFlags(f, &topicsFlags.phi, &topicsFlags.db, &topicsFlags.run)
	f.StringVar(&topicsFlags.theta, "theta", "", "theta file written by train")
	f.IntVar(&topicsFlags.top, "top", 10, "number of words per topic")
}

func runTopics(cmd *cobra.Command, args []string) error {
	phi, err := loadPhi(cmd, topicsFlags.phi, topicsFlags.db, topicsFlags.run)
	if err != nil {
		return err
	}

	out := bufio.NewWriter(cmd.OutOrStdout())
	defer out.Flush()

	topicNum, _ := phi.Dims()
	for k := 0; k < topicNum; k += 1 {
		row := mat.Row(nil, k, phi)
		fmt.Fprintf(out, "topic %d:", k)
		for _, w := range util.TopN(row, topicsFlags.top) {
			fmt.Fprintf(out, " %d:%.6f", w, row[w])
		}
		fmt.Fprintln(out)
	}

	if topicsFlags.theta == "" {
		return nil
	}
	theta, err := sstable.Float64Deserialize(topicsFlags.theta)
	if err != nil {
		return err
	}
	docNum, thetaTopics := theta.Dims()
	if thetaTopics != topicNum {
		return fmt.Errorf("theta has %d topics, phi has %d", thetaTopics, topicNum)
	}
	docs := dominantTopics(theta)
	for k, n := range docs {
		fmt.Fprintf(out, "topic %d: %d/%d documents\n", k, n, docNum)
	}
	return nil
}

// dominantTopics counts, per topic, the documents it weighs most in.
func dominantTopics(theta mat.Matrix) []int {
	docNum, topicNum := theta.Dims()
	counts := make([]int, topicNum)
	for d := 0; d < docNum; d += 1 {
		best := util.TopN(mat.Row(nil, d, theta), 1)
		if len(best) > 0 {
			counts[best[0]] += 1
		}
	}
	return counts
}
