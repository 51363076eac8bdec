package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	log "github.com/golang/glog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ldagibbs",
	Short: "Fit and apply LDA topic models with a collapsed Gibbs sampler",
	Long: `ldagibbs fits a Latent Dirichlet Allocation model to an integer encoded
corpus, stores the topic-word matrix phi and infers topic mixtures of new
documents against a stored phi.`,
	SilenceUsage: true,
}

func init() {
	// expose glog flags (-v, -logtostderr, ...) on the command line
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	rootCmd.AddCommand(trainCmd, inferCmd, topicsCmd, runsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	log.Flush()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
