package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/bobonovski/ldagibbs/store"
)

var runsDB string

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List the fitted runs stored in a database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.Open(cmd.Context(), runsDB)
		if err != nil {
			return err
		}
		defer s.Close()

		runs, err := s.List(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCREATED\tTOPICS\tVOCAB\tLIKELIHOOD")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%f\n", r.ID,
				r.CreatedAt.Format(time.RFC3339), r.Topics, r.VocabSize, r.LogLikelihood)
		}
		return w.Flush()
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <run id>",
	Short: "Delete a stored run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.Open(cmd.Context(), runsDB)
		if err != nil {
			return err
		}
		defer s.Close()
		return s.Delete(cmd.Context(), args[0])
	},
}

func init() {
	runsCmd.PersistentFlags().StringVar(&runsDB, "db", "", "SQLite database holding fitted runs")
	runsCmd.MarkPersistentFlagRequired("db")
	runsCmd.AddCommand(deleteCmd)
}
