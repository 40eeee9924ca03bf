package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RichardKnop/rageval"
)

func buildRunsCmd() *cobra.Command {
	var (
		kind   string
		status string
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent runs recorded in the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := rageval.RunFilter{
				Kind:   rageval.RunKind(strings.ToUpper(kind)),
				Status: rageval.RunStatus(strings.ToUpper(status)),
			}
			return runRuns(cmd, filter, viper.GetInt("runs.limit"))
		},
	}

	cmd.Flags().Int("limit", 20, "Maximum number of runs to list")
	cmd.Flags().StringVar(&kind, "kind", "", "Only list runs of this kind (generate, answer, score, download)")
	cmd.Flags().StringVar(&status, "status", "", "Only list runs in this status (running, completed, failed)")
	bindFlags(cmd, map[string]string{
		"limit": "runs.limit",
	})

	return cmd
}

func runRuns(cmd *cobra.Command, filter rageval.RunFilter, limit int) error {
	return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
		re, err := a.evaluator(1)
		if err != nil {
			return err
		}

		runs, err := re.ListRuns(ctx, filter, limit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tKIND\tSTATUS\tROWS\tCREATED\tINPUT\tOUTPUT\tMESSAGE")
		for _, aRun := range runs {
			fmt.Fprintf(
				w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
				aRun.ID, aRun.Kind, aRun.Status, aRun.Rows,
				aRun.Created.Format(time.DateTime), aRun.Input, aRun.Output, aRun.Message,
			)
		}

		return w.Flush()
	})
}
