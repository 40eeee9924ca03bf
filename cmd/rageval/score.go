package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RichardKnop/rageval"
)

func buildScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score collected answers for faithfulness and answer correctness",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := rageval.ScoreParams{
				Input:   viper.GetString("score.input"),
				Output:  viper.GetString("score.output"),
				Metrics: viper.GetStringSlice("score.metrics"),
			}
			return runScore(cmd, params, viper.GetInt("score.concurrency"))
		},
	}

	cmd.Flags().String("input", rageval.DefaultScoreInput, "File with question, contexts, answer and ground_truth columns")
	cmd.Flags().String("output", rageval.DefaultScoreOutput, "File to write the scored rows to")
	cmd.Flags().StringSlice("metrics", rageval.DefaultMetrics, "Metrics to compute")
	cmd.Flags().Int("concurrency", 4, "Rows scored in parallel")
	bindFlags(cmd, map[string]string{
		"input":       "score.input",
		"output":      "score.output",
		"metrics":     "score.metrics",
		"concurrency": "score.concurrency",
	})

	return cmd
}

func runScore(cmd *cobra.Command, params rageval.ScoreParams, concurrency int) error {
	return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
		judge, err := a.generativeModel(ctx)
		if err != nil {
			return err
		}
		embedder, err := a.embedder(ctx)
		if err != nil {
			return err
		}

		re, err := a.evaluator(
			concurrency,
			rageval.WithJudgeModel(judge),
			rageval.WithEmbedder(embedder),
		)
		if err != nil {
			return err
		}

		aRun, err := re.Evaluate(ctx, params)
		if err != nil {
			return err
		}

		printRun(cmd.OutOrStdout(), aRun)

		return nil
	})
}
