package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RichardKnop/rageval"
)

func buildAnswerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "answer",
		Short: "Ask the RAG service every test set question and record its answers",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := rageval.AnswerParams{
				Input:  viper.GetString("answer.input"),
				Output: viper.GetString("answer.output"),
			}
			return runAnswer(cmd, params, viper.GetInt("answer.concurrency"))
		},
	}

	cmd.Flags().String("input", rageval.DefaultAnswerInput, "Test set file with a question column")
	cmd.Flags().String("output", rageval.DefaultAnswerOutput, "File to write the rows with answers to")
	cmd.Flags().String("base-url", "http://localhost:8081", "Base URL of the RAG service")
	cmd.Flags().Int("concurrency", 1, "Questions asked in parallel")
	bindFlags(cmd, map[string]string{
		"input":       "answer.input",
		"output":      "answer.output",
		"base-url":    "conversation.base_url",
		"concurrency": "answer.concurrency",
	})

	return cmd
}

func runAnswer(cmd *cobra.Command, params rageval.AnswerParams, concurrency int) error {
	return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
		re, err := a.evaluator(concurrency, rageval.WithConversationClient(a.conversations()))
		if err != nil {
			return err
		}

		aRun, err := re.CollectAnswers(ctx, params)
		if err != nil {
			return err
		}

		printRun(cmd.OutOrStdout(), aRun)

		return nil
	})
}
