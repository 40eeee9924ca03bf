package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RichardKnop/rageval"
)

type rerankInput struct {
	rageval.RerankRequest
	TopK *int `json:"top_k,omitempty"`
}

func buildRerankCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rerank",
		Short: "Rerank passages read as JSON from stdin against a query",
		Long: `Reads {"query": "...", "passages": [{"id": 1, "text": "...", "meta": {}}]} from stdin
and prints the passages best first with a score in (0, 1).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRerank(cmd, cmd.InOrStdin(), viper.GetInt("rerank.top_k"))
		},
	}

	cmd.Flags().Int("top-k", 0, "Keep only the best k passages, 0 keeps all")
	bindFlags(cmd, map[string]string{
		"top-k": "rerank.top_k",
	})

	return cmd
}

func runRerank(cmd *cobra.Command, in io.Reader, topK int) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	out := cmd.OutOrStdout()
	if strings.TrimSpace(string(data)) == "" {
		fmt.Fprintln(out, "{}")
		return nil
	}

	var input rerankInput
	if err := json.Unmarshal(data, &input); err != nil {
		return fmt.Errorf("invalid JSON input: %w", err)
	}
	if input.Empty() {
		fmt.Fprintln(out, "{}")
		return nil
	}
	if input.TopK != nil {
		topK = *input.TopK
	}

	return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
		embedder, err := a.embedder(ctx)
		if err != nil {
			return err
		}

		re, err := a.evaluator(1, rageval.WithEmbedder(embedder))
		if err != nil {
			return err
		}

		passages, err := re.Rerank(ctx, input.RerankRequest, topK)
		if err != nil {
			return err
		}

		return json.NewEncoder(out).Encode(passages)
	})
}
