package main

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RichardKnop/rageval"
)

func buildGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic test set from a directory of documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, generateParams(), viper.GetInt("generate.concurrency"))
		},
	}

	cmd.Flags().String("input-dir", "../arxiv_papers/", "Directory with the source documents")
	cmd.Flags().String("output", "testset_output.csv", "Test set file to write")
	cmd.Flags().Int("num-files-limit", rageval.DefaultNumFilesLimit, "Maximum number of files to load")
	cmd.Flags().Int("test-size", rageval.DefaultTestSize, "Number of samples to generate")
	cmd.Flags().Int("chunk-size", rageval.DefaultChunkSize, "Maximum node length in characters")
	cmd.Flags().Int("max-tries", rageval.DefaultMaxTries, "Attempts per sample before it is dropped")
	cmd.Flags().Int64("seed", 0, "Seed for node and evolution selection")
	cmd.Flags().Int("concurrency", 4, "Samples generated in parallel")
	cmd.Flags().Float64("simple", 0.5, "Share of simple questions")
	cmd.Flags().Float64("reasoning", 0.1, "Share of reasoning questions")
	cmd.Flags().Float64("multi-context", 0.4, "Share of multi context questions")
	bindFlags(cmd, map[string]string{
		"input-dir":       "generate.input_dir",
		"output":          "generate.output",
		"num-files-limit": "generate.num_files_limit",
		"test-size":       "generate.test_size",
		"chunk-size":      "generate.chunk_size",
		"max-tries":       "generate.max_tries",
		"seed":            "generate.seed",
		"concurrency":     "generate.concurrency",
		"simple":          "generate.distribution.simple",
		"reasoning":       "generate.distribution.reasoning",
		"multi-context":   "generate.distribution.multi_context",
	})

	return cmd
}

// generateParams reads the generate settings from flags, environment and config file.
func generateParams() rageval.GenerateParams {
	return rageval.GenerateParams{
		InputDir:      viper.GetString("generate.input_dir"),
		Output:        viper.GetString("generate.output"),
		NumFilesLimit: viper.GetInt("generate.num_files_limit"),
		TestSize:      viper.GetInt("generate.test_size"),
		ChunkSize:     viper.GetInt("generate.chunk_size"),
		MaxTries:      viper.GetInt("generate.max_tries"),
		Seed:          viper.GetInt64("generate.seed"),
		Distribution: rageval.Distribution{
			rageval.EvolutionSimple:       viper.GetFloat64("generate.distribution.simple"),
			rageval.EvolutionReasoning:    viper.GetFloat64("generate.distribution.reasoning"),
			rageval.EvolutionMultiContext: viper.GetFloat64("generate.distribution.multi_context"),
		},
	}
}

func runGenerate(cmd *cobra.Command, params rageval.GenerateParams, concurrency int) error {
	return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
		model, err := a.generativeModel(ctx)
		if err != nil {
			return err
		}
		embedder, err := a.embedder(ctx)
		if err != nil {
			return err
		}

		re, err := a.evaluator(
			concurrency,
			rageval.WithDocumentLoader(a.loader()),
			rageval.WithEmbedder(embedder),
			rageval.WithTestsetModel(model),
		)
		if err != nil {
			return err
		}

		aRun, err := re.GenerateTestset(ctx, params)
		if err != nil {
			return err
		}

		printRun(cmd.OutOrStdout(), aRun)

		return nil
	})
}

// printRun writes a one line run report followed by the summary values in key order.
func printRun(w io.Writer, aRun *rageval.Run) {
	fmt.Fprintf(w, "%s %s %s rows=%d output=%s\n", aRun.ID, aRun.Kind, aRun.Status, aRun.Rows, aRun.Output)

	keys := make([]string, 0, len(aRun.Summary))
	for key := range aRun.Summary {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		fmt.Fprintf(w, "  %s: %.4f\n", key, aRun.Summary[key])
	}
}
