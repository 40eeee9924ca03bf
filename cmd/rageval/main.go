// Command rageval evaluates a retrieval augmented generation service.
//
// A typical evaluation runs the stages in order:
//
//	rageval generate --input-dir ../arxiv_papers/ --output evals/testset_output.csv
//	rageval answer --input evals/testset_output.csv
//	rageval score
//
// Settings are read from config.yaml in the working directory and can be
// overridden by RAGEVAL_ prefixed environment variables, e.g. RAGEVAL_DB_NAME.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := buildRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:          "rageval",
		Short:        "Generate test sets for a RAG service and score its answers",
		Version:      fmt.Sprintf("%s (commit %s)", version, commit),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(configFile)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a config file (default ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("db", "", "SQLite database recording runs, empty disables run history")
	rootCmd.PersistentFlags().String("datasets-dir", "", "Directory dataset paths are resolved against")
	bindFlags(rootCmd, map[string]string{
		"log-level":    "log.level",
		"db":           "db.name",
		"datasets-dir": "datasets.dir",
	})

	rootCmd.AddCommand(
		buildGenerateCmd(),
		buildAnswerCmd(),
		buildScoreCmd(),
		buildDownloadCmd(),
		buildRerankCmd(),
		buildRunsCmd(),
	)

	return rootCmd
}

// initConfig loads the config file, a missing default config.yaml is not an error.
func initConfig(configFile string) error {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}
	viper.SetEnvPrefix("rageval")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && configFile == "" {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.development", false)
	viper.SetDefault("adapter.embed.name", "hugot")
	viper.SetDefault("adapter.embed.model", "sentence-transformers/all-MiniLM-L6-v2")
	viper.SetDefault("adapter.embed.onnx_file_path", "onnx/model.onnx")
	viper.SetDefault("adapter.embed.models_dir", "models")
	viper.SetDefault("adapter.generative.name", "google-genai")
	viper.SetDefault("adapter.generative.model", "gemini-2.5-flash")
	viper.SetDefault("adapter.generative.hugot.model", "onnx-community/gemma-3-1b-it-ONNX")
	viper.SetDefault("adapter.generative.hugot.onnx_file_path", "onnx/model.onnx")
	viper.SetDefault("adapter.embedding.model", "text-embedding-004")
	viper.SetDefault("conversation.base_url", "http://localhost:8081")
	viper.SetDefault("conversation.timeout", "5m")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.protocol", 2)
}

// bindFlags binds flags of cmd, by flag name, to config keys.
func bindFlags(cmd *cobra.Command, keys map[string]string) {
	for name, key := range keys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			flag = cmd.PersistentFlags().Lookup(name)
		}
		if err := viper.BindPFlag(key, flag); err != nil {
			panic(fmt.Sprintf("binding flag %s: %v", name, err))
		}
	}
}
