package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RichardKnop/rageval"
)

func buildDownloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download a model snapshot into a local directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := rageval.DownloadParams{
				Model: viper.GetString("download.model"),
				Dir:   viper.GetString("download.dir"),
				Force: viper.GetBool("download.force"),
			}
			return runDownload(cmd, params)
		},
	}

	cmd.Flags().String("model", rageval.DefaultDownloadModel, "Model repository to fetch")
	cmd.Flags().String("dir", rageval.DefaultDownloadDir, "Directory to download into")
	cmd.Flags().Bool("force", false, "Download again even if the model is already there")
	cmd.Flags().String("revision", "main", "Branch, tag or commit to take the snapshot from")
	bindFlags(cmd, map[string]string{
		"model":    "download.model",
		"dir":      "download.dir",
		"force":    "download.force",
		"revision": "download.revision",
	})

	return cmd
}

func runDownload(cmd *cobra.Command, params rageval.DownloadParams) error {
	return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
		re, err := a.evaluator(1, rageval.WithModelDownloader(a.downloader()))
		if err != nil {
			return err
		}

		aRun, err := re.DownloadModel(ctx, params)
		if err != nil {
			return err
		}

		printRun(cmd.OutOrStdout(), aRun)

		return nil
	})
}
