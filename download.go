package rageval

import (
	"context"
	"fmt"
)

const (
	DefaultDownloadModel = "castorini/rank_zephyr_7b_v1_full"
	DefaultDownloadDir   = "mxbai-rerank-hf"
)

type DownloadParams struct {
	Model string
	Dir   string
	Force bool
}

// DownloadModel fetches a snapshot of a model repository into a local directory.
func (re *ragEval) DownloadModel(ctx context.Context, params DownloadParams) (*Run, error) {
	if params.Model == "" {
		params.Model = DefaultDownloadModel
	}
	if params.Dir == "" {
		params.Dir = DefaultDownloadDir
	}
	if re.downloader == nil {
		return nil, fmt.Errorf("model downloader: %w", ErrNotConfigured)
	}

	return re.track(ctx, RunKindDownload, params.Model, params.Dir, func(ctx context.Context, aRun *Run) error {
		modelPath, err := re.downloader.Download(ctx, params.Model, params.Dir, params.Force)
		if err != nil {
			return fmt.Errorf("downloading model %s: %w", params.Model, err)
		}

		aRun.Output = modelPath
		re.logger.Sugar().Infof("model %s available at %s", params.Model, modelPath)

		return nil
	})
}
