package hugot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/knights-analytics/hugot"
)

// snapshotCacheDir holds hub downloads inside the target dir until they are linked into place.
const snapshotCacheDir = ".hf-cache"

// Download fetches a snapshot of every file of a Hugging Face model repository into dir
// and returns dir. A non empty dir is reused unless force is set.
func (a *Adapter) Download(ctx context.Context, modelName, dir string, force bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	logger := a.logger.Sugar().With("model", modelName, "revision", a.revision, "dir", dir)

	exists, err := dirHasFiles(dir)
	if err != nil {
		return "", fmt.Errorf("failed to check model dir: %w", err)
	}
	if exists {
		if !force {
			logger.Info("model dir already exists, skipping download")
			return dir, nil
		}
		logger.Info("removing existing model dir before download")
		if err := os.RemoveAll(dir); err != nil {
			return "", fmt.Errorf("failed to remove existing model dir: %w", err)
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create model dir: %w", err)
	}

	cacheDir := filepath.Join(dir, snapshotCacheDir)
	defer os.RemoveAll(cacheDir)

	repo := a.openRepo(modelName, a.revision, cacheDir)

	var fileNames []string
	for fileName, err := range repo.IterFileNames() {
		if err != nil {
			return "", fmt.Errorf("failed to list model files: %w", err)
		}
		fileNames = append(fileNames, fileName)
	}
	if len(fileNames) == 0 {
		return "", fmt.Errorf("model %s has no files", modelName)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	logger.Infof("start downloading %d files", len(fileNames))

	downloaded, err := repo.DownloadFiles(fileNames...)
	if err != nil {
		return "", fmt.Errorf("failed to download model: %w", err)
	}
	if len(downloaded) != len(fileNames) {
		return "", fmt.Errorf("downloaded %d of %d files", len(downloaded), len(fileNames))
	}

	for i, fileName := range fileNames {
		dst := filepath.Join(dir, filepath.FromSlash(fileName))
		if err := placeFile(downloaded[i], dst); err != nil {
			return "", fmt.Errorf("failed to place %s: %w", fileName, err)
		}
	}

	logger.Info("downloaded model")

	return dir, nil
}

// ensureModel makes sure an ONNX model for a pipeline is in the models dir.
func (a *Adapter) ensureModel(ctx context.Context, aConfig modelConfig, dir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	modelPath, err := checkModelExists(dir, aConfig.name)
	if err != nil {
		return "", fmt.Errorf("failed to check model: %w", err)
	}
	if modelPath != "" {
		a.logger.Sugar().Infof("model already exists, skipping download: %s", modelPath)
		return modelPath, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create models dir: %w", err)
	}

	downloadOptions := hugot.NewDownloadOptions()
	downloadOptions.OnnxFilePath = aConfig.onnxFilePath
	if aConfig.externalDataPath != "" {
		downloadOptions.ExternalDataPath = aConfig.externalDataPath
	}

	modelPath, err = a.fetch(aConfig.name, dir, downloadOptions)
	if err != nil {
		return "", fmt.Errorf("failed to download model: %w", err)
	}

	a.logger.Sugar().Infof("downloaded model: %s", modelPath)

	return modelPath, nil
}

func dirHasFiles(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return len(entries) > 0, nil
}

// placeFile hard links the cached blob behind src to dst, copying when linking is not possible.
func placeFile(src, dst string) error {
	blob, err := filepath.EvalSymlinks(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := os.Link(blob, dst); err == nil {
		return nil
	}

	in, err := os.Open(blob)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
