package hugot

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/knights-analytics/hugot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	calls   int
	options hugot.DownloadOptions
	err     error
}

func (f *fakeFetcher) fetch(modelName, destination string, options hugot.DownloadOptions) (string, error) {
	f.calls++
	f.options = options
	if f.err != nil {
		return "", f.err
	}
	modelPath := modelDir(destination, modelName)
	if err := os.MkdirAll(modelPath, 0o755); err != nil {
		return "", err
	}
	return modelPath, os.WriteFile(filepath.Join(modelPath, "config.json"), []byte("{}"), 0o644)
}

func TestModelDir(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		modelName string
		expected  string
	}{
		{"owner and name", "castorini/rank_zephyr_7b_v1_full", "models/castorini_rank_zephyr_7b_v1_full"},
		{"revision suffix", "sentence-transformers/all-MiniLM-L6-v2:main", "models/sentence-transformers_all-MiniLM-L6-v2"},
		{"bare name", "bert", "models/bert"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, modelDir("models", tc.modelName))
		})
	}
}

type fakeRepo struct {
	files       map[string]string
	listErr     error
	downloadErr error
	modelName   string
	revision    string
	cacheDir    string
	downloads   int
}

func (r *fakeRepo) open(modelName, revision, cacheDir string) snapshotRepo {
	r.modelName, r.revision, r.cacheDir = modelName, revision, cacheDir
	return r
}

func (r *fakeRepo) IterFileNames() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if r.listErr != nil {
			yield("", r.listErr)
			return
		}
		names := make([]string, 0, len(r.files))
		for name := range r.files {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			if !yield(name, nil) {
				return
			}
		}
	}
}

// DownloadFiles lays files out like the hub cache: blobs plus snapshot symlinks pointing at them.
func (r *fakeRepo) DownloadFiles(repoFiles ...string) ([]string, error) {
	r.downloads++
	if r.downloadErr != nil {
		return nil, r.downloadErr
	}

	paths := make([]string, 0, len(repoFiles))
	for i, name := range repoFiles {
		blob := filepath.Join(r.cacheDir, "blobs", fmt.Sprintf("blob-%d", i))
		link := filepath.Join(r.cacheDir, "snapshots", r.revision, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(blob), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(blob, []byte(r.files[name]), 0o644); err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(link), 0o755); err != nil {
			return nil, err
		}
		if err := os.Symlink(blob, link); err != nil {
			return nil, err
		}
		paths = append(paths, link)
	}
	return paths, nil
}

func TestAdapter_Download(t *testing.T) {
	t.Parallel()

	var (
		ctx  = context.Background()
		dir  = filepath.Join(t.TempDir(), "mxbai-rerank-hf")
		repo = &fakeRepo{files: map[string]string{
			"config.json":                      `{"model_type": "mistral"}`,
			"model-00001-of-00003.safetensors": "weights",
			"tokenizer/tokenizer.json":         "{}",
		}}
		adapter = NewDownloader(withRepo(repo.open))
	)

	modelPath, err := adapter.Download(ctx, "castorini/rank_zephyr_7b_v1_full", dir, false)
	require.NoError(t, err)
	assert.Equal(t, dir, modelPath)
	assert.Equal(t, "castorini/rank_zephyr_7b_v1_full", repo.modelName)
	assert.Equal(t, "main", repo.revision)
	assert.Equal(t, 1, repo.downloads)

	for name, content := range repo.files {
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
		require.NoError(t, err)
		assert.Equal(t, content, string(data))
	}
	assert.NoDirExists(t, filepath.Join(dir, snapshotCacheDir))

	// Existing model dir is reused
	_, err = adapter.Download(ctx, "castorini/rank_zephyr_7b_v1_full", dir, false)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.downloads)

	// Force downloads again over a clean directory
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.bin"), []byte("x"), 0o644))
	_, err = adapter.Download(ctx, "castorini/rank_zephyr_7b_v1_full", dir, true)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.downloads)
	assert.NoFileExists(t, filepath.Join(dir, "stale.bin"))
	assert.FileExists(t, filepath.Join(dir, "config.json"))
}

func TestAdapter_DownloadRevision(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{files: map[string]string{"config.json": "{}"}}
	adapter := NewDownloader(withRepo(repo.open), WithRevision("v1.0"))

	_, err := adapter.Download(context.Background(), "org/model", t.TempDir(), false)
	require.NoError(t, err)
	assert.Equal(t, "v1.0", repo.revision)
}

func TestAdapter_DownloadError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		repo     *fakeRepo
		expected string
	}{
		{"listing fails", &fakeRepo{listErr: errors.New("404 not found")}, "404 not found"},
		{"download fails", &fakeRepo{files: map[string]string{"a": "b"}, downloadErr: errors.New("connection reset")}, "connection reset"},
		{"empty repository", &fakeRepo{}, "has no files"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			adapter := NewDownloader(withRepo(tc.repo.open))

			_, err := adapter.Download(context.Background(), "org/missing", filepath.Join(t.TempDir(), "out"), false)
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.expected)
		})
	}
}

func TestAdapter_DownloadCancelled(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{files: map[string]string{"config.json": "{}"}}
	adapter := NewDownloader(withRepo(repo.open))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := adapter.Download(ctx, "org/model", t.TempDir(), false)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, repo.downloads)
}

func TestAdapter_EnsureModel(t *testing.T) {
	t.Parallel()

	var (
		ctx     = context.Background()
		dir     = filepath.Join(t.TempDir(), "models")
		fetcher = new(fakeFetcher)
		adapter = newAdapter(withFetch(fetcher.fetch), WithExternalDataPath("onnx/model.onnx_data"))
		aConfig = adapter.embeddingConfig
	)

	aConfig.name = "org/model"
	modelPath, err := adapter.ensureModel(ctx, aConfig, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "org_model"), modelPath)
	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, defaultOnnxFilePath, fetcher.options.OnnxFilePath)
	assert.Equal(t, "onnx/model.onnx_data", fetcher.options.ExternalDataPath)

	// Existing model is reused
	_, err = adapter.ensureModel(ctx, aConfig, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls)

	fetcher.err = errors.New("model .onnx file not found")
	aConfig.name = "org/other"
	_, err = adapter.ensureModel(ctx, aConfig, dir)
	assert.ErrorContains(t, err, "onnx file not found")
}

func TestAdapter_EmbedWithoutPipeline(t *testing.T) {
	t.Parallel()

	adapter := NewDownloader()

	vectors, err := adapter.EmbedDocuments(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)

	_, err = adapter.EmbedContent(context.Background(), "text")
	assert.Error(t, err)
}
