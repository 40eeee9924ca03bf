package hugot

import (
	"context"
	"fmt"
	"iter"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/gomlx/go-huggingface/hub"
	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"go.uber.org/zap"
)

type fetchFunc func(modelName, destination string, options hugot.DownloadOptions) (string, error)

// snapshotRepo is the part of a Hugging Face hub repository a snapshot needs.
type snapshotRepo interface {
	IterFileNames() iter.Seq2[string, error]
	DownloadFiles(repoFiles ...string) ([]string, error)
}

type repoFunc func(modelName, revision, cacheDir string) snapshotRepo

// modelConfig locates an ONNX model on the hub.
type modelConfig struct {
	name             string
	onnxFilePath     string
	externalDataPath string
}

type Adapter struct {
	session          *hugot.Session
	pipeline         *pipelines.FeatureExtractionPipeline
	generative       textGenerator
	generativeMu     sync.Mutex
	embeddingConfig  modelConfig
	generativeConfig modelConfig
	maxTokens        int
	modelsDir        string
	revision         string
	hubToken         string
	fetch            fetchFunc
	openRepo         repoFunc
	logger           *zap.Logger
}

type Option func(*Adapter)

func WithModelName(name string) Option {
	return func(a *Adapter) {
		a.embeddingConfig.name = name
	}
}

func WithOnnxFilePath(path string) Option {
	return func(a *Adapter) {
		a.embeddingConfig.onnxFilePath = path
	}
}

func WithExternalDataPath(path string) Option {
	return func(a *Adapter) {
		a.embeddingConfig.externalDataPath = path
	}
}

func WithGenerativeModelName(name string) Option {
	return func(a *Adapter) {
		a.generativeConfig.name = name
	}
}

func WithGenerativeOnnxFilePath(path string) Option {
	return func(a *Adapter) {
		a.generativeConfig.onnxFilePath = path
	}
}

func WithGenerativeExternalDataPath(path string) Option {
	return func(a *Adapter) {
		a.generativeConfig.externalDataPath = path
	}
}

// WithMaxTokens caps the tokens the generative model produces per response.
func WithMaxTokens(maxTokens int) Option {
	return func(a *Adapter) {
		a.maxTokens = maxTokens
	}
}

func WithModelsDir(path string) Option {
	return func(a *Adapter) {
		a.modelsDir = path
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// WithRevision sets the branch, tag or commit snapshots are taken from.
func WithRevision(revision string) Option {
	return func(a *Adapter) {
		a.revision = revision
	}
}

// WithHubToken authenticates snapshot downloads of gated or private repositories.
func WithHubToken(token string) Option {
	return func(a *Adapter) {
		a.hubToken = token
	}
}

func withRepo(openRepo repoFunc) Option {
	return func(a *Adapter) {
		a.openRepo = openRepo
	}
}

func withFetch(fetch fetchFunc) Option {
	return func(a *Adapter) {
		a.fetch = fetch
	}
}

const (
	defaultModelName           = "sentence-transformers/all-MiniLM-L6-v2"
	defaultGenerativeModelName = "onnx-community/gemma-3-1b-it-ONNX"
	defaultModelsDir           = "models"
	defaultOnnxFilePath        = "onnx/model.onnx"
	defaultRevision            = "main"
	defaultMaxTokens           = 2096
)

func newAdapter(options ...Option) *Adapter {
	a := &Adapter{
		embeddingConfig:  modelConfig{name: defaultModelName, onnxFilePath: defaultOnnxFilePath},
		generativeConfig: modelConfig{name: defaultGenerativeModelName, onnxFilePath: defaultOnnxFilePath},
		maxTokens:        defaultMaxTokens,
		modelsDir:        defaultModelsDir,
		revision:         defaultRevision,
		fetch:            hugot.DownloadModel,
		logger:           zap.NewNop(),
	}

	for _, o := range options {
		o(a)
	}

	if a.openRepo == nil {
		a.openRepo = func(modelName, revision, cacheDir string) snapshotRepo {
			return hub.New(modelName).
				WithRevision(revision).
				WithAuth(a.hubToken).
				WithCacheDir(cacheDir).
				WithProgressBar(false)
		}
	}

	return a
}

// New returns an embedder running a feature extraction pipeline in session.
// The model is downloaded into the models dir first if it is not there yet.
func New(ctx context.Context, session *hugot.Session, options ...Option) (*Adapter, error) {
	a := newAdapter(options...)
	a.session = session

	a.logger.Sugar().With(
		"model", a.embeddingConfig.name,
		"onnx file path", a.embeddingConfig.onnxFilePath,
		"models dir", a.modelsDir,
	).Info("init hugot adapter")

	if err := a.init(ctx); err != nil {
		return nil, err
	}

	return a, nil
}

// NewDownloader returns an adapter that only fetches model snapshots.
func NewDownloader(options ...Option) *Adapter {
	a := newAdapter(options...)

	a.logger.Sugar().With("revision", a.revision).Info("init hugot downloader")

	return a
}

const adapterName = "hugot"

func (a *Adapter) Name() string {
	return adapterName
}

func (a *Adapter) init(ctx context.Context) error {
	if a.embeddingConfig.name == "" {
		return fmt.Errorf("embedding model must be specified")
	}

	modelPath, err := a.ensureModel(ctx, a.embeddingConfig, a.modelsDir)
	if err != nil {
		return fmt.Errorf("failed to get embedding model: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "embeddingPipeline",
	}

	a.pipeline, err = hugot.NewPipeline(a.session, config)
	if err != nil {
		return fmt.Errorf("failed to create embedding pipeline: %w", err)
	}

	return nil
}

// modelDir is where a model lands inside destination, an optional ":revision" suffix is ignored.
func modelDir(destination, modelName string) string {
	modelP, _, _ := strings.Cut(modelName, ":")
	return path.Join(destination, strings.ReplaceAll(modelP, "/", "_"))
}

func checkModelExists(destination, modelName string) (string, error) {
	modelPath := modelDir(destination, modelName)

	_, err := os.Stat(modelPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}

	return modelPath, nil
}
