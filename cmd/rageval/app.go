package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/knights-analytics/hugot"
	"github.com/neurosnap/sentences/english"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/RichardKnop/rageval"
	"github.com/RichardKnop/rageval/adapter/conversation"
	"github.com/RichardKnop/rageval/adapter/dataset"
	googlegenai "github.com/RichardKnop/rageval/adapter/google-genai"
	hugotAdapter "github.com/RichardKnop/rageval/adapter/hugot"
	"github.com/RichardKnop/rageval/adapter/loader"
	redisAdapter "github.com/RichardKnop/rageval/adapter/redis"
	"github.com/RichardKnop/rageval/adapter/store"
)

// evaluator is the set of pipeline stages the commands drive.
type evaluator interface {
	GenerateTestset(ctx context.Context, params rageval.GenerateParams) (*rageval.Run, error)
	CollectAnswers(ctx context.Context, params rageval.AnswerParams) (*rageval.Run, error)
	Evaluate(ctx context.Context, params rageval.ScoreParams) (*rageval.Run, error)
	DownloadModel(ctx context.Context, params rageval.DownloadParams) (*rageval.Run, error)
	Rerank(ctx context.Context, request rageval.RerankRequest, topK int) ([]rageval.Passage, error)
	ListRuns(ctx context.Context, filter rageval.RunFilter, limit int) ([]*rageval.Run, error)
}

// generativeModel generates test sets and judges answers.
type generativeModel interface {
	rageval.TestsetModel
	rageval.JudgeModel
}

// app owns the adapters of a single command invocation and releases them on close.
type app struct {
	logger  *zap.Logger
	genai   *googlegenai.Adapter
	session *hugot.Session
	closers []func() error
}

func newApp() (*app, error) {
	logger, err := newLogger(viper.GetString("log.level"), viper.GetBool("log.development"))
	if err != nil {
		return nil, err
	}

	return &app{logger: logger}, nil
}

func newLogger(level string, development bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}

	atomicLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg.Level = atomicLevel

	return cfg.Build()
}

func (a *app) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	// Sync fails on terminals, nothing to do about it
	_ = a.logger.Sync()

	return errors.Join(errs...)
}

// withApp runs fn with a fresh app and closes it afterwards.
func withApp(ctx context.Context, fn func(ctx context.Context, a *app) error) (err error) {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.close())
	}()

	return fn(ctx, a)
}

// evaluator assembles the pipeline from the shared adapters plus the command specific options.
func (a *app) evaluator(concurrency int, options ...rageval.Option) (evaluator, error) {
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("sentence tokenizer: %w", err)
	}

	runStore, err := a.runStore()
	if err != nil {
		return nil, err
	}

	datasets := dataset.New(
		dataset.WithDir(viper.GetString("datasets.dir")),
		dataset.WithLogger(a.logger),
	)

	opts := []rageval.Option{
		rageval.WithLogger(a.logger),
		rageval.WithConcurrency(concurrency),
	}
	if runStore != nil {
		opts = append(opts, rageval.WithRunStore(runStore))
	}
	opts = append(opts, options...)

	return rageval.New(tokenizer, datasets, opts...), nil
}

// runStore returns nil when no database is configured.
func (a *app) runStore() (rageval.RunStore, error) {
	name := viper.GetString("db.name")
	if name == "" {
		return nil, nil
	}

	a.logger.Sugar().Infof("connecting to db: %s", name)

	db, err := store.Open(name)
	if err != nil {
		return nil, err
	}
	a.onClose(db.Close)

	return store.New(db, store.WithLogger(a.logger)), nil
}

// cache returns nil unless response caching is enabled.
func (a *app) cache(ctx context.Context) (rageval.Cache, error) {
	if !viper.GetBool("cache.enabled") {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     viper.GetString("redis.addr"),
		Password: viper.GetString("redis.password"),
		DB:       viper.GetInt("redis.db"),
		Protocol: viper.GetInt("redis.protocol"),
	})
	a.onClose(rdb.Close)

	options := []redisAdapter.Option{redisAdapter.WithLogger(a.logger)}
	if prefix := viper.GetString("cache.prefix"); prefix != "" {
		options = append(options, redisAdapter.WithPrefix(prefix))
	}
	if viper.IsSet("cache.ttl") {
		options = append(options, redisAdapter.WithTTL(viper.GetDuration("cache.ttl")))
	}

	cache := redisAdapter.New(rdb, options...)
	if err := cache.Ping(ctx); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return cache, nil
}

// languageModel returns the genai adapter used for generation, judging and optionally embeddings.
func (a *app) languageModel(ctx context.Context) (*googlegenai.Adapter, error) {
	if a.genai != nil {
		return a.genai, nil
	}

	// The client gets the API key from the environment variable `GEMINI_API_KEY`
	// unless one is configured.
	var clientConfig *genai.ClientConfig
	if apiKey := viper.GetString("genai.api_key"); apiKey != "" {
		clientConfig = &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}

	options := []googlegenai.Option{
		googlegenai.WithLogger(a.logger),
		googlegenai.WithGenerativeModel(viper.GetString("adapter.generative.model")),
		googlegenai.WithEmbeddingModel(viper.GetString("adapter.embedding.model")),
	}
	if model := viper.GetString("adapter.critic.model"); model != "" {
		options = append(options, googlegenai.WithCriticModel(model))
	}
	if viper.IsSet("adapter.generative.temperature") {
		options = append(options, googlegenai.WithTemperature(float32(viper.GetFloat64("adapter.generative.temperature"))))
	}

	cache, err := a.cache(ctx)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		options = append(options, googlegenai.WithCache(cache))
	}

	a.genai = googlegenai.New(client, options...)

	return a.genai, nil
}

// generativeModel picks the model behind test set generation and judging.
func (a *app) generativeModel(ctx context.Context) (generativeModel, error) {
	switch name := viper.GetString("adapter.generative.name"); name {
	case "google-genai":
		a.logger.Info("generative adapter: google-genai")
		return a.languageModel(ctx)
	case "hugot":
		a.logger.Info("generative adapter: hugot")
		session, err := a.hugotSession()
		if err != nil {
			return nil, err
		}

		return hugotAdapter.NewGenerator(ctx, session, a.hugotGenerativeOptions()...)
	default:
		return nil, fmt.Errorf("unknown generative adapter: %s", name)
	}
}

func (a *app) embedder(ctx context.Context) (rageval.Embedder, error) {
	switch name := viper.GetString("adapter.embed.name"); name {
	case "google-genai":
		a.logger.Info("embed adapter: google-genai")
		return a.languageModel(ctx)
	case "hugot":
		a.logger.Info("embed adapter: hugot")
		session, err := a.hugotSession()
		if err != nil {
			return nil, err
		}

		return hugotAdapter.New(ctx, session, a.hugotOptions()...)
	default:
		return nil, fmt.Errorf("unknown embed adapter: %s", name)
	}
}

// hugotSession is shared by the embedding and text generation pipelines.
func (a *app) hugotSession() (*hugot.Session, error) {
	if a.session != nil {
		return a.session, nil
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("hugot session: %w", err)
	}
	a.onClose(session.Destroy)
	a.session = session

	return session, nil
}

func (a *app) hugotOptions() []hugotAdapter.Option {
	options := []hugotAdapter.Option{
		hugotAdapter.WithLogger(a.logger),
		hugotAdapter.WithModelName(viper.GetString("adapter.embed.model")),
		hugotAdapter.WithOnnxFilePath(viper.GetString("adapter.embed.onnx_file_path")),
		hugotAdapter.WithModelsDir(viper.GetString("adapter.embed.models_dir")),
	}
	if path := viper.GetString("adapter.embed.external_data_path"); path != "" {
		options = append(options, hugotAdapter.WithExternalDataPath(path))
	}
	return options
}

func (a *app) hugotGenerativeOptions() []hugotAdapter.Option {
	options := []hugotAdapter.Option{
		hugotAdapter.WithLogger(a.logger),
		hugotAdapter.WithGenerativeModelName(viper.GetString("adapter.generative.hugot.model")),
		hugotAdapter.WithGenerativeOnnxFilePath(viper.GetString("adapter.generative.hugot.onnx_file_path")),
		hugotAdapter.WithModelsDir(viper.GetString("adapter.embed.models_dir")),
	}
	if path := viper.GetString("adapter.generative.hugot.external_data_path"); path != "" {
		options = append(options, hugotAdapter.WithGenerativeExternalDataPath(path))
	}
	if maxTokens := viper.GetInt("adapter.generative.hugot.max_tokens"); maxTokens > 0 {
		options = append(options, hugotAdapter.WithMaxTokens(maxTokens))
	}
	return options
}

func (a *app) downloader() rageval.ModelDownloader {
	return hugotAdapter.NewDownloader(
		hugotAdapter.WithLogger(a.logger),
		hugotAdapter.WithRevision(viper.GetString("download.revision")),
		hugotAdapter.WithHubToken(viper.GetString("huggingface.token")),
	)
}

func (a *app) loader() rageval.DocumentLoader {
	options := []loader.Option{loader.WithLogger(a.logger)}
	if extensions := viper.GetStringSlice("loader.extensions"); len(extensions) > 0 {
		options = append(options, loader.WithExtensions(extensions...))
	}
	return loader.New(options...)
}

func (a *app) conversations() rageval.ConversationClient {
	return conversation.New(
		conversation.WithLogger(a.logger),
		conversation.WithBaseURL(viper.GetString("conversation.base_url")),
		conversation.WithHttpClient(&http.Client{Timeout: viper.GetDuration("conversation.timeout")}),
	)
}
