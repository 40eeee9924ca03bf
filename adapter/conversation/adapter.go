package conversation

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Adapter talks to the conversation and prompt endpoints of the RAG service under evaluation.
type Adapter struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
}

type Option func(*Adapter)

func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

func WithBaseURL(url string) Option {
	return func(a *Adapter) {
		a.baseURL = strings.TrimSuffix(url, "/")
	}
}

func WithHttpClient(client *http.Client) Option {
	return func(a *Adapter) {
		a.httpClient = client
	}
}

const (
	DefaultBaseURL = "http://localhost:8081"
	// Answers are streamed while the model generates, so this bounds a whole generation.
	defaultTimeout = 5 * time.Minute
)

func New(options ...Option) *Adapter {
	a := &Adapter{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    DefaultBaseURL,
		logger:     zap.NewNop(),
	}

	for _, o := range options {
		o(a)
	}

	a.logger.Sugar().With(
		"base URL", a.baseURL,
	).Info("init conversation adapter")

	return a
}
