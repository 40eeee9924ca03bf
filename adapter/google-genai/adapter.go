package googlegenai

import (
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/RichardKnop/rageval"
)

type Adapter struct {
	client          *genai.Client
	embeddingModel  string
	generativeModel string
	criticModel     string
	temperature     float32
	cache           rageval.Cache
	logger          *zap.Logger
}

type Option func(*Adapter)

func WithEmbeddingModel(model string) Option {
	return func(a *Adapter) {
		a.embeddingModel = model
	}
}

func WithGenerativeModel(model string) Option {
	return func(a *Adapter) {
		a.generativeModel = model
	}
}

// WithCriticModel sets the model that filters contexts and questions and judges answers.
func WithCriticModel(model string) Option {
	return func(a *Adapter) {
		a.criticModel = model
	}
}

func WithTemperature(temperature float32) Option {
	return func(a *Adapter) {
		a.temperature = temperature
	}
}

// WithCache stores responses so repeated runs over the same data do not call the model again.
func WithCache(cache rageval.Cache) Option {
	return func(a *Adapter) {
		a.cache = cache
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

const (
	defaultEmbeddingModel  = "text-embedding-004"
	defaultGenerativeModel = "gemini-2.5-flash"

	// Batch limit of the embedding endpoint
	maxEmbedBatch = 100
)

func New(client *genai.Client, options ...Option) *Adapter {
	a := &Adapter{
		client:          client,
		embeddingModel:  defaultEmbeddingModel,
		generativeModel: defaultGenerativeModel,
		logger:          zap.NewNop(),
	}

	for _, o := range options {
		o(a)
	}

	if a.criticModel == "" {
		a.criticModel = a.generativeModel
	}

	a.logger.Sugar().With(
		"embedding model", a.embeddingModel,
		"generative model", a.generativeModel,
		"critic model", a.criticModel,
		"cache", a.cache != nil,
	).Info("init google genai adapter")

	return a
}

const adapterName = "google-genai"

func (a *Adapter) Name() string {
	return adapterName
}
