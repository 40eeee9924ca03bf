package rageval

import (
	"errors"
	"time"

	"github.com/neurosnap/sentences"
	"go.uber.org/zap"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrNoDocuments         = errors.New("no documents loaded")
	ErrNoUsableNodes       = errors.New("no usable nodes")
	ErrInvalidDistribution = errors.New("invalid distribution")
	ErrMissingColumn       = errors.New("missing column")
	ErrNotConfigured       = errors.New("not configured")
)

type clock func() time.Time

type ragEval struct {
	tokenizer     *sentences.DefaultSentenceTokenizer
	loader        DocumentLoader
	embedder      Embedder
	generator     TestsetModel
	judge         JudgeModel
	conversations ConversationClient
	datasets      DatasetStore
	downloader    ModelDownloader
	runs          RunStore
	logger        *zap.Logger
	now           clock
	concurrency   int
}

type Option func(*ragEval)

func WithDocumentLoader(loader DocumentLoader) Option {
	return func(re *ragEval) {
		re.loader = loader
	}
}

func WithEmbedder(embedder Embedder) Option {
	return func(re *ragEval) {
		re.embedder = embedder
	}
}

func WithTestsetModel(model TestsetModel) Option {
	return func(re *ragEval) {
		re.generator = model
	}
}

func WithJudgeModel(model JudgeModel) Option {
	return func(re *ragEval) {
		re.judge = model
	}
}

func WithConversationClient(client ConversationClient) Option {
	return func(re *ragEval) {
		re.conversations = client
	}
}

func WithModelDownloader(downloader ModelDownloader) Option {
	return func(re *ragEval) {
		re.downloader = downloader
	}
}

func WithRunStore(store RunStore) Option {
	return func(re *ragEval) {
		re.runs = store
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(re *ragEval) {
		re.logger = logger
	}
}

// WithConcurrency bounds the number of rows or samples processed at the same time.
func WithConcurrency(n int) Option {
	return func(re *ragEval) {
		if n > 0 {
			re.concurrency = n
		}
	}
}

func withClock(now clock) Option {
	return func(re *ragEval) {
		re.now = now
	}
}

func New(tokenizer *sentences.DefaultSentenceTokenizer, datasets DatasetStore, options ...Option) *ragEval {
	re := &ragEval{
		tokenizer:   tokenizer,
		datasets:    datasets,
		logger:      zap.NewNop(),
		now:         func() time.Time { return time.Now().UTC() },
		concurrency: 1,
	}

	for _, o := range options {
		o(re)
	}

	return re
}
