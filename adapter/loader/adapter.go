package loader

import (
	"go.uber.org/zap"
)

// Adapter loads documents from a directory tree, one document per text file or PDF page.
type Adapter struct {
	extensions map[string]struct{}
	logger     *zap.Logger
}

type Option func(*Adapter)

func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// WithExtensions limits loading to the given extensions, e.g. ".pdf".
func WithExtensions(extensions ...string) Option {
	return func(a *Adapter) {
		a.extensions = make(map[string]struct{}, len(extensions))
		for _, ext := range extensions {
			a.extensions[ext] = struct{}{}
		}
	}
}

var defaultExtensions = []string{".txt", ".md", ".csv", ".pdf"}

func New(options ...Option) *Adapter {
	a := &Adapter{
		logger: zap.NewNop(),
	}
	WithExtensions(defaultExtensions...)(a)

	for _, o := range options {
		o(a)
	}

	a.logger.Sugar().With(
		"extensions", len(a.extensions),
	).Info("init loader adapter")

	return a
}
