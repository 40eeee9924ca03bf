package rageval

import (
	"context"
	"database/sql"
)

// DocumentLoader reads documents from a directory, stopping after limit files.
type DocumentLoader interface {
	Load(ctx context.Context, dir string, limit int) ([]Document, error)
}

// Embedder encodes text as vectors
type Embedder interface {
	Name() string
	EmbedDocuments(ctx context.Context, contents []string) ([]Vector, error)
	EmbedContent(ctx context.Context, content string) (Vector, error)
}

// TestsetModel generates and critiques synthetic questions and their ground truth.
type TestsetModel interface {
	ScoreContext(ctx context.Context, content string) (float64, error)
	SeedQuestion(ctx context.Context, content string) (string, error)
	CritiqueQuestion(ctx context.Context, question string) (bool, error)
	EvolveQuestion(ctx context.Context, evolution EvolutionType, question string, contexts []string) (string, error)
	AnswerQuestion(ctx context.Context, question string, contexts []string) (string, error)
}

// JudgeModel breaks texts into statements and judges them against contexts or a ground truth.
type JudgeModel interface {
	ExtractStatements(ctx context.Context, question, text string) ([]string, error)
	VerifyStatements(ctx context.Context, contexts []string, statements []string) ([]Verdict, error)
	ClassifyStatements(ctx context.Context, question string, answer, groundTruth []string) (Classification, error)
}

// ConversationClient talks to the RAG service under evaluation.
type ConversationClient interface {
	CreateConversation(ctx context.Context) (string, error)
	Prompt(ctx context.Context, conversationID, prompt string) (string, error)
}

type DatasetStore interface {
	ReadTable(name string) (*Table, error)
	WriteTable(name string, table *Table) error
}

type ModelDownloader interface {
	Download(ctx context.Context, model, dir string, force bool) (string, error)
}

type RunStore interface {
	Transactional(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) error
	SaveRun(ctx context.Context, run *Run) error
	FindRun(ctx context.Context, id RunID) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter, limit int) ([]*Run, error)
}

// Cache stores model responses keyed by a hash of the request.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}
