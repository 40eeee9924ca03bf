package rageval

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestTokenizer(t *testing.T) *sentences.DefaultSentenceTokenizer {
	t.Helper()

	tokenizer, err := english.NewSentenceTokenizer(nil)
	require.NoError(t, err)

	return tokenizer
}

func newTestRagEval(t *testing.T, options ...Option) (*ragEval, *memoryDatasets, *memoryRunStore) {
	t.Helper()

	var (
		datasets = newMemoryDatasets()
		runs     = newMemoryRunStore()
	)
	options = append([]Option{
		WithRunStore(runs),
		withClock(func() time.Time { return testNow }),
	}, options...)

	return New(newTestTokenizer(t), datasets, options...), datasets, runs
}

// fakeEmbedder returns fixed vectors for known texts and a letter histogram otherwise.
type fakeEmbedder struct {
	vectors map[string]Vector
	err     error
}

func (e *fakeEmbedder) Name() string { return "fake" }

func (e *fakeEmbedder) EmbedDocuments(ctx context.Context, contents []string) ([]Vector, error) {
	if e.err != nil {
		return nil, e.err
	}
	vectors := make([]Vector, 0, len(contents))
	for _, content := range contents {
		vectors = append(vectors, e.embed(content))
	}
	return vectors, nil
}

func (e *fakeEmbedder) EmbedContent(ctx context.Context, content string) (Vector, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.embed(content), nil
}

func (e *fakeEmbedder) embed(content string) Vector {
	if v, ok := e.vectors[content]; ok {
		return v
	}
	v := make(Vector, 26)
	for _, r := range strings.ToLower(content) {
		if r >= 'a' && r <= 'z' {
			v[r-'a']++
		}
	}
	return v
}

type fakeTestsetModel struct {
	mu           sync.Mutex
	scores       map[string]float64
	rejected     []string
	rejectAll    bool
	critiques    int
	scoreErr     error
	answerErr    error
	defaultScore float64
}

func (m *fakeTestsetModel) ScoreContext(ctx context.Context, content string) (float64, error) {
	if m.scoreErr != nil {
		return 0, m.scoreErr
	}
	if score, ok := m.scores[content]; ok {
		return score, nil
	}
	if m.defaultScore > 0 {
		return m.defaultScore, nil
	}
	return 2, nil
}

func (m *fakeTestsetModel) SeedQuestion(ctx context.Context, content string) (string, error) {
	return "Q: " + content, nil
}

func (m *fakeTestsetModel) CritiqueQuestion(ctx context.Context, question string) (bool, error) {
	m.mu.Lock()
	m.critiques++
	m.mu.Unlock()

	if m.rejectAll {
		return false, nil
	}
	for _, r := range m.rejected {
		if strings.Contains(question, r) {
			return false, nil
		}
	}
	return true, nil
}

func (m *fakeTestsetModel) EvolveQuestion(ctx context.Context, evolution EvolutionType, question string, contexts []string) (string, error) {
	return fmt.Sprintf("%s(%s)", evolution, question), nil
}

func (m *fakeTestsetModel) AnswerQuestion(ctx context.Context, question string, contexts []string) (string, error) {
	if m.answerErr != nil {
		return "", m.answerErr
	}
	return strings.Join(contexts, " "), nil
}

// fakeJudge treats every full stop separated part of a text as a statement.
type fakeJudge struct {
	failQuestion string
}

func (j *fakeJudge) ExtractStatements(ctx context.Context, question, text string) ([]string, error) {
	if question == j.failQuestion && question != "" {
		return nil, errors.New("judge unavailable")
	}
	var statements []string
	for _, part := range strings.Split(text, ".") {
		if part = strings.TrimSpace(part); part != "" {
			statements = append(statements, part)
		}
	}
	return statements, nil
}

func (j *fakeJudge) VerifyStatements(ctx context.Context, contexts []string, statements []string) ([]Verdict, error) {
	verdicts := make([]Verdict, 0, len(statements))
	for _, statement := range statements {
		supported := slices.ContainsFunc(contexts, func(c string) bool {
			return strings.Contains(c, statement)
		})
		verdicts = append(verdicts, Verdict{Statement: statement, Supported: supported})
	}
	return verdicts, nil
}

func (j *fakeJudge) ClassifyStatements(ctx context.Context, question string, answer, groundTruth []string) (Classification, error) {
	var c Classification
	for _, s := range answer {
		if slices.Contains(groundTruth, s) {
			c.TruePositives = append(c.TruePositives, s)
		} else {
			c.FalsePositives = append(c.FalsePositives, s)
		}
	}
	for _, s := range groundTruth {
		if !slices.Contains(answer, s) {
			c.FalseNegatives = append(c.FalseNegatives, s)
		}
	}
	return c, nil
}

type fakeConversations struct {
	mu          sync.Mutex
	created     int
	createErr   error
	failPrompts []string
	prompts     map[string]string
}

func (c *fakeConversations) CreateConversation(ctx context.Context) (string, error) {
	if c.createErr != nil {
		return "", c.createErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.created++
	return fmt.Sprintf("conv-%d", c.created), nil
}

func (c *fakeConversations) Prompt(ctx context.Context, conversationID, prompt string) (string, error) {
	if slices.Contains(c.failPrompts, prompt) {
		return "", errors.New("status 500")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.prompts == nil {
		c.prompts = map[string]string{}
	}
	c.prompts[conversationID] = prompt
	return "answer to " + prompt, nil
}

type fakeLoader struct {
	documents []Document
	err       error
	limit     int
}

func (l *fakeLoader) Load(ctx context.Context, dir string, limit int) ([]Document, error) {
	l.limit = limit
	return l.documents, l.err
}

type fakeDownloader struct {
	err error
}

func (d *fakeDownloader) Download(ctx context.Context, model, dir string, force bool) (string, error) {
	if d.err != nil {
		return "", d.err
	}
	return dir, nil
}

type memoryDatasets struct {
	mu     sync.Mutex
	tables map[string]*Table
}

func newMemoryDatasets() *memoryDatasets {
	return &memoryDatasets{tables: map[string]*Table{}}
}

func (d *memoryDatasets) ReadTable(name string) (*Table, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	table, ok := d.tables[name]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", name, os.ErrNotExist)
	}
	return table, nil
}

func (d *memoryDatasets) WriteTable(name string, table *Table) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tables[name] = table
	return nil
}

type memoryRunStore struct {
	mu   sync.Mutex
	runs []Run
}

func newMemoryRunStore() *memoryRunStore {
	return &memoryRunStore{}
}

func (s *memoryRunStore) Transactional(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *memoryRunStore) SaveRun(ctx context.Context, aRun *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := *aRun
	saved.Summary = maps.Clone(aRun.Summary)
	for i := range s.runs {
		if s.runs[i].ID == aRun.ID {
			s.runs[i] = saved
			return nil
		}
	}
	s.runs = append(s.runs, saved)
	return nil
}

func (s *memoryRunStore) FindRun(ctx context.Context, id RunID) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, aRun := range s.runs {
		if aRun.ID == id {
			return &aRun, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memoryRunStore) ListRuns(ctx context.Context, filter RunFilter, limit int) ([]*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var runs []*Run
	for i := len(s.runs) - 1; i >= 0; i-- {
		aRun := s.runs[i]
		if filter.Kind != "" && aRun.Kind != filter.Kind {
			continue
		}
		if filter.Status != "" && aRun.Status != filter.Status {
			continue
		}
		runs = append(runs, &aRun)
		if limit > 0 && len(runs) == limit {
			break
		}
	}
	return runs, nil
}
