package rageval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDocuments = []Document{
	{FileName: "alpha.txt", Content: "Alpha one is here. Alpha two is here.", Page: 1},
	{FileName: "beta.pdf", Content: "Beta one is here. Beta two is here.", Page: 1},
}

func testGenerateParams() GenerateParams {
	return GenerateParams{
		InputDir:  "docs",
		Output:    "testset.csv",
		TestSize:  10,
		ChunkSize: 20,
		Seed:      42,
	}
}

func TestRagEval_GenerateSamples(t *testing.T) {
	t.Parallel()

	re, _, _ := newTestRagEval(t,
		WithEmbedder(new(fakeEmbedder)),
		WithTestsetModel(new(fakeTestsetModel)),
	)

	samples, err := re.GenerateSamples(context.Background(), testDocuments, testGenerateParams())
	require.NoError(t, err)
	require.Len(t, samples, 10)

	assert.Equal(t, map[EvolutionType]int{
		EvolutionSimple:       5,
		EvolutionReasoning:    1,
		EvolutionMultiContext: 4,
	}, countEvolutions(samples))

	for _, aSample := range samples {
		assert.True(t, aSample.EpisodeDone)
		assert.NotEmpty(t, aSample.Metadata)
		assert.Equal(t, strings.Join(aSample.Contexts, " "), aSample.GroundTruth)

		switch aSample.EvolutionType {
		case EvolutionSimple:
			assert.Len(t, aSample.Contexts, 1)
			assert.True(t, strings.HasPrefix(aSample.Question, "Q: "))
		case EvolutionReasoning:
			assert.Len(t, aSample.Contexts, 1)
			assert.True(t, strings.HasPrefix(aSample.Question, "reasoning(Q: "))
		case EvolutionMultiContext:
			require.Len(t, aSample.Contexts, 2)
			assert.NotEqual(t, aSample.Contexts[0], aSample.Contexts[1])
			assert.True(t, strings.HasPrefix(aSample.Question, "multi_context(Q: "))
		}
	}
}

func TestRagEval_GenerateSamplesDeterministic(t *testing.T) {
	t.Parallel()

	generate := func(concurrency int) []Sample {
		re, _, _ := newTestRagEval(t,
			WithEmbedder(new(fakeEmbedder)),
			WithTestsetModel(new(fakeTestsetModel)),
			WithConcurrency(concurrency),
		)
		samples, err := re.GenerateSamples(context.Background(), testDocuments, testGenerateParams())
		require.NoError(t, err)
		return samples
	}

	first := generate(1)
	assert.Equal(t, first, generate(1))
	assert.Equal(t, first, generate(4))
}

func TestRagEval_GenerateSamplesCritic(t *testing.T) {
	t.Parallel()

	t.Run("rejected questions are retried or dropped", func(t *testing.T) {
		t.Parallel()

		re, _, _ := newTestRagEval(t,
			WithEmbedder(new(fakeEmbedder)),
			WithTestsetModel(&fakeTestsetModel{rejected: []string{"Q: Beta"}}),
		)

		samples, err := re.GenerateSamples(context.Background(), testDocuments, testGenerateParams())
		require.NoError(t, err)
		assert.LessOrEqual(t, len(samples), 10)
		for _, aSample := range samples {
			assert.NotContains(t, aSample.Question, "Q: Beta")
		}
	})

	t.Run("every question rejected", func(t *testing.T) {
		t.Parallel()

		model := &fakeTestsetModel{rejectAll: true}
		re, _, _ := newTestRagEval(t,
			WithEmbedder(new(fakeEmbedder)),
			WithTestsetModel(model),
		)

		params := testGenerateParams()
		params.MaxTries = 3

		_, err := re.GenerateSamples(context.Background(), testDocuments, params)
		require.Error(t, err)
		assert.ErrorContains(t, err, "no samples generated")
		assert.Equal(t, 10*3, model.critiques)
	})
}

func TestRagEval_GenerateSamplesErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		documents []Document
		embedder  *fakeEmbedder
		model     *fakeTestsetModel
		params    func(p GenerateParams) GenerateParams
		expected  error
	}{
		{
			"low context scores",
			testDocuments,
			new(fakeEmbedder),
			&fakeTestsetModel{defaultScore: 1.4},
			nil,
			ErrNoUsableNodes,
		},
		{
			"no content",
			[]Document{{FileName: "empty.txt", Content: "  "}},
			new(fakeEmbedder),
			new(fakeTestsetModel),
			nil,
			ErrNoUsableNodes,
		},
		{
			"invalid distribution",
			testDocuments,
			new(fakeEmbedder),
			new(fakeTestsetModel),
			func(p GenerateParams) GenerateParams {
				p.Distribution = Distribution{EvolutionSimple: 0.7}
				return p
			},
			ErrInvalidDistribution,
		},
		{
			"embedding failure",
			testDocuments,
			&fakeEmbedder{err: errors.New("quota exceeded")},
			new(fakeTestsetModel),
			nil,
			nil,
		},
		{
			"multi context needs two nodes",
			[]Document{{FileName: "one.txt", Content: "Only one sentence here."}},
			new(fakeEmbedder),
			new(fakeTestsetModel),
			func(p GenerateParams) GenerateParams {
				p.Distribution = Distribution{EvolutionMultiContext: 1}
				p.TestSize = 2
				return p
			},
			nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			re, _, _ := newTestRagEval(t, WithEmbedder(tc.embedder), WithTestsetModel(tc.model))

			params := testGenerateParams()
			if tc.params != nil {
				params = tc.params(params)
			}

			_, err := re.GenerateSamples(context.Background(), tc.documents, params)
			require.Error(t, err)
			if tc.expected != nil {
				assert.ErrorIs(t, err, tc.expected)
			}
		})
	}
}

func TestRagEval_GenerateTestset(t *testing.T) {
	t.Parallel()

	loader := &fakeLoader{documents: testDocuments}
	re, datasets, runs := newTestRagEval(t,
		WithDocumentLoader(loader),
		WithEmbedder(new(fakeEmbedder)),
		WithTestsetModel(new(fakeTestsetModel)),
	)

	aRun, err := re.GenerateTestset(context.Background(), testGenerateParams())
	require.NoError(t, err)

	assert.Equal(t, DefaultNumFilesLimit, loader.limit)
	assert.Equal(t, RunKindGenerate, aRun.Kind)
	assert.Equal(t, RunStatusCompleted, aRun.Status)
	assert.Equal(t, 10, aRun.Rows)
	assert.Equal(t, map[string]float64{"simple": 5, "reasoning": 1, "multi_context": 4}, aRun.Summary)

	table, err := datasets.ReadTable("testset.csv")
	require.NoError(t, err)
	assert.Equal(t, 10, table.Len())
	assert.Equal(t, testsetColumns, table.Header)

	saved, err := runs.FindRun(context.Background(), aRun.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, saved.Status)
}

func TestRagEval_GenerateTestsetFailures(t *testing.T) {
	t.Parallel()

	t.Run("loader not configured", func(t *testing.T) {
		t.Parallel()

		re, _, _ := newTestRagEval(t)
		_, err := re.GenerateTestset(context.Background(), testGenerateParams())
		assert.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("no documents", func(t *testing.T) {
		t.Parallel()

		re, _, runs := newTestRagEval(t,
			WithDocumentLoader(&fakeLoader{err: ErrNoDocuments}),
			WithEmbedder(new(fakeEmbedder)),
			WithTestsetModel(new(fakeTestsetModel)),
		)
		aRun, err := re.GenerateTestset(context.Background(), testGenerateParams())
		assert.ErrorIs(t, err, ErrNoDocuments)
		require.NotNil(t, aRun)
		assert.Equal(t, RunStatusFailed, aRun.Status)

		saved, err := runs.FindRun(context.Background(), aRun.ID)
		require.NoError(t, err)
		assert.Equal(t, RunStatusFailed, saved.Status)
	})
}
