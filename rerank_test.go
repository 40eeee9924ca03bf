package rageval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRerankRequest_Empty(t *testing.T) {
	t.Parallel()

	assert.True(t, RerankRequest{}.Empty())
	assert.True(t, RerankRequest{Query: "q"}.Empty())
	assert.True(t, RerankRequest{Passages: []Passage{{Text: "t"}}}.Empty())
	assert.False(t, RerankRequest{Query: "q", Passages: []Passage{{Text: "t"}}}.Empty())
}

func TestRagEval_Rerank(t *testing.T) {
	t.Parallel()

	embedder := &fakeEmbedder{vectors: map[string]Vector{
		"query":   {1, 0},
		"best":    {1, 0},
		"middle":  {1, 1},
		"worst":   {-1, 0},
		"middle2": {1, 1},
	}}
	re, _, _ := newTestRagEval(t, WithEmbedder(embedder))

	request := RerankRequest{
		Query: "query",
		Passages: []Passage{
			{ID: 1, Text: "worst"},
			{ID: "two", Text: "middle", Meta: map[string]any{"page": 2}},
			{ID: 3, Text: "best"},
			{ID: 4, Text: "middle2"},
		},
	}

	passages, err := re.Rerank(context.Background(), request, 0)
	require.NoError(t, err)
	require.Len(t, passages, 4)

	// Equal scores keep their input order
	assert.Equal(t, []any{3, "two", 4, 1}, []any{passages[0].ID, passages[1].ID, passages[2].ID, passages[3].ID})
	assert.InDelta(t, sigmoid(1), passages[0].Score, 1e-9)
	assert.InDelta(t, passages[1].Score, passages[2].Score, 1e-9)
	assert.InDelta(t, sigmoid(-1), passages[3].Score, 1e-9)
	assert.Equal(t, map[string]any{"page": 2}, passages[1].Meta)
	for _, aPassage := range passages {
		assert.Greater(t, aPassage.Score, 0.0)
		assert.Less(t, aPassage.Score, 1.0)
	}

	// The request is left untouched
	assert.Zero(t, request.Passages[0].Score)

	top, err := re.Rerank(context.Background(), request, 2)
	require.NoError(t, err)
	assert.Equal(t, passages[:2], top)

	all, err := re.Rerank(context.Background(), request, 10)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestRagEval_RerankFailures(t *testing.T) {
	t.Parallel()

	request := RerankRequest{Query: "q", Passages: []Passage{{Text: "t"}}}

	unconfigured, _, _ := newTestRagEval(t)
	_, err := unconfigured.Rerank(context.Background(), request, 0)
	assert.ErrorIs(t, err, ErrNotConfigured)

	passages, err := unconfigured.Rerank(context.Background(), RerankRequest{}, 0)
	require.NoError(t, err)
	assert.Nil(t, passages)

	errQuota := errors.New("quota exceeded")
	failing, _, _ := newTestRagEval(t, WithEmbedder(&fakeEmbedder{err: errQuota}))
	_, err = failing.Rerank(context.Background(), request, 0)
	assert.ErrorIs(t, err, errQuota)
}
