package rageval

import (
	"context"
	"fmt"
	"math"
	"sort"
)

type Passage struct {
	ID    any            `json:"id"`
	Text  string         `json:"text"`
	Meta  map[string]any `json:"meta,omitempty"`
	Score float64        `json:"score"`
}

type RerankRequest struct {
	Query    string    `json:"query"`
	Passages []Passage `json:"passages"`
}

// Empty reports whether there is nothing to rerank.
func (r RerankRequest) Empty() bool {
	return r.Query == "" || len(r.Passages) == 0
}

// Rerank scores passages by the similarity of their embedding to the query embedding and
// returns them best first. Scores are squashed into (0, 1). A topK above zero truncates the result.
func (re *ragEval) Rerank(ctx context.Context, request RerankRequest, topK int) ([]Passage, error) {
	if request.Empty() {
		return nil, nil
	}
	if re.embedder == nil {
		return nil, fmt.Errorf("embedder: %w", ErrNotConfigured)
	}

	query, err := re.embedder.EmbedContent(ctx, request.Query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	texts := make([]string, 0, len(request.Passages))
	for _, aPassage := range request.Passages {
		texts = append(texts, aPassage.Text)
	}
	vectors, err := re.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding passages: %w", err)
	}
	if len(vectors) != len(request.Passages) {
		return nil, fmt.Errorf("embedded batch size mismatch")
	}

	passages := make([]Passage, len(request.Passages))
	copy(passages, request.Passages)
	for i := range passages {
		passages[i].Score = sigmoid(CosineSimilarity(query, vectors[i]))
	}

	sort.SliceStable(passages, func(i, j int) bool {
		return passages[i].Score > passages[j].Score
	})

	if topK > 0 && topK < len(passages) {
		passages = passages[:topK]
	}

	re.logger.Sugar().Debugf("reranked %d passages for query: %s", len(passages), request.Query)

	return passages, nil
}

func sigmoid(x float64) float64 {
	return math.Exp(x) / (1 + math.Exp(x))
}
