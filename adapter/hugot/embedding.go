package hugot

import (
	"context"
	"fmt"

	"github.com/RichardKnop/rageval"
)

func (a *Adapter) EmbedDocuments(ctx context.Context, contents []string) ([]rageval.Vector, error) {
	if len(contents) == 0 {
		return nil, nil
	}
	if a.pipeline == nil {
		return nil, fmt.Errorf("embedding pipeline not initialised")
	}

	embeddingResult, err := a.pipeline.RunPipeline(contents)
	if err != nil {
		return nil, err
	}

	embeddings := embeddingResult.Embeddings

	if len(embeddings) != len(contents) {
		return nil, fmt.Errorf("embedded batch size mismatch")
	}

	vectors := make([]rageval.Vector, 0, len(embeddings))

	for i := range embeddings {
		vectors = append(vectors, embeddings[i])
	}

	return vectors, nil
}

func (a *Adapter) EmbedContent(ctx context.Context, content string) (rageval.Vector, error) {
	vectors, err := a.EmbedDocuments(ctx, []string{content})
	if err != nil {
		return rageval.Vector{}, err
	}
	return vectors[0], nil
}
