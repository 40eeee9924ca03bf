package googlegenai

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/RichardKnop/rageval"
)

func (a *Adapter) EmbedDocuments(ctx context.Context, contents []string) ([]rageval.Vector, error) {
	vectors := make([]rageval.Vector, 0, len(contents))

	// Use the batch embedding API, split into batches the endpoint accepts.
	for start := 0; start < len(contents); start += maxEmbedBatch {
		end := min(start+maxEmbedBatch, len(contents))

		batch := make([]*genai.Content, 0, end-start)
		for _, content := range contents[start:end] {
			batch = append(batch, genai.NewContentFromText(content, genai.RoleUser))
		}

		a.logger.Sugar().Infof("invoking embedding model with %d documents", len(batch))

		embedResponse, err := a.client.Models.EmbedContent(ctx,
			a.embeddingModel,
			batch,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("embed content error: %w", err)
		}

		if len(embedResponse.Embeddings) != len(batch) {
			return nil, fmt.Errorf("embedded batch size mismatch")
		}

		for _, embedding := range embedResponse.Embeddings {
			vectors = append(vectors, embedding.Values)
		}
	}

	return vectors, nil
}

func (a *Adapter) EmbedContent(ctx context.Context, content string) (rageval.Vector, error) {
	embedResponse, err := a.client.Models.EmbedContent(ctx,
		a.embeddingModel,
		[]*genai.Content{genai.NewContentFromText(content, genai.RoleUser)},
		nil,
	)
	if err != nil {
		return rageval.Vector{}, err
	}
	if len(embedResponse.Embeddings) == 0 {
		return rageval.Vector{}, fmt.Errorf("no embeddings returned")
	}
	return embedResponse.Embeddings[0].Values, nil
}
