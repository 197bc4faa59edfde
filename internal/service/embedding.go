package service

import (
	"context"

	"inferd/internal/registry"
	"inferd/pkg/types"
)

// Embeddings vectorizes each input with the resolved embedding model.
// Inputs are embedded one at a time in request order.
func (s *Service) Embeddings(ctx context.Context, req types.EmbeddingRequest) (types.EmbeddingResponse, error) {
	if _, err := s.getKinded(req.Model, registry.KindEmbedding); err != nil {
		return types.EmbeddingResponse{}, err
	}

	lm, err := s.cache.Acquire(ctx, req.Model)
	if err != nil {
		return types.EmbeddingResponse{}, err
	}
	defer s.cache.Release(lm)

	data := make([]types.EmbeddingData, 0, len(req.Input))
	promptTokens := 0
	for i, text := range req.Input {
		vec, err := lm.Embed(ctx, text)
		if err != nil {
			return types.EmbeddingResponse{}, err
		}
		promptTokens += estimateTokens(text)
		data = append(data, types.EmbeddingData{
			Object:    "embedding",
			Index:     i,
			Embedding: vec,
		})
	}

	return types.EmbeddingResponse{
		Object: "list",
		Data:   data,
		Model:  req.Model,
		Usage: types.EmbeddingUsage{
			PromptTokens: promptTokens,
			TotalTokens:  promptTokens,
		},
	}, nil
}
