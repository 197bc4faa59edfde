package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"inferd/internal/engine"
	"inferd/internal/prompt"
	"inferd/internal/registry"
	"inferd/pkg/types"
)

const stopToken = "<|im_end|>"

// ChatCompletion runs one chat turn: encode the conversation, generate with
// the resolved chat model, then decode tool calls out of the raw completion.
func (s *Service) ChatCompletion(ctx context.Context, req types.ChatCompletionRequest) (types.ChatCompletionResponse, error) {
	if _, err := s.getKinded(req.Model, registry.KindChat); err != nil {
		return types.ChatCompletionResponse{}, err
	}

	lm, err := s.cache.Acquire(ctx, req.Model)
	if err != nil {
		return types.ChatCompletionResponse{}, err
	}
	defer s.cache.Release(lm)

	encoded, err := prompt.Encode(req.Messages, req.Tools)
	if err != nil {
		return types.ChatCompletionResponse{}, err
	}

	params := engine.GenerateParams{
		Temperature: s.opts.Temperature,
		MaxTokens:   s.opts.MaxTokens,
		Stop:        []string{stopToken},
	}
	if req.Temperature != nil {
		params.Temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		params.MaxTokens = *req.MaxTokens
	}

	genCtx := ctx
	if s.opts.GenerateTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, s.opts.GenerateTimeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := lm.Generate(genCtx, encoded, params)
	if err != nil {
		return types.ChatCompletionResponse{}, err
	}
	s.log.Debug().
		Str("model", req.Model).
		Dur("elapsed", time.Since(start)).
		Msg("generation complete")

	result := prompt.Decode(raw)
	for _, fe := range result.Errors {
		s.log.Warn().Err(fe.Err).Str("block", fe.Block).Msg("malformed tool call left verbatim")
	}

	msg := types.Message{Role: "assistant", Content: result.Content}
	finish := "stop"
	if len(result.ToolCalls) > 0 {
		finish = "tool_calls"
		for _, tc := range result.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, types.ToolCall{
				ID:   "call_" + uuid.NewString()[:8],
				Type: "function",
				Function: types.FunctionCall{
					Name:      tc.Name,
					Arguments: string(tc.Arguments),
				},
			})
		}
	}

	promptTokens := estimateTokens(encoded)
	completionTokens := estimateTokens(raw)
	return types.ChatCompletionResponse{
		ID:      "chatcmpl-" + uuid.NewString(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []types.Choice{{Index: 0, Message: msg, FinishReason: finish}},
		Usage: types.Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
	}, nil
}
