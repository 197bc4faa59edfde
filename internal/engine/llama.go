//go:build llama

package engine

import (
	"context"
	"errors"
	"strings"

	llama "github.com/go-skynet/go-llama.cpp"
)

// New loads a gguf model with go-llama.cpp.
func New(path string, opts Options) (Engine, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("model path is empty")
	}
	mo := []llama.ModelOption{
		llama.SetContext(opts.CtxSize),
		llama.SetGPULayers(opts.GPULayers),
	}
	if opts.Embedding {
		mo = append(mo, llama.EnableEmbeddings)
	}
	m, err := llama.New(path, mo...)
	if err != nil {
		return nil, err
	}
	return &llamaEngine{model: m, threads: opts.Threads}, nil
}

type llamaEngine struct {
	model   *llama.LLama
	threads int
}

func (e *llamaEngine) Generate(ctx context.Context, prompt string, p GenerateParams) (string, error) {
	if e.model == nil {
		return "", errors.New("llama model not initialized")
	}
	// Abort generation from the token callback when the context ends.
	e.model.SetTokenCallback(func(tok string) bool {
		select {
		case <-ctx.Done():
			return false
		default:
			return true
		}
	})
	po := []llama.PredictOption{
		llama.SetTokens(maxInt(1, p.MaxTokens)),
		llama.SetThreads(maxInt(1, e.threads)),
		llama.SetTemperature(float32(p.Temperature)),
	}
	if len(p.Stop) > 0 {
		po = append(po, llama.SetStopWords(p.Stop...))
	}
	text, err := e.model.Predict(prompt, po...)
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if err != nil {
		return "", err
	}
	return text, nil
}

func (e *llamaEngine) Embed(ctx context.Context, input string) ([]float32, error) {
	if e.model == nil {
		return nil, errors.New("llama model not initialized")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.model.Embeddings(input)
}

func (e *llamaEngine) Close() error {
	if e.model != nil {
		e.model.Free()
		e.model = nil
	}
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
