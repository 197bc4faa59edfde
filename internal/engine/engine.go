// Package engine defines the opaque inference capability the cache stores.
// Backends implement Engine; the llama.cpp implementation is compiled in
// with the 'llama' build tag, keeping default builds CGO-free.
package engine

import "context"

// GenerateParams captures sampling parameters for one generation.
type GenerateParams struct {
	Temperature float64
	MaxTokens   int
	Stop        []string
}

// Engine is a loaded inference backend instance. Implementations are not
// assumed to be reentrant; callers serialize Generate/Embed per instance.
type Engine interface {
	// Generate produces a completion for the prompt. It must return early
	// with the context error when ctx is canceled or times out.
	Generate(ctx context.Context, prompt string, p GenerateParams) (string, error)
	// Embed returns the embedding vector for the input text.
	Embed(ctx context.Context, input string) ([]float32, error)
	// Close releases the backend resources.
	Close() error
}

// Options configures engine construction.
type Options struct {
	CtxSize   int
	Threads   int
	GPULayers int
	// Embedding switches the backend into embedding mode.
	Embedding bool
}

type unavailableError struct{ msg string }

func (e unavailableError) Error() string { return e.msg }

// ErrUnavailable constructs an error indicating the inference runtime is not
// compiled into this binary.
func ErrUnavailable(msg string) error { return unavailableError{msg: msg} }

// IsUnavailable reports whether err indicates a missing inference runtime.
func IsUnavailable(err error) bool {
	_, ok := err.(unavailableError)
	return ok
}
