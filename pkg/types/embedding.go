package types

import (
	"encoding/json"
	"fmt"
)

// EmbeddingInput accepts either a single string or an array of strings,
// matching the OpenAI /v1/embeddings contract.
type EmbeddingInput []string

func (in *EmbeddingInput) UnmarshalJSON(b []byte) error {
	var single string
	if err := json.Unmarshal(b, &single); err == nil {
		*in = EmbeddingInput{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err == nil {
		*in = EmbeddingInput(many)
		return nil
	}
	return fmt.Errorf("input must be a string or an array of strings")
}

func (in EmbeddingInput) MarshalJSON() ([]byte, error) {
	if len(in) == 1 {
		return json.Marshal(in[0])
	}
	return json.Marshal([]string(in))
}

// EmbeddingRequest is the body of POST /v1/embeddings.
type EmbeddingRequest struct {
	Model string         `json:"model" example:"Qwen3-Embedding-4B-Q4_K_M"`
	Input EmbeddingInput `json:"input" swaggertype:"string"`
	// Only "float" is supported; "" defaults to "float".
	EncodingFormat string `json:"encoding_format,omitempty" example:"float"`
}

// EmbeddingData is a single embedding vector in the response list.
type EmbeddingData struct {
	Object    string    `json:"object" example:"embedding"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index" example:"0"`
}

// EmbeddingUsage reports token accounting for an embedding request.
type EmbeddingUsage struct {
	PromptTokens int `json:"prompt_tokens" example:"8"`
	TotalTokens  int `json:"total_tokens" example:"8"`
}

// EmbeddingResponse is the OpenAI-compatible embeddings payload.
type EmbeddingResponse struct {
	Object string          `json:"object" example:"list"`
	Data   []EmbeddingData `json:"data"`
	Model  string          `json:"model"`
	Usage  EmbeddingUsage  `json:"usage"`
}
