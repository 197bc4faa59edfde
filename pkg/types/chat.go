package types

import "encoding/json"

// Message is one turn of a chat conversation in OpenAI wire format.
type Message struct {
	// Role: "system", "user", "assistant" or "tool".
	Role string `json:"role" example:"user"`
	// Message text.
	Content string `json:"content" example:"What's the weather in Tokyo?"`
	// Tool calls requested by the assistant, if any.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// Name of the tool that produced this message (role "tool").
	Name string `json:"name,omitempty"`
	// Id of the tool call this message answers (role "tool").
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// FunctionDefinition describes a callable function exposed to the model.
type FunctionDefinition struct {
	Name        string `json:"name" example:"get_weather"`
	Description string `json:"description" example:"Get the current weather for a location"`
	// JSON Schema object describing the function parameters.
	Parameters json.RawMessage `json:"parameters,omitempty" swaggertype:"object"`
}

// Tool wraps a function definition in the OpenAI tool envelope.
type Tool struct {
	// Only "function" is supported.
	Type     string             `json:"type" example:"function"`
	Function FunctionDefinition `json:"function"`
}

// FunctionCall carries the name and JSON-encoded arguments of a tool call.
type FunctionCall struct {
	Name string `json:"name" example:"get_weather"`
	// Arguments as a JSON-encoded string, per OpenAI convention.
	Arguments string `json:"arguments" example:"{\"location\": \"Tokyo, Japan\"}"`
}

// ToolCall is a structured function invocation emitted by the model.
type ToolCall struct {
	ID       string       `json:"id" example:"call_9c3b"`
	Type     string       `json:"type" example:"function"`
	Function FunctionCall `json:"function"`
}

// ChatCompletionRequest is the body of POST /v1/chat/completions.
type ChatCompletionRequest struct {
	// Model name, as listed by GET /v1/models/chat.
	Model    string    `json:"model" example:"Qwen3-4B-Instruct-2507-Q4_K_M"`
	Messages []Message `json:"messages"`
	Tools    []Tool    `json:"tools,omitempty"`
	// Sampling temperature; nil selects the server default.
	Temperature *float64 `json:"temperature,omitempty" example:"0.7"`
	// Maximum tokens to generate; nil selects the server default.
	MaxTokens *int `json:"max_tokens,omitempty" example:"512"`
	// "auto", "none" or a function name. Informational; the model decides.
	ToolChoice string `json:"tool_choice,omitempty" example:"auto"`
	// Streaming is not supported; must be false or absent.
	Stream bool `json:"stream,omitempty"`
}

// Choice is one completion alternative (always a single one here).
type Choice struct {
	Index        int     `json:"index" example:"0"`
	Message      Message `json:"message"`
	// "stop", "tool_calls" or "length".
	FinishReason string `json:"finish_reason" example:"stop"`
}

// Usage reports token accounting for a completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens" example:"20"`
	CompletionTokens int `json:"completion_tokens" example:"10"`
	TotalTokens      int `json:"total_tokens" example:"30"`
}

// ChatCompletionResponse is the OpenAI-compatible completion payload.
type ChatCompletionResponse struct {
	ID      string   `json:"id" example:"chatcmpl-7f3a"`
	Object  string   `json:"object" example:"chat.completion"`
	Created int64    `json:"created" example:"1707782400"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}
