// Package prompt translates between the OpenAI message/tool wire format and
// the Qwen3 native chat template. It is pure and deterministic: Encode and
// Decode perform no I/O and keep no state.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"inferd/pkg/types"
)

// Qwen3 chat-template delimiters.
const (
	imStart       = "<|im_start|>"
	imEnd         = "<|im_end|>"
	toolsOpen     = "<tools>"
	toolsClose    = "</tools>"
	toolCallOpen  = "<tool_call>"
	toolCallClose = "</tool_call>"
)

// defaultParameters is the schema emitted for tools that declare none.
var defaultParameters = json.RawMessage(`{"type": "object", "properties": {}, "required": []}`)

// toolSpec is the shape serialized into the <tools> block.
type toolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// Encode renders messages (and optional tool definitions) into a Qwen3
// prompt. When tools are present, a <tools> block holding the JSON array of
// definitions is emitted once before the first turn. The prompt always ends
// with an open assistant turn so the engine continues generation from there.
func Encode(messages []types.Message, tools []types.Tool) (string, error) {
	var b strings.Builder

	if len(tools) > 0 {
		specs := make([]toolSpec, 0, len(tools))
		for _, t := range tools {
			params := t.Function.Parameters
			if len(params) == 0 {
				params = defaultParameters
			}
			specs = append(specs, toolSpec{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  params,
			})
		}
		enc, err := json.Marshal(specs)
		if err != nil {
			return "", fmt.Errorf("encode tools: %w", err)
		}
		b.WriteString(toolsOpen)
		b.WriteByte('\n')
		b.Write(enc)
		b.WriteByte('\n')
		b.WriteString(toolsClose)
		b.WriteByte('\n')
	}

	for _, m := range messages {
		b.WriteString(imStart)
		b.WriteString(m.Role)
		b.WriteByte('\n')
		b.WriteString(m.Content)
		// Prior assistant tool invocations are replayed as <tool_call>
		// blocks so multi-turn tool conversations round-trip.
		for _, tc := range m.ToolCalls {
			args := strings.TrimSpace(tc.Function.Arguments)
			if args == "" {
				args = "{}"
			}
			fmt.Fprintf(&b, "\n%s\n{\"name\": %q, \"arguments\": %s}\n%s", toolCallOpen, tc.Function.Name, args, toolCallClose)
		}
		b.WriteString(imEnd)
		b.WriteByte('\n')
	}

	// Open assistant turn, deliberately left unclosed.
	b.WriteString(imStart)
	b.WriteString("assistant\n")
	return b.String(), nil
}

// ToolCall is a parsed function invocation from model output.
type ToolCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// FormatError records one tool-call block that could not be parsed.
// It is partial and non-fatal: the offending block stays in the visible
// content and decoding continues.
type FormatError struct {
	Block string
	Err   error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unparseable tool call block: %v", e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Result is the decoded form of raw model output.
type Result struct {
	Content   string
	ToolCalls []ToolCall
	Errors    []*FormatError
}

// Decode scans raw model output for <tool_call> blocks. Well-formed blocks
// are parsed and removed from the visible content; malformed blocks are
// recorded as FormatErrors and left in place as literal text. Plain text
// around recognized blocks is preserved byte for byte. Output without any
// tool-call markers is returned unchanged.
func Decode(raw string) Result {
	var res Result
	var content strings.Builder
	rest := raw
	for {
		i := strings.Index(rest, toolCallOpen)
		if i < 0 {
			content.WriteString(rest)
			break
		}
		j := strings.Index(rest[i+len(toolCallOpen):], toolCallClose)
		if j < 0 {
			// Unmatched opening tag: everything from here is literal.
			content.WriteString(rest)
			break
		}
		inner := rest[i+len(toolCallOpen) : i+len(toolCallOpen)+j]
		end := i + len(toolCallOpen) + j + len(toolCallClose)

		tc, err := parseToolCall(inner)
		if err != nil {
			res.Errors = append(res.Errors, &FormatError{Block: rest[i:end], Err: err})
			content.WriteString(rest[:end])
		} else {
			content.WriteString(rest[:i])
			res.ToolCalls = append(res.ToolCalls, tc)
		}
		rest = rest[end:]
	}
	res.Content = content.String()
	return res
}

func parseToolCall(inner string) (ToolCall, error) {
	var tc ToolCall
	if err := json.Unmarshal([]byte(strings.TrimSpace(inner)), &tc); err != nil {
		return ToolCall{}, err
	}
	if tc.Name == "" {
		return ToolCall{}, fmt.Errorf("missing tool name")
	}
	if len(tc.Arguments) == 0 {
		tc.Arguments = json.RawMessage("{}")
	}
	return tc, nil
}
