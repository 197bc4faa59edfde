package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"inferd/internal/download"
	"inferd/internal/registry"
	"inferd/pkg/types"
)

type mockService struct {
	chatErr  error
	embedErr error
	loadErr  error
	dlErr    error
}

func (m *mockService) ListModels(kind registry.Kind) []types.ModelInfo {
	return []types.ModelInfo{{Name: "m-" + string(kind), Status: "ready_to_use"}}
}

func (m *mockService) ListDownloadable(kind registry.Kind) []types.DownloadableModelInfo {
	return []types.DownloadableModelInfo{{Repository: "org/repo", Filename: "f.gguf"}}
}

func (m *mockService) ListLoaded() []types.LoadedModelInfo {
	return []types.LoadedModelInfo{{ModelName: "m", Loaded: true}}
}

func (m *mockService) Download(repository string) (types.DownloadResponse, error) {
	if m.dlErr != nil {
		return types.DownloadResponse{}, m.dlErr
	}
	return types.DownloadResponse{Repository: repository, Status: "downloading"}, nil
}

func (m *mockService) Load(ctx context.Context, model string, kind registry.Kind) (types.LoadResponse, error) {
	if m.loadErr != nil {
		return types.LoadResponse{}, m.loadErr
	}
	return types.LoadResponse{Model: model, Status: "loaded"}, nil
}

func (m *mockService) Unload(model string, kind registry.Kind) (types.LoadResponse, error) {
	return types.LoadResponse{Model: model, Status: "unloaded"}, nil
}

func (m *mockService) ChatCompletion(ctx context.Context, req types.ChatCompletionRequest) (types.ChatCompletionResponse, error) {
	if m.chatErr != nil {
		return types.ChatCompletionResponse{}, m.chatErr
	}
	return types.ChatCompletionResponse{
		ID:     "chatcmpl-test",
		Object: "chat.completion",
		Model:  req.Model,
		Choices: []types.Choice{{
			Message:      types.Message{Role: "assistant", Content: "hi"},
			FinishReason: "stop",
		}},
	}, nil
}

func (m *mockService) Embeddings(ctx context.Context, req types.EmbeddingRequest) (types.EmbeddingResponse, error) {
	if m.embedErr != nil {
		return types.EmbeddingResponse{}, m.embedErr
	}
	return types.EmbeddingResponse{Object: "list", Model: req.Model}, nil
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestListEndpoints(t *testing.T) {
	h := NewMux(&mockService{})

	for _, path := range []string{
		"/v1/models/chat",
		"/v1/models/embeddings",
		"/v1/models/chat/downloadable",
		"/v1/models/embeddings/downloadable",
		"/v1/models/loaded",
	} {
		rr := doJSON(t, h, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rr.Code)
		}
		if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
			t.Errorf("GET %s Content-Type = %q", path, ct)
		}
	}
}

func TestDownloadStarts(t *testing.T) {
	h := NewMux(&mockService{})

	rr := doJSON(t, h, http.MethodPost, "/v1/models/download", `{"repository":"org/repo"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rr.Code, rr.Body.String())
	}
	var resp types.DownloadResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Repository != "org/repo" {
		t.Errorf("repository = %q", resp.Repository)
	}
}

func TestDownloadMissingRepository(t *testing.T) {
	h := NewMux(&mockService{})

	rr := doJSON(t, h, http.MethodPost, "/v1/models/download", `{}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	var resp types.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Detail == "" {
		t.Error("detail should not be empty")
	}
}

func TestLoadAndUnload(t *testing.T) {
	h := NewMux(&mockService{})

	rr := doJSON(t, h, http.MethodPost, "/v1/models/load", `{"model":"m","model_type":"chat"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("load status = %d; body: %s", rr.Code, rr.Body.String())
	}
	rr = doJSON(t, h, http.MethodPost, "/v1/models/unload", `{"model":"m","model_type":"embedding"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("unload status = %d; body: %s", rr.Code, rr.Body.String())
	}
	rr = doJSON(t, h, http.MethodPost, "/v1/models/load", `{"model":"m","model_type":"bogus"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bogus model_type status = %d, want 400", rr.Code)
	}
}

func TestChatCompletionsHappyPath(t *testing.T) {
	h := NewMux(&mockService{})

	rr := doJSON(t, h, http.MethodPost, "/v1/chat/completions",
		`{"model":"m","messages":[{"role":"user","content":"hi"}]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", rr.Code, rr.Body.String())
	}
	var resp types.ChatCompletionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Object != "chat.completion" || len(resp.Choices) != 1 {
		t.Errorf("response = %+v", resp)
	}
}

func TestChatCompletionsValidation(t *testing.T) {
	h := NewMux(&mockService{})

	cases := []struct {
		name string
		body string
		want int
	}{
		{"missing model", `{"messages":[{"role":"user","content":"hi"}]}`, http.StatusBadRequest},
		{"empty messages", `{"model":"m","messages":[]}`, http.StatusBadRequest},
		{"stream requested", `{"model":"m","messages":[{"role":"user","content":"hi"}],"stream":true}`, http.StatusBadRequest},
		{"invalid json", `{`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		rr := doJSON(t, h, http.MethodPost, "/v1/chat/completions", tc.body)
		if rr.Code != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.name, rr.Code, tc.want)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnsupportedMediaType {
		t.Errorf("text/plain: status = %d, want 415", rr.Code)
	}
}

func TestEmbeddingsRejectsBase64(t *testing.T) {
	h := NewMux(&mockService{})

	rr := doJSON(t, h, http.MethodPost, "/v1/embeddings",
		`{"model":"m","input":"text","encoding_format":"base64"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body: %s", rr.Code, rr.Body.String())
	}
}

func TestEmbeddingsStringInput(t *testing.T) {
	h := NewMux(&mockService{})

	rr := doJSON(t, h, http.MethodPost, "/v1/embeddings", `{"model":"m","input":"one string"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", rr.Code, rr.Body.String())
	}
}

func TestModelNotFoundMapsTo404(t *testing.T) {
	h := NewMux(&mockService{chatErr: registry.ErrNotFound("missing")})

	rr := doJSON(t, h, http.MethodPost, "/v1/chat/completions",
		`{"model":"missing","messages":[{"role":"user","content":"hi"}]}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404; body: %s", rr.Code, rr.Body.String())
	}
	var resp types.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(resp.Detail, "missing") {
		t.Errorf("detail = %q", resp.Detail)
	}
}

func TestDeadlineMapsTo504(t *testing.T) {
	h := NewMux(&mockService{chatErr: context.DeadlineExceeded})

	rr := doJSON(t, h, http.MethodPost, "/v1/chat/completions",
		`{"model":"m","messages":[{"role":"user","content":"hi"}]}`)
	if rr.Code != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, want 504", rr.Code)
	}
}

func TestInvalidRepositoryMapsTo400(t *testing.T) {
	dl := download.New(registry.New(), t.TempDir(), zerolog.Nop())
	_, err := dl.Start("nobody/unknown")
	if err == nil {
		t.Fatal("expected invalid repository error")
	}
	h := NewMux(&mockService{dlErr: err})

	rr := doJSON(t, h, http.MethodPost, "/v1/models/download", `{"repository":"nobody/unknown"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

type teapotError struct{}

func (teapotError) Error() string   { return "teapot" }
func (teapotError) StatusCode() int { return http.StatusTeapot }

func TestHTTPErrorStatusHonored(t *testing.T) {
	h := NewMux(&mockService{embedErr: teapotError{}})

	rr := doJSON(t, h, http.MethodPost, "/v1/embeddings", `{"model":"m","input":["x"]}`)
	if rr.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want 418", rr.Code)
	}
}

func TestHealth(t *testing.T) {
	h := NewMux(&mockService{})

	rr := doJSON(t, h, http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := NewMux(&mockService{})

	rr := doJSON(t, h, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}

func TestRequestContextEndsOnShutdown(t *testing.T) {
	base, cancelBase := context.WithCancel(context.Background())
	SetBaseContext(base)
	t.Cleanup(func() { SetBaseContext(nil) })

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	ctx, cancel := requestContext(req)
	defer cancel()

	if clientGone(req) {
		t.Fatal("clientGone before shutdown")
	}
	cancelBase()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("derived context not canceled on shutdown")
	}
	if !clientGone(req) {
		t.Error("clientGone should observe the ended process context")
	}
}
