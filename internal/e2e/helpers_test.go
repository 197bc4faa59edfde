package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"inferd/internal/cache"
	"inferd/internal/download"
	"inferd/internal/engine"
	"inferd/internal/httpapi"
	"inferd/internal/registry"
	"inferd/internal/service"
)

// fixedEngine is an in-process backend returning canned output, so the whole
// HTTP stack can be exercised without a model runtime.
type fixedEngine struct {
	output string
	vector []float32
}

func (f *fixedEngine) Generate(ctx context.Context, prompt string, p engine.GenerateParams) (string, error) {
	return f.output, nil
}

func (f *fixedEngine) Embed(ctx context.Context, input string) ([]float32, error) {
	return f.vector, nil
}

func (f *fixedEngine) Close() error { return nil }

type stack struct {
	srv *httptest.Server
	dl  *download.Downloader
	dir string
}

// newStack wires registry, cache, downloader and service behind a live HTTP
// server, with downloads served from a local origin.
func newStack(t *testing.T, eng engine.Engine, artifact []byte) *stack {
	t.Helper()
	dir := t.TempDir()
	for _, sub := range []string{registry.ChatSubdir, registry.EmbeddingSubdir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	writeModel(t, dir, registry.ChatSubdir, "local-chat.gguf")
	writeModel(t, dir, registry.EmbeddingSubdir, "local-embed.gguf")

	reg := registry.New()
	if err := reg.Scan(dir); err != nil {
		t.Fatalf("scan: %v", err)
	}
	log := zerolog.Nop()
	c := cache.New(reg, func(d registry.Descriptor) (engine.Engine, error) {
		return eng, nil
	}, log)

	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(artifact)
	}))
	t.Cleanup(origin.Close)

	dl := download.New(reg, dir, log)
	dl.SetBaseURL(origin.URL)

	svc := service.New(reg, c, dl, service.Options{
		ModelsDir:   dir,
		Temperature: 0.7,
		MaxTokens:   3000,
	}, log)

	srv := httptest.NewServer(httpapi.NewMux(svc))
	t.Cleanup(srv.Close)
	t.Cleanup(c.Close)
	return &stack{srv: srv, dl: dl, dir: dir}
}

func writeModel(t *testing.T, dir, sub, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, sub, name), []byte("gguf"), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
}

func (s *stack) get(t *testing.T, path string, out any) int {
	t.Helper()
	resp, err := http.Get(s.srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	decodeInto(t, resp.Body, out)
	return resp.StatusCode
}

func (s *stack) post(t *testing.T, path string, body any, out any) int {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(s.srv.URL+path, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	decodeInto(t, resp.Body, out)
	return resp.StatusCode
}

func decodeInto(t *testing.T, r io.Reader, out any) {
	t.Helper()
	if out == nil {
		_, _ = io.Copy(io.Discard, r)
		return
	}
	if err := json.NewDecoder(r).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}
