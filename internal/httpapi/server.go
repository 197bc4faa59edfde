// Package httpapi exposes the OpenAI-compatible inference surface and the
// model management endpoints over chi.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"inferd/internal/registry"
	"inferd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	ListModels(kind registry.Kind) []types.ModelInfo
	ListDownloadable(kind registry.Kind) []types.DownloadableModelInfo
	ListLoaded() []types.LoadedModelInfo
	Download(repository string) (types.DownloadResponse, error)
	Load(ctx context.Context, model string, kind registry.Kind) (types.LoadResponse, error)
	Unload(model string, kind registry.Kind) (types.LoadResponse, error)
	ChatCompletion(ctx context.Context, req types.ChatCompletionRequest) (types.ChatCompletionResponse, error)
	Embeddings(ctx context.Context, req types.EmbeddingRequest) (types.EmbeddingResponse, error)
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Route("/models", func(r chi.Router) {
			r.Get("/chat", listModelsHandler(svc, registry.KindChat))
			r.Get("/chat/downloadable", listDownloadableHandler(svc, registry.KindChat))
			r.Get("/embeddings", listModelsHandler(svc, registry.KindEmbedding))
			r.Get("/embeddings/downloadable", listDownloadableHandler(svc, registry.KindEmbedding))
			r.Get("/loaded", listLoadedHandler(svc))
			r.Post("/download", downloadHandler(svc))
			r.Post("/load", loadHandler(svc))
			r.Post("/unload", unloadHandler(svc))
		})
		r.Post("/chat/completions", chatCompletionsHandler(svc))
		r.Post("/embeddings", embeddingsHandler(svc))
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}
