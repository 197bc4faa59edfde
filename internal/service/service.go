// Package service orchestrates the gateway: it resolves model names against
// the registry, checks models in and out of the cache, runs the prompt codec
// around engine invocations, and shapes wire responses.
package service

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"inferd/internal/cache"
	"inferd/internal/common/fsutil"
	"inferd/internal/download"
	"inferd/internal/registry"
	"inferd/pkg/types"
)

// Wire status strings for model listings.
const (
	statusReadyToUse  = "ready_to_use"
	statusDownloading = "downloading"
)

// Options carries generation defaults and the store location.
type Options struct {
	ModelsDir       string
	Temperature     float64
	MaxTokens       int
	GenerateTimeout time.Duration
}

type Service struct {
	reg   *registry.Registry
	cache *cache.Cache
	dl    *download.Downloader
	opts  Options
	log   zerolog.Logger
}

func New(reg *registry.Registry, c *cache.Cache, dl *download.Downloader, opts Options, log zerolog.Logger) *Service {
	return &Service{reg: reg, cache: c, dl: dl, opts: opts, log: log}
}

// ListModels lists on-disk models of one kind, merged with in-flight
// downloads. The directory is rescanned first so files dropped in manually
// show up without a restart.
func (s *Service) ListModels(kind registry.Kind) []types.ModelInfo {
	if err := s.reg.Scan(s.opts.ModelsDir); err != nil {
		s.log.Error().Err(err).Msg("model directory scan failed")
	}
	descs := s.reg.List(kind)
	out := make([]types.ModelInfo, 0, len(descs))
	for _, d := range descs {
		switch d.Status {
		case registry.StatusReady, registry.StatusLoaded:
			out = append(out, types.ModelInfo{
				Name:   d.Name,
				Path:   s.relPath(d.Path),
				Size:   fsutil.FormatSize(d.SizeBytes),
				Status: statusReadyToUse,
			})
		case registry.StatusDownloading:
			out = append(out, types.ModelInfo{
				Name:   d.Name,
				Path:   s.relPath(d.Path),
				Size:   "Downloading...",
				Status: statusDownloading,
			})
		}
	}
	return out
}

// ListDownloadable returns the curated catalog for one kind.
func (s *Service) ListDownloadable(kind registry.Kind) []types.DownloadableModelInfo {
	if kind == registry.KindEmbedding {
		return download.EmbeddingModels.List()
	}
	return download.ChatModels.List()
}

// ListLoaded reports all models currently resident in memory.
func (s *Service) ListLoaded() []types.LoadedModelInfo {
	descs := s.cache.Loaded()
	out := make([]types.LoadedModelInfo, 0, len(descs))
	for _, d := range descs {
		out = append(out, types.LoadedModelInfo{
			ModelName: d.Name,
			ModelPath: d.Path,
			ModelType: string(d.Kind),
			Loaded:    true,
		})
	}
	return out
}

// Download starts a background artifact transfer.
func (s *Service) Download(repository string) (types.DownloadResponse, error) {
	filename, err := s.dl.Start(repository)
	if err != nil {
		return types.DownloadResponse{}, err
	}
	return types.DownloadResponse{
		Repository: repository,
		Status:     statusDownloading,
		Path:       filename,
		Message:    "Model download started in background",
	}, nil
}

// Load pre-warms a model: it is checked out and immediately handed back, so
// it stays resident with no outstanding references and remains unloadable.
func (s *Service) Load(ctx context.Context, model string, kind registry.Kind) (types.LoadResponse, error) {
	desc, err := s.getKinded(model, kind)
	if err != nil {
		return types.LoadResponse{}, err
	}
	if s.cache.IsLoaded(model) {
		return types.LoadResponse{
			Model:     model,
			ModelType: string(kind),
			Status:    "already_loaded",
			Message:   "Model is already loaded in memory",
			ModelPath: desc.Path,
		}, nil
	}
	lm, err := s.cache.Acquire(ctx, model)
	if err != nil {
		return types.LoadResponse{}, err
	}
	s.cache.Release(lm)
	return types.LoadResponse{
		Model:     model,
		ModelType: string(kind),
		Status:    "loaded",
		Message:   "Model loaded successfully into memory",
		ModelPath: desc.Path,
	}, nil
}

// Unload evicts a resident model. A model still serving requests is left in
// place and the busy error is surfaced to the caller.
func (s *Service) Unload(model string, kind registry.Kind) (types.LoadResponse, error) {
	if _, err := s.getKinded(model, kind); err != nil {
		return types.LoadResponse{}, err
	}
	err := s.cache.Unload(model)
	switch {
	case err == nil:
		return types.LoadResponse{
			Model:     model,
			ModelType: string(kind),
			Status:    "unloaded",
			Message:   "Model unloaded from memory and RAM freed",
		}, nil
	case cache.IsNotLoaded(err):
		return types.LoadResponse{
			Model:     model,
			ModelType: string(kind),
			Status:    "not_loaded",
			Message:   "Model was not loaded in memory",
		}, nil
	default:
		return types.LoadResponse{}, err
	}
}

// getKinded resolves a model name and checks it is of the expected kind.
// A name of the wrong kind is reported as not found, mirroring the split
// chat/embed directory layout.
func (s *Service) getKinded(name string, kind registry.Kind) (registry.Descriptor, error) {
	d, err := s.reg.Get(name)
	if err != nil || d.Kind != kind {
		return registry.Descriptor{}, modelNotFoundError{name: name, kind: kind}
	}
	return d, nil
}

// estimateTokens approximates the token count of text. The engine boundary
// does not expose the backend tokenizer, so usage reporting relies on the
// ~4-bytes-per-token heuristic that holds for this model family.
func estimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}

func (s *Service) relPath(path string) string {
	if rel, err := filepath.Rel(s.opts.ModelsDir, path); err == nil {
		return rel
	}
	return path
}
