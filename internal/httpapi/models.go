package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"inferd/internal/registry"
	"inferd/pkg/types"
)

// parseKind maps the wire model_type to a registry kind. An empty value
// defaults to chat.
func parseKind(s string) (registry.Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "chat":
		return registry.KindChat, true
	case "embedding", "embeddings":
		return registry.KindEmbedding, true
	}
	return registry.KindChat, false
}

// decodeBody decodes a size-limited JSON request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// listModelsHandler returns the on-disk models of one kind.
//
//	@Summary	List available models
//	@Produce	json
//	@Success	200	{array}	types.ModelInfo
//	@Router		/v1/models/chat [get]
//	@Router		/v1/models/embeddings [get]
func listModelsHandler(svc Service, kind registry.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.ListModels(kind))
	}
}

// listDownloadableHandler returns the curated download catalog of one kind.
//
//	@Summary	List downloadable models
//	@Produce	json
//	@Success	200	{array}	types.DownloadableModelInfo
//	@Router		/v1/models/chat/downloadable [get]
//	@Router		/v1/models/embeddings/downloadable [get]
func listDownloadableHandler(svc Service, kind registry.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.ListDownloadable(kind))
	}
}

// listLoadedHandler returns all models currently resident in memory.
//
//	@Summary	List loaded models
//	@Produce	json
//	@Success	200	{array}	types.LoadedModelInfo
//	@Router		/v1/models/loaded [get]
func listLoadedHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.ListLoaded())
	}
}

// downloadHandler starts a background download from the catalog.
//
//	@Summary	Download a model
//	@Accept		json
//	@Produce	json
//	@Param		request	body		types.DownloadRequest	true	"repository to download"
//	@Success	200		{object}	types.DownloadResponse
//	@Failure	400		{object}	types.ErrorResponse
//	@Failure	409		{object}	types.ErrorResponse
//	@Router		/v1/models/download [post]
func downloadHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.DownloadRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Repository) == "" {
			writeJSONError(w, http.StatusBadRequest, "repository is required")
			return
		}
		resp, err := svc.Download(req.Repository)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// loadHandler pre-warms a model into memory.
//
//	@Summary	Load a model into memory
//	@Accept		json
//	@Produce	json
//	@Param		request	body		types.LoadRequest	true	"model to load"
//	@Success	200		{object}	types.LoadResponse
//	@Failure	404		{object}	types.ErrorResponse
//	@Failure	503		{object}	types.ErrorResponse
//	@Router		/v1/models/load [post]
func loadHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.LoadRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Model) == "" {
			writeJSONError(w, http.StatusBadRequest, "model is required")
			return
		}
		kind, ok := parseKind(req.ModelType)
		if !ok {
			writeJSONError(w, http.StatusBadRequest, "model_type must be 'chat' or 'embedding'")
			return
		}
		ctx, cancel := requestContext(r)
		defer cancel()
		resp, err := svc.Load(ctx, req.Model, kind)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// unloadHandler evicts a resident model.
//
//	@Summary	Unload a model from memory
//	@Accept		json
//	@Produce	json
//	@Param		request	body		types.LoadRequest	true	"model to unload"
//	@Success	200		{object}	types.LoadResponse
//	@Failure	404		{object}	types.ErrorResponse
//	@Failure	409		{object}	types.ErrorResponse
//	@Router		/v1/models/unload [post]
func unloadHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.LoadRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Model) == "" {
			writeJSONError(w, http.StatusBadRequest, "model is required")
			return
		}
		kind, ok := parseKind(req.ModelType)
		if !ok {
			writeJSONError(w, http.StatusBadRequest, "model_type must be 'chat' or 'embedding'")
			return
		}
		resp, err := svc.Unload(req.Model, kind)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
