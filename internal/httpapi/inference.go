package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"inferd/pkg/types"
)

// chatCompletionsHandler serves OpenAI-compatible chat completions.
//
//	@Summary	Create a chat completion
//	@Accept		json
//	@Produce	json
//	@Param		request	body		types.ChatCompletionRequest	true	"chat completion request"
//	@Success	200		{object}	types.ChatCompletionResponse
//	@Failure	400		{object}	types.ErrorResponse
//	@Failure	404		{object}	types.ErrorResponse
//	@Failure	504		{object}	types.ErrorResponse
//	@Router		/v1/chat/completions [post]
func chatCompletionsHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ChatCompletionRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Model) == "" {
			writeJSONError(w, http.StatusBadRequest, "model is required")
			return
		}
		if len(req.Messages) == 0 {
			writeJSONError(w, http.StatusBadRequest, "messages must not be empty")
			return
		}
		if req.Stream {
			writeJSONError(w, http.StatusBadRequest, "streaming is not supported")
			return
		}

		ctx, cancel := requestContext(r)
		defer cancel()

		start := time.Now()
		resp, err := svc.ChatCompletion(ctx, req)
		if err != nil {
			// Client disconnect or shutdown: nothing useful to write.
			if clientGone(r) {
				return
			}
			logRequestEnd(r, "chat completion", req.Model, errorStatus(err), start, err)
			writeError(w, err)
			return
		}
		ObserveGeneration(req.Model, time.Since(start))
		logRequestEnd(r, "chat completion", req.Model, http.StatusOK, start, nil)
		writeJSON(w, http.StatusOK, resp)
	}
}

// embeddingsHandler serves OpenAI-compatible embeddings.
//
//	@Summary	Create embeddings
//	@Accept		json
//	@Produce	json
//	@Param		request	body		types.EmbeddingRequest	true	"embedding request"
//	@Success	200		{object}	types.EmbeddingResponse
//	@Failure	400		{object}	types.ErrorResponse
//	@Failure	404		{object}	types.ErrorResponse
//	@Router		/v1/embeddings [post]
func embeddingsHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.EmbeddingRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Model) == "" {
			writeJSONError(w, http.StatusBadRequest, "model is required")
			return
		}
		if len(req.Input) == 0 {
			writeJSONError(w, http.StatusBadRequest, "input must not be empty")
			return
		}
		if req.EncodingFormat != "" && req.EncodingFormat != "float" {
			writeJSONError(w, http.StatusBadRequest, "encoding_format must be 'float'")
			return
		}

		ctx, cancel := requestContext(r)
		defer cancel()

		start := time.Now()
		resp, err := svc.Embeddings(ctx, req)
		if err != nil {
			if clientGone(r) {
				return
			}
			logRequestEnd(r, "embeddings", req.Model, errorStatus(err), start, err)
			writeError(w, err)
			return
		}
		logRequestEnd(r, "embeddings", req.Model, http.StatusOK, start, nil)
		writeJSON(w, http.StatusOK, resp)
	}
}

func logRequestEnd(r *http.Request, op, model string, status int, start time.Time, err error) {
	if zlog == nil {
		return
	}
	z := zlog.Info().
		Str("op", op).
		Str("model", model).
		Int("status", status).
		Dur("dur", time.Since(start))
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		z = z.Str("request_id", rid)
	}
	if err != nil {
		z = z.Err(err)
	}
	z.Msg(op + " end")
}
