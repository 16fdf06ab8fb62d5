package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dmorgan81/backdrop/internal/config"
	"github.com/dmorgan81/backdrop/internal/image"
	"github.com/dmorgan81/backdrop/internal/log"
	"github.com/samber/do"
	"github.com/samber/lo"
)

type backgroundInput struct {
	Prompt string `json:"prompt"`
}

// BackgroundHandler generates a background from a prompt and relays the
// provider's prediction JSON untouched.
type BackgroundHandler struct {
	generator image.Generator
	maxBody   int64
}

func NewBackgroundHandler(i *do.Injector) (*BackgroundHandler, error) {
	return &BackgroundHandler{
		generator: do.MustInvoke[image.Generator](i),
		maxBody:   do.MustInvoke[*config.Config](i).MaxUploadBytes,
	}, nil
}

func (h *BackgroundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var input backgroundInput
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBody)).Decode(&input)
	switch {
	case err == nil, errors.Is(err, io.EOF):
	case tooLarge(err):
		writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	default:
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	log := log.FromContextOrDiscard(r.Context()).WithGroup("BackgroundHandler").With("input", input)
	log.Info("handling generate-background request")

	if input.Prompt == "" {
		writeError(w, http.StatusBadRequest, "Prompt is required")
		return
	}

	reply, err := h.generator.SubmitGeneration(r.Context(), image.GenerateRequest{Prompt: input.Prompt})
	if err != nil {
		internalError(w, r, err)
		return
	}
	if !reply.OK() {
		log.Error("API error response", "status", reply.StatusCode, "body", snippet(reply.Body))
		msg := image.ErrorMessage(reply.Body)
		writeError(w, reply.StatusCode, lo.Ternary(msg != "", msg, genericProviderError))
		return
	}
	if !json.Valid(reply.Body) {
		internalError(w, r, errors.New("provider returned a non-JSON success body"))
		return
	}

	writeRaw(w, http.StatusOK, "application/json", reply.Body)
}
