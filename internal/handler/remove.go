package handler

import (
	"net/http"

	"github.com/dmorgan81/backdrop/internal/config"
	"github.com/dmorgan81/backdrop/internal/image"
	"github.com/dmorgan81/backdrop/internal/log"
	"github.com/samber/do"
	"github.com/samber/lo"
)

type RemoveHandler struct {
	remover   image.Remover
	maxUpload int64
}

func NewRemoveHandler(i *do.Injector) (*RemoveHandler, error) {
	return &RemoveHandler{
		remover:   do.MustInvoke[image.Remover](i),
		maxUpload: do.MustInvoke[*config.Config](i).MaxUploadBytes,
	}, nil
}

func (h *RemoveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	log := log.FromContextOrDiscard(r.Context()).WithGroup("RemoveHandler")
	log.Info("handling remove-background request")

	const missing = "No image file uploaded."
	if err := parseForm(w, r, h.maxUpload); err != nil {
		formError(w, r, err, missing)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	img, err := formFile(r, "image_file")
	if err != nil {
		internalError(w, r, err)
		return
	}
	if img == nil {
		writeError(w, http.StatusBadRequest, missing)
		return
	}

	reply, err := h.remover.SubmitRemoval(r.Context(), image.RemovalRequest{
		Filename: img.Filename,
		Image:    img.Data,
	})
	if err != nil {
		internalError(w, r, err)
		return
	}
	if !reply.OK() {
		log.Error("remove.bg API error", "status", reply.StatusCode, "body", snippet(reply.Body))
		writeRaw(w, reply.StatusCode, lo.Ternary(reply.ContentType != "", reply.ContentType, "application/json"), reply.Body)
		return
	}

	writeRaw(w, http.StatusOK, "image/png", reply.Body)
}
