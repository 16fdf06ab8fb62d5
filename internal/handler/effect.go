package handler

import (
	"net/http"

	"github.com/dmorgan81/backdrop/internal/config"
	"github.com/dmorgan81/backdrop/internal/image"
	"github.com/dmorgan81/backdrop/internal/log"
	"github.com/samber/do"
)

type effectOutput struct {
	Base64Data string `json:"base64Data"`
}

// EffectHandler applies a text instruction to an uploaded image through the
// generative image editor.
type EffectHandler struct {
	editor    image.Editor
	maxUpload int64
}

func NewEffectHandler(i *do.Injector) (*EffectHandler, error) {
	return &EffectHandler{
		editor:    do.MustInvoke[image.Editor](i),
		maxUpload: do.MustInvoke[*config.Config](i).MaxUploadBytes,
	}, nil
}

func (h *EffectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	log := log.FromContextOrDiscard(r.Context()).WithGroup("EffectHandler")
	log.Info("handling apply-effect request")

	const missing = "Image file and prompt are required."
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
	prompt := formValue(r, "prompt")
	if img == nil || prompt == "" {
		writeError(w, http.StatusBadRequest, missing)
		return
	}

	reply, err := h.editor.SubmitEdit(r.Context(), image.EditRequest{
		Prompt:   prompt,
		MimeType: img.MimeType,
		Image:    img.Data,
	})
	if err != nil {
		internalError(w, r, err)
		return
	}
	if !reply.OK() {
		log.Error("AI effect API error", "status", reply.StatusCode, "body", snippet(reply.Body))
		writeError(w, reply.StatusCode, genericProviderError)
		return
	}

	data, err := image.FirstInlineImage(reply.Body)
	if err != nil {
		internalError(w, r, err)
		return
	}
	if data == "" {
		log.Error("no image data in AI response", "body", snippet(reply.Body))
		writeError(w, http.StatusInternalServerError, "AI did not return an image. It might have been blocked for safety reasons.")
		return
	}

	writeJSON(w, http.StatusOK, effectOutput{Base64Data: data})
}
