package handler

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/dmorgan81/backdrop/internal/image"
)

var photoPart = filePart{field: "image_file", filename: "portrait.jpg", contentType: "image/jpeg", data: []byte("\xff\xd8\xffportrait")}

func TestRemoveHandlerSuccess(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x01\x02cutout")
	remover := &fakeRemover{reply: &image.Reply{StatusCode: http.StatusOK, ContentType: "image/png", Body: png}}

	rec := serve(&RemoveHandler{remover: remover, maxUpload: 1 << 20}, multipartRequest(t, nil, photoPart))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	if rec.Header().Get("Content-Type") != "image/png" {
		t.Errorf("Content-Type = %q", rec.Header().Get("Content-Type"))
	}
	if !bytes.Equal(rec.Body.Bytes(), png) {
		t.Errorf("body = %q", rec.Body.Bytes())
	}

	if len(remover.calls) != 1 {
		t.Fatalf("calls = %d", len(remover.calls))
	}
	if remover.calls[0].Filename != "portrait.jpg" || !bytes.Equal(remover.calls[0].Image, photoPart.data) {
		t.Errorf("unexpected removal request: %+v", remover.calls[0])
	}
}

func TestRemoveHandlerProviderError(t *testing.T) {
	const body = `{"error":"invalid key"}`
	remover := &fakeRemover{reply: &image.Reply{StatusCode: http.StatusForbidden, ContentType: "application/json", Body: []byte(body)}}

	rec := serve(&RemoveHandler{remover: remover, maxUpload: 1 << 20}, multipartRequest(t, nil, photoPart))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != body {
		t.Errorf("body = %s, want %s", rec.Body, body)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", rec.Header().Get("Content-Type"))
	}
}

func TestRemoveHandlerMissingFile(t *testing.T) {
	remover := &fakeRemover{}
	rec := serve(&RemoveHandler{remover: remover, maxUpload: 1 << 20}, multipartRequest(t, map[string]string{"size": "auto"}))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No image file uploaded.") {
		t.Errorf("body = %s", rec.Body)
	}
	if len(remover.calls) != 0 {
		t.Errorf("remover called")
	}
}

func TestRemoveHandlerUnexpectedError(t *testing.T) {
	remover := &fakeRemover{err: errors.New("connection reset by peer")}
	rec := serve(&RemoveHandler{remover: remover, maxUpload: 1 << 20}, multipartRequest(t, nil, photoPart))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "connection reset by peer") {
		t.Errorf("body = %s", rec.Body)
	}
}
