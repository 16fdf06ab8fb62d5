package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/dmorgan81/backdrop/internal/image"
)

var jpegPart = filePart{field: "image_file", filename: "photo.jpg", contentType: "image/jpeg", data: []byte("\xff\xd8\xff\xe0jpeg-bytes")}

func TestEffectHandlerSuccess(t *testing.T) {
	editor := &fakeEditor{reply: &image.Reply{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"candidates":[{"content":{"parts":[{"text":"done"},{"inlineData":{"mimeType":"image/png","data":"RURJVEVE"}}]}}]}`),
	}}
	h := &EffectHandler{editor: editor, maxUpload: 1 << 20}

	rec := serve(h, multipartRequest(t, map[string]string{"prompt": "make it vintage"}, jpegPart))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	var out map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out["base64Data"] != "RURJVEVE" {
		t.Errorf("base64Data = %q", out["base64Data"])
	}

	if len(editor.calls) != 1 {
		t.Fatalf("calls = %d", len(editor.calls))
	}
	call := editor.calls[0]
	if call.Prompt != "make it vintage" || call.MimeType != "image/jpeg" || string(call.Image) != string(jpegPart.data) {
		t.Errorf("unexpected edit request: %+v", call)
	}
}

func TestEffectHandlerMissingFields(t *testing.T) {
	tests := map[string]*http.Request{
		"no prompt": multipartRequest(t, nil, jpegPart),
		"no image":  multipartRequest(t, map[string]string{"prompt": "p"}),
		"empty file": multipartRequest(t, map[string]string{"prompt": "p"},
			filePart{field: "image_file", filename: "empty.png", contentType: "image/png"}),
		"empty prompt": multipartRequest(t, map[string]string{"prompt": ""}, jpegPart),
	}
	notMultipart, _ := http.NewRequest(http.MethodPost, "/", strings.NewReader(`{"prompt":"p"}`))
	notMultipart.Header.Set("Content-Type", "application/json")
	tests["not multipart"] = notMultipart

	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			editor := &fakeEditor{}
			rec := serve(&EffectHandler{editor: editor, maxUpload: 1 << 20}, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), "Image file and prompt are required.") {
				t.Errorf("body = %s", rec.Body)
			}
			if len(editor.calls) != 0 {
				t.Errorf("editor called")
			}
		})
	}
}

func TestEffectHandlerNoImageInReply(t *testing.T) {
	editor := &fakeEditor{reply: &image.Reply{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"candidates":[{"content":{"parts":[{"text":"I can't help with that."}]},"finishReason":"SAFETY"}]}`),
	}}
	rec := serve(&EffectHandler{editor: editor, maxUpload: 1 << 20}, multipartRequest(t, map[string]string{"prompt": "p"}, jpegPart))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "blocked for safety reasons") {
		t.Errorf("body = %s", rec.Body)
	}
}

func TestEffectHandlerProviderError(t *testing.T) {
	editor := &fakeEditor{reply: &image.Reply{
		StatusCode: http.StatusForbidden,
		Body:       []byte(`{"error":{"message":"internal provider detail"}}`),
	}}
	rec := serve(&EffectHandler{editor: editor, maxUpload: 1 << 20}, multipartRequest(t, map[string]string{"prompt": "p"}, jpegPart))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, genericProviderError) || strings.Contains(body, "internal provider detail") {
		t.Errorf("body = %s", body)
	}
}

func TestEffectHandlerUnexpectedError(t *testing.T) {
	editor := &fakeEditor{err: errors.New("dial tcp: connection refused")}
	rec := serve(&EffectHandler{editor: editor, maxUpload: 1 << 20}, multipartRequest(t, map[string]string{"prompt": "p"}, jpegPart))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var out errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Error != "Internal Server Error" || out.Details != "dial tcp: connection refused" {
		t.Errorf("body = %+v", out)
	}
}

func TestEffectHandlerTooLarge(t *testing.T) {
	big := filePart{field: "image_file", filename: "big.png", contentType: "image/png", data: make([]byte, 4096)}
	editor := &fakeEditor{}
	rec := serve(&EffectHandler{editor: editor, maxUpload: 1024}, multipartRequest(t, map[string]string{"prompt": "p"}, big))

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	if len(editor.calls) != 0 {
		t.Errorf("editor called")
	}
}
