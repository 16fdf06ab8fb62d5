package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/dmorgan81/backdrop/internal/image"
)

type fakeEditor struct {
	reply *image.Reply
	err   error
	calls []image.EditRequest
}

func (f *fakeEditor) SubmitEdit(_ context.Context, req image.EditRequest) (*image.Reply, error) {
	f.calls = append(f.calls, req)
	return f.reply, f.err
}

type fakeGenerator struct {
	reply *image.Reply
	err   error
	calls []image.GenerateRequest
}

func (f *fakeGenerator) SubmitGeneration(_ context.Context, req image.GenerateRequest) (*image.Reply, error) {
	f.calls = append(f.calls, req)
	return f.reply, f.err
}

type fakeRemover struct {
	reply *image.Reply
	err   error
	calls []image.RemovalRequest
}

func (f *fakeRemover) SubmitRemoval(_ context.Context, req image.RemovalRequest) (*image.Reply, error) {
	f.calls = append(f.calls, req)
	return f.reply, f.err
}

type filePart struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

// multipartRequest builds a POST with the given text fields and files.
func multipartRequest(t *testing.T, fields map[string]string, files ...filePart) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	for _, f := range files {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.filename+`"`)
		if f.contentType != "" {
			header.Set("Content-Type", f.contentType)
		}
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(f.data); err != nil {
			t.Fatal(err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
