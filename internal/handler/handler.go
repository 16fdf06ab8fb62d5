package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/dmorgan81/backdrop/internal/log"
	"github.com/samber/lo"
)

// multipartMemory is how much of a multipart body is held in memory before
// the parser spills file parts to disk.
const multipartMemory = 32 << 20

const genericProviderError = "Failed to get a valid response from the AI service."

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func writeRaw(w http.ResponseWriter, status int, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// internalError logs err and answers 500 with its message attached.
func internalError(w http.ResponseWriter, r *http.Request, err error) {
	log.FromContextOrDiscard(r.Context()).Error("request failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal Server Error", Details: err.Error()})
}

// requirePost answers 405 for anything but POST.
func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodPost {
		return true
	}
	w.Header().Set("Allow", http.MethodPost)
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "Method Not Allowed"})
	return false
}

func tooLarge(err error) bool {
	var maxBytes *http.MaxBytesError
	return errors.As(err, &maxBytes) || errors.Is(err, multipart.ErrMessageTooLarge)
}

// snippet bounds provider bodies written to the log.
func snippet(body []byte) string {
	return lo.Substring(string(body), 0, 2048)
}

type upload struct {
	Filename string
	MimeType string
	Data     []byte
}

// parseForm decodes a multipart body of at most limit bytes. A missing
// field is not an error here.
func parseForm(w http.ResponseWriter, r *http.Request, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	return r.ParseMultipartForm(multipartMemory)
}

// formError answers for a body parseForm rejected. A request that is not
// multipart at all is missing its fields.
func formError(w http.ResponseWriter, r *http.Request, err error, missing string) {
	switch {
	case tooLarge(err):
		writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
	case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
		writeError(w, http.StatusBadRequest, missing)
	default:
		internalError(w, r, err)
	}
}

func formValue(r *http.Request, field string) string {
	values := r.MultipartForm.Value[field]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// formFile reads the first file uploaded under field. It returns nil when
// there is none or it is empty. Undeclared or generic part types are
// sniffed from the content.
func formFile(r *http.Request, field string) (*upload, error) {
	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, nil
	}
	fh := headers[0]

	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	mimeType := fh.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	return &upload{
		Filename: fh.Filename,
		MimeType: mimeType,
		Data:     data,
	}, nil
}
