package serve

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/dmorgan81/backdrop/internal/log"
	"github.com/samber/lo"
)

// FunctionURLHandler runs an http.Handler behind a Lambda Function URL.
type FunctionURLHandler struct {
	handler http.Handler
}

func NewFunctionURLHandler(h http.Handler) *FunctionURLHandler {
	return &FunctionURLHandler{handler: h}
}

func (f *FunctionURLHandler) Handle(ctx context.Context, event events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("FunctionURLHandler").With("requestId", event.RequestContext.RequestID)
	log.Info("handling lambda invocation", "method", event.RequestContext.HTTP.Method, "path", event.RawPath)

	req, err := toRequest(ctx, event)
	if err != nil {
		return events.LambdaFunctionURLResponse{}, err
	}

	w := newResponseBuffer()
	f.handler.ServeHTTP(w, req)
	return w.toResponse(), nil
}

func toRequest(ctx context.Context, event events.LambdaFunctionURLRequest) (*http.Request, error) {
	body := []byte(event.Body)
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return nil, fmt.Errorf("decoding request body: %w", err)
		}
		body = decoded
	}

	target := lo.Ternary(event.RawPath != "", event.RawPath, "/")
	if event.RawQueryString != "" {
		target += "?" + event.RawQueryString
	}

	req, err := http.NewRequestWithContext(ctx, event.RequestContext.HTTP.Method, target, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for k, v := range event.Headers {
		req.Header.Set(k, v)
	}
	if len(event.Cookies) > 0 {
		req.Header.Set("Cookie", strings.Join(event.Cookies, "; "))
	}
	req.Host = lo.Ternary(req.Header.Get("Host") != "", req.Header.Get("Host"), event.RequestContext.DomainName)
	req.RemoteAddr = event.RequestContext.HTTP.SourceIP
	req.RequestURI = target
	return req, nil
}

type responseBuffer struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newResponseBuffer() *responseBuffer {
	return &responseBuffer{header: http.Header{}}
}

func (b *responseBuffer) Header() http.Header {
	return b.header
}

func (b *responseBuffer) WriteHeader(status int) {
	if b.status == 0 {
		b.status = status
	}
}

func (b *responseBuffer) Write(p []byte) (int, error) {
	b.WriteHeader(http.StatusOK)
	return b.body.Write(p)
}

func (b *responseBuffer) toResponse() events.LambdaFunctionURLResponse {
	resp := events.LambdaFunctionURLResponse{
		StatusCode: lo.Ternary(b.status != 0, b.status, http.StatusOK),
		Headers:    map[string]string{},
		Cookies:    b.header.Values("Set-Cookie"),
	}
	for k, v := range b.header {
		if k != "Set-Cookie" {
			resp.Headers[k] = strings.Join(v, ",")
		}
	}

	if textual(b.header.Get("Content-Type")) {
		resp.Body = b.body.String()
	} else {
		resp.Body = base64.StdEncoding.EncodeToString(b.body.Bytes())
		resp.IsBase64Encoded = true
	}
	return resp
}

// textual reports whether a body of this content type survives as a JSON
// string. Everything else goes out base64 encoded.
func textual(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "text/") ||
		strings.HasSuffix(mediaType, "json") ||
		strings.HasSuffix(mediaType, "xml")
}
