package image

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Reply is a provider's raw answer. Non-2xx replies are returned as data
// rather than errors so callers decide how much of them to relay.
type Reply struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

func (r *Reply) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

type EditRequest struct {
	Prompt   string
	MimeType string
	Image    []byte
}

type GenerateRequest struct {
	Prompt string
}

type RemovalRequest struct {
	Filename string
	Image    []byte
}

type Editor interface {
	SubmitEdit(context.Context, EditRequest) (*Reply, error)
}

type Generator interface {
	SubmitGeneration(context.Context, GenerateRequest) (*Reply, error)
}

type Remover interface {
	SubmitRemoval(context.Context, RemovalRequest) (*Reply, error)
}

func send(client *http.Client, req *http.Request) (*Reply, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", req.URL.Host, err)
	}
	return &Reply{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
