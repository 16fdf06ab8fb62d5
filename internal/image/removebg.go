package image

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"

	"github.com/dmorgan81/backdrop/internal/config"
	"github.com/dmorgan81/backdrop/internal/log"
	"github.com/dmorgan81/backdrop/internal/metrics"
	"github.com/samber/do"
	"github.com/samber/lo"
)

type RemoveBGRemover struct {
	Client *http.Client
	URL    string
	Key    string
}

func NewRemoveBGRemover(i *do.Injector) (Remover, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return &RemoveBGRemover{
		Client: do.MustInvoke[*metrics.Metrics](i).Client("removebg", do.MustInvoke[*http.Client](i)),
		URL:    cfg.RemoveBGURL,
		Key:    do.MustInvokeNamed[string](i, config.RemoveBGKeyName),
	}, nil
}

func (r *RemoveBGRemover) SubmitRemoval(ctx context.Context, req RemovalRequest) (*Reply, error) {
	filename := lo.Ternary(req.Filename != "", req.Filename, "image")
	log := log.FromContextOrDiscard(ctx).WithGroup("removebg").With("filename", filename, "bytes", len(req.Image))
	log.Info("removing background via api.remove.bg")

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image_file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(req.Image); err != nil {
		return nil, err
	}
	if err := writer.WriteField("size", "auto"); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, &body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("X-Api-Key", r.Key)

	reply, err := send(r.Client, httpReq)
	if err != nil {
		return nil, err
	}
	log.Info("received reply via api.remove.bg", "status", reply.StatusCode)
	return reply, nil
}
