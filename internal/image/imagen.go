package image

import (
	"context"
	"net/http"

	"github.com/dmorgan81/backdrop/internal/config"
	"github.com/dmorgan81/backdrop/internal/log"
	"github.com/dmorgan81/backdrop/internal/metrics"
	"github.com/samber/do"
)

type imagenInstance struct {
	Prompt string `json:"prompt"`
}

type imagenRequest struct {
	Instances  []imagenInstance `json:"instances"`
	Parameters struct {
		SampleCount int `json:"sampleCount"`
	} `json:"parameters"`
}

type ImagenGenerator struct {
	google
	Model string
}

func NewImagenGenerator(i *do.Injector) (Generator, error) {
	cfg := do.MustInvoke[*config.Config](i)
	client := do.MustInvoke[*metrics.Metrics](i).Client("imagen", do.MustInvoke[*http.Client](i))
	return &ImagenGenerator{
		google: google{
			client:  client,
			baseURL: cfg.GenAIBaseURL,
			key:     do.MustInvokeNamed[string](i, config.GenAIKeyName),
		},
		Model: cfg.GenerateModel,
	}, nil
}

func (g *ImagenGenerator) SubmitGeneration(ctx context.Context, req GenerateRequest) (*Reply, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("imagen").With("model", g.Model, "prompt", req.Prompt)
	log.Info("generating image via predict")

	payload := imagenRequest{Instances: []imagenInstance{{Prompt: req.Prompt}}}
	payload.Parameters.SampleCount = 1

	reply, err := g.post(ctx, g.Model, "predict", payload)
	if err != nil {
		return nil, err
	}
	log.Info("received reply via predict", "status", reply.StatusCode)
	return reply, nil
}
