package image

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/dmorgan81/backdrop/internal/config"
	"github.com/dmorgan81/backdrop/internal/log"
	"github.com/dmorgan81/backdrop/internal/metrics"
	"github.com/samber/do"
	"github.com/samber/lo"
)

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		ResponseModalities []string `json:"responseModalities"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type GeminiEditor struct {
	google
	Model string
}

func NewGeminiEditor(i *do.Injector) (Editor, error) {
	cfg := do.MustInvoke[*config.Config](i)
	client := do.MustInvoke[*metrics.Metrics](i).Client("gemini", do.MustInvoke[*http.Client](i))
	return &GeminiEditor{
		google: google{
			client:  client,
			baseURL: cfg.GenAIBaseURL,
			key:     do.MustInvokeNamed[string](i, config.GenAIKeyName),
		},
		Model: cfg.EditModel,
	}, nil
}

func (e *GeminiEditor) SubmitEdit(ctx context.Context, req EditRequest) (*Reply, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("gemini").With("model", e.Model, "mimeType", req.MimeType, "bytes", len(req.Image))
	log.Info("editing image via generateContent")

	var payload geminiRequest
	payload.Contents = []geminiContent{{
		Parts: []geminiPart{
			{Text: req.Prompt},
			{InlineData: &inlineData{MimeType: req.MimeType, Data: base64.StdEncoding.EncodeToString(req.Image)}},
		},
	}}
	payload.GenerationConfig.ResponseModalities = []string{"IMAGE"}

	reply, err := e.post(ctx, e.Model, "generateContent", payload)
	if err != nil {
		return nil, err
	}
	log.Info("received reply via generateContent", "status", reply.StatusCode)
	return reply, nil
}

// FirstInlineImage returns the base64 data of the first inline-data part of
// the first candidate, or "" when there is none.
func FirstInlineImage(body []byte) (string, error) {
	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 {
		return "", nil
	}
	part, _ := lo.Find(resp.Candidates[0].Content.Parts, func(p geminiPart) bool {
		return p.InlineData != nil
	})
	if part.InlineData == nil {
		return "", nil
	}
	return part.InlineData.Data, nil
}
