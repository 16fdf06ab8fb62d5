package inject

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/dmorgan81/backdrop/internal/config"
	"github.com/dmorgan81/backdrop/internal/handler"
	"github.com/dmorgan81/backdrop/internal/image"
	"github.com/dmorgan81/backdrop/internal/log"
	"github.com/dmorgan81/backdrop/internal/metrics"
	"github.com/dmorgan81/backdrop/internal/param"
	"github.com/samber/do"
)

const secrets = "secrets"

func Setup(ctx context.Context, cfg *config.Config) *do.Injector {
	log := log.FromContextOrDiscard(ctx)

	injector := do.NewWithOpts(&do.InjectorOpts{
		Logf: func(format string, args ...any) {
			log.Debug(fmt.Sprintf(format, args...))
		},
	})
	do.ProvideValue[*config.Config](injector, cfg)
	do.ProvideValue[*slog.Logger](injector, log)
	do.ProvideValue[*metrics.Metrics](injector, metrics.New())

	do.Provide[aws.Config](injector, func(i *do.Injector) (aws.Config, error) {
		return awsconfig.LoadDefaultConfig(ctx)
	})
	do.Provide[*ssm.Client](injector, func(i *do.Injector) (*ssm.Client, error) {
		return ssm.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})
	do.Provide[*http.Client](injector, func(i *do.Injector) (*http.Client, error) {
		return &http.Client{Timeout: cfg.UpstreamTimeout}, nil
	})

	do.Provide[param.Fetcher](injector, param.NewParameterStoreFetcher)
	do.ProvideNamed[map[string]string](injector, secrets, func(i *do.Injector) (map[string]string, error) {
		sources := cfg.Secrets()
		var fetcher param.Fetcher
		if param.NeedsFetcher(sources) {
			fetcher = do.MustInvoke[param.Fetcher](i)
		}
		return param.Resolve(ctx, fetcher, sources)
	})
	for _, name := range []string{config.GenAIKeyName, config.RemoveBGKeyName} {
		name := name
		do.ProvideNamed[string](injector, name, func(i *do.Injector) (string, error) {
			return do.MustInvokeNamed[map[string]string](i, secrets)[name], nil
		})
	}

	do.Provide[image.Editor](injector, image.NewGeminiEditor)
	do.Provide[image.Generator](injector, image.NewImagenGenerator)
	do.Provide[image.Remover](injector, image.NewRemoveBGRemover)

	do.Provide[*handler.EffectHandler](injector, handler.NewEffectHandler)
	do.Provide[*handler.BackgroundHandler](injector, handler.NewBackgroundHandler)
	do.Provide[*handler.RemoveHandler](injector, handler.NewRemoveHandler)
	do.Provide[http.Handler](injector, handler.NewRouter)

	return injector
}
