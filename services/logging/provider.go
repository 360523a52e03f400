package logging

import (
	"context"

	"go.uber.org/fx"

	"github.com/contentpilot/authcore/config"
)

func ProvideLogging(cfg *config.Config) (*Service, error) {
	return NewService(cfg.Log)
}

func RegisterSync(lc fx.Lifecycle, svc *Service) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = svc.Sync()
			return nil
		},
	})
}

var Module = fx.Options(
	fx.Provide(ProvideLogging),
	fx.Invoke(RegisterSync),
)
