package audit

import (
	"context"

	"go.uber.org/fx"

	"github.com/contentpilot/authcore/config"
	"github.com/contentpilot/authcore/services/logging"
)

func ProvideAuditService(cfg *config.Config, logger *logging.Service) *Service {
	return NewService(cfg, NewZapSink(logger))
}

func RegisterClose(lc fx.Lifecycle, service *Service) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			service.Close()
			return nil
		},
	})
}

var Module = fx.Options(
	fx.Provide(ProvideAuditService),
	fx.Invoke(RegisterClose),
)
