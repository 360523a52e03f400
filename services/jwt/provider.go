package jwt

import (
	"go.uber.org/fx"

	"github.com/contentpilot/authcore/config"
	"github.com/contentpilot/authcore/services/logging"
)

func ProvideJWTService(cfg *config.Config, logger *logging.Service) *Service {
	return NewService(cfg, logger)
}

type OptionalRegistry struct {
	fx.In
	Registry Registry `optional:"true"`
}

func WireRegistry(svc *Service, opt OptionalRegistry) {
	if opt.Registry != nil {
		svc.SetRegistry(opt.Registry)
	}
}

var Module = fx.Options(
	fx.Provide(ProvideJWTService),
	fx.Invoke(WireRegistry),
)
