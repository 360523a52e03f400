package database

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/contentpilot/authcore/config"
	"github.com/contentpilot/authcore/services/logging"
)

var Module = fx.Options(
	fx.Provide(ProvideDatabaseFx),
)

func ProvideDatabaseFx(cfg *config.Config, modelsOpt *ModelsOption, logger *logging.Service) (*gorm.DB, error) {
	return ProvideDatabase(*cfg, modelsOpt, logger)
}
