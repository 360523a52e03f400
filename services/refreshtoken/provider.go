package refreshtoken

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/contentpilot/authcore/config"
	"github.com/contentpilot/authcore/services/logging"
)

func ProvideService(db *gorm.DB, logger *logging.Service) *Service {
	return NewService(db, logger)
}

func StartCleanup(cfg *config.Config, service *Service) {
	service.StartCleanupWorker(cfg.RefreshToken.CleanupInterval)
}

var Module = fx.Options(
	fx.Provide(ProvideService),
	fx.Invoke(StartCleanup),
)
