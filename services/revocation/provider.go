package revocation

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/contentpilot/authcore/config"
	jwtservice "github.com/contentpilot/authcore/services/jwt"
	"github.com/contentpilot/authcore/services/logging"
)

func ProvideStore(cfg *config.Config) (Store, error) {
	switch cfg.Revocation.Store {
	case "memory":
		return NewMemoryStore(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Revocation.RedisAddr,
			Password: cfg.Revocation.RedisPassword,
			DB:       cfg.Revocation.RedisDB,
		})
		return NewRedisStore(client, cfg.Revocation.KeyPrefix), nil
	default:
		return nil, fmt.Errorf("unsupported revocation store: %s", cfg.Revocation.Store)
	}
}

func ProvideService(cfg *config.Config, store Store, db *gorm.DB, logger *logging.Service) *Service {
	return NewService(cfg, store, db, logger)
}

// ProvideRegistry exposes the service as the jwt package's verification
// hook; jwt.WireRegistry picks it up.
func ProvideRegistry(service *Service) jwtservice.Registry {
	return service
}

func StartCleanup(cfg *config.Config, service *Service) {
	service.StartCleanupWorker(cfg.Revocation.CleanupPeriod)
}

var Module = fx.Options(
	fx.Provide(ProvideStore),
	fx.Provide(ProvideService),
	fx.Provide(ProvideRegistry),
	fx.Invoke(StartCleanup),
)
