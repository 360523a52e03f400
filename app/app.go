package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/contentpilot/authcore/config"
	"github.com/contentpilot/authcore/services/auth"
	"github.com/contentpilot/authcore/services/jwt"
	"github.com/contentpilot/authcore/services/logging"
)

// App is an assembled authentication engine. Hosts embed it and reach the
// orchestrator and token services through the accessors.
type App struct {
	fx     *fx.App
	config *config.Config
	logger *logging.Service
	db     *gorm.DB
	auth   *auth.Service
	tokens *jwt.Service
}

func (a *App) Start() error {
	return a.fx.Start(context.Background())
}

// Run starts the app and blocks until SIGINT or SIGTERM.
func (a *App) Run() {
	if err := a.Start(); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	if a.logger != nil {
		a.logger.Info("Received shutdown signal, stopping gracefully...")
	} else {
		log.Printf("Received signal %v, shutting down gracefully...", sig)
	}

	a.Stop()
}

func (a *App) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.fx.Stop(ctx); err != nil {
		if a.logger != nil {
			a.logger.Error("Failed to stop application gracefully")
		} else {
			log.Printf("Failed to stop application gracefully: %v", err)
		}
	}
}

func (a *App) Auth() *auth.Service {
	return a.auth
}

func (a *App) Tokens() *jwt.Service {
	return a.tokens
}

func (a *App) DB() *gorm.DB {
	return a.db
}

func (a *App) Logger() *logging.Service {
	return a.logger
}

func (a *App) Config() *config.Config {
	return a.config
}
