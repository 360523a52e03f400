package authcore

import (
	"github.com/contentpilot/authcore/app"
	"github.com/contentpilot/authcore/config"
)

type App = app.App

type Builder = app.AppBuilder

func New() *Builder {
	return app.NewApp()
}

func WithConfig(cfg *config.Config) *Builder {
	return app.NewApp().WithConfig(cfg)
}
