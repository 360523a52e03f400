package app

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/contentpilot/authcore/config"
	"github.com/contentpilot/authcore/database"
	"github.com/contentpilot/authcore/services/audit"
	"github.com/contentpilot/authcore/services/auth"
	"github.com/contentpilot/authcore/services/jwt"
	"github.com/contentpilot/authcore/services/logging"
	"github.com/contentpilot/authcore/services/mail"
	"github.com/contentpilot/authcore/services/mfa"
	"github.com/contentpilot/authcore/services/password"
	"github.com/contentpilot/authcore/services/refreshtoken"
	"github.com/contentpilot/authcore/services/revocation"
)

// AppBuilder assembles the engine's fx graph. The core services are always
// wired; mail, audit and a host SettingsProvider are opt-in, though
// registration stays closed until a SettingsProvider is supplied.
type AppBuilder struct {
	config    *config.Config
	models    []any
	fxOptions []fx.Option
	withMail  bool
	withAudit bool
	settings  auth.SettingsProvider
	errors    []string
}

func NewApp() *AppBuilder {
	return &AppBuilder{
		models:    make([]any, 0),
		fxOptions: make([]fx.Option, 0),
	}
}

func (b *AppBuilder) WithConfig(cfg *config.Config) *AppBuilder {
	if cfg == nil {
		b.errors = append(b.errors, "config cannot be nil")
		return b
	}
	b.config = cfg
	return b
}

// WithAutoConfig loads configuration from the environment and .env.
func (b *AppBuilder) WithAutoConfig() *AppBuilder {
	cfg := &config.Config{}
	if err := config.LoadConfig(cfg); err != nil {
		b.errors = append(b.errors, fmt.Sprintf("failed to load config: %v", err))
		return b
	}
	b.config = cfg
	return b
}

// WithModels registers additional host models for auto-migration alongside
// the engine's own tables.
func (b *AppBuilder) WithModels(models ...any) *AppBuilder {
	b.models = append(b.models, models...)
	return b
}

func (b *AppBuilder) WithMail() *AppBuilder {
	b.withMail = true
	return b
}

func (b *AppBuilder) WithAudit() *AppBuilder {
	b.withAudit = true
	return b
}

func (b *AppBuilder) WithSettings(settings auth.SettingsProvider) *AppBuilder {
	b.settings = settings
	return b
}

func (b *AppBuilder) WithFxOptions(opts ...fx.Option) *AppBuilder {
	b.fxOptions = append(b.fxOptions, opts...)
	return b
}

func (b *AppBuilder) Build() (*App, error) {
	if b.config == nil {
		b.WithAutoConfig()
	}
	if len(b.errors) > 0 {
		return nil, errors.New("builder errors: " + strings.Join(b.errors, "; "))
	}
	if err := b.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	app := &App{config: b.config}

	models := append([]any{
		&auth.User{},
		&refreshtoken.RefreshToken{},
		&revocation.UserTokenVersion{},
	}, b.models...)

	options := []fx.Option{
		config.NewProvider(b.config),
		fx.Supply(database.WithModels(models...)),
		logging.Module,
		database.Module,
		password.Module,
		jwt.Module,
		revocation.Module,
		refreshtoken.Module,
		mfa.Module,
		auth.Module,
	}

	if b.withMail {
		options = append(options, mail.Module)
	}
	if b.withAudit {
		options = append(options, audit.Module)
	}
	if b.settings != nil {
		options = append(options, fx.Supply(fx.Annotate(b.settings, fx.As(new(auth.SettingsProvider)))))
	}

	options = append(options, b.fxOptions...)
	options = append(options, fx.Invoke(func(
		logger *logging.Service,
		db *gorm.DB,
		authSvc *auth.Service,
		tokens *jwt.Service,
	) {
		app.logger = logger
		app.db = db
		app.auth = authSvc
		app.tokens = tokens
	}))

	app.fx = fx.New(options...)
	if err := app.fx.Err(); err != nil {
		return nil, err
	}

	return app, nil
}
