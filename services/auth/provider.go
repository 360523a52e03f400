package auth

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/contentpilot/authcore/config"
	"github.com/contentpilot/authcore/services/audit"
	jwtservice "github.com/contentpilot/authcore/services/jwt"
	"github.com/contentpilot/authcore/services/logging"
	"github.com/contentpilot/authcore/services/mail"
	"github.com/contentpilot/authcore/services/mfa"
	"github.com/contentpilot/authcore/services/password"
	"github.com/contentpilot/authcore/services/refreshtoken"
	"github.com/contentpilot/authcore/services/revocation"
)

func ProvideUserStore(db *gorm.DB) UserStore {
	return NewGormUserStore(db)
}

type ServiceParams struct {
	fx.In

	Config        *config.Config
	Logger        *logging.Service
	Users         UserStore
	Passwords     *password.Service
	Tokens        *jwtservice.Service
	Revocations   *revocation.Service
	RefreshTokens *refreshtoken.Service
	MFA           *mfa.Service
	Audit         *audit.Service        `optional:"true"`
	Mail          *mail.Service         `optional:"true"`
	Settings      SettingsProvider      `optional:"true"`
}

func ProvideAuthService(p ServiceParams) *Service {
	var mailer Mailer
	if p.Mail != nil && p.Mail.Enabled() {
		mailer = p.Mail
	}

	return NewService(
		p.Config,
		p.Logger,
		p.Users,
		p.Passwords,
		p.Tokens,
		p.Revocations,
		p.RefreshTokens,
		p.MFA,
		p.Audit,
		mailer,
		p.Settings,
	)
}

var Module = fx.Options(
	fx.Provide(ProvideUserStore),
	fx.Provide(ProvideAuthService),
)
