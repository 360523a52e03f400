package mail

import (
	"bytes"
	"errors"
	"fmt"
	"text/template"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/contentpilot/authcore/config"
	"github.com/contentpilot/authcore/services/logging"
)

var ErrMailDisabled = errors.New("mail delivery is disabled")

const passwordResetSubject = "Reset your password"

const passwordResetBody = `Hello,

A password reset was requested for your account. Open the link below to
choose a new password:

{{.ResetURL}}

The link expires in {{.Expiry}}. If you did not request this, you can
ignore this email; your password has not been changed.
`

var passwordResetTemplate = template.Must(template.New("password_reset").Parse(passwordResetBody))

type Service struct {
	config *config.MailConfig
	client *mail.Client
	logger *logging.Service
}

func NewService(cfg *config.MailConfig, logger *logging.Service) (*Service, error) {
	if !cfg.Enabled {
		if logger != nil {
			logger.Info("mail service disabled, emails will not be sent")
		}
		return &Service{config: cfg, logger: logger}, nil
	}

	if cfg.FromAddress == "" {
		return nil, fmt.Errorf("MAIL_FROM_ADDRESS is required")
	}

	clientOpts := []mail.Option{
		mail.WithPort(cfg.Port),
	}

	switch cfg.Encryption {
	case "ssl":
		clientOpts = append(clientOpts, mail.WithSSL())
	case "none":
		clientOpts = append(clientOpts, mail.WithTLSPortPolicy(mail.NoTLS))
	default:
		clientOpts = append(clientOpts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}

	if cfg.Username != "" {
		clientOpts = append(clientOpts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username))
	}
	if cfg.Password != "" {
		clientOpts = append(clientOpts, mail.WithPassword(cfg.Password))
	}

	client, err := mail.NewClient(cfg.Host, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}

	if logger != nil {
		logger.Info("mail service initialized",
			zap.String("host", cfg.Host),
			zap.Int("port", cfg.Port),
			zap.String("encryption", cfg.Encryption),
			zap.String("from_address", cfg.FromAddress))
	}

	return &Service{
		config: cfg,
		client: client,
		logger: logger,
	}, nil
}

func (s *Service) Enabled() bool {
	return s.client != nil
}

func (s *Service) newMessage() (*mail.Msg, error) {
	message := mail.NewMsg()

	fromAddr := s.config.FromAddress
	if s.config.FromName != "" {
		fromAddr = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromAddress)
	}

	if err := message.From(fromAddr); err != nil {
		return nil, fmt.Errorf("failed to set FROM address: %w", err)
	}
	return message, nil
}

func (s *Service) SendPlain(to string, subject, body string) error {
	if !s.Enabled() {
		return ErrMailDisabled
	}

	message, err := s.newMessage()
	if err != nil {
		return err
	}
	if err := message.To(to); err != nil {
		return fmt.Errorf("failed to set TO address: %w", err)
	}
	message.Subject(subject)
	message.SetBodyString(mail.TypeTextPlain, body)

	startTime := time.Now()
	if err := s.client.DialAndSend(message); err != nil {
		if s.logger != nil {
			s.logger.Error("failed to send email",
				zap.Error(err),
				zap.Duration("attempt_duration", time.Since(startTime)))
		}
		return fmt.Errorf("failed to send email: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("email sent",
			zap.String("subject", subject),
			zap.Duration("send_duration", time.Since(startTime)))
	}
	return nil
}

// SendPasswordReset delivers a reset link valid for the given duration.
func (s *Service) SendPasswordReset(to string, resetURL string, expiry time.Duration) error {
	body, err := RenderPasswordReset(resetURL, expiry)
	if err != nil {
		return err
	}
	return s.SendPlain(to, passwordResetSubject, body)
}

func RenderPasswordReset(resetURL string, expiry time.Duration) (string, error) {
	var buf bytes.Buffer
	err := passwordResetTemplate.Execute(&buf, map[string]any{
		"ResetURL": resetURL,
		"Expiry":   expiry.String(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render password reset email: %w", err)
	}
	return buf.String(), nil
}
