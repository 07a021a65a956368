// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

// Package mail delivers transactional email over SMTP.
package mail

import (
	"context"
	_ "embed"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/oops"
	gomail "github.com/wneessen/go-mail"

	"github.com/accountd/accountd/internal/account"
)

//go:embed reset_email.html.tmpl
var resetEmailSrc string

var resetEmailTmpl = template.Must(template.New("reset_email").Parse(resetEmailSrc))

// Config holds SMTP connection settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// dialer is the subset of gomail.Client the sender needs.
type dialer interface {
	DialAndSendWithContext(ctx context.Context, msgs ...*gomail.Msg) error
}

// SMTPSender sends password reset email through an SMTP relay.
// It implements account.ResetSender.
type SMTPSender struct {
	client dialer
	from   string
	logger *slog.Logger
}

// NewSMTPSender creates a sender connected to the relay described by cfg.
func NewSMTPSender(cfg Config, logger *slog.Logger) (*SMTPSender, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, oops.Code(account.CodeInvalidInput).Errorf("smtp host is required")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, oops.Code(account.CodeInvalidInput).Errorf("smtp from address is required")
	}

	opts := []gomail.Option{
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if cfg.Port != 0 {
		opts = append(opts, gomail.WithPort(cfg.Port))
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}
	if cfg.Timeout > 0 {
		opts = append(opts, gomail.WithTimeout(cfg.Timeout))
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, oops.Code(account.CodeDeliveryFailed).
			With("host", cfg.Host).
			Wrapf(err, "create smtp client")
	}

	return &SMTPSender{client: client, from: cfg.From, logger: logger}, nil
}

// SendPasswordReset emails the reset link to toEmail. The link is valid
// for a limited time; the body says so rather than embedding the TTL,
// which only the token knows.
func (s *SMTPSender) SendPasswordReset(ctx context.Context, toEmail, resetLink string) error {
	body, err := renderResetBody(resetLink)
	if err != nil {
		return oops.Code(account.CodeDeliveryFailed).
			With("operation", "render reset email").
			Wrap(err)
	}

	msg := gomail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return oops.Code(account.CodeDeliveryFailed).
			With("from", s.from).
			Wrapf(err, "set from address")
	}
	if err := msg.To(toEmail); err != nil {
		return oops.Code(account.CodeDeliveryFailed).
			With("to", toEmail).
			Wrapf(err, "set to address")
	}
	msg.Subject("Reset your password")
	msg.SetBodyString(gomail.TypeTextHTML, body)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return oops.Code(account.CodeDeliveryFailed).
			With("to", toEmail).
			Wrapf(err, "send reset email")
	}

	s.logger.InfoContext(ctx, "password reset email sent", "to", toEmail)
	return nil
}

func renderResetBody(resetLink string) (string, error) {
	var sb strings.Builder
	if err := resetEmailTmpl.Execute(&sb, struct{ ResetLink string }{ResetLink: resetLink}); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Compile-time interface check.
var _ account.ResetSender = (*SMTPSender)(nil)
