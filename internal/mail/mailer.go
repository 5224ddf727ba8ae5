// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

// Package mail delivers account lifecycle emails over SMTP.
package mail

import (
	"context"
	"fmt"
	"strings"

	gomail "github.com/wneessen/go-mail"

	"github.com/samber/oops"

	"github.com/keygate/keygate/internal/account"
)

// Config holds SMTP and link-building settings, read once at startup.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string

	// FrontendBaseURL is the base for the links embedded in emails,
	// e.g. "https://app.example.com".
	FrontendBaseURL string
}

// Validate checks that the configuration is complete.
func (c Config) Validate() error {
	if c.Host == "" {
		return oops.Code("MAIL_INVALID_CONFIG").Errorf("smtp host is required")
	}
	if c.From == "" {
		return oops.Code("MAIL_INVALID_CONFIG").Errorf("from address is required")
	}
	if c.FrontendBaseURL == "" {
		return oops.Code("MAIL_INVALID_CONFIG").Errorf("frontend base url is required")
	}
	return nil
}

// VerificationLink builds the email-verification link for a token.
func VerificationLink(frontendBase, token string) string {
	return fmt.Sprintf("%s/verify-email?%s", strings.TrimRight(frontendBase, "/"), token)
}

// ResetLink builds the password-reset link for a token.
func ResetLink(frontendBase, token string) string {
	return fmt.Sprintf("%s/updatePassword/%s", strings.TrimRight(frontendBase, "/"), token)
}

// SMTPNotifier implements account.Notifier over an SMTP relay.
type SMTPNotifier struct {
	client       *gomail.Client
	from         string
	frontendBase string
}

// NewSMTPNotifier creates an SMTPNotifier. Implicit TLS is used on port
// 465, STARTTLS otherwise.
func NewSMTPNotifier(cfg Config) (*SMTPNotifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthLogin),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}
	if cfg.Port == 465 {
		opts = append(opts, gomail.WithSSL())
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, oops.Code("MAIL_CLIENT_FAILED").
			With("host", cfg.Host).
			Wrap(err)
	}

	return &SMTPNotifier{
		client:       client,
		from:         cfg.From,
		frontendBase: cfg.FrontendBaseURL,
	}, nil
}

// SendVerification delivers the email-verification link for a new account.
func (n *SMTPNotifier) SendVerification(ctx context.Context, acct *account.Account, token string) error {
	link := VerificationLink(n.frontendBase, token)
	body := fmt.Sprintf(`<p>Click <a href="%s">here</a> to verify your email.</p>`, link)
	return n.send(ctx, acct.Email, "Verify Your Email", body)
}

// SendPasswordReset delivers the password-reset link.
func (n *SMTPNotifier) SendPasswordReset(ctx context.Context, acct *account.Account, token string) error {
	link := ResetLink(n.frontendBase, token)
	body := fmt.Sprintf(`<p>Click <a href="%s">here</a> to reset your password.</p>`, link)
	return n.send(ctx, acct.Email, "Update to Password", body)
}

func (n *SMTPNotifier) send(ctx context.Context, to, subject, htmlBody string) error {
	msg := gomail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return oops.Code("MAIL_SEND_FAILED").With("operation", "set from").Wrap(err)
	}
	if err := msg.To(to); err != nil {
		return oops.Code("MAIL_SEND_FAILED").With("operation", "set to").Wrap(err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlBody)

	if err := n.client.DialAndSendWithContext(ctx, msg); err != nil {
		return oops.Code("MAIL_SEND_FAILED").
			With("operation", "dial and send").
			With("subject", subject).
			Wrap(err)
	}
	return nil
}

// Compile-time interface check.
var _ account.Notifier = (*SMTPNotifier)(nil)
