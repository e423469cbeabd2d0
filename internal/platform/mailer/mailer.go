// Package mailer delivers password reset links.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	portssvc "github.com/SscSPs/referral_vault/internal/core/ports/services"
	"github.com/SscSPs/referral_vault/internal/middleware"
	"github.com/SscSPs/referral_vault/internal/platform/config"
)

const resetSubject = "Reset your Referral Vault password"

// sendFunc matches smtp.SendMail.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier sends reset links through an SMTP relay.
type SMTPNotifier struct {
	cfg  config.SMTPConfig
	send sendFunc
}

var _ portssvc.ResetNotifier = (*SMTPNotifier)(nil)

func NewSMTPNotifier(cfg config.SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, send: smtp.SendMail}
}

func (n *SMTPNotifier) SendPasswordReset(ctx context.Context, toEmail, resetURL string) error {
	if strings.ContainsAny(toEmail, "\r\n") {
		return fmt.Errorf("invalid recipient address")
	}
	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}
	if err := n.send(addr, auth, n.cfg.From, []string{toEmail}, buildMessage(n.cfg.From, toEmail, resetURL)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	middleware.GetLoggerFromCtx(ctx).Info("Password reset mail sent", slog.String("smtp_host", n.cfg.Host))
	return nil
}

func buildMessage(from, to, resetURL string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", resetSubject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	buf.WriteString("Someone asked to reset the password of your Referral Vault account.\r\n\r\n")
	fmt.Fprintf(&buf, "Open this link within the next hour to choose a new password:\r\n%s\r\n\r\n", resetURL)
	buf.WriteString("If it was not you, ignore this mail. Your password stays unchanged.\r\n")
	return buf.Bytes()
}

// LogNotifier stands in when no SMTP server is configured. It records that a
// mail would have been sent but never logs the link.
type LogNotifier struct{}

var _ portssvc.ResetNotifier = LogNotifier{}

func (LogNotifier) SendPasswordReset(ctx context.Context, toEmail, _ string) error {
	middleware.GetLoggerFromCtx(ctx).Info("Password reset mail not sent: SMTP is not configured",
		slog.Int("recipient_length", len(toEmail)))
	return nil
}

// New picks the SMTP notifier when a host is configured.
func New(cfg config.SMTPConfig) portssvc.ResetNotifier {
	if cfg.Enabled() {
		return NewSMTPNotifier(cfg)
	}
	return LogNotifier{}
}
