// Package mailer delivers outbound mail such as signup confirmation codes.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/Baaaki/yamdb/internal/config"
	"github.com/Baaaki/yamdb/pkg/logger"
	"go.uber.org/zap"
)

// ErrDelivery wraps every failure to hand a message to the mail transport.
var ErrDelivery = errors.New("mail delivery failed")

type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// New picks the sender configured by MAIL_BACKEND.
func New(cfg *config.Config) (Sender, error) {
	switch cfg.MailBackend {
	case "smtp":
		if cfg.SMTPHost == "" {
			return nil, errors.New("MAIL_BACKEND=smtp requires SMTP_HOST")
		}
		return NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom), nil
	case "log", "":
		return NewLogSender(cfg.MailFrom), nil
	default:
		return nil, fmt.Errorf("unsupported MAIL_BACKEND %q", cfg.MailBackend)
	}
}

// LogSender writes messages to the application log instead of sending them.
// Used in development, where nobody runs an SMTP relay.
type LogSender struct {
	from string
}

func NewLogSender(from string) *LogSender {
	return &LogSender{from: from}
}

func (s *LogSender) Send(_ context.Context, to, subject, body string) error {
	logger.Log.Info("Outgoing mail",
		zap.String("from", s.from),
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}

type SMTPSender struct {
	addr string
	host string
	auth smtp.Auth
	from string

	// send is smtp.SendMail; replaced in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPSender{
		addr: net.JoinHostPort(host, strconv.Itoa(port)),
		host: host,
		auth: auth,
		from: from,
		send: smtp.SendMail,
	}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	if strings.ContainsAny(to, "\r\n") || strings.ContainsAny(subject, "\r\n") {
		return fmt.Errorf("%w: header contains a line break", ErrDelivery)
	}

	if err := s.send(s.addr, s.auth, s.from, []string{to}, buildMessage(s.from, to, subject, body)); err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}
