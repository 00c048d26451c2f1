// internal/app/system/mailer/mailer.go
package mailer

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Email is one outgoing message with text and HTML alternatives.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers e-mail.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

// Config configures SMTP delivery. An empty Host selects the log-only sender.
type Config struct {
	Host     string
	Port     int
	User     string
	Pass     string
	From     string
	FromName string
}

// New returns an SMTP sender, or a LogSender when cfg.Host is empty.
func New(cfg Config, logger *zap.Logger) Sender {
	if strings.TrimSpace(cfg.Host) == "" {
		logger.Warn("mail_smtp_host not set; e-mail will be logged, not sent")
		return &LogSender{Log: logger}
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPSender{cfg: cfg, log: logger}
}

// SMTPSender sends through an SMTP relay with PLAIN auth (STARTTLS is
// negotiated by net/smtp when the server offers it).
type SMTPSender struct {
	cfg Config
	log *zap.Logger
}

func (s *SMTPSender) Send(ctx context.Context, e Email) error {
	msg, err := buildMessage(s.cfg, e)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)
	}

	done := make(chan error, 1)
	go func() { done <- smtp.SendMail(addr, auth, s.cfg.From, []string{e.To}, msg) }()

	select {
	case <-ctx.Done():
		return fmt.Errorf("send mail: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send mail: %w", err)
		}
	}
	s.log.Info("email sent", zap.String("to", e.To), zap.String("subject", e.Subject))
	return nil
}

// LogSender writes e-mails to the log instead of sending them.
type LogSender struct {
	Log *zap.Logger
}

func (s *LogSender) Send(_ context.Context, e Email) error {
	s.Log.Info("email (not sent)",
		zap.String("to", e.To),
		zap.String("subject", e.Subject),
		zap.String("text", e.TextBody))
	return nil
}

func buildMessage(cfg Config, e Email) ([]byte, error) {
	if e.To == "" {
		return nil, fmt.Errorf("send mail: empty recipient")
	}
	boundary, err := randomBoundary()
	if err != nil {
		return nil, err
	}

	from := cfg.From
	if cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", cfg.FromName), cfg.From)
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", e.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", e.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n", boundary, e.TextBody)
	if e.HTMLBody != "" {
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s\r\n", boundary, e.HTMLBody)
	}
	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return b.Bytes(), nil
}

func randomBoundary() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "articlio-" + hex.EncodeToString(buf), nil
}
