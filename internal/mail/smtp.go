// Package mail sends password reset links over SMTP.
package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

//go:embed templates/*.html
var templatesFS embed.FS

var resetTemplate = template.Must(template.ParseFS(templatesFS, "templates/reset-password.html"))

var ErrNotConfigured = errors.New("mail server not configured")

const resetSubject = "Reset your password"

// Config describes the SMTP relay.  StartTLS upgrades a plain connection;
// SSLTLS dials with TLS from the start.
type Config struct {
	Server   string
	Port     int
	Username string
	Password string
	From     string
	StartTLS bool
	SSLTLS   bool

	DialTimeout time.Duration
	IOTimeout   time.Duration
}

// SMTPMailer implements service.Mailer.
type SMTPMailer struct {
	cfg Config
}

func NewSMTPMailer(cfg Config) (*SMTPMailer, error) {
	if cfg.Server == "" || cfg.From == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 8 * time.Second
	}
	if cfg.IOTimeout == 0 {
		cfg.IOTimeout = 15 * time.Second
	}
	return &SMTPMailer{cfg: cfg}, nil
}

// SendPasswordReset mails link to the given address.
func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	msg, err := buildResetMessage(m.cfg.From, to, link)
	if err != nil {
		return err
	}
	addr := net.JoinHostPort(m.cfg.Server, strconv.Itoa(m.cfg.Port))
	log.WithFields(log.Fields{"to": to, "via": addr}).Debug("mail: sending reset link")

	if err := m.send(ctx, addr, to, msg); err != nil {
		return fmt.Errorf("smtp %s: %w", addr, err)
	}
	log.WithField("to", to).Info("mail: reset link sent")
	return nil
}

func (m *SMTPMailer) send(ctx context.Context, addr, to string, msg []byte) error {
	dialer := &net.Dialer{Timeout: m.cfg.DialTimeout}
	var (
		conn net.Conn
		err  error
	)
	if m.cfg.SSLTLS {
		td := &tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: m.cfg.Server}}
		conn, err = td.DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return err
	}
	deadline := time.Now().Add(m.cfg.IOTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	c, err := smtp.NewClient(conn, m.cfg.Server)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer func() { _ = c.Close() }()

	if m.cfg.StartTLS && !m.cfg.SSLTLS {
		ok, _ := c.Extension("STARTTLS")
		if !ok {
			return errors.New("server does not offer STARTTLS")
		}
		if err := c.StartTLS(&tls.Config{ServerName: m.cfg.Server}); err != nil {
			return err
		}
	}
	if m.cfg.Username != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Server)
		if err := c.Auth(auth); err != nil {
			return err
		}
	}

	if err := c.Mail(m.cfg.From); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func buildResetMessage(from, to, link string) ([]byte, error) {
	if strings.ContainsAny(to, "\r\n") || strings.ContainsAny(from, "\r\n") {
		return nil, errors.New("invalid mail header")
	}
	var body bytes.Buffer
	if err := resetTemplate.Execute(&body, map[string]string{"Link": link}); err != nil {
		return nil, err
	}
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + to,
		"Subject: " + resetSubject,
		"MIME-Version: 1.0",
		`Content-Type: text/html; charset="UTF-8"`,
		"",
		body.String(),
	}, "\r\n")
	return []byte(msg), nil
}
