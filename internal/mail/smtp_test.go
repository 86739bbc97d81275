package mail

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSMTP accepts a single plain-text SMTP conversation and records it.
type fakeSMTP struct {
	ln       net.Listener
	mu       sync.Mutex
	commands []string
	data     string
	done     chan struct{}
}

func startFakeSMTP(t *testing.T) *fakeSMTP {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	f := &fakeSMTP{ln: ln, done: make(chan struct{})}
	go f.serve()
	t.Cleanup(func() {
		_ = ln.Close()
		<-f.done
	})
	return f
}

func (f *fakeSMTP) port() int {
	return f.ln.Addr().(*net.TCPAddr).Port
}

func (f *fakeSMTP) serve() {
	defer close(f.done)
	conn, err := f.ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()
	r := bufio.NewReader(conn)
	reply := func(s string) { _, _ = conn.Write([]byte(s + "\r\n")) }

	reply("220 localhost ready")
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		f.mu.Lock()
		f.commands = append(f.commands, line)
		f.mu.Unlock()

		switch verb := strings.ToUpper(strings.SplitN(line, " ", 2)[0]); verb {
		case "EHLO", "HELO":
			reply("250 localhost")
		case "DATA":
			reply("354 end with <CRLF>.<CRLF>")
			var sb strings.Builder
			for {
				l, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if l == ".\r\n" {
					break
				}
				sb.WriteString(l)
			}
			f.mu.Lock()
			f.data = sb.String()
			f.mu.Unlock()
			reply("250 queued")
		case "QUIT":
			reply("221 bye")
			return
		default:
			reply("250 OK")
		}
	}
}

func TestBuildResetMessage(t *testing.T) {
	msg, err := buildResetMessage("noreply@x.com", "alice@x.com", "http://localhost:8000/reset-password?token=abc123")
	require.NoError(t, err)

	s := string(msg)
	assert.Contains(t, s, "From: noreply@x.com\r\n")
	assert.Contains(t, s, "To: alice@x.com\r\n")
	assert.Contains(t, s, "Subject: Reset your password\r\n")
	assert.Contains(t, s, `href="http://localhost:8000/reset-password?token=abc123"`)

	_, err = buildResetMessage("noreply@x.com", "alice@x.com\r\nBcc: eve@x.com", "l")
	assert.Error(t, err)
}

func TestNewSMTPMailer_NotConfigured(t *testing.T) {
	_, err := NewSMTPMailer(Config{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSendPasswordReset(t *testing.T) {
	srv := startFakeSMTP(t)
	m, err := NewSMTPMailer(Config{
		Server: "127.0.0.1",
		Port:   srv.port(),
		From:   "noreply@x.com",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.SendPasswordReset(ctx, "alice@x.com", "http://localhost:8000/reset-password?token=abc123"))

	_ = srv.ln.Close()
	<-srv.done
	srv.mu.Lock()
	defer srv.mu.Unlock()
	assert.Contains(t, strings.Join(srv.commands, "\n"), "MAIL FROM:<noreply@x.com>")
	assert.Contains(t, strings.Join(srv.commands, "\n"), "RCPT TO:<alice@x.com>")
	assert.Contains(t, srv.data, "token=abc123")
}

func TestSendPasswordReset_ServerDown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	m, err := NewSMTPMailer(Config{Server: "127.0.0.1", Port: port, From: "noreply@x.com", DialTimeout: time.Second})
	require.NoError(t, err)
	err = m.SendPasswordReset(context.Background(), "alice@x.com", "l")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp 127.0.0.1:"+strconv.Itoa(port))
}

func TestSendPasswordReset_RequiresStartTLS(t *testing.T) {
	srv := startFakeSMTP(t)
	m, err := NewSMTPMailer(Config{Server: "127.0.0.1", Port: srv.port(), From: "noreply@x.com", StartTLS: true})
	require.NoError(t, err)

	err = m.SendPasswordReset(context.Background(), "alice@x.com", "l")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STARTTLS")
}
