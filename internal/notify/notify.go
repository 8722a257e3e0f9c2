package notify

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/smtp"
	"os/exec"
	"strings"
	"time"

	"thumbnailer/internal/logging"
)

// DefaultSendmailPath is where most distributions install sendmail.
const DefaultSendmailPath = "/usr/sbin/sendmail"

// Notifier delivers a Message.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Options selects and configures the transport.
type Options struct {
	SMTPAddr     string
	SMTPUsername string
	SMTPPassword string
	SendmailPath string
}

// New picks SMTP when an address is configured, then sendmail when the
// binary exists, and falls back to logging the alert.
func New(opts Options) Notifier {
	if opts.SMTPAddr != "" {
		logging.Debug("Notifications via SMTP %s", opts.SMTPAddr)
		return NewSMTPNotifier(opts.SMTPAddr, opts.SMTPUsername, opts.SMTPPassword)
	}

	path := opts.SendmailPath
	if path == "" {
		path = DefaultSendmailPath
	}
	if resolved, err := exec.LookPath(path); err == nil {
		logging.Debug("Notifications via sendmail %s", resolved)
		return &SendmailNotifier{Path: resolved}
	}

	logging.Warn("No mail transport available (SMTP_ADDR unset, %s not found); alerts will only be logged", path)
	return LogNotifier{}
}

// SMTPNotifier sends through an SMTP relay.
type SMTPNotifier struct {
	addr string
	auth smtp.Auth
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPNotifier creates an SMTPNotifier. PLAIN auth is used when a
// username is given.
func NewSMTPNotifier(addr, username, password string) *SMTPNotifier {
	n := &SMTPNotifier{addr: addr, send: smtp.SendMail}
	if username != "" {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}
		n.auth = smtp.PlainAuth("", username, password, host)
	}
	return n
}

// Notify implements Notifier.
func (n *SMTPNotifier) Notify(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := n.send(n.addr, n.auth, msg.From, []string{msg.To}, compose(msg, time.Now())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

// SendmailNotifier pipes the message into a sendmail-compatible binary.
type SendmailNotifier struct {
	Path string
}

// Notify implements Notifier.
func (n *SendmailNotifier) Notify(ctx context.Context, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, n.Path, "-t", "-i")
	cmd.Stdin = bytes.NewReader(compose(msg, time.Now()))

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("sendmail error: %w - %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// LogNotifier writes alerts to the process log only.
type LogNotifier struct{}

// Notify implements Notifier.
func (LogNotifier) Notify(_ context.Context, msg Message) error {
	logging.Warn("ALERT for %s: %s\n%s", msg.To, msg.Subject, msg.Body)
	return nil
}
