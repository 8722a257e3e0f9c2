package notify

import (
	"context"
	"fmt"

	"thumbnailer/internal/logging"
)

// Alert subjects.
const (
	SubjectStaleLock    = "Image thumbnailer - stale lockfile problem"
	SubjectInaccessible = "Image thumbnailer - thumbnails directory not accessible"
)

// Alerter addresses alerts to the administrator.
type Alerter struct {
	notifier Notifier
	to       string
	from     string
}

// NewAlerter creates an Alerter. from defaults to the administrator
// address.
func NewAlerter(n Notifier, admin, from string) *Alerter {
	if from == "" {
		from = admin
	}
	return &Alerter{notifier: n, to: admin, from: from}
}

// StaleLock reports a lock file left behind by an earlier run.
func (a *Alerter) StaleLock(ctx context.Context, lockPath string) error {
	body := fmt.Sprintf("The image thumbnailer appears to have a stale lockfile. "+
		"Please check this out and delete the file\n\n%s\n\nso that it will run again.", lockPath)
	return a.send(ctx, SubjectStaleLock, body)
}

// Inaccessible reports that the thumbnails directory cannot be used.
func (a *Alerter) Inaccessible(ctx context.Context, dir string, cause error) error {
	body := fmt.Sprintf("The thumbnailer could not access the directory %s .", dir)
	if cause != nil {
		body += fmt.Sprintf("\n\nThe error was: %v", cause)
	}
	return a.send(ctx, SubjectInaccessible, body)
}

func (a *Alerter) send(ctx context.Context, subject, body string) error {
	msg := Message{
		To:      a.to,
		From:    a.from,
		Subject: subject,
		Body:    Wrap(body, WrapWidth),
	}
	if err := a.notifier.Notify(ctx, msg); err != nil {
		logging.Error("Failed to send alert %q to %s: %v", subject, a.to, err)
		return err
	}
	logging.Info("Sent alert %q to %s", subject, a.to)
	return nil
}
