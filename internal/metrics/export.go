package metrics

import (
	"context"
	"fmt"
	"os"

	"thumbnailer/internal/logging"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// DefaultJobName is the Pushgateway job label.
const DefaultJobName = "thumbnailer"

// WriteTextfile writes all metrics in the text exposition format for the
// node_exporter textfile collector. The file is replaced atomically.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	logging.Debug("Metrics written to %s", path)
	return nil
}

// Push sends all metrics to a Pushgateway, replacing the previous push for
// this job and instance.
func Push(ctx context.Context, url, job string) error {
	if job == "" {
		job = DefaultJobName
	}
	pusher := push.New(url, job).Gatherer(Registry)
	if host, err := os.Hostname(); err == nil {
		pusher = pusher.Grouping("instance", host)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	logging.Debug("Metrics pushed to %s", url)
	return nil
}

// Export writes the textfile and pushes to the gateway when configured.
// Errors are logged, never returned: metrics must not fail a run.
func Export(ctx context.Context, textfile, gateway string) {
	if textfile != "" {
		if err := WriteTextfile(textfile); err != nil {
			logging.Warn("%v", err)
		}
	}
	if gateway != "" {
		if err := Push(ctx, gateway, DefaultJobName); err != nil {
			logging.Warn("%v", err)
		}
	}
}
