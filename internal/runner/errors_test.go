package runner

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"thumbnailer/internal/startup"
)

func TestExitCode(t *testing.T) {
	_, configErr := startup.LoadConfig(func(string) string { return "" })

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"config", configErr, ExitConfig},
		{"inaccessible", fmt.Errorf("%w: /thumbs", ErrThumbnailsInaccessible), ExitInaccessible},
		{"lock unusable", fmt.Errorf("%w: EIO", ErrLockUnusable), ExitInaccessible},
		{"no watches", ErrNoWatches, ExitNoWatches},
		{"cancelled", fmt.Errorf("scan failed: %w", context.Canceled), ExitInterrupted},
		{"other", errors.New("boom"), ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateNotStarted, "not_started"},
		{StateLockContended, "lock_contended"},
		{StateProcessing, "processing"},
		{StateTerminated, "terminated"},
		{State(99), "unknown"},
		{State(-1), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", int(tt.state), got, tt.want)
		}
	}
}
