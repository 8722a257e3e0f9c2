package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// RunLogTimeFormat is the timestamp layout of every run log line.
const RunLogTimeFormat = "2006-01-02 15:04:05"

// RunLog appends timestamped lines to the run log file and optionally
// echoes them to another writer (stdout in production).
type RunLog struct {
	fs   afero.Fs
	path string
	echo io.Writer
	now  func() time.Time
	mu   sync.Mutex
}

// NewRunLog returns a run log writing to path on fs. A nil echo disables
// echoing.
func NewRunLog(fs afero.Fs, path string, echo io.Writer) *RunLog {
	return &RunLog{
		fs:   fs,
		path: path,
		echo: echo,
		now:  time.Now,
	}
}

// Path returns the log file location.
func (l *RunLog) Path() string {
	return l.path
}

// Logf formats and appends one line. Failures to write the file are
// reported on the process log and otherwise ignored; the run must not stop
// because its log is unwritable.
func (l *RunLog) Logf(format string, args ...interface{}) {
	line := fmt.Sprintf("%s  %s\n", l.now().Format(RunLogTimeFormat), fmt.Sprintf(format, args...))

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.append(line); err != nil {
		Warn("failed to write run log %s: %v", l.path, err)
	}
	if l.echo != nil {
		if _, err := io.WriteString(l.echo, line); err != nil {
			Debug("failed to echo run log line: %v", err)
		}
	}
	Debug("runlog: %s", line[:len(line)-1])
}

func (l *RunLog) append(line string) error {
	if err := l.fs.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}
	f, err := l.fs.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(line); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
