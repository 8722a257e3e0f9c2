package startup

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"thumbnailer/internal/logging"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// PrintBanner writes the startup banner. The command line only calls it
// when stdout is a terminal, so cron mail stays short.
func PrintBanner(w io.Writer) {
	banner := `
------------------------------------------------------------
 _____ _                     _                 _ _
|_   _| |__  _   _ _ __ ___ | |__  _ __   __ _(_) | ___ _ __
  | | | '_ \| | | | '_ ' _ \| '_ \| '_ \ / _' | | |/ _ \ '__|
  | | | | | | |_| | | | | | | |_) | | | | (_| | | |  __/ |
  |_| |_| |_|\__,_|_| |_| |_|_.__/|_| |_|\__,_|_|_|\___|_|

------------------------------------------------------------`
	fmt.Fprintln(w, banner)
	fmt.Fprintf(w, "  Version:    %s\n", Version)
	fmt.Fprintf(w, "  Commit:     %s\n", Commit)
	fmt.Fprintf(w, "  Build Time: %s\n", BuildTime)
	fmt.Fprintf(w, "  Started:    %s\n\n", time.Now().Format(time.RFC1123))
}

// LogSystemInfo logs runtime details at debug level.
func LogSystemInfo() {
	if !logging.IsDebugEnabled() {
		return
	}
	logging.Debug("------------------------------------------------------------")
	logging.Debug("SYSTEM INFORMATION")
	logging.Debug("------------------------------------------------------------")
	logging.Debug("  Version:         %s (%s)", Version, Commit)
	logging.Debug("  Go version:      %s", runtime.Version())
	logging.Debug("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Debug("  CPUs available:  %d", runtime.NumCPU())
	logging.Debug("  PID:             %d", os.Getpid())

	if wd, err := os.Getwd(); err == nil {
		logging.Debug("  Working dir:     %s", wd)
	}
	if hostname, err := os.Hostname(); err == nil {
		logging.Debug("  Hostname:        %s", hostname)
	}
}
