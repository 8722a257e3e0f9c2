package startup

import (
	"bytes"
	"runtime"
	"strings"
	"testing"
)

func TestGetBuildInfo(t *testing.T) {
	origVersion, origCommit := Version, Commit
	defer func() { Version, Commit = origVersion, origCommit }()

	Version = "1.2.3"
	Commit = "abc123"

	info := GetBuildInfo()
	if info.Version != "1.2.3" || info.Commit != "abc123" {
		t.Errorf("GetBuildInfo() = %+v", info)
	}
	if info.OS != runtime.GOOS || info.Arch != runtime.GOARCH {
		t.Errorf("OS/Arch = %s/%s, want %s/%s", info.OS, info.Arch, runtime.GOOS, runtime.GOARCH)
	}
	if info.GoVersion == "" {
		t.Error("GoVersion is empty")
	}
}

func TestPrintBanner(t *testing.T) {
	origVersion := Version
	defer func() { Version = origVersion }()
	Version = "9.9.9"

	var buf bytes.Buffer
	PrintBanner(&buf)

	out := buf.String()
	if !strings.Contains(out, "Version:    9.9.9") {
		t.Errorf("banner missing version line:\n%s", out)
	}
	if !strings.Contains(out, "Started:") {
		t.Errorf("banner missing start time:\n%s", out)
	}
}

func TestLogSystemInfo(t *testing.T) {
	// Only logs; must not panic at any level.
	LogSystemInfo()
}
