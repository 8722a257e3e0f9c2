package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"thumbnailer/internal/runner"
)

var configKeys = []string{
	"IMAGE_STORE_ROOT", "THUMBNAILS_DIR", "ADMIN_EMAIL", "HISTORY_DB",
	"SENDMAIL_PATH", "SMTP_ADDR", "WATCH_LIST", "METRICS_TEXTFILE", "METRICS_PUSHGATEWAY",
}

// clearEnv unsets the configuration for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

type testStore struct {
	root   string
	thumbs string
}

func setupStore(t *testing.T) testStore {
	t.Helper()
	clearEnv(t)

	root := t.TempDir()
	s := testStore{root: root, thumbs: filepath.Join(root, "_thumbs")}

	writeJPEG(t, filepath.Join(root, "2019", "landscape.jpg"), 64, 32)
	writeJPEG(t, filepath.Join(root, "2019", "portrait.jpg"), 32, 64)

	t.Setenv("IMAGE_STORE_ROOT", root)
	t.Setenv("THUMBNAILS_DIR", s.thumbs)
	t.Setenv("ADMIN_EMAIL", "admin@example.com")
	t.Setenv("SENDMAIL_PATH", filepath.Join(root, "no-sendmail"))
	t.Setenv("THUMBNAIL_SIZES", "small=16x16")
	return s
}

func writeJPEG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: 100, A: 255})
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, nil); err != nil {
		t.Fatal(err)
	}
}

func run(t *testing.T, args ...string) (int, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, &stdout, &stderr)
	return code, stdout.String()
}

func TestExecuteConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing settings", []string{"run"}},
		{"missing settings bare", []string{}},
		{"unknown flag", []string{"run", "--frobnicate"}},
		{"bad log level", []string{"--log-level", "loud", "plan"}},
		{"missing env file", []string{"--env-file", "/nonexistent/.env", "run"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			if code, _ := run(t, tt.args...); code != runner.ExitConfig {
				t.Errorf("exit code = %d, want %d", code, runner.ExitConfig)
			}
		})
	}
}

func TestExecuteEnvFile(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	envFile := filepath.Join(root, "thumbnailer.env")
	content := "IMAGE_STORE_ROOT=" + root + "\nTHUMBNAILS_DIR=" + filepath.Join(root, "_thumbs") + "\nADMIN_EMAIL=admin@example.com\n"
	if err := os.WriteFile(envFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	code, out := run(t, "--env-file", envFile, "plan")
	if code != runner.ExitOK {
		t.Fatalf("exit code = %d, output:\n%s", code, out)
	}
	if !strings.Contains(out, "0 thumbnails pending") {
		t.Errorf("plan output = %q", out)
	}
}

func TestExecutePlanRunLock(t *testing.T) {
	s := setupStore(t)

	code, out := run(t, "plan")
	if code != runner.ExitOK {
		t.Fatalf("plan exit code = %d", code)
	}
	if !strings.Contains(out, filepath.Join(s.thumbs, "2019", "portrait.jpg")) || !strings.Contains(out, "2 thumbnails pending") {
		t.Errorf("plan output:\n%s", out)
	}
	if _, err := os.Stat(s.thumbs); !os.IsNotExist(err) {
		t.Errorf("plan created the thumbnails directory: %v", err)
	}

	if code, _ := run(t); code != runner.ExitOK {
		t.Fatalf("run exit code = %d", code)
	}
	for _, name := range []string{"landscape.jpg", "portrait.jpg"} {
		if _, err := os.Stat(filepath.Join(s.thumbs, "2019", name)); err != nil {
			t.Errorf("thumbnail %s: %v", name, err)
		}
	}
	logData, err := os.ReadFile(filepath.Join(s.thumbs, "thumbnaillog.wri"))
	if err != nil || !strings.Contains(string(logData), "Ended this run") {
		t.Errorf("run log = %q, err = %v", logData, err)
	}

	_, out = run(t, "plan")
	if !strings.Contains(out, "0 thumbnails pending") {
		t.Errorf("second plan output:\n%s", out)
	}

	_, out = run(t, "lock")
	if !strings.Contains(out, "not present") {
		t.Errorf("lock output = %q", out)
	}

	lockFile := filepath.Join(s.thumbs, "thumbnailerLockFile")
	if err := os.WriteFile(lockFile, []byte("thumbnailer running"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, out = run(t, "lock")
	if !strings.Contains(out, "present since") || !strings.Contains(out, "fresh") {
		t.Errorf("lock output = %q", out)
	}

	// A fresh lock makes a run a silent no-op.
	if code, _ := run(t, "run"); code != runner.ExitOK {
		t.Errorf("contended run exit code = %d", code)
	}

	_, out = run(t, "lock", "--remove")
	if !strings.Contains(out, "removed") {
		t.Errorf("lock --remove output = %q", out)
	}
	if _, err := os.Stat(lockFile); !os.IsNotExist(err) {
		t.Errorf("lock file still present: %v", err)
	}
}

func TestExecuteNoWatches(t *testing.T) {
	setupStore(t)
	t.Setenv("WATCH_LIST", "does-not-exist")

	if code, _ := run(t, "run"); code != runner.ExitNoWatches {
		t.Errorf("exit code = %d, want %d", code, runner.ExitNoWatches)
	}
}

func TestExecuteHistory(t *testing.T) {
	s := setupStore(t)

	if code, _ := run(t, "history"); code != runner.ExitConfig {
		t.Errorf("history without HISTORY_DB exit code = %d", code)
	}

	t.Setenv("HISTORY_DB", filepath.Join(s.root, "db", "history.db"))
	t.Setenv("METRICS_TEXTFILE", filepath.Join(s.root, "thumbnailer.prom"))
	if code, _ := run(t, "run"); code != runner.ExitOK {
		t.Fatalf("run exit code = %d", code)
	}

	code, out := run(t, "history")
	if code != runner.ExitOK {
		t.Fatalf("history exit code = %d", code)
	}
	if !strings.Contains(out, "completed") {
		t.Errorf("history output:\n%s", out)
	}

	code, out = run(t, "history", "--failures", "1")
	if code != runner.ExitOK || !strings.Contains(out, "FAILURES") {
		t.Errorf("history --failures: code %d output:\n%s", code, out)
	}

	prom, err := os.ReadFile(filepath.Join(s.root, "thumbnailer.prom"))
	if err != nil {
		t.Fatalf("metrics textfile: %v", err)
	}
	if !strings.Contains(string(prom), "thumbnailer_runs_total") {
		t.Errorf("textfile missing run counter:\n%s", prom)
	}
}
