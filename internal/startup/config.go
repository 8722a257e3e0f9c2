package startup

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"

	"thumbnailer/internal/lock"
	"thumbnailer/internal/logging"
	"thumbnailer/internal/media"
	"thumbnailer/internal/mediatypes"
	"thumbnailer/internal/notify"
)

// Defaults for optional settings.
const (
	DefaultFilePattern    = `/[a-zA-Z0-9][^/]+$`
	DefaultLogFile        = "thumbnaillog.wri"
	DefaultLockFile       = "thumbnailerLockFile"
	DefaultOutputFormat   = "jpg"
	DefaultMaxBytesPerRun = "10GiB"
	DefaultWatchList      = "/"
	DefaultRawSuffix      = "-raw"
	DefaultMasterSuffix   = "-master"
	DefaultThumbnailSizes = "800=800x800"
)

// Config holds the settings for one run. It is built once by LoadConfig
// and never modified afterwards.
type Config struct {
	ImageStoreRoot string
	ThumbnailsDir  string
	AdminEmail     string

	FileTypes   mediatypes.ExtensionSet
	FilePattern *regexp.Regexp
	LogFile     string
	LockFile    string
	EchoOutput  bool

	OutputFormat   string
	MaxFilesPerRun int64
	MaxBytesPerRun int64

	Watches           []mediatypes.WatchSpec
	KnownProblemFiles []string
	RawAllowedFolders []string
	RawSuffix         string
	MasterSuffix      string
	OverwriteOlder    bool

	Profiles       []mediatypes.Profile
	StaleLockAfter time.Duration
	ResizeBackend  string
	JPEGQuality    int

	HistoryDB          string
	MetricsTextfile    string
	MetricsPushgateway string

	SMTPAddr     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string
	SendmailPath string
}

// ConfigError reports a missing or malformed setting.
type ConfigError struct {
	Key string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ErrRequired is wrapped by a ConfigError for a required setting that is
// unset or blank.
var ErrRequired = errors.New("required setting is missing")

// IsConfigError reports whether err contains a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// loader collects every problem so the operator sees them all at once.
type loader struct {
	getenv func(string) string
	errs   []error
}

func (l *loader) fail(key string, err error) {
	l.errs = append(l.errs, &ConfigError{Key: key, Err: err})
}

func (l *loader) str(key, fallback string) string {
	if v := strings.TrimSpace(l.getenv(key)); v != "" {
		return v
	}
	return fallback
}

func (l *loader) required(key string) string {
	v := l.str(key, "")
	if v == "" {
		l.fail(key, ErrRequired)
	}
	return v
}

func (l *loader) boolean(key string, fallback bool) bool {
	v := l.str(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		l.fail(key, err)
		return fallback
	}
	return b
}

func (l *loader) integer(key string, fallback int64) int64 {
	v := l.str(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		l.fail(key, fmt.Errorf("want a non-negative integer, got %q", v))
		return fallback
	}
	return n
}

func (l *loader) bytes(key, fallback string) int64 {
	v := l.str(key, fallback)
	n, err := ParseByteLimit(v)
	if err != nil {
		l.fail(key, err)
	}
	return n
}

func (l *loader) duration(key string, fallback time.Duration) time.Duration {
	v := l.str(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		l.fail(key, fmt.Errorf("want a positive duration, got %q", v))
		return fallback
	}
	return d
}

// LoadConfig reads the configuration from getenv, which is os.Getenv in
// production. It has no side effects on the filesystem.
func LoadConfig(getenv func(string) string) (*Config, error) {
	l := &loader{getenv: getenv}

	cfg := &Config{
		ImageStoreRoot: cleanAbs(l.required("IMAGE_STORE_ROOT")),
		ThumbnailsDir:  cleanAbs(l.required("THUMBNAILS_DIR")),
		AdminEmail:     l.required("ADMIN_EMAIL"),
		EchoOutput:     l.boolean("ECHO_OUTPUT", false),
		MaxFilesPerRun: l.integer("MAX_FILES_PER_RUN", 0),
		MaxBytesPerRun: l.bytes("MAX_BYTES_PER_RUN", DefaultMaxBytesPerRun),
		RawSuffix:      l.str("RAW_SUFFIX", DefaultRawSuffix),
		MasterSuffix:   l.str("MASTER_SUFFIX", DefaultMasterSuffix),
		OverwriteOlder: l.boolean("OVERWRITE_OLDER_THUMBNAILS", false),
		StaleLockAfter: l.duration("STALE_LOCK_AFTER", lock.DefaultStaleAfter),
		ResizeBackend:  strings.ToLower(l.str("RESIZE_BACKEND", media.BackendImaging)),
		JPEGQuality:    int(l.integer("JPEG_QUALITY", media.DefaultJPEGQuality)),

		HistoryDB:          l.str("HISTORY_DB", ""),
		MetricsTextfile:    l.str("METRICS_TEXTFILE", ""),
		MetricsPushgateway: l.str("METRICS_PUSHGATEWAY", ""),

		SMTPAddr:     l.str("SMTP_ADDR", ""),
		SMTPUsername: l.str("SMTP_USERNAME", ""),
		SMTPPassword: l.str("SMTP_PASSWORD", ""),
		SendmailPath: l.str("SENDMAIL_PATH", notify.DefaultSendmailPath),
	}
	cfg.SMTPFrom = l.str("SMTP_FROM", cfg.AdminEmail)

	types := SplitList(l.str("FILETYPES", strings.Join(mediatypes.DefaultFileTypes, ",")))
	cfg.FileTypes = mediatypes.NewExtensionSet(types)
	if len(cfg.FileTypes) == 0 {
		l.fail("FILETYPES", errors.New("no extensions given"))
	}

	pattern := l.str("FILE_REGEXP", DefaultFilePattern)
	re, err := regexp.Compile(pattern)
	if err != nil {
		l.fail("FILE_REGEXP", err)
	}
	cfg.FilePattern = re

	cfg.OutputFormat = mediatypes.NormalizeExtension(l.str("OUTPUT_FORMAT", DefaultOutputFormat))
	if _, err := imaging.FormatFromExtension(cfg.OutputFormat); err != nil {
		l.fail("OUTPUT_FORMAT", fmt.Errorf("unsupported format %q", cfg.OutputFormat))
	}

	switch cfg.ResizeBackend {
	case media.BackendImaging, media.BackendVips:
	default:
		l.fail("RESIZE_BACKEND", fmt.Errorf("want %s or %s, got %q", media.BackendImaging, media.BackendVips, cfg.ResizeBackend))
	}
	if cfg.JPEGQuality < 1 || cfg.JPEGQuality > 100 {
		l.fail("JPEG_QUALITY", fmt.Errorf("want 1-100, got %d", cfg.JPEGQuality))
	}

	// Paths derived from the roots are only meaningful when both are set.
	if cfg.ImageStoreRoot != "" && cfg.ThumbnailsDir != "" {
		cfg.LogFile = underDir(cfg.ThumbnailsDir, l.str("LOG_FILE", DefaultLogFile))
		cfg.LockFile = underDir(cfg.ThumbnailsDir, l.str("LOCK_FILE", DefaultLockFile))

		watches, err := ParseWatchList(cfg.ImageStoreRoot, l.str("WATCH_LIST", DefaultWatchList))
		if err != nil {
			l.fail("WATCH_LIST", err)
		}
		cfg.Watches = watches

		profiles, err := ParseProfiles(cfg.ThumbnailsDir, l.str("THUMBNAIL_SIZES", DefaultThumbnailSizes))
		if err != nil {
			l.fail("THUMBNAIL_SIZES", err)
		}
		cfg.Profiles = profiles
	}

	cfg.KnownProblemFiles = SplitList(l.str("KNOWN_PROBLEM_FILES", ""))
	cfg.RawAllowedFolders = SplitList(l.str("RAW_ALLOWED_FOLDERS", ""))

	if len(l.errs) > 0 {
		return nil, errors.Join(l.errs...)
	}
	return cfg, nil
}

// Log writes every setting to the leveled log in the startup section style.
func (c *Config) Log() {
	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  IMAGE_STORE_ROOT:    %s", c.ImageStoreRoot)
	logging.Info("  THUMBNAILS_DIR:      %s", c.ThumbnailsDir)
	logging.Info("  ADMIN_EMAIL:         %s", c.AdminEmail)
	logging.Info("  FILETYPES:           %s", strings.Join(c.FileTypes.Sorted(), ","))
	logging.Info("  FILE_REGEXP:         %s", c.FilePattern)
	logging.Info("  LOG_FILE:            %s", c.LogFile)
	logging.Info("  LOCK_FILE:           %s", c.LockFile)
	logging.Info("  ECHO_OUTPUT:         %v", c.EchoOutput)
	logging.Info("  OUTPUT_FORMAT:       %s", c.OutputFormat)
	logging.Info("  MAX_FILES_PER_RUN:   %s", limitString(c.MaxFilesPerRun, strconv.FormatInt(c.MaxFilesPerRun, 10)))
	logging.Info("  MAX_BYTES_PER_RUN:   %s", limitString(c.MaxBytesPerRun, humanize.IBytes(uint64(c.MaxBytesPerRun))))
	logging.Info("  STALE_LOCK_AFTER:    %v", c.StaleLockAfter)
	logging.Info("  RESIZE_BACKEND:      %s (quality %d)", c.ResizeBackend, c.JPEGQuality)
	logging.Info("  OVERWRITE_OLDER:     %v", c.OverwriteOlder)
	logging.Info("  RAW/MASTER SUFFIX:   %s / %s", c.RawSuffix, c.MasterSuffix)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	logging.Info("")
	logging.Info("  Watches (%d):", len(c.Watches))
	for _, w := range c.Watches {
		logging.Info("    %s", w)
	}
	logging.Info("  Profiles (%d):", len(c.Profiles))
	for _, p := range c.Profiles {
		logging.Info("    %s", p)
	}
	if len(c.RawAllowedFolders) > 0 {
		logging.Info("  Raw allowed folders: %s", strings.Join(c.RawAllowedFolders, ", "))
	}
	if len(c.KnownProblemFiles) > 0 {
		logging.Info("  Known problem files: %d", len(c.KnownProblemFiles))
		for _, f := range c.KnownProblemFiles {
			logging.Debug("    %s", f)
		}
	}

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    History:     %s", enabledString(c.HistoryDB != ""))
	logging.Info("    Textfile:    %s", enabledString(c.MetricsTextfile != ""))
	logging.Info("    Pushgateway: %s", enabledString(c.MetricsPushgateway != ""))
	logging.Info("    SMTP:        %s", enabledString(c.SMTPAddr != ""))
}

// ProfileNames returns the profile names in configuration order.
func (c *Config) ProfileNames() []string {
	names := make([]string, len(c.Profiles))
	for i, p := range c.Profiles {
		names[i] = p.Name
	}
	return names
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

func limitString(n int64, formatted string) string {
	if n == 0 {
		return "unlimited"
	}
	return formatted
}

func cleanAbs(p string) string {
	if p == "" {
		return ""
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

func underDir(dir, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(dir, p)
}
