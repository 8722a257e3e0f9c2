// Package startup loads the thumbnailer configuration and writes the
// startup log.
//
// # Configuration
//
// All configuration comes from environment variables via [LoadConfig],
// optionally seeded from a dotenv file by the command line. Required:
//
//   - IMAGE_STORE_ROOT: root of the image store
//   - THUMBNAILS_DIR: root of the thumbnail tree
//   - ADMIN_EMAIL: recipient of operator alerts
//
// Optional (defaults in parentheses):
//
//   - FILETYPES: extensions to consider (jpg,jpeg,tif,tiff)
//   - FILE_REGEXP: keep-pattern matched against the path (/[a-zA-Z0-9][^/]+$)
//   - LOG_FILE, LOCK_FILE: relative to THUMBNAILS_DIR unless absolute
//     (thumbnaillog.wri, thumbnailerLockFile)
//   - ECHO_OUTPUT: echo run log lines to stdout (false)
//   - OUTPUT_FORMAT: thumbnail format (jpg)
//   - MAX_FILES_PER_RUN: files per run, 0 for unlimited (0)
//   - MAX_BYTES_PER_RUN: source bytes per run such as 10GiB, 0 for unlimited (10GiB)
//   - WATCH_LIST: store-relative directories, "dir:flat" for non-recursive (/)
//   - KNOWN_PROBLEM_FILES, RAW_ALLOWED_FOLDERS: comma-separated paths
//   - RAW_SUFFIX, MASTER_SUFFIX: raw/master variant markers (-raw, -master)
//   - OVERWRITE_OLDER_THUMBNAILS: redo thumbnails older than their source (false)
//   - THUMBNAIL_SIZES: profiles as name=WxH[@subdir] (800=800x800)
//   - STALE_LOCK_AFTER: lock age that triggers an alert (1h)
//   - RESIZE_BACKEND: imaging or vips (imaging)
//   - JPEG_QUALITY: 1-100 (90)
//   - HISTORY_DB: SQLite run history file (disabled)
//   - METRICS_TEXTFILE, METRICS_PUSHGATEWAY: metrics export (disabled)
//   - SMTP_ADDR, SMTP_FROM, SMTP_USERNAME, SMTP_PASSWORD, SENDMAIL_PATH: mail
//
// Memory settings (MEMORY_LIMIT, MEMORY_RATIO, GOMEMLIMIT) are read by the
// memory package.
//
// Missing or malformed values are reported together as [ConfigError]s
// joined into one error, before any file is touched.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
package startup
