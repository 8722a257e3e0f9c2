// Package notify sends operator alerts by mail.
//
// Alerts are rare: a stale lock file or an inaccessible thumbnails
// directory. Delivery goes through SMTP when SMTP_ADDR is set, otherwise
// through a local sendmail binary, otherwise the alert is only logged.
package notify
