// Package logging provides the two logs the thumbnailer writes.
//
// The process log is a leveled wrapper over the standard library logger and
// goes to stderr. Its threshold comes from LOG_LEVEL (debug, info, warn,
// error) or DEBUG=true, and can be overridden with [SetLevel].
//
// The run log ([RunLog]) is the operator-facing record of a thumbnailing run:
// one timestamped line per event appended to a file inside the thumbnails
// directory, optionally echoed to stdout.
package logging
