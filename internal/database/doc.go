// Package database keeps an optional SQLite journal of thumbnailer runs.
//
// Each run gets a row in runs, and every attempted file gets a row in
// file_outcomes. The journal answers two operator questions: what did
// recent runs do, and which files keep failing (candidates for the
// known-problem list). The database uses WAL mode and is created on first
// use.
package database
