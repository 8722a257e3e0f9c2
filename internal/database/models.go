package database

import "time"

// Run is one row of the runs table.
type Run struct {
	ID             string
	Host           string
	StartedAt      time.Time
	EndedAt        time.Time // zero while running or after a crash
	Outcome        string
	FilesProcessed int64
	BytesProcessed int64
	FilesFailed    int64
}

// FileOutcome is the result of one thumbnail attempt.
type FileOutcome struct {
	RunID       string
	Profile     string
	SourcePath  string
	Destination string
	Size        int64
	Status      string
	Error       string
	Duration    time.Duration
}

// FailedPath summarizes a source file that keeps failing.
type FailedPath struct {
	SourcePath string
	Failures   int
	LastError  string
	LastSeen   time.Time
}
