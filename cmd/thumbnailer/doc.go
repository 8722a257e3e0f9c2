// Command thumbnailer creates resized copies of the images in an image
// store. It is meant to be started by a scheduler such as cron; a lock
// file keeps overlapping invocations from running at the same time.
//
// Usage:
//
//	thumbnailer [command] [flags]
//
// Commands:
//
//	run       Perform one thumbnailing run (default)
//	plan      List the thumbnails a run would create, without writing
//	lock      Show the lock file state; --remove deletes a stale lock
//	history   List recent runs, or with --failures N the files that keep failing
//
// Global flags:
//
//	--env-file PATH   load settings from a dotenv file before reading the environment
//	--log-level LVL   debug, info, warn or error (default from LOG_LEVEL)
//
// Configuration is read from environment variables; see package
// thumbnailer/internal/startup for the full list.
//
// Exit codes:
//
//	0    completed, quota reached, or another run holds the lock
//	1    configuration error
//	2    thumbnails directory or lock file not usable
//	3    no readable watch directory
//	4    any other failure
//	130  interrupted
package main
