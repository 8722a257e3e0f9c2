/*
Package filesystem wraps the few filesystem calls the thumbnailer makes on
the image store with retry logic for NFS stale file handle errors.

Image stores are commonly NFS exports. A file listed by the scanner can
return ESTALE when it is stat'ed or opened moments later because the server
replaced it. Those errors are transient, so [StatWithRetry],
[OpenWithRetry] and [Exists] retry them with exponential backoff; every
other error is returned on the first attempt.

All helpers take an afero.Fs so that tests can run against an in-memory
filesystem.

	info, err := filesystem.StatWithRetry(fs, path, filesystem.DefaultRetryConfig())

# Metrics

Operations are labelled with a volume name resolved from the path by
longest-prefix match ([VolumeResolver]). The thumbnails directory often
lives inside the image store, so "thumbnails" must win over "store" for
paths below it. Recording goes through the [Observer] interface, which the
metrics package implements; without an observer nothing is recorded.
*/
package filesystem
