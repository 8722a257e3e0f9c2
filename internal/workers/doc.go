/*
Package workers sizes the image codec thread pool against the CPU limit of
the container the thumbnailer runs in.

Runs are sequential, one image at a time, but libvips parallelises the
decode and resize of a single image internally. On a 64-core host with a
2-CPU container limit, runtime.NumCPU() reports 64 while GOMAXPROCS (Go
1.19+) reports 2, so pool sizes are derived from GOMAXPROCS:

	threads := workers.ForCodec(os.Getenv) // 1 per CPU, at most 8

The VIPS_CONCURRENCY environment variable overrides the calculation:

	VIPS_CONCURRENCY=2 thumbnailer run
*/
package workers
