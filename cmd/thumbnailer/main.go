package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"thumbnailer/internal/logging"
	"thumbnailer/internal/runner"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the command line and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err != nil {
		logging.Error("%v", err)
	}
	return runner.ExitCode(err)
}
