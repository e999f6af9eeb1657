package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// Version is stamped at build time.
var Version = "dev"

// Streams are the process standard streams.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// OSStreams returns the process's own streams.
func OSStreams() Streams {
	return Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// Run executes the command line and returns the process exit code. Errors
// are printed to streams.Err before returning.
func Run(ctx context.Context, streams Streams, args []string) (int, error) {
	return RunWithDeps(ctx, streams, &Deps{}, args)
}

// RunWithDeps is Run with caller-supplied dependencies.
func RunWithDeps(ctx context.Context, streams Streams, deps *Deps, args []string) (int, error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCmd(deps)
	cmd.SetArgs(args)
	cmd.SetIn(streams.In)
	cmd.SetOut(streams.Out)
	cmd.SetErr(streams.Err)

	err := cmd.ExecuteContext(ctx)
	if cerr := deps.close(); cerr != nil && err == nil {
		err = cerr
	}
	if err == nil {
		return 0, nil
	}
	if streams.Err != nil {
		fmt.Fprintf(streams.Err, "Error: %s\n", renderUserError(err, deps))
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 130, err
	}
	return 1, err
}
