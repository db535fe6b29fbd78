package main

import (
	"context"
	"errors"
	"os"
	"os/exec"

	"github.com/chainguard-dev/clog"
)

func main() {
	ctx := context.Background()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		var exit *exec.ExitError
		if errors.As(err, &exit) && exit.ExitCode() > 0 {
			os.Exit(exit.ExitCode())
		}
		clog.ErrorContextf(ctx, "failed to execute command: %v", err)
		os.Exit(1)
	}
}
