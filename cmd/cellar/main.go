package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cellar/internal/cli"
	cerrors "github.com/matzehuels/cellar/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130) // SIGINT
		}
		fmt.Fprintln(os.Stderr, "Error:", cerrors.UserMessage(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var (
		verbose bool
		trace   string
		flush   func(context.Context) error
	)

	c := cli.New(os.Stderr, cli.LogInfo)
	c.RegisterHooks()
	root := c.RootCommand()
	root.SilenceErrors = true

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&trace, "trace", "", "write store, layout and export spans to `file`")

	// The log level is only known once flags are parsed.
	inner := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			c.SetLogLevel(cli.LogDebug)
		}
		if trace != "" {
			f, err := os.Create(trace)
			if err != nil {
				return err
			}
			shutdown, err := c.TraceTo(f)
			if err != nil {
				f.Close()
				return err
			}
			flush = func(ctx context.Context) error {
				return errors.Join(shutdown(ctx), f.Close())
			}
		}
		if inner != nil {
			return inner(cmd, args)
		}
		return nil
	}

	err := root.ExecuteContext(ctx)
	if flush != nil {
		// ctx may already be cancelled.
		if ferr := flush(context.WithoutCancel(ctx)); ferr != nil {
			c.Logger.Warn("trace not written", "file", trace, "err", ferr)
		}
	}
	if err != nil {
		c.Logger.Debug("command failed", "err", err)
	}
	return err
}
