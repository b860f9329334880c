package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"worship-presenter/internal/channel"
	"worship-presenter/internal/logging"
	"worship-presenter/internal/syncproto"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var (
		once    bool
		timeout time.Duration
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Join the channel as an output and print every frame",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if timeout > 0 {
				var cancel context.CancelFunc
				runCtx, cancel = context.WithTimeout(runCtx, timeout)
				defer cancel()
			}

			level := "warn"
			if verbose {
				level = "debug"
			}
			logger, closer := logging.New(logging.Options{Level: level, Output: cmd.ErrOrStderr()})
			defer closer.Close()

			sock, err := channel.Dial(runCtx, ctx.server, ctx.channel, channel.DialOptions{Logger: logger})
			if err != nil {
				return err
			}
			return watch(runCtx, sock, sock.Done(), cmd.OutOrStdout(), ctx.json, once, logger)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "Exit after the first synced frame")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Stop watching after this long")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log protocol traffic")
	return cmd
}

// watch runs an Output on ch and prints its frames until ctx ends, the
// connection drops or, with once, the first synced frame is printed.
func watch(ctx context.Context, ch channel.Channel, lost <-chan struct{}, w io.Writer, asJSON, once bool, logger *slog.Logger) error {
	out := syncproto.NewOutput(ch, logger)
	defer out.Close()

	var mu sync.Mutex
	first := make(chan struct{})
	var firstOnce sync.Once
	out.OnFrame(func(f syncproto.Frame) {
		mu.Lock()
		defer mu.Unlock()
		if asJSON {
			data, _ := json.Marshal(f)
			fmt.Fprintln(w, string(data))
		} else {
			fmt.Fprintln(w, renderFrame(f))
		}
		if !f.Waiting {
			firstOnce.Do(func() { close(first) })
		}
	})
	out.Start()

	var done <-chan struct{}
	if once {
		done = first
	}
	select {
	case <-ctx.Done():
		if once && ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("no presenter answered on channel")
		}
		return nil
	case <-lost:
		logger.Warn("connection to server lost")
		return nil
	case <-done:
		return nil
	}
}
