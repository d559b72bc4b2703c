package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/moasq/appcenter-postbuild/internal/watcher"
)

var debounceFlag time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch <target> <output-path>",
	Short: "Re-run the post-build pass whenever the output is regenerated",
	Long:  "Runs once, then watches the output directory and re-runs after each burst of writes settles. Idempotency makes repeated runs safe. Stop with Ctrl-C.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc := newService()
		target, output := args[0], args[1]

		runOnce := func(ctx context.Context) error {
			log, out := newLogger(uuid.NewString())
			return svc.Run(ctx, target, output, log, out)
		}
		if err := runOnce(ctx); err != nil {
			return err
		}

		log, _ := newLogger("watch")
		w, err := watcher.New(output, debounceFlag, log, func(ctx context.Context) {
			if err := runOnce(ctx); err != nil {
				log.Error(fmt.Sprintf("Post-build run failed: %v", err))
			}
		})
		if err != nil {
			return err
		}
		return w.Run(ctx)
	},
}

func init() {
	watchCmd.Flags().DurationVar(&debounceFlag, "debounce", watcher.DefaultDebounce, "quiet period before re-running")
}
