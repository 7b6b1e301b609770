package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/example/vicroadsq/internal/alert"
	"github.com/spf13/cobra"
)

func newBeepCmd(opts *rootOptions) *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "beep",
		Short: "Play the warning and alert tones to check they are audible",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			bell := &alert.Bell{Out: os.Stdout, Alert: a.cfg.AlertBeep, Warning: a.cfg.WarningBeep, Log: a.log}

			fmt.Printf("waiting %s before playing tones...\n", wait)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}

			fmt.Println("warning tone: you only hear this when the poller is about to give up")
			bell.Warn(ctx)
			fmt.Println("alert tone: you only hear this when a viable appointment is found")
			bell.Success(ctx)
			return nil
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 5*time.Second, "delay before the tones play")
	return cmd
}
