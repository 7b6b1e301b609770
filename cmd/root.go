package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/example/vicroadsq/internal/config"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

type rootOptions struct {
	configPath string
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "vicroadsq",
		Short:         "Polls the VicRoads booking portal and alerts when a test slot inside your window opens up",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultPath, "path to the YAML config file")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newKeysCmd())
	root.AddCommand(newSealCmd())
	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newOfficesCmd(opts))
	root.AddCommand(newBeepCmd(opts))
	root.AddCommand(newHistoryCmd(opts))

	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		if errors.Is(err, config.ErrDefaultConfig) {
			fmt.Fprintln(os.Stderr, "a default configuration has been written; fill in your details and run again")
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
