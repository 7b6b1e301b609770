package cmd

import (
	"fmt"
	"os"

	"github.com/example/vicroadsq/internal/crypto"
	"github.com/spf13/cobra"
)

func newSealCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seal <licence-number>",
		Short: "Encrypt a licence number for license_number using VICROADSQ_SEAL_KEY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := os.Getenv("VICROADSQ_SEAL_KEY")
			if key == "" {
				return fmt.Errorf("VICROADSQ_SEAL_KEY is required, generate one with: vicroadsq keys")
			}
			a, err := crypto.NewFromBase64(key)
			if err != nil {
				return err
			}
			sealed, err := a.Seal(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "license_number: %q\n", sealed)
			return nil
		},
	}
}
