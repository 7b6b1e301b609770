package cmd

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/example/vicroadsq/internal/crypto"
	"github.com/spf13/cobra"
)

func newKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "Generate a VICROADSQ_SEAL_KEY value (base64)",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := crypto.GenerateKey()
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "export VICROADSQ_SEAL_KEY=%s\n", base64.StdEncoding.EncodeToString(key))
			return nil
		},
	}
}
