package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/KizzyCode/cryptopipe/internal/engine"
)

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Read a sealed stream from stdin, verify it, and write the plaintext to stdout",
	Long: `open reads the stream header, then every chunk in turn from stdin,
authenticating each chunk before any of its plaintext is written to stdout.
A tampered, truncated, or wrong-password stream fails before anything
corresponding to it is released.

Example:
  cryptopipe open --password "correct horse battery staple" < sealed.bin > plain.bin`,
	RunE:         runOpen,
	SilenceUsage: true,
}

var openPassword string

func init() {
	rootCmd.AddCommand(openCmd)
	openCmd.Flags().StringVar(&openPassword, "password", "", "Password to derive the decryption key from (falls back to $CRYPTO_PIPE_PASSWORD)")
}

func runOpen(cmd *cobra.Command, args []string) error {
	if err := applyLogLevel(); err != nil {
		return err
	}
	password, err := resolvePassword(openPassword)
	if err != nil {
		return err
	}
	return engine.New().Open(os.Stdin, os.Stdout, password)
}
