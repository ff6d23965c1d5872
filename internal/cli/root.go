// Package cli implements the cryptopipe command-line surface: a root
// command with seal, open, and licenses subcommands, built on cobra in the
// style Picocrypt-NG uses for its own CLI layer.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KizzyCode/cryptopipe/internal/errs"
	"github.com/KizzyCode/cryptopipe/internal/log"
)

// version is set by main.go.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "cryptopipe",
	Short: "Authenticated, password-based stream encryption filter",
	Long: `cryptopipe reads a byte stream from stdin and writes an
authenticated, password-encrypted stream to stdout, or does the reverse.

It derives its key from a password with Argon2i, encrypts in
fixed-size chunks with a bespoke ChaCha20+Poly1305 construction, and
authenticates every chunk before any plaintext is released.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errs.CLI(err.Error())
	})
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Enable diagnostic logging to stderr: debug, info, warn, or error")
}

var logLevel string

func applyLogLevel() error {
	if logLevel == "" {
		return nil
	}
	var level log.Level
	switch logLevel {
	case "debug":
		level = log.LevelDebug
	case "info":
		level = log.LevelInfo
	case "warn":
		level = log.LevelWarn
	case "error":
		level = log.LevelError
	default:
		return errs.CLI("unknown --log-level value: " + logLevel)
	}
	log.SetLogger(log.NewSimpleLogger(os.Stderr, level))
	return nil
}

// Execute runs the CLI and returns the process exit code: 0 on success, 1
// on a CLI-shape error (bad flags, missing password), 2 on a runtime or
// cryptographic failure.
func Execute(v string) int {
	version = v
	rootCmd.Version = v

	err := rootCmd.Execute()
	if err == nil {
		return 0
	}

	fmt.Fprintf(os.Stderr, "cryptopipe: %v\n", err)

	var cliErr *errs.CLIError
	if errs.As(err, &cliErr) {
		fmt.Fprintln(os.Stderr)
		_ = rootCmd.Usage()
		return 1
	}
	return 2
}
