package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/KizzyCode/cryptopipe/internal/engine"
)

var sealCmd = &cobra.Command{
	Use:   "seal",
	Short: "Read plaintext from stdin and write an authenticated, encrypted stream to stdout",
	Long: `seal reads the whole of stdin, encrypts it in fixed-size chunks
under a key derived from the given password, and writes the resulting
stream - header followed by chunks - to stdout.

Examples:
  cryptopipe seal --password "correct horse battery staple" < plain.bin > sealed.bin
  echo -n "hello" | cryptopipe seal --password "$PASS" | cryptopipe open --password "$PASS"`,
	RunE:         runSeal,
	SilenceUsage: true,
}

var (
	sealPassword    string
	sealTimeCost    uint32
	sealMemoryCost  uint32
	sealParallelism uint32
	sealPBKDFAlgo   string
	sealKDFAlgo     string
	sealAEADAlgo    string
)

func init() {
	rootCmd.AddCommand(sealCmd)

	sealCmd.Flags().StringVar(&sealPassword, "password", "", "Password to derive the encryption key from (falls back to $CRYPTO_PIPE_PASSWORD)")
	sealCmd.Flags().Uint32Var(&sealTimeCost, "pbkdf-time-cost", 8, "Argon2i time cost (iterations)")
	sealCmd.Flags().Uint32Var(&sealMemoryCost, "pbkdf-memory-cost", 256, "Argon2i memory cost, in mebibytes")
	sealCmd.Flags().Uint32Var(&sealParallelism, "pbkdf-parallelism", 4, "Argon2i parallelism (lanes)")
	sealCmd.Flags().StringVar(&sealPBKDFAlgo, "pbkdf-algo", "Argon2i", "Password-based key derivation algorithm")
	sealCmd.Flags().StringVar(&sealKDFAlgo, "kdf-algo", "HMAC-SHA512", "Per-chunk key derivation algorithm")
	sealCmd.Flags().StringVar(&sealAEADAlgo, "auth-enc-algo", "ChaChaPoly", "Authenticated encryption algorithm")
}

func runSeal(cmd *cobra.Command, args []string) error {
	if err := applyLogLevel(); err != nil {
		return err
	}
	if err := pbkdfAlgoValid(sealPBKDFAlgo); err != nil {
		return err
	}
	kdfID, err := kdfIdentifierForFlag(sealKDFAlgo)
	if err != nil {
		return err
	}
	aeadID, err := aeadIdentifierForFlag(sealAEADAlgo)
	if err != nil {
		return err
	}

	password, err := resolvePassword(sealPassword)
	if err != nil {
		return err
	}

	params := engine.SealParams{
		PBKDFTimeCost:    sealTimeCost,
		PBKDFMemoryCost:  sealMemoryCost,
		PBKDFParallelism: sealParallelism,
		KDFIdentifier:    kdfID,
		AEADIdentifier:   aeadID,
	}
	return engine.New().Seal(os.Stdin, os.Stdout, password, params)
}
