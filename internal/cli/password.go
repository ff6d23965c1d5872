package cli

import (
	"os"

	"github.com/KizzyCode/cryptopipe/internal/errs"
	"github.com/KizzyCode/cryptopipe/internal/secretbuf"
)

// passwordEnvVar is the fallback source for the password when --password is
// not given. CryptoPipe never prompts interactively: stdin is the data
// stream being sealed or opened, not a place to read a typed password from.
const passwordEnvVar = "CRYPTO_PIPE_PASSWORD"

// resolvePassword copies flagValue, or $CRYPTO_PIPE_PASSWORD when flagValue
// is empty, into a Buffer; the source string itself is not wiped. It never
// logs or echoes the password back.
func resolvePassword(flagValue string) (*secretbuf.Buffer, error) {
	if flagValue != "" {
		return secretbuf.FromBytes([]byte(flagValue)), nil
	}
	if env, ok := os.LookupEnv(passwordEnvVar); ok && env != "" {
		return secretbuf.FromBytes([]byte(env)), nil
	}
	return nil, errs.CLI("a password is required: pass --password or set " + passwordEnvVar)
}
