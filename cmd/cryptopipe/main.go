// cryptopipe is a command-line filter: seal reads plaintext from stdin and
// writes an authenticated, password-encrypted stream to stdout; open
// reverses it.
package main

import (
	"os"

	"github.com/KizzyCode/cryptopipe/internal/cli"
)

// version is the application version reported by --version.
const version = "v1.0"

func main() {
	os.Exit(cli.Execute(version))
}
