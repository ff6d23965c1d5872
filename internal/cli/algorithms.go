package cli

import "github.com/KizzyCode/cryptopipe/internal/errs"

// The --pbkdf-algo/--kdf-algo/--auth-enc-algo flags take short, memorable
// names and are translated to the full wire identifiers here, keeping the
// wire identifiers themselves (header.Version-scoped) out of user-facing
// help text.

func kdfIdentifierForFlag(name string) (string, error) {
	switch name {
	case "HMAC-SHA512":
		return "HMAC-SHA2-512", nil
	default:
		return "", errs.CLI("unknown --kdf-algo value: " + name)
	}
}

func aeadIdentifierForFlag(name string) (string, error) {
	switch name {
	case "ChaChaPoly":
		return "ChaCha20+Poly1305@de.KizzyCode.CryptoPipe.v1", nil
	default:
		return "", errs.CLI("unknown --auth-enc-algo value: " + name)
	}
}

func pbkdfAlgoValid(name string) error {
	switch name {
	case "Argon2i":
		return nil
	default:
		return errs.CLI("unknown --pbkdf-algo value: " + name)
	}
}
