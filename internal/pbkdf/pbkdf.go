// Package pbkdf implements the password-based key derivation capability.
// Argon2i v1.3 is the only variant today; the capability interface keeps
// the wire format open to future algorithm identifiers without changing
// the header shape (see header.Header's PBKDF field).
package pbkdf

import (
	"github.com/KizzyCode/cryptopipe/internal/errs"
	"github.com/KizzyCode/cryptopipe/internal/primitive"
	"github.com/KizzyCode/cryptopipe/internal/secretbuf"
)

// MasterKeySize is the size, in bytes, of the derived master key.
const MasterKeySize = 32

// NonceSize is the size, in bytes, of the Argon2i salt.
const NonceSize = 32

// Algorithm identifies a PBKDF capability implementation.
type Algorithm interface {
	// Algorithm returns the wire identifier, e.g. "Argon2i@v1.3".
	Algorithm() string
	// Derive consumes password (zeroizing it before returning) and produces
	// the 32-byte master key.
	Derive(password *secretbuf.Buffer) (*secretbuf.Buffer, error)
	// Params returns the wire-serializable parameters for this instance.
	Params() Params
}

// Params is the header fragment carried on the wire for pbkdf_info.
type Params struct {
	Identifier  string
	Nonce       []byte
	TimeCost    uint32
	MemoryCost  uint32 // mebibytes, as carried on the wire
	Parallelism uint32
}

const identifierArgon2i = "Argon2i@v1.3"

// Argon2i is the Argon2i v1.3 PBKDF capability.
type Argon2i struct {
	nonce       []byte
	timeCost    uint32
	memoryCost  uint32 // mebibytes
	parallelism uint32
}

// New creates an Argon2i instance with a freshly generated 32-byte nonce.
func New(timeCost, memoryCostMiB, parallelism uint32) (*Argon2i, error) {
	nonce := make([]byte, NonceSize)
	if err := primitive.Random(nonce); err != nil {
		return nil, err
	}
	return WithNonce(nonce, timeCost, memoryCostMiB, parallelism)
}

// WithNonce creates an Argon2i instance with an explicit nonce, for
// deterministic reconstruction on decrypt and for tests.
func WithNonce(nonce []byte, timeCost, memoryCostMiB, parallelism uint32) (*Argon2i, error) {
	if len(nonce) != NonceSize {
		return nil, errs.InvalidParameter("argon2i: nonce must be 32 bytes")
	}
	return &Argon2i{
		nonce:       append([]byte(nil), nonce...),
		timeCost:    timeCost,
		memoryCost:  memoryCostMiB,
		parallelism: parallelism,
	}, nil
}

// Algorithm implements Algorithm.
func (a *Argon2i) Algorithm() string { return identifierArgon2i }

// Params implements Algorithm.
func (a *Argon2i) Params() Params {
	return Params{
		Identifier:  identifierArgon2i,
		Nonce:       append([]byte(nil), a.nonce...),
		TimeCost:    a.timeCost,
		MemoryCost:  a.memoryCost,
		Parallelism: a.parallelism,
	}
}

// Derive implements Algorithm. The password buffer is released (zeroized)
// before Derive returns, regardless of outcome.
func (a *Argon2i) Derive(password *secretbuf.Buffer) (*secretbuf.Buffer, error) {
	defer password.Release()

	if primitive.ChaCha20MemoryCostOverflow(a.memoryCost) {
		return nil, errs.Unsupported("argon2i: memory cost overflows 32-bit kibibyte representation")
	}
	const kibPerMib = 1024
	mCostKiB := a.memoryCost * kibPerMib

	out := secretbuf.New(MasterKeySize)
	var err error
	password.WithBytes(func(pw []byte) {
		err = primitive.Argon2iV13(out.Bytes(), pw, a.nonce, a.timeCost, mCostKiB, a.parallelism)
	})
	if err != nil {
		out.Release()
		return nil, err
	}

	return out, nil
}

// FromParams reconstructs an Argon2i instance from wire parameters, e.g.
// after header.Decode on decrypt. It fails Unsupported on an unrecognized
// identifier and InvalidData on a malformed shape.
func FromParams(p Params) (Algorithm, error) {
	switch p.Identifier {
	case identifierArgon2i:
		if len(p.Nonce) != NonceSize {
			return nil, errs.InvalidData("pbkdf: malformed Argon2i nonce")
		}
		if p.TimeCost == 0 || p.MemoryCost == 0 || p.Parallelism == 0 {
			return nil, errs.InvalidData("pbkdf: malformed Argon2i parameters")
		}
		return WithNonce(p.Nonce, p.TimeCost, p.MemoryCost, p.Parallelism)
	default:
		return nil, errs.Unsupported("pbkdf: unknown algorithm identifier " + p.Identifier)
	}
}
