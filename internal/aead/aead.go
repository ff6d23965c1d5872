// Package aead implements the chunk-level authenticated encryption
// capability. ChaCha20Poly1305 (the bespoke construction of spec.md §4.5,
// not the IETF AEAD) is the only variant today; the capability interface
// keeps the wire format open to future algorithm identifiers without
// changing the header shape.
package aead

import (
	"github.com/KizzyCode/cryptopipe/internal/errs"
	"github.com/KizzyCode/cryptopipe/internal/primitive"
	"github.com/KizzyCode/cryptopipe/internal/secretbuf"
)

// Overhead is the number of bytes the tag adds to a chunk.
const Overhead = 16

// dataKeystreamOffset is the byte offset at which chunk data is XORed
// against the keystream. The first 64 bytes of keystream are reserved for
// deriving the Poly1305 one-time key (see oneTimeKey); reusing any of
// those bytes to encrypt data would leak part of the MAC key to a known-
// plaintext attacker. This is unrelated to Overhead, which is the size of
// the tag appended to the wire, not a keystream offset.
const dataKeystreamOffset = 64

// Algorithm identifies an AEAD capability implementation.
type Algorithm interface {
	// Algorithm returns the wire identifier.
	Algorithm() string
	// Overhead returns the number of tag bytes appended per chunk.
	Overhead() int
	// Seal encrypts and authenticates buf[:dataLen] in place, appending the
	// tag. buf must have at least Overhead() bytes of spare capacity past
	// dataLen. Returns the sealed length (dataLen + Overhead()).
	Seal(buf []byte, dataLen int, key *secretbuf.Buffer) (int, error)
	// Open verifies and decrypts buf[:sealedLen] in place. Returns the
	// plaintext length (sealedLen - Overhead()). Refuses to write any
	// plaintext before the tag has been verified.
	Open(buf []byte, sealedLen int, key *secretbuf.Buffer) (int, error)
}

const identifierChaCha20Poly1305 = "ChaCha20+Poly1305@de.KizzyCode.CryptoPipe.v1"

// ChaCha20Poly1305 is the bespoke ChaCha20+Poly1305 AEAD capability.
//
// Scheme: given the 32-byte per-chunk cipher key and an all-zero 8-byte
// nonce, compute 64 bytes of ChaCha20 keystream; the first 32 bytes are
// the Poly1305 one-time key, then the chunk is encrypted by XORing
// keystream starting at byte offset 64. The tag is computed over the
// ciphertext, not the plaintext (encrypt-then-MAC).
type ChaCha20Poly1305 struct{}

// Algorithm implements Algorithm.
func (ChaCha20Poly1305) Algorithm() string { return identifierChaCha20Poly1305 }

// Overhead implements Algorithm.
func (ChaCha20Poly1305) Overhead() int { return Overhead }

// oneTimeKey derives the Poly1305 one-time key for this chunk from the
// per-chunk cipher key. The data XOR and the tag both use the same
// underlying keystream, at disjoint byte ranges (0..32 for the MAC key,
// 64.. for the ciphertext).
func oneTimeKey(key *secretbuf.Buffer) (poly1305Key [32]byte, err error) {
	var keystream [64]byte
	var key32 [32]byte
	key.WithBytes(func(b []byte) { copy(key32[:], b) })
	var zeroNonce [8]byte
	if err = primitive.ChaCha20Xor(keystream[:], 0, key32, zeroNonce); err != nil {
		return poly1305Key, err
	}
	copy(poly1305Key[:], keystream[:32])
	return poly1305Key, nil
}

// Seal implements Algorithm.
func (ChaCha20Poly1305) Seal(buf []byte, dataLen int, key *secretbuf.Buffer) (int, error) {
	if len(buf)-dataLen < Overhead {
		return 0, errs.InvalidParameter("aead: insufficient spare capacity for tag")
	}

	polyKey, err := oneTimeKey(key)
	if err != nil {
		return 0, err
	}

	var key32 [32]byte
	key.WithBytes(func(b []byte) { copy(key32[:], b) })
	var zeroNonce [8]byte
	if err := primitive.ChaCha20Xor(buf[:dataLen], dataKeystreamOffset, key32, zeroNonce); err != nil {
		return 0, err
	}

	tag := primitive.Poly1305Tag(buf[:dataLen], polyKey)
	copy(buf[dataLen:dataLen+Overhead], tag[:])

	return dataLen + Overhead, nil
}

// Open implements Algorithm.
func (ChaCha20Poly1305) Open(buf []byte, sealedLen int, key *secretbuf.Buffer) (int, error) {
	if sealedLen < Overhead {
		return 0, errs.InvalidData("Invalid authentication-tag")
	}
	dataLen := sealedLen - Overhead

	polyKey, err := oneTimeKey(key)
	if err != nil {
		return 0, err
	}

	wantTag := primitive.Poly1305Tag(buf[:dataLen], polyKey)
	gotTag := buf[dataLen:sealedLen]
	if !primitive.CompareConstantTime(wantTag[:], gotTag) {
		return 0, errs.InvalidData("Invalid authentication-tag")
	}

	var key32 [32]byte
	key.WithBytes(func(b []byte) { copy(key32[:], b) })
	var zeroNonce [8]byte
	if err := primitive.ChaCha20Xor(buf[:dataLen], dataKeystreamOffset, key32, zeroNonce); err != nil {
		return 0, err
	}

	return dataLen, nil
}

// FromIdentifier reconstructs an AEAD capability from a wire identifier.
func FromIdentifier(identifier string) (Algorithm, error) {
	switch identifier {
	case identifierChaCha20Poly1305:
		return ChaCha20Poly1305{}, nil
	default:
		return nil, errs.Unsupported("aead: unknown algorithm identifier " + identifier)
	}
}
