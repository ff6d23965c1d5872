// Package kdf implements the per-chunk key derivation capability and the
// stream-internal key schedule built on top of it. HMAC-SHA-512 is the
// only variant today; the capability interface keeps the wire format open
// to future algorithm identifiers without changing the header shape.
package kdf

import (
	"encoding/binary"

	"github.com/KizzyCode/cryptopipe/internal/errs"
	"github.com/KizzyCode/cryptopipe/internal/primitive"
	"github.com/KizzyCode/cryptopipe/internal/secretbuf"
)

// lastChunkInfo is the literal ASCII info string appended for the
// terminal chunk, domain-separating its key from any non-terminal chunk
// over identical plaintext.
const lastChunkInfo = "#Last Chunk"

// Algorithm identifies a KDF capability implementation.
type Algorithm interface {
	// Algorithm returns the wire identifier, e.g. "HMAC-SHA2-512".
	Algorithm() string
	// Derive computes HMAC(baseKey, info), truncated to 32 bytes.
	Derive(baseKey, info []byte) *secretbuf.Buffer
}

const identifierHmacSha512 = "HMAC-SHA2-512"

// HmacSha512 is the HMAC-SHA-512 KDF capability.
type HmacSha512 struct{}

// Algorithm implements Algorithm.
func (HmacSha512) Algorithm() string { return identifierHmacSha512 }

// Derive implements Algorithm.
func (HmacSha512) Derive(baseKey, info []byte) *secretbuf.Buffer {
	var full [64]byte
	primitive.HmacSha512(&full, info, baseKey)
	out := secretbuf.New(32)
	out.WithBytes(func(data []byte) { copy(data, full[:32]) })
	return out
}

// FromIdentifier reconstructs a KDF capability from a wire identifier.
func FromIdentifier(identifier string) (Algorithm, error) {
	switch identifier {
	case identifierHmacSha512:
		return HmacSha512{}, nil
	default:
		return nil, errs.Unsupported("kdf: unknown algorithm identifier " + identifier)
	}
}

// scheduleState tracks where a KeySchedule is in its Armed -> Spent
// lifecycle.
type scheduleState int

const (
	stateArmed scheduleState = iota
	stateSpent
)

// KeySchedule is the stream-internal key schedule built on top of the KDF
// capability. It derives a fresh (cipher_key, mac_key) pair per chunk,
// with domain separation on the final chunk.
//
// State machine: Armed -> Armed -> ... -> Spent. Spent rejects further
// Next() calls - that is a programming error, not a recoverable one.
type KeySchedule struct {
	algo    Algorithm
	baseKey *secretbuf.Buffer
	counter uint64
	state   scheduleState
}

// NewKeySchedule arms a key schedule over baseKey. The schedule takes
// ownership of baseKey; the caller must not use it again.
func NewKeySchedule(algo Algorithm, baseKey *secretbuf.Buffer) *KeySchedule {
	return &KeySchedule{algo: algo, baseKey: baseKey, state: stateArmed}
}

// ChunkKeys holds the (cipher_key, mac_key) pair derived by Next, per
// spec.md §4.4 step 3. CipherKey is the ChaCha20 data key handed to the
// AEAD module (see aead.Seal/aead.Open); MacKey is the Poly1305 one-time
// key from this same keystream and is carried for wire-contract fidelity,
// since AEAD derives its own one-time key fresh from CipherKey.
type ChunkKeys struct {
	CipherKey *secretbuf.Buffer // 32 bytes
	MacKey    *secretbuf.Buffer // 32 bytes
}

// Release zeroizes both subkeys.
func (k ChunkKeys) Release() {
	k.CipherKey.Release()
	k.MacKey.Release()
}

// Next derives the key pair for the next chunk. isLast must be true for
// exactly the final chunk of the stream; after that call the schedule's
// base key is released and Next must not be called again.
func (s *KeySchedule) Next(isLast bool) (ChunkKeys, error) {
	if s.state == stateSpent {
		panic("kdf: KeySchedule.Next called after the schedule was spent")
	}

	info := infoBlock(s.counter, isLast)
	var perChunkKey *secretbuf.Buffer
	s.baseKey.WithBytes(func(base []byte) {
		perChunkKey = s.algo.Derive(base, info)
	})
	defer perChunkKey.Release()

	// Derive (mac_key, data_key) from perChunkKey by computing 64 bytes of
	// ChaCha20 keystream at byte offset 0, nonce all-zero.
	keystream := make([]byte, 64)
	var key32 [32]byte
	perChunkKey.WithBytes(func(b []byte) { copy(key32[:], b) })
	var zeroNonce [8]byte
	if err := primitive.ChaCha20Xor(keystream, 0, key32, zeroNonce); err != nil {
		return ChunkKeys{}, err
	}

	macKey := secretbuf.New(32)
	macKey.WithBytes(func(b []byte) { copy(b, keystream[:32]) })
	cipherKey := secretbuf.New(32)
	cipherKey.WithBytes(func(b []byte) { copy(b, keystream[32:64]) })

	s.counter++
	if isLast {
		s.baseKey.Release()
		s.state = stateSpent
	}

	return ChunkKeys{CipherKey: cipherKey, MacKey: macKey}, nil
}

// Release wipes the schedule's base key if it has not already been spent.
// Callers should defer this immediately after NewKeySchedule so that an
// early return mid-stream (a read, auth, or write failure before the
// final chunk) still zeroizes the base key; it is a no-op once Next has
// already consumed it via the final chunk.
func (s *KeySchedule) Release() {
	if s.state != stateSpent {
		s.baseKey.Release()
		s.state = stateSpent
	}
}

// infoBlock builds the 8-byte big-endian counter followed by the literal
// last-chunk info string, or nothing for non-terminal chunks.
func infoBlock(counter uint64, isLast bool) []byte {
	info := make([]byte, 8, 8+len(lastChunkInfo))
	binary.BigEndian.PutUint64(info, counter)
	if isLast {
		info = append(info, lastChunkInfo...)
	}
	return info
}
