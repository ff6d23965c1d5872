// Package primitive wraps the cryptographic building blocks CryptoPipe is
// built on - Argon2i, ChaCha20, Poly1305, HMAC-SHA-512, the system CSPRNG,
// and constant-time comparison - behind the thin contracts the higher
// layers (pbkdf, kdf, aead) are written against. None of the wrappers
// retain a reference to their arguments past return.
package primitive

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"math"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/poly1305"

	"github.com/KizzyCode/cryptopipe/internal/errs"
)

// Argon2iV13 fills out with Argon2i v1.3 derived bytes.
//
// mCostKiB is the memory cost in kibibytes, already converted from the
// wire's mebibyte unit by the caller (see pbkdf.Argon2i).
func Argon2iV13(out, password, salt []byte, tCost, mCostKiB, parallelism uint32) error {
	if tCost == 0 || parallelism == 0 {
		return errs.InvalidParameter("argon2i: time cost and parallelism must be non-zero")
	}
	if mCostKiB == 0 {
		return errs.InvalidParameter("argon2i: memory cost must be non-zero")
	}
	if parallelism > math.MaxUint8 {
		return errs.Unsupported("argon2i: parallelism exceeds platform limit")
	}

	derived := argon2.Key(password, salt, tCost, mCostKiB, uint8(parallelism), uint32(len(out)))
	if len(derived) != len(out) {
		// argon2.Key never returns a short slice for a non-zero request; this
		// would only trip if the primitive itself misbehaved.
		return errs.Resource("argon2i", errs.InvalidParameter("short key material"))
	}
	copy(out, derived)
	return nil
}

// ChaCha20MemoryCostOverflow reports whether a wire mebibyte value would
// overflow the kibibyte representation Argon2i is called with on this
// platform (uint32 kibibytes).
func ChaCha20MemoryCostOverflow(mCostMiB uint32) bool {
	const kibPerMib = 1024
	return uint64(mCostMiB)*kibPerMib > math.MaxUint32
}

// ChaCha20Xor XORs the ChaCha20 keystream, starting at the given byte
// offset into the keystream, into buf in place. ChaCha20 is internally
// block-addressed (64-byte blocks); this adapter honors non-block-aligned
// byte offsets by generating the keystream for the containing block and
// discarding the unneeded prefix of its first (possibly partial) block.
//
// The underlying library only exposes the IETF variant, which takes a
// 12-byte nonce and a 32-bit block counter. The bespoke wire format of
// spec.md §4.2 specifies an 8-byte nonce with byte-offset addressing; this
// adapter embeds it as the low 8 bytes of the IETF nonce (the high 4 bytes
// are always zero) and requires the resulting block index to fit a uint32,
// which every caller in this module satisfies (chunks are at most 1 MiB,
// so the largest offset used is 64 bytes of keystream).
func ChaCha20Xor(buf []byte, byteOffset uint64, key [32]byte, nonce [8]byte) error {
	if len(buf) == 0 {
		return nil
	}

	const blockSize = 64
	blockIndex := byteOffset / blockSize
	blockSkip := int(byteOffset % blockSize)
	if blockIndex > math.MaxUint32 {
		return errs.InvalidParameter("chacha20: byte offset out of range")
	}

	var ietfNonce [12]byte
	copy(ietfNonce[4:], nonce[:])

	cipher, err := chacha20.NewUnauthenticatedCipher(key[:], ietfNonce[:])
	if err != nil {
		return errs.InvalidParameter("chacha20: " + err.Error())
	}
	cipher.SetCounter(uint32(blockIndex))

	if blockSkip == 0 {
		cipher.XORKeyStream(buf, buf)
		return nil
	}

	// Generate the keystream for the containing block (plus every following
	// block buf spans), then XOR the part past the skipped prefix into buf.
	// This must be an XOR, not a copy: copying would overwrite buf with raw
	// keystream instead of combining it with buf's existing contents.
	scratch := make([]byte, blockSkip+len(buf))
	cipher.XORKeyStream(scratch, scratch)
	for i := range buf {
		buf[i] ^= scratch[blockSkip+i]
	}
	return nil
}

// Poly1305Tag computes a one-time Poly1305 MAC over data using key.
func Poly1305Tag(data []byte, key [32]byte) [16]byte {
	var out [16]byte
	poly1305.Sum(&out, data, &key)
	return out
}

// HmacSha512 computes HMAC-SHA-512(key, data), writing the full 64-byte
// output into out.
func HmacSha512(out *[64]byte, data, key []byte) {
	mac := hmac.New(sha512.New, key)
	mac.Write(data)
	sum := mac.Sum(nil)
	copy(out[:], sum)
}

// Random fills buf with cryptographically secure random bytes.
func Random(buf []byte) error {
	if _, err := rand.Read(buf); err != nil {
		return errs.Resource("random", err)
	}
	return nil
}

// CompareConstantTime reports whether a and b are equal, in time
// independent of their contents. When the lengths differ it returns false
// immediately, without comparing any contents.
func CompareConstantTime(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
