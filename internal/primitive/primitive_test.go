package primitive

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArgon2iDeterministic(t *testing.T) {
	password := []byte("correct horse battery staple")
	salt := bytes.Repeat([]byte{0x42}, 32)

	var out1, out2 [32]byte
	require.NoError(t, Argon2iV13(out1[:], password, salt, 1, 8*1024, 1))
	require.NoError(t, Argon2iV13(out2[:], password, salt, 1, 8*1024, 1))
	require.Equal(t, out1, out2)
	require.NotEqual(t, [32]byte{}, out1)
}

func TestArgon2iRejectsZeroParameters(t *testing.T) {
	var out [32]byte
	require.Error(t, Argon2iV13(out[:], []byte("pw"), make([]byte, 32), 0, 1024, 1))
	require.Error(t, Argon2iV13(out[:], []byte("pw"), make([]byte, 32), 1, 0, 1))
	require.Error(t, Argon2iV13(out[:], []byte("pw"), make([]byte, 32), 1, 1024, 0))
}

func TestChaCha20XorRoundTrips(t *testing.T) {
	var key [32]byte
	var nonce [8]byte
	for i := range key {
		key[i] = byte(i)
	}
	for i := range nonce {
		nonce[i] = byte(i + 1)
	}

	plaintext := bytes.Repeat([]byte("hello world "), 20)
	ciphertext := append([]byte(nil), plaintext...)

	require.NoError(t, ChaCha20Xor(ciphertext, 0, key, nonce))
	require.NotEqual(t, plaintext, ciphertext)

	decrypted := append([]byte(nil), ciphertext...)
	require.NoError(t, ChaCha20Xor(decrypted, 0, key, nonce))
	require.Equal(t, plaintext, decrypted)
}

func TestChaCha20XorBlockAlignedOffsetMatchesDirectKeystream(t *testing.T) {
	var key [32]byte
	var nonce [8]byte
	key[0] = 1
	nonce[0] = 2

	// keystream over [0, 96) should equal keystream over [64, 96) when
	// re-requested at offset 64.
	full := make([]byte, 96)
	require.NoError(t, ChaCha20Xor(full, 0, key, nonce))

	tail := make([]byte, 32)
	require.NoError(t, ChaCha20Xor(tail, 64, key, nonce))

	require.Equal(t, full[64:96], tail)
}

func TestChaCha20XorNonBlockAlignedOffset(t *testing.T) {
	var key [32]byte
	var nonce [8]byte

	full := make([]byte, 100)
	require.NoError(t, ChaCha20Xor(full, 0, key, nonce))

	tail := make([]byte, 30)
	require.NoError(t, ChaCha20Xor(tail, 70, key, nonce))

	require.Equal(t, full[70:100], tail)
}

func TestPoly1305Deterministic(t *testing.T) {
	var key [32]byte
	key[0] = 7
	data := []byte("authenticate me")

	tag1 := Poly1305Tag(data, key)
	tag2 := Poly1305Tag(data, key)
	require.Equal(t, tag1, tag2)

	tamperedData := append([]byte(nil), data...)
	tamperedData[0] ^= 0xFF
	tag3 := Poly1305Tag(tamperedData, key)
	require.NotEqual(t, tag1, tag3)
}

func TestHmacSha512Deterministic(t *testing.T) {
	var out1, out2 [64]byte
	key := []byte("key-material-32-bytes-long-xxxx")
	HmacSha512(&out1, []byte("data"), key)
	HmacSha512(&out2, []byte("data"), key)
	require.Equal(t, out1, out2)
	require.NotEqual(t, [64]byte{}, out1)
}

func TestRandomProducesDistinctBuffers(t *testing.T) {
	a := make([]byte, 32)
	b := make([]byte, 32)
	require.NoError(t, Random(a))
	require.NoError(t, Random(b))
	require.NotEqual(t, a, b)
}

func TestCompareConstantTime(t *testing.T) {
	require.True(t, CompareConstantTime([]byte("abc"), []byte("abc")))
	require.False(t, CompareConstantTime([]byte("abc"), []byte("abd")))
	require.False(t, CompareConstantTime([]byte("abc"), []byte("ab")))
}
