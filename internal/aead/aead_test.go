package aead

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/KizzyCode/cryptopipe/internal/secretbuf"
)

func freshKey() *secretbuf.Buffer {
	b := secretbuf.New(32)
	for i := 0; i < 32; i++ {
		b.Bytes()[i] = byte(i * 3)
	}
	return b
}

func TestSealOpenRoundTrip(t *testing.T) {
	var algo ChaCha20Poly1305
	plaintext := []byte("the quick brown fox jumps over the lazy dog")

	buf := make([]byte, len(plaintext)+Overhead)
	copy(buf, plaintext)

	sealedLen, err := algo.Seal(buf, len(plaintext), freshKey())
	require.NoError(t, err)
	require.Equal(t, len(plaintext)+Overhead, sealedLen)

	plainLen, err := algo.Open(buf[:sealedLen], sealedLen, freshKey())
	require.NoError(t, err)
	require.Equal(t, plaintext, buf[:plainLen])
}

func TestSealEmptyChunk(t *testing.T) {
	var algo ChaCha20Poly1305
	buf := make([]byte, Overhead)

	sealedLen, err := algo.Seal(buf, 0, freshKey())
	require.NoError(t, err)
	require.Equal(t, Overhead, sealedLen)

	plainLen, err := algo.Open(buf[:sealedLen], sealedLen, freshKey())
	require.NoError(t, err)
	require.Equal(t, 0, plainLen)
}

func TestSealRejectsInsufficientCapacity(t *testing.T) {
	var algo ChaCha20Poly1305
	buf := make([]byte, 10)
	_, err := algo.Seal(buf, 10, freshKey())
	require.Error(t, err)
}

func TestOpenRejectsShortBuffer(t *testing.T) {
	var algo ChaCha20Poly1305
	_, err := algo.Open(make([]byte, 4), 4, freshKey())
	require.Error(t, err)
}

func TestOpenDetectsTamperedCiphertext(t *testing.T) {
	var algo ChaCha20Poly1305
	plaintext := []byte("sensitive payload")
	buf := make([]byte, len(plaintext)+Overhead)
	copy(buf, plaintext)

	sealedLen, err := algo.Seal(buf, len(plaintext), freshKey())
	require.NoError(t, err)

	buf[0] ^= 0xFF
	_, err = algo.Open(buf[:sealedLen], sealedLen, freshKey())
	require.ErrorContains(t, err, "Invalid authentication-tag")
}

func TestOpenDetectsTamperedTag(t *testing.T) {
	var algo ChaCha20Poly1305
	plaintext := []byte("sensitive payload")
	buf := make([]byte, len(plaintext)+Overhead)
	copy(buf, plaintext)

	sealedLen, err := algo.Seal(buf, len(plaintext), freshKey())
	require.NoError(t, err)

	buf[sealedLen-1] ^= 0xFF
	_, err = algo.Open(buf[:sealedLen], sealedLen, freshKey())
	require.ErrorContains(t, err, "Invalid authentication-tag")
}

func TestDifferentKeysProduceDifferentCiphertext(t *testing.T) {
	var algo ChaCha20Poly1305
	plaintext := []byte("same plaintext, different key")

	buf1 := make([]byte, len(plaintext)+Overhead)
	copy(buf1, plaintext)
	_, err := algo.Seal(buf1, len(plaintext), freshKey())
	require.NoError(t, err)

	key2 := secretbuf.New(32)
	for i := range key2.Bytes() {
		key2.Bytes()[i] = byte(255 - i)
	}
	buf2 := make([]byte, len(plaintext)+Overhead)
	copy(buf2, plaintext)
	_, err = algo.Seal(buf2, len(plaintext), key2)
	require.NoError(t, err)

	require.NotEqual(t, buf1, buf2)
}

func TestFromIdentifier(t *testing.T) {
	algo, err := FromIdentifier(identifierChaCha20Poly1305)
	require.NoError(t, err)
	require.Equal(t, Overhead, algo.Overhead())

	_, err = FromIdentifier("bogus")
	require.Error(t, err)
}
