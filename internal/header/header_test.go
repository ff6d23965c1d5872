package header

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/KizzyCode/cryptopipe/internal/pbkdf"
)

func sampleHeader(t *testing.T) Header {
	t.Helper()
	return Header{
		Version: Version,
		PBKDF: pbkdf.Params{
			Identifier:  "Argon2i@v1.3",
			Nonce:       []byte("This is an 32-byte nonce-text :P"),
			TimeCost:    8,
			MemoryCost:  256,
			Parallelism: 4,
		},
		KDFIdentifier:  "HMAC-SHA2-512",
		AEADIdentifier: "ChaCha20+Poly1305@de.KizzyCode.CryptoPipe.v1",
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	h := sampleHeader(t)
	encoded, err := Encode(h)
	require.NoError(t, err)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, h, *decoded)
}

func TestEncodeRejectsWrongVersion(t *testing.T) {
	h := sampleHeader(t)
	h.Version = "de.KizzyCode.CryptoPipe.v2"
	encoded, err := Encode(h)
	require.Error(t, err) // Encode itself refuses unknown versions.
	require.Nil(t, encoded)
}

func TestDecodeRejectsUnknownVersionOnWire(t *testing.T) {
	h := sampleHeader(t)
	encoded, err := Encode(h)
	require.NoError(t, err)

	// Tamper with the version string embedded in the wire bytes directly,
	// bypassing Encode's own check, to exercise Decode's rejection path.
	tampered := make([]byte, len(encoded))
	copy(tampered, encoded)
	idx := indexOf(tampered, []byte(Version))
	require.GreaterOrEqual(t, idx, 0)
	tampered[idx] = 'X'

	_, err = Decode(tampered)
	require.Error(t, err)
}

func TestDecodeRejectsTrailingData(t *testing.T) {
	h := sampleHeader(t)
	encoded, err := Encode(h)
	require.NoError(t, err)

	_, err = Decode(append(encoded, 0x00))
	require.Error(t, err)
}

func TestDecodeRejectsUnknownAlgorithmIdentifiers(t *testing.T) {
	h := sampleHeader(t)
	h.KDFIdentifier = "HMAC-SHA3-256"
	encoded, err := Encode(h)
	require.NoError(t, err)
	_, err = Decode(encoded)
	require.Error(t, err)
}

func TestDecodeLengthIncremental(t *testing.T) {
	h := sampleHeader(t)
	encoded, err := Encode(h)
	require.NoError(t, err)

	var prefix []byte
	var total int
	var complete bool
	for i := 0; i < len(encoded); i++ {
		prefix = append(prefix, encoded[i])
		total, complete, err = DecodeLength(prefix)
		require.NoError(t, err)
		if complete {
			break
		}
	}
	require.True(t, complete)
	require.Equal(t, len(encoded), total)
}

func TestDecodeLengthRejectsNonSequenceTag(t *testing.T) {
	_, _, err := DecodeLength([]byte{0x04, 0x05})
	require.Error(t, err)
}

func TestDecodeLengthRejectsIndefiniteLength(t *testing.T) {
	_, _, err := DecodeLength([]byte{0x30, 0x80})
	require.Error(t, err)
}

func TestDecodeLengthRejectsImplausiblyLargeLength(t *testing.T) {
	_, _, err := DecodeLength([]byte{0x30, 0x85, 1, 2, 3, 4, 5})
	require.Error(t, err)
}

func TestDecodeLengthWaitsForMoreBytes(t *testing.T) {
	total, complete, err := DecodeLength([]byte{0x30})
	require.NoError(t, err)
	require.False(t, complete)
	require.Equal(t, 0, total)

	// Long form needs its length-of-length bytes too.
	total, complete, err = DecodeLength([]byte{0x30, 0x82, 0x01})
	require.NoError(t, err)
	require.False(t, complete)
	require.Equal(t, 0, total)
}

func indexOf(haystack, needle []byte) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
