// Package header implements the DER-encoded stream header: a SEQUENCE
// enumerating the container version and the wire parameters of the
// PBKDF, KDF, and AEAD capabilities in use for the stream that follows.
package header

import (
	"encoding/asn1"

	"github.com/KizzyCode/cryptopipe/internal/aead"
	"github.com/KizzyCode/cryptopipe/internal/errs"
	"github.com/KizzyCode/cryptopipe/internal/kdf"
	"github.com/KizzyCode/cryptopipe/internal/pbkdf"
)

// Version is the only container version this implementation accepts. Any
// other value on the wire fails Unsupported.
const Version = "de.KizzyCode.CryptoPipe.v1"

// MaxLen bounds the header length this implementation will accept,
// independent of what the DER length prefix claims. This protects an
// incremental reader from a denial-of-service via a maliciously large
// leading length (see spec.md §9).
const MaxLen = 4 << 20 // 4 MiB

// Header is the parsed, in-memory form of the stream header.
type Header struct {
	Version        string
	PBKDF          pbkdf.Params
	KDFIdentifier  string
	AEADIdentifier string
}

// asn1 wire shapes. Each capability's wire fragment is a SEQUENCE whose
// first element is a UTF8String identifier; this mirrors the capability
// dispatch pattern used throughout the crypto layer, so that a future
// algorithm identifier can be added without changing the header's outer
// shape.
type wireHeader struct {
	Version string `asn1:"utf8"`
	PBKDF   asn1.RawValue
	KDF     asn1.RawValue
	AEAD    asn1.RawValue
}

type wirePBKDFFragment struct {
	Identifier string `asn1:"utf8"`
	Params     wireArgon2iParams
}

type wireArgon2iParams struct {
	Nonce       []byte
	TimeCost    int
	MemoryCost  int
	Parallelism int
}

type wireIdentifierOnlyFragment struct {
	Identifier string `asn1:"utf8"`
}

// Encode serializes a complete stream header to DER.
func Encode(h Header) ([]byte, error) {
	if h.Version != Version {
		return nil, errs.Unsupported("header: unknown container version")
	}

	pbkdfBytes, err := encodePBKDF(h.PBKDF)
	if err != nil {
		return nil, err
	}
	kdfBytes, err := asn1.Marshal(wireIdentifierOnlyFragment{Identifier: h.KDFIdentifier})
	if err != nil {
		return nil, errs.InvalidParameter("header: encode kdf fragment: " + err.Error())
	}
	aeadBytes, err := asn1.Marshal(wireIdentifierOnlyFragment{Identifier: h.AEADIdentifier})
	if err != nil {
		return nil, errs.InvalidParameter("header: encode aead fragment: " + err.Error())
	}

	wire := wireHeader{
		Version: h.Version,
		PBKDF:   asn1.RawValue{FullBytes: pbkdfBytes},
		KDF:     asn1.RawValue{FullBytes: kdfBytes},
		AEAD:    asn1.RawValue{FullBytes: aeadBytes},
	}

	out, err := asn1.Marshal(wire)
	if err != nil {
		return nil, errs.InvalidParameter("header: encode: " + err.Error())
	}
	return out, nil
}

func encodePBKDF(p pbkdf.Params) ([]byte, error) {
	if len(p.Nonce) > 1<<16 {
		return nil, errs.InvalidParameter("header: pbkdf nonce implausibly large")
	}
	frag := wirePBKDFFragment{
		Identifier: p.Identifier,
		Params: wireArgon2iParams{
			Nonce:       p.Nonce,
			TimeCost:    int(p.TimeCost),
			MemoryCost:  int(p.MemoryCost),
			Parallelism: int(p.Parallelism),
		},
	}
	out, err := asn1.Marshal(frag)
	if err != nil {
		return nil, errs.InvalidParameter("header: encode pbkdf fragment: " + err.Error())
	}
	return out, nil
}

// Decode parses a complete stream header previously produced by a call to
// Encode (or an exact-length buffer delivered by the incremental length
// decoder below).
func Decode(data []byte) (*Header, error) {
	var wire wireHeader
	rest, err := asn1.Unmarshal(data, &wire)
	if err != nil {
		return nil, errs.InvalidData("malformed stream header")
	}
	if len(rest) != 0 {
		return nil, errs.InvalidData("trailing data after stream header")
	}

	if wire.Version != Version {
		return nil, errs.Unsupported("header: unknown container version")
	}

	var pbkdfFrag wirePBKDFFragment
	if _, err := asn1.Unmarshal(wire.PBKDF.FullBytes, &pbkdfFrag); err != nil {
		return nil, errs.InvalidData("malformed pbkdf fragment")
	}
	if _, err := pbkdf.FromParams(pbkdf.Params{
		Identifier:  pbkdfFrag.Identifier,
		Nonce:       pbkdfFrag.Params.Nonce,
		TimeCost:    uint32(pbkdfFrag.Params.TimeCost),
		MemoryCost:  uint32(pbkdfFrag.Params.MemoryCost),
		Parallelism: uint32(pbkdfFrag.Params.Parallelism),
	}); err != nil {
		return nil, err
	}

	var kdfFrag wireIdentifierOnlyFragment
	if _, err := asn1.Unmarshal(wire.KDF.FullBytes, &kdfFrag); err != nil {
		return nil, errs.InvalidData("malformed kdf fragment")
	}
	if _, err := kdf.FromIdentifier(kdfFrag.Identifier); err != nil {
		return nil, err
	}

	var aeadFrag wireIdentifierOnlyFragment
	if _, err := asn1.Unmarshal(wire.AEAD.FullBytes, &aeadFrag); err != nil {
		return nil, errs.InvalidData("malformed aead fragment")
	}
	if _, err := aead.FromIdentifier(aeadFrag.Identifier); err != nil {
		return nil, err
	}

	return &Header{
		Version: wire.Version,
		PBKDF: pbkdf.Params{
			Identifier:  pbkdfFrag.Identifier,
			Nonce:       pbkdfFrag.Params.Nonce,
			TimeCost:    uint32(pbkdfFrag.Params.TimeCost),
			MemoryCost:  uint32(pbkdfFrag.Params.MemoryCost),
			Parallelism: uint32(pbkdfFrag.Params.Parallelism),
		},
		KDFIdentifier:  kdfFrag.Identifier,
		AEADIdentifier: aeadFrag.Identifier,
	}, nil
}

// DecodeLength inspects the bytes accumulated so far from the start of
// the stream and reports how many total bytes the outer DER SEQUENCE
// occupies (tag + length + content). It returns complete=false when more
// bytes are needed to know the answer, and an error for malformed or
// implausibly large length bytes.
func DecodeLength(prefix []byte) (total int, complete bool, err error) {
	if len(prefix) < 2 {
		return 0, false, nil
	}
	if prefix[0] != 0x30 {
		return 0, false, errs.InvalidData("stream header does not start with a DER SEQUENCE tag")
	}

	lenByte := prefix[1]
	if lenByte&0x80 == 0 {
		// Short form: the byte itself is the content length.
		contentLen := int(lenByte)
		return 2 + contentLen, true, checkBound(2+contentLen)
	}

	numLenBytes := int(lenByte & 0x7F)
	if numLenBytes == 0 {
		// Indefinite length is not valid DER.
		return 0, false, errs.InvalidData("stream header uses indefinite-length encoding")
	}
	if numLenBytes > 4 {
		// No realistic header needs a length this must be this large;
		// treat it as a malicious/corrupt length rather than read it.
		return 0, false, errs.InvalidData("stream header length prefix is implausibly large")
	}
	if len(prefix) < 2+numLenBytes {
		return 0, false, nil
	}

	contentLen := 0
	for _, b := range prefix[2 : 2+numLenBytes] {
		contentLen = contentLen<<8 | int(b)
	}
	total = 2 + numLenBytes + contentLen
	return total, true, checkBound(total)
}

func checkBound(total int) error {
	if total <= 0 || total > MaxLen {
		return errs.InvalidData("stream header length exceeds the accepted bound")
	}
	return nil
}
