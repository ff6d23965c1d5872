// Package engine implements the stream runloop: the orchestration of
// header encode/decode, key derivation, and the chunked AEAD loop that
// together turn a plaintext byte stream into a sealed one and back.
package engine

import (
	"io"

	"github.com/KizzyCode/cryptopipe/internal/aead"
	"github.com/KizzyCode/cryptopipe/internal/errs"
	"github.com/KizzyCode/cryptopipe/internal/header"
	"github.com/KizzyCode/cryptopipe/internal/kdf"
	"github.com/KizzyCode/cryptopipe/internal/log"
	"github.com/KizzyCode/cryptopipe/internal/pbkdf"
	"github.com/KizzyCode/cryptopipe/internal/secretbuf"
	"github.com/KizzyCode/cryptopipe/internal/streamio"
)

// ChunkDataSize is the plaintext size of every chunk but the last.
const ChunkDataSize = 1 << 20 // 1,048,576 bytes

// SealParams selects the capabilities and PBKDF cost used for a fresh
// stream. Open never needs this - everything it needs is on the wire.
type SealParams struct {
	PBKDFTimeCost    uint32
	PBKDFMemoryCost  uint32 // mebibytes
	PBKDFParallelism uint32
	KDFIdentifier    string
	AEADIdentifier   string
}

// state tracks an Engine's position in its single-use lifecycle:
// Fresh -> HeaderDone -> Chunking -> Terminated. An Engine runs exactly
// one operation; a second call at any state past Fresh is a programming
// error reported as Unsupported, not retried.
type state int

const (
	stateFresh state = iota
	stateHeaderDone
	stateChunking
	stateTerminated
)

// Engine drives one Seal or Open operation over a byte stream.
type Engine struct {
	state state
}

// New returns a fresh, unused Engine.
func New() *Engine {
	return &Engine{state: stateFresh}
}

func (e *Engine) enter() error {
	if e.state != stateFresh {
		return errs.Unsupported("engine: an Engine instance may only run one operation")
	}
	e.state = stateHeaderDone
	return nil
}

// Seal reads plaintext from r and writes the sealed stream to w, consuming
// password (which is released before Seal returns, regardless of outcome).
func (e *Engine) Seal(r io.Reader, w io.Writer, password *secretbuf.Buffer, params SealParams) (err error) {
	if enterErr := e.enter(); enterErr != nil {
		password.Release()
		return enterErr
	}
	defer func() { e.state = stateTerminated }()

	kdfAlgo, err := kdf.FromIdentifier(params.KDFIdentifier)
	if err != nil {
		password.Release()
		return err
	}
	aeadAlgo, err := aead.FromIdentifier(params.AEADIdentifier)
	if err != nil {
		password.Release()
		return err
	}

	pbkdfAlgo, err := pbkdf.New(params.PBKDFTimeCost, params.PBKDFMemoryCost, params.PBKDFParallelism)
	if err != nil {
		password.Release()
		return err
	}

	log.Debug("sealing stream", log.String("kdf", params.KDFIdentifier), log.String("aead", params.AEADIdentifier))

	masterKey, err := pbkdfAlgo.Derive(password)
	if err != nil {
		return err
	}

	headerBytes, err := header.Encode(header.Header{
		Version:        header.Version,
		PBKDF:          pbkdfAlgo.Params(),
		KDFIdentifier:  kdfAlgo.Algorithm(),
		AEADIdentifier: aeadAlgo.Algorithm(),
	})
	if err != nil {
		masterKey.Release()
		return err
	}
	if err := streamio.WriteExact(w, headerBytes); err != nil {
		masterKey.Release()
		return err
	}

	e.state = stateChunking
	schedule := kdf.NewKeySchedule(kdfAlgo, masterKey)
	defer schedule.Release()
	source := streamio.NewPrefetchSource(r, ChunkDataSize)
	sink := streamio.NewWriterSink(w)

	plainBuf := make([]byte, ChunkDataSize)
	sealedBuf := make([]byte, ChunkDataSize+aeadAlgo.Overhead())
	var chunkCount int

	for {
		n, isLast, readErr := source.ReadChunk(plainBuf)
		if readErr != nil {
			return readErr
		}

		chunkKeys, scheduleErr := schedule.Next(isLast)
		if scheduleErr != nil {
			return scheduleErr
		}

		copy(sealedBuf, plainBuf[:n])
		sealedLen, sealErr := aeadAlgo.Seal(sealedBuf[:n+aeadAlgo.Overhead()], n, chunkKeys.CipherKey)
		chunkKeys.Release()
		if sealErr != nil {
			return sealErr
		}

		if writeErr := sink.WriteChunk(sealedBuf[:sealedLen]); writeErr != nil {
			return writeErr
		}
		chunkCount++

		if isLast {
			log.Debug("seal complete", log.Int("chunks", chunkCount))
			return nil
		}
	}
}

// Open reads a sealed stream from r and writes the recovered plaintext to
// w, consuming password (which is released before Open returns, regardless
// of outcome).
func (e *Engine) Open(r io.Reader, w io.Writer, password *secretbuf.Buffer) (err error) {
	if enterErr := e.enter(); enterErr != nil {
		password.Release()
		return enterErr
	}
	defer func() { e.state = stateTerminated }()

	headerBytes, err := readHeaderBytes(r)
	if err != nil {
		password.Release()
		return err
	}
	parsedHeader, err := header.Decode(headerBytes)
	if err != nil {
		password.Release()
		return err
	}

	pbkdfAlgo, err := pbkdf.FromParams(parsedHeader.PBKDF)
	if err != nil {
		password.Release()
		return err
	}
	kdfAlgo, err := kdf.FromIdentifier(parsedHeader.KDFIdentifier)
	if err != nil {
		password.Release()
		return err
	}
	aeadAlgo, err := aead.FromIdentifier(parsedHeader.AEADIdentifier)
	if err != nil {
		password.Release()
		return err
	}

	log.Debug("opening stream", log.String("kdf", parsedHeader.KDFIdentifier), log.String("aead", parsedHeader.AEADIdentifier))

	masterKey, err := pbkdfAlgo.Derive(password)
	if err != nil {
		return err
	}

	e.state = stateChunking
	schedule := kdf.NewKeySchedule(kdfAlgo, masterKey)
	defer schedule.Release()
	sealedChunkSize := ChunkDataSize + aeadAlgo.Overhead()
	source := streamio.NewPrefetchSource(r, sealedChunkSize)
	sink := streamio.NewWriterSink(w)

	sealedBuf := make([]byte, sealedChunkSize)
	var chunkCount int

	for {
		n, isLast, readErr := source.ReadChunk(sealedBuf)
		if readErr != nil {
			return readErr
		}

		chunkKeys, scheduleErr := schedule.Next(isLast)
		if scheduleErr != nil {
			return scheduleErr
		}

		plainLen, openErr := aeadAlgo.Open(sealedBuf[:n], n, chunkKeys.CipherKey)
		chunkKeys.Release()
		if openErr != nil {
			return openErr
		}

		if writeErr := sink.WriteChunk(sealedBuf[:plainLen]); writeErr != nil {
			return writeErr
		}
		chunkCount++

		if isLast {
			log.Debug("open complete", log.Int("chunks", chunkCount))
			return nil
		}
	}
}

// readHeaderBytes reads exactly one complete DER-encoded stream header
// from r, using the incremental length decoder so that no byte is ever
// read past the header's own boundary.
func readHeaderBytes(r io.Reader) ([]byte, error) {
	buf := make([]byte, 0, 4)
	one := make([]byte, 1)

	for {
		total, complete, err := header.DecodeLength(buf)
		if err != nil {
			return nil, err
		}
		if complete {
			if len(buf) == total {
				return buf, nil
			}
			rest := make([]byte, total-len(buf))
			if err := streamio.ReadExact(r, rest); err != nil {
				return nil, err
			}
			return append(buf, rest...), nil
		}

		if err := streamio.ReadExact(r, one); err != nil {
			return nil, err
		}
		buf = append(buf, one[0])
	}
}
