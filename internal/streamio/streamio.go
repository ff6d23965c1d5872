// Package streamio provides the chunked byte source/sink abstraction the
// stream engine is driven against. It has no in-memory implementation of
// its own; tests drive it with bytes.Reader and bytes.Buffer.
package streamio

import (
	"errors"
	"io"

	"github.com/KizzyCode/cryptopipe/internal/errs"
)

// unexpectedEOFMessage is the exact wire-specified message for a short
// read; spec.md's testable properties match on it verbatim, so it must
// not vary per call site.
const unexpectedEOFMessage = "Failed to read from stdin"

// Source is the chunked byte-reading half of the I/O abstraction.
type Source interface {
	// ReadChunk reads up to len(buf) bytes into buf. isLast is true iff no
	// further bytes will ever be available - including the case of a
	// zero-length final chunk, which is a valid, non-error result when the
	// input is empty or ends exactly on a chunk boundary.
	ReadChunk(buf []byte) (n int, isLast bool, err error)
}

// Sink is the chunked byte-writing half of the I/O abstraction.
type Sink interface {
	// WriteChunk writes all of data, flushing if the underlying writer
	// buffers.
	WriteChunk(data []byte) error
}

// ReadExact fills buf completely from r or fails with an IOError whose
// message is the stable wire-specified text.
func ReadExact(r io.Reader, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	_, err := io.ReadFull(retryingReader{r}, buf)
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return errs.IO(errs.IOUnexpectedEOF, unexpectedEOFMessage, err)
	}
	return errs.IO(errs.IOOther, unexpectedEOFMessage, err)
}

// WriteExact writes all of data to w, flushing afterwards if w implements
// an explicit Flush method.
func WriteExact(w io.Writer, data []byte) error {
	if _, err := io.Copy(w, &retryingWriterSource{data}); err != nil {
		return errs.IO(errs.IOOther, "Failed to write to stdout", err)
	}
	if f, ok := w.(flusher); ok {
		if err := f.Flush(); err != nil {
			return errs.IO(errs.IOOther, "Failed to write to stdout", err)
		}
	}
	return nil
}

type flusher interface {
	Flush() error
}

// retryingReader wraps an io.Reader, retrying on transient interruption
// signals per spec.md §4.7's read-retry policy. Any other error surfaces
// unchanged to the caller, which maps it to the wire-specified message.
type retryingReader struct {
	r io.Reader
}

func (rr retryingReader) Read(p []byte) (int, error) {
	for {
		n, err := rr.r.Read(p)
		if err != nil && isRetryable(err) {
			continue
		}
		return n, err
	}
}

// retryingWriterSource adapts a byte slice to an io.Reader so WriteExact
// can reuse io.Copy's short-write handling uniformly.
type retryingWriterSource struct {
	data []byte
}

func (s *retryingWriterSource) Read(p []byte) (int, error) {
	if len(s.data) == 0 {
		return 0, io.EOF
	}
	n := copy(p, s.data)
	s.data = s.data[n:]
	return n, nil
}

func isRetryable(err error) bool {
	var interrupted interface{ Temporary() bool }
	if errors.As(err, &interrupted) {
		return interrupted.Temporary()
	}
	return false
}

// PrefetchSource wraps an underlying io.Reader with the one-chunk
// look-ahead spec.md §4.7 requires: the source cannot know it has reached
// EOF without attempting one more read, so it always holds the *next*
// chunk in an internal buffer, returning it on the following ReadChunk
// call so that is_last can be reported on the correct call.
type PrefetchSource struct {
	r         io.Reader
	chunkSize int

	primed  bool
	next    []byte // owns the prefetched chunk's bytes, len <= chunkSize
	nextEOF bool
	err     error
}

// NewPrefetchSource wraps r, reading chunkSize bytes at a time.
func NewPrefetchSource(r io.Reader, chunkSize int) *PrefetchSource {
	return &PrefetchSource{r: r, chunkSize: chunkSize}
}

func (s *PrefetchSource) fetch() ([]byte, bool, error) {
	buf := make([]byte, s.chunkSize)
	n, err := io.ReadFull(retryingReader{s.r}, buf)
	switch {
	case err == nil:
		return buf, false, nil
	case errors.Is(err, io.EOF):
		// Exactly zero bytes read at EOF: this is a valid empty final chunk.
		return buf[:0], true, nil
	case errors.Is(err, io.ErrUnexpectedEOF):
		// A short, non-empty read: this is the final, possibly-partial chunk.
		return buf[:n], true, nil
	default:
		return nil, false, errs.IO(errs.IOOther, unexpectedEOFMessage, err)
	}
}

// ReadChunk implements Source.
func (s *PrefetchSource) ReadChunk(buf []byte) (int, bool, error) {
	if s.err != nil {
		return 0, false, s.err
	}
	if len(buf) < s.chunkSize {
		return 0, false, errs.InvalidParameter("streamio: ReadChunk buffer smaller than chunk size")
	}

	if !s.primed {
		next, eof, err := s.fetch()
		if err != nil {
			s.err = err
			return 0, false, err
		}
		s.next, s.nextEOF = next, eof
		s.primed = true
	}

	current, currentEOF := s.next, s.nextEOF
	n := copy(buf, current)

	if currentEOF {
		// The stream truly ends here; nothing more to prefetch.
		return n, true, nil
	}

	next, eof, err := s.fetch()
	if err != nil {
		s.err = err
		return 0, false, err
	}
	s.next, s.nextEOF = next, eof

	return n, false, nil
}

// WriterSink adapts a plain io.Writer to Sink.
type WriterSink struct {
	w io.Writer
}

// NewWriterSink wraps w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// WriteChunk implements Sink.
func (s *WriterSink) WriteChunk(data []byte) error {
	return WriteExact(s.w, data)
}
