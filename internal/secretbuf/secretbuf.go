// Package secretbuf provides an owned, zeroizing byte buffer for key material.
// This is AUDIT-CRITICAL code - every exit path must wipe secret memory.
package secretbuf

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
)

// wipeByte is written over released secret memory. It is deliberately
// non-zero so that a wiped buffer is distinguishable from one that was
// merely zero-initialized and never actually erased.
const wipeByte = 0x58

// Buffer is an owned, variable-length byte sequence holding key material.
//
// A Buffer has exactly one owner at a time: callers must not retain the
// slice returned by Bytes() past a Release() or Truncate() call, and must
// not share a Buffer between goroutines. Release zeroizes the underlying
// storage with a volatile, non-zero sentinel so the wipe cannot be
// optimized away by the compiler.
type Buffer struct {
	data     []byte
	released bool
}

// New allocates a zero-initialized Buffer of the given size.
func New(size int) *Buffer {
	return &Buffer{data: make([]byte, size)}
}

// FromBytes takes ownership of an existing slice. The caller must not use
// the slice again after this call.
func FromBytes(b []byte) *Buffer {
	return &Buffer{data: b}
}

// FillRandom overwrites the buffer with cryptographically secure random
// bytes.
func (b *Buffer) FillRandom() error {
	b.mustBeLive()
	if _, err := rand.Read(b.data); err != nil {
		return fmt.Errorf("secretbuf: fatal crypto/rand error: %w", err)
	}
	return nil
}

// Len returns the number of bytes currently held by the buffer.
func (b *Buffer) Len() int {
	if b.released {
		return 0
	}
	return len(b.data)
}

// Bytes returns the underlying storage. The returned slice is only valid
// until the next Truncate or Release call.
func (b *Buffer) Bytes() []byte {
	b.mustBeLive()
	return b.data
}

// WithBytes calls fn with the underlying storage, then returns. Prefer this
// over Bytes() for scoped, single-use access to key material.
func (b *Buffer) WithBytes(fn func([]byte)) {
	b.mustBeLive()
	fn(b.data)
}

// Truncate produces a new buffer holding only the first newLen bytes,
// erasing the original storage. newLen must not exceed the current length.
func (b *Buffer) Truncate(newLen int) *Buffer {
	b.mustBeLive()
	if newLen > len(b.data) {
		panic("secretbuf: Truncate: newLen exceeds buffer length")
	}

	next := make([]byte, newLen)
	copy(next, b.data[:newLen])
	b.Release()

	return &Buffer{data: next}
}

// Release overwrites the buffer's storage with the wipe sentinel and marks
// it as consumed. Release is idempotent; calling it on an already-released
// buffer is a no-op. Every code path that creates a Buffer must call
// Release on every exit, including error returns - defer it immediately
// after construction.
func (b *Buffer) Release() {
	if b.released {
		return
	}
	volatileFill(b.data, wipeByte)
	b.data = nil
	b.released = true
}

// IsReleased reports whether Release has already been called.
func (b *Buffer) IsReleased() bool {
	return b.released
}

func (b *Buffer) mustBeLive() {
	if b.released {
		panic("secretbuf: use of released buffer")
	}
}

// volatileFill writes v into every byte of buf in a way the compiler must
// not elide, even though buf is about to go out of scope. subtle.ConstantTimeCopy
// forces the write to be observed as data-dependent, which defeats the
// dead-store elimination that a plain loop is vulnerable to.
func volatileFill(buf []byte, v byte) {
	if len(buf) == 0 {
		return
	}
	fill := make([]byte, len(buf))
	for i := range fill {
		fill[i] = v
	}
	subtle.ConstantTimeCopy(1, buf, fill)
}

// Equal performs a constant-time comparison of the buffer's contents
// against another byte sequence. Buffer equality is intentionally not
// defined via the == operator; all comparisons must go through this.
func (b *Buffer) Equal(other []byte) bool {
	b.mustBeLive()
	return subtle.ConstantTimeCompare(b.data, other) == 1
}
