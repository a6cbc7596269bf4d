// Package ring implements the lock-protected byte ring buffer that fans out
// RF samples to the spectral estimator and audio consumers without copying
// between them.
package ring

import "sync"

// DefaultRingSize is the fixed arena size for the primary ingestion ring,
// per the documented intent (not 2x the acquisition size).
const DefaultRingSize = 100 << 20 // 100 MiB

// DefaultAudioRingChunks is the minimum number of audio chunks the audio
// ring must hold.
const DefaultAudioRingChunks = 8

// Ring is a contiguous byte arena with monotonically increasing write/read
// cursors, guarded by a single mutex. Index into the arena is cursor mod
// size.
type Ring struct {
	mu   sync.Mutex
	buf  []byte
	head uint64
	tail uint64
}

// New allocates a ring of the given size in bytes.
func New(size int) *Ring {
	return &Ring{buf: make([]byte, size)}
}

// Write copies as much of src into the ring as there is free space for,
// never blocking and never growing the arena. It returns the number of
// bytes actually written, which may be less than len(src) (including zero)
// when the ring is full.
func (r *Ring) Write(src []byte) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := uint64(len(r.buf))
	free := size - (r.head - r.tail)
	n := uint64(len(src))
	if n > free {
		n = free
	}
	if n == 0 {
		return 0
	}

	start := r.head % size
	first := size - start
	if first > n {
		first = n
	}
	copy(r.buf[start:start+first], src[:first])
	if n > first {
		copy(r.buf[0:n-first], src[first:n])
	}

	r.head += n
	return int(n)
}

// Read drains up to len(dst) bytes from the ring into dst, returning the
// number of bytes actually read.
func (r *Ring) Read(dst []byte) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := uint64(len(r.buf))
	available := r.head - r.tail
	n := uint64(len(dst))
	if n > available {
		n = available
	}
	if n == 0 {
		return 0
	}

	start := r.tail % size
	first := size - start
	if first > n {
		first = n
	}
	copy(dst[:first], r.buf[start:start+first])
	if n > first {
		copy(dst[first:n], r.buf[0:n-first])
	}

	r.tail += n
	return int(n)
}

// Available returns the number of unread bytes currently in the ring.
func (r *Ring) Available() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.head - r.tail
}

// Size returns the arena's fixed capacity in bytes.
func (r *Ring) Size() int {
	return len(r.buf)
}

// Reset zeroes the cursors and the underlying arena, discarding all
// buffered data. Used on retune so no pre-tune sample survives into a
// post-tune read.
func (r *Ring) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.head = 0
	r.tail = 0
	for i := range r.buf {
		r.buf[i] = 0
	}
}

// Close zeroes the arena before the ring is discarded.
func (r *Ring) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.buf {
		r.buf[i] = 0
	}
}
