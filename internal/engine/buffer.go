package engine

import "time"

// Copy buffer bounds. An explicit size is clamped to them as well.
const (
	DefaultBufferSize = 512 << 10
	MinBufferSize     = 128 << 10
	MaxBufferSize     = 8 << 20
)

// A full chunk faster than fastChunk grows an automatic buffer, one slower
// than slowChunk shrinks it.
const (
	fastChunk = 50 * time.Millisecond
	slowChunk = time.Second
)

// buffer is the copy buffer of one request. In automatic mode it doubles or
// halves between MinBufferSize and MaxBufferSize after each full chunk,
// keeping a chunk around a fraction of a second on both fast local disks
// and slow device links.
type buffer struct {
	buf  []byte
	auto bool
}

func newBuffer(size int64) *buffer {
	if size <= 0 {
		return &buffer{buf: make([]byte, DefaultBufferSize), auto: true}
	}
	size = max(MinBufferSize, min(size, MaxBufferSize))
	return &buffer{buf: make([]byte, size)}
}

func (b *buffer) bytes() []byte { return b.buf }

func (b *buffer) size() int { return len(b.buf) }

// observe records how long a read of n bytes took.
func (b *buffer) observe(n int, d time.Duration) {
	if !b.auto || n < len(b.buf) {
		return
	}
	switch {
	case d < fastChunk && len(b.buf) < MaxBufferSize:
		b.buf = make([]byte, min(len(b.buf)*2, MaxBufferSize))
	case d > slowChunk && len(b.buf) > MinBufferSize:
		b.buf = make([]byte, max(len(b.buf)/2, MinBufferSize))
	}
}

func (b *buffer) release() { b.buf = nil }
