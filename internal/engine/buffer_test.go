package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewBuffer(t *testing.T) {
	tests := []struct {
		name string
		size int64
		want int
		auto bool
	}{
		{"auto", 0, DefaultBufferSize, true},
		{"explicit", 1 << 20, 1 << 20, false},
		{"below floor", 4096, MinBufferSize, false},
		{"above ceiling", 64 << 20, MaxBufferSize, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBuffer(tt.size)
			assert.Equal(t, tt.want, b.size())
			assert.Equal(t, tt.auto, b.auto)
		})
	}
}

func TestBuffer_AutoGrowsOnFastChunks(t *testing.T) {
	b := newBuffer(0)
	for range 10 {
		b.observe(b.size(), time.Millisecond)
	}
	assert.Equal(t, MaxBufferSize, b.size())
}

func TestBuffer_AutoShrinksOnSlowChunks(t *testing.T) {
	b := newBuffer(0)
	for range 10 {
		b.observe(b.size(), 2*time.Second)
	}
	assert.Equal(t, MinBufferSize, b.size())
}

func TestBuffer_IgnoresShortReads(t *testing.T) {
	b := newBuffer(0)
	b.observe(100, time.Millisecond)
	b.observe(100, 5*time.Second)
	assert.Equal(t, DefaultBufferSize, b.size())
}

func TestBuffer_ExplicitNeverAdapts(t *testing.T) {
	b := newBuffer(1 << 20)
	b.observe(b.size(), time.Millisecond)
	b.observe(b.size(), 5*time.Second)
	assert.Equal(t, 1<<20, b.size())
}

func TestBuffer_Release(t *testing.T) {
	b := newBuffer(0)
	b.release()
	assert.Nil(t, b.bytes())
}
