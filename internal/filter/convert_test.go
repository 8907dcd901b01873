package filter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func convert(t *testing.T, kind Kind, in []byte) []byte {
	t.Helper()
	conv, err := ConverterFor(kind)
	require.NoError(t, err)
	var out bytes.Buffer
	require.NoError(t, conv.Convert(&out, bytes.NewReader(in), "", ""))
	return out.Bytes()
}

func TestNewlineConverters(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		in   string
		want string
	}{
		{"crlf plain", KindCRLF, "a\nb\n", "a\r\nb\r\n"},
		{"crlf keeps existing", KindCRLF, "a\r\nb\n", "a\r\nb\r\n"},
		{"crlf empty", KindCRLF, "", ""},
		{"lf plain", KindLF, "a\r\nb\r\n", "a\nb\n"},
		{"lf lone cr kept", KindLF, "a\rb\r\n", "a\rb\n"},
		{"lf trailing cr", KindLF, "a\r", "a\r"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(convert(t, tt.kind, []byte(tt.in))))
		})
	}
}

func TestZstdRoundTrip(t *testing.T) {
	in := []byte(strings.Repeat("device log line\n", 500))

	packed := convert(t, KindZstd, in)
	assert.Less(t, len(packed), len(in))

	assert.Equal(t, in, convert(t, KindUnzstd, packed))
}

func TestUnzstd_Corrupt(t *testing.T) {
	conv, err := ConverterFor(KindUnzstd)
	require.NoError(t, err)
	var out bytes.Buffer
	err = conv.Convert(&out, strings.NewReader("not zstd at all"), ".zst", ".txt")
	assert.Error(t, err)
}

func TestConverterFor_Unknown(t *testing.T) {
	_, err := ConverterFor("rot13")
	assert.Error(t, err)
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("TXT", ".dos", KindCRLF))
	require.NoError(t, r.Register(".log", "", KindZstd))
	assert.Equal(t, 2, r.Len())

	assert.Error(t, r.Register("", ".x", KindLF))
	assert.Error(t, r.Register(".x", ".y", "bogus"))

	spec, ok := r.lookup(".txt")
	require.True(t, ok)
	assert.Equal(t, ".dos", spec.DstExt)

	spec, ok = r.lookup(".log")
	require.True(t, ok)
	assert.Equal(t, ".log", spec.DstExt)
}

func TestResolver_CachesPerExtension(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(".txt", ".dos", KindCRLF))
	res := r.NewResolver()

	sel := res.Resolve("notes.TXT")
	assert.True(t, sel.Convert)
	assert.Equal(t, "notes.dos", sel.Spec.DstName("notes.TXT"))

	assert.Equal(t, NoFilter, res.Resolve("photo.jpg"))
	assert.Equal(t, NoFilter, res.Resolve("Makefile"))
	assert.Equal(t, NoFilter, res.Resolve(".profile"))

	res.Resolve("other.txt")
	res.Resolve("third.jpg")
	assert.Equal(t, 2, res.Resolved())
}

func TestResolver_NilRegistry(t *testing.T) {
	var r *Registry
	res := r.NewResolver()
	assert.Equal(t, NoFilter, res.Resolve("a.txt"))
}

func TestSpec_DstName(t *testing.T) {
	s := Spec{SrcExt: ".log", DstExt: ".log.zst"}
	assert.Equal(t, "app.log.zst", s.DstName("app.log"))
	assert.Equal(t, "app.txt", s.DstName("app.txt"))

	same := Spec{SrcExt: ".txt", DstExt: ".txt"}
	assert.Equal(t, "a.txt", same.DstName("a.txt"))
}
