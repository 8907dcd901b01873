package filter

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Kind names a built-in converter.
type Kind string

const (
	KindCRLF   Kind = "crlf"   // LF line endings to CRLF
	KindLF     Kind = "lf"     // CRLF line endings to LF
	KindZstd   Kind = "zstd"   // compress
	KindUnzstd Kind = "unzstd" // decompress
)

// Converter rewrites a file's bytes on their way to the destination.
type Converter interface {
	Convert(dst io.Writer, src io.Reader, srcExt, dstExt string) error
}

// ConverterFor returns the built-in converter for kind.
//
//nolint:ireturn // converters are selected by name
func ConverterFor(kind Kind) (Converter, error) {
	switch kind {
	case KindCRLF:
		return newlineConverter{crlf: true}, nil
	case KindLF:
		return newlineConverter{}, nil
	case KindZstd:
		return zstdConverter{}, nil
	case KindUnzstd:
		return unzstdConverter{}, nil
	default:
		return nil, fmt.Errorf("unknown filter kind %q", kind)
	}
}

// Spec binds a source extension to a converter and the extension the
// converted file gets. Extensions carry the leading dot and are lower case.
type Spec struct {
	Converter Converter
	SrcExt    string
	DstExt    string
}

// DstName returns name with SrcExt replaced by DstExt. Names that do not end
// in SrcExt are returned unchanged.
func (s Spec) DstName(name string) string {
	if s.SrcExt == s.DstExt {
		return name
	}
	if len(name) < len(s.SrcExt) || !strings.EqualFold(name[len(name)-len(s.SrcExt):], s.SrcExt) {
		return name
	}
	return name[:len(name)-len(s.SrcExt)] + s.DstExt
}

// Registry maps source extensions to converter specs. It is built once from
// configuration and only read afterwards.
type Registry struct {
	specs map[string]Spec
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{specs: make(map[string]Spec)}
}

// Register adds a converter for srcExt. A later registration for the same
// extension replaces the earlier one.
func (r *Registry) Register(srcExt, dstExt string, kind Kind) error {
	srcExt = normalizeExt(srcExt)
	if srcExt == "" {
		return fmt.Errorf("filter for kind %q has no source extension", kind)
	}
	conv, err := ConverterFor(kind)
	if err != nil {
		return err
	}
	dstExt = normalizeExt(dstExt)
	if dstExt == "" {
		dstExt = srcExt
	}
	r.specs[srcExt] = Spec{SrcExt: srcExt, DstExt: dstExt, Converter: conv}
	return nil
}

// Len returns the number of registered extensions.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.specs)
}

func (r *Registry) lookup(ext string) (Spec, bool) {
	if r == nil {
		return Spec{}, false
	}
	s, ok := r.specs[ext]
	return s, ok
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Selection is the outcome of resolving a source extension: either no
// filter, or a conversion through Spec.
type Selection struct {
	Spec    Spec
	Convert bool
}

// NoFilter is the Selection for a plain byte copy.
var NoFilter = Selection{}

// Resolver resolves extensions against a Registry for the lifetime of one
// request, so that each extension is looked up at most once.
type Resolver struct {
	reg   *Registry
	cache map[string]Selection
	mu    sync.Mutex
}

// NewResolver returns a per-request resolver. A nil registry resolves
// everything to NoFilter.
func (r *Registry) NewResolver() *Resolver {
	return &Resolver{reg: r, cache: make(map[string]Selection)}
}

// Resolve returns the selection for the extension of name.
func (r *Resolver) Resolve(name string) Selection {
	ext := extOf(name)
	if ext == "" {
		return NoFilter
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if sel, ok := r.cache[ext]; ok {
		return sel
	}
	sel := NoFilter
	if spec, ok := r.reg.lookup(ext); ok {
		sel = Selection{Spec: spec, Convert: true}
	}
	r.cache[ext] = sel
	return sel
}

// Resolved returns how many distinct extensions this resolver has looked up.
func (r *Resolver) Resolved() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}

func extOf(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return ""
	}
	return strings.ToLower(name[i:])
}

type newlineConverter struct {
	crlf bool
}

func (c newlineConverter) Convert(dst io.Writer, src io.Reader, _, _ string) error {
	r := bufio.NewReader(src)
	w := bufio.NewWriter(dst)

	var prev byte
	pendingCR := false
	for {
		b, err := r.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if c.crlf {
			if b == '\n' && prev != '\r' {
				_ = w.WriteByte('\r')
			}
			_ = w.WriteByte(b)
			prev = b
			continue
		}
		if pendingCR {
			pendingCR = false
			if b != '\n' {
				_ = w.WriteByte('\r')
			}
		}
		if b == '\r' {
			pendingCR = true
			continue
		}
		_ = w.WriteByte(b)
	}
	if pendingCR {
		_ = w.WriteByte('\r')
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

type zstdConverter struct{}

func (zstdConverter) Convert(dst io.Writer, src io.Reader, _, _ string) error {
	enc, err := zstd.NewWriter(dst,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return fmt.Errorf("zstd encoder: %w", err)
	}
	if _, err := io.Copy(enc, src); err != nil {
		enc.Close()
		return fmt.Errorf("zstd compress: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("zstd compress: %w", err)
	}
	return nil
}

type unzstdConverter struct{}

func (unzstdConverter) Convert(dst io.Writer, src io.Reader, _, _ string) error {
	dec, err := zstd.NewReader(src, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return fmt.Errorf("zstd decoder: %w", err)
	}
	defer dec.Close()
	if _, err := io.Copy(dst, dec); err != nil {
		return fmt.Errorf("zstd decompress: %w", err)
	}
	return nil
}
