// Package vfstest provides filesystems for tests: an in-process SFTP
// endpoint and a fault-injecting wrapper.
package vfstest

import (
	"io"
	"net"
	"sync"
	"testing"

	"github.com/pkg/sftp"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/devfs/internal/vfs"
)

// NewSFTP serves the host directory root over an in-memory pipe and returns
// the client side as a remote filesystem. Everything is torn down on test
// cleanup.
func NewSFTP(t testing.TB, root string) *vfs.SFTPFS {
	t.Helper()

	serverConn, clientConn := net.Pipe()
	server, err := sftp.NewServer(serverConn)
	require.NoError(t, err)
	go func() { _ = server.Serve() }() //nolint:errcheck // ends when the pipe closes

	client, err := sftp.NewClientPipe(clientConn, clientConn)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
		_ = server.Close()
	})
	return vfs.NewSFTP(client, root)
}

// Op names a FileSystem method for fault injection.
type Op string

const (
	OpList       Op = "list"
	OpStat       Op = "stat"
	OpMkdir      Op = "mkdir"
	OpDeleteFile Op = "delete-file"
	OpDeleteDir  Op = "delete-dir"
	OpRename     Op = "rename"
	OpOpenRead   Op = "open-read"
	OpOpenWrite  Op = "open-write"
	OpSetAttr    Op = "set-attributes"
)

type fault struct {
	op   Op
	path string
}

// Faulty wraps a FileSystem, failing selected operations and recording every
// call. It can also masquerade as a remote filesystem so that local temp
// directories exercise device-only code paths.
type Faulty struct {
	vfs.FileSystem

	mu           sync.Mutex
	kind         vfs.Kind
	faults       map[fault]error
	calls        []string
	disconnected bool
}

// NewFaulty wraps inner. kind overrides inner.Kind() when non-zero.
func NewFaulty(inner vfs.FileSystem, kind vfs.Kind) *Faulty {
	return &Faulty{FileSystem: inner, kind: kind, faults: make(map[fault]error)}
}

// Fail makes op on path return err.
func (f *Faulty) Fail(op Op, path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults[fault{op: op, path: vfs.Clean(path)}] = err
}

// Disconnect makes every later call fail with vfs.ErrDisconnected.
func (f *Faulty) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnected = true
}

// Calls returns the recorded "op path" strings in call order.
func (f *Faulty) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallsOf returns the paths passed to op, in call order.
func (f *Faulty) CallsOf(op Op) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	prefix := string(op) + " "
	for _, c := range f.calls {
		if len(c) > len(prefix) && c[:len(prefix)] == prefix {
			out = append(out, c[len(prefix):])
		}
	}
	return out
}

func (f *Faulty) check(op Op, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	path = vfs.Clean(path)
	f.calls = append(f.calls, string(op)+" "+path)
	if f.disconnected {
		return vfs.ErrDisconnected
	}
	return f.faults[fault{op: op, path: path}]
}

func (f *Faulty) Kind() vfs.Kind {
	if f.kind != 0 {
		return f.kind
	}
	return f.FileSystem.Kind()
}

func (f *Faulty) List(dir string) ([]vfs.FileEntry, error) {
	if err := f.check(OpList, dir); err != nil {
		return nil, err
	}
	return f.FileSystem.List(dir)
}

func (f *Faulty) Stat(path string) (vfs.FileEntry, error) {
	if err := f.check(OpStat, path); err != nil {
		return vfs.FileEntry{}, err
	}
	return f.FileSystem.Stat(path)
}

func (f *Faulty) Mkdir(path string) error {
	if err := f.check(OpMkdir, path); err != nil {
		return err
	}
	return f.FileSystem.Mkdir(path)
}

func (f *Faulty) DeleteFile(path string) error {
	if err := f.check(OpDeleteFile, path); err != nil {
		return err
	}
	return f.FileSystem.DeleteFile(path)
}

func (f *Faulty) DeleteDir(path string) error {
	if err := f.check(OpDeleteDir, path); err != nil {
		return err
	}
	return f.FileSystem.DeleteDir(path)
}

func (f *Faulty) Rename(oldPath, newPath string) error {
	if err := f.check(OpRename, oldPath); err != nil {
		return err
	}
	return f.FileSystem.Rename(oldPath, newPath)
}

func (f *Faulty) OpenRead(path string) (io.ReadCloser, error) {
	if err := f.check(OpOpenRead, path); err != nil {
		return nil, err
	}
	return f.FileSystem.OpenRead(path)
}

func (f *Faulty) OpenWrite(path string, shared bool) (io.WriteCloser, error) {
	if err := f.check(OpOpenWrite, path); err != nil {
		return nil, err
	}
	return f.FileSystem.OpenWrite(path, shared)
}

func (f *Faulty) SetAttributes(path string, attrs vfs.Attributes) error {
	if err := f.check(OpSetAttr, path); err != nil {
		return err
	}
	return f.FileSystem.SetAttributes(path, attrs)
}
