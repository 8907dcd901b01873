package device

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/sftp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/bamsammich/devfs/internal/vfs"
)

type closeRecorder struct{ closed int }

func (c *closeRecorder) Close() error {
	c.closed++
	return nil
}

func TestAttach(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "IMG_0001.jpg"), []byte("jpeg"), 0o644))

	serverConn, clientConn := net.Pipe()
	server, err := sftp.NewServer(serverConn)
	require.NoError(t, err)
	go func() { _ = server.Serve() }() //nolint:errcheck // ends when the pipe closes
	t.Cleanup(func() { _ = server.Close() })

	client, err := sftp.NewClientPipe(clientConn, clientConn)
	require.NoError(t, err)

	conn := &closeRecorder{}
	sess := Attach("phone", client, conn, root)
	assert.Equal(t, "phone", sess.Name())
	assert.Equal(t, vfs.Remote, sess.FS().Kind())
	assert.Equal(t, root, sess.FS().Root())

	entry, err := sess.FS().Stat("IMG_0001.jpg")
	require.NoError(t, err)
	assert.Equal(t, int64(4), entry.Size)

	require.NoError(t, sess.Close())
	assert.Equal(t, 1, conn.closed)

	_, err = sess.FS().Stat("IMG_0001.jpg")
	require.Error(t, err)
}

func TestClientConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SSH_AUTH_SOCK", "")
	t.Setenv("HOME", home)

	_, err := clientConfig("pi", SSHOpts{})
	require.Error(t, err)

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	block, err := ssh.MarshalPrivateKey(priv, "")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".ssh"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".ssh", "id_ed25519"), pem.EncodeToMemory(block), 0o600))

	cfg, err := clientConfig("pi", SSHOpts{})
	require.NoError(t, err)
	assert.Equal(t, "pi", cfg.User)
	assert.Len(t, cfg.Auth, 1)
	assert.Equal(t, defaultTimeout, cfg.Timeout)
	assert.NotNil(t, cfg.HostKeyCallback)

	cfg, err = clientConfig("pi", SSHOpts{Password: "secret", Timeout: time.Second})
	require.NoError(t, err)
	assert.Len(t, cfg.Auth, 2)
	assert.Equal(t, time.Second, cfg.Timeout)
}

func TestBuildAuthMethods(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")
	t.Setenv("HOME", t.TempDir())

	assert.Empty(t, buildAuthMethods(SSHOpts{}))
	assert.Len(t, buildAuthMethods(SSHOpts{Password: "secret"}), 1)
	assert.Empty(t, buildAuthMethods(SSHOpts{KeyFile: filepath.Join(t.TempDir(), "missing")}))
}
