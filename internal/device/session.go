// Package device manages the session to an attached device. The session owns
// the connection; transfer code only borrows its filesystem.
package device

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/pkg/sftp"

	"github.com/bamsammich/devfs/internal/vfs"
)

// Config identifies a device endpoint.
type Config struct {
	Host string
	User string
	Root string
	SSH  SSHOpts
}

// Session is an open connection to a device.
type Session struct {
	client *sftp.Client
	conn   io.Closer // underlying transport; nil when the caller owns it
	fs     *vfs.SFTPFS
	name   string
}

// Dial connects to the device over SSH and starts an SFTP subsystem.
func Dial(cfg Config) (*Session, error) {
	sshClient, err := dialSSH(cfg.Host, cfg.User, cfg.SSH)
	if err != nil {
		return nil, err
	}
	client, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, fmt.Errorf("sftp client: %w", err)
	}
	slog.Debug("device session opened", "host", cfg.Host, "root", cfg.Root)
	return &Session{
		client: client,
		conn:   sshClient,
		fs:     vfs.NewSFTP(client, cfg.Root),
		name:   cfg.Host,
	}, nil
}

// Attach wraps an already-established SFTP client. conn, if non-nil, is
// closed together with the session.
func Attach(name string, client *sftp.Client, conn io.Closer, root string) *Session {
	return &Session{
		client: client,
		conn:   conn,
		fs:     vfs.NewSFTP(client, root),
		name:   name,
	}
}

// Name returns the host the session is attached to.
func (s *Session) Name() string { return s.name }

// FS returns the device filesystem. It stays valid until Close.
func (s *Session) FS() *vfs.SFTPFS { return s.fs }

// Close tears down the SFTP client and the underlying connection.
func (s *Session) Close() error {
	err := s.client.Close()
	if s.conn != nil {
		if connErr := s.conn.Close(); connErr != nil && err == nil {
			err = connErr
		}
	}
	return err
}
