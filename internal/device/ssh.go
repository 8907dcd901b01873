package device

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

const (
	defaultPort    = 22
	defaultTimeout = 15 * time.Second
)

// defaultKeys are tried in order when no key file is configured.
var defaultKeys = []string{"id_ed25519", "id_ecdsa", "id_rsa"}

// SSHOpts configures how the device's SSH endpoint is reached.
type SSHOpts struct {
	Port     int    // 0 = 22
	KeyFile  string // empty = ~/.ssh defaults
	Password string
	Timeout  time.Duration
}

func dialSSH(host, userName string, opts SSHOpts) (*ssh.Client, error) {
	cfg, err := clientConfig(userName, opts)
	if err != nil {
		return nil, err
	}
	port := opts.Port
	if port == 0 {
		port = defaultPort
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	client, err := ssh.Dial("tcp", addr, cfg)
	if err != nil {
		return nil, fmt.Errorf("ssh dial %s: %w", addr, err)
	}
	return client, nil
}

// clientConfig authenticates with the SSH agent, then key files, then a
// password, and checks host keys against ~/.ssh/known_hosts when it exists.
func clientConfig(userName string, opts SSHOpts) (*ssh.ClientConfig, error) {
	if userName == "" {
		u, err := user.Current()
		if err != nil {
			return nil, fmt.Errorf("determine current user: %w", err)
		}
		userName = u.Username
	}

	auth := buildAuthMethods(opts)
	if len(auth) == 0 {
		return nil, errors.New("no SSH auth methods available (run an agent, configure key_file, or set a password)")
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &ssh.ClientConfig{
		User:            userName,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback(),
		Timeout:         timeout,
	}, nil
}

func buildAuthMethods(opts SSHOpts) []ssh.AuthMethod {
	var methods []ssh.AuthMethod

	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		if conn, err := net.Dial("unix", sock); err == nil {
			methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
		}
	}

	var signers []ssh.Signer
	if opts.KeyFile != "" {
		if s := loadSigner(opts.KeyFile); s != nil {
			signers = append(signers, s)
		}
	} else if home, err := os.UserHomeDir(); err == nil {
		for _, name := range defaultKeys {
			if s := loadSigner(filepath.Join(home, ".ssh", name)); s != nil {
				signers = append(signers, s)
			}
		}
	}
	if len(signers) > 0 {
		methods = append(methods, ssh.PublicKeys(signers...))
	}

	if opts.Password != "" {
		methods = append(methods, ssh.Password(opts.Password))
	}
	return methods
}

// loadSigner returns nil for a missing, unreadable or passphrase-protected
// key.
func loadSigner(path string) ssh.Signer {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		return nil
	}
	return signer
}

func hostKeyCallback() ssh.HostKeyCallback {
	home, err := os.UserHomeDir()
	if err == nil {
		if cb, err := knownhosts.New(filepath.Join(home, ".ssh", "known_hosts")); err == nil {
			return cb
		}
	}
	// A freshly paired device has no known_hosts entry yet.
	//nolint:gosec // fallback for hosts without known_hosts
	return ssh.InsecureIgnoreHostKey()
}
