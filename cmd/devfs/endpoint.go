package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bamsammich/devfs/internal/config"
	"github.com/bamsammich/devfs/internal/device"
	"github.com/bamsammich/devfs/internal/vfs"
)

// endpoint is a path argument resolved to a filesystem.
type endpoint struct {
	fs vfs.FileSystem
	// cwd is the directory relative paths are interpreted against.
	cwd string
	// path is the argument as given, in slash form.
	path string
}

// abs returns the cleaned root-relative path of the endpoint.
func (e endpoint) abs() string {
	return vfs.Resolve(e.cwd, e.path)
}

// endpoints opens filesystems for path arguments. Device sessions are shared
// per user@host so that both sides of a transfer on one device see the same
// filesystem.
type endpoints struct {
	device   config.DeviceConfig
	local    *vfs.LocalFS
	sessions map[string]*device.Session
}

func newEndpoints(cfg config.DeviceConfig) *endpoints {
	return &endpoints{
		device:   cfg,
		local:    vfs.NewLocal(string(filepath.Separator)),
		sessions: make(map[string]*device.Session),
	}
}

func (e *endpoints) open(arg string) (endpoint, error) {
	loc := vfs.ParseLocation(arg)
	if !loc.IsRemote() {
		cwd, err := os.Getwd()
		if err != nil {
			return endpoint{}, fmt.Errorf("working directory: %w", err)
		}
		return endpoint{
			fs:   e.local,
			cwd:  filepath.ToSlash(cwd),
			path: filepath.ToSlash(loc.Path),
		}, nil
	}

	sess, err := e.session(loc)
	if err != nil {
		return endpoint{}, err
	}
	return endpoint{fs: sess.FS(), path: loc.Path}, nil
}

// deviceAlias is the host name that stands for the configured device host.
const deviceAlias = "device"

// passwordEnv holds an SSH password for devices without key login. It is
// read from the environment only, never from the config file.
const passwordEnv = "DEVFS_PASSWORD"

func (e *endpoints) session(loc vfs.Location) (*device.Session, error) {
	cfg := e.dialConfig(loc)
	key := cfg.User + "@" + cfg.Host
	if sess, ok := e.sessions[key]; ok {
		return sess, nil
	}

	sess, err := device.Dial(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Host, err)
	}
	e.sessions[key] = sess
	return sess, nil
}

// dialConfig merges a device location with the [device] config section.
func (e *endpoints) dialConfig(loc vfs.Location) device.Config {
	cfg := device.Config{Host: loc.Host, User: loc.User}
	if loc.Host == deviceAlias && e.device.Host != nil && *e.device.Host != "" {
		cfg.Host = *e.device.Host
	}
	if cfg.User == "" && e.device.User != nil {
		cfg.User = *e.device.User
	}
	if e.device.Root != nil {
		cfg.Root = *e.device.Root
	}
	if e.device.Port != nil {
		cfg.SSH.Port = *e.device.Port
	}
	if e.device.KeyFile != nil {
		cfg.SSH.KeyFile = *e.device.KeyFile
	}
	cfg.SSH.Password = os.Getenv(passwordEnv)
	return cfg
}

// Close ends every device session.
func (e *endpoints) Close() error {
	var errs []error
	for _, sess := range e.sessions {
		errs = append(errs, sess.Close())
	}
	return errors.Join(errs...)
}

// selection turns path arguments into one directory and the names selected
// in it, the way a panel selection looks.
func (e *endpoints) selection(args []string) (vfs.FileSystem, string, []string, error) {
	var (
		fsys  vfs.FileSystem
		dir   string
		names []string
	)
	for i, arg := range args {
		ep, err := e.open(arg)
		if err != nil {
			return nil, "", nil, err
		}
		d, name := vfs.Split(ep.abs())
		if name == "" {
			return nil, "", nil, fmt.Errorf("%s: cannot select the root", arg)
		}
		if i == 0 {
			fsys, dir = ep.fs, d
		} else if ep.fs != fsys || d != dir {
			return nil, "", nil, fmt.Errorf("%s: all sources must be in %s", arg, displayDir(dir))
		}
		names = append(names, name)
	}
	return fsys, dir, names, nil
}

func displayDir(dir string) string {
	return "/" + dir
}
