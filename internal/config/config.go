// Package config loads the optional devfs configuration file and turns it
// into transfer options.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dustin/go-humanize"

	"github.com/bamsammich/devfs/internal/engine"
	"github.com/bamsammich/devfs/internal/filter"
)

// Config represents the optional devfs configuration file. Pointer fields
// are nil when the file does not set them.
type Config struct {
	Device   DeviceConfig   `toml:"device"`
	Filters  []FilterConfig `toml:"filters"`
	Transfer TransferConfig `toml:"transfer"`
}

// TransferConfig holds transfer option defaults.
type TransferConfig struct {
	IgnoreErrors   *bool    `toml:"ignore_errors"`
	Overwrite      *string  `toml:"overwrite"`
	ShowStats      *string  `toml:"show_stats"`
	CopyShared     *bool    `toml:"copy_shared"`
	UseFileFilters *bool    `toml:"use_file_filters"`
	UseTmpFiles    *bool    `toml:"use_tmp_files"`
	BufferSize     *string  `toml:"buffer_size"`
	BWLimit        *string  `toml:"bwlimit"`
	Verify         *bool    `toml:"verify"`
	Exclude        []string `toml:"exclude"`
}

// DeviceConfig holds how to reach the device.
type DeviceConfig struct {
	Host    *string `toml:"host"`
	User    *string `toml:"user"`
	Port    *int    `toml:"port"`
	KeyFile *string `toml:"key_file"`
	Root    *string `toml:"root"`
}

// FilterConfig registers a converter for a source extension.
type FilterConfig struct {
	SrcExt string `toml:"src_ext"`
	DstExt string `toml:"dst_ext"`
	Kind   string `toml:"kind"`
}

// Path returns the resolved path to the config file.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "devfs", "config.toml")
}

// Load reads the config file from the XDG path. Returns a zero Config
// (no error) if the file does not exist. Config is always optional.
func Load() (Config, error) {
	path := Path()
	if path == "" {
		return Config{}, nil
	}
	return LoadFile(path)
}

// LoadFile reads the config file at path. A missing file yields a zero
// Config.
func LoadFile(path string) (Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}

// Options applies the [transfer] section on top of engine.DefaultOptions.
func (c Config) Options() (engine.Options, error) {
	opts := engine.DefaultOptions()
	t := c.Transfer

	if t.IgnoreErrors != nil {
		opts.IgnoreErrors = *t.IgnoreErrors
	}
	if t.Overwrite != nil {
		ow, err := engine.ParseOverwrite(*t.Overwrite)
		if err != nil {
			return opts, fmt.Errorf("transfer.overwrite: %w", err)
		}
		opts.Overwrite = ow
	}
	if t.CopyShared != nil {
		opts.Shared = *t.CopyShared
	}
	if t.UseFileFilters != nil {
		opts.UseFilters = *t.UseFileFilters
	}
	if t.UseTmpFiles != nil {
		opts.UseTmpFiles = *t.UseTmpFiles
	}
	if t.Verify != nil {
		opts.Verify = *t.Verify
	}
	if t.BufferSize != nil {
		n, err := ParseBufferSize(*t.BufferSize)
		if err != nil {
			return opts, fmt.Errorf("transfer.buffer_size: %w", err)
		}
		opts.BufferSize = n
	}
	if t.BWLimit != nil {
		n, err := ParseRate(*t.BWLimit)
		if err != nil {
			return opts, fmt.Errorf("transfer.bwlimit: %w", err)
		}
		opts.BWLimit = n
	}
	opts.Exclude = append(opts.Exclude, t.Exclude...)
	return opts, nil
}

// ShowStatsMode returns the configured show_stats mode, ShowIfError when
// unset.
func (c Config) ShowStatsMode() (ShowStats, error) {
	if c.Transfer.ShowStats == nil {
		return ShowIfError, nil
	}
	return ParseShowStats(*c.Transfer.ShowStats)
}

// Registry builds the converter registry from the [[filters]] tables.
func (c Config) Registry() (*filter.Registry, error) {
	reg := filter.NewRegistry()
	for i, f := range c.Filters {
		if err := reg.Register(f.SrcExt, f.DstExt, filter.Kind(strings.ToLower(f.Kind))); err != nil {
			return nil, fmt.Errorf("filters[%d]: %w", i, err)
		}
	}
	return reg, nil
}

// Batch returns opts adjusted for unattended runs, which never ignore errors
// and always overwrite, together with the ShowNever mode.
func Batch(opts engine.Options) (engine.Options, ShowStats) {
	opts.IgnoreErrors = false
	opts.Overwrite = engine.OverwriteAlways
	return opts, ShowNever
}

// ParseBufferSize parses "auto" (0) or a byte size such as "1MiB".
func ParseBufferSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "auto") {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	if n < engine.MinBufferSize || n > engine.MaxBufferSize {
		return 0, fmt.Errorf("%s is outside %s..%s", s,
			humanize.IBytes(engine.MinBufferSize), humanize.IBytes(engine.MaxBufferSize))
	}
	return int64(n), nil
}

// ParseRate parses a bandwidth limit such as "10MB" or "512KiB/s". An empty
// string or "0" means unlimited.
func ParseRate(s string) (int64, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "/s")
	if s == "" || s == "0" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}
