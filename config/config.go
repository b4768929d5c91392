// Package config reads the YAML file describing the device, the session layout
// and logging for micrort.
package config

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/wnxd/micrort/device"
	"github.com/wnxd/micrort/session"
)

const Filename = "micrort.yml"

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Device  Device  `yaml:"device"`
	Session Session `yaml:"session"`
	Log     Log     `yaml:"log"`
}

type Device struct {
	Base        uint64 `yaml:"base"`
	Size        uint64 `yaml:"size"`
	PointerSize int    `yaml:"pointer_size"`
	ByteOrder   string `yaml:"byte_order"`
}

type Session struct {
	Runtime        string `yaml:"runtime,omitempty"`
	session.Layout `yaml:",inline"`
	QueueSize      int    `yaml:"queue_size"`
	Trace          string `yaml:"trace,omitempty"` // sqlite file, empty disables tracing
}

type Log struct {
	Level slog.Level `yaml:"level"`
}

func Default() *Config {
	return &Config{
		Device: Device{
			Base:        0x20000000,
			Size:        0x100000,
			PointerSize: 4,
			ByteOrder:   "little",
		},
		Session: Session{
			Layout:    session.DefaultLayout(),
			QueueSize: 64,
		},
		Log: Log{Level: slog.LevelInfo},
	}
}

// Load reads path on top of Default. Relative runtime and trace paths are
// resolved against the directory of the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	dir := filepath.Dir(path)
	cfg.Session.Runtime = resolve(dir, cfg.Session.Runtime)
	cfg.Session.Trace = resolve(dir, cfg.Session.Trace)
	return cfg, nil
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func (c *Config) Validate() error {
	if c.Device.PointerSize != 4 && c.Device.PointerSize != 8 {
		return fmt.Errorf("%w: pointer_size %d", ErrInvalid, c.Device.PointerSize)
	}
	if _, err := c.Device.Order(); err != nil {
		return err
	}
	if c.Device.Size == 0 {
		return fmt.Errorf("%w: device size is zero", ErrInvalid)
	}
	if err := c.Session.Layout.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	for name, r := range map[string]session.Range{
		"binary_region": c.Session.Binary,
		"args_region":   c.Session.Args,
	} {
		if uint64(r.End()) > c.Device.Size {
			return fmt.Errorf("%w: %s ends at %s past device size %#x", ErrInvalid, name, r.End(), c.Device.Size)
		}
	}
	if c.Session.QueueSize < 0 {
		return fmt.Errorf("%w: queue_size %d", ErrInvalid, c.Session.QueueSize)
	}
	return nil
}

func (d Device) Order() (binary.ByteOrder, error) {
	switch d.ByteOrder {
	case "", "little":
		return binary.LittleEndian, nil
	case "big":
		return binary.BigEndian, nil
	}
	return nil, fmt.Errorf("%w: byte_order %q", ErrInvalid, d.ByteOrder)
}

// NewMemory builds the in-memory device model described by d.
func (d Device) NewMemory() (*device.Memory, error) {
	order, err := d.Order()
	if err != nil {
		return nil, err
	}
	return device.NewMemory(device.DevAddr(d.Base), d.Size,
		device.WithPointerSize(d.PointerSize),
		device.WithByteOrder(order),
	), nil
}

// Options turns s into session options. The recorder is left to the caller.
func (s Session) Options() []session.Option {
	opts := []session.Option{session.WithLayout(s.Layout)}
	if s.Runtime != "" {
		opts = append(opts, session.WithRuntime(s.Runtime))
	}
	if s.QueueSize > 0 {
		opts = append(opts, session.WithQueueSize(s.QueueSize))
	}
	return opts
}
