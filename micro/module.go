// Package micro loads compiled operator libraries onto a micro device and
// exposes their functions as callables that run through a device session.
package micro

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/wnxd/micrort/args"
	"github.com/wnxd/micrort/device"
	"github.com/wnxd/micrort/loader"
	"github.com/wnxd/micrort/session"
)

const (
	TypeKey    = "micro"
	holeSuffix = "_"
)

// DefaultHoles are the runtime entry points every loaded module imports.
var DefaultHoles = []string{
	"TVMBackendAllocWorkspace",
	"TVMBackendFreeWorkspace",
	"TVMAPISetLastError",
}

// Session is the device session a Module is loaded through.
type Session interface {
	LoadBinary(path string) (*loader.BinaryInfo, error)
	InitSymbolMap() loader.SymbolMap
	LowLevelDevice() device.LowLevelDevice
	Valid() bool
	PushToExecQueue(off device.DevBaseOffset, list args.List) (session.Task, error)
}

type Option func(*options)

type options struct {
	holes  []string
	logger *slog.Logger
}

// WithHoles adds ABI symbols to patch after the default ones.
func WithHoles(names ...string) Option {
	return func(o *options) {
		o.holes = append(o.holes, names...)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

type Module struct {
	path   string
	info   *loader.BinaryInfo
	sess   Session
	dev    device.LowLevelDevice
	logger *slog.Logger
}

// Load places the binary at path on the session's device and patches its
// runtime holes. A Module is returned only when every step succeeded.
func Load(sess Session, path string, opts ...Option) (*Module, error) {
	o := options{holes: slices.Clone(DefaultHoles), logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	m := &Module{
		path:   path,
		sess:   sess,
		dev:    sess.LowLevelDevice(),
		logger: o.logger.With("module", path),
	}
	info, err := sess.LoadBinary(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadFailure, path, err)
	}
	m.info = info
	m.logger.Debug("binary loaded", "regions", len(info.Regions), "symbols", len(info.Symbols))
	for _, name := range o.holes {
		if err = m.patchHole(name); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Module) patchHole(name string) error {
	impl, err := m.sess.InitSymbolMap().Lookup(name)
	if err != nil {
		return fmt.Errorf("%w: runtime %w", ErrMissingSymbol, err)
	}
	hole := name + holeSuffix
	off, err := m.info.Symbols.Lookup(hole)
	if err != nil {
		return fmt.Errorf("%w: module %w", ErrMissingSymbol, err)
	}
	addr := impl.Addr(m.dev.BaseAddr())
	if err = device.ToPointer(m.dev, off).WritePointer(addr); err != nil {
		return fmt.Errorf("%w: %s at %s: %w", ErrPatchWrite, hole, off, err)
	}
	m.logger.Debug("hole patched", "hole", hole, "offset", off, "addr", addr)
	return nil
}

func (m *Module) Path() string {
	return m.path
}

func (m *Module) BinaryInfo() *loader.BinaryInfo {
	return m.info
}

func (m *Module) Symbols() loader.SymbolMap {
	return m.info.Symbols
}

func (m *Module) TypeKey() string {
	return TypeKey
}

// GetFunction binds the named function. Calling it on a Module that did not
// come from Load panics.
func (m *Module) GetFunction(name string) (*Func, error) {
	if m == nil || m.info == nil {
		panic("micro: GetFunction on uninitialized module")
	}
	off, err := m.info.Symbols.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMissingSymbol, err)
	}
	return &Func{sess: m.sess, name: name, offset: off, logger: m.logger}, nil
}

// RunFunction queues a call of the function at off. Nothing is queued when the
// session is no longer valid.
func (m *Module) RunFunction(name string, off device.DevBaseOffset, list args.List) {
	run(m.sess, m.logger, name, off, list)
}

func run(sess Session, logger *slog.Logger, name string, off device.DevBaseOffset, list args.List) {
	if !sess.Valid() {
		return
	}
	if _, err := sess.PushToExecQueue(off, list); err != nil {
		logger.Debug("call dropped", "func", name, "offset", off, "err", err)
	}
}
