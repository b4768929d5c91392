// Package session owns the connection to a micro device and runs function
// calls on it through a single FIFO execution queue.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/xid"

	"github.com/wnxd/micrort/args"
	"github.com/wnxd/micrort/device"
	"github.com/wnxd/micrort/emulator"
	"github.com/wnxd/micrort/internal/arena"
	"github.com/wnxd/micrort/loader"
)

type Session struct {
	id       string
	dev      device.LowLevelDevice
	exec     Executor
	layout   Layout
	logger   *slog.Logger
	recorder Recorder

	runtime     string
	initSymbols loader.SymbolMap
	binaries    *arena.Arena
	argsArena   *arena.Arena

	mu       sync.RWMutex
	loaded   []*loader.BinaryInfo
	funcName map[device.DevBaseOffset]string
	pushing  sync.WaitGroup

	valid     atomic.Bool
	queueSize int
	queue     chan *task
	ctx       context.Context
	cancel    context.CancelCauseFunc
	closed    chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

type Option func(*Session)

// WithRuntime loads the runtime binary at path when the session starts. Its
// symbols become the init symbol map.
func WithRuntime(path string) Option {
	return func(s *Session) { s.runtime = path }
}

// WithInitSymbols sets the init symbol map of a runtime already resident on
// the device.
func WithInitSymbols(symbols loader.SymbolMap) Option {
	return func(s *Session) { s.initSymbols = symbols.Clone() }
}

func WithLayout(layout Layout) Option {
	return func(s *Session) { s.layout = layout }
}

func WithRecorder(r Recorder) Option {
	return func(s *Session) { s.recorder = r }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

func WithQueueSize(n int) Option {
	return func(s *Session) { s.queueSize = n }
}

// New starts a session on dev. The session takes ownership of dev and closes
// it in Close.
func New(dev device.LowLevelDevice, exec Executor, opts ...Option) (*Session, error) {
	s := &Session{
		id:        xid.New().String(),
		dev:       dev,
		exec:      exec,
		layout:    DefaultLayout(),
		recorder:  nopRecorder{},
		queueSize: 64,
		funcName:  make(map[device.DevBaseOffset]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("session", s.id)
	if err := s.layout.Validate(); err != nil {
		return nil, err
	}
	s.binaries = arena.New("binary region", s.layout.Binary.Offset, s.layout.Binary.Size)
	s.argsArena = arena.New("args region", s.layout.Args.Offset, s.layout.Args.Size)
	s.queue = make(chan *task, max(s.queueSize, 1))
	s.closed = make(chan struct{})
	s.stopped = make(chan struct{})
	s.ctx, s.cancel = context.WithCancelCause(context.Background())
	s.valid.Store(true)
	go s.loop()

	if s.runtime != "" {
		info, err := s.LoadBinary(s.runtime)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("load runtime: %w", err)
		}
		s.initSymbols = info.Symbols
	}
	if s.initSymbols == nil {
		s.initSymbols = make(loader.SymbolMap)
	}
	s.logger.Info("session started", "base", dev.BaseAddr(), "runtime", s.runtime, "init_symbols", len(s.initSymbols))
	return s, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) LowLevelDevice() device.LowLevelDevice {
	return s.dev
}

func (s *Session) InitSymbolMap() loader.SymbolMap {
	return s.initSymbols
}

func (s *Session) Valid() bool {
	return s.valid.Load()
}

func (s *Session) Binaries() []*loader.BinaryInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*loader.BinaryInfo(nil), s.loaded...)
}

// LoadBinary writes the binary at path into the binary region and returns
// where its regions and symbols landed.
func (s *Session) LoadBinary(path string) (*loader.BinaryInfo, error) {
	if !s.Valid() {
		return nil, ErrSessionClosed
	}
	img, err := loader.Open(path)
	if err != nil {
		return nil, err
	}
	defer img.Close()
	if size, err := img.Arch().PointerSize(); err != nil {
		return nil, err
	} else if size != s.dev.PointerSize() {
		return nil, fmt.Errorf("%w: %s image on %d-byte pointer device", emulator.ErrArchMismatch, img.Arch(), s.dev.PointerSize())
	}
	regions := img.Regions()
	begin, end := loader.Span(regions)
	// regions keep their link-time distances, so off must agree with begin
	// modulo the strictest alignment
	align := loader.MaxAlign(regions)
	lead := begin % align
	start, err := s.binaries.Alloc(lead+end-begin, align)
	if err != nil {
		return nil, err
	}
	off := start.Add(lead)
	info := loader.Place(path, img, off)
	for i, r := range regions {
		if err = s.writeRegion(info.Regions[i].Offset, r); err != nil {
			return nil, fmt.Errorf("write %s: %w", r.Name, err)
		}
	}

	s.mu.Lock()
	s.loaded = append(s.loaded, info)
	for name, off := range info.Symbols {
		s.funcName[off] = name
	}
	s.mu.Unlock()
	s.logger.Debug("binary loaded", "path", path, "offset", off, "size", end-begin, "symbols", len(info.Symbols))
	return info, nil
}

func (s *Session) writeRegion(off device.DevBaseOffset, r loader.Region) error {
	if r.Length > 0 {
		data := make([]byte, r.Length)
		if _, err := r.ReadAt(data, 0); err != nil {
			return err
		}
		if err := s.dev.Write(off, data); err != nil {
			return err
		}
	}
	if r.Size > r.Length {
		return s.dev.Write(off.Add(r.Length), make([]byte, r.Size-r.Length))
	}
	return nil
}

// PushToExecQueue queues a call of the function at off. The returned Task
// completes once the executor has run it.
func (s *Session) PushToExecQueue(off device.DevBaseOffset, list args.List) (Task, error) {
	s.mu.RLock()
	if !s.Valid() {
		s.mu.RUnlock()
		return nil, ErrSessionClosed
	}
	t := newTask(s.ctx, off, list)
	t.symbol = s.funcName[off]
	s.pushing.Add(1)
	s.mu.RUnlock()
	defer s.pushing.Done()

	select {
	case s.queue <- t:
		return t, nil
	case <-s.closed:
		t.finish(args.Null(), ErrSessionClosed)
		return nil, ErrSessionClosed
	}
}

func (s *Session) loop() {
	defer close(s.stopped)
	for {
		select {
		case <-s.closed:
			return
		case t := <-s.queue:
			s.run(t)
		}
	}
}

func (s *Session) run(t *task) {
	if !t.start() {
		return
	}
	start := time.Now()
	res, err := s.execute(t)
	t.finish(res, err)

	rec := Record{
		Session:  s.id,
		Task:     t.id,
		Symbol:   t.symbol,
		Func:     uint64(t.fn),
		Args:     t.args.String(),
		Status:   "ok",
		Start:    start,
		Duration: time.Since(start),
	}
	if err != nil {
		rec.Status, rec.Error = "error", err.Error()
		s.logger.Warn("task failed", "task", t.id, "func", t.fn, "error", err)
	}
	if rerr := s.recorder.Record(rec); rerr != nil {
		s.logger.Warn("trace record failed", "task", t.id, "error", rerr)
	}
}

func (s *Session) execute(t *task) (args.Arg, error) {
	ps := uint64(s.dev.PointerSize())
	s.argsArena.Reset()
	argsOff, err := s.argsArena.Alloc(ps*uint64(1+2*len(t.args)), ps)
	if err != nil {
		return args.Null(), err
	}
	alloc := func(size uint64) (device.Pointer, error) {
		off, err := s.argsArena.Alloc(size, ps)
		return device.ToPointer(s.dev, off), err
	}
	if err = args.Encode(args.PointerStream(s.dev, argsOff, alloc), t.args); err != nil {
		return args.Null(), fmt.Errorf("pack arguments: %w", err)
	}
	base := s.dev.BaseAddr()
	res, err := s.exec.Execute(t.ctx, s.dev, Call{
		Task:     t.id,
		Func:     t.fn.Addr(base),
		ArgsAddr: argsOff.Addr(base),
		ArgsSize: uint64(s.layout.Args.End() - argsOff),
		Args:     t.args,
	})
	if errors.Is(err, ErrDeviceLost) {
		s.invalidate(err)
	}
	return res, err
}

func (s *Session) invalidate(cause error) {
	if s.valid.CompareAndSwap(true, false) {
		s.logger.Error("session invalidated", "error", cause)
	}
}

// Close invalidates the session, fails every queued task with
// ErrSessionClosed and releases the device.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.valid.Store(false)
		close(s.closed)
		// no push can start once the lock has been taken with valid cleared
		s.mu.Lock()
		s.mu.Unlock()
		s.pushing.Wait()
		s.cancel(ErrSessionClosed)
		<-s.stopped
	drain:
		for {
			select {
			case t := <-s.queue:
				t.finish(args.Null(), ErrSessionClosed)
			default:
				break drain
			}
		}
		err = s.recorder.Close()
		if derr := s.dev.Close(); err == nil {
			err = derr
		}
		s.logger.Info("session closed")
	})
	return err
}
