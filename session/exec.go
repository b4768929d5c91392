package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/wnxd/micrort/args"
	"github.com/wnxd/micrort/device"
)

// Call is what an Executor receives for one task. ArgsAddr points at the
// packed argument block inside the args region of the device, and ArgsSize is
// what remains of the region from there.
type Call struct {
	Task     string
	Func     device.DevAddr
	ArgsAddr device.DevAddr
	ArgsSize uint64
	Args     args.List
}

// Executor runs device functions. Implementations report a broken
// connection by returning an error wrapping ErrDeviceLost.
type Executor interface {
	Execute(ctx context.Context, dev device.LowLevelDevice, call Call) (args.Arg, error)
}

type ExecutorFunc func(ctx context.Context, dev device.LowLevelDevice, call Call) (args.Arg, error)

func (f ExecutorFunc) Execute(ctx context.Context, dev device.LowLevelDevice, call Call) (args.Arg, error) {
	return f(ctx, dev, call)
}

type Handler = func(ctx context.Context, dev device.LowLevelDevice, call Call) (args.Arg, error)

// FuncTable executes calls by dispatching on the absolute function address to
// handlers running on the host. It stands in for device code in simulations.
type FuncTable struct {
	mu       sync.RWMutex
	handlers map[device.DevAddr]Handler
}

func NewFuncTable() *FuncTable {
	return &FuncTable{handlers: make(map[device.DevAddr]Handler)}
}

func (ft *FuncTable) Bind(addr device.DevAddr, h Handler) {
	ft.mu.Lock()
	ft.handlers[addr] = h
	ft.mu.Unlock()
}

func (ft *FuncTable) Unbind(addr device.DevAddr) {
	ft.mu.Lock()
	delete(ft.handlers, addr)
	ft.mu.Unlock()
}

func (ft *FuncTable) Execute(ctx context.Context, dev device.LowLevelDevice, call Call) (args.Arg, error) {
	ft.mu.RLock()
	h, ok := ft.handlers[call.Func]
	ft.mu.RUnlock()
	if !ok {
		return args.Null(), fmt.Errorf("%w: %s", ErrNoHandler, call.Func)
	}
	return h(ctx, dev, call)
}

// LogExecutor only logs the calls it receives.
type LogExecutor struct {
	Logger *slog.Logger
}

func (le LogExecutor) Execute(ctx context.Context, dev device.LowLevelDevice, call Call) (args.Arg, error) {
	logger := le.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "execute", "task", call.Task, "func", call.Func, "args_addr", call.ArgsAddr, "args", call.Args.String())
	return args.Null(), nil
}
