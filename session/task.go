package session

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/rs/xid"

	"github.com/wnxd/micrort/args"
	"github.com/wnxd/micrort/device"
)

type TaskStatus int32

const (
	TaskStatus_Pending TaskStatus = iota
	TaskStatus_Running
	TaskStatus_Done
)

func (s TaskStatus) Error() string {
	switch s {
	case TaskStatus_Pending:
		return "pending"
	case TaskStatus_Running:
		return "running"
	case TaskStatus_Done:
		return "done"
	}
	return "unknown"
}

// Task is one queued invocation of a device function.
type Task interface {
	ID() string
	Func() device.DevBaseOffset
	Args() args.List
	Status() TaskStatus
	Done() <-chan struct{}
	Err() error
	Result() args.Arg
	Wait(ctx context.Context) (args.Arg, error)
}

type task struct {
	id     string
	fn     device.DevBaseOffset
	symbol string
	args   args.List
	status atomic.Int32
	result args.Arg
	ctx    context.Context
	cancel context.CancelCauseFunc
}

func newTask(ctx context.Context, fn device.DevBaseOffset, list args.List) *task {
	t := &task{id: xid.New().String(), fn: fn, args: list}
	t.ctx, t.cancel = context.WithCancelCause(ctx)
	return t
}

func (t *task) ID() string {
	return t.id
}

func (t *task) Func() device.DevBaseOffset {
	return t.fn
}

func (t *task) Args() args.List {
	return t.args
}

func (t *task) Status() TaskStatus {
	return TaskStatus(t.status.Load())
}

func (t *task) Done() <-chan struct{} {
	return t.ctx.Done()
}

func (t *task) Err() error {
	err := context.Cause(t.ctx)
	if errors.Is(err, TaskStatus_Done) {
		err = nil
	}
	return err
}

// Result is only meaningful once Done is closed and Err is nil.
func (t *task) Result() args.Arg {
	select {
	case <-t.Done():
		return t.result
	default:
		return args.Null()
	}
}

func (t *task) Wait(ctx context.Context) (args.Arg, error) {
	select {
	case <-ctx.Done():
		return args.Null(), context.Cause(ctx)
	case <-t.Done():
		return t.Result(), t.Err()
	}
}

func (t *task) start() bool {
	return t.status.CompareAndSwap(int32(TaskStatus_Pending), int32(TaskStatus_Running)) && t.ctx.Err() == nil
}

func (t *task) finish(result args.Arg, err error) {
	t.result = result
	t.status.Store(int32(TaskStatus_Done))
	if err == nil {
		err = TaskStatus_Done
	}
	t.cancel(err)
}
