package micro

import (
	"fmt"
	"log/slog"

	"github.com/wnxd/micrort/args"
	"github.com/wnxd/micrort/device"
	"github.com/wnxd/micrort/session"
)

// Func is a device function bound to its offset. It keeps the session alive
// but not the Module it came from.
type Func struct {
	sess   Session
	name   string
	offset device.DevBaseOffset
	logger *slog.Logger
}

func (f *Func) Name() string {
	return f.name
}

func (f *Func) Offset() device.DevBaseOffset {
	return f.offset
}

// Invoke queues one call and does not wait for it. An invalid session makes
// it a no-op.
func (f *Func) Invoke(list ...args.Arg) {
	run(f.sess, f.logger, f.name, f.offset, args.List(list))
}

// InvokeValues converts host values with args.From before invoking.
func (f *Func) InvokeValues(vals ...any) error {
	list, err := args.From(vals...)
	if err != nil {
		return err
	}
	f.Invoke(list...)
	return nil
}

// Call queues one call and returns its task.
func (f *Func) Call(list ...args.Arg) (session.Task, error) {
	if !f.sess.Valid() {
		return nil, ErrSessionInvalid
	}
	t, err := f.sess.PushToExecQueue(f.offset, args.List(list))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.name, err)
	}
	return t, nil
}

func (f *Func) String() string {
	return fmt.Sprintf("%s@%s", f.name, f.offset)
}
