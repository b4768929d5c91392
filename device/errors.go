package device

import "errors"

var (
	ErrOutOfRange  = errors.New("access out of device range")
	ErrBelowBase   = errors.New("address below device base")
	ErrPointerSize = errors.New("pointer size unsupported")
	ErrClosed      = errors.New("device closed")
)
