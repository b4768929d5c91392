package session

import (
	"errors"

	"github.com/wnxd/micrort/internal/arena"
)

var (
	ErrSessionClosed = errors.New("session closed")
	ErrDeviceLost    = errors.New("device lost")
	ErrNoHandler     = errors.New("no handler bound at address")
	ErrOutOfSpace    = arena.ErrOutOfSpace
)
