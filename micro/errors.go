package micro

import "errors"

var (
	ErrLoadFailure    = errors.New("micro module load failure")
	ErrMissingSymbol  = errors.New("missing symbol")
	ErrPatchWrite     = errors.New("hole patch write failed")
	ErrSessionInvalid = errors.New("session invalid")
	ErrUnknownKind    = errors.New("unknown module kind")
)
