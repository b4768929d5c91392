package loader

import "errors"

var (
	ErrSymbolNotFound = errors.New("symbol not found")
	ErrNotLoadable    = errors.New("image has nothing to load")
	ErrFormat         = errors.New("unsupported image format")
)
