package micro

import (
	"fmt"
	"sync"
)

// Handle is a loaded module as seen by callers of LoadFile.
type Handle interface {
	TypeKey() string
	GetFunction(name string) (*Func, error)
}

type Loader func(sess Session, path string) (Handle, error)

var (
	loaderMu  sync.RWMutex
	loaderMap = make(map[string]Loader)
)

var _ = Register(TypeKey+"_dev", loadHandle)

func Register(kind string, fn Loader) bool {
	loaderMu.Lock()
	defer loaderMu.Unlock()
	if _, ok := loaderMap[kind]; ok {
		return false
	}
	loaderMap[kind] = fn
	return true
}

func LoadFile(kind string, sess Session, path string) (Handle, error) {
	loaderMu.RLock()
	fn, ok := loaderMap[kind]
	loaderMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return fn(sess, path)
}

func loadHandle(sess Session, path string) (Handle, error) {
	m, err := Load(sess, path)
	if err != nil {
		return nil, err
	}
	return m, nil
}
