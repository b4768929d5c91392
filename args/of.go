package args

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/modern-go/reflect2"

	"github.com/wnxd/micrort/device"
)

var ErrUnsupportedType = errors.New("argument type unsupported")

// Of converts a host value into an Arg. Named types are classified by their
// underlying kind.
func Of(v any) (Arg, error) {
	if v == nil {
		return Null(), nil
	}
	switch x := v.(type) {
	case Arg:
		return x, nil
	case device.DevAddr:
		return Handle(x), nil
	case []byte:
		return Bytes(x), nil
	}
	typ := reflect2.TypeOf(v)
	kind := typ.Kind()
	if reflect2.IsNullable(kind) && reflect2.IsNil(v) {
		return Null(), nil
	}
	ptr := reflect2.PtrOf(v)
	switch kind {
	case reflect.Bool:
		if *(*bool)(ptr) {
			return Int(1), nil
		}
		return Int(0), nil
	case reflect.Int:
		return Int(int64(*(*int)(ptr))), nil
	case reflect.Int8:
		return Int(int64(*(*int8)(ptr))), nil
	case reflect.Int16:
		return Int(int64(*(*int16)(ptr))), nil
	case reflect.Int32:
		return Int(int64(*(*int32)(ptr))), nil
	case reflect.Int64:
		return Int(*(*int64)(ptr)), nil
	case reflect.Uint:
		return Uint(uint64(*(*uint)(ptr))), nil
	case reflect.Uint8:
		return Uint(uint64(*(*uint8)(ptr))), nil
	case reflect.Uint16:
		return Uint(uint64(*(*uint16)(ptr))), nil
	case reflect.Uint32:
		return Uint(uint64(*(*uint32)(ptr))), nil
	case reflect.Uint64:
		return Uint(*(*uint64)(ptr)), nil
	case reflect.Uintptr:
		return Uint(uint64(*(*uintptr)(ptr))), nil
	case reflect.Float32:
		return Float(float64(*(*float32)(ptr))), nil
	case reflect.Float64:
		return Float(*(*float64)(ptr)), nil
	case reflect.String:
		return String(*(*string)(ptr)), nil
	}
	return Arg{}, fmt.Errorf("%w: %s", ErrUnsupportedType, typ.String())
}

// From converts every value with Of.
func From(vals ...any) (List, error) {
	list := make(List, len(vals))
	for i, v := range vals {
		a, err := Of(v)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		list[i] = a
	}
	return list, nil
}
