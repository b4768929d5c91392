// Package args holds the argument lists forwarded to device functions.
package args

import (
	"fmt"
	"math"
	"strings"

	"github.com/wnxd/micrort/device"
)

type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindUint
	KindFloat
	KindHandle
	KindBytes
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindHandle:
		return "handle"
	case KindBytes:
		return "bytes"
	case KindString:
		return "string"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Arg is a single tagged argument value.
type Arg struct {
	kind Kind
	bits uint64
	data []byte
}

// List is an ordered argument list.
type List []Arg

func Null() Arg                      { return Arg{kind: KindNull} }
func Int(v int64) Arg                { return Arg{kind: KindInt, bits: uint64(v)} }
func Uint(v uint64) Arg              { return Arg{kind: KindUint, bits: v} }
func Float(v float64) Arg            { return Arg{kind: KindFloat, bits: math.Float64bits(v)} }
func Handle(addr device.DevAddr) Arg { return Arg{kind: KindHandle, bits: uint64(addr)} }
func Bytes(b []byte) Arg             { return Arg{kind: KindBytes, data: b} }
func String(s string) Arg            { return Arg{kind: KindString, data: []byte(s)} }

func (a Arg) Kind() Kind             { return a.kind }
func (a Arg) Int() int64             { return int64(a.bits) }
func (a Arg) Uint() uint64           { return a.bits }
func (a Arg) Float() float64         { return math.Float64frombits(a.bits) }
func (a Arg) Handle() device.DevAddr { return device.DevAddr(a.bits) }
func (a Arg) Bytes() []byte          { return a.data }
func (a Arg) Text() string           { return string(a.data) }

func (a Arg) Equal(b Arg) bool {
	return a.kind == b.kind && a.bits == b.bits && string(a.data) == string(b.data)
}

func (a Arg) String() string {
	switch a.kind {
	case KindNull:
		return "null"
	case KindInt:
		return fmt.Sprint(a.Int())
	case KindUint:
		return fmt.Sprint(a.Uint())
	case KindFloat:
		return fmt.Sprint(a.Float())
	case KindHandle:
		return a.Handle().String()
	case KindBytes:
		return fmt.Sprintf("bytes[%d]", len(a.data))
	case KindString:
		return fmt.Sprintf("%q", a.data)
	}
	return a.kind.String()
}

func (l List) String() string {
	parts := make([]string, len(l))
	for i, a := range l {
		parts[i] = a.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (l List) Equal(o List) bool {
	if len(l) != len(o) {
		return false
	}
	for i := range l {
		if !l[i].Equal(o[i]) {
			return false
		}
	}
	return true
}
