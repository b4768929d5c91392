package loader

import "golang.org/x/exp/constraints"

func Align[I constraints.Integer](a, b I) I {
	if b <= 1 {
		return a
	}
	return (a + b - 1) &^ (b - 1)
}
