package mathx

import "golang.org/x/exp/constraints"

// Mask returns width low bits set.
func Mask[T constraints.Unsigned](width uint) T {
	return T(1)<<width - 1
}

// Field extracts width bits of v starting at shift.
func Field[T constraints.Unsigned](v T, shift, width uint) T {
	return (v >> shift) & Mask[T](width)
}

// WithField returns v with width bits at shift replaced by f.
// Bits of f above width are discarded.
func WithField[T constraints.Unsigned](v T, shift, width uint, f T) T {
	m := Mask[T](width) << shift
	return v&^m | (f<<shift)&m
}

// Bit reports whether bit n of v is set.
func Bit[T constraints.Unsigned](v T, n uint) bool { return v>>n&1 == 1 }

// WithBit returns v with bit n set to b.
func WithBit[T constraints.Unsigned](v T, n uint, b bool) T {
	if b {
		return v | T(1)<<n
	}
	return v &^ (T(1) << n)
}
