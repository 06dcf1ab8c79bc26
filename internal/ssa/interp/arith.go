package interp

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Integers are held in registers sign-extended to 64 bits; i1 is 0 or 1.

func wrap[T constraints.Signed](x uint64) uint64 {
	return uint64(int64(T(x)))
}

func zext[T constraints.Unsigned](x uint64) uint64 {
	return uint64(T(x))
}

// wrapBits truncates x to a signed integer of the given width.
func wrapBits(x uint64, bits int) uint64 {
	switch bits {
	case 1:
		return x & 1
	case 8:
		return wrap[int8](x)
	case 16:
		return wrap[int16](x)
	case 32:
		return wrap[int32](x)
	}
	return x
}

// zextBits reinterprets the low bits of x as unsigned.
func zextBits(x uint64, bits int) uint64 {
	switch bits {
	case 1:
		return x & 1
	case 8:
		return zext[uint8](x)
	case 16:
		return zext[uint16](x)
	case 32:
		return zext[uint32](x)
	}
	return x
}

func signed(x uint64) int64 { return int64(x) }

func fromFloat(f float64, bits int) uint64 {
	if bits == 32 {
		f = float64(float32(f))
	}
	return math.Float64bits(f)
}

func toFloat(x uint64) float64 { return math.Float64frombits(x) }

func boolBit(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
