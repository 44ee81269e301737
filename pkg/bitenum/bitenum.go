// Package bitenum implements a small generic bit-set over enumerations
// whose underlying values fit in a uint64.
package bitenum

// BitEnum is a bit-set over values 0..63 of some flag enumeration T. It is
// stored as a single uint64, which is also its wire representation (a
// uvarint, per pkg/wirecodec).
type BitEnum[T ~uint8] uint64

// New builds a BitEnum containing the given flags.
func New[T ~uint8](flags ...T) BitEnum[T] {
	var b BitEnum[T]
	for _, f := range flags {
		b = b.With(f)
	}
	return b
}

// With returns a copy of b with flag set.
func (b BitEnum[T]) With(flag T) BitEnum[T] {
	return b | (1 << uint(flag))
}

// Without returns a copy of b with flag cleared.
func (b BitEnum[T]) Without(flag T) BitEnum[T] {
	return b &^ (1 << uint(flag))
}

// Has reports whether flag is set.
func (b BitEnum[T]) Has(flag T) bool {
	return b&(1<<uint(flag)) != 0
}

// Uint64 returns the raw bitmask.
func (b BitEnum[T]) Uint64() uint64 {
	return uint64(b)
}

// FromUint64 reconstructs a BitEnum from its raw bitmask.
func FromUint64[T ~uint8](v uint64) BitEnum[T] {
	return BitEnum[T](v)
}
