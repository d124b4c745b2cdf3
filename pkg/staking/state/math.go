package state

type unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// SaturatingAdd returns a+b, clamped to the type's maximum.
func SaturatingAdd[T unsigned](a, b T) T {
	sum := a + b
	if sum < a {
		return ^T(0)
	}
	return sum
}

// SaturatingSub returns a-b, clamped to zero.
func SaturatingSub[T unsigned](a, b T) T {
	if b > a {
		return 0
	}
	return a - b
}
