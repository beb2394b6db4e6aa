// Package constraints holds small generic type-set constraints shared
// across the encoders and store packages.
package constraints

// Bytes is satisfied by the two common representations of a byte string.
type Bytes interface {
	string | []byte
}

// Integer is satisfied by any built-in integer type.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}
