// Package ints implements a small integer wrapper used for marshaling and
// parsing decimal integers embedded in minified JSON (filter limit/since/
// until, event kind, count envelope counts).
package ints

import (
	"strconv"

	"lol.mleku.dev/errorf"

	"github.com/mikedilger/gossip-sub003/pkg/utils/constraints"
)

// T wraps an integer value for JSON-number marshal/unmarshal.
type T struct{ N int }

// New wraps v in a T, accepting any built-in integer type.
func New[V constraints.Integer](v V) *T { return &T{N: int(v)} }

// Uint16 returns N truncated to a uint16, as used for event kind numbers.
func (t *T) Uint16() uint16 { return uint16(t.N) }

// Marshal appends the decimal representation of N to dst.
func (t *T) Marshal(dst []byte) []byte {
	return strconv.AppendInt(dst, int64(t.N), 10)
}

// Unmarshal parses a decimal integer prefix of b into N, returning the
// remainder.
func (t *T) Unmarshal(b []byte) (r []byte, err error) {
	i := 0
	if i < len(b) && (b[i] == '-' || b[i] == '+') {
		i++
	}
	start := i
	for i < len(b) && b[i] >= '0' && b[i] <= '9' {
		i++
	}
	if i == start {
		err = errorf.E("ints: expected decimal integer, got '%s'", b)
		return
	}
	var v int64
	if v, err = strconv.ParseInt(string(b[:i]), 10, 64); err != nil {
		return
	}
	t.N = int(v)
	r = b[i:]
	return
}
