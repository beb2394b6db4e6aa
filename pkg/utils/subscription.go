package utils

import "strconv"

// NewSubscription renders a deterministic subscription identifier for a
// given sequence number, used by the envelope tests.
func NewSubscription(n int) []byte {
	return append([]byte("sub:"), strconv.Itoa(n)...)
}
