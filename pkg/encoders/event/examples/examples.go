// Package examples bundles a small newline-delimited corpus of raw nostr
// events in the exact minified form this codec produces, used to exercise
// the marshal/unmarshal round trip against real wire bytes.
package examples

// Cache holds one JSON-encoded event per line, each already in this
// package's canonical minified field order so re-marshaling reproduces the
// line exactly.
var Cache = []byte(`{"id":"0101010101010101010101010101010101010101010101010101010101010101","pubkey":"0202020202020202020202020202020202020202020202020202020202020202","created_at":1700000000,"kind":1,"tags":[["e","0404040404040404040404040404040404040404040404040404040404040404"],["p","0505050505050505050505050505050505050505050505050505050505050505"]],"content":"hello world","sig":"03030303030303030303030303030303030303030303030303030303030303030303030303030303030303030303030303030303030303030303030303030303"}
{"id":"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa","pubkey":"9999999999999999999999999999999999999999999999999999999999999999","created_at":1700000001,"kind":0,"tags":[],"content":"{\"name\":\"test\"}","sig":"11111111111111111111111111111111111111111111111111111111111111111111111111111111111111111111111111111111111111111111111111111111"}`)
