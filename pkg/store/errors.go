package store

import "lol.mleku.dev/errorf"

var (
	// ErrNotFound is returned by lookups that find nothing.
	ErrNotFound = errorf.E("store: not found")
	// ErrDuplicate names the already-present case. WriteEvent does not
	// return it: a duplicate is a no-op success, reported as wrote=false
	// with a nil error (spec.md §8 dedupe).
	ErrDuplicate = errorf.E("store: duplicate event")
	// ErrBadID is returned when an event's id does not match the hash of
	// its canonical encoding.
	ErrBadID = errorf.E("store: id does not match canonical hash")
	// ErrBadSignature is returned when an event's signature fails to
	// verify against its id and pubkey.
	ErrBadSignature = errorf.E("store: signature does not verify")
	// ErrFutureEvent is returned when created_at exceeds now+future_allowance.
	ErrFutureEvent = errorf.E("store: created_at too far in the future")
	// ErrBannedRelay is returned when a relay URL fails relayurl.Normalize.
	ErrBannedRelay = errorf.E("store: banned or invalid relay url")
	// ErrMissingDTag is returned when a parameterized-replaceable event
	// lacks the required "d" tag.
	ErrMissingDTag = errorf.E("store: parameterized replaceable event missing d tag")
)
