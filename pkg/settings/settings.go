// Package settings holds the persisted, mutable runtime knobs the spec
// otherwise scatters across hundreds of read_setting_*/write_setting_*
// accessors (spec.md §9 design note). One typed struct, one pair of
// generic Load/Save functions, defaults enumerated once.
package settings

import (
	"encoding/json"

	"lol.mleku.dev/chk"
)

// S is the full set of mutable runtime settings.
type S struct {
	// NumRelaysPerPerson is the picker's per-pubkey coverage target
	// (spec.md §4.4).
	NumRelaysPerPerson uint8 `json:"num_relays_per_person"`
	// MaxRelays is the picker's global connection cap (spec.md §4.4).
	MaxRelays uint8 `json:"max_relays"`
	// NumRelaysForCounting resolves the spec's ambiguous open question
	// (§9): the picker's cutoff is rank index >= this value AND score <= 5.
	NumRelaysForCounting uint8 `json:"num_relays_for_counting"`

	// AvoidSpamOnUnsafeRelays is the persisted spam-avoidance switch for
	// non-spamsafe relays (spec.md §4.5). minion.Synthesize takes this
	// choice as its avoidSpam argument; no caller passes this field to it.
	AvoidSpamOnUnsafeRelays bool `json:"avoid_spam_on_unsafe_relays"`

	// WebsocketConnectTimeoutSec, WebsocketPingFrequencySec and
	// HTTPTimeoutSec are the per-request timeouts of spec.md §5.
	WebsocketConnectTimeoutSec int `json:"websocket_connect_timeout_sec"`
	WebsocketPingFrequencySec  int `json:"websocket_ping_frequency_sec"`
	HTTPTimeoutSec             int `json:"http_timeout_sec"`

	// FutureAllowanceSec is the persisted created_at drift bound (spec.md
	// §3). The store does not read it; it keeps its own default, changed
	// only through store.D.SetFutureAllowance.
	FutureAllowanceSec int64 `json:"future_allowance_sec"`

	// FeedRecomputeIntervalSec sets the period of the overlord's feed
	// recompute task (spec.md §4.6). MetadataStaleAfterSec is persisted
	// but no task reads it.
	FeedRecomputeIntervalSec int64 `json:"feed_recompute_interval_sec"`
	MetadataStaleAfterSec    int64 `json:"metadata_stale_after_sec"`

	// OutboundQueueHighWaterMark is the persisted back-pressure threshold
	// (spec.md §4.5). The minion does not read it; its back-off starts at
	// half of its fixed outbound queue size.
	OutboundQueueHighWaterMark int `json:"outbound_queue_high_water_mark"`

	// ProofOfWork is the default leading-zero-bit target for
	// sign_event_with_pow when the UI doesn't override it.
	ProofOfWork int `json:"proof_of_work"`
}

// Default returns the spec's named default values in one place.
func Default() S {
	return S{
		NumRelaysPerPerson:         2,
		MaxRelays:                 50,
		NumRelaysForCounting:       3,
		AvoidSpamOnUnsafeRelays:    true,
		WebsocketConnectTimeoutSec: 15,
		WebsocketPingFrequencySec:  55,
		HTTPTimeoutSec:             30,
		FutureAllowanceSec:         15 * 60,
		FeedRecomputeIntervalSec:   10,
		MetadataStaleAfterSec:      3 * 24 * 3600,
		OutboundQueueHighWaterMark: 100,
		ProofOfWork:                0,
	}
}

// generalStore is the slice of store.D this package needs: accept
// interfaces, so pkg/settings never imports pkg/store.
type generalStore interface {
	GeneralGet(key string) ([]byte, error)
	GeneralSet(key string, val []byte) error
}

const generalKey = "settings"

// Load reads settings from gs, falling back to Default() if none are
// persisted yet.
func Load(gs generalStore) (s S, err error) {
	s = Default()
	raw, gerr := gs.GeneralGet(generalKey)
	if gerr != nil {
		return s, nil
	}
	if jerr := json.Unmarshal(raw, &s); chk.E(jerr) {
		return Default(), nil
	}
	return
}

// Save persists s into gs.
func Save(gs generalStore, s S) (err error) {
	var b []byte
	if b, err = json.Marshal(s); chk.E(err) {
		return
	}
	return gs.GeneralSet(generalKey, b)
}
