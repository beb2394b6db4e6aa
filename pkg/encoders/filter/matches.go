package filter

import (
	"bytes"

	"github.com/mikedilger/gossip-sub003/pkg/encoders/event"
)

// Matches reports whether ev satisfies every constraint present on f: ids,
// kinds, authors, tag constraints and the since/until window. An absent
// constraint (nil or empty) always passes. This is the store's
// `event_matches` predicate (spec.md §4.1): the query planner's index scan
// only narrows candidates, Matches is what actually decides membership.
func (f *F) Matches(ev *event.E) bool {
	if ev == nil {
		return false
	}
	if f.Ids != nil && f.Ids.Len() > 0 {
		if !containsBytes(f.Ids.T, ev.ID) {
			return false
		}
	}
	if f.Kinds != nil && f.Kinds.Len() > 0 {
		if !f.Kinds.Contains(ev.Kind) {
			return false
		}
	}
	if f.Authors != nil && f.Authors.Len() > 0 {
		if !containsBytes(f.Authors.T, ev.Pubkey) {
			return false
		}
	}
	if f.Tags != nil && f.Tags.Len() > 0 {
		for _, want := range *f.Tags {
			if want == nil || want.Len() < 2 {
				continue
			}
			letter := want.T[0]
			if len(letter) != 1 {
				continue
			}
			values := want.T[1:]
			if !eventHasTagValue(ev, letter[0], values) {
				return false
			}
		}
	}
	if f.Since != nil && f.Since.I64() > 0 && ev.CreatedAt < f.Since.I64() {
		return false
	}
	if f.Until != nil && f.Until.I64() > 0 && ev.CreatedAt > f.Until.I64() {
		return false
	}
	return true
}

func containsBytes(haystack [][]byte, needle []byte) bool {
	for _, h := range haystack {
		if bytes.Equal(h, needle) {
			return true
		}
	}
	return false
}

func eventHasTagValue(ev *event.E, letter byte, values [][]byte) bool {
	if ev.Tags == nil {
		return false
	}
	for _, t := range *ev.Tags {
		if t == nil || t.Len() < 2 {
			continue
		}
		if len(t.T[0]) != 1 || t.T[0][0] != letter {
			continue
		}
		if containsBytes(values, t.T[1]) {
			return true
		}
	}
	return false
}
