package store

import "github.com/mikedilger/gossip-sub003/pkg/encoders/kind"

// indexedKinds is the compile-time enumeration of kinds the KCI index
// covers (spec.md §4.1 "Indexed kinds are a compile-time enumeration").
// Kinds outside this set still get AKCI rows when queried with authors;
// a bare kind-only query outside this set falls through to the scrape.
var indexedKinds = map[uint16]bool{
	kind.TextNote.ToU16():               true,
	0:                                   true, // ProfileMetadata
	3:                                   true, // FollowList
	5:                                   true, // EventDeletion
	6:                                   true, // Repost
	7:                                   true, // Reaction
	16:                                  true, // GenericRepost
	1059:                                true, // GiftWrap
	10002:                               true, // RelayListMetadata
	10050:                               true, // DMRelayList
	9735:                                true, // ZapReceipt
	1111:                                true, // Comment
}

// IsIndexedKind reports whether k is in the KCI-indexed set.
func IsIndexedKind(k uint16) bool { return indexedKinds[k] }

// indexedTagLetters is the compile-time enumeration of single-letter tag
// names the TCI index covers (spec.md §4.1).
var indexedTagLetters = map[byte]bool{
	'e': true,
	'p': true,
	'a': true,
	'd': true,
	't': true,
}

// IsIndexedTag reports whether letter is in the TCI-indexed set.
func IsIndexedTag(letter byte) bool { return indexedTagLetters[letter] }
