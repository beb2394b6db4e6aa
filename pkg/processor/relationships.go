package processor

import (
	"errors"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"lol.mleku.dev/chk"

	"github.com/mikedilger/gossip-sub003/pkg/encoders/event"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/hex"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/tag"
	"github.com/mikedilger/gossip-sub003/pkg/store"
)

var errBadATag = errors.New("processor: malformed a tag")

const (
	kindTextNote   = 1
	kindDeletion   = 5
	kindRepost     = 6
	kindReaction   = 7
	kindGenericRep = 16
	kindTimestamp  = 1040
	kindComment    = 1111
	kindReporting  = 1984
	kindLabel      = 1985
	kindZap        = 9735
)

// markerAnnotates is the explicit e/a-tag marker that reclassifies a single
// reference as Annotates regardless of the event's own kind (spec.md §4.3
// "kind 1111 (comment) or annotation markers: Annotates").
const markerAnnotates = "annotates"

// extractRelationships derives the by_id/by_addr rows spec.md §4.1 names
// for ev's kind, per the tag conventions of NIP-10/18/25/09/57/32/03/56. A
// kind with no relationship semantics is a silent no-op.
func (p *P) extractRelationships(ev *event.E) (err error) {
	if !hasRelationshipSemantics(ev.Kind) {
		return nil
	}
	return write(p.store, nil, ev)
}

func hasRelationshipSemantics(k uint16) bool {
	_, ok := relKindFor(k)
	return ok || k == kindTextNote || k == kindReaction
}

// relKindFor gives the uniform variant for kinds whose e/a-tag references
// all carry the same relationship (spec.md §4.3). Kind 1 and kind 7 have
// their own selection rules and are handled separately in write.
func relKindFor(k uint16) (store.RelKind, bool) {
	switch k {
	case kindRepost, kindGenericRep:
		return store.RelReposts, true
	case kindDeletion:
		return store.RelDeletes, true
	case kindZap:
		return store.RelZaps, true
	case kindLabel:
		return store.RelLabels, true
	case kindTimestamp:
		return store.RelTimestamps, true
	case kindReporting:
		return store.RelReports, true
	case kindComment:
		return store.RelAnnotates, true
	}
	return 0, false
}

// write dispatches ev to the kind-specific relationship rule (spec.md
// §4.3). txn may be nil, in which case each row commits in its own
// transaction (only RebuildRelationships passes a shared txn).
func write(st Store, txn *badger.Txn, ev *event.E) (err error) {
	if ev.Tags == nil {
		return nil
	}
	switch ev.Kind {
	case kindTextNote:
		return writeReply(st, txn, ev)
	case kindReaction:
		return writeReaction(st, txn, ev)
	default:
		variant, ok := relKindFor(ev.Kind)
		if !ok {
			return nil
		}
		return writeUniform(st, txn, ev, variant)
	}
}

// writeReply implements the NIP-10 marker-aware parent selection: a "reply"
// marker wins outright; a "root" marker counts only when no "reply" marker
// is present anywhere on the event; with neither marker, the last unmarked
// e-tag is the parent (NIP-10 positional form). a-tags always resolve to RepliesTo on
// the addressable target, per spec.md §4.3, unless explicitly marked as an
// annotation.
func writeReply(st Store, txn *badger.Txn, ev *event.E) (err error) {
	var replyTag, rootTag, lastPlain *tag.T
	for _, t := range *ev.Tags {
		if t == nil || t.Len() < 2 || len(t.T[0]) != 1 || t.T[0][0] != 'e' {
			continue
		}
		switch tagMarker(t) {
		case "reply":
			if replyTag == nil {
				replyTag = t
			}
		case "root":
			if rootTag == nil {
				rootTag = t
			}
		case "":
			lastPlain = t
		}
	}
	parent := replyTag
	if parent == nil {
		parent = rootTag
	}
	if parent == nil {
		parent = lastPlain
	}
	if parent != nil {
		if marker := tagMarker(parent); marker == markerAnnotates {
			err = writeByID(st, txn, ev, store.RelAnnotates, parent.Value())
		} else {
			err = writeByID(st, txn, ev, store.RelRepliesTo, parent.Value())
		}
		if chk.E(err) {
			return
		}
	}
	for _, t := range *ev.Tags {
		if t == nil || t.Len() < 2 || len(t.T[0]) != 1 || t.T[0][0] != 'a' {
			continue
		}
		variant := store.RelRepliesTo
		if tagMarker(t) == markerAnnotates {
			variant = store.RelAnnotates
		}
		if err = writeByAddrTag(st, txn, ev, variant, t); chk.E(err) {
			return
		}
	}
	return nil
}

// writeReaction implements spec.md §4.3's kind-7 rule: ReactsTo is recorded
// against the last e-tag only, never every e-tag on the event.
func writeReaction(st Store, txn *badger.Txn, ev *event.E) (err error) {
	var last *tag.T
	for _, t := range *ev.Tags {
		if t == nil || t.Len() < 2 || len(t.T[0]) != 1 || t.T[0][0] != 'e' {
			continue
		}
		last = t
	}
	if last == nil {
		return nil
	}
	return writeByID(st, txn, ev, store.RelReactsTo, last.Value())
}

// writeUniform applies variant to every e/a tag on ev, the behavior every
// kind without its own selection rule uses (repost, deletion, zap, label,
// timestamp, report, comment). An explicit "annotates" marker on a tag
// still reclassifies that one reference.
func writeUniform(st Store, txn *badger.Txn, ev *event.E, variant store.RelKind) (err error) {
	for _, t := range *ev.Tags {
		if t == nil || t.Len() < 2 || len(t.T[0]) != 1 {
			continue
		}
		rowVariant := variant
		if tagMarker(t) == markerAnnotates {
			rowVariant = store.RelAnnotates
		}
		switch t.T[0][0] {
		case 'e':
			if err = writeByID(st, txn, ev, rowVariant, t.Value()); chk.E(err) {
				return
			}
		case 'a':
			if err = writeByAddrTag(st, txn, ev, rowVariant, t); chk.E(err) {
				return
			}
		}
	}
	return nil
}

// tagMarker returns a NIP-10-style tag's 4th element (the marker), or "".
func tagMarker(t *tag.T) string {
	if t.Len() > 3 {
		return string(t.T[3])
	}
	return ""
}

func writeByID(st Store, txn *badger.Txn, ev *event.E, variant store.RelKind, targetID []byte) (err error) {
	rel := &store.RelationshipByID{
		Kind: variant, By: ev.Pubkey,
		Reaction: string(ev.Content), Amount: zapAmount(ev), Reason: string(ev.Content),
	}
	return st.WriteRelationshipByID(txn, targetID, ev.ID, rel)
}

func writeByAddrTag(st Store, txn *badger.Txn, ev *event.E, variant store.RelKind, t *tag.T) (err error) {
	k, pk, d, perr := parseATag(t)
	if perr != nil {
		return nil
	}
	addr := store.RelAddr(k, pk, d)
	rel := &store.RelationshipByAddr{
		Kind: variant, By: ev.Pubkey,
		Reaction: string(ev.Content), Amount: zapAmount(ev), Reason: string(ev.Content),
	}
	return st.WriteRelationshipByAddr(txn, addr, ev.ID, rel)
}

// parseATag decodes a NIP-01 "a" tag value "<kind>:<pubkey-hex>:<d>".
func parseATag(t *tag.T) (k uint16, pubkey []byte, dTag string, err error) {
	parts := strings.SplitN(string(t.T[1]), ":", 3)
	if len(parts) < 2 {
		err = errBadATag
		return
	}
	var n int
	if n, err = strconv.Atoi(parts[0]); err != nil {
		return
	}
	k = uint16(n)
	if pubkey, err = hex.Dec(parts[1]); err != nil {
		return
	}
	if len(parts) == 3 {
		dTag = parts[2]
	}
	return
}

// zapAmount reads the millisat amount from a zap receipt's "amount" tag,
// returning 0 when the tag is absent or not a number (spec.md §9 open
// question). The "bolt11" invoice is not decoded.
func zapAmount(ev *event.E) int64 {
	if ev.Tags == nil {
		return 0
	}
	at := ev.Tags.GetFirst([]byte("amount"))
	if at == nil || at.Len() < 2 {
		return 0
	}
	n, err := strconv.ParseInt(string(at.Value()), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
