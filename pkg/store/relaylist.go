package store

import (
	"lol.mleku.dev/chk"
	"lol.mleku.dev/log"

	"github.com/mikedilger/gossip-sub003/pkg/encoders/event"
	"github.com/mikedilger/gossip-sub003/pkg/relayurl"
)

const (
	kindRelayListMetadata = 10002
	kindDMRelayList       = 10050
)

type relayUsage struct {
	url    string
	inbox  bool
	outbox bool
}

func parseRelayListTags(ev *event.E) (out []relayUsage) {
	if ev.Tags == nil {
		return
	}
	for _, t := range *ev.Tags {
		if t == nil || t.Len() < 2 || len(t.T[0]) != 1 || t.T[0][0] != 'r' {
			continue
		}
		norm, err := relayurl.Normalize(string(t.T[1]))
		if err != nil {
			continue
		}
		u := relayUsage{url: norm, inbox: true, outbox: true}
		if t.Len() >= 3 {
			switch string(t.T[2]) {
			case "read":
				u.outbox = false
			case "write":
				u.inbox = false
			}
		}
		out = append(out, u)
	}
	return
}

// ProcessRelayList implements spec.md §4.1 process_relay_list: validate
// freshness against the stored person.relay_list_created_at, then for every
// existing PersonRelay row clear read/write and upsert the new set. If
// author is us, additionally re-derive the INBOX/OUTBOX bits on every
// RelayRecord.
func (d *D) ProcessRelayList(ev *event.E, isUs bool, force bool) (err error) {
	if ev.Kind != kindRelayListMetadata {
		return
	}
	person, err := d.GetOrNewPerson(ev.Pubkey)
	if chk.E(err) {
		return
	}
	if !force && ev.CreatedAt <= person.RelayListCreatedAt {
		log.D.F("store: stale relay list for %x, ignoring", ev.Pubkey)
		return
	}
	if err = d.clearReadWrite(ev.Pubkey); chk.E(err) {
		return
	}
	entries := parseRelayListTags(ev)
	for _, u := range entries {
		pr, gerr := d.GetOrNewPersonRelay(ev.Pubkey, u.url)
		if chk.E(gerr) {
			continue
		}
		pr.Read = u.inbox
		pr.Write = u.outbox
		// LastSuggestedKind3 is the legacy kind-3 contact-list tag signal
		// (spec.md §3 PersonRelayRecord); a kind-10002 relay list grants
		// read/write directly above and does not touch it.
		if err = d.UpsertPersonRelay(pr); chk.E(err) {
			return
		}
	}
	person.RelayListCreatedAt = ev.CreatedAt
	if err = d.UpsertPerson(person); chk.E(err) {
		return
	}
	if isUs {
		if err = d.resetOwnRelayUsage(entries); chk.E(err) {
			return
		}
	}
	return
}

// resetOwnRelayUsage clears INBOX/OUTBOX on every RelayRecord and sets the
// bits named in entries, implementing the "if the author is us" clause of
// process_relay_list.
func (d *D) resetOwnRelayUsage(entries []relayUsage) (err error) {
	all, err := d.ListRelays()
	if chk.E(err) {
		return
	}
	byURL := make(map[string]*RelayRecord, len(all))
	for _, r := range all {
		r.Usage &^= UsageInbox | UsageOutbox
		byURL[r.URL] = r
	}
	for _, u := range entries {
		r, ok := byURL[u.url]
		if !ok {
			r = NewRelayRecord(u.url)
			byURL[u.url] = r
		}
		if u.inbox {
			r.Usage |= UsageInbox | UsageRead
		}
		if u.outbox {
			r.Usage |= UsageOutbox | UsageWrite
		}
	}
	for _, r := range byURL {
		if err = d.UpsertRelay(r); chk.E(err) {
			return
		}
	}
	return
}

// ProcessDMRelayList implements spec.md §4.1 process_dm_relay_list: the
// kind-10050 analogue of ProcessRelayList, toggling the DM bit instead of
// read/write.
func (d *D) ProcessDMRelayList(ev *event.E) (err error) {
	if ev.Kind != kindDMRelayList {
		return
	}
	person, err := d.GetOrNewPerson(ev.Pubkey)
	if chk.E(err) {
		return
	}
	if ev.CreatedAt <= person.DMRelayListCreated {
		return
	}
	existing, err := d.GetPersonRelays(ev.Pubkey)
	if chk.E(err) {
		return
	}
	for _, pr := range existing {
		if pr.DM {
			pr.DM = false
			if err = d.UpsertPersonRelay(pr); chk.E(err) {
				return
			}
		}
	}
	for _, u := range parseRelayListTags(ev) {
		pr, gerr := d.GetOrNewPersonRelay(ev.Pubkey, u.url)
		if chk.E(gerr) {
			continue
		}
		pr.DM = true
		if err = d.UpsertPersonRelay(pr); chk.E(err) {
			return
		}
	}
	person.DMRelayListCreated = ev.CreatedAt
	return d.UpsertPerson(person)
}
