// Package relaypicker scores (person, relay) edges and assigns a bounded
// pool of relays to cover a followed key set (spec.md §4.4). It mirrors the
// teacher's store/Store split — generic Store interface, no reference to
// pkg/store's concrete badger.DB — but the bookkeeping itself is concurrent
// read/write-heavy, so it keeps its working set in xsync maps rather than a
// mutex-guarded plain map the way pkg/store does for its single-writer
// badger handle.
package relaypicker

import (
	"errors"
	"sort"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"lol.mleku.dev/chk"
	"lol.mleku.dev/log"
)

// Errors the picker signals back to the Overlord (spec.md §4.4/§8).
var (
	ErrNoProgress  = errors.New("relaypicker: winning relay covered no new pubkeys")
	ErrNoPeopleLeft = errors.New("relaypicker: no pubkeys are seeking relay assignments")
	ErrNoRelays    = errors.New("relaypicker: no relays are known")
)

// PersonRelayEdge is the subset of store.PersonRelayRecord the scoring
// formula reads.
type PersonRelayEdge struct {
	URL                string
	LastFetched        int64
	LastSuggestedKind3 int64
	LastSuggestedNIP05 int64
	LastSuggestedByTag int64
	Write              bool
	ManuallyPairedWrite bool
}

// Store is the slice of pkg/store the picker needs.
type Store interface {
	GetPersonRelayEdges(pubkey string) ([]PersonRelayEdge, error)
	AllRelayURLs() ([]string, error)
	ConnectedRelayURLs() map[string]bool
}

// RelayAssignment records which pubkeys a relay is currently serving the
// general feed for (spec.md §4.4).
type RelayAssignment struct {
	RelayURL string
	Pubkeys  map[string]bool
}

func newAssignment(url string) *RelayAssignment {
	return &RelayAssignment{RelayURL: url, Pubkeys: map[string]bool{}}
}

// P is the relay picker (spec.md §4.4).
type P struct {
	store Store

	numRelaysPerPerson   func() uint8
	maxRelays            func() uint8
	numRelaysForCounting func() uint8

	personRelayScores *xsync.MapOf[string, []scoredRelay] // pubkey -> sorted candidates
	relayAssignments  *xsync.MapOf[string, *RelayAssignment]
	excludedRelays    *xsync.MapOf[string, int64] // url -> until unixtime
	pubkeyCounts      *xsync.MapOf[string, int]
}

type scoredRelay struct {
	url   string
	score float64
}

// Settings is the slice of pkg/settings the picker consults; a func type
// keeps this package from importing pkg/settings just for three fields.
type Settings struct {
	NumRelaysPerPerson   func() uint8
	MaxRelays            func() uint8
	NumRelaysForCounting func() uint8
}

// New builds an empty picker. Call RefreshPersonRelayScores before the
// first Pick.
func New(st Store, settings Settings) *P {
	return &P{
		store:                st,
		numRelaysPerPerson:   settings.NumRelaysPerPerson,
		maxRelays:            settings.MaxRelays,
		numRelaysForCounting: settings.NumRelaysForCounting,
		personRelayScores:    xsync.NewMapOf[string, []scoredRelay](),
		relayAssignments:     xsync.NewMapOf[string, *RelayAssignment](),
		excludedRelays:       xsync.NewMapOf[string, int64](),
		pubkeyCounts:         xsync.NewMapOf[string, int](),
	}
}

// decay implements spec.md §4.4's falloff base/(d/period+1): the full base
// while d < period, then base/2, base/3 and so on for each further whole
// period of elapsed time d, using integer division on the ratio exactly as
// the original scoring formula does.
func decay(d, period int64, base float64) float64 {
	if period <= 0 {
		return 0
	}
	return base / float64(d/period+1)
}

func scorePersonRelay(e PersonRelayEdge, now int64) float64 {
	var s float64
	if e.Write || e.ManuallyPairedWrite {
		s += 20
	}
	if e.LastSuggestedKind3 > 0 {
		s += decay(now-e.LastSuggestedKind3, 30*86400, 7)
	}
	if e.LastSuggestedNIP05 > 0 {
		s += decay(now-e.LastSuggestedNIP05, 15*86400, 4)
	}
	if e.LastFetched > 0 {
		s += decay(now-e.LastFetched, 3*86400, 3)
	}
	if e.LastSuggestedByTag > 0 {
		s += decay(now-e.LastSuggestedByTag, 2*86400, 1)
	}
	return s
}

// bestRelaysWithScore scores every (pubkey, relay) edge, drops zero scores,
// sorts descending and trims the tail while more than six candidates remain
// and the last one scores under 20 (spec.md §4.4).
func bestRelaysWithScore(edges []PersonRelayEdge, now int64) []scoredRelay {
	out := make([]scoredRelay, 0, len(edges))
	for _, e := range edges {
		sc := scorePersonRelay(e, now)
		if sc == 0 {
			continue
		}
		out = append(out, scoredRelay{url: e.URL, score: sc})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].score > out[j].score })
	for len(out) > 6 && out[len(out)-1].score < 20 {
		out = out[:len(out)-1]
	}
	return out
}

// AddSomeone registers pubkey as needing num_relays_per_person assignments,
// unless it already has some (spec.md §4.4).
func (p *P) AddSomeone(pubkey string) {
	if _, ok := p.pubkeyCounts.Load(pubkey); ok {
		return
	}
	already := false
	p.relayAssignments.Range(func(_ string, a *RelayAssignment) bool {
		if a.Pubkeys[pubkey] {
			already = true
			return false
		}
		return true
	})
	if already {
		return
	}
	p.pubkeyCounts.Store(pubkey, int(p.numRelaysPerPerson()))
}

// RemoveSomeone drops pubkey from tracking and from any relay's assignment.
func (p *P) RemoveSomeone(pubkey string) {
	p.pubkeyCounts.Delete(pubkey)
	p.relayAssignments.Range(func(url string, a *RelayAssignment) bool {
		delete(a.Pubkeys, pubkey)
		return true
	})
}

// RefreshPersonRelayScores recomputes person_relay_scores for every pubkey
// currently being tracked (spec.md §4.4). When resetCounts is true,
// pubkey_counts is reinitialized to num_relays_per_person for each.
func (p *P) RefreshPersonRelayScores(pubkeys []string, resetCounts bool) (err error) {
	p.personRelayScores.Clear()
	if resetCounts {
		p.pubkeyCounts.Clear()
	}
	now := nowUnix()
	for _, pk := range pubkeys {
		edges, gerr := p.store.GetPersonRelayEdges(pk)
		if chk.E(gerr) {
			continue
		}
		p.personRelayScores.Store(pk, bestRelaysWithScore(edges, now))
		if resetCounts {
			p.pubkeyCounts.Store(pk, int(p.numRelaysPerPerson()))
		}
	}
	return nil
}

// RelayDisconnected implements spec.md §4.4's reassignment-on-disconnect:
// place url in the penalty box for penaltySeconds, drop its assignment and
// restore pubkey_counts for the pubkeys it was covering.
func (p *P) RelayDisconnected(url string, penaltySeconds int64) {
	if penaltySeconds > 0 {
		until := nowUnix() + penaltySeconds
		p.excludedRelays.Store(url, until)
		log.D.F("relaypicker: %s excluded for %ds until %d", url, penaltySeconds, until)
	}
	a, ok := p.relayAssignments.LoadAndDelete(url)
	if !ok {
		return
	}
	for pk := range a.Pubkeys {
		cur, _ := p.pubkeyCounts.Load(pk)
		p.pubkeyCounts.Store(pk, cur+1)
	}
}

// Pick computes the next relay assignment and returns its URL (spec.md
// §4.4). Callers should follow with GetRelayAssignment to learn which
// pubkeys were just covered.
func (p *P) Pick() (url string, err error) {
	now := nowUnix()
	p.excludedRelays.Range(func(u string, until int64) bool {
		if until <= now {
			p.excludedRelays.Delete(u)
		}
		return true
	})

	if p.pubkeyCounts.Size() == 0 {
		err = ErrNoPeopleLeft
		return
	}

	allRelays, gerr := p.store.AllRelayURLs()
	if chk.E(gerr) {
		err = gerr
		return
	}
	if len(allRelays) == 0 {
		err = ErrNoRelays
		return
	}

	atMax := p.relayAssignments.Size() >= int(p.maxRelays())
	connected := p.store.ConnectedRelayURLs()

	scoreboard := make(map[string]float64, len(allRelays))
	for _, u := range allRelays {
		scoreboard[u] = 0
	}

	p.personRelayScores.Range(func(pk string, candidates []scoredRelay) bool {
		count, ok := p.pubkeyCounts.Load(pk)
		if !ok || count == 0 {
			return true
		}
		for _, c := range candidates {
			if _, excluded := p.excludedRelays.Load(c.url); excluded {
				continue
			}
			if atMax && !connected[c.url] {
				continue
			}
			if a, ok := p.relayAssignments.Load(c.url); ok && a.Pubkeys[pk] {
				continue
			}
			scoreboard[c.url] += c.score
		}
		return true
	})

	// Iterate urls in sorted order so that a tied score keeps the
	// lexicographically-smallest url, not whatever the map's randomized
	// range order lands on (spec.md §4.4 step 4).
	sortedURLs := make([]string, 0, len(scoreboard))
	for u := range scoreboard {
		sortedURLs = append(sortedURLs, u)
	}
	sort.Strings(sortedURLs)

	var winner string
	var winningScore float64
	for _, u := range sortedURLs {
		if s := scoreboard[u]; s > winningScore || winner == "" {
			winner, winningScore = u, s
		}
	}
	if winningScore < 1e-12 {
		err = ErrNoProgress
		return
	}

	cutoffRank := int(p.numRelaysForCounting())
	covered := map[string]bool{}
	p.pubkeyCounts.Range(func(pk string, count int) bool {
		if count <= 0 {
			return true
		}
		if a, ok := p.relayAssignments.Load(winner); ok && a.Pubkeys[pk] {
			return true
		}
		candidates, ok := p.personRelayScores.Load(pk)
		if !ok {
			return true
		}
		for i, c := range candidates {
			if c.url != winner {
				continue
			}
			if c.score <= 5 && i >= cutoffRank {
				break
			}
			covered[pk] = true
			cur, _ := p.pubkeyCounts.Load(pk)
			if cur > 0 {
				p.pubkeyCounts.Store(pk, cur-1)
			}
		}
		return true
	})

	if len(covered) == 0 {
		err = ErrNoProgress
		return
	}

	p.pubkeyCounts.Range(func(pk string, count int) bool {
		if count <= 0 {
			p.pubkeyCounts.Delete(pk)
		}
		return true
	})

	a, ok := p.relayAssignments.Load(winner)
	if !ok {
		a = newAssignment(winner)
		p.relayAssignments.Store(winner, a)
	}
	for pk := range covered {
		a.Pubkeys[pk] = true
	}
	url = winner
	return
}

// GetRelayAssignment returns the current assignment for url, if any.
func (p *P) GetRelayAssignment(url string) (*RelayAssignment, bool) {
	return p.relayAssignments.Load(url)
}

// GetRelayFollowingCount returns how many pubkeys url currently serves.
func (p *P) GetRelayFollowingCount(url string) int {
	a, ok := p.relayAssignments.Load(url)
	if !ok {
		return 0
	}
	return len(a.Pubkeys)
}

// ExcludedUntil reports when url's penalty-box entry expires, if any.
func (p *P) ExcludedUntil(url string) (until int64, excluded bool) {
	return p.excludedRelays.Load(url)
}

// PubkeysSeeking returns the pubkeys still short of num_relays_per_person.
func (p *P) PubkeysSeeking() (out []string) {
	p.pubkeyCounts.Range(func(pk string, count int) bool {
		if count > 0 {
			out = append(out, pk)
		}
		return true
	})
	return
}

func nowUnix() int64 { return time.Now().Unix() }
