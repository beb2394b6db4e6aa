// Package overlord is the coordinator: it owns the spawned minion tasks,
// runs the startup sequence, wires the picker's scoring store onto the
// live connection registry, handles follow/unfollow and UI publish jobs,
// and drives the periodic tasks of spec.md §4.6 (feed recompute, storage
// compaction, the 15-second Pending checker). No metadata-staleness
// refresh task is run.
package overlord

import (
	"context"
	"sync"
	"time"

	"lol.mleku.dev/chk"
	"lol.mleku.dev/log"

	"github.com/mikedilger/gossip-sub003/pkg/encoders/event"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/hex"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/kind"
	"github.com/mikedilger/gossip-sub003/pkg/identity"
	"github.com/mikedilger/gossip-sub003/pkg/minion"
	"github.com/mikedilger/gossip-sub003/pkg/processor"
	"github.com/mikedilger/gossip-sub003/pkg/relaypicker"
	"github.com/mikedilger/gossip-sub003/pkg/runstate"
	"github.com/mikedilger/gossip-sub003/pkg/settings"
	"github.com/mikedilger/gossip-sub003/pkg/status"
	"github.com/mikedilger/gossip-sub003/pkg/store"
)

// O is the overlord: the single process-wide coordinator.
type O struct {
	st     *store.D
	id     *identity.I
	proc   *processor.P
	picker *relaypicker.P
	run    *runstate.R
	status *status.Q

	cfg settings.S

	mu      sync.RWMutex
	minions map[string]*minion.M
}

// New wires the processor and picker onto st, composing the storeAdapter
// so pkg/relaypicker never imports pkg/store directly (spec.md §5).
func New(st *store.D, id *identity.I, rs *runstate.R, sq *status.Q) (o *O, err error) {
	o = &O{
		st:      st,
		id:      id,
		run:     rs,
		status:  sq,
		minions: map[string]*minion.M{},
	}
	if o.cfg, err = settings.Load(st); chk.E(err) {
		return
	}
	adapter := &storeAdapter{st: st, ov: o}
	o.picker = relaypicker.New(adapter, relaypicker.Settings{
		NumRelaysPerPerson:   func() uint8 { return o.cfg.NumRelaysPerPerson },
		MaxRelays:            func() uint8 { return o.cfg.MaxRelays },
		NumRelaysForCounting: func() uint8 { return o.cfg.NumRelaysForCounting },
	})
	o.proc = processor.New(st, nil, nil, id.PublicKey())
	return o, nil
}

// Start runs the startup sequence (spec.md §4.6): rebuild indices if
// flagged, recompute the picker's scores for the follow set, then launch
// the background tasks. It returns once the initial coverage pass has run.
func (o *O) Start(ctx context.Context, offline bool) (err error) {
	o.run.Set(runstate.Starting)
	if o.st.RebuildNeeded() {
		if err = o.st.RebuildEventIndices(o.id); chk.E(err) {
			return
		}
		if err = o.st.RebuildRelationships(o.proc.Extractor()); chk.E(err) {
			return
		}
	}
	if err = o.recomputeFollowScores(); chk.E(err) {
		return
	}
	if offline {
		o.run.Set(runstate.Offline)
		o.status.Infof("running offline: no outbound relay connections")
		return
	}
	o.run.Set(runstate.Online)
	o.fillCoverage(ctx)
	go o.coverageLoop(ctx)
	go o.pendingChecker(ctx)
	go o.feedRecomputeLoop(ctx)
	go o.compactionLoop(ctx)
	return
}

// Shutdown transitions to ShuttingDown, waking every cooperative task, and
// stops every live minion (spec.md §5 Cancellation).
func (o *O) Shutdown() {
	o.run.Set(runstate.ShuttingDown)
	o.mu.Lock()
	for url, m := range o.minions {
		m.Stop()
		delete(o.minions, url)
	}
	o.mu.Unlock()
}

func (o *O) recomputeFollowScores() (err error) {
	members, err := o.st.GetPersonListMembers(o.id.PublicKey(), store.ListFollowed)
	if chk.E(err) {
		return
	}
	pubkeys := make([]string, 0, len(members))
	for pk := range members {
		pubkeys = append(pubkeys, pk)
	}
	return o.picker.RefreshPersonRelayScores(pubkeys, true)
}

// Follow adds pubkey to the followed list and registers it with the
// picker, so the next coverage pass assigns it relays (spec.md §4.4).
func (o *O) Follow(pubkey []byte) (err error) {
	members, err := o.st.GetPersonListMembers(o.id.PublicKey(), store.ListFollowed)
	if chk.E(err) {
		return
	}
	pk := hex.Enc(pubkey)
	if members == nil {
		members = map[string]bool{}
	}
	members[pk] = true
	if err = o.st.SetPersonListMembers(o.id.PublicKey(), store.ListFollowed, members, time.Now().Unix()); chk.E(err) {
		return
	}
	o.picker.AddSomeone(pk)
	return
}

// Unfollow removes pubkey from the followed list and the picker's
// tracking.
func (o *O) Unfollow(pubkey []byte) (err error) {
	members, err := o.st.GetPersonListMembers(o.id.PublicKey(), store.ListFollowed)
	if chk.E(err) {
		return
	}
	pk := hex.Enc(pubkey)
	delete(members, pk)
	if err = o.st.SetPersonListMembers(o.id.PublicKey(), store.ListFollowed, members, time.Now().Unix()); chk.E(err) {
		return
	}
	o.picker.RemoveSomeone(pk)
	return
}

// connectedRelayURLs snapshots the minions currently past the Connecting
// state, for relaypicker.Store.ConnectedRelayURLs.
func (o *O) connectedRelayURLs() map[string]bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make(map[string]bool, len(o.minions))
	for url, m := range o.minions {
		if m.State() != minion.StateConnecting && m.State() != minion.StateExcluded {
			out[url] = true
		}
	}
	return out
}

// coverageLoop repeatedly asks the picker for the next relay to connect
// and spawns a minion for it, backing off when the picker reports no
// progress is currently possible (spec.md §4.4/§8).
func (o *O) coverageLoop(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-o.run.Watch():
			if o.run.ShuttingDown() {
				return
			}
		case <-ticker.C:
			o.fillCoverage(ctx)
		}
	}
}

func (o *O) fillCoverage(ctx context.Context) {
	for {
		url, err := o.picker.Pick()
		if err != nil {
			return
		}
		o.spawnMinion(ctx, url)
	}
}

func (o *O) spawnMinion(ctx context.Context, url string) {
	o.mu.Lock()
	if _, exists := o.minions[url]; exists {
		o.mu.Unlock()
		return
	}
	m := minion.New(
		url, o.proc, o.picker, o.id, &authPolicyAdapter{st: o.st},
		time.Duration(o.cfg.WebsocketConnectTimeoutSec)*time.Second,
		time.Duration(o.cfg.WebsocketPingFrequencySec)*time.Second,
		false,
	)
	o.minions[url] = m
	o.mu.Unlock()

	go func() {
		if err := m.Run(ctx); chk.E(err) {
			o.status.Warnf("relay " + url + " disconnected")
		}
		o.mu.Lock()
		delete(o.minions, url)
		o.mu.Unlock()
	}()
}

// PublishNote signs content as a kind-1 text note and queues it to every
// connected minion, returning the signed event (spec.md §8 scenario 1).
func (o *O) PublishNote(content string) (ev *event.E, err error) {
	ev = event.New()
	ev.Kind = kind.TextNote.K
	ev.CreatedAt = time.Now().Unix()
	ev.Content = []byte(content)
	if err = o.id.SignEvent(ev); chk.E(err) {
		return
	}
	if _, err = o.proc.Ingest(ev); chk.E(err) {
		return
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	for url, m := range o.minions {
		m.Publish(context.Background(), ev)
		log.D.F("overlord: queued publish of %x to %s", ev.ID, url)
	}
	return
}
