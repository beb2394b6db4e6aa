package overlord

import (
	"context"
	"time"

	"lol.mleku.dev/chk"

	"github.com/mikedilger/gossip-sub003/pkg/store"
)

const (
	pendingCheckInterval = 15 * time.Second
	relayListStaleSec    = 30 * 86400
	personListStaleSec   = 90 * 86400
	compactionInterval   = 7 * 24 * time.Hour
)

// pendingChecker runs every 15 seconds while online and posts a status
// message describing actions the user probably needs to take: an absent
// or stale published relay list, or a person-list out of sync with its
// last published event or stale (spec.md §4.6).
func (o *O) pendingChecker(ctx context.Context) {
	ticker := time.NewTicker(pendingCheckInterval)
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
			o.checkPending()
		}
	}
}

func (o *O) checkPending() {
	now := time.Now().Unix()
	person, err := o.st.GetPerson(o.id.PublicKey())
	if chk.E(err) || person == nil {
		o.status.Warnf("no relay list has ever been published")
	} else if person.RelayListCreatedAt == 0 {
		o.status.Warnf("your relay list has not been published")
	} else if now-person.RelayListCreatedAt > relayListStaleSec {
		o.status.Warnf("your relay list is older than 30 days")
	}

	md, err := o.st.GetPersonListMetadata(o.id.PublicKey(), store.ListFollowed)
	if err == nil && md != nil {
		if md.EventCreatedAt != 0 && md.LastEditTime > md.EventCreatedAt {
			o.status.Warnf("your follow list is out of sync with its last published event")
		}
		if now-md.EventCreatedAt > personListStaleSec {
			o.status.Warnf("your follow list is older than 90 days")
		}
	}
}

// feedRecomputeLoop periodically refreshes the picker's person-relay
// scores for the current follow set (spec.md §4.4/§4.6).
func (o *O) feedRecomputeLoop(ctx context.Context) {
	interval := time.Duration(o.cfg.FeedRecomputeIntervalSec) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
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
			if err := o.recomputeFollowScores(); chk.E(err) {
			}
		}
	}
}

// compactionLoop runs Store.Sync at most once a week, matching the
// "storage compaction at most once/week" periodic task named in SPEC_FULL.
func (o *O) compactionLoop(ctx context.Context) {
	ticker := time.NewTicker(compactionInterval)
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
			if err := o.st.Sync(); chk.E(err) {
			}
		}
	}
}
