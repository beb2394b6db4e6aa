// Package store implements the single embedded key/value environment that
// backs the core engine: the event table and its AKCI/KCI/TCI/hashtag
// indices, the person/person-relay/relay tables, person-lists and
// relationship edges, plus the general-purpose settings table. It follows
// the teacher's database.go shape (a *badger.DB wrapped in a typed D,
// sequence-leased serials, a background expiry ticker) generalized from a
// relay's event store to a client's local replica.
package store

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"lol.mleku.dev"
	"lol.mleku.dev/chk"
	"lol.mleku.dev/log"

	"github.com/mikedilger/gossip-sub003/pkg/encoders/event"
	"github.com/mikedilger/gossip-sub003/pkg/utils/units"
)

// D is the store: a single badger environment with named key-prefix
// namespaces standing in for the spec's named tables.
type D struct {
	ctx     context.Context
	cancel  context.CancelFunc
	dataDir string
	*badger.DB
	seq *badger.Sequence

	// volatileEvents holds events opted out of disk (giftwrap rumors),
	// keyed by hex id. Cleared on shutdown, never persisted.
	volatileEvents map[string]*volatileRecord

	// volatileSeenOn holds ephemeral "first seen on relay at time" records,
	// keyed by hex id. Cleared on shutdown, never persisted.
	volatileSeenOn map[string]seenRecord

	volatileMu sync.RWMutex

	// futureAllowance bounds how far into the future an event's
	// created_at may sit before ingest rejects it (spec.md §3, default
	// 15 minutes). Configurable via SetFutureAllowance.
	futureAllowance int64

	// rebuildIndexesNeeded mirrors the spec's flag of the same name,
	// set after a schema or identity change until the next rebuild sweep.
	rebuildIndexesNeeded atomic.Bool
}

// volatileRecord holds an event kept only in memory: currently giftwrap
// rumors, cached by the outer wrapper's id so ReadEvent(outerID) yields the
// decrypted rumor instead of the opaque ciphertext event.
type volatileRecord struct {
	Event *event.E
}

const defaultFutureAllowance = 15 * 60 // seconds

// SetFutureAllowance overrides the default future-timestamp tolerance.
func (d *D) SetFutureAllowance(seconds int64) { d.futureAllowance = seconds }

type seenRecord struct {
	Relay string
	At    int64
}

// New opens (creating if necessary) the badger environment rooted at
// dataDir, following the teacher's tuned options (bounded block cache,
// moderate table sizes, no compression) since this is a single-process
// embedded store, not a multi-tenant relay.
func New(ctx context.Context, cancel context.CancelFunc, dataDir, logLevel string) (d *D, err error) {
	d = &D{
		ctx:             ctx,
		cancel:          cancel,
		dataDir:         dataDir,
		volatileEvents:  make(map[string]*volatileRecord),
		volatileSeenOn:  make(map[string]seenRecord),
		futureAllowance: defaultFutureAllowance,
	}
	if err = os.MkdirAll(dataDir, 0755); chk.E(err) {
		return
	}
	opts := badger.DefaultOptions(dataDir)
	opts.BlockCacheSize = int64(256 * units.Mb)
	opts.BlockSize = 4 * units.Kb
	opts.BaseTableSize = 64 * units.Mb
	opts.MemTableSize = 64 * units.Mb
	opts.ValueLogFileSize = 256 * units.Mb
	opts.CompactL0OnClose = true
	opts.LmaxCompaction = true
	opts.Compression = options.None
	opts.Logger = newLogger(lol.GetLogLevel(logLevel))
	if d.DB, err = badger.Open(opts); chk.E(err) {
		return
	}
	if d.seq, err = d.DB.GetSequence([]byte("EVENTS"), 1000); chk.E(err) {
		return
	}
	if err = d.runMigrations(); chk.E(err) {
		return
	}
	go d.expiryLoop()
	return
}

func (d *D) expiryLoop() {
	ticker := time.NewTicker(time.Minute * 10)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := d.deleteExpired(); chk.E(err) {
			}
		case <-d.ctx.Done():
			return
		}
	}
}

// Path returns the directory the store's files live in.
func (d *D) Path() string { return d.dataDir }

// Sync runs value-log GC and flushes to disk.
func (d *D) Sync() (err error) {
	if err = d.DB.RunValueLogGC(0.5); err != nil && err != badger.ErrNoRewrite {
		chk.E(err)
	}
	err = d.DB.Sync()
	return
}

// Close releases the sequence lease and closes the badger environment,
// clearing the volatile caches.
func (d *D) Close() (err error) {
	log.D.F("%s: closing store", d.dataDir)
	d.volatileEvents = nil
	d.volatileSeenOn = nil
	if d.seq != nil {
		if err = d.seq.Release(); chk.E(err) {
			return
		}
	}
	if d.DB != nil {
		if err = d.DB.Close(); chk.E(err) {
			return
		}
	}
	log.I.F("%s: store closed", d.dataDir)
	return
}

func (d *D) nextSerial() (serial uint64, err error) {
	return d.seq.Next()
}
