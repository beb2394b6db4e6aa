package main

import (
	"context"

	"lol.mleku.dev/chk"
	"lol.mleku.dev/log"

	"github.com/mikedilger/gossip-sub003/pkg/config"
	"github.com/mikedilger/gossip-sub003/pkg/encoders/event"
	"github.com/mikedilger/gossip-sub003/pkg/identity"
	"github.com/mikedilger/gossip-sub003/pkg/processor"
	"github.com/mikedilger/gossip-sub003/pkg/store"
)

// runImport opens srcPath as a second store environment (read-write, as
// store.New always opens) and force-ingests every event it holds into cfg.DataDir's store, matching
// spec.md §6's "invokes Processor with force=true and verification
// enabled".
func runImport(ctx context.Context, cfg *config.C, srcPath string) (err error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dst, err := store.New(ctx, cancel, cfg.DataDir, cfg.LogLevel)
	if chk.E(err) {
		return
	}
	defer chk.E(dst.Sync())

	srcCtx, srcCancel := context.WithCancel(ctx)
	defer srcCancel()
	src, err := store.New(srcCtx, srcCancel, srcPath, cfg.LogLevel)
	if chk.E(err) {
		return
	}
	defer chk.E(src.Sync())

	id := identity.New()
	if err = identity.LoadFromStore(id, dst); chk.E(err) {
		return
	}
	proc := processor.New(dst, nil, nil, id.PublicKey())

	var imported, skipped int
	err = src.ForEachEvent(func(ev *event.E) error {
		wrote, ierr := proc.IngestForce(ev)
		if ierr != nil {
			log.W.F("import: skipping %x: %v", ev.ID, ierr)
			skipped++
			return nil
		}
		if wrote {
			imported++
		} else {
			skipped++
		}
		return nil
	})
	if chk.E(err) {
		return
	}
	log.I.F("import: %d events imported, %d skipped", imported, skipped)
	return
}
