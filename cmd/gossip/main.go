// Command gossip is the client's core engine: no UI, just the event
// store, identity, relay coverage and minion pool, driven by the cobra
// commands in root.go and import.go (spec.md §6).
package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"

	"github.com/pkg/profile"
	"lol.mleku.dev/chk"
	"lol.mleku.dev/log"

	"github.com/mikedilger/gossip-sub003/pkg/config"
)

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU() * 4)

	cfg, err := config.New()
	if chk.T(err) {
		os.Exit(1)
	}
	appConfig = cfg
	log.I.F("starting %s %s", cfg.AppName, config.Version)

	switch cfg.Pprof {
	case "cpu":
		defer profile.Start(profile.CPUProfile).Stop()
	case "memory":
		defer profile.Start(profile.MemProfile).Stop()
	case "allocation":
		defer profile.Start(profile.MemProfileAllocs).Stop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	go func() {
		<-sigs
		log.I.F("shutdown signal received")
		cancel()
	}()

	Execute(ctx)
}
