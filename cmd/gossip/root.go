package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"lol.mleku.dev/chk"
	"lol.mleku.dev/log"

	"github.com/mikedilger/gossip-sub003/pkg/config"
	"github.com/mikedilger/gossip-sub003/pkg/identity"
	"github.com/mikedilger/gossip-sub003/pkg/overlord"
	"github.com/mikedilger/gossip-sub003/pkg/runstate"
	"github.com/mikedilger/gossip-sub003/pkg/status"
	"github.com/mikedilger/gossip-sub003/pkg/store"
)

var (
	dbdir   string
	offline bool
	wgpu    bool
)

// rootCmd is the default run mode: open the store, bring up the overlord,
// and block until a shutdown signal arrives (spec.md §6 CLI surface).
var rootCmd = &cobra.Command{
	Use:   "gossip",
	Short: "gossip is a Nostr client core engine",
	Long:  "gossip runs the client's core engine: event store, identity, relay coverage and the minion pool, with no UI of its own.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := appConfig
		cfg.ApplyDBDir(dbdir)
		if offline {
			cfg.Offline = true
		}
		// --wgpu is accepted for compatibility with UI frontends launched
		// alongside this engine; the engine itself has no renderer.
		_ = wgpu

		quit := run(cmd.Context(), cfg)
		<-quit
		return nil
	},
}

// importCmd bulk-loads events from another gossip profile's store,
// force-ingesting each one with verification enabled (spec.md §6).
var importCmd = &cobra.Command{
	Use:   "import-lmdb-events <path>",
	Short: "bulk-load events from another environment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := appConfig
		cfg.ApplyDBDir(dbdir)
		return runImport(cmd.Context(), cfg, args[0])
	},
}

// appConfig is loaded once in main before Execute, so every subcommand
// sees the same resolved environment without re-parsing it.
var appConfig *config.C

func init() {
	rootCmd.PersistentFlags().StringVar(&dbdir, "dbdir", "", "override the profile directory (default: GOSSIP_DATA_DIR)")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "do not open any outbound relay connection")
	rootCmd.PersistentFlags().BoolVar(&wgpu, "wgpu", false, "accepted for UI-frontend compatibility; no effect on the engine")
	rootCmd.AddCommand(importCmd)
}

// Execute runs the root command with ctx, exiting 1 on a usage or command
// failure (spec.md §6); run exits 1 itself when startup fails.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run opens the store and identity, brings the overlord online, and
// returns a channel that closes once Shutdown has been requested.
func run(ctx context.Context, cfg *config.C) <-chan struct{} {
	quit := make(chan struct{})
	go func() {
		defer close(quit)

		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		defer cancel()

		st, err := store.New(ctx, cancel, cfg.DataDir, cfg.LogLevel)
		if chk.E(err) {
			os.Exit(1)
		}
		defer chk.E(st.Sync())

		id := identity.New()
		if err = identity.LoadFromStore(id, st); chk.E(err) {
		}

		rs := runstate.New()
		sq := status.New(nil)
		go logStatus(ctx, sq)

		if cfg.HealthPort > 0 {
			startHealthServer(ctx, cfg.HealthPort, rs)
		}

		ov, err := overlord.New(st, id, rs, sq)
		if chk.E(err) {
			os.Exit(1)
		}
		if err = ov.Start(ctx, cfg.Offline); chk.E(err) {
			os.Exit(1)
		}

		<-ctx.Done()
		ov.Shutdown()
		_ = identity.SaveToStore(id, st)
	}()
	return quit
}

// startHealthServer runs a /healthz endpoint reporting rs's run state,
// matching the teacher's optional health-check server.
func startHealthServer(ctx context.Context, port int, rs *runstate.R) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if rs.ShuttingDown() {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_, _ = w.Write([]byte(rs.Get().String()))
	})
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		log.I.F("health check server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.E.F("health server error: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

// logStatus relays status.Q posts to the log, standing in for a UI's
// status bar when run headless.
func logStatus(ctx context.Context, sq *status.Q) {
	_, ch, cancel := sq.Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-ch:
			switch msg.Severity {
			case status.Warning:
				log.W.F("%s", msg.Text)
			case status.Error:
				log.E.F("%s", msg.Text)
			default:
				log.I.F("%s", msg.Text)
			}
		}
	}
}
