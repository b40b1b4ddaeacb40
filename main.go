package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/wfunc/gameclient/auth"
	"github.com/wfunc/gameclient/broadcast"
	"github.com/wfunc/gameclient/config"
	"github.com/wfunc/gameclient/identity"
	"github.com/wfunc/gameclient/logger"
	"github.com/wfunc/gameclient/monitor"
	"github.com/wfunc/gameclient/network"
	"github.com/wfunc/gameclient/persistence"
	"github.com/wfunc/gameclient/session"
	"github.com/wfunc/gameclient/timer"
	"golang.org/x/sync/errgroup"
)

const heartbeatInterval = 30 * time.Second

func main() {
	flags := config.Flags()
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	configDir, _ := flags.GetString("config")

	// Load configuration
	cfg, err := config.LoadConfig(configDir, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer logger.Sync()

	// Device-local storage; without it settings live for this run only
	var db persistence.Database
	if cfg.Storage.Path != "" {
		sqlite, err := persistence.NewGormSQLite(cfg.Storage.Path)
		if err != nil {
			logger.Log.Warnf("Storage unavailable, keeping settings in memory: %v", err)
		} else {
			defer sqlite.Close()
			db = sqlite
		}
	}

	hub := broadcast.NewHub()
	defer hub.Close()
	mon := monitor.NewMonitor("gameclient")
	scheduler := timer.NewTimerManager(0)
	defer scheduler.Stop()

	sess := session.NewSession(session.Options{
		ServerURL:      cfg.Server.WSURL,
		DisplayName:    cfg.Client.DisplayName,
		ReconnectDelay: cfg.Client.ReconnectDelay,
		LogCapacity:    cfg.Client.LogCapacity,
		EventBuffer:    cfg.Client.EventBuffer,
		Identity:       identity.NewStore(db),
		Auth:           auth.NewClient(cfg.Server.AuthURL, nil),
		Dialer:         network.WSDialer{Heartbeat: heartbeatInterval},
		Scheduler:      scheduler,
		Hub:            hub,
		Monitor:        mon,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	updates, unsubscribe := hub.Subscribe(64)
	defer unsubscribe()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sess.Run(gctx) })
	g.Go(func() error { return printUpdates(gctx, os.Stdout, updates) })
	g.Go(func() error {
		if err := sess.Restore(gctx); err != nil && !errors.Is(err, network.ErrAuthRequired) {
			logger.Log.Warnf("Restore failed: %v", err)
		}
		return readCommands(gctx, sess, hub, os.Stdin, os.Stdout)
	})
	if cfg.Monitor.Address != "" {
		g.Go(func() error {
			logger.Log.Infof("Serving metrics on %s", cfg.Monitor.Address)
			return mon.Serve(gctx, cfg.Monitor.Address)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, errQuit) {
		logger.Log.Errorf("Client stopped: %v", err)
	}
	if dropped := hub.Dropped(); dropped > 0 {
		logger.Log.Warnf("%d updates were dropped by slow subscribers", dropped)
	}
}
