package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/bascanada/alacod-sub000/config"
	"github.com/bascanada/alacod-sub000/debugserver"
	"github.com/bascanada/alacod-sub000/host"
	"github.com/bascanada/alacod-sub000/parameter"
	"github.com/bascanada/alacod-sub000/rollback"
	"github.com/bascanada/alacod-sub000/scenario"
	"github.com/bascanada/alacod-sub000/store"
	"github.com/bascanada/alacod-sub000/telemetry"
)

const ConfigPath = "config/simcore.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := ConfigPath
	if p := os.Getenv("SIMCORE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := telemetry.NewLogger(os.Stdout, cfg.Log)
	if err != nil {
		return fmt.Errorf("configuring logger: %w", err)
	}
	slog.SetDefault(logger)

	lvl, err := scenario.Open(cfg.Scenario)
	if err != nil {
		return fmt.Errorf("loading scenario: %w", err)
	}
	sc, err := lvl.Build(cfg.Rules, cfg.Seed)
	if err != nil {
		return fmt.Errorf("building scenario %s: %w", lvl.Name, err)
	}
	if cfg.Session.Players != sc.Players {
		slog.Info("player count taken from scenario", "configured", cfg.Session.Players, "scenario", sc.Players)
		cfg.Session.Players = sc.Players
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	slog.Info("simcore starting",
		"scenario", lvl.Name,
		"players", sc.Players,
		"agents", len(sc.State.Agents),
		"seed", cfg.Seed,
		"sync_test", cfg.Session.SyncTest())

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := telemetry.NewMetrics(reg)

	var (
		sessOpts []rollback.Option
		hostOpts = []host.Option{host.WithLogger(logger)}
	)
	if cfg.Database.Enabled {
		if err := store.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		st, err := store.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer st.Close()
		match, err := st.StartMatch(ctx, lvl.Name, cfg.Seed, sc.Players)
		if err != nil {
			return fmt.Errorf("recording match: %w", err)
		}
		sessOpts = append(sessOpts, rollback.WithReporter(match))
		hostOpts = append(hostOpts, host.WithArchive(match))
	}

	hub := debugserver.NewHub()
	if cfg.Debug.Enabled {
		hostOpts = append(hostOpts, host.WithHub(hub))
	}

	h, err := host.New(sc.World, sc.State, cfg.Session, cfg.Host, cfg.Seed, metrics, sessOpts, hostOpts...)
	if err != nil {
		return fmt.Errorf("creating host: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	simCtx, stopSim := context.WithCancel(gctx)
	defer stopSim()

	var tick time.Duration
	if cfg.Realtime {
		tick = parameter.FrameDuration
	}
	g.Go(func() error {
		// a bounded run ends the process once the frames are done
		defer stopSim()
		if err := h.Run(simCtx, cfg.Frames, tick); err != nil {
			return fmt.Errorf("simulation: %w", err)
		}
		return nil
	})

	if cfg.Debug.Enabled {
		srv := debugserver.New(cfg.Debug, hub, reg, logger)
		g.Go(func() error {
			return srv.Run(simCtx)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("simcore: %w", err)
	}
	return nil
}
