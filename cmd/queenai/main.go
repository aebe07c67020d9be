/*
queenai is the process entrypoint: it loads configuration, wires the
feature/policy/gate/reward/replay pipeline into a handler, starts the
continuous background trainer, runs an in-process simulator to keep
the replay buffer fed between real game-client connections, and serves
the result over a websocket endpoint plus a Prometheus metrics
endpoint.
*/
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/config"
	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/gate"
	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/grid"
	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/handler"
	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/metrics"
	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/observation"
	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/policy"
	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/replay"
	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/simulator"
	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/trainer"
	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/transport"
	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/wire"
)

var (
	configPath     *string
	addr           *string
	checkpointPath *string
	seed           *int64
	nworkers       *int
)

// TODO: per 12-factor rules these could come from env instead; KISS for now.
func init() {
	configPath = flag.String("config", "./config.yaml", "path to the YAML config file")
	addr = flag.String("addr", ":8080", "listen address for the websocket and metrics endpoints")
	checkpointPath = flag.String("checkpoint", "./checkpoint.gob", "policy network checkpoint path")
	seed = flag.Int64("seed", time.Now().UnixNano(), "deterministic seed for network init and the simulator")
	nworkers = flag.Int("nworkers", runtime.NumCPU(), "reserved for future multi-territory fan-out")
	flag.Parse()
}

func main() {
	if err := run(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run() error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	watcher, cfg, err := config.NewWatcher(*configPath)
	if err != nil {
		logger.Warn("config: falling back to defaults", "error", err, "path", *configPath)
		cfg = config.Default()
		watcher = nil
	}

	network, err := policy.LoadCheckpoint(*checkpointPath)
	if err != nil {
		logger.Info("policy: no usable checkpoint, starting from a random network", "error", err, "path", *checkpointPath)
		network = policy.NewNetwork(cfg.Grid.Size, rand.New(rand.NewSource(*seed)))
	}

	liveGate := config.NewLiveGate(cfg.Gate)
	g := gate.New(cfg.Grid.Size, liveGate.Get())
	buffer := replay.NewWithSeed(cfg.Replay, *seed)
	agg := metrics.New()

	if watcher != nil {
		watcher.Watch(logger, func(reloaded config.Config) {
			if err := liveGate.Reload(reloaded.Gate); err != nil {
				logger.Warn("config: gate reload rejected", "error", err)
				return
			}
			g.SetConfig(liveGate.Get())
			logger.Info("config: gate tunables reloaded")
		})
	}

	hooks := handler.Hooks{
		OnSpawnResult: func(territoryID string, success bool, chunk int) {
			logger.Info("spawn_result", "territory", territoryID, "success", success, "chunk", chunk)
		},
		OnQueenDeath: func(p wire.ForwardedPayload) {
			logger.Info("queen_death", "territory", p.TerritoryID)
		},
		OnQueenSuccess: func(p wire.ForwardedPayload) {
			logger.Info("queen_success", "territory", p.TerritoryID)
		},
		OnGameOutcome: func(p wire.ForwardedPayload) {
			logger.Info("game_outcome", "territory", p.TerritoryID)
		},
	}
	h := handler.New(g, network, buffer, cfg.Reward, cfg.Grid.Size, agg, logger, hooks)

	tcfg := trainer.Config{
		TrainingInterval:   time.Duration(cfg.Economy.TrainingIntervalMillis) * time.Millisecond,
		MinBatch:           cfg.Economy.MinBatch,
		BatchSize:          cfg.Economy.BatchSize,
		LearningRate:       cfg.Economy.LearningRate,
		CheckpointInterval: cfg.Economy.CheckpointInterval,
		CheckpointPath:     *checkpointPath,
	}
	tr := trainer.New(tcfg, network, buffer, cfg.Grid.Size, agg, logger)

	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	tr.Start(appCtx)
	defer tr.Stop()

	go runSimulator(appCtx, h, cfg.Grid.Size, *seed, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		sess, err := transport.Upgrade(w, r, h, logger)
		if err != nil {
			logger.Warn("transport: upgrade failed", "error", err)
			return
		}
		defer sess.Close()
		if err := sess.Serve(r.Context()); err != nil {
			logger.Info("transport: session ended", "error", err)
		}
	})
	mux.Handle("/metrics", promhttp.HandlerFor(agg.Registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: *addr, Handler: mux}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("queenai: listening", "addr", *addr)
		serveErr <- srv.ListenAndServe()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serve: %w", err)
		}
	case <-sig:
		logger.Info("queenai: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}

// runSimulator drives a single in-process training territory: tick the
// simulator, feed the observation through the handler the same way a
// real game client's observation_data message would, and act on
// whatever spawn decision comes back. It keeps the replay buffer and
// trainer fed even when no real game client is connected.
func runSimulator(ctx context.Context, h *handler.Handler, axis int, seed int64, logger handler.Logger) {
	simCfg := simulator.DefaultConfig(axis)
	sim := simulator.New("simulation", simCfg, seed)
	ticker := time.NewTicker(simCfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			obs := sim.Tick()
			payload := wire.FromObservation(obs)
			env, err := wire.NewEnvelope(wire.TypeObservationData, nil, payload)
			if err != nil {
				logger.Error("simulator: failed to build observation envelope", "error", err)
				continue
			}

			resp, err := h.Handle(ctx, env)
			if err != nil {
				logger.Error("simulator: handler error", "error", err)
				continue
			}
			applySpawnDecision(ctx, h, sim, "simulation", resp, logger)
		}
	}
}

// applySpawnDecision executes the handler's observation_response
// against the simulator and reports the outcome back through a
// synthetic spawn_result message, closing the loop the same way a
// real game client would.
func applySpawnDecision(ctx context.Context, h *handler.Handler, sim *simulator.Simulator, territory string, resp *wire.Envelope, logger handler.Logger) {
	if resp == nil || resp.Type != wire.TypeObservationResponse {
		return
	}
	var decision wire.ObservationResponsePayload
	if err := json.Unmarshal(resp.Data, &decision); err != nil {
		logger.Warn("simulator: failed to decode observation response", "error", err)
		return
	}
	if decision.SpawnChunk < 0 || decision.SpawnType == nil {
		return
	}

	spawnType := observation.SpawnTypeEnergy
	if *decision.SpawnType == "combat" {
		spawnType = observation.SpawnTypeCombat
	}
	success := sim.SpawnParasite(grid.ID(decision.SpawnChunk), spawnType)

	resultEnv, err := wire.NewEnvelope(wire.TypeSpawnResult, nil, wire.SpawnResultPayload{
		TerritoryID: territory,
		Success:     success,
		Chunk:       decision.SpawnChunk,
	})
	if err != nil {
		logger.Error("simulator: failed to build spawn_result envelope", "error", err)
		return
	}
	if _, err := h.Handle(ctx, resultEnv); err != nil {
		logger.Error("simulator: spawn_result handling failed", "error", err)
	}
}
