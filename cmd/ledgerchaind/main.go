// Command ledgerchaind wires the deterministic state machine core
// (internal/chainstate, internal/evaluator, internal/scheduler) to its
// external collaborators: a configuration loader, structured logging, and a
// Prometheus exposition endpoint. The P2P gossip layer, block production,
// and on-disk persistence are explicitly out of scope (spec.md §1) — this
// process substitutes a synthetic, locally-ticking block source for the
// network's ordered block stream so the core can be observed end to end.
package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"

	"github.com/r3e-network/ledgerchain/domain/operation"
	"github.com/r3e-network/ledgerchain/domain/virtualop"
	"github.com/r3e-network/ledgerchain/internal/chainstate"
	"github.com/r3e-network/ledgerchain/internal/evaluator"
	"github.com/r3e-network/ledgerchain/internal/scheduler"
	"github.com/r3e-network/ledgerchain/pkg/config"
	"github.com/r3e-network/ledgerchain/pkg/logger"
	"github.com/r3e-network/ledgerchain/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	base := logger.New(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		FilePrefix: cfg.Logging.FilePrefix,
	})
	log := base.WithField("run_id", uuid.NewString())

	logHostDiagnostics(log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Metrics.Enabled {
		go serveMetrics(log, cfg.Metrics.Addr)
	}

	sink := &loggingSink{log: log}
	state := chainstate.New(&cfg.Chain, sink)
	passes := scheduler.All()

	heartbeat := cron.New()
	if _, err := heartbeat.AddFunc("@every 30s", func() {
		log.WithField("height", state.Height).Info("heartbeat")
	}); err != nil {
		log.WithError(err).Warn("schedule heartbeat")
	}
	heartbeat.Start()
	defer heartbeat.Stop()

	run(ctx, log, state, passes)
	log.Info("shutdown complete")
}

// run drives the deterministic core against a locally-ticking block source
// until ctx is cancelled. Each tick is an empty block whose sole purpose is
// to advance head-block time far enough for the Maintenance Scheduler's
// deadlines to be exercised; a production deployment replaces this with
// blocks assembled from the (out-of-scope) consensus layer.
func run(ctx context.Context, log logrus.FieldLogger, state *chainstate.State, passes []chainstate.MaintenancePass) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var height uint64
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			height++
			block := &operation.Block{Number: height, Timestamp: now}

			start := time.Now()
			if err := chainstate.ApplyBlock(state, block, evaluator.Dispatch, passes); err != nil {
				log.WithError(err).WithField("height", height).Error("apply block")
				metrics.RecordOperation("block", false)
				continue
			}
			metrics.RecordBlockApplied(time.Since(start))
		}
	}
}

func serveMetrics(log logrus.FieldLogger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	log.WithField("addr", addr).Info("serving metrics")
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Error("metrics server")
	}
}

// logHostDiagnostics logs one-shot host and memory stats at boot, matching
// the teacher's gopsutil-backed diagnostics surface. Failures are logged,
// not fatal: a node with no /proc visibility (e.g. a locked-down container)
// still runs the core.
func logHostDiagnostics(log logrus.FieldLogger) {
	if info, err := host.Info(); err == nil {
		log.WithField("os", info.OS).
			WithField("platform", info.Platform).
			WithField("kernel", info.KernelVersion).
			Info("host diagnostics")
	} else {
		log.WithError(err).Warn("host diagnostics unavailable")
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		log.WithField("total_mb", vm.Total/1024/1024).
			WithField("used_percent", vm.UsedPercent).
			Info("memory diagnostics")
	} else {
		log.WithError(err).Warn("memory diagnostics unavailable")
	}
}

// loggingSink logs every virtual operation at debug level in addition to
// whatever in-process consumer (tests, an audit exporter) also wraps a Sink.
type loggingSink struct {
	log logrus.FieldLogger
}

func (s *loggingSink) Emit(op virtualop.VirtualOp) {
	s.log.WithField("kind", op.Kind()).Debug("virtual operation")
}
