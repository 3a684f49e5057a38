package scheduler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/MrSnakeDoc/hostsync/internal/domain"
	"github.com/MrSnakeDoc/hostsync/internal/index"
	"github.com/MrSnakeDoc/hostsync/internal/logger"
	"github.com/MrSnakeDoc/hostsync/internal/reconcile"
	"github.com/MrSnakeDoc/hostsync/internal/sources/desired"
	redisstore "github.com/MrSnakeDoc/hostsync/internal/store/redis"
)

// ErrPassSkipped is returned when another daemon holds the pass lock.
var ErrPassSkipped = errors.New("pass skipped: lock held elsewhere")

// PassRunner runs one reconciliation pass over the desired hosts.
type PassRunner interface {
	Run(ctx context.Context, hosts []domain.Host) (reconcile.PassReport, error)
}

// ReconcileLoop runs a pass at start, then on every tick and every trigger.
// Passes are serialised by the loop goroutine.
type ReconcileLoop struct {
	desiredFile string
	runner      PassRunner
	store       *redisstore.Store // nil when redis is disabled
	index       *index.MemoryIndex
	logger      logger.Logger
	interval    time.Duration
	lockTTL     time.Duration
	stopCh      chan struct{}
	done        chan struct{}
	trigger     <-chan struct{}
}

func NewReconcileLoop(
	desiredFile string,
	runner PassRunner,
	store *redisstore.Store,
	idx *index.MemoryIndex,
	log logger.Logger,
	interval time.Duration,
	lockTTL time.Duration,
	trigger <-chan struct{},
) *ReconcileLoop {
	return &ReconcileLoop{
		desiredFile: desiredFile,
		runner:      runner,
		store:       store,
		index:       idx,
		logger:      log,
		interval:    interval,
		lockTTL:     lockTTL,
		stopCh:      make(chan struct{}),
		done:        make(chan struct{}),
		trigger:     trigger,
	}
}

// Start validates the desired file, runs the first pass and starts the loop.
// Only an unreadable or invalid desired file is fatal here; remote failures
// are retried on the next tick.
func (rl *ReconcileLoop) Start(ctx context.Context) error {
	if _, err := desired.LoadHosts(rl.desiredFile); err != nil {
		return fmt.Errorf("initial load failed: %w", err)
	}
	rl.runLogged(ctx, "startup")

	ticker := time.NewTicker(rl.interval)
	go func() {
		defer close(rl.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.runLogged(ctx, "interval")
			case <-rl.trigger:
				rl.runLogged(ctx, "trigger")
			case <-rl.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the loop and waits for a running pass to return.
func (rl *ReconcileLoop) Stop() {
	close(rl.stopCh)
	<-rl.done
}

func (rl *ReconcileLoop) runLogged(ctx context.Context, reason string) {
	rl.logger.Info("starting pass", logger.String("reason", reason))
	report, err := rl.Pass(ctx)
	switch {
	case errors.Is(err, ErrPassSkipped):
		rl.logger.Info("pass skipped, another daemon is reconciling")
	case err != nil:
		rl.logger.Error("pass finished with errors",
			logger.String("run_id", report.RunID),
			logger.Error(err))
	}
}

// Pass loads the desired hosts, takes the pass lock when redis is enabled,
// reconciles and records the outcome.
func (rl *ReconcileLoop) Pass(ctx context.Context) (reconcile.PassReport, error) {
	hosts, err := desired.LoadHosts(rl.desiredFile)
	if err != nil {
		return reconcile.PassReport{}, fmt.Errorf("failed to load desired hosts: %w", err)
	}

	if rl.store != nil {
		lock, err := rl.store.AcquirePassLock(ctx, rl.lockTTL)
		if errors.Is(err, redisstore.ErrLocked) {
			return reconcile.PassReport{}, ErrPassSkipped
		}
		if err != nil {
			return reconcile.PassReport{}, err
		}
		defer func() {
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := lock.Release(releaseCtx); err != nil {
				rl.logger.Warn("failed to release pass lock", logger.Error(err))
			}
		}()
	}

	report, errs := rl.runner.Run(ctx, hosts)
	rl.record(ctx, report, hosts)
	return report, errs
}

// record updates index and store. Redis is best effort, the index is the
// primary source.
func (rl *ReconcileLoop) record(ctx context.Context, report reconcile.PassReport, hosts []domain.Host) {
	rl.index.RecordPass(report)

	declared := make(map[string]bool, len(hosts))
	for _, h := range hosts {
		declared[h.Name] = true
	}
	orphans := rl.index.MarkOrphans(declared)
	if len(orphans) > 0 {
		rl.logger.Info("hosts no longer declared",
			logger.Strings("hosts", reportNames(orphans)))
	}

	if rl.store == nil {
		return
	}
	if err := rl.store.SaveReports(ctx, slices.Concat(report.Hosts, orphans)); err != nil {
		rl.logger.Warn("failed to save reports to redis", logger.Error(err))
	}
	if err := rl.store.SaveLastPass(ctx, report); err != nil {
		rl.logger.Warn("failed to save last pass to redis", logger.Error(err))
	}
}

func reportNames(reports []reconcile.HostReport) []string {
	names := make([]string, len(reports))
	for i, hr := range reports {
		names[i] = hr.Name
	}
	return names
}
