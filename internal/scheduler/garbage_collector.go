package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/hostsync/internal/index"
	"github.com/MrSnakeDoc/hostsync/internal/logger"
	redisstore "github.com/MrSnakeDoc/hostsync/internal/store/redis"
)

const (
	// DefaultGCThreshold is how long reports of undeclared hosts are kept
	DefaultGCThreshold = 7 * 24 * time.Hour
)

// GarbageCollector drops reports of hosts that left the desired file
type GarbageCollector struct {
	store     *redisstore.Store
	index     *index.MemoryIndex
	logger    logger.Logger
	interval  time.Duration
	threshold time.Duration
	now       func() time.Time
	stopCh    chan struct{}
}

func NewGarbageCollector(
	store *redisstore.Store,
	idx *index.MemoryIndex,
	log logger.Logger,
	interval time.Duration,
	threshold time.Duration,
) *GarbageCollector {
	if threshold == 0 {
		threshold = DefaultGCThreshold
	}

	return &GarbageCollector{
		store:     store,
		index:     idx,
		logger:    log,
		interval:  interval,
		threshold: threshold,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic garbage collection process
func (gc *GarbageCollector) Start(ctx context.Context) error {
	gc.Collect(ctx)

	ticker := time.NewTicker(gc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				gc.Collect(ctx)
			case <-gc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the garbage collector
func (gc *GarbageCollector) Stop() {
	close(gc.stopCh)
}

// Collect removes orphaned reports whose last pass is older than the
// threshold and returns how many were removed.
func (gc *GarbageCollector) Collect(ctx context.Context) int {
	now := gc.now()
	deleted := 0

	for _, hr := range gc.index.Reports() {
		if !hr.Orphaned || hr.FinishedAt.IsZero() {
			continue
		}
		age := now.Sub(hr.FinishedAt)
		if age < gc.threshold {
			continue
		}

		gc.index.DeleteReport(hr.Name)

		// best effort, redis keys also expire on their own
		if gc.store != nil {
			if err := gc.store.DeleteReport(ctx, hr.Name); err != nil {
				gc.logger.Warn("failed to delete report from redis",
					logger.String("host", hr.Name),
					logger.Error(err))
			}
		}

		gc.logger.Info("garbage collected orphaned report",
			logger.String("host", hr.Name),
			logger.Duration("age", age))
		deleted++
	}

	if deleted == 0 {
		gc.logger.Debug("no reports to garbage collect")
	}
	return deleted
}
