package scheduler

import (
	"context"
	"errors"

	"github.com/MrSnakeDoc/hostsync/internal/index"
	"github.com/MrSnakeDoc/hostsync/internal/logger"
	"github.com/MrSnakeDoc/hostsync/internal/reconcile"
	redisstore "github.com/MrSnakeDoc/hostsync/internal/store/redis"
)

// ReportSyncer seeds the memory index with reports persisted in redis
type ReportSyncer struct {
	store  *redisstore.Store
	index  *index.MemoryIndex
	logger logger.Logger
}

func NewReportSyncer(store *redisstore.Store, idx *index.MemoryIndex, log logger.Logger) *ReportSyncer {
	return &ReportSyncer{
		store:  store,
		index:  idx,
		logger: log,
	}
}

// Sync loads reports and the last pass from redis into the index
func (rs *ReportSyncer) Sync(ctx context.Context) error {
	rs.logger.Info("syncing reports from redis to memory")

	reports, err := rs.store.GetAllReports(ctx)
	if err != nil {
		return err
	}

	var last *reconcile.PassReport
	last, err = rs.store.LastPass(ctx)
	if err != nil && !errors.Is(err, redisstore.ErrNotFound) {
		return err
	}

	if len(reports) == 0 && last == nil {
		rs.logger.Info("no reports found in redis")
		return nil
	}

	rs.index.Load(reports, last)

	rs.logger.Info("synced reports from redis",
		logger.Int("count", len(reports)))

	return nil
}
