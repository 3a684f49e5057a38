package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/hostsync/internal/reconcile"
)

// DefaultReportTTL is used when the store is built with a zero TTL.
const DefaultReportTTL = 7 * 24 * time.Hour

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("not found")

// Store persists pass reports so they survive restarts and can be read by
// other daemons sharing the same redis.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultReportTTL
	}
	return &Store{client: client, ttl: ttl}
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// SaveReports stores host reports in one pipeline.
func (s *Store) SaveReports(ctx context.Context, reports []reconcile.HostReport) error {
	if len(reports) == 0 {
		return nil
	}
	pipe := s.client.Pipeline()

	for _, hr := range reports {
		data, err := json.Marshal(hr)
		if err != nil {
			return fmt.Errorf("failed to marshal report %s: %w", hr.Name, err)
		}
		pipe.Set(ctx, ReportKey(hr.Name), data, s.ttl)
		pipe.SAdd(ctx, KeyAllReports, hr.Name)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save reports: %w", err)
	}
	return nil
}

// GetReport retrieves the report of one host.
func (s *Store) GetReport(ctx context.Context, name string) (reconcile.HostReport, error) {
	var hr reconcile.HostReport
	data, err := s.client.Get(ctx, ReportKey(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return hr, fmt.Errorf("report %s: %w", name, ErrNotFound)
		}
		return hr, fmt.Errorf("failed to get report: %w", err)
	}
	if err := json.Unmarshal(data, &hr); err != nil {
		return hr, fmt.Errorf("failed to unmarshal report %s: %w", name, err)
	}
	return hr, nil
}

// GetAllReports returns every stored report. Names whose key expired are
// pruned from the set.
func (s *Store) GetAllReports(ctx context.Context) ([]reconcile.HostReport, error) {
	names, err := s.client.SMembers(ctx, KeyAllReports).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get report names: %w", err)
	}
	if len(names) == 0 {
		return []reconcile.HostReport{}, nil
	}

	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = ReportKey(n)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get reports: %w", err)
	}

	reports := make([]reconcile.HostReport, 0, len(values))
	var expired []any
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			expired = append(expired, names[i])
			continue
		}
		var hr reconcile.HostReport
		if err := json.Unmarshal([]byte(raw), &hr); err != nil {
			// Skip reports that couldn't be decoded
			continue
		}
		reports = append(reports, hr)
	}

	if len(expired) > 0 {
		if err := s.client.SRem(ctx, KeyAllReports, expired...).Err(); err != nil {
			return reports, fmt.Errorf("failed to prune expired report names: %w", err)
		}
	}
	return reports, nil
}

// DeleteReport removes a host report
func (s *Store) DeleteReport(ctx context.Context, name string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, ReportKey(name))
	pipe.SRem(ctx, KeyAllReports, name)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete report %s: %w", name, err)
	}
	return nil
}

// SaveLastPass stores the pass summary without its host reports.
func (s *Store) SaveLastPass(ctx context.Context, pass reconcile.PassReport) error {
	pass.Hosts = nil
	data, err := json.Marshal(pass)
	if err != nil {
		return fmt.Errorf("failed to marshal pass: %w", err)
	}
	if err := s.client.Set(ctx, KeyLastPass, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save last pass: %w", err)
	}
	return nil
}

// LastPass returns the stored pass summary, or ErrNotFound.
func (s *Store) LastPass(ctx context.Context) (*reconcile.PassReport, error) {
	data, err := s.client.Get(ctx, KeyLastPass).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("last pass: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get last pass: %w", err)
	}
	var pass reconcile.PassReport
	if err := json.Unmarshal(data, &pass); err != nil {
		return nil, fmt.Errorf("failed to unmarshal last pass: %w", err)
	}
	return &pass, nil
}
