package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/hostsync/internal/reconcile"
)

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, ttl), mr
}

func TestSaveAndGetReport(t *testing.T) {
	s, mr := newTestStore(t, time.Hour)
	ctx := context.Background()

	finished := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveReports(ctx, []reconcile.HostReport{{
		Name:       "web01",
		Action:     reconcile.ActionCreate,
		Operations: []string{"create host web01"},
		Applied:    1,
		FinishedAt: finished,
		RunID:      "run-1",
	}}))

	hr, err := s.GetReport(ctx, "web01")
	require.NoError(t, err)
	assert.Equal(t, reconcile.ActionCreate, hr.Action)
	assert.Equal(t, []string{"create host web01"}, hr.Operations)
	assert.True(t, finished.Equal(hr.FinishedAt))

	assert.Equal(t, time.Hour, mr.TTL(ReportKey("web01")))
	members, err := mr.Members(KeyAllReports)
	require.NoError(t, err)
	assert.Equal(t, []string{"web01"}, members)
}

func TestGetReportNotFound(t *testing.T) {
	s, _ := newTestStore(t, time.Hour)

	_, err := s.GetReport(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetAllReportsPrunesExpired(t *testing.T) {
	s, mr := newTestStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.SaveReports(ctx, []reconcile.HostReport{{Name: "web01"}, {Name: "db01"}}))
	mr.Del(ReportKey("db01"))

	reports, err := s.GetAllReports(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "web01", reports[0].Name)

	members, err := mr.Members(KeyAllReports)
	require.NoError(t, err)
	assert.Equal(t, []string{"web01"}, members)
}

func TestGetAllReportsEmpty(t *testing.T) {
	s, _ := newTestStore(t, time.Hour)

	reports, err := s.GetAllReports(context.Background())
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestReportsExpire(t *testing.T) {
	s, mr := newTestStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, s.SaveReports(ctx, []reconcile.HostReport{{Name: "web01"}}))
	mr.FastForward(2 * time.Minute)

	_, err := s.GetReport(ctx, "web01")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteReport(t *testing.T) {
	s, mr := newTestStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.SaveReports(ctx, []reconcile.HostReport{{Name: "web01"}, {Name: "db01"}}))
	require.NoError(t, s.DeleteReport(ctx, "web01"))

	assert.False(t, mr.Exists(ReportKey("web01")))
	ok, err := mr.SIsMember(KeyAllReports, "web01")
	require.NoError(t, err)
	assert.False(t, ok)

	// redis drops the set with its last member
	require.NoError(t, s.DeleteReport(ctx, "db01"))
	assert.False(t, mr.Exists(ReportKey("db01")))
	assert.False(t, mr.Exists(KeyAllReports))
}

func TestLastPass(t *testing.T) {
	s, _ := newTestStore(t, time.Hour)
	ctx := context.Background()

	_, err := s.LastPass(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SaveLastPass(ctx, reconcile.PassReport{
		RunID:    "run-1",
		Duration: 3 * time.Second,
		Hosts:    []reconcile.HostReport{{Name: "web01"}},
	}))

	pass, err := s.LastPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-1", pass.RunID)
	assert.Equal(t, 3*time.Second, pass.Duration)
	assert.Empty(t, pass.Hosts, "host reports are stored separately")
}

func TestPassLock(t *testing.T) {
	s, mr := newTestStore(t, time.Hour)
	ctx := context.Background()

	lock, err := s.AcquirePassLock(ctx, time.Minute)
	require.NoError(t, err)

	_, err = s.AcquirePassLock(ctx, time.Minute)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, lock.Release(ctx))
	assert.False(t, mr.Exists(KeyPassLock))

	again, err := s.AcquirePassLock(ctx, time.Minute)
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}

func TestPassLockReleaseAfterTakeover(t *testing.T) {
	s, mr := newTestStore(t, time.Hour)
	ctx := context.Background()

	stale, err := s.AcquirePassLock(ctx, time.Second)
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	fresh, err := s.AcquirePassLock(ctx, time.Minute)
	require.NoError(t, err)

	// The expired holder must not free the new holder's lock
	require.NoError(t, stale.Release(ctx))
	assert.True(t, mr.Exists(KeyPassLock))

	require.NoError(t, fresh.Release(ctx))
	assert.False(t, mr.Exists(KeyPassLock))
}

func TestExtractHostName(t *testing.T) {
	name, err := ExtractHostName(ReportKey("web01"))
	require.NoError(t, err)
	assert.Equal(t, "web01", name)

	_, err = ExtractHostName("hostsync:other:web01")
	assert.Error(t, err)
	_, err = ExtractHostName(KeyPrefixReport)
	assert.Error(t, err)
}
