package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/MrSnakeDoc/hostsync/internal/domain"
	"github.com/MrSnakeDoc/hostsync/internal/logger"
	"github.com/MrSnakeDoc/hostsync/internal/metrics"
)

// Action is what a pass decided to do with a host.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionNoop   Action = "noop"
)

// HostReport is the outcome of one host within a pass.
type HostReport struct {
	Name       string            `json:"name"`
	Action     Action            `json:"action"`
	Changes    []domain.Property `json:"changes,omitempty"`
	Operations []string          `json:"operations,omitempty"`
	Applied    int               `json:"applied"`
	Error      string            `json:"error,omitempty"`
	Duration   time.Duration     `json:"duration"`
	FinishedAt time.Time         `json:"finished_at"`
	RunID      string            `json:"run_id"`
	Orphaned   bool              `json:"orphaned,omitempty"`
}

// Failed reports whether the host could not be converged.
func (r HostReport) Failed() bool {
	return r.Error != ""
}

// PassReport summarises one reconciliation pass.
type PassReport struct {
	RunID      string        `json:"run_id"`
	DryRun     bool          `json:"dry_run"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Hosts      []HostReport  `json:"hosts"`
	FetchError string        `json:"fetch_error,omitempty"`
}

// Failed counts hosts that ended with an error.
func (p PassReport) Failed() int {
	n := 0
	for _, h := range p.Hosts {
		if h.Failed() {
			n++
		}
	}
	return n
}

// Changed counts hosts with at least one intended change.
func (p PassReport) Changed() int {
	n := 0
	for _, h := range p.Hosts {
		if h.Action != ActionNoop {
			n++
		}
	}
	return n
}

type Options struct {
	DryRun    bool
	GroupSync GroupSync
}

// Reconciler runs passes. Hosts are processed one after the other.
type Reconciler struct {
	fetcher *Fetcher
	planner *Planner
	mutator *Mutator
	log     logger.Logger
	dryRun  bool
}

func New(api API, log logger.Logger, opts Options) *Reconciler {
	return &Reconciler{
		fetcher: NewFetcher(api, log),
		planner: NewPlanner(api, NewResolver(api, log), opts.GroupSync, log),
		mutator: NewMutator(api, log),
		log:     log,
		dryRun:  opts.DryRun,
	}
}

// Run converges every desired host. A failing host does not stop the others;
// the returned error aggregates every per-host failure. A fetch failure
// aborts the pass before any host is touched.
func (r *Reconciler) Run(ctx context.Context, desired []domain.Host) (report PassReport, errs error) {
	report = PassReport{
		RunID:     uuid.NewString(),
		DryRun:    r.dryRun,
		StartedAt: time.Now(),
	}
	log := r.log.With(logger.String("run_id", report.RunID))

	defer func() {
		report.Duration = time.Since(report.StartedAt)
		if !r.dryRun {
			metrics.ObservePass(errs, report.Duration)
		}
	}()

	current, skipped, err := r.fetcher.Snapshot(ctx)
	if err != nil {
		errs = fmt.Errorf("fetch current state: %w", err)
		report.FetchError = errs.Error()
		log.Error("pass aborted", logger.Error(errs))
		return report, errs
	}

	for _, b := range Correlate(desired, current) {
		if err := ctx.Err(); err != nil {
			errs = multierr.Append(errs, err)
			break
		}
		var hr HostReport
		if malformed, ok := skipped[b.Desired.Name]; ok && !b.Found {
			if b.Desired.Ensure == domain.EnsureAbsent {
				// deletion only needs the remote id
				b.Current = domain.Host{ID: malformed.HostID, Name: malformed.Host}
				b.Found = true
				hr, err = r.reconcileHost(ctx, log, b)
			} else {
				hr, err = r.rejectMalformed(log, b, malformed)
			}
		} else {
			hr, err = r.reconcileHost(ctx, log, b)
		}
		hr.RunID = report.RunID
		report.Hosts = append(report.Hosts, hr)
		errs = multierr.Append(errs, err)
	}

	log.Info("pass finished",
		logger.Int("hosts", len(report.Hosts)),
		logger.Int("changed", report.Changed()),
		logger.Int("failed", report.Failed()),
		logger.Bool("dry_run", r.dryRun),
	)
	return report, errs
}

func (r *Reconciler) reconcileHost(ctx context.Context, passLog logger.Logger, b Binding) (hr HostReport, err error) {
	start := time.Now()
	log := passLog.With(logger.String("host", b.Desired.Name))
	hr = HostReport{Name: b.Desired.Name, Action: actionFor(b)}
	if hr.Action == ActionUpdate {
		hr.Changes = domain.Diff(b.Desired, b.Current)
	}
	defer func() {
		hr.Duration = time.Since(start)
		hr.FinishedAt = time.Now()
	}()

	if hr.Action == ActionNoop {
		return hr, nil
	}

	if r.dryRun {
		hr.Operations = dryRunOperations(hr)
		return hr, nil
	}

	var ops []Operation
	ops, err = r.planner.Plan(ctx, b.Desired, b.Current)
	if err == nil {
		for _, op := range ops {
			hr.Operations = append(hr.Operations, op.Describe())
		}
		hr.Applied, err = r.mutator.Apply(ctx, ops)
	}
	metrics.ObserveHost(string(hr.Action), err)

	if err != nil {
		err = fmt.Errorf("host %s: %w", b.Desired.Name, err)
		hr.Error = err.Error()
		log.Error("host not converged", logger.String("action", string(hr.Action)), logger.Error(err))
		return hr, err
	}
	log.Info("host converged", logger.String("action", string(hr.Action)), logger.Int("operations", hr.Applied))
	return hr, nil
}

// rejectMalformed fails a declared host whose remote record exists but could
// not be read.
func (r *Reconciler) rejectMalformed(passLog logger.Logger, b Binding, malformed *domain.MalformedRecordError) (HostReport, error) {
	now := time.Now()
	err := fmt.Errorf("host %s: %w", b.Desired.Name, malformed)
	hr := HostReport{
		Name:       b.Desired.Name,
		Action:     ActionNoop,
		Error:      err.Error(),
		FinishedAt: now,
	}
	metrics.ObserveHost(string(hr.Action), err)
	passLog.Error("host not converged", logger.String("host", b.Desired.Name), logger.Error(err))
	return hr, err
}

func actionFor(b Binding) Action {
	switch {
	case b.Desired.Ensure == domain.EnsureAbsent && b.Found:
		return ActionDelete
	case b.Desired.Ensure == domain.EnsureAbsent:
		return ActionNoop
	case !b.Found:
		return ActionCreate
	case len(domain.Diff(b.Desired, b.Current)) == 0:
		return ActionNoop
	default:
		return ActionUpdate
	}
}

// dryRunOperations describes intent without resolving any id.
func dryRunOperations(hr HostReport) []string {
	switch hr.Action {
	case ActionCreate:
		return []string{"create host " + hr.Name}
	case ActionDelete:
		return []string{"delete host " + hr.Name}
	}
	ops := make([]string, 0, len(hr.Changes))
	for _, p := range hr.Changes {
		ops = append(ops, "update "+string(p))
	}
	return ops
}
