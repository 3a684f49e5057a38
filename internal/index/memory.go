package index

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/MrSnakeDoc/hostsync/internal/reconcile"
)

// MemoryIndex keeps the latest report of every host and the last pass.
// It serves the HTTP surface and is the only store when redis is disabled.
type MemoryIndex struct {
	mu       sync.RWMutex
	reports  map[string]reconcile.HostReport // host name -> latest report
	lastPass *reconcile.PassReport
	lastRun  time.Time // end of the last recorded pass
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		reports: make(map[string]reconcile.HostReport),
	}
}

// RecordPass stores the pass and replaces the reports of every host it
// touched. Reports of hosts the pass did not see are left alone.
func (idx *MemoryIndex) RecordPass(pass reconcile.PassReport) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, hr := range pass.Hosts {
		idx.reports[hr.Name] = hr
	}
	p := pass
	p.Hosts = slices.Clone(pass.Hosts)
	idx.lastPass = &p
	idx.lastRun = time.Now()
}

// MarkOrphans flags reports whose host is not in declared and returns the
// newly flagged reports.
func (idx *MemoryIndex) MarkOrphans(declared map[string]bool) []reconcile.HostReport {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	var marked []reconcile.HostReport
	for name, hr := range idx.reports {
		if declared[name] || hr.Orphaned {
			continue
		}
		hr.Orphaned = true
		idx.reports[name] = hr
		marked = append(marked, hr)
	}
	sortReports(marked)
	return marked
}

// Load seeds the index with previously persisted state. Existing reports win.
func (idx *MemoryIndex) Load(reports []reconcile.HostReport, last *reconcile.PassReport) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, hr := range reports {
		if _, ok := idx.reports[hr.Name]; !ok {
			idx.reports[hr.Name] = hr
		}
	}
	if idx.lastPass == nil && last != nil {
		p := *last
		idx.lastPass = &p
	}
}

// Report returns the latest report for a host.
func (idx *MemoryIndex) Report(name string) (reconcile.HostReport, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	hr, ok := idx.reports[name]
	return hr, ok
}

// Reports returns every report sorted by host name.
func (idx *MemoryIndex) Reports() []reconcile.HostReport {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]reconcile.HostReport, 0, len(idx.reports))
	for _, hr := range idx.reports {
		out = append(out, hr)
	}
	sortReports(out)
	return out
}

// DeleteReport removes a host report from the index
func (idx *MemoryIndex) DeleteReport(name string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	delete(idx.reports, name)
}

// Count returns the number of host reports in the index
func (idx *MemoryIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.reports)
}

// LastPass returns a copy of the last recorded pass.
func (idx *MemoryIndex) LastPass() (reconcile.PassReport, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.lastPass == nil {
		return reconcile.PassReport{}, false
	}
	p := *idx.lastPass
	p.Hosts = slices.Clone(idx.lastPass.Hosts)
	return p, true
}

// GetLastRun returns when the last pass was recorded by this process.
func (idx *MemoryIndex) GetLastRun() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastRun
}

// Ready reports whether this process completed at least one pass.
func (idx *MemoryIndex) Ready() bool {
	return !idx.GetLastRun().IsZero()
}

func sortReports(r []reconcile.HostReport) {
	slices.SortFunc(r, func(a, b reconcile.HostReport) int {
		return strings.Compare(a.Name, b.Name)
	})
}
