package reconcile

import (
	"context"
	"errors"
	"iter"
	"strconv"

	"github.com/MrSnakeDoc/hostsync/internal/domain"
	"github.com/MrSnakeDoc/hostsync/internal/logger"
	"github.com/MrSnakeDoc/hostsync/internal/zabbix"
)

// Fetcher reads the current state of every remote host.
type Fetcher struct {
	api API
	log logger.Logger
}

func NewFetcher(api API, log logger.Logger) *Fetcher {
	return &Fetcher{api: api, log: log}
}

// All yields one Host per well-formed remote record. Malformed records are
// logged and skipped. A remote failure is yielded once and ends the sequence.
func (f *Fetcher) All(ctx context.Context) iter.Seq2[domain.Host, error] {
	return f.records(ctx, nil)
}

func (f *Fetcher) records(ctx context.Context, skip func(*domain.MalformedRecordError)) iter.Seq2[domain.Host, error] {
	return func(yield func(domain.Host, error) bool) {
		proxies, err := f.api.ListProxies(ctx)
		if err != nil {
			yield(domain.Host{}, remote("proxy.get", err))
			return
		}
		proxyNames := make(map[int]string, len(proxies))
		for name, id := range proxies {
			proxyNames[id] = name
		}

		records, err := f.api.GetHosts(ctx)
		if err != nil {
			yield(domain.Host{}, remote("host.get", err))
			return
		}

		for _, rec := range records {
			h, err := f.project(ctx, rec, proxyNames)
			var malformed *domain.MalformedRecordError
			if errors.As(err, &malformed) {
				f.log.Warn("skipping host", logger.String("host", rec.Host), logger.Error(err))
				if skip != nil {
					skip(malformed)
				}
				continue
			}
			if err != nil {
				yield(domain.Host{}, err)
				return
			}
			if !yield(h, nil) {
				return
			}
		}
	}
}

// FetchAll drains All into a slice.
func (f *Fetcher) FetchAll(ctx context.Context) ([]domain.Host, error) {
	var hosts []domain.Host
	for h, err := range f.All(ctx) {
		if err != nil {
			return nil, err
		}
		hosts = append(hosts, h)
	}
	return hosts, nil
}

// Snapshot is FetchAll plus the records it skipped, keyed by host name.
func (f *Fetcher) Snapshot(ctx context.Context) ([]domain.Host, map[string]*domain.MalformedRecordError, error) {
	var hosts []domain.Host
	skipped := make(map[string]*domain.MalformedRecordError)
	for h, err := range f.records(ctx, func(e *domain.MalformedRecordError) { skipped[e.Host] = e }) {
		if err != nil {
			return nil, nil, err
		}
		hosts = append(hosts, h)
	}
	return hosts, skipped, nil
}

func (f *Fetcher) project(ctx context.Context, rec zabbix.Host, proxyNames map[int]string) (domain.Host, error) {
	iface, err := mainInterface(rec)
	if err != nil {
		return domain.Host{}, err
	}

	h := domain.Host{
		ID:            rec.HostID,
		Name:          rec.Host,
		Ensure:        domain.EnsurePresent,
		Interface:     iface,
		Groups:        make([]string, 0, len(rec.Groups)),
		Templates:     make([]string, 0, len(rec.ParentTemplates)),
		Macros:        make(map[string]string, len(rec.Macros)),
		WebChecks:     []domain.WebCheck{},
		InventoryMode: rec.InventoryMode,
	}
	if rec.ProxyHostID != 0 {
		h.Proxy = proxyNames[rec.ProxyHostID]
	}
	for _, g := range rec.Groups {
		h.Groups = append(h.Groups, g.Name)
	}
	for _, t := range rec.ParentTemplates {
		h.Templates = append(h.Templates, t.Host)
	}
	for _, m := range rec.Macros {
		h.Macros[m.Macro] = m.Value
	}

	if len(rec.HTTPTests) == 0 {
		return h, nil
	}
	ids := make([]int, 0, len(rec.HTTPTests))
	for _, t := range rec.HTTPTests {
		ids = append(ids, t.HTTPTestID)
	}
	tests, err := f.api.GetHTTPTests(ctx, zabbix.HTTPTestQuery{HTTPTestIDs: ids})
	if err != nil {
		return domain.Host{}, remote("httptest.get", err)
	}
	h.WebChecks = toWebChecks(tests)
	return h, nil
}

func mainInterface(rec zabbix.Host) (domain.Interface, error) {
	if len(rec.Interfaces) == 0 {
		return domain.Interface{}, &domain.MalformedRecordError{Host: rec.Host, HostID: rec.HostID, Reason: "no interfaces"}
	}
	for _, i := range rec.Interfaces {
		if i.Main != 1 {
			continue
		}
		// a user macro port reads as 0 and is replaced by the declared port
		port, _ := strconv.Atoi(i.Port)
		return domain.Interface{
			ID:    i.InterfaceID,
			IP:    i.IP,
			UseIP: i.UseIP == 1,
			Port:  port,
			Type:  i.Type,
		}, nil
	}
	return domain.Interface{}, &domain.MalformedRecordError{Host: rec.Host, HostID: rec.HostID, Reason: "no main interface"}
}

// toWebChecks converts web scenarios, keeping step order as returned.
func toWebChecks(tests []zabbix.HTTPTest) []domain.WebCheck {
	checks := make([]domain.WebCheck, 0, len(tests))
	for _, t := range tests {
		steps := make([]domain.Step, 0, len(t.Steps))
		for _, s := range t.Steps {
			steps = append(steps, domain.Step{Name: s.Name, URL: s.URL, StatusCodes: s.StatusCodes})
		}
		checks = append(checks, domain.WebCheck{ID: t.HTTPTestID, Name: t.Name, Steps: steps})
	}
	return checks
}
