package desired

import (
	"github.com/MrSnakeDoc/hostsync/internal/domain"
)

const (
	DefaultPort          = 10050
	DefaultInterfaceType = 1
	DefaultInventoryMode = -1
)

// Mapper converts a validated File into domain hosts.
type Mapper struct{}

func NewMapper() *Mapper {
	return &Mapper{}
}

// MapHosts applies defaults and keeps declaration order.
func (m *Mapper) MapHosts(f File) []domain.Host {
	hosts := make([]domain.Host, 0, len(f.Hosts))
	for _, spec := range f.Hosts {
		hosts = append(hosts, m.mapHost(spec))
	}
	return hosts
}

func (m *Mapper) mapHost(spec HostSpec) domain.Host {
	h := domain.Host{
		Name:   spec.Name,
		Ensure: domain.EnsurePresent,
		Interface: domain.Interface{
			IP:    spec.Interface.IP,
			UseIP: valueOr(spec.Interface.UseIP, true),
			Port:  valueOr(spec.Interface.Port, DefaultPort),
			Type:  valueOr(spec.Interface.Type, DefaultInterfaceType),
		},
		Groups:        spec.Groups,
		GroupCreate:   spec.GroupCreate,
		Templates:     spec.Templates,
		Macros:        spec.Macros,
		Proxy:         spec.Proxy,
		InventoryMode: valueOr(spec.InventoryMode, DefaultInventoryMode),
	}
	if spec.Ensure == string(domain.EnsureAbsent) {
		h.Ensure = domain.EnsureAbsent
	}

	if spec.WebChecks != nil {
		h.WebChecks = make([]domain.WebCheck, 0, len(spec.WebChecks))
		for _, w := range spec.WebChecks {
			check := domain.WebCheck{Name: w.Name, Steps: make([]domain.Step, 0, len(w.Steps))}
			for _, s := range w.Steps {
				check.Steps = append(check.Steps, domain.Step{Name: s.Name, URL: s.URL, StatusCodes: s.StatusCodes})
			}
			h.WebChecks = append(h.WebChecks, check)
		}
	}
	return h
}

func valueOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

// LoadHosts loads filePath and maps it in one go.
func LoadHosts(filePath string) ([]domain.Host, error) {
	f, err := NewLoader(filePath).Load()
	if err != nil {
		return nil, err
	}
	return NewMapper().MapHosts(f), nil
}
