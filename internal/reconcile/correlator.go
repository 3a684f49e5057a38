package reconcile

import "github.com/MrSnakeDoc/hostsync/internal/domain"

// Binding pairs a desired host with its remote snapshot, if any.
type Binding struct {
	Desired domain.Host
	Current domain.Host
	Found   bool
}

// Correlate binds each desired host to the first current host of the same
// name. Remote hosts nobody declares are ignored.
func Correlate(desired, current []domain.Host) []Binding {
	byName := make(map[string]int, len(current))
	for i, h := range current {
		if _, dup := byName[h.Name]; !dup {
			byName[h.Name] = i
		}
	}

	bindings := make([]Binding, 0, len(desired))
	for _, d := range desired {
		b := Binding{Desired: d}
		if i, ok := byName[d.Name]; ok {
			b.Current = current[i]
			b.Found = true
		}
		bindings = append(bindings, b)
	}
	return bindings
}
