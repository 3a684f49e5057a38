package domain

import "slices"

// Ensure is the declared lifecycle state of a host.
type Ensure string

const (
	EnsurePresent Ensure = "present"
	EnsureAbsent  Ensure = "absent"
)

// Host is the canonical description of one monitored host.
//
// It is NOT tied to the YAML file or to the remote API wire format.
// The desired side is built by the desired-state mapper, the current side by
// the state fetcher; both are compared field by field by Diff.
//
// A Host is uniquely identified by its Name.
type Host struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// ID is the remote host identifier. Zero until the host exists remotely.
	ID int

	// Name is the technical host name, used as the correlation key.
	Name string

	// Ensure is only meaningful on the desired side.
	Ensure Ensure

	// ─────────────────────────────
	// Monitoring configuration
	// ─────────────────────────────

	// Interface is the primary (main) agent interface.
	Interface Interface

	// Groups is a set of host group names. Order is irrelevant.
	Groups []string

	// GroupCreate allows missing groups to be created on the fly.
	// Desired-only, never read back from the remote side.
	GroupCreate bool

	// Templates is a set of linked template names. Order is irrelevant.
	// A nil slice on the desired side means templates are not managed.
	Templates []string

	// Macros maps user macro keys ({$NAME}) to values.
	// A nil map on the desired side means macros are not managed.
	Macros map[string]string

	// WebChecks are the web scenarios attached to the host.
	// A nil slice on the desired side means web checks are not managed.
	WebChecks []WebCheck

	// Proxy is the monitoring proxy name, "" for none.
	Proxy string

	// InventoryMode is -1 (disabled), 0 (manual) or 1 (automatic).
	InventoryMode int
}

// Exists reports whether the host carries a remote identifier.
func (h Host) Exists() bool {
	return h.ID != 0
}

// Interface is the primary network interface of a host.
type Interface struct {
	// ID is the remote interface identifier, zero on the desired side.
	ID int

	IP    string
	UseIP bool // connect by IP rather than DNS name
	Port  int
	Type  int // 1 agent, 2 SNMP, 3 IPMI, 4 JMX
}

// WebCheck is a web scenario: a named, ordered list of HTTP steps.
type WebCheck struct {
	// ID is the remote identifier. Ignored by Equal.
	ID int

	Name  string
	Steps []Step
}

// Step is a single request of a web scenario.
type Step struct {
	Name        string
	URL         string
	StatusCodes string
}

// Equal compares name and the ordered step list, ignoring ID.
// The same steps in another order are a different web check.
func (w WebCheck) Equal(other WebCheck) bool {
	return w.Name == other.Name && slices.Equal(w.Steps, other.Steps)
}
