package reconcile

import (
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/hostsync/internal/domain"
	"github.com/MrSnakeDoc/hostsync/internal/zabbix"
)

// Operation is one intended remote mutation. The set of implementations is
// closed; the Mutator dispatches on the concrete type.
type Operation interface {
	// Kind is a stable label used in metrics and reports.
	Kind() string

	// Describe returns a human-readable description for logs and plans.
	Describe() string

	operation()
}

// CreateHost creates a host with everything it declares. Web checks are
// created right after, against the returned host id.
type CreateHost struct {
	Payload   zabbix.HostCreate
	WebChecks []domain.WebCheck
}

// DeleteHost removes a host, looked up by name at apply time.
type DeleteHost struct {
	HostName string
}

// ReplaceGroups sets the full group list of a host. Remove is only filled in
// explicit-remove mode and lists groups to unlink afterwards.
type ReplaceGroups struct {
	HostName string
	HostID   int
	GroupIDs []int
	Remove   []int
}

// LinkTemplates links Should and unlinks Clear in a single update.
type LinkTemplates struct {
	HostID int
	Should []int
	Clear  []int
}

// ReplaceMacros sends the complete macro list.
type ReplaceMacros struct {
	HostID int
	Macros []zabbix.Macro
}

// SyncWebChecks deletes stale web checks, then creates the missing ones.
type SyncWebChecks struct {
	HostID int
	Delete []int
	Create []domain.WebCheck
}

// UpdateInterface changes exactly one field of the main interface.
type UpdateInterface struct {
	Property domain.Property
	Payload  zabbix.InterfaceUpdate
}

// SetProxy moves a host to a proxy. ProxyID 0 means monitored by the server.
type SetProxy struct {
	HostName string
	Proxy    string
	ProxyID  int
}

type SetInventoryMode struct {
	HostName string
	Mode     int
}

func (CreateHost) operation()       {}
func (DeleteHost) operation()       {}
func (ReplaceGroups) operation()    {}
func (LinkTemplates) operation()    {}
func (ReplaceMacros) operation()    {}
func (SyncWebChecks) operation()    {}
func (UpdateInterface) operation()  {}
func (SetProxy) operation()         {}
func (SetInventoryMode) operation() {}

func (CreateHost) Kind() string       { return "create_host" }
func (DeleteHost) Kind() string       { return "delete_host" }
func (ReplaceGroups) Kind() string    { return "replace_groups" }
func (LinkTemplates) Kind() string    { return "link_templates" }
func (ReplaceMacros) Kind() string    { return "replace_macros" }
func (SyncWebChecks) Kind() string    { return "sync_web_checks" }
func (UpdateInterface) Kind() string  { return "update_interface" }
func (SetProxy) Kind() string         { return "set_proxy" }
func (SetInventoryMode) Kind() string { return "set_inventory_mode" }

func (o CreateHost) Describe() string {
	return fmt.Sprintf("create host %s (%d groups, %d templates, %d macros, %d web checks)",
		o.Payload.Host, len(o.Payload.Groups), len(o.Payload.Templates), len(o.Payload.Macros), len(o.WebChecks))
}

func (o DeleteHost) Describe() string {
	return "delete host " + o.HostName
}

func (o ReplaceGroups) Describe() string {
	if len(o.Remove) > 0 {
		return fmt.Sprintf("set groups %v, unlink %v", o.GroupIDs, o.Remove)
	}
	return fmt.Sprintf("set groups %v", o.GroupIDs)
}

func (o LinkTemplates) Describe() string {
	return fmt.Sprintf("link templates %v, clear %v", o.Should, o.Clear)
}

func (o ReplaceMacros) Describe() string {
	keys := make([]string, 0, len(o.Macros))
	for _, m := range o.Macros {
		keys = append(keys, m.Macro)
	}
	return "set macros " + strings.Join(keys, ", ")
}

func (o SyncWebChecks) Describe() string {
	names := make([]string, 0, len(o.Create))
	for _, w := range o.Create {
		names = append(names, w.Name)
	}
	return fmt.Sprintf("delete web checks %v, create [%s]", o.Delete, strings.Join(names, ", "))
}

func (o UpdateInterface) Describe() string {
	return fmt.Sprintf("update interface %d %s", o.Payload.InterfaceID, o.Property)
}

func (o SetProxy) Describe() string {
	if o.Proxy == "" {
		return "unset proxy"
	}
	return "set proxy " + o.Proxy
}

func (o SetInventoryMode) Describe() string {
	return fmt.Sprintf("set inventory mode %d", o.Mode)
}
