package reconcile

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strconv"

	"github.com/MrSnakeDoc/hostsync/internal/domain"
	"github.com/MrSnakeDoc/hostsync/internal/logger"
	"github.com/MrSnakeDoc/hostsync/internal/zabbix"
)

// GroupSync selects how group changes are pushed.
type GroupSync string

const (
	// GroupSyncReplace trusts the server to treat the sent group list as the
	// complete membership.
	GroupSyncReplace GroupSync = "replace"

	// GroupSyncExplicitRemove also unlinks stale groups with host.massremove,
	// for servers that merge the sent list into the existing one.
	GroupSyncExplicitRemove GroupSync = "explicit-remove"
)

// ParseGroupSync validates a group sync mode. "" selects replace.
func ParseGroupSync(s string) (GroupSync, error) {
	switch GroupSync(s) {
	case "", GroupSyncReplace:
		return GroupSyncReplace, nil
	case GroupSyncExplicitRemove:
		return GroupSyncExplicitRemove, nil
	default:
		return "", fmt.Errorf("invalid group sync mode %q (want replace or explicit-remove)", s)
	}
}

const (
	defaultInterfaceType = 1
	mainInterfaceFlag    = 1
)

// Planner turns a desired/current pair into id-carrying operations.
// Every lookup happens before Plan returns; the only remote write it may
// issue is the creation of missing groups, and only after all other lookups
// succeeded.
type Planner struct {
	api       API
	resolver  *Resolver
	groupSync GroupSync
	log       logger.Logger
}

func NewPlanner(api API, resolver *Resolver, groupSync GroupSync, log logger.Logger) *Planner {
	if groupSync == "" {
		groupSync = GroupSyncReplace
	}
	return &Planner{api: api, resolver: resolver, groupSync: groupSync, log: log}
}

// Plan returns the operations converging current to desired. A zero current
// (no remote id) means the host does not exist yet.
func (p *Planner) Plan(ctx context.Context, desired, current domain.Host) ([]Operation, error) {
	if desired.Ensure == domain.EnsureAbsent {
		if !current.Exists() {
			return nil, nil
		}
		return []Operation{DeleteHost{HostName: desired.Name}}, nil
	}
	if !current.Exists() {
		op, err := p.planCreate(ctx, desired)
		if err != nil {
			return nil, err
		}
		return []Operation{op}, nil
	}

	changed := domain.Diff(desired, current)
	if len(changed) == 0 {
		return nil, nil
	}
	return p.planUpdate(ctx, desired, current, changed)
}

func (p *Planner) planCreate(ctx context.Context, desired domain.Host) (Operation, error) {
	proxyID, err := p.resolver.ProxyID(ctx, desired.Proxy)
	if err != nil {
		return nil, err
	}
	templateIDs, err := p.resolver.TemplateIDs(ctx, desired.Templates)
	if err != nil {
		return nil, err
	}
	groupIDs, err := p.resolver.GroupIDs(ctx, desired.Groups, desired.GroupCreate)
	if err != nil {
		return nil, err
	}

	ifaceType := desired.Interface.Type
	if ifaceType == 0 {
		ifaceType = defaultInterfaceType
	}

	payload := zabbix.HostCreate{
		Host: desired.Name,
		Interfaces: []zabbix.InterfaceCreate{{
			Type:  ifaceType,
			Main:  mainInterfaceFlag,
			IP:    desired.Interface.IP,
			DNS:   desired.Name,
			Port:  strconv.Itoa(desired.Interface.Port),
			UseIP: boolFlag(desired.Interface.UseIP),
		}},
		Templates:     templateRefs(templateIDs),
		Groups:        groupRefs(groupIDs),
		Macros:        macroList(desired.Macros),
		InventoryMode: desired.InventoryMode,
	}
	if proxyID != 0 {
		payload.ProxyHostID = zabbix.Ptr(proxyID)
	}
	return CreateHost{Payload: payload, WebChecks: desired.WebChecks}, nil
}

func (p *Planner) planUpdate(ctx context.Context, desired, current domain.Host, changed []domain.Property) ([]Operation, error) {
	resolved := make(map[domain.Property]Operation, len(changed))

	// Read-only lookups first.
	if slices.Contains(changed, domain.PropertyProxy) {
		id, err := p.resolver.ProxyID(ctx, desired.Proxy)
		if err != nil {
			return nil, err
		}
		resolved[domain.PropertyProxy] = SetProxy{HostName: desired.Name, Proxy: desired.Proxy, ProxyID: id}
	}

	if slices.Contains(changed, domain.PropertyTemplates) {
		op, err := p.planTemplates(ctx, desired, current)
		if err != nil {
			return nil, err
		}
		resolved[domain.PropertyTemplates] = op
	}

	if slices.Contains(changed, domain.PropertyWebChecks) {
		op, err := p.planWebChecks(ctx, desired, current)
		if err != nil {
			return nil, err
		}
		if len(op.Delete) > 0 || len(op.Create) > 0 {
			resolved[domain.PropertyWebChecks] = op
		}
	}

	// Groups last: resolving them may create missing groups.
	if slices.Contains(changed, domain.PropertyGroups) {
		op, err := p.planGroups(ctx, desired, current)
		if err != nil {
			return nil, err
		}
		resolved[domain.PropertyGroups] = op
	}

	ops := make([]Operation, 0, len(changed))
	for _, prop := range changed {
		switch prop {
		case domain.PropertyMacros:
			ops = append(ops, ReplaceMacros{HostID: current.ID, Macros: macroList(desired.Macros)})
		case domain.PropertyIP, domain.PropertyUseIP, domain.PropertyPort, domain.PropertyInterfaceType:
			ops = append(ops, interfaceUpdate(prop, desired, current))
		case domain.PropertyInventoryMode:
			ops = append(ops, SetInventoryMode{HostName: desired.Name, Mode: desired.InventoryMode})
		default:
			if op, ok := resolved[prop]; ok {
				ops = append(ops, op)
			}
		}
	}
	return ops, nil
}

func (p *Planner) planTemplates(ctx context.Context, desired, current domain.Host) (LinkTemplates, error) {
	should, err := p.resolver.TemplateIDs(ctx, desired.Templates)
	if err != nil {
		return LinkTemplates{}, err
	}
	linked, err := p.api.GetLinkedTemplateIDs(ctx, current.ID)
	if err != nil {
		return LinkTemplates{}, remote("host.get", err)
	}

	unlink := []int{}
	for _, id := range linked {
		if !slices.Contains(should, id) {
			unlink = append(unlink, id)
		}
	}
	return LinkTemplates{HostID: current.ID, Should: should, Clear: unlink}, nil
}

func (p *Planner) planWebChecks(ctx context.Context, desired, current domain.Host) (SyncWebChecks, error) {
	tests, err := p.api.GetHTTPTests(ctx, zabbix.HTTPTestQuery{HostIDs: []int{current.ID}})
	if err != nil {
		return SyncWebChecks{}, remote("httptest.get", err)
	}

	_, stale, create := domain.PartitionWebChecks(desired.WebChecks, toWebChecks(tests))
	op := SyncWebChecks{HostID: current.ID, Create: create}
	for _, w := range stale {
		op.Delete = append(op.Delete, w.ID)
	}
	return op, nil
}

func (p *Planner) planGroups(ctx context.Context, desired, current domain.Host) (ReplaceGroups, error) {
	op := ReplaceGroups{HostName: desired.Name, HostID: current.ID}

	if p.groupSync == GroupSyncExplicitRemove {
		for _, name := range current.Groups {
			if slices.Contains(desired.Groups, name) {
				continue
			}
			id, found, err := p.api.GetGroupID(ctx, name)
			if err != nil {
				return ReplaceGroups{}, remote("hostgroup.get", err)
			}
			if found {
				op.Remove = append(op.Remove, id)
			}
		}
	}

	ids, err := p.resolver.GroupIDs(ctx, desired.Groups, desired.GroupCreate)
	if err != nil {
		return ReplaceGroups{}, err
	}
	op.GroupIDs = ids
	return op, nil
}

// interfaceUpdate builds a point update naming only the changed field.
func interfaceUpdate(prop domain.Property, desired, current domain.Host) UpdateInterface {
	u := zabbix.InterfaceUpdate{InterfaceID: current.Interface.ID}
	switch prop {
	case domain.PropertyIP:
		u.IP = zabbix.Ptr(desired.Interface.IP)
	case domain.PropertyUseIP:
		u.UseIP = zabbix.Ptr(boolFlag(desired.Interface.UseIP))
		u.DNS = zabbix.Ptr(desired.Name)
	case domain.PropertyPort:
		u.Port = zabbix.Ptr(strconv.Itoa(desired.Interface.Port))
	case domain.PropertyInterfaceType:
		u.Type = zabbix.Ptr(desired.Interface.Type)
	}
	return UpdateInterface{Property: prop, Payload: u}
}

func boolFlag(b bool) int {
	if b {
		return 1
	}
	return 0
}

func templateRefs(ids []int) []zabbix.TemplateRef {
	refs := make([]zabbix.TemplateRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, zabbix.TemplateRef{TemplateID: id})
	}
	return refs
}

func groupRefs(ids []int) []zabbix.GroupRef {
	refs := make([]zabbix.GroupRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, zabbix.GroupRef{GroupID: id})
	}
	return refs
}

// macroList flattens the macro map, sorted by key.
func macroList(macros map[string]string) []zabbix.Macro {
	keys := make([]string, 0, len(macros))
	for k := range macros {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	list := make([]zabbix.Macro, 0, len(keys))
	for _, k := range keys {
		list = append(list, zabbix.Macro{Macro: k, Value: macros[k]})
	}
	return list
}
