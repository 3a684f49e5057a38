package zabbix

import (
	"context"
	"fmt"
	"strconv"
)

type hostIDs struct {
	HostIDs []string `json:"hostids"`
}

// GetHosts returns every host with its interfaces, groups, linked templates,
// macros and web scenario ids.
func (c *Client) GetHosts(ctx context.Context) ([]Host, error) {
	params := map[string]any{
		"selectParentTemplates": []string{"host"},
		"selectInterfaces":      []string{"interfaceid", "type", "main", "ip", "dns", "port", "useip"},
		"selectGroups":          []string{"name"},
		"selectMacros":          []string{"macro", "value"},
		"selectHttpTests":       []string{"httptestid"},
		"output":                []string{"host", "proxy_hostid", "inventory_mode"},
	}
	var hosts []Host
	if err := c.Call(ctx, "host.get", params, &hosts); err != nil {
		return nil, err
	}
	return hosts, nil
}

// GetHostID looks a host up by technical name.
func (c *Client) GetHostID(ctx context.Context, name string) (int, bool, error) {
	params := map[string]any{
		"filter": map[string]any{"host": []string{name}},
		"output": []string{"hostid"},
	}
	var hosts []Host
	if err := c.Call(ctx, "host.get", params, &hosts); err != nil {
		return 0, false, err
	}
	if len(hosts) == 0 {
		return 0, false, nil
	}
	return hosts[0].HostID, true, nil
}

// GetLinkedTemplateIDs returns the ids of the templates linked to a host.
func (c *Client) GetLinkedTemplateIDs(ctx context.Context, hostID int) ([]int, error) {
	params := map[string]any{
		"hostids":               []int{hostID},
		"selectParentTemplates": []string{"templateid"},
		"output":                []string{"host"},
	}
	var hosts []Host
	if err := c.Call(ctx, "host.get", params, &hosts); err != nil {
		return nil, err
	}
	if len(hosts) == 0 {
		return nil, fmt.Errorf("host %d not found", hostID)
	}
	ids := make([]int, 0, len(hosts[0].ParentTemplates))
	for _, t := range hosts[0].ParentTemplates {
		ids = append(ids, t.TemplateID)
	}
	return ids, nil
}

// CreateHost creates a host and returns its id.
func (c *Client) CreateHost(ctx context.Context, h HostCreate) (int, error) {
	var out hostIDs
	if err := c.Call(ctx, "host.create", h, &out); err != nil {
		return 0, err
	}
	return firstID("host.create", out.HostIDs)
}

// UpdateHost sends a host.update with the non-nil fields of u.
func (c *Client) UpdateHost(ctx context.Context, u HostUpdate) error {
	return c.Call(ctx, "host.update", u, nil)
}

// UpsertHost updates the host named u.Host, or creates it if it is unknown.
func (c *Client) UpsertHost(ctx context.Context, u HostUpsert) (int, error) {
	id, found, err := c.GetHostID(ctx, u.Host)
	if err != nil {
		return 0, err
	}

	var out hostIDs
	if !found {
		if err := c.Call(ctx, "host.create", u, &out); err != nil {
			return 0, err
		}
		return firstID("host.create", out.HostIDs)
	}

	params := struct {
		HostID int `json:"hostid"`
		HostUpsert
	}{HostID: id, HostUpsert: u}
	if err := c.Call(ctx, "host.update", params, &out); err != nil {
		return 0, err
	}
	return id, nil
}

// DeleteHosts removes hosts by id.
func (c *Client) DeleteHosts(ctx context.Context, ids ...int) error {
	return c.Call(ctx, "host.delete", ids, nil)
}

// RemoveHostGroups unlinks groups from a host without touching the others.
func (c *Client) RemoveHostGroups(ctx context.Context, hostID int, groupIDs []int) error {
	params := map[string]any{
		"hostids":  []int{hostID},
		"groupids": groupIDs,
	}
	return c.Call(ctx, "host.massremove", params, nil)
}

// UpdateInterface updates one host interface.
func (c *Client) UpdateInterface(ctx context.Context, u InterfaceUpdate) error {
	return c.Call(ctx, "hostinterface.update", u, nil)
}

func firstID(method string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("%s returned no id", method)
	}
	id, err := strconv.Atoi(ids[0])
	if err != nil {
		return 0, fmt.Errorf("%s returned invalid id %q: %w", method, ids[0], err)
	}
	return id, nil
}
