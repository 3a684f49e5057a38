package zabbix

import "context"

// GetGroupID looks a host group up by name.
func (c *Client) GetGroupID(ctx context.Context, name string) (int, bool, error) {
	params := map[string]any{
		"filter": map[string]any{"name": []string{name}},
		"output": []string{"groupid", "name"},
	}
	var groups []HostGroup
	if err := c.Call(ctx, "hostgroup.get", params, &groups); err != nil {
		return 0, false, err
	}
	if len(groups) == 0 {
		return 0, false, nil
	}
	return groups[0].GroupID, true, nil
}

// CreateGroup creates a host group and returns its id.
func (c *Client) CreateGroup(ctx context.Context, name string) (int, error) {
	var out struct {
		GroupIDs []string `json:"groupids"`
	}
	if err := c.Call(ctx, "hostgroup.create", map[string]string{"name": name}, &out); err != nil {
		return 0, err
	}
	return firstID("hostgroup.create", out.GroupIDs)
}

// GetTemplateID looks a template up by technical name.
func (c *Client) GetTemplateID(ctx context.Context, name string) (int, bool, error) {
	params := map[string]any{
		"filter": map[string]any{"host": []string{name}},
		"output": []string{"templateid", "host"},
	}
	var templates []Template
	if err := c.Call(ctx, "template.get", params, &templates); err != nil {
		return 0, false, err
	}
	if len(templates) == 0 {
		return 0, false, nil
	}
	return templates[0].TemplateID, true, nil
}

// ListProxies returns the proxy name to id table.
func (c *Client) ListProxies(ctx context.Context) (map[string]int, error) {
	params := map[string]any{"output": []string{"proxyid", "host"}}
	var proxies []Proxy
	if err := c.Call(ctx, "proxy.get", params, &proxies); err != nil {
		return nil, err
	}
	table := make(map[string]int, len(proxies))
	for _, p := range proxies {
		table[p.Host] = p.ProxyID
	}
	return table, nil
}

// GetProxyID looks a proxy up by name.
func (c *Client) GetProxyID(ctx context.Context, name string) (int, bool, error) {
	params := map[string]any{
		"filter": map[string]any{"host": []string{name}},
		"output": []string{"proxyid", "host"},
	}
	var proxies []Proxy
	if err := c.Call(ctx, "proxy.get", params, &proxies); err != nil {
		return 0, false, err
	}
	if len(proxies) == 0 {
		return 0, false, nil
	}
	return proxies[0].ProxyID, true, nil
}
