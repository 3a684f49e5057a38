package zabbix

import (
	"context"
	"sort"
)

// GetHTTPTests returns web scenarios with their steps sorted by position.
func (c *Client) GetHTTPTests(ctx context.Context, q HTTPTestQuery) ([]HTTPTest, error) {
	params := map[string]any{
		"selectSteps": []string{"name", "url", "status_codes", "no"},
		"output":      []string{"httptestid", "name"},
	}
	if len(q.HostIDs) > 0 {
		params["hostids"] = q.HostIDs
	}
	if len(q.HTTPTestIDs) > 0 {
		params["httptestids"] = q.HTTPTestIDs
	}

	var tests []HTTPTest
	if err := c.Call(ctx, "httptest.get", params, &tests); err != nil {
		return nil, err
	}
	for i := range tests {
		steps := tests[i].Steps
		sort.SliceStable(steps, func(a, b int) bool { return steps[a].No < steps[b].No })
	}
	return tests, nil
}

// CreateHTTPTest creates a web scenario and returns its id.
func (c *Client) CreateHTTPTest(ctx context.Context, t HTTPTestCreate) (int, error) {
	var out struct {
		HTTPTestIDs []string `json:"httptestids"`
	}
	if err := c.Call(ctx, "httptest.create", t, &out); err != nil {
		return 0, err
	}
	return firstID("httptest.create", out.HTTPTestIDs)
}

// DeleteHTTPTests removes web scenarios by id.
func (c *Client) DeleteHTTPTests(ctx context.Context, ids []int) error {
	return c.Call(ctx, "httptest.delete", ids, nil)
}
