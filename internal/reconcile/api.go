// Package reconcile converges remote hosts to their desired description.
//
// A pass is: Fetcher (remote snapshot) -> Correlate (bind by name) ->
// Planner (diff + id resolution) -> Mutator (remote calls).
package reconcile

import (
	"context"

	"github.com/MrSnakeDoc/hostsync/internal/domain"
	"github.com/MrSnakeDoc/hostsync/internal/zabbix"
)

// API is the subset of the monitoring server API the engine needs.
// *zabbix.Client implements it; zabbixtest.Server fakes it in tests.
type API interface {
	// Reads
	GetHosts(ctx context.Context) ([]zabbix.Host, error)
	GetHostID(ctx context.Context, name string) (int, bool, error)
	GetLinkedTemplateIDs(ctx context.Context, hostID int) ([]int, error)
	GetHTTPTests(ctx context.Context, q zabbix.HTTPTestQuery) ([]zabbix.HTTPTest, error)
	GetGroupID(ctx context.Context, name string) (int, bool, error)
	GetTemplateID(ctx context.Context, name string) (int, bool, error)
	GetProxyID(ctx context.Context, name string) (int, bool, error)
	ListProxies(ctx context.Context) (map[string]int, error)

	// Writes
	CreateGroup(ctx context.Context, name string) (int, error)
	CreateHost(ctx context.Context, h zabbix.HostCreate) (int, error)
	UpdateHost(ctx context.Context, u zabbix.HostUpdate) error
	UpsertHost(ctx context.Context, u zabbix.HostUpsert) (int, error)
	DeleteHosts(ctx context.Context, ids ...int) error
	RemoveHostGroups(ctx context.Context, hostID int, groupIDs []int) error
	UpdateInterface(ctx context.Context, u zabbix.InterfaceUpdate) error
	CreateHTTPTest(ctx context.Context, t zabbix.HTTPTestCreate) (int, error)
	DeleteHTTPTests(ctx context.Context, ids []int) error
}

var _ API = (*zabbix.Client)(nil)

// remote wraps a failed API call. nil stays nil.
func remote(method string, err error) error {
	if err == nil {
		return nil
	}
	return &domain.RemoteCallError{Method: method, Err: err}
}
