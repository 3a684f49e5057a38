package reconcile

import (
	"context"

	"github.com/MrSnakeDoc/hostsync/internal/domain"
	"github.com/MrSnakeDoc/hostsync/internal/logger"
)

// Resolver turns group, template and proxy names into remote ids.
// Nothing is cached: every call hits the API.
type Resolver struct {
	api API
	log logger.Logger
}

func NewResolver(api API, log logger.Logger) *Resolver {
	return &Resolver{api: api, log: log}
}

// GroupIDs resolves every name. Missing groups are created when allowCreate
// is set, otherwise the first missing one is reported. Creation only starts
// once every name has been looked up.
func (r *Resolver) GroupIDs(ctx context.Context, names []string, allowCreate bool) ([]int, error) {
	ids := make([]int, len(names))
	var missing []int
	for i, name := range names {
		id, found, err := r.api.GetGroupID(ctx, name)
		if err != nil {
			return nil, remote("hostgroup.get", err)
		}
		if !found {
			if !allowCreate {
				return nil, &domain.MissingDependencyError{Kind: domain.DependencyGroup, Name: name}
			}
			missing = append(missing, i)
			continue
		}
		ids[i] = id
	}

	for _, i := range missing {
		id, err := r.api.CreateGroup(ctx, names[i])
		if err != nil {
			return nil, remote("hostgroup.create", err)
		}
		r.log.Info("created host group", logger.String("group", names[i]), logger.Int("groupid", id))
		ids[i] = id
	}
	return ids, nil
}

// TemplateIDs resolves every template name; any miss is an error.
func (r *Resolver) TemplateIDs(ctx context.Context, names []string) ([]int, error) {
	ids := make([]int, 0, len(names))
	for _, name := range names {
		id, found, err := r.api.GetTemplateID(ctx, name)
		if err != nil {
			return nil, remote("template.get", err)
		}
		if !found {
			return nil, &domain.MissingDependencyError{Kind: domain.DependencyTemplate, Name: name}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ProxyID resolves a proxy name. "" means no proxy and returns 0.
func (r *Resolver) ProxyID(ctx context.Context, name string) (int, error) {
	if name == "" {
		return 0, nil
	}
	id, found, err := r.api.GetProxyID(ctx, name)
	if err != nil {
		return 0, remote("proxy.get", err)
	}
	if !found {
		return 0, &domain.MissingDependencyError{Kind: domain.DependencyProxy, Name: name}
	}
	return id, nil
}
