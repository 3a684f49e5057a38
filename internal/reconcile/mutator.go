package reconcile

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/hostsync/internal/domain"
	"github.com/MrSnakeDoc/hostsync/internal/logger"
	"github.com/MrSnakeDoc/hostsync/internal/metrics"
	"github.com/MrSnakeDoc/hostsync/internal/zabbix"
)

// Mutator applies operations in order and stops at the first failure.
// Nothing is retried or rolled back.
type Mutator struct {
	api API
	log logger.Logger
}

func NewMutator(api API, log logger.Logger) *Mutator {
	return &Mutator{api: api, log: log}
}

// Apply runs ops in order and returns how many succeeded.
func (m *Mutator) Apply(ctx context.Context, ops []Operation) (int, error) {
	for i, op := range ops {
		err := m.apply(ctx, op)
		metrics.ObserveOperation(op.Kind(), err)
		if err != nil {
			return i, fmt.Errorf("%s: %w", op.Describe(), err)
		}
		m.log.Debug("operation applied", logger.String("op", op.Describe()))
	}
	return len(ops), nil
}

func (m *Mutator) apply(ctx context.Context, op Operation) error {
	switch o := op.(type) {
	case CreateHost:
		id, err := m.api.CreateHost(ctx, o.Payload)
		if err != nil {
			return remote("host.create", err)
		}
		return m.createWebChecks(ctx, id, o.WebChecks)

	case DeleteHost:
		id, found, err := m.api.GetHostID(ctx, o.HostName)
		if err != nil {
			return remote("host.get", err)
		}
		if !found {
			m.log.Warn("host vanished before delete", logger.String("host", o.HostName))
			return nil
		}
		return remote("host.delete", m.api.DeleteHosts(ctx, id))

	case ReplaceGroups:
		groups := groupRefs(o.GroupIDs)
		if _, err := m.api.UpsertHost(ctx, zabbix.HostUpsert{Host: o.HostName, Groups: &groups}); err != nil {
			return remote("host.update", err)
		}
		if len(o.Remove) == 0 {
			return nil
		}
		return remote("host.massremove", m.api.RemoveHostGroups(ctx, o.HostID, o.Remove))

	case LinkTemplates:
		should, unlink := templateRefs(o.Should), templateRefs(o.Clear)
		return remote("host.update", m.api.UpdateHost(ctx, zabbix.HostUpdate{
			HostID:         o.HostID,
			Templates:      &should,
			TemplatesClear: &unlink,
		}))

	case ReplaceMacros:
		macros := o.Macros
		if macros == nil {
			macros = []zabbix.Macro{}
		}
		return remote("host.update", m.api.UpdateHost(ctx, zabbix.HostUpdate{HostID: o.HostID, Macros: &macros}))

	case SyncWebChecks:
		if len(o.Delete) > 0 {
			if err := m.api.DeleteHTTPTests(ctx, o.Delete); err != nil {
				return remote("httptest.delete", err)
			}
		}
		return m.createWebChecks(ctx, o.HostID, o.Create)

	case UpdateInterface:
		return remote("hostinterface.update", m.api.UpdateInterface(ctx, o.Payload))

	case SetProxy:
		_, err := m.api.UpsertHost(ctx, zabbix.HostUpsert{Host: o.HostName, ProxyHostID: zabbix.Ptr(o.ProxyID)})
		return remote("host.update", err)

	case SetInventoryMode:
		_, err := m.api.UpsertHost(ctx, zabbix.HostUpsert{Host: o.HostName, InventoryMode: zabbix.Ptr(o.Mode)})
		return remote("host.update", err)

	default:
		return fmt.Errorf("unsupported operation %T", op)
	}
}

// createWebChecks issues one create per check, numbering steps from 1.
func (m *Mutator) createWebChecks(ctx context.Context, hostID int, checks []domain.WebCheck) error {
	for _, w := range checks {
		steps := make([]zabbix.HTTPStepCreate, 0, len(w.Steps))
		for i, s := range w.Steps {
			steps = append(steps, zabbix.HTTPStepCreate{
				Name:        s.Name,
				URL:         s.URL,
				StatusCodes: s.StatusCodes,
				No:          i + 1,
			})
		}
		if _, err := m.api.CreateHTTPTest(ctx, zabbix.HTTPTestCreate{HostID: hostID, Name: w.Name, Steps: steps}); err != nil {
			return remote("httptest.create", err)
		}
	}
	return nil
}
