// Package zabbixtest provides an in-memory monitoring server for tests.
//
// Server implements the same typed methods as zabbix.Client, keeps a journal
// of every call and can be told to fail specific methods.
package zabbixtest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/MrSnakeDoc/hostsync/internal/zabbix"
)

// Call is one journal entry. Params holds the typed argument as received.
type Call struct {
	Method string
	Params any
}

type host struct {
	id            int
	name          string
	proxyID       int
	inventoryMode int
	ifaces        []zabbix.HostInterface
	groupIDs      []int
	templateIDs   []int
	macros        []zabbix.Macro
}

type httpTest struct {
	id     int
	hostID int
	name   string
	steps  []zabbix.HTTPStep
}

type Server struct {
	mu sync.Mutex

	nextID    int
	hosts     map[int]*host
	groups    map[int]string
	templates map[int]string
	proxies   map[int]string
	httpTests map[int]*httpTest

	calls    []Call
	failures map[string]error
}

func New() *Server {
	return &Server{
		nextID:    100,
		hosts:     map[int]*host{},
		groups:    map[int]string{},
		templates: map[int]string{},
		proxies:   map[int]string{},
		httpTests: map[int]*httpTest{},
		failures:  map[string]error{},
	}
}

// ─────────────────────────────
// Seeding and inspection
// ─────────────────────────────

// AddGroup seeds a host group and returns its id. Not journaled.
func (s *Server) AddGroup(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.groups[id] = name
	return id
}

// AddTemplate seeds a template and returns its id. Not journaled.
func (s *Server) AddTemplate(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.templates[id] = name
	return id
}

// AddProxy seeds a proxy and returns its id. Not journaled.
func (s *Server) AddProxy(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.proxies[id] = name
	return id
}

// AddRawHost seeds a host with arbitrary interfaces, including malformed
// ones the fetcher must skip. Not journaled.
func (s *Server) AddRawHost(name string, ifaces ...zabbix.HostInterface) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.hosts[id] = &host{id: id, name: name, inventoryMode: -1, ifaces: slices.Clone(ifaces)}
	return id
}

// FailOn makes every later call to method return err. A nil err clears it.
func (s *Server) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, method)
		return
	}
	s.failures[method] = err
}

// Calls returns a copy of the journal.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

// Methods returns the journaled method names in call order.
func (s *Server) Methods() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.calls))
	for _, c := range s.calls {
		out = append(out, c.Method)
	}
	return out
}

// CallsTo returns the journal entries for one method.
func (s *Server) CallsTo(method string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Call
	for _, c := range s.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Mutations returns the journaled write methods, in order.
func (s *Server) Mutations() []string {
	var out []string
	for _, m := range s.Methods() {
		if !strings.HasSuffix(m, ".get") {
			out = append(out, m)
		}
	}
	return out
}

// ResetCalls clears the journal, keeping state.
func (s *Server) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// HostNames lists the stored host names, sorted.
func (s *Server) HostNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.hosts))
	for _, h := range s.hosts {
		names = append(names, h.name)
	}
	sort.Strings(names)
	return names
}

// GroupNames lists the stored host group names, sorted.
func (s *Server) GroupNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.groups))
	for _, n := range s.groups {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ─────────────────────────────
// Reads
// ─────────────────────────────

func (s *Server) GetHosts(_ context.Context) ([]zabbix.Host, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("host.get", nil); err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(s.hosts))
	for id := range s.hosts {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]zabbix.Host, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.snapshot(s.hosts[id]))
	}
	return out, nil
}

func (s *Server) GetHostID(_ context.Context, name string) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("host.get", name); err != nil {
		return 0, false, err
	}
	if h := s.hostByName(name); h != nil {
		return h.id, true, nil
	}
	return 0, false, nil
}

func (s *Server) GetLinkedTemplateIDs(_ context.Context, hostID int) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("host.get", hostID); err != nil {
		return nil, err
	}
	h, ok := s.hosts[hostID]
	if !ok {
		return nil, fmt.Errorf("host %d not found", hostID)
	}
	return slices.Clone(h.templateIDs), nil
}

func (s *Server) GetHTTPTests(_ context.Context, q zabbix.HTTPTestQuery) ([]zabbix.HTTPTest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("httptest.get", q); err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(s.httpTests))
	for id, t := range s.httpTests {
		if len(q.HostIDs) > 0 && !slices.Contains(q.HostIDs, t.hostID) {
			continue
		}
		if len(q.HTTPTestIDs) > 0 && !slices.Contains(q.HTTPTestIDs, id) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]zabbix.HTTPTest, 0, len(ids))
	for _, id := range ids {
		t := s.httpTests[id]
		out = append(out, zabbix.HTTPTest{HTTPTestID: t.id, Name: t.name, Steps: slices.Clone(t.steps)})
	}
	return out, nil
}

func (s *Server) GetGroupID(_ context.Context, name string) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("hostgroup.get", name); err != nil {
		return 0, false, err
	}
	id, ok := lookup(s.groups, name)
	return id, ok, nil
}

func (s *Server) GetTemplateID(_ context.Context, name string) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("template.get", name); err != nil {
		return 0, false, err
	}
	id, ok := lookup(s.templates, name)
	return id, ok, nil
}

func (s *Server) GetProxyID(_ context.Context, name string) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("proxy.get", name); err != nil {
		return 0, false, err
	}
	id, ok := lookup(s.proxies, name)
	return id, ok, nil
}

func (s *Server) ListProxies(_ context.Context) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("proxy.get", nil); err != nil {
		return nil, err
	}
	out := make(map[string]int, len(s.proxies))
	for id, name := range s.proxies {
		out[name] = id
	}
	return out, nil
}

// ─────────────────────────────
// Writes
// ─────────────────────────────

func (s *Server) CreateGroup(_ context.Context, name string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("hostgroup.create", name); err != nil {
		return 0, err
	}
	if _, ok := lookup(s.groups, name); ok {
		return 0, fmt.Errorf("host group %q already exists", name)
	}
	id := s.id()
	s.groups[id] = name
	return id, nil
}

func (s *Server) CreateHost(_ context.Context, c zabbix.HostCreate) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("host.create", c); err != nil {
		return 0, err
	}
	if s.hostByName(c.Host) != nil {
		return 0, fmt.Errorf("host with the same name %q already exists", c.Host)
	}
	if len(c.Interfaces) == 0 {
		return 0, errors.New("no interfaces")
	}
	if len(c.Groups) == 0 {
		return 0, errors.New("host must have at least one group")
	}

	id := s.id()
	in := c.Interfaces[0]
	h := &host{
		id:            id,
		name:          c.Host,
		inventoryMode: c.InventoryMode,
		ifaces: []zabbix.HostInterface{{
			InterfaceID: s.id(),
			Type:        in.Type,
			Main:        in.Main,
			IP:          in.IP,
			DNS:         in.DNS,
			Port:        in.Port,
			UseIP:       in.UseIP,
		}},
		macros: slices.Clone(c.Macros),
	}
	if c.ProxyHostID != nil {
		h.proxyID = *c.ProxyHostID
	}
	for _, g := range c.Groups {
		h.groupIDs = append(h.groupIDs, g.GroupID)
	}
	for _, t := range c.Templates {
		h.templateIDs = append(h.templateIDs, t.TemplateID)
	}
	s.hosts[id] = h
	return id, nil
}

func (s *Server) UpdateHost(_ context.Context, u zabbix.HostUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("host.update", u); err != nil {
		return err
	}
	h, ok := s.hosts[u.HostID]
	if !ok {
		return fmt.Errorf("host %d not found", u.HostID)
	}
	if u.TemplatesClear != nil {
		for _, t := range *u.TemplatesClear {
			h.templateIDs = slices.DeleteFunc(h.templateIDs, func(id int) bool { return id == t.TemplateID })
		}
	}
	if u.Templates != nil {
		for _, t := range *u.Templates {
			if !slices.Contains(h.templateIDs, t.TemplateID) {
				h.templateIDs = append(h.templateIDs, t.TemplateID)
			}
		}
	}
	if u.Macros != nil {
		h.macros = slices.Clone(*u.Macros)
	}
	return nil
}

func (s *Server) UpsertHost(_ context.Context, u zabbix.HostUpsert) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("host.update", u); err != nil {
		return 0, err
	}
	h := s.hostByName(u.Host)
	if h == nil {
		return 0, fmt.Errorf("host %q not found", u.Host)
	}
	if u.Groups != nil {
		h.groupIDs = h.groupIDs[:0]
		for _, g := range *u.Groups {
			h.groupIDs = append(h.groupIDs, g.GroupID)
		}
	}
	if u.ProxyHostID != nil {
		h.proxyID = *u.ProxyHostID
	}
	if u.InventoryMode != nil {
		h.inventoryMode = *u.InventoryMode
	}
	return h.id, nil
}

func (s *Server) DeleteHosts(_ context.Context, ids ...int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("host.delete", ids); err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := s.hosts[id]; !ok {
			return fmt.Errorf("host %d not found", id)
		}
	}
	for _, id := range ids {
		delete(s.hosts, id)
		for tid, t := range s.httpTests {
			if t.hostID == id {
				delete(s.httpTests, tid)
			}
		}
	}
	return nil
}

func (s *Server) RemoveHostGroups(_ context.Context, hostID int, groupIDs []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("host.massremove", groupIDs); err != nil {
		return err
	}
	h, ok := s.hosts[hostID]
	if !ok {
		return fmt.Errorf("host %d not found", hostID)
	}
	h.groupIDs = slices.DeleteFunc(h.groupIDs, func(id int) bool { return slices.Contains(groupIDs, id) })
	return nil
}

func (s *Server) UpdateInterface(_ context.Context, u zabbix.InterfaceUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("hostinterface.update", u); err != nil {
		return err
	}
	for _, h := range s.hosts {
		for i := range h.ifaces {
			iface := &h.ifaces[i]
			if iface.InterfaceID != u.InterfaceID {
				continue
			}
			if u.IP != nil {
				iface.IP = *u.IP
			}
			if u.UseIP != nil {
				iface.UseIP = *u.UseIP
			}
			if u.DNS != nil {
				iface.DNS = *u.DNS
			}
			if u.Port != nil {
				iface.Port = *u.Port
			}
			if u.Type != nil {
				iface.Type = *u.Type
			}
			return nil
		}
	}
	return fmt.Errorf("interface %d not found", u.InterfaceID)
}

func (s *Server) CreateHTTPTest(_ context.Context, t zabbix.HTTPTestCreate) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("httptest.create", t); err != nil {
		return 0, err
	}
	if _, ok := s.hosts[t.HostID]; !ok {
		return 0, fmt.Errorf("host %d not found", t.HostID)
	}
	for _, existing := range s.httpTests {
		if existing.hostID == t.HostID && existing.name == t.Name {
			return 0, fmt.Errorf("web scenario %q already exists", t.Name)
		}
	}

	id := s.id()
	steps := make([]zabbix.HTTPStep, 0, len(t.Steps))
	for _, st := range t.Steps {
		steps = append(steps, zabbix.HTTPStep{Name: st.Name, URL: st.URL, StatusCodes: st.StatusCodes, No: st.No})
	}
	sort.SliceStable(steps, func(a, b int) bool { return steps[a].No < steps[b].No })
	s.httpTests[id] = &httpTest{id: id, hostID: t.HostID, name: t.Name, steps: steps}
	return id, nil
}

func (s *Server) DeleteHTTPTests(_ context.Context, ids []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("httptest.delete", slices.Clone(ids)); err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := s.httpTests[id]; !ok {
			return fmt.Errorf("web scenario %d not found", id)
		}
	}
	for _, id := range ids {
		delete(s.httpTests, id)
	}
	return nil
}

// ─────────────────────────────
// Internals (callers hold mu)
// ─────────────────────────────

func (s *Server) id() int {
	s.nextID++
	return s.nextID
}

func (s *Server) record(method string, params any) error {
	s.calls = append(s.calls, Call{Method: method, Params: params})
	return s.failures[method]
}

func (s *Server) hostByName(name string) *host {
	for _, h := range s.hosts {
		if h.name == name {
			return h
		}
	}
	return nil
}

func (s *Server) snapshot(h *host) zabbix.Host {
	out := zabbix.Host{
		HostID:        h.id,
		Host:          h.name,
		ProxyHostID:   h.proxyID,
		InventoryMode: h.inventoryMode,
		Interfaces:    slices.Clone(h.ifaces),
		Macros:        slices.Clone(h.macros),
	}
	for _, id := range h.groupIDs {
		out.Groups = append(out.Groups, zabbix.HostGroup{GroupID: id, Name: s.groups[id]})
	}
	for _, id := range h.templateIDs {
		out.ParentTemplates = append(out.ParentTemplates, zabbix.Template{TemplateID: id, Host: s.templates[id]})
	}

	testIDs := make([]int, 0)
	for id, t := range s.httpTests {
		if t.hostID == h.id {
			testIDs = append(testIDs, id)
		}
	}
	sort.Ints(testIDs)
	for _, id := range testIDs {
		out.HTTPTests = append(out.HTTPTests, zabbix.HTTPTestRef{HTTPTestID: id})
	}
	return out
}

func lookup(table map[int]string, name string) (int, bool) {
	for id, n := range table {
		if n == name {
			return id, true
		}
	}
	return 0, false
}
