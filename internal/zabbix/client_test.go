package zabbix

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/MrSnakeDoc/hostsync/internal/logger"
)

type rpcCall struct {
	Method string
	Params json.RawMessage
	Auth   string
}

// rpcServer answers JSON-RPC requests from a method -> handler table and
// records every call it receives.
type rpcServer struct {
	t        *testing.T
	mu       sync.Mutex
	calls    []rpcCall
	handlers map[string]func(params json.RawMessage, auth string) (any, *APIError)
}

func newRPCServer(t *testing.T) (*rpcServer, *httptest.Server) {
	t.Helper()
	s := &rpcServer{t: t, handlers: map[string]func(json.RawMessage, string) (any, *APIError){}}
	srv := httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(srv.Close)
	return s, srv
}

func (s *rpcServer) on(method string, h func(params json.RawMessage, auth string) (any, *APIError)) {
	s.handlers[method] = h
}

func (s *rpcServer) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api_jsonrpc.php" {
		http.NotFound(w, r)
		return
	}
	if ct := r.Header.Get("Content-Type"); ct != "application/json-rpc" {
		s.t.Errorf("content-type = %q", ct)
	}

	var req struct {
		Method string          `json:"method"`
		Params json.RawMessage `json:"params"`
		ID     int64           `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	auth := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	s.mu.Lock()
	s.calls = append(s.calls, rpcCall{Method: req.Method, Params: req.Params, Auth: auth})
	h, ok := s.handlers[req.Method]
	s.mu.Unlock()

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if !ok {
		resp["error"] = APIError{Code: -32601, Message: "Method not found.", Data: req.Method}
	} else if result, apiErr := h(req.Params, auth); apiErr != nil {
		resp["error"] = apiErr
	} else {
		resp["result"] = result
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *rpcServer) methods() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.calls))
	for _, c := range s.calls {
		out = append(out, c.Method)
	}
	return out
}

func (s *rpcServer) last(method string) rpcCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.calls) - 1; i >= 0; i-- {
		if s.calls[i].Method == method {
			return s.calls[i]
		}
	}
	s.t.Fatalf("no %s call recorded", method)
	return rpcCall{}
}

func newTestClient(t *testing.T, url string, opts Options) *Client {
	t.Helper()
	opts.URL = url
	c, err := New(opts, logger.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"missing url", Options{Token: "x"}, true},
		{"missing credentials", Options{URL: "http://zbx"}, true},
		{"token", Options{URL: "http://zbx", Token: "x"}, false},
		{"user", Options{URL: "http://zbx", User: "Admin"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts, logger.NewNop())
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEndpoint(t *testing.T) {
	tests := []struct{ in, want string }{
		{"http://zbx", "http://zbx/api_jsonrpc.php"},
		{"http://zbx/", "http://zbx/api_jsonrpc.php"},
		{"http://zbx/zabbix/api_jsonrpc.php", "http://zbx/zabbix/api_jsonrpc.php"},
	}
	for _, tt := range tests {
		if got := endpoint(tt.in); got != tt.want {
			t.Errorf("endpoint(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestVersionSendsNoAuth(t *testing.T) {
	s, srv := newRPCServer(t)
	s.on("apiinfo.version", func(json.RawMessage, string) (any, *APIError) { return "6.0.25", nil })

	c := newTestClient(t, srv.URL, Options{Token: "secret"})
	v, err := c.Version(context.Background())
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if v != "6.0.25" {
		t.Fatalf("version = %q", v)
	}
	if auth := s.last("apiinfo.version").Auth; auth != "" {
		t.Fatalf("apiinfo.version must not carry auth, got %q", auth)
	}
}

func TestTokenAuth(t *testing.T) {
	s, srv := newRPCServer(t)
	s.on("hostgroup.get", func(json.RawMessage, string) (any, *APIError) {
		return []map[string]string{{"groupid": "7", "name": "Linux"}}, nil
	})

	c := newTestClient(t, srv.URL, Options{Token: "secret"})
	id, found, err := c.GetGroupID(context.Background(), "Linux")
	if err != nil || !found || id != 7 {
		t.Fatalf("GetGroupID = %d, %v, %v", id, found, err)
	}
	if got := s.last("hostgroup.get").Auth; got != "secret" {
		t.Fatalf("auth = %q, want token", got)
	}
	for _, m := range s.methods() {
		if m == "user.login" {
			t.Fatal("token auth must not log in")
		}
	}
}

func TestLazyLoginAndRelogin(t *testing.T) {
	s, srv := newRPCServer(t)
	var logins atomic.Int32
	s.on("user.login", func(params json.RawMessage, _ string) (any, *APIError) {
		n := logins.Add(1)
		var p map[string]string
		_ = json.Unmarshal(params, &p)
		if p["username"] != "Admin" || p["password"] != "zabbix" {
			return nil, &APIError{Code: -32602, Message: "Invalid params.", Data: "Incorrect user name or password"}
		}
		if n == 1 {
			return "session-1", nil
		}
		return "session-2", nil
	})
	s.on("template.get", func(_ json.RawMessage, auth string) (any, *APIError) {
		if auth == "session-1" {
			return nil, &APIError{Code: -32602, Message: "Invalid params.", Data: "Session terminated, re-login, please."}
		}
		return []map[string]string{{"templateid": "10001", "host": "Linux by Zabbix agent"}}, nil
	})

	c := newTestClient(t, srv.URL, Options{User: "Admin", Password: "zabbix"})
	id, found, err := c.GetTemplateID(context.Background(), "Linux by Zabbix agent")
	if err != nil {
		t.Fatalf("GetTemplateID: %v", err)
	}
	if !found || id != 10001 {
		t.Fatalf("id = %d, found = %v", id, found)
	}
	if n := logins.Load(); n != 2 {
		t.Fatalf("logins = %d, want 2", n)
	}
	want := []string{"user.login", "template.get", "user.login", "template.get"}
	if got := s.methods(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", got, want)
	}
}

func TestAPIErrorIsReturned(t *testing.T) {
	s, srv := newRPCServer(t)
	s.on("host.delete", func(json.RawMessage, string) (any, *APIError) {
		return nil, &APIError{Code: -32500, Message: "Application error.", Data: "No permissions"}
	})

	c := newTestClient(t, srv.URL, Options{Token: "x"})
	err := c.DeleteHosts(context.Background(), 42)
	if err == nil {
		t.Fatal("expected error")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("err = %T, want *APIError", err)
	}
	if apiErr.Code != -32500 || !strings.Contains(apiErr.Error(), "No permissions") {
		t.Fatalf("unexpected error %v", apiErr)
	}
}

func TestHTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, Options{Token: "x"})
	_, err := c.GetHosts(context.Background())
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("err = %v, want http 503", err)
	}
}

func TestGetHostsDecodesStringIDs(t *testing.T) {
	s, srv := newRPCServer(t)
	s.on("host.get", func(json.RawMessage, string) (any, *APIError) {
		return json.RawMessage(`[{
			"hostid": "10084",
			"host": "web01",
			"proxy_hostid": "0",
			"inventory_mode": "-1",
			"interfaces": [{"interfaceid": "3", "type": "1", "main": "1", "ip": "10.0.0.1", "dns": "", "port": "10050", "useip": "1"}],
			"groups": [{"groupid": "2", "name": "Linux servers"}],
			"parentTemplates": [{"templateid": "10001", "host": "Linux by Zabbix agent"}],
			"macros": [{"macro": "{$ENV}", "value": "prod"}],
			"httpTests": [{"httptestid": "5"}]
		}]`), nil
	})

	c := newTestClient(t, srv.URL, Options{Token: "x"})
	hosts, err := c.GetHosts(context.Background())
	if err != nil {
		t.Fatalf("GetHosts: %v", err)
	}
	if len(hosts) != 1 {
		t.Fatalf("len = %d", len(hosts))
	}
	h := hosts[0]
	if h.HostID != 10084 || h.InventoryMode != -1 || h.Interfaces[0].InterfaceID != 3 || h.Interfaces[0].UseIP != 1 {
		t.Fatalf("unexpected host %+v", h)
	}
	if h.HTTPTests[0].HTTPTestID != 5 || h.ParentTemplates[0].TemplateID != 10001 {
		t.Fatalf("unexpected nested ids %+v", h)
	}

	var params map[string]any
	_ = json.Unmarshal(s.last("host.get").Params, &params)
	for _, key := range []string{"selectParentTemplates", "selectInterfaces", "selectGroups", "selectMacros", "selectHttpTests"} {
		if _, ok := params[key]; !ok {
			t.Errorf("host.get params missing %s", key)
		}
	}
}

func TestGetHTTPTestsSortsSteps(t *testing.T) {
	s, srv := newRPCServer(t)
	s.on("httptest.get", func(json.RawMessage, string) (any, *APIError) {
		return json.RawMessage(`[{"httptestid": "5", "name": "home", "steps": [
			{"name": "second", "url": "http://b", "status_codes": "200", "no": "2"},
			{"name": "first", "url": "http://a", "status_codes": "200", "no": "1"}
		]}]`), nil
	})

	c := newTestClient(t, srv.URL, Options{Token: "x"})
	tests, err := c.GetHTTPTests(context.Background(), HTTPTestQuery{HTTPTestIDs: []int{5}})
	if err != nil {
		t.Fatalf("GetHTTPTests: %v", err)
	}
	if tests[0].Steps[0].Name != "first" || tests[0].Steps[1].Name != "second" {
		t.Fatalf("steps not sorted: %+v", tests[0].Steps)
	}

	var params map[string]any
	_ = json.Unmarshal(s.last("httptest.get").Params, &params)
	if _, ok := params["hostids"]; ok {
		t.Error("hostids must be omitted when empty")
	}
}

func TestUpsertHost(t *testing.T) {
	t.Run("updates existing host", func(t *testing.T) {
		s, srv := newRPCServer(t)
		s.on("host.get", func(json.RawMessage, string) (any, *APIError) {
			return []map[string]string{{"hostid": "10084"}}, nil
		})
		s.on("host.update", func(json.RawMessage, string) (any, *APIError) {
			return map[string][]string{"hostids": {"10084"}}, nil
		})

		c := newTestClient(t, srv.URL, Options{Token: "x"})
		id, err := c.UpsertHost(context.Background(), HostUpsert{Host: "web01", InventoryMode: Ptr(1)})
		if err != nil || id != 10084 {
			t.Fatalf("UpsertHost = %d, %v", id, err)
		}

		var params map[string]any
		_ = json.Unmarshal(s.last("host.update").Params, &params)
		if params["hostid"] != float64(10084) || params["inventory_mode"] != float64(1) {
			t.Fatalf("host.update params = %v", params)
		}
		if _, ok := params["groups"]; ok {
			t.Error("nil groups must not be sent")
		}
	})

	t.Run("creates missing host", func(t *testing.T) {
		s, srv := newRPCServer(t)
		s.on("host.get", func(json.RawMessage, string) (any, *APIError) { return []any{}, nil })
		s.on("host.create", func(json.RawMessage, string) (any, *APIError) {
			return map[string][]string{"hostids": {"10200"}}, nil
		})

		c := newTestClient(t, srv.URL, Options{Token: "x"})
		id, err := c.UpsertHost(context.Background(), HostUpsert{Host: "web02"})
		if err != nil || id != 10200 {
			t.Fatalf("UpsertHost = %d, %v", id, err)
		}
	})
}

func TestUpdateInterfaceSendsOnlySetFields(t *testing.T) {
	s, srv := newRPCServer(t)
	s.on("hostinterface.update", func(json.RawMessage, string) (any, *APIError) {
		return map[string][]string{"interfaceids": {"3"}}, nil
	})

	c := newTestClient(t, srv.URL, Options{Token: "x"})
	if err := c.UpdateInterface(context.Background(), InterfaceUpdate{InterfaceID: 3, Port: Ptr("10051")}); err != nil {
		t.Fatalf("UpdateInterface: %v", err)
	}

	var params map[string]any
	_ = json.Unmarshal(s.last("hostinterface.update").Params, &params)
	if len(params) != 2 || params["port"] != "10051" {
		t.Fatalf("params = %v, want interfaceid and port only", params)
	}
}
