package desired

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hosts.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}
	return path
}

func TestLoaderLoad(t *testing.T) {
	path := writeFile(t, `---
hosts:
  - name: web01
    interface:
      ip: 10.0.0.1
    groups: [Linux servers]
    templates: [Linux by Zabbix agent]
    macros:
      "{$ENV}": prod
    webChecks:
      - name: home
        steps:
          - name: index
            url: https://web01.example.com/
            statusCodes: "200"
  - name: old01
    ensure: absent
`)

	file, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(file.Hosts) != 2 {
		t.Fatalf("Load() returned %d hosts, want 2", len(file.Hosts))
	}
	if got := file.Hosts[0].WebChecks[0].Steps[0].URL; got != "https://web01.example.com/" {
		t.Errorf("step url = %q", got)
	}
}

func TestLoaderRendersTemplate(t *testing.T) {
	t.Setenv("HOSTSYNC_TEST_SECRET", "s3cr3t")
	path := writeFile(t, `hosts:
  - name: db01
    interface:
      ip: {{ env "HOSTSYNC_TEST_IP" | default "10.0.0.5" }}
    groups: [Databases]
    macros:
      "{$DB_PASSWORD}": {{ env "HOSTSYNC_TEST_SECRET" | quote }}
`)

	file, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	h := file.Hosts[0]
	if h.Interface.IP != "10.0.0.5" {
		t.Errorf("ip = %q, want default", h.Interface.IP)
	}
	if h.Macros["{$DB_PASSWORD}"] != "s3cr3t" {
		t.Errorf("macro = %q", h.Macros["{$DB_PASSWORD}"])
	}
}

func TestLoaderLoadFileNotFound(t *testing.T) {
	_, err := NewLoader("/nonexistent/path/hosts.yaml").Load()
	if err == nil {
		t.Error("Load() with non-existent file should return error")
	}
}

func TestLoaderRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "empty file",
			content: "",
			wantErr: "empty",
		},
		{
			name:    "unknown field",
			content: "hosts:\n  - name: a\n    interface: {ip: 10.0.0.1}\n    groups: [g]\n    hostgroups: [x]\n",
			wantErr: "hostgroups",
		},
		{
			name:    "broken template",
			content: "hosts: {{ .Missing",
			wantErr: "template",
		},
		{
			name:    "duplicate names",
			content: "hosts:\n  - name: a\n    interface: {ip: 10.0.0.1}\n    groups: [g]\n  - name: a\n    interface: {ip: 10.0.0.2}\n    groups: [g]\n",
			wantErr: "duplicates",
		},
		{
			name:    "missing groups",
			content: "hosts:\n  - name: a\n    interface: {ip: 10.0.0.1}\n",
			wantErr: "hosts[0].groups is required",
		},
		{
			name:    "bad ip",
			content: "hosts:\n  - name: a\n    interface: {ip: not-an-ip}\n    groups: [g]\n",
			wantErr: "hosts[0].interface.ip",
		},
		{
			name:    "missing ip with useIP",
			content: "hosts:\n  - name: a\n    groups: [g]\n",
			wantErr: "required when useIP",
		},
		{
			name:    "port out of range",
			content: "hosts:\n  - name: a\n    interface: {ip: 10.0.0.1, port: 70000}\n    groups: [g]\n",
			wantErr: "hosts[0].interface.port must be <= 65535",
		},
		{
			name:    "bad ensure",
			content: "hosts:\n  - name: a\n    ensure: gone\n    interface: {ip: 10.0.0.1}\n    groups: [g]\n",
			wantErr: "must be one of",
		},
		{
			name:    "bad macro key",
			content: "hosts:\n  - name: a\n    interface: {ip: 10.0.0.1}\n    groups: [g]\n    macros: {ENV: prod}\n",
			wantErr: "not a user macro",
		},
		{
			name:    "inventory mode out of range",
			content: "hosts:\n  - name: a\n    interface: {ip: 10.0.0.1}\n    groups: [g]\n    inventoryMode: 3\n",
			wantErr: "inventoryMode",
		},
		{
			name:    "web check without steps",
			content: "hosts:\n  - name: a\n    interface: {ip: 10.0.0.1}\n    groups: [g]\n    webChecks:\n      - name: home\n",
			wantErr: "steps",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(writeFile(t, tt.content)).Load()
			if err == nil {
				t.Fatal("Load() should return an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoaderAcceptsAbsentHostWithoutGroups(t *testing.T) {
	path := writeFile(t, "hosts:\n  - name: old01\n    ensure: absent\n")
	if _, err := NewLoader(path).Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
}

func TestLoaderAcceptsDNSInterface(t *testing.T) {
	path := writeFile(t, "hosts:\n  - name: a\n    interface: {useIP: false}\n    groups: [g]\n")
	if _, err := NewLoader(path).Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
}
