package config

import (
	"os"
	"testing"
	"time"
)

func TestRequireEnv(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		value     string
		shouldSet bool
		wantPanic bool
	}{
		{
			name:      "variable set",
			key:       "TEST_VAR",
			value:     "test_value",
			shouldSet: true,
			wantPanic: false,
		},
		{
			name:      "variable not set",
			key:       "TEST_VAR_MISSING",
			shouldSet: false,
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requireEnv() should have panicked")
					}
				}()
			}

			result := requireEnv(tt.key)
			if !tt.wantPanic && result != tt.value {
				t.Errorf("requireEnv() = %v, want %v", result, tt.value)
			}
		})
	}
}

func TestGetenvFloat(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      float64
		expected float64
	}{
		{
			name:     "valid float",
			key:      "TEST_FLOAT",
			value:    "2.5",
			def:      0,
			expected: 2.5,
		},
		{
			name:     "invalid float uses default",
			key:      "TEST_FLOAT_INVALID",
			value:    "fast",
			def:      1,
			expected: 1,
		},
		{
			name:     "negative float uses default",
			key:      "TEST_FLOAT_NEGATIVE",
			value:    "-3",
			def:      0,
			expected: 0,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_FLOAT_MISSING",
			value:    "",
			def:      4,
			expected: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			result := getenvFloat(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("getenvFloat() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected []string
	}{
		{
			name:     "empty string",
			value:    "",
			expected: nil,
		},
		{
			name:     "single value",
			value:    "10.0.0.0/8",
			expected: []string{"10.0.0.0/8"},
		},
		{
			name:     "multiple values with spaces and quotes",
			value:    `"hostsync.local", 'ops.local' ,  , 127.0.0.1`,
			expected: []string{"hostsync.local", "ops.local", "127.0.0.1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := splitAndTrim(tt.value)
			if len(result) != len(tt.expected) {
				t.Fatalf("splitAndTrim() length = %v, want %v", len(result), len(tt.expected))
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("splitAndTrim()[%d] = %v, want %v", i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("HOSTSYNC_ZABBIX_URL", "https://zabbix.example.com")
	t.Setenv("HOSTSYNC_ZABBIX_TOKEN", "tok")
	t.Setenv("HOSTSYNC_INTERVAL", "90s")
	t.Setenv("HOSTSYNC_ALLOWED_CIDRS", "10.0.0.0/8, 192.168.0.0/16")

	cfg := Load()

	if cfg.Interval != 90*time.Second {
		t.Errorf("Interval = %v, want 90s", cfg.Interval)
	}
	if cfg.GroupSync != "replace" {
		t.Errorf("GroupSync = %q, want replace", cfg.GroupSync)
	}
	if cfg.RedisEnabled() {
		t.Error("redis should be disabled without HOSTSYNC_REDIS_ADDR")
	}
	if len(cfg.AllowedCIDRS) != 2 {
		t.Errorf("AllowedCIDRS = %v", cfg.AllowedCIDRS)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "no credentials",
			env:  map[string]string{},
		},
		{
			name: "unknown group sync",
			env: map[string]string{
				"HOSTSYNC_ZABBIX_TOKEN": "tok",
				"HOSTSYNC_GROUP_SYNC":   "merge",
			},
		},
		{
			name: "redis without password",
			env: map[string]string{
				"HOSTSYNC_ZABBIX_USER": "Admin",
				"HOSTSYNC_REDIS_ADDR":  "localhost:6379",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOSTSYNC_ZABBIX_URL", "https://zabbix.example.com")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			defer func() {
				if r := recover(); r == nil {
					t.Errorf("Load() should have panicked")
				}
			}()
			Load()
		})
	}
}

func TestRedacted(t *testing.T) {
	cfg := &Config{
		ZabbixPassword: "zbx",
		ZabbixToken:    "tok",
		RedisPassword:  "pw",
		RedisUser:      "default",
	}
	r := cfg.Redacted()
	for _, v := range []string{r.ZabbixPassword, r.ZabbixToken, r.RedisPassword, r.RedisUser} {
		if v != "***REDACTED***" {
			t.Errorf("secret leaked: %q", v)
		}
	}
	if cfg.ZabbixToken != "tok" {
		t.Error("Redacted() must not modify the receiver")
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{
			name:     "valid duration",
			key:      "TEST_DURATION",
			value:    "5s",
			def:      1 * time.Second,
			expected: 5 * time.Second,
		},
		{
			name:     "invalid duration uses default",
			key:      "TEST_DURATION_INVALID",
			value:    "invalid",
			def:      10 * time.Second,
			expected: 10 * time.Second,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_DURATION_MISSING",
			value:    "",
			def:      15 * time.Second,
			expected: 15 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			result := mustDuration(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      bool
		expected bool
	}{
		{
			name:     "true value",
			key:      "TEST_BOOL",
			value:    "true",
			def:      false,
			expected: true,
		},
		{
			name:     "false value",
			key:      "TEST_BOOL_FALSE",
			value:    "false",
			def:      true,
			expected: false,
		},
		{
			name:     "invalid value uses default",
			key:      "TEST_BOOL_INVALID",
			value:    "invalid",
			def:      true,
			expected: true,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_BOOL_MISSING",
			value:    "",
			def:      false,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			result := mustBool(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustBool() = %v, want %v", result, tt.expected)
			}
		})
	}
}
