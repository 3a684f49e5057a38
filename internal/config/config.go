package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Monitoring server API
	ZabbixURL      string        // frontend URL, api_jsonrpc.php is appended when missing
	ZabbixUser     string        // used with ZabbixPassword when no token is set
	ZabbixPassword string        // optional
	ZabbixToken    string        // API token, preferred over user/password
	ZabbixTimeout  time.Duration // per request (default: 30s)
	ZabbixRPS      float64       // client side request rate limit (0 = unlimited)
	ZabbixInsecure bool          // skip TLS verification (lab servers only)

	// Reconciliation
	DesiredFile   string        // path to the desired hosts yaml
	Interval      time.Duration // time between scheduled passes (default: 10m)
	Watch         bool          // also run a pass when the desired file changes
	WatchDebounce time.Duration // quiet period before a file change triggers a pass
	GroupSync     string        // "replace" | "explicit-remove"
	LockTTL       time.Duration // redis pass lock lifetime, must exceed a pass (default: 10m)
	ReportTTL     time.Duration // how long reports of undeclared hosts are kept (default: 168h)
	GCInterval    time.Duration // interval to run report garbage collection (default: 1h)

	// Redis (optional, empty RedisAddr = in-memory reports only)
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict access to specific IP (e.g. "1.2.3.4, 5.6.7.8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers
}

// RedisEnabled reports whether reports and the pass lock live in redis.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("HOSTSYNC_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("HOSTSYNC_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("HOSTSYNC_LOG_LEVEL", "info"),
		PrettyLog: mustBool("HOSTSYNC_PRETTY_LOG", false),

		// Monitoring server
		ZabbixURL:      requireEnv("HOSTSYNC_ZABBIX_URL"),
		ZabbixUser:     getenv("HOSTSYNC_ZABBIX_USER", ""),
		ZabbixPassword: getenv("HOSTSYNC_ZABBIX_PASSWORD", ""),
		ZabbixToken:    getenv("HOSTSYNC_ZABBIX_TOKEN", ""),
		ZabbixTimeout:  mustDuration("HOSTSYNC_ZABBIX_TIMEOUT", 30*time.Second),
		ZabbixRPS:      getenvFloat("HOSTSYNC_ZABBIX_RPS", 0),
		ZabbixInsecure: mustBool("HOSTSYNC_ZABBIX_INSECURE", false),

		// Reconciliation
		DesiredFile:   getenv("HOSTSYNC_DESIRED_FILE", "/etc/hostsync/hosts.yaml"),
		Interval:      mustDuration("HOSTSYNC_INTERVAL", 10*time.Minute),
		Watch:         mustBool("HOSTSYNC_WATCH", true),
		WatchDebounce: mustDuration("HOSTSYNC_WATCH_DEBOUNCE", 2*time.Second),
		GroupSync:     getenv("HOSTSYNC_GROUP_SYNC", "replace"),
		LockTTL:       mustDuration("HOSTSYNC_LOCK_TTL", 10*time.Minute),
		ReportTTL:     mustDuration("HOSTSYNC_REPORT_TTL", 7*24*time.Hour),
		GCInterval:    mustDuration("HOSTSYNC_GC_INTERVAL", time.Hour),

		// Redis settings
		RedisAddr:             getenv("HOSTSYNC_REDIS_ADDR", ""),
		RedisUser:             getenv("HOSTSYNC_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("HOSTSYNC_REDIS_PASSWORD_REQUIRED", true),
		RedisPassword:         getenv("HOSTSYNC_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("HOSTSYNC_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("HOSTSYNC_ALLOWED_HOSTS", "")),
		AllowedCIDRS: splitAndTrim(getenv("HOSTSYNC_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("HOSTSYNC_TRUST_PROXY", false),
	}

	if err := cfg.validate(); err != nil {
		panic("❌ FATAL: " + err.Error())
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

func (c *Config) validate() error {
	if c.ZabbixToken == "" && c.ZabbixUser == "" {
		return fmt.Errorf("either HOSTSYNC_ZABBIX_TOKEN or HOSTSYNC_ZABBIX_USER must be set")
	}
	switch c.GroupSync {
	case "replace", "explicit-remove":
	default:
		return fmt.Errorf("HOSTSYNC_GROUP_SYNC must be replace or explicit-remove, got %q", c.GroupSync)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("HOSTSYNC_INTERVAL must be positive")
	}
	if c.GCInterval <= 0 {
		return fmt.Errorf("HOSTSYNC_GC_INTERVAL must be positive")
	}
	if c.RedisEnabled() && c.RedisPasswordRequired && c.RedisPassword == "" {
		return fmt.Errorf("HOSTSYNC_REDIS_PASSWORD is required when HOSTSYNC_REDIS_PASSWORD_REQUIRED=true")
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	cp := *c
	if cp.ZabbixPassword != "" {
		cp.ZabbixPassword = "***REDACTED***"
	}
	if cp.ZabbixToken != "" {
		cp.ZabbixToken = "***REDACTED***"
	}
	cp.RedisPassword = "***REDACTED***"
	if cp.RedisUser != "" {
		cp.RedisUser = "***REDACTED***"
	}
	return cp
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			return f
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
