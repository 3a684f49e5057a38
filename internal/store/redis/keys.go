package redis

import (
	"fmt"
	"strings"
)

const (
	// KeyPrefixReport is the prefix for per-host report keys
	KeyPrefixReport = "hostsync:report:"
	// KeyAllReports is the key for the set of all reported host names
	KeyAllReports = "hostsync:reports:all"
	// KeyLastPass holds the summary of the last pass
	KeyLastPass = "hostsync:pass:last"
	// KeyPassLock guards against two daemons reconciling at once
	KeyPassLock = "hostsync:lock:pass"
)

// ReportKey returns the Redis key for a host report
func ReportKey(name string) string {
	return KeyPrefixReport + name
}

// ExtractHostName extracts the host name from a report key
func ExtractHostName(key string) (string, error) {
	name, ok := strings.CutPrefix(key, KeyPrefixReport)
	if !ok || name == "" {
		return "", fmt.Errorf("invalid report key: %s", key)
	}
	return name, nil
}
