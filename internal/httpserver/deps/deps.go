package deps

import (
	"time"

	"github.com/MrSnakeDoc/hostsync/internal/index"
	"github.com/MrSnakeDoc/hostsync/internal/logger"
	redisstore "github.com/MrSnakeDoc/hostsync/internal/store/redis"
)

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time   // for testing, defaults to time.Now
	AllowedHosts []string           // Host headers allowed to reach the API
	AllowedCIDRS []string           // caller IPs allowed to reach the API
	TrustProxy   bool               // true if running behind a trusted reverse proxy
	DesiredFile  string             // path to the desired hosts file
	Interval     time.Duration      // time between scheduled passes
	Index        *index.MemoryIndex // latest reports
	Store        *redisstore.Store  // nil when redis is disabled
	Trigger      chan<- struct{}    // manual pass trigger, buffered
	RateLimit    *RateLimit         // limits POST /reconcile, nil = defaults
}

// RateLimit tunes the per-IP limiter of the trigger endpoint.
type RateLimit struct {
	Burst        int
	RefillPerMin int
}

// Now returns TimeNow() or time.Now().
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
