package params

import "time"

const (
	ServerBodyLimit    = 1048576 // 1 MiB
	ServerIdleTimeout  = 30 * time.Second
	ServerReadTimeout  = 10 * time.Second
	ServerWriteTimeout = 10 * time.Second

	HealthCheckServerAddr = ":3001" // health check server address

	SessionTokenBytes = 32 // session tokens and api keys are hex(32 random bytes) = 64 chars
	CSRFTokenBytes    = 32

	MaxAuditPageSize     = 200 // hard cap on audit log page size
	DefaultAuditPageSize = 50
	MaxSummaryWindowDays = 365 // hard cap on the summary trailing window
	DefaultSummaryDays   = 30
	MinAuditCleanupDays  = 30 // retention purge refuses shorter cutoffs
	DefaultCleanupDays   = 90

	RegisterTokenExpiration = 24 * time.Hour // e-mail verification link lifetime

	GeoIPCacheTTL      = time.Hour // cached ip lookups expire after this
	GeoIPLookupTimeout = 3 * time.Second
)

// Default idle timeouts per role, applied when the config omits them.
const (
	DefaultUsuarioIdleTimeout       = 2 * time.Hour
	DefaultAdministradorIdleTimeout = 8 * time.Hour
	DefaultSuperusuarioIdleTimeout  = 7 * 24 * time.Hour
)

const Version = "1.19.0"

func VersionWithCommit(commit, date string) string {
	version := Version
	if len(commit) >= 8 {
		version += "-" + commit[:8]
	}
	if date != "" {
		version += "-" + date
	}
	return version
}
