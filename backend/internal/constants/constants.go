package constants

import "time"

// Query defaults
const (
	// DefaultResultLimit is the result size used when a caller omits one
	DefaultResultLimit = 10
)

// Geodesy
const (
	// EarthRadiusMeters matches the radius the graph store uses for WGS-84 distances,
	// so thresholds keep their historical meaning.
	EarthRadiusMeters = 6378140.0
)

// Full-text ranking
const (
	TitleWeight    = 2.0
	AbstractWeight = 1.0

	// FuzzyPenalty scales the contribution of a term matched within one edit
	FuzzyPenalty = 0.5

	// MinFuzzyTokenLength keeps very short tokens from matching half the vocabulary
	MinFuzzyTokenLength = 4
)

// Snapshots
const (
	// SnapshotBuildTimeout bounds one full index rebuild
	SnapshotBuildTimeout = 5 * time.Minute
)

// Store access
const (
	// MaxStoreAttempts is the first try plus one bounded retry
	MaxStoreAttempts = 2

	BreakerName        = "graph-store"
	BreakerMinRequests = 5
	BreakerInterval    = 30 * time.Second
	BreakerOpenTimeout = 15 * time.Second
)
