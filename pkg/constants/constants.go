// Package constants provides shared constants used throughout the argmap codebase.
// This includes reconciliation defaults, limits, file permissions, and other
// values that should be consistent across the engine and the CLI.
package constants

import "time"

// Reconciliation defaults
const (
	// DefaultSimilarityThreshold is the minimum similarity ratio at which an
	// incoming record is treated as a near-duplicate of an existing entity.
	DefaultSimilarityThreshold = 0.90

	// DefaultCandidateCap bounds how many existing entities are scored
	// against one incoming record after length pruning.
	DefaultCandidateCap = 500

	// ReviewPageSize is the number of review items shown per page.
	ReviewPageSize = 50

	// FingerprintLength is the number of hex characters in a fingerprint.
	FingerprintLength = 16

	// DefaultFingerprintTTL is how long memoized fingerprints are kept.
	DefaultFingerprintTTL = 10 * time.Minute
)

// Snapshot format constants
const (
	// SchemaVersion is the snapshot schema version produced and accepted.
	SchemaVersion = "1.0"

	// AppName identifies argmap in exported snapshots.
	AppName = "argmap"

	// MaxSnapshotBytes bounds how much of a remote snapshot is read.
	MaxSnapshotBytes = 64 << 20
)

// Timeout constants
const (
	// DefaultHTTPTimeout is the timeout for fetching a remote snapshot
	DefaultHTTPTimeout = 30 * time.Second

	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 10 * time.Minute
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)
