// Package constants provides shared constants for CLI commands.
package constants

// Output format names accepted by --format.
const (
	// FormatTable is the default table output format.
	FormatTable = "table"

	// FormatWide is a table with the per-record outcome columns.
	FormatWide = "wide"

	// FormatJSON outputs data as JSON.
	FormatJSON = "json"

	// FormatYAML outputs data as YAML.
	FormatYAML = "yaml"
)

// Review modes accepted by import --review.
const (
	// ReviewPrompt asks about each near-duplicate on a terminal.
	ReviewPrompt = "prompt"

	// ReviewAbort abandons the import when anything needs review.
	ReviewAbort = "abort"

	// ReviewConfirmAll merges every near-duplicate into its match.
	ReviewConfirmAll = "confirm-all"

	// ReviewRejectAll imports every near-duplicate as a new entity.
	ReviewRejectAll = "reject-all"
)

// ReviewModes lists the review modes in help order.
var ReviewModes = []string{ReviewPrompt, ReviewAbort, ReviewConfirmAll, ReviewRejectAll}
