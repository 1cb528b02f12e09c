// Package emoji provides symbol constants for CLI output.
package emoji

// Status symbols shared by all commands.
const (
	// Success marks a committed import or a finished export.
	Success = "✓"

	// Error marks a failed import or a skipped record.
	Error = "✗"

	// Warning marks items that need attention, such as pending review.
	Warning = "!"

	// Info marks informational lines.
	Info = "i"
)
