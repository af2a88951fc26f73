// Package emoji provides symbol constants for CLI output.
package emoji

// Symbols used for status lines in terminal output.
const (
	// Success marks a completed step: a confirmed session, a stopped server.
	Success = "✓"

	// Error marks a failed step.
	Error = "✗"

	// Stop marks a shutdown in progress.
	Stop = "✗"

	// Warning marks something the user should look at, such as dropped choices.
	Warning = "!"
)
