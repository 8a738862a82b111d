// Package output renders user-facing terminal output for relwatch.
package output

import (
	"os"

	"github.com/fatih/color"
)

var (
	// Item statuses
	NewRelease = color.New(color.FgGreen, color.Bold)
	UpToDate   = color.New(color.Faint)
	Failed     = color.New(color.FgRed)
	Skipped    = color.New(color.FgYellow)

	// Message colors
	Success = color.New(color.FgGreen)
	Warning = color.New(color.FgYellow)
	Error   = color.New(color.FgRed)
	Info    = color.New(color.FgCyan)

	// Structural colors
	Header = color.New(color.FgWhite, color.Bold)
	Repo   = color.New(color.FgBlue, color.Bold)
)

// NoColor disables color output
func NoColor() {
	color.NoColor = true
}

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...interface{}) {
	Success.Printf("✓ "+format+"\n", args...)
}

// PrintError prints an error message to stderr
func PrintError(format string, args ...interface{}) {
	Error.Fprintf(os.Stderr, "✗ "+format+"\n", args...)
}

// PrintWarning prints a warning message
func PrintWarning(format string, args ...interface{}) {
	Warning.Printf("⚠ "+format+"\n", args...)
}

// PrintInfo prints an info message
func PrintInfo(format string, args ...interface{}) {
	Info.Printf("→ "+format+"\n", args...)
}

// FormatStatus renders an item status tag with its color.
func FormatStatus(status string) string {
	var c *color.Color
	switch status {
	case "new":
		c = NewRelease
	case "up-to-date":
		c = UpToDate
	case "failed":
		c = Failed
	case "skipped":
		c = Skipped
	default:
		c = color.New(color.Reset)
	}
	return c.Sprintf("[%s]", status)
}
