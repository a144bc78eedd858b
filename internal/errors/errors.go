package errors

import (
	"fmt"
	"os"

	"github.com/julianstephens/dcalt/internal/logger"
)

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// FormatWarning formats a non-fatal condition the user should see, such as a
// day total that could not be recomputed.
func FormatWarning(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Warning: %v", err)
}

// FormatNotice formats an informational outcome, such as a removal that
// matched nothing.
func FormatNotice(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Notice: %v", err)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}
