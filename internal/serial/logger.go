package serial

import (
	"io"

	"github.com/charmbracelet/log"
)

// NewLogger returns a structured logger that writes plain text to w,
// usually a Port. Colour is disabled for writers that are not terminals.
// Every kernel component logs through one of these.
func NewLogger(w io.Writer, prefix string) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
		Level:           log.DebugLevel,
	})
}
