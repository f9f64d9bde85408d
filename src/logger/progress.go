package logger

import (
	"fmt"
	"os"
	"time"

	strftime "github.com/ncruces/go-strftime"
)

// ProgressTimeFormat renders timestamps like 2024-Mar-05-14:02:59.
const ProgressTimeFormat = "%Y-%b-%d-%H:%M:%S"

// ProgressLog appends one line per pipeline milestone to a plain text file.
// Nothing reads the file back; it only records how far a run got.
type ProgressLog struct {
	path string
	now  func() time.Time
}

// NewProgressLog returns a ProgressLog appending to path.
func NewProgressLog(path string) *ProgressLog {
	return &ProgressLog{path: path, now: time.Now}
}

// Path returns the file the log appends to.
func (p *ProgressLog) Path() string {
	return p.path
}

// Log appends "<timestamp> : <message>".
func (p *ProgressLog) Log(message string) error {
	line := FormatProgressLine(p.now(), message)

	f, err := os.OpenFile(p.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open progress log %s: %w", p.path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write progress log %s: %w", p.path, err)
	}
	return nil
}

// FormatProgressLine renders a single progress log line, newline included.
func FormatProgressLine(t time.Time, message string) string {
	return strftime.Format(ProgressTimeFormat, t) + " : " + message + "\n"
}
