// Package auditlog appends human-readable refinement trails to disk:
// one text file per session plus a shared startup log. Files are plain
// UTF-8, append-only, and never rewritten.
package auditlog

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const defaultDir = "audit_trails"

// Logger appends entries under a single directory, creating it on
// demand before every write.
type Logger struct {
	dir string
}

func New(dir string) *Logger {
	if dir == "" {
		dir = defaultDir
	}
	return &Logger{dir: dir}
}

// Dir returns the directory the logger writes under.
func (l *Logger) Dir() string { return l.dir }

func (l *Logger) appendFile(name string, write func(f *os.File) error) error {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(l.dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// AppendLoop records one refinement pass. Document content is written
// verbatim with no escaping, so a document containing the section
// labels can muddy readability but never breaks the writer.
func (l *Logger) AppendLoop(filename string, iteration int, document, critique, revision, evaluation string) error {
	return l.appendFile(filename, func(f *os.File) error {
		_, err := fmt.Fprintf(f,
			"Loop %d\nInput Document:\n%s\n\nCritique:\n%s\n\nRevision:\n%s\n\nStopping evaluation: %s\n\n",
			iteration, document, critique, revision, evaluation)
		return err
	})
}

// AppendSummary closes out a session's trail with the loop count and
// the stopping reason, if one was recorded.
func (l *Logger) AppendSummary(filename string, totalLoops int, reason string) error {
	return l.appendFile(filename, func(f *os.File) error {
		if _, err := fmt.Fprintf(f, "---\nTotal loops completed: %d\n", totalLoops); err != nil {
			return err
		}
		if reason != "" {
			if _, err := fmt.Fprintf(f, "Stopping reason: %s\n", reason); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintln(f)
		return err
	})
}

// Startup appends a timestamped line to startup.log.
func (l *Logger) Startup(level, message string) error {
	ts := time.Now().Format("2006-01-02 15:04:05")
	return l.appendFile("startup.log", func(f *os.File) error {
		_, err := fmt.Fprintf(f, "%s [%s] %s\n", ts, level, message)
		return err
	})
}
