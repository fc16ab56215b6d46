package generate

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/text/encoding/unicode"
)

// WriteStatus is the outcome of writing one generated file.
type WriteStatus int

const (
	StatusWritten   WriteStatus = iota // content changed or file was new
	StatusUnchanged                    // on-disk bytes already matched
	StatusPlanned                      // dry run: would have been written
)

func (s WriteStatus) String() string {
	switch s {
	case StatusWritten:
		return "written"
	case StatusUnchanged:
		return "unchanged"
	case StatusPlanned:
		return "planned"
	default:
		return "unknown"
	}
}

// Sink receives rendered files.
type Sink interface {
	Write(path string, content []byte) (WriteStatus, error)
}

// FileSink writes files to disk, creating directories as needed. Files whose
// bytes already match are left untouched so their mtimes stay stable.
type FileSink struct {
	// BOM prefixes every written file with a UTF-8 byte-order mark.
	BOM bool
	// DryRun reports what would be written without touching the disk.
	DryRun bool
}

// Write implements Sink.
func (s *FileSink) Write(path string, content []byte) (WriteStatus, error) {
	encoded, err := Encode(content, s.BOM)
	if err != nil {
		return 0, fmt.Errorf("failed to encode %s: %w", path, err)
	}

	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		if bytes.Equal(existing, encoded) {
			return StatusUnchanged, nil
		}
	case !os.IsNotExist(err):
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if s.DryRun {
		return StatusPlanned, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, encoded, 0644); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return StatusWritten, nil
}

// Encode converts rendered text into the on-disk byte form.
func Encode(content []byte, bom bool) ([]byte, error) {
	if !bom {
		return content, nil
	}
	return unicode.UTF8BOM.NewEncoder().Bytes(content)
}

// Decode strips a leading byte-order mark from on-disk bytes.
func Decode(data []byte) ([]byte, error) {
	return unicode.UTF8BOM.NewDecoder().Bytes(data)
}
