// Package shader reads shader source files and renders each one as a C++
// header embedding the shader text in a string constant.
package shader

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// ErrMalformedShader is matched by every MalformedShaderError.
var ErrMalformedShader = errors.New("malformed shader file")

// MalformedShaderError reports a shader file that is empty or not text.
type MalformedShaderError struct {
	Path   string
	Reason string
}

func (e *MalformedShaderError) Error() string {
	return fmt.Sprintf("malformed shader file %s: %s", e.Path, e.Reason)
}

// Is makes errors.Is(err, ErrMalformedShader) work.
func (e *MalformedShaderError) Is(target error) bool {
	return target == ErrMalformedShader
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// SourceFile is one decoded shader file.
type SourceFile struct {
	Path     string
	Basename string
	// Lines holds the text without line terminators.
	Lines []string
	// HasBOM records a leading UTF-8 byte-order mark. The mark is never part
	// of Lines.
	HasBOM bool
}

// Read loads and decodes the shader at path.
func Read(path string) (*SourceFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read shader %s: %w", path, err)
	}
	return Decode(path, data)
}

// Decode splits raw file contents into lines. A leading BOM is stripped and
// recorded; trailing "\n" and "\r" are removed from every line.
func Decode(path string, data []byte) (*SourceFile, error) {
	src := &SourceFile{
		Path:     path,
		Basename: filepath.Base(path),
		HasBOM:   bytes.HasPrefix(data, utf8BOM),
	}

	if !utf8.Valid(data) {
		return nil, &MalformedShaderError{Path: path, Reason: "content is not valid UTF-8"}
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return nil, &MalformedShaderError{Path: path, Reason: "content contains NUL bytes"}
	}

	text, err := unicode.UTF8BOM.NewDecoder().Bytes(data)
	if err != nil {
		return nil, &MalformedShaderError{Path: path, Reason: err.Error()}
	}
	if len(text) == 0 {
		return nil, &MalformedShaderError{Path: path, Reason: "file is empty"}
	}

	lines := strings.Split(string(text), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, "\r")
	}
	src.Lines = lines
	return src, nil
}
