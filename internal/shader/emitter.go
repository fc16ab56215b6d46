package shader

import (
	"fmt"
	"strings"
)

// PrecisionRule wraps lines equal to Statement in #ifdef GuardSymbol / #endif.
// An empty Statement disables the rule.
type PrecisionRule struct {
	Statement   string
	GuardSymbol string
}

// Options configures an Emitter.
type Options struct {
	Namespace string
	Precision PrecisionRule
	Escape    EscapeOptions
}

// DefaultOptions returns the options used by the BabylonCpp tree.
func DefaultOptions() Options {
	return Options{
		Namespace: "BABYLON",
		Precision: PrecisionRule{
			Statement:   "precision highp float;",
			GuardSymbol: "GL_ES",
		},
		Escape: EscapeOptions{TabWidth: 2, CompactIndent: true},
	}
}

// Unit is the input of one generated header.
type Unit struct {
	Guard    string
	Variable string
	Lines    []string
}

// Emitter renders header units. It holds no per-unit state.
type Emitter struct {
	opts Options
}

// NewEmitter creates an Emitter.
func NewEmitter(opts Options) *Emitter {
	return &Emitter{opts: opts}
}

// Literals returns the escaped contents of every string literal of the
// constant's initializer, in order, without the trailing "\n" escape.
// The precision rule applies to the first and interior lines; the last line
// is never wrapped. A single-line shader is its own last line.
func (e *Emitter) Literals(lines []string) []string {
	out := make([]string, 0, len(lines)+2)
	for i, line := range lines {
		escaped := EscapeLine(line, e.opts.Escape)
		if i < len(lines)-1 && e.isPrecision(line) {
			out = append(out,
				"#ifdef "+e.opts.Precision.GuardSymbol,
				escaped,
				"#endif",
			)
			continue
		}
		out = append(out, escaped)
	}
	return out
}

func (e *Emitter) isPrecision(line string) bool {
	return e.opts.Precision.Statement != "" && line == e.opts.Precision.Statement
}

// Render produces the header text for u.
func (e *Emitter) Render(u Unit) ([]byte, error) {
	if u.Variable == "" {
		return nil, fmt.Errorf("render %s: empty variable name", u.Guard)
	}
	if len(u.Lines) == 0 {
		return nil, fmt.Errorf("render %s: no lines", u.Variable)
	}

	var w strings.Builder
	fmt.Fprintf(&w, "#ifndef %s\n", u.Guard)
	fmt.Fprintf(&w, "#define %s\n\n", u.Guard)
	if e.opts.Namespace != "" {
		fmt.Fprintf(&w, "namespace %s {\n\n", e.opts.Namespace)
	}
	fmt.Fprintf(&w, "extern const char* %s;\n\n", u.Variable)
	fmt.Fprintf(&w, "const char* %s\n", u.Variable)

	literals := e.Literals(u.Lines)
	for i, lit := range literals {
		if i == 0 {
			w.WriteString("  = ")
		} else {
			w.WriteString("    ")
		}
		fmt.Fprintf(&w, "\"%s\\n\"", lit)
		if i == len(literals)-1 {
			w.WriteString(";\n\n")
		} else {
			w.WriteString("\n")
		}
	}

	if e.opts.Namespace != "" {
		fmt.Fprintf(&w, "} // end of namespace %s\n\n", e.opts.Namespace)
	}
	fmt.Fprintf(&w, "#endif // end of %s\n", u.Guard)
	return []byte(w.String()), nil
}

// ExtractLiterals recovers the literal contents from a rendered header, the
// inverse of the initializer layout written by Render.
func ExtractLiterals(header string) []string {
	var out []string
	inInit := false
	for _, line := range strings.Split(header, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "= \"") {
			inInit = true
			trimmed = strings.TrimPrefix(trimmed, "= ")
		}
		if !inInit {
			continue
		}
		end := strings.HasSuffix(trimmed, ";")
		trimmed = strings.TrimSuffix(trimmed, ";")
		trimmed = strings.TrimPrefix(trimmed, "\"")
		trimmed = strings.TrimSuffix(trimmed, "\"")
		out = append(out, strings.TrimSuffix(trimmed, `\n`))
		if end {
			break
		}
	}
	return out
}
