// Package registry renders the aggregate shader store: a C++ class with a
// static map from registry key to embedded shader constant, emitted as a
// header/source pair.
package registry

import (
	"fmt"
	"strings"
)

// maxEntryWidth is the line width above which a map entry is split.
const maxEntryWidth = 80

// Entry is one (key, symbol) pair plus the per-file header declaring symbol.
type Entry struct {
	Key     string
	Symbol  string
	Include string // path inside #include <...>
}

// Store describes one generated registry class.
type Store struct {
	ClassName     string
	FileBase      string
	GuardPrefix   string
	Namespace     string
	ExportMacro   string
	GlobalInclude string
	MapType       string
	MemberName    string
	// IncludeDir is the directory used when the source includes its own
	// header, e.g. "babylon/materials".
	IncludeDir string
}

// HeaderFilename is the generated declaration header name.
func (s Store) HeaderFilename() string { return s.FileBase + ".h" }

// SourceFilename is the generated definition source name.
func (s Store) SourceFilename() string { return s.FileBase + ".cpp" }

// Guard is the include guard of the declaration header.
func (s Store) Guard() string {
	guard := strings.ToUpper(s.FileBase) + "_H"
	if s.GuardPrefix == "" {
		return guard
	}
	return s.GuardPrefix + "_" + guard
}

func (s Store) headerInclude() string {
	if s.IncludeDir == "" {
		return s.HeaderFilename()
	}
	return s.IncludeDir + "/" + s.HeaderFilename()
}

// RenderHeader renders the class declaration.
func RenderHeader(s Store) []byte {
	var w strings.Builder
	guard := s.Guard()

	fmt.Fprintf(&w, "#ifndef %s\n", guard)
	fmt.Fprintf(&w, "#define %s\n\n", guard)
	if s.GlobalInclude != "" {
		fmt.Fprintf(&w, "#include <%s>\n\n", s.GlobalInclude)
	}
	if s.Namespace != "" {
		fmt.Fprintf(&w, "namespace %s {\n\n", s.Namespace)
	}

	if s.ExportMacro != "" {
		fmt.Fprintf(&w, "class %s %s {\n\n", s.ExportMacro, s.ClassName)
	} else {
		fmt.Fprintf(&w, "class %s {\n\n", s.ClassName)
	}
	w.WriteString("public:\n")
	fmt.Fprintf(&w, "  %s();\n", s.ClassName)
	fmt.Fprintf(&w, "  ~%s();\n\n", s.ClassName)
	fmt.Fprintf(&w, "  %s& shaders();\n", s.MapType)
	fmt.Fprintf(&w, "  const %s& shaders() const;\n\n", s.MapType)
	w.WriteString("private:\n")
	fmt.Fprintf(&w, "  static %s %s;\n\n", s.MapType, s.MemberName)
	fmt.Fprintf(&w, "}; // end of class %s\n\n", s.ClassName)

	if s.Namespace != "" {
		fmt.Fprintf(&w, "} // end of namespace %s\n\n", s.Namespace)
	}
	fmt.Fprintf(&w, "#endif // end of %s\n", guard)
	return []byte(w.String())
}

// RenderSource renders the class definition and the map initializer. The
// entries are emitted in the given order; keys must be unique.
func RenderSource(s Store, entries []Entry) ([]byte, error) {
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.Key == "" || e.Symbol == "" {
			return nil, fmt.Errorf("registry %s: entry with empty key or symbol (%+v)", s.ClassName, e)
		}
		if seen[e.Key] {
			return nil, fmt.Errorf("registry %s: duplicate key %q", s.ClassName, e.Key)
		}
		seen[e.Key] = true
	}

	var w strings.Builder
	c := s.ClassName

	fmt.Fprintf(&w, "#include <%s>\n\n", s.headerInclude())
	for _, e := range entries {
		fmt.Fprintf(&w, "#include <%s>\n", e.Include)
	}
	w.WriteString("\n")
	if s.Namespace != "" {
		fmt.Fprintf(&w, "namespace %s {\n\n", s.Namespace)
	}

	fmt.Fprintf(&w, "%s::%s()\n{\n}\n\n", c, c)
	fmt.Fprintf(&w, "%s::~%s()\n{\n}\n\n", c, c)
	fmt.Fprintf(&w, "%s& %s::shaders()\n{\n  return %s;\n}\n\n", s.MapType, c, s.MemberName)
	fmt.Fprintf(&w, "const %s&\n%s::shaders() const\n{\n  return %s;\n}\n\n", s.MapType, c, s.MemberName)

	fmt.Fprintf(&w, "%s %s::%s\n", s.MapType, c, s.MemberName)
	w.WriteString("  = {")
	for i, e := range entries {
		if i > 0 {
			w.WriteString(",\n     ")
		}
		w.WriteString(entryLiteral(e))
	}
	w.WriteString("};\n\n")

	if s.Namespace != "" {
		fmt.Fprintf(&w, "} // end of namespace %s\n", s.Namespace)
	}
	return []byte(w.String()), nil
}

// entryLiteral renders {"key", symbol}, breaking after the comma when the
// pair would not fit on one line.
func entryLiteral(e Entry) string {
	if len(e.Key)+len(e.Symbol)+10 > maxEntryWidth {
		return fmt.Sprintf("{\"%s\",\n      %s}", e.Key, e.Symbol)
	}
	return fmt.Sprintf("{\"%s\", %s}", e.Key, e.Symbol)
}
