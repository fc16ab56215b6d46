// Package naming derives C++ identifiers, include guards and header
// filenames from shader file basenames.
package naming

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind selects the derivation rules for a shader file.
type Kind int

const (
	// KindShader is a complete shader; its symbol gets the shader suffix.
	KindShader Kind = iota
	// KindInclude is an include fragment spliced into other shaders.
	KindInclude
)

func (k Kind) String() string {
	if k == KindInclude {
		return "include"
	}
	return "shader"
}

// Alias rewrites From into To.
type Alias struct {
	From string
	To   string
}

// Options configures a Deriver.
type Options struct {
	// Separators split a filename stem into camel-cased segments.
	Separators string
	// ShaderSuffix is appended as a final segment for KindShader.
	ShaderSuffix string
	// HeaderExtension is appended to derived output filenames.
	HeaderExtension string
	// SuffixAliases rewrite the end of a derived symbol; first match wins.
	SuffixAliases []Alias
}

// DefaultOptions returns the options used by the BabylonCpp tree.
func DefaultOptions() Options {
	return Options{
		Separators:      "._",
		ShaderSuffix:    "shader",
		HeaderExtension: ".h",
		SuffixAliases:   []Alias{{From: "FragmentShader", To: "PixelShader"}},
	}
}

// Derived holds everything computed from one basename.
type Derived struct {
	Basename   string // after scoped name aliases
	Variable   string // C++ symbol and registry key
	OutputFile string // generated header filename
	Guard      string // include guard macro
}

// Deriver computes names. It is immutable and safe to share.
type Deriver struct {
	opts Options
}

// NewDeriver creates a Deriver.
func NewDeriver(opts Options) *Deriver {
	if opts.HeaderExtension == "" {
		opts.HeaderExtension = ".h"
	}
	return &Deriver{opts: opts}
}

// Derive computes all names for basename. guardPrefix is prepended to the
// include guard. nameAliases are the aliases in scope for the file's module,
// see ScopeNameAliases; core shaders pass none.
func (d *Deriver) Derive(basename string, kind Kind, guardPrefix string, nameAliases ...Alias) Derived {
	aliased := ApplyNameAliases(nameAliases, basename)
	out := d.OutputFilename(aliased)
	return Derived{
		Basename:   aliased,
		Variable:   d.VariableName(aliased, kind),
		OutputFile: out,
		Guard:      GuardName(guardPrefix, out),
	}
}

// ApplyNameAliases rewrites substrings of basename in table order.
func ApplyNameAliases(aliases []Alias, basename string) string {
	for _, a := range aliases {
		if a.From == "" {
			continue
		}
		basename = strings.ReplaceAll(basename, a.From, a.To)
	}
	return basename
}

// ScopeNameAliases keeps the aliases that apply inside an extension module:
// those whose From occurs in the module's output directory name.
//
//	{normalmap -> normalMap} applies in "normalmap", not in "fire"
func ScopeNameAliases(aliases []Alias, outModule string) []Alias {
	var scoped []Alias
	for _, a := range aliases {
		if a.From != "" && strings.Contains(outModule, a.From) {
			scoped = append(scoped, a)
		}
	}
	return scoped
}

// VariableName derives the symbol for a shader file: the stem is split into
// segments, every segment after the first gets an upper-case first letter,
// and for shaders the suffix segment is appended. A trailing alias from the
// suffix table is then rewritten.
//
//	default.vertex.fx    -> defaultVertexShader
//	default.fragment.fx  -> defaultPixelShader
//	helperFunctions.fx   -> helperFunctions (include)
func (d *Deriver) VariableName(basename string, kind Kind) string {
	stem := strings.TrimSuffix(basename, filepath.Ext(basename))
	segments := strings.FieldsFunc(stem, d.isSeparator)
	if kind == KindShader && d.opts.ShaderSuffix != "" {
		segments = append(segments, d.opts.ShaderSuffix)
	}
	if len(segments) == 0 {
		return ""
	}

	var b strings.Builder
	for i, seg := range segments {
		if i == 0 {
			b.WriteString(seg)
			continue
		}
		b.WriteString(upperFirst(seg))
	}
	name := b.String()

	for _, a := range d.opts.SuffixAliases {
		if a.From != "" && strings.HasSuffix(name, a.From) {
			name = strings.TrimSuffix(name, a.From) + a.To
			break
		}
	}

	if r, _ := utf8.DecodeRuneInString(name); unicode.IsDigit(r) {
		name = "_" + name
	}
	return name
}

// isSeparator reports whether r splits segments. Runes that cannot appear
// in a C++ identifier always split.
func (d *Deriver) isSeparator(r rune) bool {
	if strings.ContainsRune(d.opts.Separators, r) {
		return true
	}
	return !(r == '_' || r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r)))
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

var (
	wordBoundary = regexp.MustCompile(`(.)([A-Z][a-z]+)`)
	caseBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)
)

// PrepareFilename inserts '_' at case boundaries and lower-cases the result.
//
//	kernelBlur.fragment.fx -> kernel_blur.fragment.fx
//	PBRMaterial            -> pbr_material
func PrepareFilename(name string) string {
	s := wordBoundary.ReplaceAllString(name, "${1}_${2}")
	s = caseBoundary.ReplaceAllString(s, "${1}_${2}")
	return strings.ToLower(s)
}

// OutputFilename derives the generated header filename for a basename.
func (d *Deriver) OutputFilename(basename string) string {
	return strings.ReplaceAll(PrepareFilename(basename), ".", "_") + d.opts.HeaderExtension
}

// GuardName builds an include guard macro from a prefix and an output
// filename: BABYLON_SHADERS + default_vertex_fx.h -> BABYLON_SHADERS_DEFAULT_VERTEX_FX_H.
func GuardName(prefix, outputFile string) string {
	guard := strings.ToUpper(strings.ReplaceAll(outputFile, ".", "_"))
	if prefix == "" {
		return guard
	}
	return prefix + "_" + guard
}

// ApplyDirectoryAlias maps an extension module directory name to its
// output directory name. Unlisted names pass through unchanged.
func ApplyDirectoryAlias(aliases []Alias, dir string) string {
	for _, a := range aliases {
		if a.From == dir {
			return a.To
		}
	}
	return dir
}
