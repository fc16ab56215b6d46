package shader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeStripsTerminatorsAndBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("line1\r\nline2\n\nline4")...)
	src, err := Decode("dir/a.fx", data)
	require.NoError(t, err)

	assert.True(t, src.HasBOM)
	assert.Equal(t, "a.fx", src.Basename)
	assert.Equal(t, []string{"line1", "line2", "", "line4"}, src.Lines)
}

func TestDecodeTrailingNewline(t *testing.T) {
	src, err := Decode("a.fx", []byte("a\nb\n"))
	require.NoError(t, err)
	assert.False(t, src.HasBOM)
	assert.Equal(t, []string{"a", "b"}, src.Lines)
}

func TestDecodeMalformed(t *testing.T) {
	tests := map[string][]byte{
		"empty":    {},
		"bom only": {0xEF, 0xBB, 0xBF},
		"invalid":  {0xff, 0xfe, 'a'},
		"nul":      []byte("void\x00main"),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode("bad.fx", data)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedShader)
			assert.Contains(t, err.Error(), "bad.fx")
		})
	}
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.fx"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformedShader)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEscapeLine(t *testing.T) {
	opts := EscapeOptions{TabWidth: 2, CompactIndent: true}

	tests := []struct {
		in   string
		want string
	}{
		{`#include<helperFunctions>`, `#include<helperFunctions>`},
		{`a = "b";`, `a = \"b\";`},
		{`x \ y`, `x \\ y`},
		{"\tint a;", "  int a;"},
		{"    int a;", "  int a;"},
		{"        int a;", "  int a;"},
		{"      int a;", "  int a;"},
		{"     int a;", "   int a;"},
		{"  int a;", "  int a;"},
		{"int    a;", "int    a;"},
		{"    vec4 a =    b;", "  vec4 a =    b;"},
		{"        x    =        y;", "  x    =        y;"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EscapeLine(tt.in, opts), "input %q", tt.in)
	}
}

func TestEscapeLineNoCompaction(t *testing.T) {
	opts := EscapeOptions{}
	assert.Equal(t, "\t    x", EscapeLine("\t    x", opts))
}

func TestUnescapeRoundTrip(t *testing.T) {
	opts := EscapeOptions{}
	lines := []string{
		`uniform vec4 color;`,
		`// "quoted" \ backslash`,
		`#define STR(x) "x\n"`,
		"\tindented with tab",
		"        deep",
		``,
	}
	for _, line := range lines {
		assert.Equal(t, line, UnescapeLine(EscapeLine(line, opts)))
	}
}

func TestLiteralsPrecisionRule(t *testing.T) {
	e := NewEmitter(DefaultOptions())

	got := e.Literals([]string{
		"precision highp float;",
		"uniform float a;",
		"precision highp float;",
		"void main(){}",
		"precision highp float;",
	})
	want := []string{
		"#ifdef GL_ES",
		"precision highp float;",
		"#endif",
		"uniform float a;",
		"#ifdef GL_ES",
		"precision highp float;",
		"#endif",
		"void main(){}",
		"precision highp float;",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Literals mismatch (-want +got):\n%s", diff)
	}
}

func TestLiteralsSecondLineMatchesInteriorLine(t *testing.T) {
	e := NewEmitter(DefaultOptions())
	p := "precision highp float;"

	early := e.Literals([]string{"a", p, "b", "c", "d"})
	late := e.Literals([]string{"a", "b", "c", p, "d"})

	assert.Equal(t, []string{"#ifdef GL_ES", p, "#endif"}, early[1:4])
	assert.Equal(t, []string{"#ifdef GL_ES", p, "#endif"}, late[3:6])
}

func TestLiteralsSingleLineIsNotWrapped(t *testing.T) {
	e := NewEmitter(DefaultOptions())
	assert.Equal(t, []string{"precision highp float;"}, e.Literals([]string{"precision highp float;"}))
}

func TestLiteralsRuleDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.Precision = PrecisionRule{}
	e := NewEmitter(opts)
	assert.Equal(t, []string{"precision highp float;", "x"}, e.Literals([]string{"precision highp float;", "x"}))
}

func TestRenderDefaultVertex(t *testing.T) {
	e := NewEmitter(DefaultOptions())
	out, err := e.Render(Unit{
		Guard:    "BABYLON_SHADERS_DEFAULT_VERTEX_FX_H",
		Variable: "defaultVertexShader",
		Lines:    []string{"precision highp float;", "void main(){}"},
	})
	require.NoError(t, err)

	want := strings.Join([]string{
		`#ifndef BABYLON_SHADERS_DEFAULT_VERTEX_FX_H`,
		`#define BABYLON_SHADERS_DEFAULT_VERTEX_FX_H`,
		``,
		`namespace BABYLON {`,
		``,
		`extern const char* defaultVertexShader;`,
		``,
		`const char* defaultVertexShader`,
		`  = "#ifdef GL_ES\n"`,
		`    "precision highp float;\n"`,
		`    "#endif\n"`,
		`    "void main(){}\n";`,
		``,
		`} // end of namespace BABYLON`,
		``,
		`#endif // end of BABYLON_SHADERS_DEFAULT_VERTEX_FX_H`,
		``,
	}, "\n")
	if diff := cmp.Diff(want, string(out)); diff != "" {
		t.Errorf("Render mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderSingleLine(t *testing.T) {
	opts := DefaultOptions()
	opts.Namespace = ""
	e := NewEmitter(opts)
	out, err := e.Render(Unit{Guard: "G_H", Variable: "aShader", Lines: []string{"x"}})
	require.NoError(t, err)

	want := "#ifndef G_H\n#define G_H\n\nextern const char* aShader;\n\nconst char* aShader\n  = \"x\\n\";\n\n#endif // end of G_H\n"
	assert.Equal(t, want, string(out))
}

func TestRenderRejectsEmpty(t *testing.T) {
	e := NewEmitter(DefaultOptions())
	_, err := e.Render(Unit{Guard: "G", Variable: "v"})
	assert.Error(t, err)
	_, err = e.Render(Unit{Guard: "G", Lines: []string{"x"}})
	assert.Error(t, err)
}

func TestRenderThenExtractReproducesSource(t *testing.T) {
	opts := DefaultOptions()
	opts.Escape = EscapeOptions{}
	opts.Precision = PrecisionRule{}
	e := NewEmitter(opts)

	lines := []string{
		`precision highp float;`,
		`uniform sampler2D textureSampler; // "tex"`,
		"\tvec4 c = texture2D(textureSampler, vUV);",
		`    gl_FragColor = c; \`,
		``,
		`}`,
	}
	out, err := e.Render(Unit{Guard: "G", Variable: "aPixelShader", Lines: lines})
	require.NoError(t, err)

	literals := ExtractLiterals(string(out))
	require.Len(t, literals, len(lines))
	got := make([]string, len(literals))
	for i, lit := range literals {
		got[i] = UnescapeLine(lit)
	}
	if diff := cmp.Diff(lines, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
