package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"shaderstore/internal/config"
	"shaderstore/internal/generate"
	"shaderstore/internal/watch"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupWorkspace points the global config at a fresh input and output tree.
func setupWorkspace(t *testing.T) (in, out string) {
	t.Helper()
	root := t.TempDir()
	in = filepath.Join(root, "shaders")
	out = filepath.Join(root, "out")
	require.NoError(t, os.MkdirAll(filepath.Join(in, "ShadersInclude"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(out, "src", "materials"), 0755))

	logger = zap.NewNop()
	cfg = config.DefaultConfig()
	cfg.Input.ShaderDir = in
	cfg.Output.Root = out
	dryRun = false
	return in, out
}

func writeShader(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func testCommand() (*cobra.Command, *bytes.Buffer) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	cmd.SetContext(context.Background())
	return cmd, &buf
}

func TestRunGenerate(t *testing.T) {
	in, out := setupWorkspace(t)
	writeShader(t, in, "default.vertex.fx", "void main(){}\n")
	writeShader(t, filepath.Join(in, "ShadersInclude"), "helperFunctions.fx", "const float PI = 3.14;\n")

	cmd, buf := testCommand()
	require.NoError(t, runGenerate(cmd, nil))

	output := buf.String()
	assert.Contains(t, output, "Generation complete")
	assert.Contains(t, output, "6 written")
	assert.FileExists(t, filepath.Join(out, "include", "babylon", "shaders", "default_vertex_fx.h"))
	assert.FileExists(t, filepath.Join(out, "src", "materials", "effect_includes_shaders_store.cpp"))
}

func TestRunGenerateDryRun(t *testing.T) {
	in, out := setupWorkspace(t)
	writeShader(t, in, "a.fx", "x\n")
	dryRun = true
	defer func() { dryRun = false }()

	cmd, buf := testCommand()
	require.NoError(t, runGenerate(cmd, nil))

	assert.Contains(t, buf.String(), "Dry run complete")
	assert.Contains(t, buf.String(), "would be written")
	assert.NoDirExists(t, filepath.Join(out, "include"))
}

func TestRunGenerateInvalidConfig(t *testing.T) {
	setupWorkspace(t)
	cfg.Input.ShaderDir = ""

	cmd, _ := testCommand()
	err := runGenerate(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestRunCheck(t *testing.T) {
	in, _ := setupWorkspace(t)
	writeShader(t, in, "a.fx", "x\n")

	cmd, buf := testCommand()
	err := runCheck(cmd, nil)
	assert.ErrorIs(t, err, errStale)
	assert.Equal(t, 2, exitCode(err))
	assert.Contains(t, buf.String(), "out of date")

	require.NoError(t, runGenerate(cmd, nil))

	cmd, buf = testCommand()
	require.NoError(t, runCheck(cmd, nil))
	assert.Contains(t, buf.String(), "up to date")
}

func TestRunNames(t *testing.T) {
	in, _ := setupWorkspace(t)
	writeShader(t, in, "default.fragment.fx", "x\n")

	cmd, buf := testCommand()
	require.NoError(t, runNames(cmd, nil))
	assert.Contains(t, buf.String(), "defaultPixelShader")
	assert.Contains(t, buf.String(), "default_fragment_fx.h")
}

func TestRunNamesCollision(t *testing.T) {
	in, _ := setupWorkspace(t)
	writeShader(t, in, "a.b.fx", "x\n")
	writeShader(t, in, "a_b.fx", "y\n")

	cmd, buf := testCommand()
	err := runNames(cmd, nil)
	assert.ErrorIs(t, err, generate.ErrNameCollision)
	assert.Equal(t, 4, exitCode(err))
	assert.Contains(t, buf.String(), "aBShader")
}

func TestRunConfigInit(t *testing.T) {
	setupWorkspace(t)
	configPath = filepath.Join(t.TempDir(), "shaderstore.yaml")
	defer func() { configPath = "shaderstore.yaml"; forceInit = false }()

	cmd, buf := testCommand()
	require.NoError(t, runConfigInit(cmd, nil))
	assert.Contains(t, buf.String(), "Wrote")

	loaded, err := config.Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "EffectShadersStore", loaded.Stores.Shaders.ClassName)

	assert.Error(t, runConfigInit(cmd, nil), "refuses to overwrite without --force")
	forceInit = true
	assert.NoError(t, runConfigInit(cmd, nil))
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	t.Setenv("SHADERSTORE_INPUT_DIR", "/from/env")
	configPath = filepath.Join(t.TempDir(), "missing.yaml")
	inputDir = "/from/flag"
	outputDir = ""
	defer func() { configPath = "shaderstore.yaml"; inputDir = "" }()

	c, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/from/flag", c.Input.ShaderDir)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New("other"), 1},
		{errStale, 2},
		{fmt.Errorf("wrap: %w", generate.ErrInvalidInputDirectory), 3},
		{generate.ErrInvalidOutputDirectory, 3},
		{generate.ErrNameCollision, 4},
		{context.Canceled, 130},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exitCode(tt.err), tt.err.Error())
	}
}

func TestRenderNamesHasHeaders(t *testing.T) {
	out := renderNames([]generate.NameRow{{Set: "shaders", Basename: "a.fx", Symbol: "aShader", Header: "a_fx.h"}})
	for _, col := range []string{"SET", "FILE", "SYMBOL", "HEADER", "aShader"} {
		assert.True(t, strings.Contains(out, col), col)
	}
}

// fakeWatcher stands in for watch.Watcher. With closed set, Run fails the way
// a watcher whose event loop ended early does.
type fakeWatcher struct {
	closed bool
}

func (f *fakeWatcher) Run(ctx context.Context) error {
	if f.closed {
		return watch.ErrClosed
	}
	<-ctx.Done()
	return nil
}

func (f *fakeWatcher) Stats() watch.Stats { return watch.Stats{} }

func TestServeWatchReturnsWhenWatcherCloses(t *testing.T) {
	done := make(chan error, 1)
	go func() { done <- serveWatch(context.Background(), &fakeWatcher{closed: true}, zap.NewNop()) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, watch.ErrClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("serveWatch hung after the watcher closed")
	}
}

func TestServeWatchStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serveWatch(ctx, &fakeWatcher{}, zap.NewNop()) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serveWatch did not stop on cancel")
	}
}
