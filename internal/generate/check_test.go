package generate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckBeforeAndAfterRun(t *testing.T) {
	f := newFixture(t)
	f.write("a.fx", "x\n")
	g := f.generator()

	report, err := g.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, report.OK())
	for _, r := range report.Results {
		assert.Equal(t, CheckMissing, r.Status, r.Path)
	}
	assert.False(t, f.exists(shaderHeaders), "check must not write")

	_, err = g.Run(context.Background())
	require.NoError(t, err)

	report, err = g.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Empty(t, report.Stale())
}

func TestCheckDetectsStaleOutput(t *testing.T) {
	f := newFixture(t)
	src := f.write("a.fx", "x\n")
	g := f.generator()
	_, err := g.Run(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(src, []byte("y\n"), 0644))

	report, err := g.Check(context.Background())
	require.NoError(t, err)
	require.False(t, report.OK())

	stale := report.Stale()
	require.Len(t, stale, 1)
	assert.Equal(t, filepath.Join(f.out, shaderHeaders, "a_fx.h"), stale[0].Path)
	assert.Equal(t, CheckStale, stale[0].Status)
	assert.NotEmpty(t, stale[0].Diff)
}

func TestCheckBOMOnlyDifference(t *testing.T) {
	f := newFixture(t)
	f.write("a.fx", "x\n")
	f.cfg.Output.WriteBOM = false
	_, err := f.generator().Run(context.Background())
	require.NoError(t, err)

	f.cfg.Output.WriteBOM = true
	report, err := f.generator().Check(context.Background())
	require.NoError(t, err)
	require.False(t, report.OK())
	for _, r := range report.Stale() {
		assert.Equal(t, "byte-order mark differs", r.Diff)
	}
}

func TestCheckPropagatesCollisions(t *testing.T) {
	f := newFixture(t)
	f.write("a.b.fx", "x\n")
	f.write("a_b.fx", "y\n")

	_, err := f.generator().Check(context.Background())
	assert.ErrorIs(t, err, ErrNameCollision)
}
