package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dancebot/pkg/choreography"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSongsCmd(t *testing.T) {
	out, err := run(t, "songs")
	require.NoError(t, err)
	for _, name := range []string{"alone", "faded", "falling-for-you", "neural-threads", "stereo-love", "titanium"} {
		assert.Contains(t, out, name)
	}
}

func TestSongsCmd_ExtraDir(t *testing.T) {
	dir := t.TempDir()
	doc := "name: warmup\ntitle: Warm Up\nsteps:\n  - title: nod\n    commands:\n      - {op: move, ch: 0, angle: 100}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "warmup.yaml"), []byte(doc), 0o644))

	out, err := run(t, "songs", "--songs-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "warmup")
}

func TestShowCmd(t *testing.T) {
	out, err := run(t, "show", "titanium")
	require.NoError(t, err)
	assert.Contains(t, out, "Titanium")
	assert.Contains(t, out, "\n18. ")

	out, err = run(t, "show", "stereo", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "\n 3. ")
	assert.NotContains(t, out, "\n 4. ")

	_, err = run(t, "show", "titanium", "99")
	assert.ErrorIs(t, err, choreography.ErrUnknownStep)

	_, err = run(t, "show", "macarena")
	assert.ErrorIs(t, err, choreography.ErrUnknownSong)
}

func TestPlayCmd_DryRunSteps(t *testing.T) {
	out, err := run(t, "play", "faded", "1", "2", "--dry-run", "--seed", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "Faded")
	assert.Equal(t, 2, strings.Count(out, "▶"))
	assert.Contains(t, out, "servo pulses")
	assert.Contains(t, out, "finished")
}

func TestPlayCmd_DryRunWholeSong(t *testing.T) {
	out, err := run(t, "play", "titanium", "--dry-run")
	require.NoError(t, err)
	assert.Equal(t, 18, strings.Count(out, "▶"))
}

func TestPlayCmd_Errors(t *testing.T) {
	out, err := run(t, "play", "alone", "1", "99", "--dry-run")
	assert.ErrorIs(t, err, choreography.ErrUnknownStep)
	assert.Equal(t, 1, strings.Count(out, "▶"))

	_, err = run(t, "play", "macarena", "--dry-run")
	assert.ErrorIs(t, err, choreography.ErrUnknownSong)

	_, err = run(t, "play", "alone", "--dry-run", "--robot", "ghost")
	assert.Error(t, err)
}
