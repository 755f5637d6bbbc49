package choreography

import (
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dancebot/pkg/base"
	"dancebot/pkg/servo"
)

func TestDefaultLibrary_StepCounts(t *testing.T) {
	lib, err := DefaultLibrary()
	require.NoError(t, err)

	want := map[string]int{
		"alone":           38,
		"faded":           30,
		"falling-for-you": 26,
		"neural-threads":  35,
		"stereo-love":     28,
		"titanium":        18,
	}
	assert.Equal(t, len(want), lib.Len())
	for name, steps := range want {
		song, err := lib.Song(name)
		require.NoError(t, err, name)
		assert.Equal(t, steps, song.StepCount(), name)
	}
}

func TestLibrary_LookupIsForgiving(t *testing.T) {
	lib, err := DefaultLibrary()
	require.NoError(t, err)

	cases := map[string]string{
		"Falling For You": "falling-for-you",
		"fallingforyou":   "falling-for-you",
		"NEURAL":          "neural-threads",
		"stereo_love":     "stereo-love",
		"other":           "titanium",
		"  Alone ":        "alone",
	}
	for in, want := range cases {
		song, err := lib.Song(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, song.Name, in)
	}

	_, err = lib.Song("macarena")
	assert.ErrorIs(t, err, ErrUnknownSong)
}

func TestDefaultLibrary_TablesStayInRange(t *testing.T) {
	lib, err := DefaultLibrary()
	require.NoError(t, err)

	for _, song := range lib.Songs() {
		for i, step := range song.Steps {
			assert.NotEmpty(t, step.Title, "%s step %d", song.Name, i+1)
			for _, cmd := range step.Commands {
				switch c := cmd.(type) {
				case MoveCmd:
					assert.True(t, c.Channel.IsStandard())
					assert.GreaterOrEqual(t, c.Steps, 0)
					assert.True(t, c.Angle >= 0 && c.Angle <= 180, "%s: %s", song.Name, c)
				case WriteCmd:
					assert.True(t, c.Channel.IsStandard())
					assert.True(t, c.Angle >= 0 && c.Angle <= 180, "%s: %s", song.Name, c)
				case DriveCmd:
					assert.NotEqual(t, base.Stop, c.Direction)
				}
			}
		}
	}
}

func TestLibrary_AddRejectsConflicts(t *testing.T) {
	lib := NewLibrary()
	require.NoError(t, lib.Add(&Song{Name: "one", Aliases: []string{"uno"}}))

	assert.Error(t, lib.Add(&Song{Name: "One"}))
	assert.Error(t, lib.Add(&Song{Name: "two", Aliases: []string{"UNO"}}))
	assert.Error(t, lib.Add(&Song{Name: "uno"}))
	assert.Error(t, lib.Add(&Song{Name: ""}))
	assert.Equal(t, 1, lib.Len())
}

func TestParseSong_Commands(t *testing.T) {
	data := []byte(`
name: demo
title: "Demo"
steps:
  - title: "one"
    commands:
      - {op: move, ch: 0, angle: 90, jitter: [-10, 10], steps: 4}
      - {op: move, ch: leg2_knee, angle: 30}
      - {op: write, ch: 7, angle: 28}
      - {op: wait, ms: 300}
      - {op: drive, dir: spin_left, ms: 200}
      - {op: stop}
      - {op: log, text: "hello"}
`)
	song, err := ParseSong(data, "demo.yaml")
	require.NoError(t, err)
	require.Equal(t, 1, song.StepCount())

	step, ok := song.Step(1)
	require.True(t, ok)
	assert.Equal(t, []Command{
		MoveCmd{Channel: 0, Angle: 90, Jitter: &Jitter{Min: -10, Max: 10}, Steps: 4},
		MoveCmd{Channel: servo.Leg2Knee, Angle: 30},
		WriteCmd{Channel: servo.Leg1Knee, Angle: 28},
		WaitCmd{Duration: 300 * time.Millisecond},
		DriveCmd{Direction: base.SpinLeft, Duration: 200 * time.Millisecond},
		StopCmd{},
		LogCmd{Text: "hello"},
	}, step.Commands)
}

func TestParseSong_Validation(t *testing.T) {
	cases := map[string]string{
		"missing name":     "steps: [{title: a, commands: [{op: stop}]}]",
		"no steps":         "name: x\nsteps: []",
		"unknown op":       "name: x\nsteps: [{title: a, commands: [{op: jump}]}]",
		"unknown channel":  "name: x\nsteps: [{title: a, commands: [{op: move, ch: 12, angle: 1}]}]",
		"unknown name":     "name: x\nsteps: [{title: a, commands: [{op: move, ch: tail, angle: 1}]}]",
		"missing angle":    "name: x\nsteps: [{title: a, commands: [{op: move, ch: 1}]}]",
		"negative steps":   "name: x\nsteps: [{title: a, commands: [{op: move, ch: 1, angle: 1, steps: -1}]}]",
		"negative wait":    "name: x\nsteps: [{title: a, commands: [{op: wait, ms: -5}]}]",
		"bad jitter":       "name: x\nsteps: [{title: a, commands: [{op: move, ch: 1, angle: 1, jitter: [5, 5]}]}]",
		"bad direction":    "name: x\nsteps: [{title: a, commands: [{op: drive, dir: up, ms: 5}]}]",
		"drive stop":       "name: x\nsteps: [{title: a, commands: [{op: drive, dir: stop, ms: 5}]}]",
		"unknown field":    "name: x\nsteps: [{title: a, commands: [{op: stop, speed: 3}]}]",
		"write with steps": "name: x\nsteps: [{title: a, commands: [{op: write, ch: 1, angle: 1, steps: 3}]}]",
		"log without text": "name: x\nsteps: [{title: a, commands: [{op: log}]}]",
		"empty document":   "",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSong([]byte(doc), "bad.yaml")
			assert.Error(t, err)
		})
	}
}

func TestParseSong_UnknownChannelIsSentinel(t *testing.T) {
	_, err := ParseSong([]byte("name: x\nsteps: [{title: a, commands: [{op: write, ch: 40, angle: 1}]}]"), "x.yaml")
	require.Error(t, err)
	assert.True(t, errors.Is(err, servo.ErrUnknownChannel))
}

func TestLoadFS_ExtendsLibrary(t *testing.T) {
	lib, err := DefaultLibrary()
	require.NoError(t, err)

	fsys := fstest.MapFS{
		"mine.yaml": {Data: []byte("name: mine\nsteps: [{title: a, commands: [{op: wait, ms: 10}]}]")},
		"notes.txt": {Data: []byte("ignored")},
	}
	require.NoError(t, LoadFS(lib, fsys, "*.yaml"))

	song, err := lib.Song("mine")
	require.NoError(t, err)
	assert.Equal(t, "mine", song.Title)

	dup := fstest.MapFS{"dup.yaml": {Data: []byte("name: Alone\nsteps: [{title: a, commands: [{op: stop}]}]")}}
	assert.Error(t, LoadFS(lib, dup, "*.yaml"))
}

func TestStep_EstimateDuration(t *testing.T) {
	step := Step{Commands: []Command{
		MoveCmd{Channel: 0, Angle: 10},
		MoveCmd{Channel: 0, Angle: 10, Steps: 4},
		WaitCmd{Duration: 100 * time.Millisecond},
		DriveCmd{Direction: base.Forward, Duration: 50 * time.Millisecond},
		LogCmd{Text: "x"},
	}}
	assert.Equal(t, 14*15*time.Millisecond+150*time.Millisecond, step.EstimateDuration(10, 15*time.Millisecond))
}
