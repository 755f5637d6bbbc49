package servo

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sleepClock 记录 Sleep 调用，不真正等待
type sleepClock struct {
	*clock.Mock
	mu    sync.Mutex
	slept time.Duration
	calls int
}

func newSleepClock() *sleepClock { return &sleepClock{Mock: clock.NewMock()} }

func (c *sleepClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slept += d
	c.calls++
}

func newTestController(t *testing.T, cals []Calibration) (*Controller, *Recorder, *sleepClock) {
	t.Helper()
	m, err := NewMapper(cals, 0, 0)
	require.NoError(t, err)
	rec := NewRecorder(nil)
	clk := newSleepClock()
	return NewController(m, rec, Options{StepDelay: 15 * time.Millisecond, Clock: clk}), rec, clk
}

func TestSmoothMove_SingleStepWritesTargetOnce(t *testing.T) {
	c, rec, _ := newTestController(t, []Calibration{{Channel: 0, Home: 0}})

	require.NoError(t, c.SmoothMove(0, 90, 1))

	assert.Equal(t, []float64{90}, rec.Angles(0))
	angle, ok := c.Angle(0)
	require.True(t, ok)
	assert.Equal(t, 90.0, angle)
}

func TestSmoothMove_ConvergesFromAnyStart(t *testing.T) {
	for _, start := range []float64{0, 17, 90, 133, 180} {
		for _, target := range []float64{0, 45, 91, 180} {
			for _, steps := range []int{1, 3, 7, 18} {
				c, rec, _ := newTestController(t, []Calibration{{Channel: 2, Home: start}})

				require.NoError(t, c.SmoothMove(2, target, steps))

				angle, _ := c.Angle(2)
				assert.Equal(t, target, angle, "start %.0f target %.0f steps %d", start, target, steps)
				writes := rec.Angles(2)
				if start == target {
					assert.Empty(t, writes)
					continue
				}
				require.Len(t, writes, steps)
				assert.Equal(t, target, writes[len(writes)-1])
			}
		}
	}
}

func TestSmoothMove_Monotonic(t *testing.T) {
	c, rec, _ := newTestController(t, []Calibration{{Channel: 1, Home: 30}})

	require.NoError(t, c.SmoothMove(1, 150, 7))
	require.NoError(t, c.SmoothMove(1, 20, 9))

	writes := rec.Angles(1)
	require.Len(t, writes, 16)

	prev := 30.0
	for _, a := range writes[:7] {
		assert.GreaterOrEqual(t, a, prev)
		assert.LessOrEqual(t, a, 150.0)
		prev = a
	}
	prev = 150.0
	for _, a := range writes[7:] {
		assert.LessOrEqual(t, a, prev)
		assert.GreaterOrEqual(t, a, 20.0)
		prev = a
	}
}

func TestSmoothMove_IdempotentAtTarget(t *testing.T) {
	c, rec, clk := newTestController(t, []Calibration{{Channel: 0, Home: 90}})

	require.NoError(t, c.SmoothMove(0, 120, 4))
	before := len(rec.Pulses())
	sleeps := clk.calls

	require.NoError(t, c.SmoothMove(0, 120, 4))
	require.NoError(t, c.SmoothMove(0, 120, 1))

	assert.Len(t, rec.Pulses(), before)
	assert.Equal(t, sleeps, clk.calls)
	angle, _ := c.Angle(0)
	assert.Equal(t, 120.0, angle)
}

func TestSmoothMove_DefaultStepsAndDelay(t *testing.T) {
	c, rec, clk := newTestController(t, []Calibration{{Channel: 0, Home: 0}})

	require.NoError(t, c.SmoothMove(0, 100, 0))

	writes := rec.Angles(0)
	require.Len(t, writes, DefaultSteps)
	assert.InDelta(t, 10, writes[0], 1e-9)
	assert.Equal(t, DefaultSteps, clk.calls)
	assert.Equal(t, time.Duration(DefaultSteps)*15*time.Millisecond, clk.slept)
}

func TestSmoothMove_ClampsTarget(t *testing.T) {
	c, _, _ := newTestController(t, StandardCalibrations())

	require.NoError(t, c.SmoothMove(LeftElbow, 250, 2))
	angle, _ := c.Angle(LeftElbow)
	assert.Equal(t, 180.0, angle)

	require.NoError(t, c.WriteAngle(Leg1Knee, 95))
	angle, _ = c.Angle(Leg1Knee)
	assert.Equal(t, float64(legMaxAngle), angle)

	require.NoError(t, c.WriteAngle(Leg1Knee, -5))
	angle, _ = c.Angle(Leg1Knee)
	assert.Equal(t, 0.0, angle)
}

func TestSmoothMove_UnknownChannelFailsBeforeWriting(t *testing.T) {
	c, rec, clk := newTestController(t, StandardCalibrations())

	err := c.SmoothMove(Channel(12), 90, 3)
	assert.ErrorIs(t, err, ErrUnknownChannel)
	err = c.WriteAngle(Channel(99), 10)
	assert.ErrorIs(t, err, ErrUnknownChannel)

	assert.Empty(t, rec.Pulses())
	assert.Zero(t, clk.calls)
}

type failingDriver struct {
	Recorder
	failAfter int
}

func (d *failingDriver) WritePulse(p Pulse) error {
	if len(d.Pulses()) >= d.failAfter {
		return errors.New("bus timeout")
	}
	return d.Recorder.WritePulse(p)
}

func TestSmoothMove_DriverErrorKeepsLastCommandedAngle(t *testing.T) {
	m, err := NewMapper([]Calibration{{Channel: 0, Home: 0}}, 0, 0)
	require.NoError(t, err)
	drv := &failingDriver{failAfter: 2}
	c := NewController(m, drv, Options{Clock: newSleepClock()})

	err = c.SmoothMove(0, 100, 4)
	require.Error(t, err)

	angle, _ := c.Angle(0)
	assert.Equal(t, 50.0, angle)
}

func TestWriteAngle_NoInterpolation(t *testing.T) {
	c, rec, clk := newTestController(t, StandardCalibrations())

	require.NoError(t, c.WriteAngle(Leg2Hip, 12))

	assert.Equal(t, []float64{12}, rec.Angles(Leg2Hip))
	assert.Zero(t, clk.calls)
	p := rec.Pulses()[0]
	assert.InDelta(t, HipRightOffset+12, p.Physical, 1e-9)
}

func TestHomeAndSnapshot(t *testing.T) {
	c, rec, _ := newTestController(t, StandardCalibrations())

	require.NoError(t, c.SmoothMove(RightShoulder, 10, 2))
	require.NoError(t, c.Home())

	snap := c.Snapshot()
	require.Len(t, snap, len(StandardChannels()))
	for i, act := range snap {
		assert.Equal(t, StandardChannels()[i], act.Channel)
		assert.Equal(t, act.Calibration.Home, act.Angle)
	}
	assert.Len(t, rec.Pulses(), 2+len(StandardChannels()))
}
