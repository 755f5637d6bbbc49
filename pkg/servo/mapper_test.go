package servo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStandardMapper(t *testing.T) *Mapper {
	t.Helper()
	m, err := NewMapper(StandardCalibrations(), 0, 0)
	require.NoError(t, err)
	return m
}

func TestMapper_PulseArm(t *testing.T) {
	m := newStandardMapper(t)

	tests := []struct {
		angle    float64
		widthUs  float64
		ticks    uint16
		physical float64
	}{
		{0, 500, 102, 0},
		{90, 1500, 307, 90},
		{180, 2500, 512, 180},
		{45, 1000, 205, 45},
	}

	for _, tt := range tests {
		p, err := m.Pulse(LeftShoulder, tt.angle)
		require.NoError(t, err)
		assert.InDelta(t, tt.widthUs, p.WidthUs, 0.001, "angle %.0f", tt.angle)
		assert.Equal(t, tt.ticks, p.Ticks, "angle %.0f", tt.angle)
		assert.InDelta(t, tt.physical, p.Physical, 0.001)
		assert.Equal(t, tt.angle, p.Logical)
		assert.Equal(t, 1, p.ServoID)
	}
}

func TestMapper_PulseAppliesLegOffsets(t *testing.T) {
	m := newStandardMapper(t)

	// leg1 镜像安装：物理角度 = 偏移 - 逻辑角度
	p, err := m.Pulse(Leg1Hip, 10)
	require.NoError(t, err)
	assert.InDelta(t, 95, p.Physical, 0.001)

	p, err = m.Pulse(Leg2Knee, 20)
	require.NoError(t, err)
	assert.InDelta(t, 45, p.Physical, 0.001)

	// 物理角度不会越过 0-180
	p, err = m.Pulse(Leg2Knee, 200)
	require.NoError(t, err)
	assert.InDelta(t, 180, p.Physical, 0.001)
	assert.InDelta(t, 2500, p.WidthUs, 0.001)
}

func TestMapper_Deterministic(t *testing.T) {
	m := newStandardMapper(t)
	for _, ch := range StandardChannels() {
		a, err := m.Pulse(ch, 30)
		require.NoError(t, err)
		b, err := m.Pulse(ch, 30)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
}

func TestMapper_UnknownChannel(t *testing.T) {
	m := newStandardMapper(t)

	_, err := m.Pulse(Channel(42), 90)
	assert.ErrorIs(t, err, ErrUnknownChannel)

	_, err = m.Angle(Channel(42), 1500)
	assert.ErrorIs(t, err, ErrUnknownChannel)
}

func TestMapper_AngleInvertsPulse(t *testing.T) {
	m := newStandardMapper(t)

	for _, ch := range []Channel{LeftShoulder, Leg1Hip, Leg2Ankle} {
		for angle := 0.0; angle <= 40; angle += 5 {
			p, err := m.Pulse(ch, angle)
			require.NoError(t, err)
			back, err := m.Angle(ch, p.WidthUs)
			require.NoError(t, err)
			if math.Abs(back-angle) > 0.001 {
				t.Errorf("round-trip %s: %.1f -> %.3fus -> %.3f", ch, angle, p.WidthUs, back)
			}
		}
	}
}

func TestNewMapper_Validation(t *testing.T) {
	tests := []struct {
		name string
		cals []Calibration
	}{
		{"duplicate channel", []Calibration{{Channel: 0}, {Channel: 0}}},
		{"inverted range", []Calibration{{Channel: 0, MinAngle: 100, MaxAngle: 20}}},
		{"range above 180", []Calibration{{Channel: 0, MaxAngle: 200}}},
		{"pulse below floor", []Calibration{{Channel: 0, MinUs: 100}}},
		{"home outside range", []Calibration{{Channel: 0, MaxAngle: 60, Home: 90}}},
		{"negative channel", []Calibration{{Channel: -1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMapper(tt.cals, 0, 0)
			assert.Error(t, err)
		})
	}

	_, err := NewMapper(nil, 1000, 0)
	assert.Error(t, err, "frequency above 450Hz")
}

func TestParseChannel(t *testing.T) {
	ch, err := ParseChannel("3")
	require.NoError(t, err)
	assert.Equal(t, RightShoulder, ch)

	ch, err = ParseChannel("LEG2_KNEE")
	require.NoError(t, err)
	assert.Equal(t, Leg2Knee, ch)

	_, err = ParseChannel("tail")
	assert.ErrorIs(t, err, ErrUnknownChannel)

	_, err = ParseChannel("-2")
	assert.ErrorIs(t, err, ErrUnknownChannel)
}
