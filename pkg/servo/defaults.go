package servo

// 腿部舵机偏移（来自整机装配标定）
const (
	HipLeftOffset   = 105
	KneeLeftOffset  = 155
	AnkleLeftOffset = 85

	HipRightOffset   = 82
	KneeRightOffset  = 25
	AnkleRightOffset = 85

	legMaxAngle = 60
)

// StandardCalibrations 标准机型的默认标定：六个手臂舵机居中于 90°，
// 腿部舵机以偏移为零点，leg1 镜像安装。
func StandardCalibrations() []Calibration {
	cals := make([]Calibration, 0, 12)
	for ch := LeftShoulder; ch <= RightWrist; ch++ {
		cals = append(cals, Calibration{
			Channel:  ch,
			Name:     ch.String(),
			MinAngle: DefaultMinAngle,
			MaxAngle: DefaultMaxAngle,
			Home:     90,
			ServoID:  int(ch) + 1,
		})
	}

	legs := []struct {
		ch       Channel
		offset   float64
		inverted bool
	}{
		{Leg1Hip, HipLeftOffset, true},
		{Leg1Knee, KneeLeftOffset, true},
		{Leg1Ankle, AnkleLeftOffset, true},
		{Leg2Hip, HipRightOffset, false},
		{Leg2Knee, KneeRightOffset, false},
		{Leg2Ankle, AnkleRightOffset, false},
	}
	for _, l := range legs {
		cals = append(cals, Calibration{
			Channel:  l.ch,
			Name:     l.ch.String(),
			Offset:   l.offset,
			Inverted: l.inverted,
			MinAngle: 0,
			MaxAngle: legMaxAngle,
			Home:     0,
			ServoID:  int(l.ch) + 1,
		})
	}
	return cals
}
