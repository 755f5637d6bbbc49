package models

import (
	"dancebot/pkg/device"
	"dancebot/pkg/servo"
)

func legs(hip, knee, ankle float64) map[servo.Channel]float64 {
	return map[servo.Channel]float64{
		servo.Leg1Hip: hip, servo.Leg1Knee: knee, servo.Leg1Ankle: ankle,
		servo.Leg2Hip: hip, servo.Leg2Knee: knee, servo.Leg2Ankle: ankle,
	}
}

func pose(arms [6]float64, legAngles map[servo.Channel]float64) map[servo.Channel]float64 {
	angles := make(map[servo.Channel]float64, 12)
	for i, a := range arms {
		angles[servo.Channel(i)] = a
	}
	for ch, a := range legAngles {
		angles[ch] = a
	}
	return angles
}

// standardPresets 标准机型的预设姿势，手臂左右镜像
func standardPresets() []device.PresetPose {
	return []device.PresetPose{
		{
			Name:        "home",
			Description: "手臂居中，双腿站直",
			Angles:      pose([6]float64{90, 90, 90, 90, 90, 90}, legs(0, 0, 0)),
		},
		{
			Name:        "arms_up",
			Description: "双臂举过头顶",
			Angles:      pose([6]float64{180, 90, 90, 0, 90, 90}, nil),
			Steps:       15,
		},
		{
			Name:        "t_pose",
			Description: "双臂水平张开",
			Angles:      pose([6]float64{90, 0, 90, 90, 180, 90}, nil),
			Steps:       15,
		},
		{
			Name:        "salute",
			Description: "右手敬礼",
			Angles:      pose([6]float64{90, 90, 90, 20, 150, 60}, nil),
			Steps:       12,
		},
		{
			Name:        "crouch",
			Description: "屈膝下蹲",
			Angles:      legs(20, 40, 20),
			Steps:       20,
		},
		{
			Name:        "bow",
			Description: "鞠躬谢幕",
			Angles:      pose([6]float64{60, 90, 90, 120, 90, 90}, legs(30, 10, 0)),
			Steps:       20,
		},
	}
}
