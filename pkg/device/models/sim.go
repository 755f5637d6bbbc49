package models

import (
	"periph.io/x/conn/v3/gpio/gpiotest"

	"dancebot/pkg/base"
	"dancebot/pkg/config"
	"dancebot/pkg/device"
	"dancebot/pkg/servo"
)

// SimRobot 内存中的仿真机器人：舵机输出记录在 Recorder，方向线为测试引脚
type SimRobot struct {
	*Robot
	recorder *servo.Recorder
	pins     [4]*gpiotest.Pin
}

// NewSimRobot 创建仿真机器人
func NewSimRobot(cfg config.RobotConfig, env device.Environment) (device.Device, error) {
	sim, err := newSimRobot(cfg, env)
	if err != nil {
		return nil, err
	}
	return sim, nil
}

func newSimRobot(cfg config.RobotConfig, env device.Environment) (*SimRobot, error) {
	lines, pins := base.NewFakeLines()
	sim := &SimRobot{pins: pins}
	sim.recorder = servo.NewRecorder(func(p servo.Pulse) {
		env.Logger.WithField("robot", cfg.ID).
			Tracef("📟 %s → %.1f° (%.0fus, %d)", p.Channel, p.Physical, p.WidthUs, p.Ticks)
	})

	robot, err := newRobot(cfg, env, hardware{
		servo: sim.recorder,
		lines: lines,
		led:   func(string) error { return nil },
	})
	if err != nil {
		return nil, err
	}
	sim.Robot = robot
	return sim, nil
}

// Recorder 舵机输出记录
func (s *SimRobot) Recorder() *servo.Recorder { return s.recorder }

// Pins 方向线测试引脚
func (s *SimRobot) Pins() [4]*gpiotest.Pin { return s.pins }
