package models

import (
	"fmt"

	"dancebot/pkg/base"
	"dancebot/pkg/communication"
	"dancebot/pkg/config"
	"dancebot/pkg/device"
	"dancebot/pkg/servo"
)

// NewFeetechRobot 串口总线舵机 + 本机 GPIO 方向线的机器人
func NewFeetechRobot(cfg config.RobotConfig, env device.Environment) (device.Device, error) {
	if cfg.SerialPort == "" {
		return nil, fmt.Errorf("缺少串口 serial_port 配置")
	}
	if len(cfg.BasePins) != 4 {
		return nil, fmt.Errorf("需要 4 个方向线引脚，实际 %d 个", len(cfg.BasePins))
	}

	cals := cfg.Servos
	if len(cals) == 0 {
		cals = servo.StandardCalibrations()
	}
	ids := make([]int, 0, len(cals))
	for _, cal := range cals {
		if cal.ServoID <= 0 {
			return nil, fmt.Errorf("通道 %s 未配置总线舵机 ID", cal.Channel)
		}
		ids = append(ids, cal.ServoID)
	}

	lines, err := base.OpenGPIOLines([4]string(cfg.BasePins))
	if err != nil {
		return nil, err
	}

	output, err := communication.OpenFeetech(cfg.SerialPort, cfg.BaudRate, ids)
	if err != nil {
		return nil, err
	}

	robot, err := newRobot(cfg, env, hardware{
		servo: output,
		lines: lines,
	})
	if err != nil {
		output.Close()
		return nil, err
	}
	return robot, nil
}
