package models

import (
	"fmt"

	"dancebot/pkg/base"
	"dancebot/pkg/communication"
	"dancebot/pkg/config"
	"dancebot/pkg/device"
)

// NewESP32Robot 通过 HTTP 桥控制的 ESP32 机器人：PWM 舵机、方向线和灯效都由控制板输出
func NewESP32Robot(cfg config.RobotConfig, env device.Environment) (device.Device, error) {
	if cfg.BridgeURL == "" {
		return nil, fmt.Errorf("缺少控制板 bridge_url 配置")
	}

	comm := communication.NewBridgeClient(cfg.BridgeURL)
	var lines [4]base.Line
	for i, l := range communication.NewBridgeLines(comm) {
		lines[i] = l
	}

	robot, err := newRobot(cfg, env, hardware{
		servo: communication.NewServoOutput(comm),
		lines: lines,
		led:   comm.SetLED,
		probe: func() error {
			if !comm.IsConnected() {
				return fmt.Errorf("控制板 %s 不可达或离线", cfg.BridgeURL)
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return robot, nil
}
