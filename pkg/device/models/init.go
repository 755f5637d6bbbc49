package models

import (
	"dancebot/pkg/config"
	"dancebot/pkg/device"
)

func init() {
	device.RegisterDeviceType(config.ModelSim, NewSimRobot)
	device.RegisterDeviceType(config.ModelESP32, NewESP32Robot)
	device.RegisterDeviceType(config.ModelFeetech, NewFeetechRobot)
}
