package config

import (
	"github.com/sirupsen/logrus"

	"dancebot/define"
	robotconfig "dancebot/pkg/config"
)

var Config *define.Config

// Robots 配置文件中的机器人与运动参数
var Robots *robotconfig.Config

// LogLevel 解析日志级别，无效时回退到 info
func LogLevel() logrus.Level {
	if Config == nil {
		return logrus.InfoLevel
	}
	level, err := logrus.ParseLevel(Config.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

func IsValidRobot(id string) bool {
	if Robots == nil {
		return false
	}
	_, ok := Robots.Robot(id)
	return ok
}
