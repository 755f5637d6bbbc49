package device

import (
	"fmt"
	"slices"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"

	"dancebot/pkg/choreography"
	"dancebot/pkg/config"
)

// Environment 创建设备时共享的运行环境
type Environment struct {
	Motion  config.MotionConfig
	Dance   config.DanceConfig
	Library *choreography.Library
	Clock   clock.Clock
	Logger  *logrus.Logger
}

// Constructor 设备构造函数
type Constructor func(cfg config.RobotConfig, env Environment) (Device, error)

// DeviceFactory 设备工厂
type DeviceFactory struct {
	mutex        sync.RWMutex
	constructors map[string]Constructor
}

var defaultFactory = &DeviceFactory{
	constructors: make(map[string]Constructor),
}

// RegisterDeviceType 注册设备类型
func RegisterDeviceType(modelName string, constructor Constructor) {
	defaultFactory.mutex.Lock()
	defer defaultFactory.mutex.Unlock()
	defaultFactory.constructors[modelName] = constructor
}

// CreateDevice 创建设备实例
func CreateDevice(cfg config.RobotConfig, env Environment) (Device, error) {
	defaultFactory.mutex.RLock()
	constructor, ok := defaultFactory.constructors[cfg.Model]
	defaultFactory.mutex.RUnlock()
	if !ok {
		return nil, fmt.Errorf("未知的设备型号: %s", cfg.Model)
	}
	if env.Clock == nil {
		env.Clock = clock.New()
	}
	if env.Logger == nil {
		env.Logger = logrus.StandardLogger()
	}
	return constructor(cfg, env)
}

// GetSupportedModels 获取支持的设备型号列表
func GetSupportedModels() []string {
	defaultFactory.mutex.RLock()
	defer defaultFactory.mutex.RUnlock()

	models := make([]string, 0, len(defaultFactory.constructors))
	for model := range defaultFactory.constructors {
		models = append(models, model)
	}
	slices.Sort(models)
	return models
}
