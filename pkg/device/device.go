package device

import (
	"time"

	"dancebot/pkg/base"
	"dancebot/pkg/choreography"
	"dancebot/pkg/servo"
)

// Device 代表一台可控制的跳舞机器人
type Device interface {
	GetID() string                                         // 获取设备唯一标识
	GetModel() string                                      // 获取设备型号 (例如 "sim", "esp32")
	GetComponents(componentType ComponentType) []Component // 获取指定类型的组件
	GetStatus() (DeviceStatus, error)                      // 获取设备状态
	Connect() error                                        // 连接设备
	Disconnect() error                                     // 断开设备连接

	MotionExecutor                  // 嵌入 MotionExecutor 接口，Device 需实现它
	GetDanceEngine() *DanceEngine   // 获取设备的舞蹈引擎
	SetLEDPattern(pattern string) error
	GetLEDPattern() string

	// --- 预设姿势相关方法 ---
	GetSupportedPresets() []string                 // 获取支持的预设姿势列表
	ExecutePreset(presetName string) error         // 执行预设姿势
	GetPresetDescription(presetName string) string // 获取预设姿势描述
}

// MotionExecutor 定义了执行基本运动指令的能力
type MotionExecutor interface {
	choreography.Executor

	// ResetPose 所有舵机回到初始角度，底盘停止
	ResetPose() error

	// Actuators 舵机状态表的快照
	Actuators() []servo.Actuator

	// BaseState 底盘当前状态
	BaseState() base.Direction
}

// ComponentType 定义组件类型
type ComponentType string

const (
	ActuatorComponent ComponentType = "actuator"
	BaseComponent     ComponentType = "base"
	LightComponent    ComponentType = "light"
)

// Component 代表设备的一个可插拔组件
type Component interface {
	GetID() string
	GetType() ComponentType
	GetConfiguration() map[string]any // 组件的特定配置
	IsActive() bool
}

// DeviceStatus 代表设备状态
type DeviceStatus struct {
	IsConnected bool      `json:"isConnected"`
	IsActive    bool      `json:"isActive"`
	LastUpdate  time.Time `json:"lastUpdate"`
	ErrorCount  int       `json:"errorCount"`
	LastError   string    `json:"lastError,omitempty"`
}

// LED 灯效
const (
	LEDOff       = "off"
	LEDBreathing = "breathing"
)

// LEDPatterns 控制板支持的灯效
var LEDPatterns = []string{LEDOff, LEDBreathing, "dance", "rainbow", "pulse", "chase", "wave"}

// DanceLEDPatterns 跳舞时轮换的灯效
var DanceLEDPatterns = []string{"dance", "rainbow", "pulse", "chase", "wave"}

// ValidLEDPattern 检查灯效名称
func ValidLEDPattern(pattern string) bool {
	for _, p := range LEDPatterns {
		if p == pattern {
			return true
		}
	}
	return false
}
