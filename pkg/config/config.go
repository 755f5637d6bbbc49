package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"dancebot/pkg/servo"
)

// Config 应用配置
type Config struct {
	DefaultRobot string        `yaml:"default_robot" json:"defaultRobot"`
	Robots       []RobotConfig `yaml:"robots" json:"robots"`
	Motion       MotionConfig  `yaml:"motion" json:"motion"`
	Dance        DanceConfig   `yaml:"dance" json:"dance"`
	Server       ServerConfig  `yaml:"server" json:"server"`
}

// RobotConfig 机器人配置
type RobotConfig struct {
	ID         string              `yaml:"id" json:"id"`
	Model      string              `yaml:"model" json:"model"`
	BridgeURL  string              `yaml:"bridge_url,omitempty" json:"bridgeUrl,omitempty"`   // esp32：HTTP 桥地址
	SerialPort string              `yaml:"serial_port,omitempty" json:"serialPort,omitempty"` // feetech：串口
	BaudRate   int                 `yaml:"baud_rate,omitempty" json:"baudRate,omitempty"`
	BasePins   []string            `yaml:"base_pins,omitempty" json:"basePins,omitempty"` // IN1..IN4
	Servos     []servo.Calibration `yaml:"servos,omitempty" json:"servos,omitempty"`
	Geometry   LegGeometry         `yaml:"geometry" json:"geometry"`
}

// LegGeometry 腿部尺寸（仅记录，不参与运动计算）
type LegGeometry struct {
	UpperLength   float64 `yaml:"upper_length" json:"upperLength"`
	LowerLength   float64 `yaml:"lower_length" json:"lowerLength"`
	StepClearance float64 `yaml:"step_clearance" json:"stepClearance"`
	StepHeight    float64 `yaml:"step_height" json:"stepHeight"`
}

// MotionConfig 插值参数
type MotionConfig struct {
	DefaultSteps int           `yaml:"default_steps" json:"defaultSteps"`
	StepDelay    time.Duration `yaml:"step_delay" json:"stepDelay"`
	FrequencyHz  uint          `yaml:"frequency_hz" json:"frequencyHz"`
	Resolution   uint          `yaml:"resolution" json:"resolution"`
}

// DanceConfig 自动播放参数
type DanceConfig struct {
	Interval   time.Duration `yaml:"interval" json:"interval"`
	Seed       uint64        `yaml:"seed" json:"seed"`
	SongsDir   string        `yaml:"songs_dir,omitempty" json:"songsDir,omitempty"`
	AutoLED    bool          `yaml:"auto_led" json:"autoLed"`
	QueueDepth int           `yaml:"queue_depth" json:"queueDepth"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port       int    `yaml:"port" json:"port"`
	Host       string `yaml:"host" json:"host"`
	LogLevel   string `yaml:"log_level" json:"logLevel"`
	EnableCORS bool   `yaml:"enable_cors" json:"enableCors"`
}

const (
	ModelSim     = "sim"
	ModelESP32   = "esp32"
	ModelFeetech = "feetech"
)

// DefaultBasePins 默认的方向线引脚（IN1..IN4）
var DefaultBasePins = []string{"GPIO17", "GPIO27", "GPIO22", "GPIO23"}

// DefaultGeometry 腿部尺寸默认值（cm）
func DefaultGeometry() LegGeometry {
	return LegGeometry{UpperLength: 5.0, LowerLength: 5.7, StepClearance: 1.0, StepHeight: 10.0}
}

// applyDefaults 填充缺省值
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 9099
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Motion.DefaultSteps <= 0 {
		c.Motion.DefaultSteps = servo.DefaultSteps
	}
	if c.Motion.StepDelay <= 0 {
		c.Motion.StepDelay = servo.DefaultStepDelay
	}
	if c.Motion.FrequencyHz == 0 {
		c.Motion.FrequencyHz = servo.DefaultFrequencyHz
	}
	if c.Motion.Resolution == 0 {
		c.Motion.Resolution = servo.DefaultResolution
	}
	if c.Dance.Interval <= 0 {
		c.Dance.Interval = 5 * time.Second
	}
	if c.Dance.QueueDepth <= 0 {
		c.Dance.QueueDepth = 8
	}
	for i := range c.Robots {
		c.Robots[i].applyDefaults()
	}
	if c.DefaultRobot == "" && len(c.Robots) > 0 {
		c.DefaultRobot = c.Robots[0].ID
	}
}

func (r *RobotConfig) applyDefaults() {
	if r.Model == "" {
		r.Model = ModelSim
	}
	if len(r.Servos) == 0 {
		r.Servos = servo.StandardCalibrations()
	}
	if len(r.BasePins) == 0 {
		r.BasePins = append([]string(nil), DefaultBasePins...)
	}
	if r.Model == ModelFeetech && r.BaudRate == 0 {
		r.BaudRate = 1_000_000
	}
	if r.Geometry == (LegGeometry{}) {
		r.Geometry = DefaultGeometry()
	}
}

// PrepareRobot 为运行时新增的机器人补全默认值并校验，不会修改 c
func (c *Config) PrepareRobot(robot RobotConfig) (RobotConfig, error) {
	robot.applyDefaults()
	probe := Config{Robots: []RobotConfig{robot}, Motion: c.Motion}
	if err := probe.Validate(); err != nil {
		return RobotConfig{}, err
	}
	return robot, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	var err error
	seen := make(map[string]bool)
	for _, r := range c.Robots {
		if r.ID == "" {
			err = multierr.Append(err, fmt.Errorf("机器人缺少 id"))
			continue
		}
		if seen[r.ID] {
			err = multierr.Append(err, fmt.Errorf("机器人 %s 重复定义", r.ID))
		}
		seen[r.ID] = true
		if len(r.BasePins) != 4 {
			err = multierr.Append(err, fmt.Errorf("机器人 %s 需要 4 个方向线引脚，实际 %d 个", r.ID, len(r.BasePins)))
		}
		switch r.Model {
		case ModelESP32:
			if r.BridgeURL == "" {
				err = multierr.Append(err, fmt.Errorf("机器人 %s 缺少 bridge_url", r.ID))
			}
		case ModelFeetech:
			if r.SerialPort == "" {
				err = multierr.Append(err, fmt.Errorf("机器人 %s 缺少 serial_port", r.ID))
			}
		}
		if _, mapErr := servo.NewMapper(r.Servos, c.Motion.FrequencyHz, c.Motion.Resolution); mapErr != nil {
			err = multierr.Append(err, fmt.Errorf("机器人 %s 的舵机标定无效：%w", r.ID, mapErr))
		}
	}
	if c.DefaultRobot != "" && !seen[c.DefaultRobot] {
		err = multierr.Append(err, fmt.Errorf("默认机器人 %s 不存在", c.DefaultRobot))
	}
	return err
}

// Robot 按 ID 查找机器人配置
func (c *Config) Robot(id string) (RobotConfig, bool) {
	for _, r := range c.Robots {
		if r.ID == id {
			return r, true
		}
	}
	return RobotConfig{}, false
}

// Parse 解析 YAML 配置
func Parse(data []byte) (*Config, error) {
	var config Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败：%w", err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("配置无效：%w", err)
	}
	return &config, nil
}

// LoadConfig 从文件加载配置
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("打开配置文件失败：%w", err)
	}
	return Parse(data)
}

// SaveConfig 保存配置到文件
func SaveConfig(config *Config, configPath string) error {
	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("创建配置文件失败：%w", err)
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("保存配置文件失败：%w", err)
	}
	return encoder.Close()
}

// GetDefaultConfig 获取默认配置：一台仿真机器人
func GetDefaultConfig() *Config {
	config := &Config{
		Robots: []RobotConfig{{ID: "dancer", Model: ModelSim}},
		Server: ServerConfig{EnableCORS: true},
	}
	config.applyDefaults()
	return config
}
