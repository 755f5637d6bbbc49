package models

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"dancebot/pkg/base"
	"dancebot/pkg/component"
	"dancebot/pkg/config"
	"dancebot/pkg/device"
	"dancebot/pkg/servo"
)

// hardware 各型号提供的输出
type hardware struct {
	servo servo.Driver
	lines [4]base.Line
	led   func(pattern string) error // 为空表示不支持灯效
	probe func() error               // 连接时的探测
}

// Robot 通用跳舞机器人实现，各型号只负责组装 hardware
type Robot struct {
	id         string
	model      string
	controller *servo.Controller
	driver     *base.Driver
	engine     *device.DanceEngine
	presets    *device.PresetManager
	components map[device.ComponentType][]device.Component
	hw         hardware
	logger     *logrus.Entry

	mutex      sync.RWMutex
	status     device.DeviceStatus
	ledPattern string
}

func newRobot(cfg config.RobotConfig, env device.Environment, hw hardware) (*Robot, error) {
	logger := env.Logger.WithFields(logrus.Fields{"robot": cfg.ID, "model": cfg.Model})

	servos := cfg.Servos
	if len(servos) == 0 {
		servos = servo.StandardCalibrations()
	}
	mapper, err := servo.NewMapper(servos, env.Motion.FrequencyHz, env.Motion.Resolution)
	if err != nil {
		return nil, fmt.Errorf("创建角度映射失败：%w", err)
	}

	driver, err := base.NewDriver(hw.lines, env.Clock, logger)
	if err != nil {
		return nil, err
	}

	r := &Robot{
		id:    cfg.ID,
		model: cfg.Model,
		controller: servo.NewController(mapper, hw.servo, servo.Options{
			DefaultSteps: env.Motion.DefaultSteps,
			StepDelay:    env.Motion.StepDelay,
			Clock:        env.Clock,
			Logger:       logger,
		}),
		driver:     driver,
		presets:    device.NewPresetManager(),
		components: make(map[device.ComponentType][]device.Component),
		hw:         hw,
		logger:     logger,
		ledPattern: device.LEDBreathing,
		status: device.DeviceStatus{
			LastUpdate: env.Clock.Now(),
		},
	}

	engineOpts := device.EngineOptions{
		Clock:      env.Clock,
		Logger:     logger,
		Seed:       env.Dance.Seed,
		Interval:   env.Dance.Interval,
		QueueDepth: env.Dance.QueueDepth,
	}
	if env.Dance.AutoLED && hw.led != nil {
		engineOpts.LED = r.SetLEDPattern
	}
	r.engine = device.NewDanceEngine(r, env.Library, engineOpts)

	for _, preset := range standardPresets() {
		r.presets.RegisterPreset(preset)
	}

	r.components[device.ActuatorComponent] = component.ServoActuators(r.controller)
	r.components[device.BaseComponent] = []device.Component{component.NewDriveBase(driver, cfg.BasePins)}
	if hw.led != nil {
		r.components[device.LightComponent] = []device.Component{component.NewLight(r.GetLEDPattern)}
	}

	logger.Infof("✅ 设备 %s (%s) 创建成功", cfg.ID, cfg.Model)
	return r, nil
}

func (r *Robot) GetID() string { return r.id }

func (r *Robot) GetModel() string { return r.model }

func (r *Robot) GetDanceEngine() *device.DanceEngine { return r.engine }

// Controller 舵机控制器
func (r *Robot) Controller() *servo.Controller { return r.controller }

func (r *Robot) GetComponents(componentType device.ComponentType) []device.Component {
	if components, exists := r.components[componentType]; exists {
		result := make([]device.Component, len(components))
		copy(result, components)
		return result
	}
	return []device.Component{}
}

func (r *Robot) GetStatus() (device.DeviceStatus, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.status, nil
}

func (r *Robot) Connect() error {
	if r.hw.probe != nil {
		if err := r.hw.probe(); err != nil {
			r.recordError(err)
			return fmt.Errorf("连接设备 %s 失败：%w", r.id, err)
		}
	}

	r.mutex.Lock()
	r.status.IsConnected = true
	r.status.IsActive = true
	r.status.LastUpdate = time.Now()
	r.mutex.Unlock()

	r.logger.Infof("🔗 设备 %s 已连接", r.id)
	return nil
}

func (r *Robot) Disconnect() error {
	r.mutex.Lock()
	wasConnected := r.status.IsConnected
	r.status.IsConnected = false
	r.status.IsActive = false
	r.status.LastUpdate = time.Now()
	r.mutex.Unlock()

	var err error
	if wasConnected {
		err = multierr.Append(err, r.driver.Stop())
	}
	err = multierr.Append(err, r.controller.Close())
	r.logger.Infof("🔌 设备 %s 已断开", r.id)
	return err
}

func (r *Robot) ensureConnected() error {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if !r.status.IsConnected || !r.status.IsActive {
		return fmt.Errorf("设备 %s 未连接或未激活", r.id)
	}
	return nil
}

// track 记录一次运动的结果
func (r *Robot) track(err error) error {
	if err != nil {
		r.recordError(err)
		return err
	}
	r.mutex.Lock()
	r.status.LastUpdate = time.Now()
	r.mutex.Unlock()
	return nil
}

func (r *Robot) recordError(err error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.status.ErrorCount++
	r.status.LastError = err.Error()
}

// SmoothMove 插值移动 (实现 MotionExecutor)
func (r *Robot) SmoothMove(ch servo.Channel, angle float64, steps int) error {
	if err := r.ensureConnected(); err != nil {
		return err
	}
	return r.track(r.controller.SmoothMove(ch, angle, steps))
}

// WriteAngle 直接写角度 (实现 MotionExecutor)
func (r *Robot) WriteAngle(ch servo.Channel, angle float64) error {
	if err := r.ensureConnected(); err != nil {
		return err
	}
	return r.track(r.controller.WriteAngle(ch, angle))
}

// Drive 底盘运动，返回时已停止 (实现 MotionExecutor)
func (r *Robot) Drive(dir base.Direction, duration time.Duration) error {
	if err := r.ensureConnected(); err != nil {
		return err
	}
	return r.track(r.driver.Drive(dir, duration))
}

// StopBase 停止底盘，未连接时同样执行
func (r *Robot) StopBase() error { return r.track(r.driver.Stop()) }

// ResetPose 停止底盘，所有舵机平滑回到初始角度 (实现 MotionExecutor)
func (r *Robot) ResetPose() error {
	r.logger.Infof("🔄 正在重置设备 %s 到默认姿态...", r.id)
	err := r.StopBase()
	if connErr := r.ensureConnected(); connErr != nil {
		return multierr.Append(err, connErr)
	}
	for _, act := range r.controller.Snapshot() {
		err = multierr.Append(err, r.track(r.controller.SmoothMove(act.Channel, act.Calibration.Home, 0)))
	}
	if err != nil {
		r.logger.WithError(err).Errorf("❌ %s 重置姿态失败", r.id)
		return err
	}
	r.logger.Infof("✅ 设备 %s 已重置到默认姿态", r.id)
	return nil
}

func (r *Robot) Actuators() []servo.Actuator { return r.controller.Snapshot() }

func (r *Robot) BaseState() base.Direction { return r.driver.State() }

func (r *Robot) SetLEDPattern(pattern string) error {
	if !device.ValidLEDPattern(pattern) {
		return fmt.Errorf("未知的灯效：%s（可选 %v）", pattern, device.LEDPatterns)
	}
	if r.hw.led == nil {
		return fmt.Errorf("设备 %s 不支持灯效", r.id)
	}
	if err := r.hw.led(pattern); err != nil {
		return r.track(fmt.Errorf("切换灯效失败：%w", err))
	}

	r.mutex.Lock()
	r.ledPattern = pattern
	r.mutex.Unlock()
	r.logger.Debugf("💡 灯效切换为 %s", pattern)
	return nil
}

func (r *Robot) GetLEDPattern() string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.ledPattern
}

func (r *Robot) GetSupportedPresets() []string { return r.presets.GetSupportedPresets() }

func (r *Robot) GetPresetDescription(presetName string) string {
	return r.presets.GetPresetDescription(presetName)
}

// ExecutePreset 执行预设姿势
func (r *Robot) ExecutePreset(presetName string) error {
	preset, exists := r.presets.GetPreset(presetName)
	if !exists {
		return fmt.Errorf("预设姿势 %s 不存在", presetName)
	}
	r.logger.Infof("🤖 执行预设姿势 %s", presetName)
	return preset.Apply(r)
}
