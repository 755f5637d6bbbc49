package servo

import (
	"fmt"
	"math"
	"slices"

	"github.com/samber/lo"
)

const (
	DefaultMinAngle = 0.0
	DefaultMaxAngle = 180.0

	MinPulseUs uint = 500  // 绝对最小脉宽
	MaxPulseUs uint = 2500 // 绝对最大脉宽

	DefaultFrequencyHz uint = 50
	DefaultResolution  uint = 4096 // 12 位 PWM 控制器
)

// Calibration 单个舵机的标定参数
type Calibration struct {
	Channel  Channel `yaml:"channel" json:"channel"`
	Name     string  `yaml:"name,omitempty" json:"name,omitempty"`
	Offset   float64 `yaml:"offset" json:"offset"`     // 逻辑 0° 对应的物理角度
	Inverted bool    `yaml:"inverted" json:"inverted"` // 镜像安装的舵机反向
	MinAngle float64 `yaml:"min_angle" json:"minAngle"`
	MaxAngle float64 `yaml:"max_angle" json:"maxAngle"`
	Home     float64 `yaml:"home" json:"home"`
	MinUs    uint    `yaml:"min_pulse_us,omitempty" json:"minPulseUs,omitempty"`
	MaxUs    uint    `yaml:"max_pulse_us,omitempty" json:"maxPulseUs,omitempty"`
	ServoID  int     `yaml:"servo_id,omitempty" json:"servoId,omitempty"` // 总线舵机 ID
}

// withDefaults 补全未设置的字段
func (c Calibration) withDefaults() Calibration {
	if c.MinAngle == 0 && c.MaxAngle == 0 {
		c.MaxAngle = DefaultMaxAngle
	}
	if c.MinUs == 0 {
		c.MinUs = MinPulseUs
	}
	if c.MaxUs == 0 {
		c.MaxUs = MaxPulseUs
	}
	if c.Name == "" {
		c.Name = c.Channel.String()
	}
	return c
}

// Validate 检查标定参数是否合法
func (c Calibration) Validate() error {
	if c.Channel < 0 {
		return fmt.Errorf("%w：%d", ErrUnknownChannel, c.Channel)
	}
	if c.MinAngle < DefaultMinAngle || c.MaxAngle > DefaultMaxAngle || c.MinAngle >= c.MaxAngle {
		return fmt.Errorf("通道 %s 的角度范围无效：[%.1f, %.1f]", c.Channel, c.MinAngle, c.MaxAngle)
	}
	if c.MinUs < MinPulseUs || c.MaxUs > MaxPulseUs || c.MinUs >= c.MaxUs {
		return fmt.Errorf("通道 %s 的脉宽范围无效：[%d, %d]us", c.Channel, c.MinUs, c.MaxUs)
	}
	if c.Home < c.MinAngle || c.Home > c.MaxAngle {
		return fmt.Errorf("通道 %s 的初始角度 %.1f 超出范围", c.Channel, c.Home)
	}
	return nil
}

// ClampAngle 将逻辑角度限制在安全范围内
func (c Calibration) ClampAngle(angle float64) float64 {
	return lo.Clamp(angle, c.MinAngle, c.MaxAngle)
}

// Physical 逻辑角度 → 物理角度
func (c Calibration) Physical(angle float64) float64 {
	p := c.Offset + angle
	if c.Inverted {
		p = c.Offset - angle
	}
	return lo.Clamp(p, DefaultMinAngle, DefaultMaxAngle)
}

// Pulse 一次物理输出
type Pulse struct {
	Channel  Channel `json:"channel"`
	ServoID  int     `json:"servoId,omitempty"`
	Logical  float64 `json:"logical"`  // 设计者使用的角度
	Physical float64 `json:"physical"` // 叠加偏移后的角度
	WidthUs  float64 `json:"widthUs"`
	Ticks    uint16  `json:"ticks"`
}

// Mapper 角度到脉宽的映射，无内部状态
type Mapper struct {
	calibrations map[Channel]Calibration
	frequencyHz  uint
	resolution   uint
}

// NewMapper 创建映射器，frequencyHz/resolution 为 0 时使用默认值
func NewMapper(cals []Calibration, frequencyHz, resolution uint) (*Mapper, error) {
	if frequencyHz == 0 {
		frequencyHz = DefaultFrequencyHz
	}
	if resolution == 0 {
		resolution = DefaultResolution
	}
	if frequencyHz > 450 {
		return nil, fmt.Errorf("PWM 频率不应高于 450Hz，当前 %d", frequencyHz)
	}

	m := &Mapper{
		calibrations: make(map[Channel]Calibration, len(cals)),
		frequencyHz:  frequencyHz,
		resolution:   resolution,
	}
	for _, cal := range cals {
		cal = cal.withDefaults()
		if err := cal.Validate(); err != nil {
			return nil, err
		}
		if _, exists := m.calibrations[cal.Channel]; exists {
			return nil, fmt.Errorf("通道 %s 重复标定", cal.Channel)
		}
		m.calibrations[cal.Channel] = cal
	}
	return m, nil
}

// Calibration 获取通道标定
func (m *Mapper) Calibration(ch Channel) (Calibration, bool) {
	cal, ok := m.calibrations[ch]
	return cal, ok
}

// Channels 返回已标定的通道（升序）
func (m *Mapper) Channels() []Channel {
	chs := lo.Keys(m.calibrations)
	slices.Sort(chs)
	return chs
}

// Pulse 计算通道在指定逻辑角度下的输出
func (m *Mapper) Pulse(ch Channel, angle float64) (Pulse, error) {
	cal, ok := m.calibrations[ch]
	if !ok {
		return Pulse{}, fmt.Errorf("%w：%s", ErrUnknownChannel, ch)
	}

	physical := cal.Physical(angle)
	scale := float64(cal.MaxUs-cal.MinUs) / (DefaultMaxAngle - DefaultMinAngle)
	width := float64(cal.MinUs) + (physical-DefaultMinAngle)*scale

	periodUs := 1e6 / float64(m.frequencyHz)
	ticks := math.Round(width / periodUs * float64(m.resolution))
	ticks = math.Min(ticks, float64(m.resolution-1))

	return Pulse{
		Channel:  ch,
		ServoID:  cal.ServoID,
		Logical:  angle,
		Physical: physical,
		WidthUs:  width,
		Ticks:    uint16(ticks),
	}, nil
}

// Angle 脉宽 → 逻辑角度，用于回读位置
func (m *Mapper) Angle(ch Channel, widthUs float64) (float64, error) {
	cal, ok := m.calibrations[ch]
	if !ok {
		return 0, fmt.Errorf("%w：%s", ErrUnknownChannel, ch)
	}
	widthUs = lo.Clamp(widthUs, float64(cal.MinUs), float64(cal.MaxUs))
	scale := (DefaultMaxAngle - DefaultMinAngle) / float64(cal.MaxUs-cal.MinUs)
	physical := DefaultMinAngle + (widthUs-float64(cal.MinUs))*scale
	if cal.Inverted {
		return cal.Offset - physical, nil
	}
	return physical - cal.Offset, nil
}
