// Package base 驱动轮式底盘的四根方向控制线（H 桥 IN1-IN4）。
package base

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/gpio"
)

// Direction 底盘运动方向
type Direction int

const (
	Stop Direction = iota
	Forward
	Backward
	SpinLeft
	SpinRight
)

var directionNames = map[Direction]string{
	Stop:      "stop",
	Forward:   "forward",
	Backward:  "backward",
	SpinLeft:  "spin_left",
	SpinRight: "spin_right",
}

func (d Direction) String() string {
	if name, ok := directionNames[d]; ok {
		return name
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

// ParseDirection 解析方向名称
func ParseDirection(s string) (Direction, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d, name := range directionNames {
		if name == s {
			return d, nil
		}
	}
	return Stop, fmt.Errorf("未知的底盘方向：%q", s)
}

func (d *Direction) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseDirection(node.Value)
	if err != nil {
		return fmt.Errorf("第 %d 行：%w", node.Line, err)
	}
	*d = parsed
	return nil
}

func (d Direction) MarshalYAML() (any, error) { return d.String(), nil }

func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// pattern 返回 IN1..IN4 的电平
func (d Direction) pattern() [4]gpio.Level {
	switch d {
	case Forward:
		return [4]gpio.Level{gpio.High, gpio.Low, gpio.High, gpio.Low}
	case Backward:
		return [4]gpio.Level{gpio.Low, gpio.High, gpio.Low, gpio.High}
	case SpinLeft:
		return [4]gpio.Level{gpio.Low, gpio.High, gpio.High, gpio.Low}
	case SpinRight:
		return [4]gpio.Level{gpio.High, gpio.Low, gpio.Low, gpio.High}
	default:
		return [4]gpio.Level{gpio.Low, gpio.Low, gpio.Low, gpio.Low}
	}
}

// Line 一根方向控制线；gpio.PinOut 即满足该接口
type Line interface {
	Out(l gpio.Level) error
	String() string
}

// Driver 底盘驱动。Drive 在给定时长后总是自动停止，调用返回时底盘一定处于停止状态。
type Driver struct {
	lines  [4]Line
	clock  clock.Clock
	logger *logrus.Entry

	mutex sync.Mutex
	state Direction
}

// NewDriver 创建底盘驱动并尝试将所有方向线拉低
func NewDriver(lines [4]Line, clk clock.Clock, logger *logrus.Entry) (*Driver, error) {
	for i, l := range lines {
		if l == nil {
			return nil, fmt.Errorf("方向线 IN%d 未配置", i+1)
		}
	}
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	d := &Driver{lines: lines, clock: clk, logger: logger}
	if err := d.Stop(); err != nil {
		// 控制板可能尚未上线，首次运动前会再次拉低
		logger.WithError(err).Warn("⚠️ 初始化底盘时拉低方向线失败")
	}
	return d, nil
}

// State 当前方向
func (d *Driver) State() Direction {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.state
}

// release 拉低所有方向线，调用方需持有锁
func (d *Driver) release() error {
	var err error
	for _, l := range d.lines {
		err = multierr.Append(err, l.Out(gpio.Low))
	}
	d.state = Stop
	return err
}

// apply 先释放再置位，保证不会出现两个方向同时有效
func (d *Driver) apply(dir Direction) error {
	if err := d.release(); err != nil {
		return err
	}
	if dir == Stop {
		return nil
	}
	for i, level := range dir.pattern() {
		if level == gpio.High {
			if err := d.lines[i].Out(gpio.High); err != nil {
				return multierr.Append(fmt.Errorf("设置 %s 失败：%w", d.lines[i], err), d.release())
			}
		}
	}
	d.state = dir
	return nil
}

// Drive 以指定方向运行 duration 后停止
func (d *Driver) Drive(dir Direction, duration time.Duration) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if dir == Stop {
		return d.release()
	}
	if duration < 0 {
		duration = 0
	}
	if err := d.apply(dir); err != nil {
		return err
	}
	d.logger.WithField("direction", dir.String()).Debugf("🛞 运行 %s", duration)
	d.clock.Sleep(duration)
	return d.release()
}

// Forward 前进 duration 后停止
func (d *Driver) Forward(duration time.Duration) error { return d.Drive(Forward, duration) }

// Backward 后退 duration 后停止
func (d *Driver) Backward(duration time.Duration) error { return d.Drive(Backward, duration) }

// Stop 拉低所有方向线
func (d *Driver) Stop() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.release()
}
