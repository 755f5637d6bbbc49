package servo

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultSteps smoothMove 未指定步数时的插值步数
	DefaultSteps = 10
	// DefaultStepDelay 每个插值步之间的固定间隔
	DefaultStepDelay = 15 * time.Millisecond
)

// Driver 舵机输出后端
type Driver interface {
	WritePulse(p Pulse) error
	Close() error
}

// Actuator 一个舵机及其最后一次下发的角度
type Actuator struct {
	Channel     Channel     `json:"channel"`
	Name        string      `json:"name"`
	Angle       float64     `json:"angle"`
	Calibration Calibration `json:"calibration"`
	Writes      int         `json:"writes"`
	LastUpdate  time.Time   `json:"lastUpdate"`
}

// Options 控制器参数
type Options struct {
	DefaultSteps int
	StepDelay    time.Duration
	Clock        clock.Clock
	Logger       *logrus.Entry
}

// Controller 持有舵机状态表，实现平滑插值与直接写角度。
// 状态表只由本控制器修改。
type Controller struct {
	mapper       *Mapper
	driver       Driver
	clock        clock.Clock
	logger       *logrus.Entry
	defaultSteps int
	stepDelay    time.Duration

	moveMutex  sync.Mutex // 串行化所有写操作
	tableMutex sync.RWMutex
	actuators  map[Channel]*Actuator
}

// NewController 创建控制器，所有通道的初始角度取标定中的 Home
func NewController(mapper *Mapper, driver Driver, opts Options) *Controller {
	if opts.DefaultSteps <= 0 {
		opts.DefaultSteps = DefaultSteps
	}
	if opts.StepDelay < 0 {
		opts.StepDelay = 0
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.StandardLogger())
	}

	c := &Controller{
		mapper:       mapper,
		driver:       driver,
		clock:        opts.Clock,
		logger:       opts.Logger,
		defaultSteps: opts.DefaultSteps,
		stepDelay:    opts.StepDelay,
		actuators:    make(map[Channel]*Actuator),
	}
	for _, ch := range mapper.Channels() {
		cal, _ := mapper.Calibration(ch)
		c.actuators[ch] = &Actuator{
			Channel:     ch,
			Name:        cal.Name,
			Angle:       cal.Home,
			Calibration: cal,
		}
	}
	return c
}

// Mapper 返回角度映射器
func (c *Controller) Mapper() *Mapper { return c.mapper }

// StepDelay 返回插值步间隔
func (c *Controller) StepDelay() time.Duration { return c.stepDelay }

// Angle 返回通道最后下发的逻辑角度
func (c *Controller) Angle(ch Channel) (float64, bool) {
	c.tableMutex.RLock()
	defer c.tableMutex.RUnlock()
	act, ok := c.actuators[ch]
	if !ok {
		return 0, false
	}
	return act.Angle, true
}

// Snapshot 返回状态表副本（按通道升序）
func (c *Controller) Snapshot() []Actuator {
	c.tableMutex.RLock()
	defer c.tableMutex.RUnlock()
	out := make([]Actuator, 0, len(c.actuators))
	for _, ch := range c.mapper.Channels() {
		out = append(out, *c.actuators[ch])
	}
	return out
}

func (c *Controller) calibration(ch Channel) (Calibration, float64, error) {
	c.tableMutex.RLock()
	defer c.tableMutex.RUnlock()
	act, ok := c.actuators[ch]
	if !ok {
		return Calibration{}, 0, fmt.Errorf("%w：%s", ErrUnknownChannel, ch)
	}
	return act.Calibration, act.Angle, nil
}

// write 下发一次并记录角度，调用方需持有 moveMutex
func (c *Controller) write(ch Channel, angle float64) error {
	pulse, err := c.mapper.Pulse(ch, angle)
	if err != nil {
		return err
	}
	if err := c.driver.WritePulse(pulse); err != nil {
		return fmt.Errorf("通道 %s 写入失败：%w", ch, err)
	}

	c.tableMutex.Lock()
	act := c.actuators[ch]
	act.Angle = angle
	act.Writes++
	act.LastUpdate = c.clock.Now()
	c.tableMutex.Unlock()
	return nil
}

// WriteAngle 直接写入角度，不做插值（腿部舵机使用）
func (c *Controller) WriteAngle(ch Channel, angle float64) error {
	c.moveMutex.Lock()
	defer c.moveMutex.Unlock()

	cal, _, err := c.calibration(ch)
	if err != nil {
		return err
	}
	return c.write(ch, cal.ClampAngle(angle))
}

// SmoothMove 从当前角度分 steps 步移动到 target；steps <= 0 时使用默认步数。
// 目标与当前角度相同时不产生任何写入。
func (c *Controller) SmoothMove(ch Channel, target float64, steps int) error {
	c.moveMutex.Lock()
	defer c.moveMutex.Unlock()

	cal, current, err := c.calibration(ch)
	if err != nil {
		return err
	}
	if steps <= 0 {
		steps = c.defaultSteps
	}
	target = cal.ClampAngle(target)
	if target == current {
		return nil
	}

	delta := (target - current) / float64(steps)
	for i := 1; i <= steps; i++ {
		angle := current + delta*float64(i)
		if i == steps {
			angle = target
		}
		if err := c.write(ch, angle); err != nil {
			return err
		}
		c.clock.Sleep(c.stepDelay)
	}

	c.logger.WithFields(logrus.Fields{"channel": ch.String(), "steps": steps}).
		Debugf("🎯 %.1f° → %.1f°", current, target)
	return nil
}

// Home 将所有通道直接写到初始角度
func (c *Controller) Home() error {
	for _, ch := range c.mapper.Channels() {
		cal, _ := c.mapper.Calibration(ch)
		if err := c.WriteAngle(ch, cal.Home); err != nil {
			return err
		}
	}
	return nil
}

// Close 关闭输出后端
func (c *Controller) Close() error {
	return c.driver.Close()
}
