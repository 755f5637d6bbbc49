package choreography

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"dancebot/pkg/base"
	"dancebot/pkg/servo"
)

// Executor 执行编舞指令的运动接口
type Executor interface {
	SmoothMove(ch servo.Channel, angle float64, steps int) error
	WriteAngle(ch servo.Channel, angle float64) error
	Drive(dir base.Direction, duration time.Duration) error
	StopBase() error
}

// StepListener 步骤开始前的回调（提示音、广播）
type StepListener interface {
	StepStarted(song *Song, n int)
}

// StepListenerFunc 函数形式的 StepListener
type StepListenerFunc func(song *Song, n int)

func (f StepListenerFunc) StepStarted(song *Song, n int) { f(song, n) }

// PlayerOptions 播放器配置
type PlayerOptions struct {
	Clock    clock.Clock
	Seed     uint64
	Logger   *logrus.Entry
	Listener StepListener
}

// Player 逐条解释舞蹈步骤
type Player struct {
	executor Executor
	clock    clock.Clock
	logger   *logrus.Entry
	listener StepListener

	mutex sync.Mutex // 保护 rng，同时保证同一时间只执行一个步骤
	rng   *rand.Rand
}

// NewPlayer 创建播放器，扰动使用显式种子，结果可复现
func NewPlayer(executor Executor, opts PlayerOptions) *Player {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Player{
		executor: executor,
		clock:    opts.Clock,
		logger:   opts.Logger,
		listener: opts.Listener,
		rng:      rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
	}
}

// SetListener 替换步骤回调
func (p *Player) SetListener(l StepListener) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.listener = l
}

// IntN 从播放器的随机源取 [0, n) 的整数
func (p *Player) IntN(n int) int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.rng.IntN(n)
}

// sample 按 random(lo, hi) 语义采样：lo ≤ x < hi
func (p *Player) sample(angle float64, j *Jitter) float64 {
	if j == nil {
		return angle
	}
	return angle + float64(j.Min+p.rng.IntN(j.Max-j.Min))
}

// ExecuteStep 歌曲的步骤分发：1..N 执行对应步骤，其余编号记录日志并返回 ErrUnknownStep
func (p *Player) ExecuteStep(song *Song, n int) error {
	step, ok := song.Step(n)
	if !ok {
		p.logger.WithFields(logrus.Fields{"song": song.Name, "step": n}).
			Warnf("❓ unknown step - valid steps are 1-%d for '%s'", song.StepCount(), song.Title)
		return fmt.Errorf("%w：%d（有效范围 1-%d）", ErrUnknownStep, n, song.StepCount())
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.listener != nil {
		p.listener.StepStarted(song, n)
	}
	return p.runStep(song, n, step)
}

// RunStep 执行一个不属于歌曲库的步骤（例如临时编排）
func (p *Player) RunStep(song *Song, n int, step Step) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.runStep(song, n, step)
}

func (p *Player) runStep(song *Song, n int, step Step) (err error) {
	logger := p.logger.WithFields(logrus.Fields{"song": song.Name, "step": n})
	logger.Infof("💃 %s", step.Title)

	defer func() {
		if stopErr := p.executor.StopBase(); stopErr != nil {
			err = multierr.Append(err, fmt.Errorf("停止底盘失败：%w", stopErr))
		}
	}()

	for i, cmd := range step.Commands {
		if cmdErr := p.execute(logger, cmd); cmdErr != nil {
			logger.WithError(cmdErr).Errorf("❌ 第 %d 条指令执行失败：%s", i+1, cmd)
			return fmt.Errorf("步骤 %d 第 %d 条指令 %s 失败：%w", n, i+1, cmd.Type(), cmdErr)
		}
	}
	return nil
}

func (p *Player) execute(logger *logrus.Entry, cmd Command) error {
	switch c := cmd.(type) {
	case MoveCmd:
		return p.executor.SmoothMove(c.Channel, p.sample(c.Angle, c.Jitter), c.Steps)
	case WriteCmd:
		return p.executor.WriteAngle(c.Channel, p.sample(c.Angle, c.Jitter))
	case WaitCmd:
		p.clock.Sleep(c.Duration)
		return nil
	case DriveCmd:
		return p.executor.Drive(c.Direction, c.Duration)
	case StopCmd:
		return p.executor.StopBase()
	case LogCmd:
		logger.Info(c.Text)
		return nil
	default:
		return fmt.Errorf("不支持的指令类型：%T", cmd)
	}
}
