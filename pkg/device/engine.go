package device

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"dancebot/pkg/choreography"
)

// defaultDanceInterval 自动播放时两个步骤开始之间的间隔
const defaultDanceInterval = 5 * time.Second

var (
	ErrQueueFull = errors.New("步骤队列已满")
	ErrClosed    = errors.New("舞蹈引擎已关闭")
)

// PlayOptions 自动播放参数
type PlayOptions struct {
	Interval time.Duration `json:"interval"` // 两个步骤开始之间的间隔
	Shuffle  bool          `json:"shuffle"`  // 随机抽取步骤
	FromStep int           `json:"fromStep"` // 顺序播放的起始步骤
	Loop     bool          `json:"loop"`     // 播完后从头再来
}

// StepEvent 步骤开始事件
type StepEvent struct {
	RunID string    `json:"runId,omitempty"`
	Song  string    `json:"song"`
	Step  int       `json:"step"`
	Title string    `json:"title"`
	Time  time.Time `json:"time"`
}

// DanceStatus 舞蹈引擎状态
type DanceStatus struct {
	RunID     string    `json:"runId,omitempty"`
	Song      string    `json:"song,omitempty"`
	Title     string    `json:"title,omitempty"`
	Step      int       `json:"step"`
	StepCount int       `json:"stepCount"`
	Completed int       `json:"completed"`
	Running   bool      `json:"running"`
	Paused    bool      `json:"paused"`
	Shuffle   bool      `json:"shuffle"`
	StartedAt time.Time `json:"startedAt,omitempty"`
	LastError string    `json:"lastError,omitempty"`
}

// EngineOptions 舞蹈引擎配置
type EngineOptions struct {
	Clock      clock.Clock
	Logger     *logrus.Entry
	Seed       uint64
	Interval   time.Duration
	QueueDepth int
	LED        func(pattern string) error // 为空时不控制灯效
}

type queuedStep struct {
	song *choreography.Song
	step int
}

// DanceEngine 管理和执行舞蹈
type DanceEngine struct {
	executor MotionExecutor
	library  *choreography.Library
	player   *choreography.Player
	clock    clock.Clock
	logger   *logrus.Entry
	interval time.Duration
	led      func(pattern string) error

	stepMutex sync.Mutex // 同一时间只执行一个步骤
	stepRun   string     // 正在执行的步骤所属的舞蹈，受 stepMutex 保护

	engineMutex sync.Mutex    // 保护以下引擎状态
	stopChan    chan struct{} // 当前舞蹈的停止通道
	resumeChan  chan struct{} // 暂停时创建，恢复时关闭
	doneChan    chan struct{} // 当前舞蹈 goroutine 退出时关闭
	status      DanceStatus
	closed      bool

	listenerMutex sync.RWMutex
	listeners     map[int]func(StepEvent)
	nextListener  int

	queue     chan queuedStep
	queueOnce sync.Once
	quit      chan struct{}
}

// NewDanceEngine 创建一个新的舞蹈引擎
func NewDanceEngine(executor MotionExecutor, library *choreography.Library, opts EngineOptions) *DanceEngine {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultDanceInterval
	}
	if opts.QueueDepth <= 0 {
		opts.QueueDepth = 8
	}

	e := &DanceEngine{
		executor:  executor,
		library:   library,
		clock:     opts.Clock,
		logger:    opts.Logger,
		interval:  opts.Interval,
		led:       opts.LED,
		listeners: make(map[int]func(StepEvent)),
		queue:     make(chan queuedStep, opts.QueueDepth),
		quit:      make(chan struct{}),
	}
	e.player = choreography.NewPlayer(executor, choreography.PlayerOptions{
		Clock:    opts.Clock,
		Seed:     opts.Seed,
		Logger:   opts.Logger,
		Listener: choreography.StepListenerFunc(e.stepStarted),
	})
	return e
}

// Library 引擎使用的歌曲库
func (e *DanceEngine) Library() *choreography.Library { return e.library }

// Subscribe 订阅步骤事件，返回取消订阅函数
func (e *DanceEngine) Subscribe(fn func(StepEvent)) func() {
	e.listenerMutex.Lock()
	defer e.listenerMutex.Unlock()

	id := e.nextListener
	e.nextListener++
	e.listeners[id] = fn
	return func() {
		e.listenerMutex.Lock()
		defer e.listenerMutex.Unlock()
		delete(e.listeners, id)
	}
}

// stepStarted 在步骤执行前由播放器调用
func (e *DanceEngine) stepStarted(song *choreography.Song, n int) {
	step, _ := song.Step(n)

	e.engineMutex.Lock()
	runID := ""
	if e.stepRun != "" && e.status.Running && e.status.RunID == e.stepRun {
		runID = e.stepRun
		e.status.Step = n
	}
	e.engineMutex.Unlock()

	if e.led != nil && runID != "" {
		pattern := DanceLEDPatterns[(n-1)%len(DanceLEDPatterns)]
		if err := e.led(pattern); err != nil {
			e.logger.WithError(err).Warnf("⚠️ 切换灯效 %s 失败", pattern)
		}
	}

	event := StepEvent{RunID: runID, Song: song.Name, Step: n, Title: step.Title, Time: e.clock.Now()}
	e.listenerMutex.RLock()
	defer e.listenerMutex.RUnlock()
	for _, fn := range e.listeners {
		fn(event)
	}
}

// ExecuteStep 同步执行一首歌的一个步骤
func (e *DanceEngine) ExecuteStep(songName string, n int) error {
	song, err := e.library.Song(songName)
	if err != nil {
		return err
	}
	return e.runStep(song, n, "")
}

// RunExclusive 持有步骤锁执行一次手动运动：等待正在执行的步骤结束，
// 执行期间不会开始新的步骤
func (e *DanceEngine) RunExclusive(fn func() error) error {
	e.stepMutex.Lock()
	defer e.stepMutex.Unlock()
	return fn()
}

// runStep 执行一个步骤，runID 为空表示不属于自动播放
func (e *DanceEngine) runStep(song *choreography.Song, n int, runID string) error {
	e.stepMutex.Lock()
	defer e.stepMutex.Unlock()

	e.stepRun = runID
	err := e.player.ExecuteStep(song, n)
	e.stepRun = ""

	e.engineMutex.Lock()
	defer e.engineMutex.Unlock()
	if err != nil {
		e.status.LastError = err.Error()
	} else if runID != "" && e.status.Running && e.status.RunID == runID {
		e.status.Completed++
	}
	return err
}

// Enqueue 把步骤放入队列，由后台 goroutine 依次执行
func (e *DanceEngine) Enqueue(songName string, n int) error {
	song, err := e.library.Song(songName)
	if err != nil {
		return err
	}
	if _, ok := song.Step(n); !ok {
		e.logger.WithFields(logrus.Fields{"song": song.Name, "step": n}).
			Warnf("❓ unknown step - valid steps are 1-%d for '%s'", song.StepCount(), song.Title)
		return fmt.Errorf("%w：%d（有效范围 1-%d）", choreography.ErrUnknownStep, n, song.StepCount())
	}

	e.engineMutex.Lock()
	closed := e.closed
	e.engineMutex.Unlock()
	if closed {
		return ErrClosed
	}

	e.queueOnce.Do(func() { go e.queueWorker() })

	select {
	case e.queue <- queuedStep{song: song, step: n}:
		return nil
	default:
		e.logger.WithFields(logrus.Fields{"song": song.Name, "step": n}).Warn("⚠️ 步骤队列已满，丢弃")
		return ErrQueueFull
	}
}

func (e *DanceEngine) queueWorker() {
	for {
		select {
		case <-e.quit:
			return
		case q := <-e.queue:
			if err := e.runStep(q.song, q.step, ""); err != nil {
				e.logger.WithError(err).Errorf("❌ 队列步骤 %s#%d 执行失败", q.song.Name, q.step)
			}
		}
	}
}

// Start 启动自动播放
func (e *DanceEngine) Start(songName string, opts PlayOptions) (string, error) {
	song, err := e.library.Song(songName)
	if err != nil {
		return "", err
	}
	if opts.Interval <= 0 {
		opts.Interval = e.interval
	}
	if opts.FromStep <= 0 {
		opts.FromStep = 1
	}
	if opts.FromStep > song.StepCount() {
		return "", fmt.Errorf("%w：%d（有效范围 1-%d）", choreography.ErrUnknownStep, opts.FromStep, song.StepCount())
	}

	e.engineMutex.Lock()
	defer e.engineMutex.Unlock()

	if e.closed {
		return "", ErrClosed
	}

	// 如果有舞蹈在运行，先发送停止信号
	if e.status.Running {
		e.logger.Infof("ℹ️ 正在停止当前舞蹈 %s 以启动 %s...", e.status.Song, song.Name)
		close(e.stopChan)
		// 旧 goroutine 退出时比较 stopChan，不会干扰新舞蹈的状态
	}

	runID := uuid.NewString()
	e.stopChan = make(chan struct{})
	e.resumeChan = nil
	e.doneChan = make(chan struct{})
	e.status = DanceStatus{
		RunID:     runID,
		Song:      song.Name,
		Title:     song.Title,
		StepCount: song.StepCount(),
		Running:   true,
		Shuffle:   opts.Shuffle,
		StartedAt: e.clock.Now(),
	}

	e.logger.WithFields(logrus.Fields{"song": song.Name, "run": runID}).
		Infof("🚀 准备启动舞蹈 %s (间隔: %s, 随机: %t)", song.Title, opts.Interval, opts.Shuffle)

	go e.runDanceLoop(song, opts, runID, e.stopChan, e.doneChan)
	return runID, nil
}

// Stop 停止当前舞蹈，正在执行的步骤会完整执行完
func (e *DanceEngine) Stop() error {
	e.engineMutex.Lock()
	defer e.engineMutex.Unlock()

	if !e.status.Running {
		e.logger.Info("ℹ️ 当前没有舞蹈在运行")
		return nil
	}

	e.logger.Infof("⏳ 正在发送停止信号给舞蹈 %s...", e.status.Song)
	close(e.stopChan)
	e.status.Running = false
	e.status.Paused = false
	return nil
}

// Pause 在当前步骤结束后暂停
func (e *DanceEngine) Pause() error {
	e.engineMutex.Lock()
	defer e.engineMutex.Unlock()

	if !e.status.Running {
		return fmt.Errorf("当前没有舞蹈在运行")
	}
	if e.status.Paused {
		return nil
	}
	e.resumeChan = make(chan struct{})
	e.status.Paused = true
	e.logger.Infof("⏸️ 舞蹈 %s 已暂停", e.status.Song)
	return nil
}

// Resume 恢复暂停的舞蹈
func (e *DanceEngine) Resume() error {
	e.engineMutex.Lock()
	defer e.engineMutex.Unlock()

	if !e.status.Running {
		return fmt.Errorf("当前没有舞蹈在运行")
	}
	if !e.status.Paused {
		return nil
	}
	close(e.resumeChan)
	e.resumeChan = nil
	e.status.Paused = false
	e.logger.Infof("▶️ 舞蹈 %s 已恢复", e.status.Song)
	return nil
}

// Status 获取引擎状态
func (e *DanceEngine) Status() DanceStatus {
	e.engineMutex.Lock()
	defer e.engineMutex.Unlock()
	return e.status
}

// IsRunning 检查是否有舞蹈在运行
func (e *DanceEngine) IsRunning() bool {
	e.engineMutex.Lock()
	defer e.engineMutex.Unlock()
	return e.status.Running
}

// Wait 等待当前舞蹈 goroutine 退出
func (e *DanceEngine) Wait() {
	e.engineMutex.Lock()
	done := e.doneChan
	e.engineMutex.Unlock()
	if done != nil {
		<-done
	}
}

// Close 停止舞蹈和队列
func (e *DanceEngine) Close() {
	_ = e.Stop()
	e.engineMutex.Lock()
	if !e.closed {
		e.closed = true
		close(e.quit)
	}
	e.engineMutex.Unlock()
	e.Wait()
}

// waitIfPaused 暂停时阻塞，返回 false 表示已被停止
func (e *DanceEngine) waitIfPaused(stopChan <-chan struct{}) bool {
	e.engineMutex.Lock()
	resume := e.resumeChan
	e.engineMutex.Unlock()
	if resume == nil {
		return true
	}
	select {
	case <-stopChan:
		return false
	case <-resume:
		return true
	}
}

// nextStep 返回下一个步骤编号，ok 为 false 表示播放结束
func (e *DanceEngine) nextStep(song *choreography.Song, opts PlayOptions, played int) (int, bool) {
	count := song.StepCount()
	if !opts.Loop && played >= count-(opts.FromStep-1) {
		return 0, false
	}
	if opts.Shuffle {
		return 1 + e.player.IntN(count), true
	}
	return (opts.FromStep-1+played)%count + 1, true
}

// runDanceLoop 是舞蹈执行的核心循环，在单独的 Goroutine 中运行。
func (e *DanceEngine) runDanceLoop(song *choreography.Song, opts PlayOptions, runID string, stopChan <-chan struct{}, done chan struct{}) {
	defer close(done)
	defer e.handleLoopExit(stopChan, song)

	logger := e.logger.WithFields(logrus.Fields{"song": song.Name, "run": runID})
	logger.Infof("▶️ 舞蹈 %s 已启动", song.Title)

	for played := 0; ; played++ {
		if !e.waitIfPaused(stopChan) {
			logger.Info("🛑 舞蹈在暂停中被停止")
			return
		}
		select {
		case <-stopChan:
			logger.Info("🛑 舞蹈被显式停止")
			return
		default:
		}

		n, ok := e.nextStep(song, opts, played)
		if !ok {
			logger.Infof("🏁 舞蹈 %s 播放完毕", song.Title)
			return
		}

		started := e.clock.Now()
		if err := e.runStep(song, n, runID); err != nil {
			logger.WithError(err).Errorf("❌ 步骤 %d 执行出错", n)
			return
		}

		if wait := opts.Interval - e.clock.Since(started); wait > 0 {
			select {
			case <-stopChan:
				logger.Info("🛑 舞蹈在步骤间隔中被停止")
				return
			case <-e.clock.After(wait):
			}
		}
	}
}

// handleLoopExit 是舞蹈 Goroutine 退出时执行的清理函数。
func (e *DanceEngine) handleLoopExit(stopChan <-chan struct{}, song *choreography.Song) {
	e.stepMutex.Lock()
	defer e.stepMutex.Unlock()

	e.engineMutex.Lock()
	active := stopChan == e.stopChan
	if active {
		// 只有仍然是活跃的舞蹈时才更新状态并重置姿态
		e.status.Running = false
		e.status.Paused = false
		e.resumeChan = nil
	}
	e.engineMutex.Unlock()

	if !active {
		e.logger.Infof("ℹ️ 旧的舞蹈 %s goroutine 退出，新舞蹈已启动，无需重置", song.Name)
		return
	}

	e.logger.Infof("👋 舞蹈 %s 已完成或停止，正在重置姿态...", song.Title)
	if err := e.executor.ResetPose(); err != nil {
		e.logger.WithError(err).Warn("⚠️ 舞蹈结束后重置姿态失败")
	} else {
		e.logger.Info("✅ 姿态已重置")
	}
	if e.led != nil {
		if err := e.led(LEDBreathing); err != nil {
			e.logger.WithError(err).Warn("⚠️ 恢复灯效失败")
		}
	}
}
