package choreography

import (
	"fmt"
	"time"

	"dancebot/pkg/base"
	"dancebot/pkg/servo"
)

// Command 编舞中的一条指令
type Command interface {
	Type() string
	String() string
}

// Jitter 随机扰动区间 [Min, Max)
type Jitter struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func (j *Jitter) String() string {
	if j == nil {
		return ""
	}
	return fmt.Sprintf(" ±[%d,%d)", j.Min, j.Max)
}

// MoveCmd 平滑移动（插值）
type MoveCmd struct {
	Channel servo.Channel
	Angle   float64
	Jitter  *Jitter
	Steps   int // 0 表示默认步数
}

func (c MoveCmd) Type() string { return "move" }

func (c MoveCmd) String() string {
	steps := "默认步数"
	if c.Steps > 0 {
		steps = fmt.Sprintf("%d 步", c.Steps)
	}
	return fmt.Sprintf("move %s → %g°%s (%s)", c.Channel, c.Angle, c.Jitter, steps)
}

// WriteCmd 直接写角度
type WriteCmd struct {
	Channel servo.Channel
	Angle   float64
	Jitter  *Jitter
}

func (c WriteCmd) Type() string { return "write" }

func (c WriteCmd) String() string {
	return fmt.Sprintf("write %s = %g°%s", c.Channel, c.Angle, c.Jitter)
}

// WaitCmd 固定延时
type WaitCmd struct{ Duration time.Duration }

func (c WaitCmd) Type() string { return "wait" }

func (c WaitCmd) String() string { return fmt.Sprintf("wait %s", c.Duration) }

// DriveCmd 底盘运动，结束后自动停止
type DriveCmd struct {
	Direction base.Direction
	Duration  time.Duration
}

func (c DriveCmd) Type() string { return "drive" }

func (c DriveCmd) String() string { return fmt.Sprintf("drive %s %s", c.Direction, c.Duration) }

// StopCmd 停止底盘
type StopCmd struct{}

func (c StopCmd) Type() string { return "stop" }

func (c StopCmd) String() string { return "stop" }

// LogCmd 步骤中间的提示信息
type LogCmd struct{ Text string }

func (c LogCmd) Type() string { return "log" }

func (c LogCmd) String() string { return fmt.Sprintf("log %q", c.Text) }
