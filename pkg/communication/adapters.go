package communication

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"

	"dancebot/pkg/servo"
)

// ServoOutput 通过桥输出舵机脉宽，实现 servo.Driver
type ServoOutput struct {
	comm Communicator
}

func NewServoOutput(comm Communicator) *ServoOutput { return &ServoOutput{comm: comm} }

func (o *ServoOutput) WritePulse(p servo.Pulse) error {
	return o.comm.SendServo(ServoMessage{
		Channel: int(p.Channel),
		WidthUs: p.WidthUs,
		Ticks:   p.Ticks,
		Angle:   p.Physical,
	})
}

func (o *ServoOutput) Close() error { return nil }

// BridgeLine 通过桥驱动的方向线，实现 base.Line
type BridgeLine struct {
	comm  Communicator
	index int
}

// NewBridgeLines 创建 IN1..IN4 四条方向线
func NewBridgeLines(comm Communicator) [4]*BridgeLine {
	var lines [4]*BridgeLine
	for i := range lines {
		lines[i] = &BridgeLine{comm: comm, index: i}
	}
	return lines
}

func (l *BridgeLine) Out(level gpio.Level) error {
	return l.comm.SetLine(LineMessage{Line: l.index, Level: bool(level)})
}

func (l *BridgeLine) String() string { return fmt.Sprintf("IN%d", l.index+1) }
