package communication

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/hipsterbrown/feetech-servo/feetech"
	"github.com/samber/lo"

	"dancebot/pkg/servo"
)

const (
	feetechResolution = 4096 // STS 系列一圈 4096 个位置
	feetechCenter     = 2048 // 物理 90° 对应的位置
)

// PositionWriter 总线舵机的同步写接口
type PositionWriter interface {
	SetPositions(ctx context.Context, positions feetech.PositionMap) error
	EnableAll(ctx context.Context) error
}

// FeetechOutput 通过 Feetech 串口总线输出舵机位置，实现 servo.Driver
type FeetechOutput struct {
	group   PositionWriter
	closer  io.Closer
	timeout time.Duration
}

// OpenFeetech 打开串口总线并使能所有舵机
func OpenFeetech(port string, baudRate int, ids []int) (*FeetechOutput, error) {
	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: baudRate,
		Protocol: feetech.ProtocolSTS,
	})
	if err != nil {
		return nil, fmt.Errorf("打开总线 %s 失败：%w", port, err)
	}

	out := NewFeetechOutput(feetech.NewServoGroupByIDs(bus, ids...), bus)
	ctx, cancel := context.WithTimeout(context.Background(), out.timeout)
	defer cancel()
	if err := out.group.EnableAll(ctx); err != nil {
		bus.Close()
		return nil, fmt.Errorf("使能舵机失败：%w", err)
	}
	return out, nil
}

func NewFeetechOutput(group PositionWriter, closer io.Closer) *FeetechOutput {
	return &FeetechOutput{group: group, closer: closer, timeout: 200 * time.Millisecond}
}

// FeetechPosition 物理角度（0-180°）→ 总线舵机原始位置
func FeetechPosition(physical float64) int {
	raw := feetechCenter + (physical-90)*feetechResolution/360
	return lo.Clamp(int(math.Round(raw)), 0, feetechResolution-1)
}

func (o *FeetechOutput) WritePulse(p servo.Pulse) error {
	if p.ServoID <= 0 {
		return fmt.Errorf("通道 %s 未配置总线舵机 ID", p.Channel)
	}

	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()

	positions := feetech.PositionMap{p.ServoID: FeetechPosition(p.Physical)}
	if err := o.group.SetPositions(ctx, positions); err != nil {
		return fmt.Errorf("写入舵机 %d 位置失败：%w", p.ServoID, err)
	}
	return nil
}

func (o *FeetechOutput) Close() error {
	if o.closer == nil {
		return nil
	}
	return o.closer.Close()
}
