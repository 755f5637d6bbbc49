package servo

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownChannel 通道不存在
var ErrUnknownChannel = errors.New("未知的舵机通道")

// Channel 舵机通道编号
type Channel int

// 手臂通道 0-5，腿部通道按名称寻址
const (
	LeftShoulder  Channel = 0
	LeftElbow     Channel = 1
	LeftWrist     Channel = 2
	RightShoulder Channel = 3
	RightElbow    Channel = 4
	RightWrist    Channel = 5

	Leg1Hip   Channel = 6
	Leg1Knee  Channel = 7
	Leg1Ankle Channel = 8
	Leg2Hip   Channel = 9
	Leg2Knee  Channel = 10
	Leg2Ankle Channel = 11
)

var channelNames = map[Channel]string{
	LeftShoulder:  "left_shoulder",
	LeftElbow:     "left_elbow",
	LeftWrist:     "left_wrist",
	RightShoulder: "right_shoulder",
	RightElbow:    "right_elbow",
	RightWrist:    "right_wrist",
	Leg1Hip:       "leg1_hip",
	Leg1Knee:      "leg1_knee",
	Leg1Ankle:     "leg1_ankle",
	Leg2Hip:       "leg2_hip",
	Leg2Knee:      "leg2_knee",
	Leg2Ankle:     "leg2_ankle",
}

// StandardChannels 返回标准机型的全部通道（按编号排序）
func StandardChannels() []Channel {
	return []Channel{
		LeftShoulder, LeftElbow, LeftWrist,
		RightShoulder, RightElbow, RightWrist,
		Leg1Hip, Leg1Knee, Leg1Ankle,
		Leg2Hip, Leg2Knee, Leg2Ankle,
	}
}

// IsStandard 判断通道是否属于标准机型
func (c Channel) IsStandard() bool {
	_, ok := channelNames[c]
	return ok
}

// IsLeg 判断是否为腿部通道
func (c Channel) IsLeg() bool { return c >= Leg1Hip && c <= Leg2Ankle }

func (c Channel) String() string {
	if name, ok := channelNames[c]; ok {
		return name
	}
	return strconv.Itoa(int(c))
}

// ParseChannel 解析通道，支持数字或名称（如 "leg1_hip"）
func ParseChannel(s string) (Channel, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("%w：%d", ErrUnknownChannel, n)
		}
		return Channel(n), nil
	}
	name := strings.ToLower(s)
	for ch, n := range channelNames {
		if n == name {
			return ch, nil
		}
	}
	return 0, fmt.Errorf("%w：%s", ErrUnknownChannel, s)
}

// UnmarshalYAML 允许编舞表中使用数字或名称
func (c *Channel) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("第 %d 行：通道必须是数字或名称", node.Line)
	}
	ch, err := ParseChannel(node.Value)
	if err != nil {
		return fmt.Errorf("第 %d 行：%w", node.Line, err)
	}
	*c = ch
	return nil
}

// MarshalYAML 腿部通道输出名称，手臂通道输出数字
func (c Channel) MarshalYAML() (any, error) {
	if c.IsLeg() {
		return c.String(), nil
	}
	return int(c), nil
}

// UnmarshalJSON 与 YAML 相同的规则
func (c *Channel) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var s string
	switch v := raw.(type) {
	case float64:
		if v != float64(int(v)) {
			return fmt.Errorf("%w：%v", ErrUnknownChannel, v)
		}
		s = strconv.Itoa(int(v))
	case string:
		s = v
	default:
		return fmt.Errorf("通道必须是数字或名称，实际为 %T", raw)
	}
	ch, err := ParseChannel(s)
	if err != nil {
		return err
	}
	*c = ch
	return nil
}
