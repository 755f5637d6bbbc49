package communication

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ServoMessage 发送给 ESP32 桥的舵机输出
type ServoMessage struct {
	Channel int     `json:"channel"`         // PWM 控制器通道
	WidthUs float64 `json:"widthUs"`         // 脉宽（微秒）
	Ticks   uint16  `json:"ticks"`           // 占空比计数
	Angle   float64 `json:"angle,omitempty"` // 叠加偏移后的物理角度，仅用于调试
}

// LineMessage 底盘方向线电平
type LineMessage struct {
	Line  int  `json:"line"` // 0..3 对应 IN1..IN4
	Level bool `json:"level"`
}

// LEDMessage 灯效
type LEDMessage struct {
	Pattern string `json:"pattern"`
}

// BridgeStatus 桥的状态
type BridgeStatus struct {
	Online   bool   `json:"online"`
	Firmware string `json:"firmware,omitempty"`
	UptimeMs int64  `json:"uptimeMs,omitempty"`
}

// Communicator 定义了与机器人控制板 HTTP 桥通信的接口
type Communicator interface {
	// SendServo 输出一次舵机脉宽
	SendServo(msg ServoMessage) error

	// SetLine 设置一条方向线的电平
	SetLine(msg LineMessage) error

	// SetLED 切换灯效
	SetLED(pattern string) error

	// GetStatus 获取桥的状态
	GetStatus() (BridgeStatus, error)

	// IsConnected 检查与桥的连接状态
	IsConnected() bool
}

// BridgeClient 实现与 ESP32 桥的 HTTP 通信
type BridgeClient struct {
	serviceURL string
	client     *http.Client
}

func NewBridgeClient(serviceURL string) *BridgeClient {
	return &BridgeClient{
		serviceURL: strings.TrimRight(serviceURL, "/"),
		client: &http.Client{
			Timeout: 2 * time.Second,
		},
	}
}

func (c *BridgeClient) url(path string) string { return c.serviceURL + path }

func (c *BridgeClient) post(path string, payload any) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化消息失败：%w", err)
	}

	resp, err := c.client.Post(c.url(path), "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("发送 HTTP 请求失败：%w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("控制板返回错误：%d, %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func (c *BridgeClient) SendServo(msg ServoMessage) error { return c.post("/api/servo", msg) }

func (c *BridgeClient) SetLine(msg LineMessage) error {
	if msg.Line < 0 || msg.Line > 3 {
		return fmt.Errorf("方向线编号必须在 0-3 之间，实际为 %d", msg.Line)
	}
	return c.post("/api/line", msg)
}

func (c *BridgeClient) SetLED(pattern string) error {
	return c.post("/api/led", LEDMessage{Pattern: pattern})
}

func (c *BridgeClient) GetStatus() (BridgeStatus, error) {
	resp, err := c.client.Get(c.url("/api/status"))
	if err != nil {
		return BridgeStatus{}, fmt.Errorf("获取控制板状态失败：%w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return BridgeStatus{}, fmt.Errorf("控制板返回错误：%d", resp.StatusCode)
	}

	var status BridgeStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return BridgeStatus{}, fmt.Errorf("解析状态响应失败：%w", err)
	}
	return status, nil
}

// IsConnected 控制板可达且在线
func (c *BridgeClient) IsConnected() bool {
	status, err := c.GetStatus()
	return err == nil && status.Online
}
