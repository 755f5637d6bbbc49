package define

// 配置结构体
type Config struct {
	WebPort      string
	ConfigFile   string
	SongsDir     string
	LogLevel     string
	Seed         uint64
	SeedSet      bool // 显式指定了随机种子
	DefaultRobot string
}

// API 响应结构体
type ApiResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// WebSocket 消息前缀
const (
	WSSongPrefix  = "song:"
	WSLEDPrefix   = "led:"
	WSStepPrefix  = "step:"
	WSOKPrefix    = "ok:"
	WSErrorPrefix = "error:"

	WSStop   = "stop"
	WSPause  = "pause"
	WSResume = "resume"
)
