package api

import (
	"time"

	"dancebot/define"
	"dancebot/pkg/base"
	"dancebot/pkg/choreography"
	"dancebot/pkg/config"
	"dancebot/pkg/device"
	"dancebot/pkg/servo"
)

// ===== 通用响应模型 =====

// ApiResponse 统一 API 响应格式
type ApiResponse = define.ApiResponse

// ===== 机器人管理相关模型 =====

// RobotCreateRequest 创建机器人请求
type RobotCreateRequest struct {
	config.RobotConfig
	Connect *bool `json:"connect,omitempty"` // 默认创建后立即连接
}

// RobotInfo 机器人信息响应
type RobotInfo struct {
	ID         string              `json:"id"`
	Model      string              `json:"model"`
	LEDPattern string              `json:"ledPattern"`
	Base       string              `json:"base"`
	Dance      device.DanceStatus  `json:"dance"`
	Status     device.DeviceStatus `json:"status"`
}

// RobotListResponse 机器人列表响应
type RobotListResponse struct {
	Robots []RobotInfo `json:"robots"`
	Total  int         `json:"total"`
}

// ActuatorListResponse 舵机状态表
type ActuatorListResponse struct {
	Actuators []servo.Actuator `json:"actuators"`
	Total     int              `json:"total"`
}

// ComponentInfo 组件信息
type ComponentInfo struct {
	ID            string         `json:"id"`
	Type          string         `json:"type"`
	Active        bool           `json:"active"`
	Configuration map[string]any `json:"configuration"`
}

// ComponentListResponse 组件列表响应
type ComponentListResponse struct {
	Components []ComponentInfo `json:"components"`
	Total      int             `json:"total"`
}

// ===== 运动控制相关模型 =====

// ServoMoveRequest 插值移动请求
type ServoMoveRequest struct {
	Channel *servo.Channel `json:"channel" binding:"required"`
	Angle   *float64       `json:"angle" binding:"required"`
	Steps   int            `json:"steps,omitempty"`
}

// ServoWriteRequest 直接写角度请求
type ServoWriteRequest struct {
	Channel *servo.Channel `json:"channel" binding:"required"`
	Angle   *float64       `json:"angle" binding:"required"`
}

// BaseDriveRequest 底盘运动请求
type BaseDriveRequest struct {
	Direction  base.Direction `json:"direction"`
	DurationMs int            `json:"durationMs" binding:"min=0,max=10000"`
}

// LEDRequest 灯效请求
type LEDRequest struct {
	Pattern string `json:"pattern" binding:"required"`
}

// ===== 舞蹈相关模型 =====

// DanceStartRequest 自动播放请求
type DanceStartRequest struct {
	Song       string `json:"song" binding:"required"`
	IntervalMs int    `json:"intervalMs,omitempty"`
	Shuffle    bool   `json:"shuffle,omitempty"`
	FromStep   int    `json:"fromStep,omitempty"`
	Loop       bool   `json:"loop,omitempty"`
}

// DanceListResponse 可跳的歌曲与当前状态
type DanceListResponse struct {
	Songs  []SongInfo         `json:"songs"`
	Status device.DanceStatus `json:"status"`
}

// SongInfo 歌曲摘要
type SongInfo struct {
	Name      string   `json:"name"`
	Title     string   `json:"title"`
	Artist    string   `json:"artist,omitempty"`
	Aliases   []string `json:"aliases,omitempty"`
	StepCount int      `json:"stepCount"`
}

// StepInfo 步骤详情
type StepInfo struct {
	Number   int      `json:"number"`
	Title    string   `json:"title"`
	Commands []string `json:"commands"`
	Estimate string   `json:"estimate"`
}

// SongDetail 歌曲详情
type SongDetail struct {
	SongInfo
	Steps []StepInfo `json:"steps"`
}

// ===== 系统管理相关模型 =====

// SystemStatusResponse 系统状态响应
type SystemStatusResponse struct {
	TotalRobots     int                  `json:"totalRobots"`
	ActiveRobots    int                  `json:"activeRobots"`
	DancingRobots   int                  `json:"dancingRobots"`
	SupportedModels []string             `json:"supportedModels"`
	Songs           int                  `json:"songs"`
	Robots          map[string]RobotInfo `json:"robots"`
	Uptime          string               `json:"uptime"`
}

// SupportedModelsResponse 支持的设备型号响应
type SupportedModelsResponse struct {
	Models []string `json:"models"`
	Total  int      `json:"total"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version,omitempty"`
}

func songInfo(song *choreography.Song) SongInfo {
	return SongInfo{
		Name:      song.Name,
		Title:     song.Title,
		Artist:    song.Artist,
		Aliases:   song.Aliases,
		StepCount: song.StepCount(),
	}
}
