package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"dancebot/pkg/choreography"
	"dancebot/pkg/config"
	"dancebot/pkg/device"
	"dancebot/pkg/servo"
)

// Server API 服务器结构体
type Server struct {
	deviceManager *device.DeviceManager
	robots        *config.Config
	env           device.Environment
	logger        *logrus.Entry
	startTime     time.Time
	version       string
}

// NewServer 创建新的 API 服务器实例
func NewServer(deviceManager *device.DeviceManager, robots *config.Config, env device.Environment) *Server {
	if env.Logger == nil {
		env.Logger = logrus.StandardLogger()
	}
	return &Server{
		deviceManager: deviceManager,
		robots:        robots,
		env:           env,
		logger:        env.Logger.WithField("component", "api"),
		startTime:     time.Now(),
		version:       "1.0.0",
	}
}

// SetupRoutes 设置 API 路由
func (s *Server) SetupRoutes(r *gin.Engine) {
	v1 := r.Group("/api/v1")
	{
		// 机器人管理路由
		robots := v1.Group("/robots")
		{
			robots.GET("", s.handleGetRobots)               // 获取所有机器人
			robots.POST("", s.handleCreateRobot)            // 创建新机器人
			robots.GET("/:robotId", s.handleGetRobot)       // 获取机器人详情
			robots.DELETE("/:robotId", s.handleDeleteRobot) // 删除机器人

			robotRoutes := robots.Group("/:robotId")
			{
				robotRoutes.GET("/status", s.handleGetRobotStatus)    // 获取机器人状态
				robotRoutes.GET("/actuators", s.handleGetActuators)   // 舵机状态表
				robotRoutes.GET("/components", s.handleGetComponents) // 组件列表
				robotRoutes.POST("/led", s.handleSetLED)              // 灯效
				robotRoutes.GET("/ws", s.handleWebSocket)             // 步骤触发 WebSocket

				// 舵机控制路由
				servos := robotRoutes.Group("/servos")
				{
					servos.POST("/move", s.handleServoMove)   // 插值移动
					servos.POST("/write", s.handleServoWrite) // 直接写角度
				}

				// 底盘控制路由
				baseRoutes := robotRoutes.Group("/base")
				{
					baseRoutes.POST("/drive", s.handleBaseDrive) // 运动一段时间后停止
					baseRoutes.POST("/stop", s.handleBaseStop)   // 停止
				}

				// 姿态控制路由
				poses := robotRoutes.Group("/poses")
				{
					poses.GET("", s.handleGetPresets)                  // 预设姿势列表
					poses.POST("/preset/:pose", s.handleSetPresetPose) // 设置预设姿势
					poses.POST("/reset", s.handleResetPose)            // 重置姿态
				}

				// 舞蹈控制路由
				dances := robotRoutes.Group("/dances")
				{
					dances.GET("", s.handleGetDances)                      // 可跳的歌曲
					dances.POST("/start", s.handleStartDance)              // 自动播放
					dances.POST("/stop", s.handleStopDance)                // 停止
					dances.POST("/pause", s.handlePauseDance)              // 暂停
					dances.POST("/resume", s.handleResumeDance)            // 恢复
					dances.GET("/status", s.handleDanceStatus)             // 播放状态
					dances.POST("/:song/steps/:step", s.handleExecuteStep) // 执行单个步骤
				}
			}
		}

		// 歌曲路由
		songs := v1.Group("/songs")
		{
			songs.GET("", s.handleGetSongs)      // 歌曲列表
			songs.GET("/:song", s.handleGetSong) // 歌曲详情
		}

		// 系统管理路由
		system := v1.Group("/system")
		{
			system.GET("/models", s.handleGetSupportedModels) // 获取支持的设备型号
			system.GET("/status", s.handleGetSystemStatus)    // 获取系统状态
			system.GET("/health", s.handleHealthCheck)        // 健康检查
		}
	}
}

// statusFor 把领域错误映射为 HTTP 状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, choreography.ErrUnknownSong):
		return http.StatusNotFound
	case errors.Is(err, choreography.ErrUnknownStep), errors.Is(err, servo.ErrUnknownChannel):
		return http.StatusBadRequest
	case errors.Is(err, device.ErrQueueFull), errors.Is(err, device.ErrClosed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, status int, msg string) {
	c.JSON(status, ApiResponse{
		Status: "error",
		Error:  msg,
	})
}

// getRobot 按路径参数获取机器人，不存在时直接返回 404
func (s *Server) getRobot(c *gin.Context) (device.Device, bool) {
	robotId := c.Param("robotId")
	dev, err := s.deviceManager.GetDevice(robotId)
	if err != nil {
		respondError(c, http.StatusNotFound, err.Error())
		return nil, false
	}
	return dev, true
}
