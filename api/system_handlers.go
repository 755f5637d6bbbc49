package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dancebot/pkg/device"
)

// handleGetSupportedModels 获取支持的设备型号
func (s *Server) handleGetSupportedModels(c *gin.Context) {
	models := device.GetSupportedModels()

	c.JSON(http.StatusOK, ApiResponse{
		Status: "success",
		Data: SupportedModelsResponse{
			Models: models,
			Total:  len(models),
		},
	})
}

// handleGetSystemStatus 获取系统状态
func (s *Server) handleGetSystemStatus(c *gin.Context) {
	devices := s.deviceManager.GetAllDevices()

	response := SystemStatusResponse{
		TotalRobots:     len(devices),
		SupportedModels: device.GetSupportedModels(),
		Robots:          make(map[string]RobotInfo, len(devices)),
		Uptime:          time.Since(s.startTime).Round(time.Second).String(),
	}
	if s.env.Library != nil {
		response.Songs = s.env.Library.Len()
	}

	for _, dev := range devices {
		info := robotInfo(dev)
		if info.Status.IsActive {
			response.ActiveRobots++
		}
		if info.Dance.Running {
			response.DancingRobots++
		}
		response.Robots[info.ID] = info
	}

	c.JSON(http.StatusOK, ApiResponse{
		Status: "success",
		Data:   response,
	})
}

// handleHealthCheck 健康检查
func (s *Server) handleHealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, ApiResponse{
		Status:  "success",
		Message: "Service is healthy",
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now(),
			Version:   s.version,
		},
	})
}
