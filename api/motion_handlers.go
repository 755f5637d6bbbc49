package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dancebot/pkg/base"
	"dancebot/pkg/device"
)

// runExclusive 手动运动与舞蹈步骤互斥，正在执行的步骤结束后才开始
func runExclusive(dev device.Device, fn func() error) error {
	return dev.GetDanceEngine().RunExclusive(fn)
}

// handleServoMove 插值移动单个舵机
func (s *Server) handleServoMove(c *gin.Context) {
	dev, ok := s.getRobot(c)
	if !ok {
		return
	}

	var req ServoMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "无效的舵机请求："+err.Error())
		return
	}

	if err := runExclusive(dev, func() error { return dev.SmoothMove(*req.Channel, *req.Angle, req.Steps) }); err != nil {
		respondError(c, statusFor(err), fmt.Sprintf("舵机移动失败：%v", err))
		return
	}

	c.JSON(http.StatusOK, ApiResponse{
		Status:  "success",
		Message: fmt.Sprintf("%s 已移动到 %.1f°", *req.Channel, *req.Angle),
		Data:    dev.Actuators(),
	})
}

// handleServoWrite 直接写入目标角度
func (s *Server) handleServoWrite(c *gin.Context) {
	dev, ok := s.getRobot(c)
	if !ok {
		return
	}

	var req ServoWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "无效的舵机请求："+err.Error())
		return
	}

	if err := runExclusive(dev, func() error { return dev.WriteAngle(*req.Channel, *req.Angle) }); err != nil {
		respondError(c, statusFor(err), fmt.Sprintf("舵机写入失败：%v", err))
		return
	}

	c.JSON(http.StatusOK, ApiResponse{
		Status:  "success",
		Message: fmt.Sprintf("%s 已写入 %.1f°", *req.Channel, *req.Angle),
	})
}

// handleBaseDrive 底盘按方向运动一段时间后停止
func (s *Server) handleBaseDrive(c *gin.Context) {
	dev, ok := s.getRobot(c)
	if !ok {
		return
	}

	var req BaseDriveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "无效的底盘请求："+err.Error())
		return
	}
	if req.Direction == base.Stop {
		respondError(c, http.StatusBadRequest, "停止请使用 /base/stop")
		return
	}

	duration := time.Duration(req.DurationMs) * time.Millisecond
	if err := runExclusive(dev, func() error { return dev.Drive(req.Direction, duration) }); err != nil {
		respondError(c, statusFor(err), fmt.Sprintf("底盘运动失败：%v", err))
		return
	}

	c.JSON(http.StatusOK, ApiResponse{
		Status:  "success",
		Message: fmt.Sprintf("底盘 %s %s 完成", req.Direction, duration),
		Data:    map[string]any{"base": dev.BaseState().String()},
	})
}

// handleBaseStop 底盘停止，不等待正在执行的步骤
func (s *Server) handleBaseStop(c *gin.Context) {
	dev, ok := s.getRobot(c)
	if !ok {
		return
	}

	if err := dev.StopBase(); err != nil {
		respondError(c, http.StatusInternalServerError, fmt.Sprintf("底盘停止失败：%v", err))
		return
	}

	c.JSON(http.StatusOK, ApiResponse{
		Status:  "success",
		Message: "底盘已停止",
	})
}

// handleGetPresets 获取支持的预设姿势
func (s *Server) handleGetPresets(c *gin.Context) {
	dev, ok := s.getRobot(c)
	if !ok {
		return
	}

	presets := dev.GetSupportedPresets()
	details := make(map[string]string, len(presets))
	for _, name := range presets {
		details[name] = dev.GetPresetDescription(name)
	}

	c.JSON(http.StatusOK, ApiResponse{
		Status: "success",
		Data: map[string]any{
			"presets":      presets,
			"descriptions": details,
			"total":        len(presets),
		},
	})
}

// handleSetPresetPose 执行预设姿势
func (s *Server) handleSetPresetPose(c *gin.Context) {
	dev, ok := s.getRobot(c)
	if !ok {
		return
	}

	pose := c.Param("pose")
	if dev.GetPresetDescription(pose) == "" {
		respondError(c, http.StatusNotFound, fmt.Sprintf("预设姿势 %s 不存在", pose))
		return
	}

	if err := runExclusive(dev, func() error { return dev.ExecutePreset(pose) }); err != nil {
		respondError(c, statusFor(err), fmt.Sprintf("执行预设姿势失败：%v", err))
		return
	}

	c.JSON(http.StatusOK, ApiResponse{
		Status:  "success",
		Message: fmt.Sprintf("已设置预设姿势 %s", pose),
		Data:    dev.Actuators(),
	})
}

// handleResetPose 重置姿态：舵机回到初始角度，底盘停止
func (s *Server) handleResetPose(c *gin.Context) {
	dev, ok := s.getRobot(c)
	if !ok {
		return
	}

	if err := runExclusive(dev, dev.ResetPose); err != nil {
		respondError(c, statusFor(err), fmt.Sprintf("重置姿态失败：%v", err))
		return
	}

	c.JSON(http.StatusOK, ApiResponse{
		Status:  "success",
		Message: "姿态已重置",
		Data:    dev.Actuators(),
	})
}
