package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"dancebot/pkg/device"
)

// robotInfo 汇总一台机器人的展示信息
func robotInfo(dev device.Device) RobotInfo {
	status, err := dev.GetStatus()
	if err != nil {
		// 如果获取状态失败，使用默认状态
		status = device.DeviceStatus{
			ErrorCount: 1,
			LastError:  err.Error(),
		}
	}
	return RobotInfo{
		ID:         dev.GetID(),
		Model:      dev.GetModel(),
		LEDPattern: dev.GetLEDPattern(),
		Base:       dev.BaseState().String(),
		Dance:      dev.GetDanceEngine().Status(),
		Status:     status,
	}
}

// handleGetRobots 获取所有机器人列表
func (s *Server) handleGetRobots(c *gin.Context) {
	infos := lo.Map(s.deviceManager.GetAllDevices(), func(dev device.Device, _ int) RobotInfo {
		return robotInfo(dev)
	})

	c.JSON(http.StatusOK, ApiResponse{
		Status: "success",
		Data: RobotListResponse{
			Robots: infos,
			Total:  len(infos),
		},
	})
}

// handleCreateRobot 创建新机器人
func (s *Server) handleCreateRobot(c *gin.Context) {
	var req RobotCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "无效的机器人创建请求："+err.Error())
		return
	}

	// 检查机器人是否已存在
	if _, err := s.deviceManager.GetDevice(req.ID); err == nil {
		respondError(c, http.StatusConflict, fmt.Sprintf("设备 %s 已存在", req.ID))
		return
	}

	robotCfg, err := s.robots.PrepareRobot(req.RobotConfig)
	if err != nil {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("机器人配置无效：%v", err))
		return
	}

	dev, err := device.CreateDevice(robotCfg, s.env)
	if err != nil {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("创建设备失败：%v", err))
		return
	}

	if req.Connect == nil || *req.Connect {
		if err := dev.Connect(); err != nil {
			s.logger.WithError(err).WithField("robot", dev.GetID()).Warn("⚠️ 新建机器人连接失败")
		}
	}

	// 注册设备到管理器
	if err := s.deviceManager.RegisterDevice(dev); err != nil {
		_ = dev.Disconnect()
		respondError(c, http.StatusConflict, fmt.Sprintf("注册设备失败：%v", err))
		return
	}

	c.JSON(http.StatusCreated, ApiResponse{
		Status:  "success",
		Message: fmt.Sprintf("机器人 %s 创建成功", dev.GetID()),
		Data:    robotInfo(dev),
	})
}

// handleGetRobot 获取机器人详情
func (s *Server) handleGetRobot(c *gin.Context) {
	dev, ok := s.getRobot(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, ApiResponse{
		Status: "success",
		Data:   robotInfo(dev),
	})
}

// handleDeleteRobot 删除机器人
func (s *Server) handleDeleteRobot(c *gin.Context) {
	robotId := c.Param("robotId")

	if err := s.deviceManager.RemoveDevice(robotId); err != nil {
		respondError(c, http.StatusNotFound, err.Error())
		return
	}

	c.JSON(http.StatusOK, ApiResponse{
		Status:  "success",
		Message: fmt.Sprintf("机器人 %s 已删除", robotId),
	})
}

// handleGetRobotStatus 获取机器人连接状态
func (s *Server) handleGetRobotStatus(c *gin.Context) {
	dev, ok := s.getRobot(c)
	if !ok {
		return
	}

	status, err := dev.GetStatus()
	if err != nil {
		respondError(c, http.StatusInternalServerError, fmt.Sprintf("获取设备状态失败：%v", err))
		return
	}

	c.JSON(http.StatusOK, ApiResponse{
		Status: "success",
		Data:   status,
	})
}

// handleGetActuators 舵机状态表
func (s *Server) handleGetActuators(c *gin.Context) {
	dev, ok := s.getRobot(c)
	if !ok {
		return
	}

	actuators := dev.Actuators()
	c.JSON(http.StatusOK, ApiResponse{
		Status: "success",
		Data: ActuatorListResponse{
			Actuators: actuators,
			Total:     len(actuators),
		},
	})
}

// handleSetLED 设置灯效
func (s *Server) handleSetLED(c *gin.Context) {
	dev, ok := s.getRobot(c)
	if !ok {
		return
	}

	var req LEDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "无效的灯效请求："+err.Error())
		return
	}
	if !device.ValidLEDPattern(req.Pattern) {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("未知的灯效：%s，可选 %v", req.Pattern, device.LEDPatterns))
		return
	}

	if err := dev.SetLEDPattern(req.Pattern); err != nil {
		respondError(c, http.StatusInternalServerError, fmt.Sprintf("设置灯效失败：%v", err))
		return
	}

	c.JSON(http.StatusOK, ApiResponse{
		Status:  "success",
		Message: fmt.Sprintf("灯效已切换为 %s", req.Pattern),
		Data:    map[string]any{"pattern": req.Pattern},
	})
}
