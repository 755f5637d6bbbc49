package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"dancebot/pkg/device"
)

var componentTypes = []device.ComponentType{
	device.ActuatorComponent,
	device.BaseComponent,
	device.LightComponent,
}

// handleGetComponents 获取机器人的组件及其配置，可按 ?type= 过滤
func (s *Server) handleGetComponents(c *gin.Context) {
	dev, ok := s.getRobot(c)
	if !ok {
		return
	}

	types := componentTypes
	if t := c.Query("type"); t != "" {
		componentType := device.ComponentType(t)
		valid := false
		for _, known := range componentTypes {
			if known == componentType {
				valid = true
				break
			}
		}
		if !valid {
			respondError(c, http.StatusBadRequest, fmt.Sprintf("未知的组件类型：%s，可选 %v", t, componentTypes))
			return
		}
		types = []device.ComponentType{componentType}
	}

	components := make([]ComponentInfo, 0)
	for _, componentType := range types {
		for _, component := range dev.GetComponents(componentType) {
			components = append(components, ComponentInfo{
				ID:            component.GetID(),
				Type:          string(component.GetType()),
				Active:        component.IsActive(),
				Configuration: component.GetConfiguration(),
			})
		}
	}

	c.JSON(http.StatusOK, ApiResponse{
		Status: "success",
		Data: ComponentListResponse{
			Components: components,
			Total:      len(components),
		},
	})
}
