package component

import (
	"fmt"
	"time"

	"dancebot/pkg/device"
	"dancebot/pkg/servo"
)

// Actuator 舵机组件接口
type Actuator interface {
	device.Component
	Channel() servo.Channel
	Angle() (float64, bool)
	LastUpdate() time.Time
}

// ServoActuator 挂在舵机控制器上的一个通道
type ServoActuator struct {
	controller *servo.Controller
	channel    servo.Channel
}

func NewServoActuator(controller *servo.Controller, channel servo.Channel) *ServoActuator {
	return &ServoActuator{controller: controller, channel: channel}
}

// ServoActuators 为控制器的每个通道创建组件
func ServoActuators(controller *servo.Controller) []device.Component {
	channels := controller.Mapper().Channels()
	components := make([]device.Component, 0, len(channels))
	for _, ch := range channels {
		components = append(components, NewServoActuator(controller, ch))
	}
	return components
}

func (a *ServoActuator) GetID() string { return fmt.Sprintf("servo_%s", a.channel) }

func (a *ServoActuator) GetType() device.ComponentType { return device.ActuatorComponent }

func (a *ServoActuator) GetConfiguration() map[string]any {
	cal, ok := a.controller.Mapper().Calibration(a.channel)
	if !ok {
		return map[string]any{}
	}
	return map[string]any{
		"channel":  int(cal.Channel),
		"name":     cal.Name,
		"offset":   cal.Offset,
		"inverted": cal.Inverted,
		"minAngle": cal.MinAngle,
		"maxAngle": cal.MaxAngle,
		"home":     cal.Home,
		"servoId":  cal.ServoID,
	}
}

func (a *ServoActuator) IsActive() bool {
	_, ok := a.controller.Angle(a.channel)
	return ok
}

func (a *ServoActuator) Channel() servo.Channel { return a.channel }

func (a *ServoActuator) Angle() (float64, bool) { return a.controller.Angle(a.channel) }

func (a *ServoActuator) LastUpdate() time.Time {
	for _, act := range a.controller.Snapshot() {
		if act.Channel == a.channel {
			return act.LastUpdate
		}
	}
	return time.Time{}
}
