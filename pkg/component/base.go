package component

import (
	"dancebot/pkg/base"
	"dancebot/pkg/device"
)

// DriveBase 底盘组件
type DriveBase struct {
	driver *base.Driver
	pins   []string
}

func NewDriveBase(driver *base.Driver, pins []string) *DriveBase {
	return &DriveBase{driver: driver, pins: pins}
}

func (b *DriveBase) GetID() string { return "base" }

func (b *DriveBase) GetType() device.ComponentType { return device.BaseComponent }

func (b *DriveBase) GetConfiguration() map[string]any {
	return map[string]any{
		"pins":  b.pins,
		"state": b.driver.State().String(),
	}
}

func (b *DriveBase) IsActive() bool { return b.driver.State() != base.Stop }

// Light 灯效组件
type Light struct {
	pattern func() string
}

func NewLight(pattern func() string) *Light { return &Light{pattern: pattern} }

func (l *Light) GetID() string { return "led" }

func (l *Light) GetType() device.ComponentType { return device.LightComponent }

func (l *Light) GetConfiguration() map[string]any {
	return map[string]any{
		"pattern":  l.pattern(),
		"patterns": device.LEDPatterns,
	}
}

func (l *Light) IsActive() bool { return l.pattern() != device.LEDOff }
