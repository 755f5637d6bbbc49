package base

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/host/v3"
)

var hostInit sync.Once
var hostInitErr error

// OpenGPIOLines 通过 periph 按名称打开四根方向线（例如 "GPIO17"）
func OpenGPIOLines(names [4]string) ([4]Line, error) {
	var lines [4]Line

	hostInit.Do(func() {
		_, hostInitErr = host.Init()
	})
	if hostInitErr != nil {
		return lines, fmt.Errorf("初始化 GPIO 失败：%w", hostInitErr)
	}

	for i, name := range names {
		if name == "" {
			return lines, fmt.Errorf("方向线 IN%d 未配置引脚", i+1)
		}
		pin := gpioreg.ByName(name)
		if pin == nil {
			return lines, fmt.Errorf("找不到 GPIO 引脚 %s", name)
		}
		lines[i] = pin
	}
	return lines, nil
}

// NewFakeLines 创建内存中的方向线（仿真机型使用）
func NewFakeLines() ([4]Line, [4]*gpiotest.Pin) {
	var lines [4]Line
	var pins [4]*gpiotest.Pin
	for i := range pins {
		pins[i] = &gpiotest.Pin{N: fmt.Sprintf("IN%d", i+1), Num: i + 1}
		lines[i] = pins[i]
	}
	return lines, pins
}
