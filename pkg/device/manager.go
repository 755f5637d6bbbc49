package device

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.uber.org/multierr"
)

// DeviceManager 管理设备实例
type DeviceManager struct {
	devices map[string]Device
	mutex   sync.RWMutex
}

func NewDeviceManager() *DeviceManager { return &DeviceManager{devices: make(map[string]Device)} }

func (m *DeviceManager) RegisterDevice(dev Device) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	id := dev.GetID()
	if _, exists := m.devices[id]; exists {
		return fmt.Errorf("设备 %s 已存在", id)
	}

	m.devices[id] = dev
	return nil
}

func (m *DeviceManager) GetDevice(id string) (Device, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	dev, exists := m.devices[id]
	if !exists {
		return nil, fmt.Errorf("设备 %s 不存在", id)
	}

	return dev, nil
}

// GetAllDevices 按 ID 排序返回所有设备
func (m *DeviceManager) GetAllDevices() []Device {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	devices := make([]Device, 0, len(m.devices))
	for _, dev := range m.devices {
		devices = append(devices, dev)
	}
	slices.SortFunc(devices, func(a, b Device) int { return strings.Compare(a.GetID(), b.GetID()) })

	return devices
}

// RemoveDevice 移除设备，先停止舞蹈并断开连接
func (m *DeviceManager) RemoveDevice(id string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	dev, exists := m.devices[id]
	if !exists {
		return fmt.Errorf("设备 %s 不存在", id)
	}

	delete(m.devices, id)
	if engine := dev.GetDanceEngine(); engine != nil {
		engine.Close()
	}
	return dev.Disconnect()
}

// Close 断开所有设备
func (m *DeviceManager) Close() error {
	var err error
	for _, dev := range m.GetAllDevices() {
		err = multierr.Append(err, m.RemoveDevice(dev.GetID()))
	}
	return err
}
