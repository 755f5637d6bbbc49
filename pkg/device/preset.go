package device

import (
	"slices"
	"sync"

	"dancebot/pkg/servo"
)

// PresetPose 定义预设姿势的结构
type PresetPose struct {
	Name        string                    // 姿势名称
	Description string                    // 姿势描述
	Angles      map[servo.Channel]float64 // 各通道目标角度，未列出的通道保持不动
	Steps       int                       // 插值步数，0 为默认
}

// PresetManager 预设姿势管理器
type PresetManager struct {
	mutex   sync.RWMutex
	presets map[string]PresetPose
}

// NewPresetManager 创建新的预设姿势管理器
func NewPresetManager() *PresetManager {
	return &PresetManager{
		presets: make(map[string]PresetPose),
	}
}

// RegisterPreset 注册一个预设姿势
func (pm *PresetManager) RegisterPreset(preset PresetPose) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	pm.presets[preset.Name] = preset
}

// GetPreset 获取指定名称的预设姿势
func (pm *PresetManager) GetPreset(name string) (PresetPose, bool) {
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()
	preset, exists := pm.presets[name]
	return preset, exists
}

// GetSupportedPresets 获取所有支持的预设姿势名称列表
func (pm *PresetManager) GetSupportedPresets() []string {
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()

	presets := make([]string, 0, len(pm.presets))
	for name := range pm.presets {
		presets = append(presets, name)
	}
	slices.Sort(presets)
	return presets
}

// GetPresetDescription 获取预设姿势的描述
func (pm *PresetManager) GetPresetDescription(name string) string {
	if preset, exists := pm.GetPreset(name); exists {
		return preset.Description
	}
	return ""
}

// Apply 通过插值把预设姿势应用到执行器，按通道编号顺序移动
func (p PresetPose) Apply(executor MotionExecutor) error {
	channels := make([]servo.Channel, 0, len(p.Angles))
	for ch := range p.Angles {
		channels = append(channels, ch)
	}
	slices.Sort(channels)

	for _, ch := range channels {
		if err := executor.SmoothMove(ch, p.Angles[ch], p.Steps); err != nil {
			return err
		}
	}
	return nil
}
