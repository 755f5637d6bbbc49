package servo

import "sync"

// Recorder 内存舵机后端，记录每一次输出（仿真与测试使用）
type Recorder struct {
	mutex   sync.Mutex
	pulses  []Pulse
	onWrite func(Pulse)
}

// NewRecorder 创建记录器，onWrite 可为 nil
func NewRecorder(onWrite func(Pulse)) *Recorder {
	return &Recorder{onWrite: onWrite}
}

func (r *Recorder) WritePulse(p Pulse) error {
	r.mutex.Lock()
	r.pulses = append(r.pulses, p)
	hook := r.onWrite
	r.mutex.Unlock()

	if hook != nil {
		hook(p)
	}
	return nil
}

// Pulses 返回全部记录的副本
func (r *Recorder) Pulses() []Pulse {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	out := make([]Pulse, len(r.pulses))
	copy(out, r.pulses)
	return out
}

// Angles 返回某通道依次写入的逻辑角度
func (r *Recorder) Angles(ch Channel) []float64 {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	var out []float64
	for _, p := range r.pulses {
		if p.Channel == ch {
			out = append(out, p.Logical)
		}
	}
	return out
}

// Reset 清空记录
func (r *Recorder) Reset() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.pulses = nil
}

func (r *Recorder) Close() error { return nil }
