package choreography

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

var (
	ErrUnknownSong = errors.New("未知的歌曲")
	ErrUnknownStep = errors.New("未知的舞蹈步骤")
)

// Step 一个编排好的舞蹈步骤
type Step struct {
	Title    string
	Commands []Command
}

// Song 一首歌的全部舞蹈步骤
type Song struct {
	Name    string
	Title   string
	Artist  string
	Aliases []string
	Steps   []Step
}

// StepCount 步骤数量 N，有效步骤编号为 1..N
func (s *Song) StepCount() int { return len(s.Steps) }

// Step 按 1 起始的编号获取步骤
func (s *Song) Step(n int) (Step, bool) {
	if n < 1 || n > len(s.Steps) {
		return Step{}, false
	}
	return s.Steps[n-1], true
}

// EstimateDuration 估算步骤时长（不含总线通信耗时，扰动按区间下限计）
func (st Step) EstimateDuration(defaultSteps int, stepDelay time.Duration) time.Duration {
	var total time.Duration
	for _, cmd := range st.Commands {
		switch c := cmd.(type) {
		case MoveCmd:
			steps := c.Steps
			if steps <= 0 {
				steps = defaultSteps
			}
			total += time.Duration(steps) * stepDelay
		case WaitCmd:
			total += c.Duration
		case DriveCmd:
			total += c.Duration
		}
	}
	return total
}

// normalizeName 忽略大小写、空格、连字符、下划线和撇号
func normalizeName(name string) string {
	r := strings.NewReplacer(" ", "", "-", "", "_", "", "'", "")
	return r.Replace(strings.ToLower(strings.TrimSpace(name)))
}

// Library 歌曲库
type Library struct {
	mutex   sync.RWMutex
	songs   map[string]*Song // 规范化名称 → 歌曲
	byAlias map[string]*Song
}

// NewLibrary 创建空歌曲库
func NewLibrary() *Library {
	return &Library{
		songs:   make(map[string]*Song),
		byAlias: make(map[string]*Song),
	}
}

// Add 添加歌曲，名称或别名冲突时返回错误
func (l *Library) Add(song *Song) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	key := normalizeName(song.Name)
	if key == "" {
		return fmt.Errorf("歌曲名称不能为空")
	}
	if _, exists := l.lookup(key); exists {
		return fmt.Errorf("歌曲 %s 已存在", song.Name)
	}
	for _, alias := range song.Aliases {
		if _, exists := l.lookup(normalizeName(alias)); exists {
			return fmt.Errorf("歌曲 %s 的别名 %s 已被占用", song.Name, alias)
		}
	}

	l.songs[key] = song
	for _, alias := range song.Aliases {
		l.byAlias[normalizeName(alias)] = song
	}
	return nil
}

func (l *Library) lookup(key string) (*Song, bool) {
	if song, ok := l.songs[key]; ok {
		return song, true
	}
	song, ok := l.byAlias[key]
	return song, ok
}

// Song 按名称或别名查找
func (l *Library) Song(name string) (*Song, error) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	if song, ok := l.lookup(normalizeName(name)); ok {
		return song, nil
	}
	return nil, fmt.Errorf("%w：%s", ErrUnknownSong, name)
}

// Songs 返回全部歌曲（按名称排序）
func (l *Library) Songs() []*Song {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	out := make([]*Song, 0, len(l.songs))
	for _, song := range l.songs {
		out = append(out, song)
	}
	slices.SortFunc(out, func(a, b *Song) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Len 歌曲数量
func (l *Library) Len() int {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return len(l.songs)
}
