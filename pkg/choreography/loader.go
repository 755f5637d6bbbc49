package choreography

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v3"

	"dancebot/pkg/base"
	"dancebot/pkg/servo"
)

//go:embed songs/*.yaml
var builtinSongs embed.FS

type songFile struct {
	Name    string     `yaml:"name"`
	Title   string     `yaml:"title"`
	Artist  string     `yaml:"artist"`
	Aliases []string   `yaml:"aliases"`
	Steps   []stepFile `yaml:"steps"`
}

type stepFile struct {
	Title    string        `yaml:"title"`
	Commands []commandFile `yaml:"commands"`
}

type commandFile struct {
	Op     string         `yaml:"op"`
	Ch     *servo.Channel `yaml:"ch"`
	Angle  *float64       `yaml:"angle"`
	Jitter []int          `yaml:"jitter"`
	Steps  int            `yaml:"steps"`
	Dir    string         `yaml:"dir"`
	Ms     *int           `yaml:"ms"`
	Text   string         `yaml:"text"`
}

func (c commandFile) jitter() (*Jitter, error) {
	if c.Jitter == nil {
		return nil, nil
	}
	if len(c.Jitter) != 2 || c.Jitter[0] >= c.Jitter[1] {
		return nil, fmt.Errorf("jitter 必须是 [min, max) 且 min < max，实际为 %v", c.Jitter)
	}
	return &Jitter{Min: c.Jitter[0], Max: c.Jitter[1]}, nil
}

func (c commandFile) channel() (servo.Channel, error) {
	if c.Ch == nil {
		return 0, fmt.Errorf("%s 缺少 ch", c.Op)
	}
	if !c.Ch.IsStandard() {
		return 0, fmt.Errorf("%w：%s", servo.ErrUnknownChannel, c.Ch)
	}
	return *c.Ch, nil
}

func (c commandFile) duration() (time.Duration, error) {
	if c.Ms == nil {
		return 0, fmt.Errorf("%s 缺少 ms", c.Op)
	}
	if *c.Ms < 0 {
		return 0, fmt.Errorf("%s 的 ms 不能为负数", c.Op)
	}
	return time.Duration(*c.Ms) * time.Millisecond, nil
}

func (c commandFile) toCommand() (Command, error) {
	switch c.Op {
	case "move", "write":
		ch, err := c.channel()
		if err != nil {
			return nil, err
		}
		if c.Angle == nil {
			return nil, fmt.Errorf("%s 缺少 angle", c.Op)
		}
		jitter, err := c.jitter()
		if err != nil {
			return nil, err
		}
		if c.Op == "write" {
			if c.Steps != 0 {
				return nil, fmt.Errorf("write 不支持 steps")
			}
			return WriteCmd{Channel: ch, Angle: *c.Angle, Jitter: jitter}, nil
		}
		if c.Steps < 0 {
			return nil, fmt.Errorf("move 的 steps 不能为负数")
		}
		return MoveCmd{Channel: ch, Angle: *c.Angle, Jitter: jitter, Steps: c.Steps}, nil
	case "wait":
		d, err := c.duration()
		if err != nil {
			return nil, err
		}
		return WaitCmd{Duration: d}, nil
	case "drive":
		dir, err := base.ParseDirection(c.Dir)
		if err != nil {
			return nil, err
		}
		if dir == base.Stop {
			return nil, fmt.Errorf("drive 的方向不能是 stop，请使用 op: stop")
		}
		d, err := c.duration()
		if err != nil {
			return nil, err
		}
		return DriveCmd{Direction: dir, Duration: d}, nil
	case "stop":
		return StopCmd{}, nil
	case "log":
		if c.Text == "" {
			return nil, fmt.Errorf("log 缺少 text")
		}
		return LogCmd{Text: c.Text}, nil
	case "":
		return nil, fmt.Errorf("缺少 op")
	default:
		return nil, fmt.Errorf("未知的 op：%s", c.Op)
	}
}

// ParseSong 解析一首歌的 YAML 编舞表，source 仅用于错误信息
func ParseSong(data []byte, source string) (*Song, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f songFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s：文件为空", source)
		}
		return nil, fmt.Errorf("%s：解析失败：%w", source, err)
	}
	if f.Name == "" {
		return nil, fmt.Errorf("%s：缺少 name", source)
	}
	if len(f.Steps) == 0 {
		return nil, fmt.Errorf("%s：歌曲 %s 没有任何步骤", source, f.Name)
	}

	song := &Song{
		Name:    f.Name,
		Title:   f.Title,
		Artist:  f.Artist,
		Aliases: f.Aliases,
		Steps:   make([]Step, 0, len(f.Steps)),
	}
	if song.Title == "" {
		song.Title = f.Name
	}

	for i, sf := range f.Steps {
		step := Step{Title: sf.Title, Commands: make([]Command, 0, len(sf.Commands))}
		for j, cf := range sf.Commands {
			cmd, err := cf.toCommand()
			if err != nil {
				return nil, fmt.Errorf("%s：步骤 %d 第 %d 条指令：%w", source, i+1, j+1, err)
			}
			step.Commands = append(step.Commands, cmd)
		}
		song.Steps = append(song.Steps, step)
	}
	return song, nil
}

// LoadFS 从文件系统加载所有匹配 pattern 的歌曲
func LoadFS(lib *Library, fsys fs.FS, pattern string) error {
	names, err := fs.Glob(fsys, pattern)
	if err != nil {
		return fmt.Errorf("匹配歌曲文件失败：%w", err)
	}
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("读取 %s 失败：%w", name, err)
		}
		song, err := ParseSong(data, path.Base(name))
		if err != nil {
			return err
		}
		if err := lib.Add(song); err != nil {
			return err
		}
	}
	return nil
}

// LoadDir 加载目录中的 *.yaml 歌曲
func LoadDir(lib *Library, dir string) error {
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("歌曲目录不可用：%w", err)
	}
	return LoadFS(lib, os.DirFS(dir), "*.yaml")
}

// DefaultLibrary 返回内置的歌曲库
func DefaultLibrary() (*Library, error) {
	lib := NewLibrary()
	if err := LoadFS(lib, builtinSongs, "songs/*.yaml"); err != nil {
		return nil, err
	}
	return lib, nil
}
