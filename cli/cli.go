package cli

import (
	"flag"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"

	"dancebot/define"
	robotconfig "dancebot/pkg/config"
)

// 解析配置
func ParseConfig(args []string) (*define.Config, error) {
	cfg := &define.Config{}

	fs := flag.NewFlagSet("dancebot", flag.ContinueOnError)
	var seed string
	fs.StringVar(&cfg.WebPort, "port", "", "Web 服务的端口（默认取配置文件，否则 9099）")
	fs.StringVar(&cfg.ConfigFile, "config", "", "YAML 配置文件路径")
	fs.StringVar(&cfg.SongsDir, "songs-dir", "", "额外的歌曲目录（*.yaml）")
	fs.StringVar(&cfg.LogLevel, "log-level", "", "日志级别 (trace, debug, info, warn, error)，默认取配置文件")
	fs.StringVar(&seed, "seed", "", "随机扰动的种子")
	fs.StringVar(&cfg.DefaultRobot, "default-robot", "", "默认机器人 ID")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// 环境变量覆盖命令行参数
	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		cfg.WebPort = envPort
	}
	if envConfig := os.Getenv("DANCEBOT_CONFIG"); envConfig != "" {
		cfg.ConfigFile = envConfig
	}
	if envSongs := os.Getenv("SONGS_DIR"); envSongs != "" {
		cfg.SongsDir = envSongs
	}
	if envLevel := os.Getenv("LOG_LEVEL"); envLevel != "" {
		cfg.LogLevel = envLevel
	}
	if envSeed := os.Getenv("DANCE_SEED"); envSeed != "" {
		seed = envSeed
	}
	if envRobot := os.Getenv("DEFAULT_ROBOT"); envRobot != "" {
		cfg.DefaultRobot = envRobot
	}

	if seed != "" {
		v, err := strconv.ParseUint(seed, 10, 64)
		if err != nil {
			return nil, err
		}
		cfg.Seed = v
		cfg.SeedSet = true
	}
	if cfg.LogLevel != "" {
		if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// LoadRobots 读取机器人配置文件并叠加命令行参数
func LoadRobots(cfg *define.Config) (*robotconfig.Config, error) {
	robots := robotconfig.GetDefaultConfig()
	if cfg.ConfigFile != "" {
		loaded, err := robotconfig.LoadConfig(cfg.ConfigFile)
		if err != nil {
			return nil, err
		}
		robots = loaded
		logrus.Infof("📄 已加载配置文件 %s", cfg.ConfigFile)
	} else {
		logrus.Info("📄 未指定配置文件，使用一台仿真机器人")
	}

	if cfg.WebPort != "" {
		port, err := strconv.Atoi(cfg.WebPort)
		if err != nil {
			return nil, err
		}
		robots.Server.Port = port
	}
	cfg.WebPort = strconv.Itoa(robots.Server.Port)

	if cfg.LogLevel != "" {
		robots.Server.LogLevel = cfg.LogLevel
	}
	cfg.LogLevel = robots.Server.LogLevel

	if cfg.SongsDir != "" {
		robots.Dance.SongsDir = cfg.SongsDir
	}
	if cfg.SeedSet {
		robots.Dance.Seed = cfg.Seed
	}
	if cfg.DefaultRobot != "" {
		robots.DefaultRobot = cfg.DefaultRobot
	}
	cfg.DefaultRobot = robots.DefaultRobot

	if err := robots.Validate(); err != nil {
		return nil, err
	}
	return robots, nil
}
