package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"dancebot/api"
	"dancebot/cli"
	"dancebot/config"
	"dancebot/pkg/choreography"
	"dancebot/pkg/device"
	_ "dancebot/pkg/device/models" // 导入以注册设备类型
)

func printUsage() {
	fmt.Println("Dance Robot Motion Service")
	fmt.Println("Usage:")
	fmt.Println("  -port string            Web 服务的端口 (default: 9099)")
	fmt.Println("  -config string          YAML 配置文件 (默认一台仿真机器人)")
	fmt.Println("  -songs-dir string       额外的歌曲目录")
	fmt.Println("  -log-level string       日志级别")
	fmt.Println("  -seed uint              随机扰动的种子")
	fmt.Println("  -default-robot string   默认机器人 ID")
	fmt.Println("")
	fmt.Println("Environment Variables:")
	fmt.Println("  WEB_PORT               Web 服务的端口")
	fmt.Println("  DANCEBOT_CONFIG        YAML 配置文件")
	fmt.Println("  SONGS_DIR              额外的歌曲目录")
	fmt.Println("  LOG_LEVEL              日志级别")
	fmt.Println("  DANCE_SEED             随机扰动的种子")
	fmt.Println("  DEFAULT_ROBOT          默认机器人 ID")
	fmt.Println("")
	fmt.Println("Examples:")
	fmt.Println("  ./dancebot -config robots.yaml")
	fmt.Println("  SONGS_DIR=./songs ./dancebot -port 8080")
}

// 初始化舞曲库：内置歌曲加上外部目录
func initLibrary(logger *logrus.Logger) (*choreography.Library, error) {
	library, err := choreography.DefaultLibrary()
	if err != nil {
		return nil, err
	}
	if dir := config.Robots.Dance.SongsDir; dir != "" {
		if err := choreography.LoadDir(library, dir); err != nil {
			return nil, err
		}
		logger.Infof("🎼 已从 %s 加载额外歌曲", dir)
	}
	logger.Infof("🎶 舞曲库共 %d 首歌曲", library.Len())
	return library, nil
}

// 创建并连接配置文件中的所有机器人
func initDevices(env device.Environment) *device.DeviceManager {
	manager := device.NewDeviceManager()
	for _, robotCfg := range config.Robots.Robots {
		dev, err := device.CreateDevice(robotCfg, env)
		if err != nil {
			env.Logger.Errorf("❌ 创建机器人 %s 失败: %v", robotCfg.ID, err)
			continue
		}
		if err := dev.Connect(); err != nil {
			env.Logger.Warnf("⚠️ 连接机器人 %s 失败: %v", robotCfg.ID, err)
		}
		if err := manager.RegisterDevice(dev); err != nil {
			env.Logger.Errorf("❌ 注册机器人 %s 失败: %v", robotCfg.ID, err)
			continue
		}
		env.Logger.Infof("🤖 成功注册机器人: %s (%s)", robotCfg.ID, robotCfg.Model)
	}
	return manager
}

func main() {
	cfg, err := cli.ParseConfig(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		printUsage()
		return
	}
	if err != nil {
		logrus.Fatalf("❌ 参数错误: %v", err)
	}
	config.Config = cfg

	robots, err := cli.LoadRobots(cfg)
	if err != nil {
		logrus.Fatalf("❌ 加载配置失败: %v", err)
	}
	config.Robots = robots

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(config.LogLevel())

	logger.Printf("🚀 启动跳舞机器人服务")
	logger.Printf("🔧 服务配置：")
	logger.Printf("   - Web 端口: %s", cfg.WebPort)
	logger.Printf("   - 机器人: %d 台，默认 %s", len(robots.Robots), cfg.DefaultRobot)
	logger.Printf("   - 插值: %d 步，每步 %s", robots.Motion.DefaultSteps, robots.Motion.StepDelay)
	logger.Printf("   - 自动播放间隔: %s，随机种子 %d", robots.Dance.Interval, robots.Dance.Seed)
	if cfg.DefaultRobot != "" && !config.IsValidRobot(cfg.DefaultRobot) {
		logger.Fatalf("❌ 默认机器人 %s 不存在", cfg.DefaultRobot)
	}

	library, err := initLibrary(logger)
	if err != nil {
		logger.Fatalf("❌ 加载歌曲失败: %v", err)
	}

	env := device.Environment{
		Motion:  robots.Motion,
		Dance:   robots.Dance,
		Library: library,
		Clock:   clock.New(),
		Logger:  logger,
	}
	manager := initDevices(env)

	// 设置 Gin 模式
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()
	if robots.Server.EnableCORS {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"*"}, // 允许的域，*表示允许所有
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// 设置 API 路由
	api.NewServer(manager, robots, env).SetupRoutes(r)

	srv := &http.Server{
		Addr:    net.JoinHostPort(robots.Server.Host, cfg.WebPort),
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Printf("🌐 跳舞机器人服务运行在 http://%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("⏳ 正在关闭服务...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if closeErr := manager.Close(); closeErr != nil {
			logger.WithError(closeErr).Warn("⚠️ 关闭机器人时出错")
		}
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Fatalf("❌ 服务异常退出: %v", err)
	}
	logger.Info("👋 服务已退出")
}
