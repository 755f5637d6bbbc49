package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	robotconfig "dancebot/pkg/config"
	"dancebot/pkg/device"
	"dancebot/pkg/device/models"
)

// instantClock 跳过所有等待，用于 --dry-run
type instantClock struct {
	clock.Clock
}

func (instantClock) Sleep(time.Duration) {}

func (instantClock) After(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

type playOptions struct {
	robot    string
	seed     uint64
	dryRun   bool
	interval time.Duration
	shuffle  bool
	loop     bool
}

func newPlayCmd(root *rootOptions) *cobra.Command {
	opts := &playOptions{}
	cmd := &cobra.Command{
		Use:   "play <song> [steps...]",
		Short: "Play a whole song, or only the given steps, on a robot",
		Long: `Without step numbers the song is played from the first step to the last,
one step per interval. With step numbers each step runs once, in the order given.

--dry-run replaces the configured robot with a simulated one and skips all waits.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd, root, opts, args)
		},
	}
	cmd.Flags().StringVar(&opts.robot, "robot", "", "机器人 ID (默认取配置文件)")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "随机扰动的种子")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "在仿真机器人上执行，不等待")
	cmd.Flags().DurationVar(&opts.interval, "interval", 0, "两个步骤之间的间隔 (默认取配置文件)")
	cmd.Flags().BoolVar(&opts.shuffle, "shuffle", false, "随机抽取步骤")
	cmd.Flags().BoolVar(&opts.loop, "loop", false, "播完后从头再来")
	return cmd
}

func runPlay(cmd *cobra.Command, root *rootOptions, opts *playOptions, args []string) error {
	robots := robotconfig.GetDefaultConfig()
	if root.configPath != "" {
		loaded, err := robotconfig.LoadConfig(root.configPath)
		if err != nil {
			return err
		}
		robots = loaded
	}
	robotID := opts.robot
	if robotID == "" {
		robotID = robots.DefaultRobot
	}
	robotCfg, ok := robots.Robot(robotID)
	if !ok {
		return fmt.Errorf("机器人 %s 不存在", robotID)
	}
	if cmd.Flags().Changed("seed") {
		robots.Dance.Seed = opts.seed
	}

	library, err := root.loadLibrary()
	if err != nil {
		return err
	}
	song, err := library.Song(args[0])
	if err != nil {
		return err
	}

	env := device.Environment{
		Motion:  robots.Motion,
		Dance:   robots.Dance,
		Library: library,
		Clock:   clock.New(),
		Logger:  logrus.StandardLogger(),
	}
	if opts.dryRun {
		robotCfg.Model = robotconfig.ModelSim
		env.Clock = instantClock{Clock: clock.New()}
	}

	dev, err := device.CreateDevice(robotCfg, env)
	if err != nil {
		return err
	}
	defer dev.Disconnect()
	if err := dev.Connect(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s on %s (%s)\n", titleStyle.Render(song.Title), dimStyle.Render(fmt.Sprintf("%d steps", song.StepCount())), dev.GetID(), dev.GetModel())

	engine := dev.GetDanceEngine()
	unsubscribe := engine.Subscribe(func(ev device.StepEvent) {
		fmt.Fprintf(out, "%s %2d. %s\n", color.CyanString("▶"), ev.Step, ev.Title)
	})
	defer unsubscribe()

	if len(args) > 1 {
		err = playSteps(engine, song.Name, args[1:])
	} else {
		err = playSong(cmd.Context(), engine, song.Name, device.PlayOptions{
			Interval: opts.interval,
			Shuffle:  opts.shuffle,
			Loop:     opts.loop,
		})
	}

	if sim, ok := dev.(*models.SimRobot); ok {
		fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("%d servo pulses", len(sim.Recorder().Pulses()))))
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %s finished\n", color.GreenString("✓"), song.Title)
	return nil
}

// playSteps 依次执行给定步骤，未知步骤不影响后续步骤
func playSteps(engine *device.DanceEngine, songName string, steps []string) error {
	var errs error
	for _, arg := range steps {
		n, err := strconv.Atoi(arg)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("无效的步骤编号：%s", arg))
			continue
		}
		errs = multierr.Append(errs, engine.ExecuteStep(songName, n))
	}
	return errs
}

// playSong 自动播放整首歌，Ctrl-C 在当前步骤结束后停止
func playSong(ctx context.Context, engine *device.DanceEngine, songName string, opts device.PlayOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	if _, err := engine.Start(songName, opts); err != nil {
		return err
	}

	finished := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = engine.Stop()
		case <-finished:
		}
	}()
	engine.Wait()
	close(finished)

	if status := engine.Status(); status.LastError != "" {
		return fmt.Errorf("%s", status.LastError)
	}
	return nil
}
