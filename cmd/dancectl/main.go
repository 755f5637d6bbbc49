package main

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"dancebot/pkg/choreography"
	_ "dancebot/pkg/device/models" // 导入以注册设备类型
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type rootOptions struct {
	configPath string
	songsDir   string
	logLevel   string
}

// newRootCmd 创建 dancectl 根命令
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "dancectl",
		Short:         "Inspect and play robot choreography",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(opts.logLevel)
			if err != nil {
				return err
			}
			logrus.SetLevel(level)
			logrus.SetOutput(cmd.ErrOrStderr())
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML 配置文件 (默认一台仿真机器人)")
	cmd.PersistentFlags().StringVar(&opts.songsDir, "songs-dir", "", "额外的歌曲目录")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "日志级别")

	cmd.AddCommand(newSongsCmd(opts), newShowCmd(opts), newPlayCmd(opts))
	return cmd
}

// loadLibrary 内置歌曲加上 --songs-dir
func (o *rootOptions) loadLibrary() (*choreography.Library, error) {
	library, err := choreography.DefaultLibrary()
	if err != nil {
		return nil, err
	}
	if o.songsDir != "" {
		if err := choreography.LoadDir(library, o.songsDir); err != nil {
			return nil, err
		}
	}
	return library, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "✗ %v\n", err)
		os.Exit(1)
	}
}
