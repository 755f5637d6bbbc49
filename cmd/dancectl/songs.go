package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"dancebot/pkg/choreography"
	robotconfig "dancebot/pkg/config"
)

func newSongsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "songs",
		Short: "List the songs in the library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			library, err := opts.loadLibrary()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "NAME\tTITLE\tSTEPS\tALIASES")
			fmt.Fprintln(w, "----\t-----\t-----\t-------")
			for _, song := range library.Songs() {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", song.Name, song.Title, song.StepCount(), strings.Join(song.Aliases, ", "))
			}
			return w.Flush()
		},
	}
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <song> [step]",
		Short: "Print the commands of a song or of one step",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			library, err := opts.loadLibrary()
			if err != nil {
				return err
			}
			song, err := library.Song(args[0])
			if err != nil {
				return err
			}

			motion := robotconfig.GetDefaultConfig().Motion
			out := cmd.OutOrStdout()
			header := song.Title
			if song.Artist != "" {
				header += " - " + song.Artist
			}
			fmt.Fprintln(out, titleStyle.Render(header))

			first, last := 1, song.StepCount()
			if len(args) == 2 {
				n, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("无效的步骤编号：%s", args[1])
				}
				if _, ok := song.Step(n); !ok {
					return fmt.Errorf("%w：%d（有效范围 1-%d）", choreography.ErrUnknownStep, n, song.StepCount())
				}
				first, last = n, n
			}

			for n := first; n <= last; n++ {
				step, _ := song.Step(n)
				estimate := step.EstimateDuration(motion.DefaultSteps, motion.StepDelay)
				fmt.Fprintf(out, "%2d. %s %s\n", n, step.Title, dimStyle.Render("~"+estimate.String()))
				for _, c := range step.Commands {
					fmt.Fprintf(out, "      %s\n", c)
				}
			}
			return nil
		},
	}
}
