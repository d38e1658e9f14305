package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"encore/internal/srt"
)

func srtCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "srt",
		Short: "Inspect and edit SRT subtitle files",
	}
	cmd.AddCommand(srtCheckCmd(), srtShiftCmd())
	return cmd
}

func readCues(path string) ([]srt.Cue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return srt.Parse(f)
}

func srtCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Parse and validate an SRT file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cues, err := readCues(args[0])
			if err != nil {
				return err
			}
			if err := srt.Validate(cues); err != nil {
				return err
			}
			var end time.Duration
			if len(cues) > 0 {
				end = cues[len(cues)-1].End
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d cues, ends at %s\n", len(cues), srt.FormatTimestamp(end))
			return nil
		},
	}
}

func srtShiftCmd() *cobra.Command {
	var by time.Duration
	cmd := &cobra.Command{
		Use:   "shift <file>",
		Short: "Shift every cue and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cues, err := readCues(args[0])
			if err != nil {
				return err
			}
			return srt.Write(cmd.OutOrStdout(), srt.Shift(cues, by))
		},
	}
	cmd.Flags().DurationVar(&by, "by", 0, "offset such as 1.5s or -250ms")
	_ = cmd.MarkFlagRequired("by")
	return cmd
}
