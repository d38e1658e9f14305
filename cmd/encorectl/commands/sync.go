package commands

import (
	"os"

	"github.com/spf13/cobra"

	"encore/internal/lyricsync"
	"encore/internal/srt"
)

func syncCmd() *cobra.Command {
	var lyricsPath, tapsPath string
	var partial bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Replay a tap log against lyrics and print the SRT",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := os.ReadFile(lyricsPath)
			if err != nil {
				return err
			}
			f, err := os.Open(tapsPath)
			if err != nil {
				return err
			}
			defer f.Close()
			events, err := lyricsync.ParseTaps(f)
			if err != nil {
				return err
			}
			s, err := lyricsync.Replay(lyricsync.SplitLyrics(string(text)), events)
			if err != nil {
				return err
			}
			if done, total := s.Progress(); !partial && done < total {
				cmd.PrintErrf("warning: %d of %d lines timed\n", done, total)
			}
			cues := s.SRTCues()
			if err := srt.Validate(cues); err != nil {
				return err
			}
			return srt.Write(cmd.OutOrStdout(), cues)
		},
	}
	cmd.Flags().StringVar(&lyricsPath, "lyrics", "", "plain-text lyrics, one line per cue")
	cmd.Flags().StringVar(&tapsPath, "taps", "", "tap log (press/release/undo/reset per line)")
	cmd.Flags().BoolVar(&partial, "partial", false, "do not warn when some lines are untimed")
	_ = cmd.MarkFlagRequired("lyrics")
	_ = cmd.MarkFlagRequired("taps")
	return cmd
}
