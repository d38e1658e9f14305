package commands

import (
	"github.com/spf13/cobra"
)

func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "encorectl",
		Short:         "Operator tools for lyric files and payment webhooks",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(srtCmd(), syncCmd(), webhookCmd())
	return root
}

func Execute() error {
	return NewRoot().Execute()
}
