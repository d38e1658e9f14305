package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"encore/internal/webhook"
)

func webhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Payment webhook helpers",
	}
	cmd.AddCommand(webhookSignCmd())
	return cmd
}

// sign prints a header for replaying a captured event against a local server.
func webhookSignCmd() *cobra.Command {
	var secret, file string
	var at int64
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Print an " + webhook.Header + " header for a request body",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("WEBHOOK_SECRET")
			}
			if secret == "" {
				return fmt.Errorf("secret required (--secret or WEBHOOK_SECRET)")
			}
			body, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			ts := time.Now()
			if at > 0 {
				ts = time.Unix(at, 0)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", webhook.Header, webhook.Sign([]byte(secret), ts, body))
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "signing secret (default $WEBHOOK_SECRET)")
	cmd.Flags().StringVar(&file, "file", "", "request body to sign")
	cmd.Flags().Int64Var(&at, "at", 0, "unix timestamp to sign with (default now)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
