package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the ftt command tree.
func NewRootCommand() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:   "ftt",
		Short: "Financial Task Tracker",
		Long: `Financial Task Tracker records companies and billable tasks in a browser
page session. State lives in memory and is gone when the page is reloaded.

CONFIGURATION:
  Command-line flags > environment variables > .env file > defaults

    PORT                      HTTP port (default: 8081)
    DATA_BACKEND              memory or sqlite (default: memory)
    SESSION_TTL               Idle lifetime of a page session (default: 2h)
    MAX_SESSIONS              Sessions held at once (default: 1000)
    RATE_LIMIT_PER_MINUTE     POST requests per client IP (default: 60)
    TRUSTED_PROXIES           Comma separated CIDRs allowed to set X-Forwarded-For
    CURRENCY_SYMBOL           Amount prefix (default: $)
    LOG_LEVEL                 debug, info, warn, error (default: info)
    AMQP_URL                  Broker for add notifications (empty disables)
    AMQP_EXCHANGE             Exchange name (default: ftt)
    AMQP_QUEUE                Queue name (default: ftt_notifications)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return LoadEnvFile(envFile)
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before reading configuration")

	root.AddCommand(newServeCommand(), newNotifyCommand())
	return root
}
