package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/relay-cli/internal/core/ports/driving"
	"github.com/custodia-labs/relay-cli/internal/logger"
)

var (
	// Version is set by goreleaser ldflags.
	version = "dev"

	// Verbose enables debug logging.
	verbose bool

	// Services holds injected service implementations for CLI commands.
	chatSender     driving.ChatSender
	smsSender      driving.SMSSender
	sessionService driving.SessionService

	// gatewayAddr is the listen address for the serve command.
	gatewayAddr string
)

// Services holds configuration for CLI commands.
type Services struct {
	Chat        driving.ChatSender
	SMS         driving.SMSSender
	Session     driving.SessionService
	GatewayAddr string
}

// SetServices injects service implementations for CLI commands.
func SetServices(s *Services) {
	if s == nil {
		return
	}
	chatSender = s.Chat
	smsSender = s.SMS
	sessionService = s.Session
	gatewayAddr = s.GatewayAddr
}

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "relay",
	Short: "Send Teams chat messages and SMS from the command line",
	Long: `Relay sends messages to Microsoft Teams users and to phone numbers.

Teams messages go through Microsoft Graph using your signed-in Microsoft 365
account; SMS goes through a Twilio account configured via the environment.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string for the CLI.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose debug output")

	// Use PersistentPreRunE to set verbose mode before any command executes
	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		return nil
	}
}
