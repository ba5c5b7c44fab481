package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/relay-cli/internal/core/domain"
)

var smsCmd = &cobra.Command{
	Use:   "sms",
	Short: "Send SMS messages",
}

var smsSendCmd = &cobra.Command{
	Use:   "send [to]... [message]",
	Short: "Send an SMS to one or more phone numbers",
	Long: `Send an SMS through the configured Twilio account.

The message is the last argument; every argument before it is a recipient
phone number. With several recipients the sends run concurrently and each
result is reported separately.

Twilio credentials come from TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and
TWILIO_PHONE_NUMBER.

Examples:
  relay sms send +15551234567 "Running late, be there in 10"
  relay sms send +15551234567 +15557654321 "Meeting moved to 3pm"
  relay sms send --signature +15551234567 "Call me back"`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSMSSend,
}

// smsSignature is the --signature flag for sms send.
var smsSignature bool

func runSMSSend(cmd *cobra.Command, args []string) error {
	recipients := args[:len(args)-1]
	message := args[len(args)-1]

	if smsSignature {
		cred, err := sessionService.ActiveCredential(cmd.Context())
		if err != nil {
			return err
		}
		if cred == nil {
			return fmt.Errorf("not signed in; run 'relay login' to include the Teams signature")
		}
		message += cred.Signature()
	}

	if len(recipients) == 1 {
		sid, err := smsSender.Send(cmd.Context(), recipients[0], message)
		if err != nil {
			if errors.Is(err, domain.ErrValidation) {
				return fmt.Errorf("phone number and message are required")
			}
			return fmt.Errorf("send failed: %w", err)
		}
		fmt.Printf("SMS sent (sid %s)\n", sid)
		return nil
	}

	results := smsSender.SendBulk(cmd.Context(), recipients, message)
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Printf("%s: failed: %v\n", r.To, r.Err)
			continue
		}
		fmt.Printf("%s: sent (sid %s)\n", r.To, r.SID)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d sends failed", failed, len(results))
	}
	return nil
}

func init() {
	smsSendCmd.Flags().BoolVar(&smsSignature, "signature", false, "append the signed-in account's Teams signature")

	smsCmd.AddCommand(smsSendCmd)
	rootCmd.AddCommand(smsCmd)
}
