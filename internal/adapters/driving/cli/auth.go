package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/relay-cli/internal/core/domain"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to your Microsoft 365 account",
	Long: `Sign in interactively and store the session credential.

In a desktop session this opens the system browser; in a headless session
(SSH, no display) it falls back to the device-code flow where you enter a
short code on another device. The flow is chosen automatically; override it
with the auth.mode config setting or RELAY_AUTH_MODE.`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear the stored session",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	RunE:  runWhoami,
}

func runLogin(cmd *cobra.Command, _ []string) error {
	if cred, err := sessionService.ActiveCredential(cmd.Context()); err == nil && cred != nil {
		fmt.Printf("Already signed in as %s\n", cred.Username)
		return nil
	}

	cred, err := sessionService.SignIn(cmd.Context())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInteractionInProgress):
			return fmt.Errorf("another sign-in is already in progress; finish it or run 'relay logout' first")
		case errors.Is(err, domain.ErrUserCancelled):
			return fmt.Errorf("sign-in was cancelled")
		default:
			return fmt.Errorf("sign-in failed: %w", err)
		}
	}

	fmt.Printf("Signed in as %s\n", cred.Username)
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	if err := sessionService.SignOut(cmd.Context()); err != nil {
		return fmt.Errorf("sign-out failed: %w", err)
	}
	fmt.Println("Signed out.")
	return nil
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	cred, err := sessionService.ActiveCredential(cmd.Context())
	if err != nil {
		return err
	}
	if cred == nil {
		return fmt.Errorf("not signed in; run 'relay login'")
	}

	fmt.Printf("Signed in as %s (sign-in flow: %s)\n", cred.Username, sessionService.FlowName())
	if cred.AccountID != "" {
		fmt.Printf("Account id: %s\n", cred.AccountID)
	}
	if !cred.Expiry.IsZero() {
		fmt.Printf("Token expires: %s\n", cred.Expiry.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}
