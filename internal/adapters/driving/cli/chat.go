package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/relay-cli/internal/core/domain"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Send and list Teams chat messages",
}

var chatSendCmd = &cobra.Command{
	Use:   "send [recipient] [message]",
	Short: "Send a chat message to a Teams user",
	Long: `Send a chat message to a Teams user.

The recipient is a directory user id or an email address. An existing
one-to-one chat with the recipient is reused when one is found; otherwise a
new chat is created before the message is posted.

With --chat-id the message is posted directly into that chat (pick an id
from 'relay chat list') and no recipient is needed.

Examples:
  relay chat send alice@contoso.com "Hi Alice"
  relay chat send --chat-id 19:abc123... "Hi again"`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runChatSend,
}

var chatListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your chats and their participants",
	RunE:  runChatList,
}

// chatID is the --chat-id flag for chat send.
var chatID string

func runChatSend(cmd *cobra.Command, args []string) error {
	recipient := ""
	message := args[len(args)-1]
	if len(args) == 2 {
		recipient = args[0]
	}
	if chatID == "" && recipient == "" {
		return fmt.Errorf("a recipient or --chat-id is required")
	}

	receipt, err := chatSender.SendToUser(cmd.Context(), recipient, message, chatID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			return fmt.Errorf("recipient and message are required")
		case errors.Is(err, domain.ErrAuthRequired):
			return fmt.Errorf("not signed in; run 'relay login'")
		default:
			return fmt.Errorf("send failed: %w", err)
		}
	}

	fmt.Printf("Message sent (chat %s, message %s)\n", receipt.ChatID, receipt.MessageID)
	return nil
}

func runChatList(cmd *cobra.Command, _ []string) error {
	chats, err := chatSender.AllChats(cmd.Context())
	if err != nil {
		if errors.Is(err, domain.ErrAuthRequired) {
			return fmt.Errorf("not signed in; run 'relay login'")
		}
		return fmt.Errorf("list chats: %w", err)
	}
	if len(chats) == 0 {
		fmt.Println("No chats found.")
		return nil
	}

	for _, chat := range chats {
		names := make([]string, 0, len(chat.Participants))
		for _, p := range chat.Participants {
			names = append(names, p.DisplayName)
		}
		fmt.Printf("%s  [%s]  %s\n", chat.ID, chat.Kind, chat.Topic)
		if len(names) > 0 {
			fmt.Printf("    participants: %s\n", strings.Join(names, ", "))
		}
	}
	return nil
}

func init() {
	chatSendCmd.Flags().StringVar(&chatID, "chat-id", "", "post directly into this chat, skipping recipient resolution")

	chatCmd.AddCommand(chatSendCmd)
	chatCmd.AddCommand(chatListCmd)
	rootCmd.AddCommand(chatCmd)
}
