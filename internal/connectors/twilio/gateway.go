// Package twilio wraps the Twilio REST API as the outbound SMS gateway.
package twilio

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/custodia-labs/relay-cli/internal/core/ports/driven"
	"github.com/custodia-labs/relay-cli/internal/logger"
)

// Ensure Gateway implements the interface.
var _ driven.SMSGateway = (*Gateway)(nil)

// Gateway sends SMS through a Twilio account.
type Gateway struct {
	api  *twilio.RestClient
	from string
}

// New creates a Twilio gateway sending from the given phone number.
func New(accountSID, authToken, from string) *Gateway {
	return &Gateway{
		api: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
		from: from,
	}
}

// Send delivers one message and returns Twilio's message sid. Twilio's own
// error message is surfaced verbatim when available so the caller can show
// it to the user.
func (g *Gateway) Send(ctx context.Context, to, body string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(g.from)
	params.SetBody(body)

	msg, err := g.api.Api.CreateMessage(params)
	if err != nil {
		var restErr *twilioclient.TwilioRestError
		if errors.As(err, &restErr) && restErr.Message != "" {
			return "", fmt.Errorf("twilio: %s", restErr.Message)
		}
		return "", fmt.Errorf("twilio: send message: %w", err)
	}
	if msg.Sid == nil || *msg.Sid == "" {
		return "", errors.New("twilio: response missing message sid")
	}

	logger.Debug("twilio: message %s accepted for %s", *msg.Sid, to)
	return *msg.Sid, nil
}
