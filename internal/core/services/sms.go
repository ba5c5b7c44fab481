package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/relay-cli/internal/core/domain"
	"github.com/custodia-labs/relay-cli/internal/core/ports/driven"
	"github.com/custodia-labs/relay-cli/internal/core/ports/driving"
	"github.com/custodia-labs/relay-cli/internal/logger"
)

// Ensure SMSService implements the interface.
var _ driving.SMSSender = (*SMSService)(nil)

// SMSService delivers text messages through the outbound gateway.
type SMSService struct {
	gateway driven.SMSGateway
}

// NewSMSService creates the SMS service.
func NewSMSService(gateway driven.SMSGateway) *SMSService {
	return &SMSService{gateway: gateway}
}

// Send validates the inputs and delivers one message. No retry state is
// retained; a failed send must be resubmitted by the caller.
func (s *SMSService) Send(ctx context.Context, to, body string) (string, error) {
	if strings.TrimSpace(to) == "" {
		return "", fmt.Errorf("%w: phone number", domain.ErrValidation)
	}
	if strings.TrimSpace(body) == "" {
		return "", fmt.Errorf("%w: message body", domain.ErrValidation)
	}

	sid, err := s.gateway.Send(ctx, to, body)
	if err != nil {
		return "", err
	}

	logger.Debug("sms: delivered to %s, sid %s", to, sid)
	return sid, nil
}

// SendBulk delivers the same body to every recipient concurrently and
// reports a per-recipient result. One failed recipient does not stop the
// others.
func (s *SMSService) SendBulk(ctx context.Context, recipients []string, body string) []domain.BulkSMSResult {
	results := make([]domain.BulkSMSResult, len(recipients))

	var wg sync.WaitGroup
	for i, to := range recipients {
		wg.Add(1)
		go func(i int, to string) {
			defer wg.Done()
			sid, err := s.Send(ctx, to, body)
			results[i] = domain.BulkSMSResult{To: to, SID: sid, Err: err}
		}(i, to)
	}
	wg.Wait()

	return results
}
