package sms

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ikkim/bizmarket-backend/config"
	"github.com/ikkim/bizmarket-backend/pkg/logger"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

var (
	ErrNotConfigured = errors.New("sms sender not configured")
	ErrInvalidNumber = errors.New("invalid phone number")
)

// Sender delivers a text message to a phone number.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// TwilioSender sends SMS through the Twilio messages API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioSender returns nil when credentials are missing so callers can
// treat SMS as optional.
func NewTwilioSender(cfg config.SMSConfig) *TwilioSender {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.FromNumber == "" {
		logger.Warn("Twilio credentials not set, SMS notifications disabled")
		return nil
	}
	return &TwilioSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		}),
		from: cfg.FromNumber,
	}
}

func (s *TwilioSender) Send(ctx context.Context, to, body string) error {
	if s == nil || s.client == nil {
		return ErrNotConfigured
	}
	number, err := NormalizeNumber(to)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(number)
	params.SetFrom(s.from)
	params.SetBody(body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		logger.Error("Failed to send SMS", err, map[string]interface{}{
			"to": number,
		})
		return fmt.Errorf("send sms: %w", err)
	}

	fields := map[string]interface{}{"to": number}
	if resp.Sid != nil {
		fields["sid"] = *resp.Sid
	}
	logger.Debug("SMS sent", fields)
	return nil
}

// NormalizeNumber strips formatting characters and requires an E.164-style
// number with at least 8 digits.
func NormalizeNumber(raw string) (string, error) {
	var b strings.Builder
	for i, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return "", ErrInvalidNumber
		}
	}
	number := b.String()
	digits := strings.TrimPrefix(number, "+")
	if len(digits) < 8 || len(digits) > 15 {
		return "", ErrInvalidNumber
	}
	if !strings.HasPrefix(number, "+") {
		number = "+" + number
	}
	return number, nil
}
