package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SmsSender delivers a text message to a phone number.
type SmsSender interface {
	Send(ctx context.Context, to, body string) error
}

const twilioBaseURL = "https://api.twilio.com"

// TwilioSender delivers messages through the Twilio REST API. Delivery is a
// synchronous call made inline in the request cycle; there is no retry.
type TwilioSender struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewTwilioSender(accountSID, authToken, from string, logger *zap.Logger) *TwilioSender {
	return &TwilioSender{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		baseURL:    twilioBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// Send posts a form-encoded message create request to the Twilio Messages
// endpoint.
func (s *TwilioSender) Send(ctx context.Context, to, body string) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, s.accountSID)

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", s.from)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build sms request: %w", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		s.logger.Error("Twilio rejected message",
			zap.Int("status_code", resp.StatusCode),
			zap.ByteString("response", respBody),
		)
		return fmt.Errorf("twilio returned status %d", resp.StatusCode)
	}

	s.logger.Debug("SMS delivered",
		zap.Int("status_code", resp.StatusCode),
	)

	return nil
}

// LogSender writes messages to the logger instead of delivering them. Used
// when no Twilio credentials are configured.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, to, body string) error {
	s.logger.Info("SMS (log only)",
		zap.String("to", to),
		zap.String("body", body),
	)
	return nil
}
