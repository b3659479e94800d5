// Package sms delivers one-time codes over WhatsApp/SMS.
package sms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"metalhub_backend/internal/logger"
)

type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// TwilioConfig configures TwilioSender.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	BaseURL    string
	Timeout    time.Duration
}

// TwilioSender posts to the Twilio Messages REST endpoint.
type TwilioSender struct {
	cfg        TwilioConfig
	httpClient *http.Client
}

func NewTwilioSender(cfg TwilioConfig) *TwilioSender {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.twilio.com"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &TwilioSender{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (s *TwilioSender) Send(ctx context.Context, to, body string) error {
	form := url.Values{}
	form.Set("From", s.cfg.From)
	form.Set("To", whatsappAddress(s.cfg.From, to))
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", strings.TrimRight(s.cfg.BaseURL, "/"), s.cfg.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("twilio returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

// whatsappAddress prefixes the recipient when the sender is a WhatsApp number.
func whatsappAddress(from, to string) string {
	if strings.HasPrefix(from, "whatsapp:") && !strings.HasPrefix(to, "whatsapp:") {
		return "whatsapp:" + to
	}
	return to
}

// LogSender only logs. Used when no gateway credentials are configured.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, to, body string) error {
	logger.CtxDebug(ctx, "sms (not sent)", "to", to, "body", body)
	return nil
}
