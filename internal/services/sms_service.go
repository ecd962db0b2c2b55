package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// MobizonSender delivers texts through the Mobizon HTTP API.
type MobizonSender struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

func (s *MobizonSender) Send(ctx context.Context, phone, text string) error {
	data := url.Values{}
	data.Set("apiKey", s.APIKey)
	data.Set("recipient", strings.TrimPrefix(phone, "+"))
	data.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("sms request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read sms response: %w", err)
	}

	var result struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("decode sms response (status %d): %w", resp.StatusCode, err)
	}
	if result.Code != 0 {
		return fmt.Errorf("mobizon: %s (code %d)", result.Message, result.Code)
	}
	return nil
}

// LogSender writes texts to the log instead of sending them. Used when no
// SMS key is configured.
type LogSender struct {
	Logger Logger
}

func (s *LogSender) Send(_ context.Context, phone, text string) error {
	s.Logger.Infof("sms to %s: %s", phone, text)
	return nil
}
