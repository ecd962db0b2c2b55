package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

var ErrCaptchaRejected = errors.New("captcha rejected")

// RecaptchaVerifier checks tokens against Google reCAPTCHA siteverify.
type RecaptchaVerifier struct {
	Secret    string
	VerifyURL string
	Client    *http.Client
}

func (v *RecaptchaVerifier) Verify(ctx context.Context, token, remoteIP string) error {
	if strings.TrimSpace(token) == "" {
		return ErrCaptchaRejected
	}

	form := url.Values{}
	form.Set("secret", v.Secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.VerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := v.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("recaptcha request: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Success    bool     `json:"success"`
		ErrorCodes []string `json:"error-codes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode recaptcha response: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("%w: %s", ErrCaptchaRejected, strings.Join(result.ErrorCodes, ","))
	}
	return nil
}
