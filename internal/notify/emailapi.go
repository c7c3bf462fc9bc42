package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// APIConfig configures an HTTPS email API in the style of Resend:
// POST {BaseURL}/emails with a bearer key and a JSON body.
type APIConfig struct {
	BaseURL string
	APIKey  string
	From    string
	To      []string
}

// APISender sends email through a transactional email HTTP API.
type APISender struct {
	cfg    APIConfig
	client *http.Client
}

func NewAPISender(cfg APIConfig, client *http.Client) *APISender {
	if client == nil {
		client = http.DefaultClient
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &APISender{cfg: cfg, client: client}
}

func (s *APISender) Channel() string {
	return "email-api"
}

type apiEmail struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

func (s *APISender) Send(ctx context.Context, msg Message) error {
	if len(s.cfg.To) == 0 {
		return errors.New("no recipients configured")
	}

	payload, err := json.Marshal(apiEmail{
		From:    s.cfg.From,
		To:      s.cfg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("failed to encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("email api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("email api returned %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
