package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const sendGridURL = "https://api.sendgrid.com/v3/mail/send"

// SendGrid is the default Transport, speaking the v3 mail/send API.
type SendGrid struct {
	apiKey  string
	baseURL string
	hc      *http.Client
}

func NewSendGrid(apiKey string) *SendGrid {
	return &SendGrid{
		apiKey:  apiKey,
		baseURL: sendGridURL,
		hc:      &http.Client{Timeout: 30 * time.Second},
	}
}

func NewSendGridWithURL(apiKey, baseURL string) *SendGrid {
	t := NewSendGrid(apiKey)
	t.baseURL = baseURL
	return t
}

func (t *SendGrid) Send(ctx context.Context, msg Message) (string, error) {
	if t.apiKey == "" {
		return "", fmt.Errorf("sendgrid api key not configured")
	}

	payload := map[string]any{
		"personalizations": []map[string]any{{
			"to": []map[string]string{{"email": msg.To}},
		}},
		"from":    map[string]string{"email": msg.From, "name": msg.FromName},
		"subject": msg.Subject,
		"content": []map[string]string{{"type": "text/html", "value": msg.HTML}},
	}
	if len(msg.Headers) > 0 {
		payload["headers"] = msg.Headers
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := t.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("sendgrid send: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
		return "", fmt.Errorf("sendgrid status %d: %s", res.StatusCode, bytes.TrimSpace(b))
	}

	// SendGrid returns 202 with the id in a header, no body.
	return res.Header.Get("X-Message-Id"), nil
}
