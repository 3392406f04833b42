// Package notify tells subscribers that a new journal week is open.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	i18n "github.com/oppajeom/oppajeom/internal/platform/i18n/catalog"
	"github.com/oppajeom/oppajeom/internal/platform/timeouts"
	"github.com/oppajeom/oppajeom/internal/services/journal/storage"
)

// Log writes the week-open message to the process log.
type Log struct {
	Locale string
	Logf   func(string, ...any)
}

// WeekOpened logs the message.
func (n Log) WeekOpened(_ context.Context, sub storage.Subscription, week int) error {
	logf := n.Logf
	if logf == nil {
		logf = log.Printf
	}
	logf("notify: %s (%s)", Message(n.Locale, sub.UserName, week), maskPhone(sub.Phone))
	return nil
}

// Message renders the week-open text.
func Message(locale, name string, week int) string {
	return i18n.Printer(locale).Sprintf("journal.notify.week_open", name, week)
}

// Webhook posts the AlimTalk trigger payload to an HTTP endpoint.
type Webhook struct {
	url    string
	client *http.Client
	locale string
}

type webhookPayload struct {
	Phone   string `json:"phone"`
	Name    string `json:"name"`
	Week    int    `json:"week"`
	Message string `json:"message"`
}

// NewWebhook targets url. A nil client uses http.DefaultClient.
func NewWebhook(url string, client *http.Client, locale string) (*Webhook, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("webhook url is required")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Webhook{url: url, client: client, locale: locale}, nil
}

// WeekOpened posts {phone, name, week, message}. Non-2xx replies are errors.
func (n *Webhook) WeekOpened(ctx context.Context, sub storage.Subscription, week int) error {
	body, err := json.Marshal(webhookPayload{
		Phone:   sub.Phone,
		Name:    sub.UserName,
		Week:    week,
		Message: Message(n.locale, sub.UserName, week),
	})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Storage)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	return nil
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
