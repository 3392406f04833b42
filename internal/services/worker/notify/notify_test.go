package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/oppajeom/oppajeom/internal/services/journal/storage"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func response(status int) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader("")), Header: http.Header{}}
}

var subscriber = storage.Subscription{ID: "sub-1", UserName: "민지", Phone: "01012345678"}

func TestMessage(t *testing.T) {
	if got := Message("ko-KR", "민지", 2); got != "민지님, 2주차 화두가 열렸습니다." {
		t.Fatalf("ko message = %q", got)
	}
	if got := Message("en-US", "Minji", 3); got != "Minji, week 3 is open." {
		t.Fatalf("en message = %q", got)
	}
}

func TestLogMasksPhone(t *testing.T) {
	var lines []string
	n := Log{Locale: "ko-KR", Logf: func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}}
	if err := n.WeekOpened(context.Background(), subscriber, 2); err != nil {
		t.Fatalf("week opened: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("lines = %v", lines)
	}
	if strings.Contains(lines[0], "01012345678") || !strings.Contains(lines[0], "*******5678") {
		t.Fatalf("phone not masked: %q", lines[0])
	}
}

func TestWebhookPostsPayload(t *testing.T) {
	var got webhookPayload
	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if r.Method != http.MethodPost || r.URL.String() != "https://hooks.test/alimtalk" {
			t.Fatalf("request = %s %s", r.Method, r.URL)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		return response(http.StatusAccepted), nil
	})}
	n, err := NewWebhook("https://hooks.test/alimtalk", client, "ko-KR")
	if err != nil {
		t.Fatalf("new webhook: %v", err)
	}
	if err := n.WeekOpened(context.Background(), subscriber, 3); err != nil {
		t.Fatalf("week opened: %v", err)
	}
	if got.Phone != subscriber.Phone || got.Name != "민지" || got.Week != 3 || got.Message == "" {
		t.Fatalf("payload = %+v", got)
	}
}

func TestWebhookFailures(t *testing.T) {
	if _, err := NewWebhook(" ", nil, ""); err == nil {
		t.Fatal("expected error for blank url")
	}

	tests := map[string]roundTripFunc{
		"status": func(*http.Request) (*http.Response, error) { return response(http.StatusBadGateway), nil },
		"transport": func(*http.Request) (*http.Response, error) {
			return nil, fmt.Errorf("connection refused")
		},
	}
	for name, rt := range tests {
		t.Run(name, func(t *testing.T) {
			n, err := NewWebhook("https://hooks.test/alimtalk", &http.Client{Transport: rt}, "ko-KR")
			if err != nil {
				t.Fatalf("new webhook: %v", err)
			}
			if err := n.WeekOpened(context.Background(), subscriber, 2); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
