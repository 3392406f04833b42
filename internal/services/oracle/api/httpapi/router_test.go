package httpapi

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/oppajeom/oppajeom/internal/core/interpretation"
	apperrors "github.com/oppajeom/oppajeom/internal/platform/errors"
	"github.com/oppajeom/oppajeom/internal/services/interpret"
	"github.com/oppajeom/oppajeom/internal/services/journal/service"
	"github.com/oppajeom/oppajeom/internal/services/journal/storage/sqlite"
	"github.com/oppajeom/oppajeom/internal/services/journal/token"
	"github.com/oppajeom/oppajeom/internal/services/oracle/metrics"
)

type failingInterpreter struct {
	interpret.Static
}

func (*failingInterpreter) Interpret(context.Context, interpretation.Request) (interpret.Reading, error) {
	return interpret.Reading{}, apperrors.Wrap(apperrors.CodeInterpretationUnavailable, "upstream down", errors.New("503"))
}

func (*failingInterpreter) Premium(context.Context, interpretation.Request, string, string) (string, error) {
	return "", apperrors.Wrap(apperrors.CodeInterpretationUnavailable, "upstream down", errors.New("503"))
}

func newJournal(t *testing.T, interp interpret.Interpreter) *service.Service {
	t.Helper()
	store, err := sqlite.Open(context.Background(), t.TempDir()+"/journal.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	issuer, err := token.NewIssuer(token.Config{PrivateKey: priv})
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	svc, err := service.New(service.Deps{Store: store, Interpreter: interp, Tokens: issuer})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func newTestRouter(t *testing.T, deps Deps) http.Handler {
	t.Helper()
	if deps.Interpreter == nil {
		deps.Interpreter = interpret.NewStatic("")
	}
	if deps.Journal == nil {
		deps.Journal = newJournal(t, deps.Interpreter)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h, err := NewRouter(ctx, deps)
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	return h
}

func do(t *testing.T, h http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "203.0.113.7:5555"
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestNewRouterRequiresDeps(t *testing.T) {
	if _, err := NewRouter(context.Background(), Deps{}); err == nil {
		t.Fatal("expected error without journal service")
	}
}

func TestHealthz(t *testing.T) {
	h := newTestRouter(t, Deps{})
	rec := do(t, h, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCreateReadingFromLines(t *testing.T) {
	m := metrics.New()
	h := newTestRouter(t, Deps{Metrics: m})

	rec := do(t, h, http.MethodPost, "/v1/readings",
		`{"name":"민지","question":"이직해도 될까요?","mbti":"infp","lines":"777776"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	resp := decode[readingResponse](t, rec)
	if resp.Step != "result" {
		t.Fatalf("step = %q, want result", resp.Step)
	}
	if resp.BinaryCode != "111110" {
		t.Fatalf("binary code = %q", resp.BinaryCode)
	}
	if len(resp.MovingLines) != 1 || resp.MovingLines[0] != 6 {
		t.Fatalf("moving lines = %v", resp.MovingLines)
	}
	if resp.Transformed == nil || resp.Transformed.Code != "111111" {
		t.Fatalf("transformed = %+v", resp.Transformed)
	}
	if resp.Seed != nil || len(resp.Tosses) != 0 {
		t.Fatalf("lines reading should not report a cast: %+v", resp)
	}
	if resp.Interpretation.Advice == "" {
		t.Fatal("expected advice")
	}

	scrape := do(t, h, http.MethodGet, "/metrics", "", nil)
	want := `oppajeom_oracle_readings_total{changing="true",source="lines"} 1`
	if !strings.Contains(scrape.Body.String(), want) {
		t.Fatalf("metrics missing %q", want)
	}
}

func TestCreateReadingSeededCastIsReplayable(t *testing.T) {
	h := newTestRouter(t, Deps{})
	body := `{"name":"민지","question":"올해 운은?","seed":42}`

	first := decode[readingResponse](t, do(t, h, http.MethodPost, "/v1/readings", body, nil))
	second := decode[readingResponse](t, do(t, h, http.MethodPost, "/v1/readings", body, nil))
	if first.Lines == "" || first.Lines != second.Lines {
		t.Fatalf("seeded casts differ: %q vs %q", first.Lines, second.Lines)
	}
	if len(first.Tosses) != 6 {
		t.Fatalf("tosses = %d, want 6", len(first.Tosses))
	}
	if first.Seed == nil || *first.Seed != 42 {
		t.Fatalf("seed = %v", first.Seed)
	}
	for i, toss := range first.Tosses {
		sum := toss.Faces[0] + toss.Faces[1] + toss.Faces[2]
		if sum != toss.Value || int(first.Lines[i]-'0') != toss.Value {
			t.Fatalf("toss %d = %+v, lines %q", i, toss, first.Lines)
		}
	}
}

func TestCreateReadingRandomCastReportsSeed(t *testing.T) {
	h := newTestRouter(t, Deps{})
	rec := do(t, h, http.MethodPost, "/v1/readings", `{"name":"민지","question":"올해 운은?"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	if resp := decode[readingResponse](t, rec); resp.Seed == nil {
		t.Fatal("expected seed for replay")
	}
}

func TestCreateReadingValidation(t *testing.T) {
	h := newTestRouter(t, Deps{})
	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ""},
		{name: "unknown field", body: `{"name":"a","question":"b","extra":1}`},
		{name: "missing name", body: `{"question":"b"}`},
		{name: "missing question", body: `{"name":"a"}`},
		{name: "short lines", body: `{"name":"a","question":"b","lines":"777"}`},
		{name: "bad digit", body: `{"name":"a","question":"b","lines":"777775"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/v1/readings", tt.body, nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
			}
			if got := decode[errorBody](t, rec); got.Code != "INVALID_ARGUMENT" {
				t.Fatalf("code = %q", got.Code)
			}
		})
	}
}

func TestErrorMessagesFollowAcceptLanguage(t *testing.T) {
	h := newTestRouter(t, Deps{})
	rec := do(t, h, http.MethodPost, "/v1/readings", `{"question":"b"}`,
		map[string]string{"Accept-Language": "en-GB,en;q=0.9"})
	got := decode[errorBody](t, rec)
	if got.Message != "Please check the input: name" {
		t.Fatalf("message = %q", got.Message)
	}

	rec = do(t, h, http.MethodPost, "/v1/readings", `{"question":"b"}`, nil)
	if got := decode[errorBody](t, rec); !strings.Contains(got.Message, "입력값") {
		t.Fatalf("default message = %q", got.Message)
	}
}

func TestCreateReadingInterpretationUnavailable(t *testing.T) {
	h := newTestRouter(t, Deps{Interpreter: &failingInterpreter{Static: *interpret.NewStatic("")}})
	rec := do(t, h, http.MethodPost, "/v1/readings", `{"name":"a","question":"b","lines":"777777"}`, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decode[errorBody](t, rec); got.Code != "INTERPRETATION_UNAVAILABLE" {
		t.Fatalf("code = %q", got.Code)
	}
}

func TestCreatePremium(t *testing.T) {
	h := newTestRouter(t, Deps{})

	rec := do(t, h, http.MethodPost, "/v1/readings/premium",
		`{"name":"민지","question":"이직해도 될까요?","lines":"786789","q1":"언제 옮길까요?","q2":"누구와 상의할까요?"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	resp := decode[premiumResponse](t, rec)
	if resp.Step != "result" {
		t.Fatalf("step = %q, want result", resp.Step)
	}
	if !strings.Contains(resp.Advice, "Q. 언제 옮길까요?") || !strings.Contains(resp.Advice, "Q. 누구와 상의할까요?") {
		t.Fatalf("advice = %q", resp.Advice)
	}
}

func TestCreatePremiumValidation(t *testing.T) {
	h := newTestRouter(t, Deps{})
	tests := map[string]string{
		"missing q2":    `{"name":"민지","question":"이직?","lines":"777777","q1":"언제?"}`,
		"blank q1":      `{"name":"민지","question":"이직?","lines":"777777","q1":" ","q2":"왜?"}`,
		"missing lines": `{"name":"민지","question":"이직?","q1":"언제?","q2":"왜?"}`,
		"missing name":  `{"question":"이직?","lines":"777777","q1":"언제?","q2":"왜?"}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/v1/readings/premium", body, nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCreatePremiumInterpretationUnavailable(t *testing.T) {
	h := newTestRouter(t, Deps{Interpreter: &failingInterpreter{Static: *interpret.NewStatic("")}})
	rec := do(t, h, http.MethodPost, "/v1/readings/premium",
		`{"name":"민지","question":"이직?","lines":"777777","q1":"언제?","q2":"왜?"}`, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	if got := decode[errorBody](t, rec); got.Code != string(apperrors.CodeInterpretationUnavailable) {
		t.Fatalf("code = %q", got.Code)
	}
}

func TestCreateReflection(t *testing.T) {
	h := newTestRouter(t, Deps{})

	rec := do(t, h, http.MethodPost, "/v1/reflections",
		`{"name":"Min","question":"Should I move?","lines":"777777","locale":"en","entry":"I felt restless today."}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	got := decode[interpret.Reflection](t, rec)
	if !strings.HasPrefix(got.Title, "Written before") {
		t.Fatalf("title = %q, want en-US text", got.Title)
	}
	if !strings.Contains(got.Reflection, "I felt restless today.") {
		t.Fatalf("reflection = %q", got.Reflection)
	}
	if got.Quote == "" || got.ActionItem == "" {
		t.Fatalf("reflection = %+v", got)
	}

	rec = do(t, h, http.MethodPost, "/v1/reflections",
		`{"name":"Min","question":"Should I move?","lines":"777777","entry":"   "}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("blank entry status = %d", rec.Code)
	}
}

func TestGetHexagram(t *testing.T) {
	h := newTestRouter(t, Deps{})

	rec := do(t, h, http.MethodGet, "/v1/hexagrams/111111", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decode[hexagramResponse](t, rec)
	if got.Number != 1 || got.DisplayName == "" {
		t.Fatalf("hexagram = %+v", got)
	}

	if rec := do(t, h, http.MethodGet, "/v1/hexagrams/11x111", "", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad code status = %d", rec.Code)
	}
}

func TestSubscribeTokenMatchesNewSubscription(t *testing.T) {
	store, err := sqlite.Open(context.Background(), t.TempDir()+"/journal.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	issuer, err := token.NewIssuer(token.Config{PrivateKey: priv})
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	started := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc, err := service.New(service.Deps{
		Store:       store,
		Interpreter: interpret.NewStatic(""),
		Tokens:      issuer,
		Now:         func() time.Time { return started },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	h := newTestRouter(t, Deps{Journal: svc})

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		rec := do(t, h, http.MethodPost, "/v1/subscriptions",
			`{"name":"민지","question":"이직해도 될까요?","phone":"010-1234-5678","lines":"786789"}`, nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("subscribe status = %d body = %s", rec.Code, rec.Body.String())
		}
		session := decode[sessionResponse](t, rec)
		id, err := svc.Authenticate(session.Token)
		if err != nil {
			t.Fatalf("authenticate: %v", err)
		}
		if id != session.Subscription.ID {
			t.Fatalf("token is for %q, response subscription is %q", id, session.Subscription.ID)
		}
		if seen[id] {
			t.Fatalf("subscription %q returned twice", id)
		}
		seen[id] = true
	}
}

func TestJournalFlow(t *testing.T) {
	m := metrics.New()
	h := newTestRouter(t, Deps{Metrics: m})

	rec := do(t, h, http.MethodPost, "/v1/subscriptions",
		`{"name":"민지","question":"이직해도 될까요?","phone":"010-1234-5678","lines":"786789"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("subscribe status = %d body = %s", rec.Code, rec.Body.String())
	}
	session := decode[sessionResponse](t, rec)
	if session.Token == "" || session.Subscription.HexagramCode != "100101" || session.Subscription.CurrentWeek != 1 {
		t.Fatalf("session = %+v", session)
	}
	auth := map[string]string{"Authorization": "Bearer " + session.Token}

	rec = do(t, h, http.MethodGet, "/v1/journal/week", "", auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("week status = %d body = %s", rec.Code, rec.Body.String())
	}
	week := decode[weekResponse](t, rec)
	if week.Week != 1 || week.Passage.Statement == "" || week.Log != nil {
		t.Fatalf("week = %+v", week)
	}

	rec = do(t, h, http.MethodPost, "/v1/journal/week", `{"emotion":"설렘","review":"첫 주"}`, auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("generate status = %d body = %s", rec.Code, rec.Body.String())
	}
	content := decode[interpret.WeeklyContent](t, rec)
	if content.Week != 1 || content.Koan == "" {
		t.Fatalf("content = %+v", content)
	}

	rec = do(t, h, http.MethodGet, "/v1/journal/logs?filter=week%20%3D%201", "", auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("logs status = %d body = %s", rec.Code, rec.Body.String())
	}
	if logs := decode[logsResponse](t, rec); len(logs.Logs) != 1 || logs.Logs[0].Emotion != "설렘" {
		t.Fatalf("logs = %+v", logs)
	}

	rec = do(t, h, http.MethodGet, "/v1/journal/week/card.png?week=1", "", auth)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("card status = %d type = %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
		t.Fatal("card is not a PNG")
	}

	rec = do(t, h, http.MethodPost, "/v1/subscriptions/login", `{"phone":"+82 10 1234 5678"}`, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("login with another number status = %d", rec.Code)
	}
	rec = do(t, h, http.MethodPost, "/v1/subscriptions/login", `{"phone":"01012345678"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d body = %s", rec.Code, rec.Body.String())
	}
	if again := decode[sessionResponse](t, rec); again.Subscription.ID != session.Subscription.ID {
		t.Fatalf("login subscription = %q, want %q", again.Subscription.ID, session.Subscription.ID)
	}

	scrape := do(t, h, http.MethodGet, "/metrics", "", nil)
	if want := `oppajeom_journal_weekly_generations_total{week="1"} 1`; !strings.Contains(scrape.Body.String(), want) {
		t.Fatalf("metrics missing %q", want)
	}
}

func TestJournalRequestValidation(t *testing.T) {
	h := newTestRouter(t, Deps{})
	rec := do(t, h, http.MethodPost, "/v1/subscriptions",
		`{"name":"민지","question":"q","phone":"010-1234-5678","lines":"786789"}`, nil)
	auth := map[string]string{"Authorization": "Bearer " + decode[sessionResponse](t, rec).Token}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{name: "bad page size", method: http.MethodGet, path: "/v1/journal/logs?page_size=x", want: http.StatusBadRequest},
		{name: "bad filter", method: http.MethodGet, path: "/v1/journal/logs?filter=nope%20%3E", want: http.StatusBadRequest},
		{name: "card without week", method: http.MethodGet, path: "/v1/journal/week/card.png", want: http.StatusBadRequest},
		{name: "card not generated", method: http.MethodGet, path: "/v1/journal/week/card.png?week=2", want: http.StatusNotFound},
		{name: "empty reply", method: http.MethodPost, path: "/v1/journal/week", body: `{}`, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body, auth)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestJournalRequiresBearerToken(t *testing.T) {
	h := newTestRouter(t, Deps{})
	tests := map[string]map[string]string{
		"missing":  nil,
		"wrong":    {"Authorization": "Basic abc"},
		"tampered": {"Authorization": "Bearer not.a.token"},
	}
	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, "/v1/journal/week", "", header)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d", rec.Code)
			}
		})
	}
}

func TestRateLimitPerClient(t *testing.T) {
	h := newTestRouter(t, Deps{RatePerSecond: 0.001, RateBurst: 1})

	if rec := do(t, h, http.MethodGet, "/v1/hexagrams/000000", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("first status = %d", rec.Code)
	}
	rec := do(t, h, http.MethodGet, "/v1/hexagrams/000000", "", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After")
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/hexagrams/000000", nil)
	req.RemoteAddr = "198.51.100.1:4000"
	other := httptest.NewRecorder()
	h.ServeHTTP(other, req)
	if other.Code != http.StatusOK {
		t.Fatalf("other client status = %d", other.Code)
	}
	if rec := do(t, h, http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("healthz should not be limited, status = %d", rec.Code)
	}
}

func TestRateLimitIgnoresUntrustedForwardedFor(t *testing.T) {
	h := newTestRouter(t, Deps{RatePerSecond: 0.001, RateBurst: 1})

	allowed := 0
	for i := 0; i < 50; i++ {
		rec := do(t, h, http.MethodGet, "/v1/hexagrams/000000", "", map[string]string{
			"X-Forwarded-For": fmt.Sprintf("192.0.2.%d", i),
		})
		if rec.Code == http.StatusOK {
			allowed++
		}
	}
	if allowed != 1 {
		t.Fatalf("allowed = %d, want 1 for a single peer", allowed)
	}
}

func TestClientKey(t *testing.T) {
	trusted, err := ParseTrustedProxies([]string{"10.0.0.0/8", "203.0.113.7"})
	if err != nil {
		t.Fatalf("parse trusted: %v", err)
	}
	tests := []struct {
		name      string
		trusted   []netip.Prefix
		remote    string
		forwarded string
		want      string
	}{
		{name: "no proxies", remote: "198.51.100.1:80", forwarded: "192.0.2.1", want: "198.51.100.1"},
		{name: "untrusted peer", trusted: trusted, remote: "198.51.100.1:80", forwarded: "192.0.2.1", want: "198.51.100.1"},
		{name: "trusted peer", trusted: trusted, remote: "10.1.2.3:80", forwarded: "192.0.2.1", want: "192.0.2.1"},
		{name: "rightmost untrusted hop", trusted: trusted, remote: "10.1.2.3:80", forwarded: "192.0.2.9, 192.0.2.1, 10.4.4.4", want: "192.0.2.1"},
		{name: "all hops trusted", trusted: trusted, remote: "203.0.113.7:80", forwarded: "10.4.4.4", want: "203.0.113.7"},
		{name: "trusted without header", trusted: trusted, remote: "10.1.2.3:80", want: "10.1.2.3"},
		{name: "no port", remote: "198.51.100.1", want: "198.51.100.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newClientLimiter(1, 1, tt.trusted)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := l.clientKey(req); got != tt.want {
				t.Fatalf("clientKey = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseTrustedProxiesRejectsGarbage(t *testing.T) {
	for _, value := range []string{"not-an-ip", "10.0.0.0/99"} {
		if _, err := ParseTrustedProxies([]string{value}); err == nil {
			t.Fatalf("ParseTrustedProxies(%q) succeeded", value)
		}
	}
	got, err := ParseTrustedProxies([]string{" ", ""})
	if err != nil || len(got) != 0 {
		t.Fatalf("blank values = %v, %v", got, err)
	}
}

func TestClientLimiterPrunesIdleEntries(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := newClientLimiter(1, 1, nil)
	l.now = func() time.Time { return now }

	for i := 0; i < 100; i++ {
		l.limiter(fmt.Sprintf("client-%d", i))
	}
	now = now.Add(limiterIdle / 2)
	l.limiter("client-0")

	now = now.Add(limiterIdle/2 + time.Second)
	if removed := l.prune(limiterIdle); removed != 99 {
		t.Fatalf("removed = %d, want 99", removed)
	}
	if len(l.entries) != 1 {
		t.Fatalf("entries = %d, want the recently seen client", len(l.entries))
	}
	if _, ok := l.entries["client-0"]; !ok {
		t.Fatal("recently seen client was pruned")
	}
}

func TestClientLimiterRunStopsWithContext(t *testing.T) {
	l := newClientLimiter(1, 1, nil)
	l.limiter("stale")
	l.now = func() time.Time { return time.Now().Add(time.Hour) }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.run(ctx, time.Millisecond, time.Minute)
		close(done)
	}()
	deadline := time.After(2 * time.Second)
	for {
		l.mu.Lock()
		n := len(l.entries)
		l.mu.Unlock()
		if n == 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("stale entry was not pruned")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
}

func TestRequestLocale(t *testing.T) {
	tests := map[string]string{
		"":                "ko-KR",
		"en-US":           "en-US",
		"en;q=0.8,ko;q=1": "ko-KR",
		"fr-FR":           "ko-KR",
		"not a tag!!":     "ko-KR",
	}
	for header, want := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Language", header)
		if got := requestLocale(req); got != want {
			t.Errorf("requestLocale(%q) = %q, want %q", header, got, want)
		}
	}
}
