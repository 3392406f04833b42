package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/oppajeom/oppajeom/internal/core/interpretation"
	"github.com/oppajeom/oppajeom/internal/core/journal"
	"github.com/oppajeom/oppajeom/internal/services/journal/service"
	"github.com/oppajeom/oppajeom/internal/services/journal/storage"
)

type subscribeRequest struct {
	Name      string `json:"name"`
	Question  string `json:"question"`
	Situation string `json:"situation"`
	MBTI      string `json:"mbti"`
	Phone     string `json:"phone"`
	Lines     string `json:"lines"`
}

type loginRequest struct {
	Phone string `json:"phone"`
}

type subscriptionView struct {
	ID           string    `json:"id"`
	UserName     string    `json:"user_name"`
	Question     string    `json:"question"`
	Lines        string    `json:"lines"`
	HexagramCode string    `json:"hexagram_code"`
	MovingLines  []int     `json:"moving_lines"`
	CurrentWeek  int       `json:"current_week"`
	Status       string    `json:"status"`
	StartedAt    time.Time `json:"started_at"`
}

type sessionResponse struct {
	Token        string           `json:"token"`
	ExpiresAt    time.Time        `json:"expires_at"`
	Subscription subscriptionView `json:"subscription"`
}

type logView struct {
	Week       int       `json:"week"`
	Emotion    string    `json:"emotion,omitempty"`
	Review     string    `json:"review,omitempty"`
	Koan       string    `json:"koan"`
	Reflection string    `json:"reflection"`
	ActionItem string    `json:"action_item"`
	CreatedAt  time.Time `json:"created_at"`
}

type weekResponse struct {
	Week               int             `json:"week"`
	Status             string          `json:"status"`
	HexagramName       string          `json:"hexagram_name"`
	Passage            journal.Passage `json:"passage"`
	Theme              string          `json:"theme"`
	Commentary         string          `json:"commentary,omitempty"`
	PreviousActionItem string          `json:"previous_action_item,omitempty"`
	Log                *logView        `json:"log,omitempty"`
}

type generateRequest struct {
	Emotion string `json:"emotion"`
	Review  string `json:"review"`
}

type logsResponse struct {
	Logs          []logView `json:"logs"`
	NextPageToken string    `json:"next_page_token,omitempty"`
}

func (h *handler) subscribe(w http.ResponseWriter, r *http.Request) {
	var in subscribeRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	lines, err := service.ParseLines(in.Lines)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sub, err := h.journal.Subscribe(r.Context(), service.SubscribeInput{
		User: interpretation.UserContext{
			Name:      in.Name,
			Question:  in.Question,
			Situation: in.Situation,
			MBTI:      in.MBTI,
		},
		Phone: in.Phone,
		Lines: lines,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.journal.Issue(sub)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionOf(result))
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.journal.Login(r.Context(), in.Phone)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionOf(result))
}

func (h *handler) getWeek(w http.ResponseWriter, r *http.Request) {
	view, err := h.journal.Week(r.Context(), subscriptionID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := weekResponse{
		Week:               view.Week,
		Status:             string(view.Subscription.Status),
		HexagramName:       view.HexagramName,
		Passage:            view.Passage,
		Theme:              view.Theme,
		Commentary:         view.Commentary,
		PreviousActionItem: view.PreviousActionItem,
	}
	if view.Log != nil {
		entry := logViewOf(*view.Log)
		resp.Log = &entry
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) generateWeek(w http.ResponseWriter, r *http.Request) {
	var in generateRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	content, err := h.journal.Generate(r.Context(), subscriptionID(r.Context()), in.Emotion, in.Review)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.metrics.RecordWeeklyGeneration(content.Week)
	writeJSON(w, http.StatusOK, content)
}

func (h *handler) listLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	pageSize := 0
	if raw := strings.TrimSpace(query.Get("page_size")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, r, fieldError("page_size", "page_size must be a non-negative integer"))
			return
		}
		pageSize = n
	}
	page, err := h.journal.Logs(r.Context(), subscriptionID(r.Context()), query.Get("filter"), pageSize, query.Get("page_token"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := logsResponse{Logs: make([]logView, 0, len(page.Logs)), NextPageToken: page.NextPageToken}
	for _, entry := range page.Logs {
		resp.Logs = append(resp.Logs, logViewOf(entry))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) getCard(w http.ResponseWriter, r *http.Request) {
	week, err := strconv.Atoi(r.URL.Query().Get("week"))
	if err != nil {
		writeError(w, r, fieldError("week", "week must be a number"))
		return
	}
	png, err := h.journal.Card(r.Context(), subscriptionID(r.Context()), week)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func sessionOf(result service.LoginResult) sessionResponse {
	sub := result.Subscription
	moving := sub.MovingLines
	if moving == nil {
		moving = []int{}
	}
	return sessionResponse{
		Token:     result.Token,
		ExpiresAt: result.Claims.ExpiresAt,
		Subscription: subscriptionView{
			ID:           sub.ID,
			UserName:     sub.UserName,
			Question:     sub.Question,
			Lines:        sub.Lines,
			HexagramCode: sub.HexagramCode,
			MovingLines:  moving,
			CurrentWeek:  sub.CurrentWeek,
			Status:       string(sub.Status),
			StartedAt:    sub.StartedAt,
		},
	}
}

func logViewOf(entry storage.WeeklyLog) logView {
	return logView{
		Week:       entry.Week,
		Emotion:    entry.Emotion,
		Review:     entry.Review,
		Koan:       entry.Koan,
		Reflection: entry.Reflection,
		ActionItem: entry.ActionItem,
		CreatedAt:  entry.CreatedAt,
	}
}
