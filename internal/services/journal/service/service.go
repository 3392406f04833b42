// Package service runs the four-week journal program: subscription, login,
// weekly content generation, and the weekly schedule.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/oppajeom/oppajeom/internal/core/hexagram"
	"github.com/oppajeom/oppajeom/internal/core/hexagram/catalog"
	"github.com/oppajeom/oppajeom/internal/core/interpretation"
	"github.com/oppajeom/oppajeom/internal/core/journal"
	apperrors "github.com/oppajeom/oppajeom/internal/platform/errors"
	"github.com/oppajeom/oppajeom/internal/platform/id"
	"github.com/oppajeom/oppajeom/internal/platform/pagination"
	"github.com/oppajeom/oppajeom/internal/platform/timeouts"
	"github.com/oppajeom/oppajeom/internal/services/card"
	"github.com/oppajeom/oppajeom/internal/services/interpret"
	"github.com/oppajeom/oppajeom/internal/services/journal/filter"
	"github.com/oppajeom/oppajeom/internal/services/journal/storage"
	"github.com/oppajeom/oppajeom/internal/services/journal/token"
)

var logPageSize = pagination.PageSizeConfig{Default: 10, Max: 50}

// Notifier is told when a new week opens for a subscriber.
type Notifier interface {
	WeekOpened(ctx context.Context, sub storage.Subscription, week int) error
}

// Deps are the collaborators a Service needs. Store, Interpreter, and Tokens
// are required.
type Deps struct {
	Store       storage.Store
	Interpreter interpret.Interpreter
	Tokens      *token.Issuer
	Notifier    Notifier
	Cards       *card.Renderer
	Catalog     *catalog.Catalog
	Now         func() time.Time
	IDGenerator func() (string, error)
	Locale      string
}

// Service implements the journal operations.
type Service struct {
	store       storage.Store
	interpreter interpret.Interpreter
	tokens      *token.Issuer
	notifier    Notifier
	cards       *card.Renderer
	catalog     *catalog.Catalog
	now         func() time.Time
	idGenerator func() (string, error)
	locale      string
}

// New validates deps and builds a Service.
func New(deps Deps) (*Service, error) {
	if deps.Store == nil {
		return nil, errors.New("journal store is required")
	}
	if deps.Interpreter == nil {
		return nil, errors.New("interpreter is required")
	}
	if deps.Tokens == nil {
		return nil, errors.New("token issuer is required")
	}
	s := &Service{
		store:       deps.Store,
		interpreter: deps.Interpreter,
		tokens:      deps.Tokens,
		notifier:    deps.Notifier,
		cards:       deps.Cards,
		catalog:     deps.Catalog,
		now:         deps.Now,
		idGenerator: deps.IDGenerator,
		locale:      deps.Locale,
	}
	if s.catalog == nil {
		c, err := catalog.Default()
		if err != nil {
			return nil, err
		}
		s.catalog = c
	}
	if s.cards == nil {
		r, err := card.NewRenderer(nil, nil)
		if err != nil {
			return nil, err
		}
		s.cards = r
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.idGenerator == nil {
		s.idGenerator = id.NewID
	}
	if s.locale == "" {
		s.locale = "ko-KR"
	}
	return s, nil
}

// SubscribeInput starts a program for a completed casting.
type SubscribeInput struct {
	User  interpretation.UserContext
	Phone string
	Lines []hexagram.LineValue
}

// Subscribe records a new program at week one.
func (s *Service) Subscribe(ctx context.Context, in SubscribeInput) (storage.Subscription, error) {
	name := strings.TrimSpace(in.User.Name)
	if name == "" {
		return storage.Subscription{}, invalidArgument("name", "name is required")
	}
	phone, err := NormalizePhone(in.Phone)
	if err != nil {
		return storage.Subscription{}, err
	}
	h, err := hexagram.FromLines(in.Lines)
	if err != nil {
		return storage.Subscription{}, err
	}

	subID, err := s.idGenerator()
	if err != nil {
		return storage.Subscription{}, fmt.Errorf("generate subscription id: %w", err)
	}
	now := s.now().UTC()
	sub := storage.Subscription{
		ID:           subID,
		UserName:     name,
		Phone:        phone,
		Question:     strings.TrimSpace(in.User.Question),
		Situation:    strings.TrimSpace(in.User.Situation),
		MBTI:         strings.ToUpper(strings.TrimSpace(in.User.MBTI)),
		Lines:        FormatLines(h.Lines()),
		HexagramCode: h.BinaryCode(),
		MovingLines:  h.MovingLines(),
		CurrentWeek:  journal.FirstWeek,
		Status:       storage.StatusActive,
		StartedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.PutSubscription(ctx, sub); err != nil {
		return storage.Subscription{}, fmt.Errorf("put subscription: %w", err)
	}
	return sub, nil
}

// LoginResult is a signed token for the subscriber's latest program.
type LoginResult struct {
	Token        string
	Claims       token.Claims
	Subscription storage.Subscription
}

// Login finds the most recent program for phone and signs a token for it.
func (s *Service) Login(ctx context.Context, phone string) (LoginResult, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return LoginResult{}, err
	}
	sub, err := s.store.LatestSubscriptionByPhone(ctx, normalized)
	if errors.Is(err, storage.ErrNotFound) {
		return LoginResult{}, apperrors.New(apperrors.CodeNotFound, "no subscription for this phone")
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("latest subscription: %w", err)
	}
	return s.Issue(sub)
}

// Issue signs a token for sub.
func (s *Service) Issue(sub storage.Subscription) (LoginResult, error) {
	raw, claims, err := s.tokens.Issue(sub.ID, sub.Phone)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: raw, Claims: claims, Subscription: sub}, nil
}

// Authenticate verifies a bearer token and returns its subscription ID.
func (s *Service) Authenticate(raw string) (string, error) {
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		return "", err
	}
	return claims.SubscriptionID, nil
}

// WeekView is everything the weekly page shows.
type WeekView struct {
	Subscription       storage.Subscription
	Week               int
	HexagramName       string
	Passage            journal.Passage
	Theme              string
	Commentary         string
	PreviousActionItem string
	Log                *storage.WeeklyLog
}

// Week returns the subscriber's current week.
func (s *Service) Week(ctx context.Context, subscriptionID string) (WeekView, error) {
	sub, err := s.subscription(ctx, subscriptionID)
	if err != nil {
		return WeekView{}, err
	}
	h, reading, err := s.reading(sub)
	if err != nil {
		return WeekView{}, err
	}
	week := sub.CurrentWeek
	passage, err := journal.PassageFor(reading.Record, h, week)
	if err != nil {
		return WeekView{}, err
	}
	theme, err := journal.Theme(s.locale, week, reading)
	if err != nil {
		return WeekView{}, err
	}

	view := WeekView{
		Subscription: sub,
		Week:         week,
		HexagramName: reading.Record.DisplayName(),
		Passage:      passage,
		Theme:        theme,
	}
	if passage.Focus != nil {
		commentary, err := s.interpreter.LineCommentary(ctx, reading.Record.Name, passage.Focus.LineText)
		if err != nil {
			log.Printf("journal: line commentary for %s week %d: %v", sub.ID, week, err)
		}
		view.Commentary = commentary
	}
	if prev, ok := s.logForWeek(ctx, sub.ID, week-1); ok {
		view.PreviousActionItem = prev.ActionItem
	}
	if current, ok := s.logForWeek(ctx, sub.ID, week); ok {
		view.Log = &current
	}
	return view, nil
}

// Generate produces this week's content from the user's reply and stores it.
// Interpretation failures yield the fixed fallback entry. A failed save is
// logged and the content is still returned.
func (s *Service) Generate(ctx context.Context, subscriptionID, emotion, review string) (interpret.WeeklyContent, error) {
	sub, err := s.subscription(ctx, subscriptionID)
	if err != nil {
		return interpret.WeeklyContent{}, err
	}
	if sub.Status == storage.StatusCompleted {
		return interpret.WeeklyContent{}, apperrors.New(apperrors.CodeSubscriptionCompleted, "the program has finished")
	}
	emotion = strings.TrimSpace(emotion)
	review = strings.TrimSpace(review)
	if emotion == "" && review == "" {
		return interpret.WeeklyContent{}, invalidArgument("review", "emotion or review is required")
	}

	h, reading, err := s.reading(sub)
	if err != nil {
		return interpret.WeeklyContent{}, err
	}
	week := sub.CurrentWeek
	passage, err := journal.PassageFor(reading.Record, h, week)
	if err != nil {
		return interpret.WeeklyContent{}, err
	}
	theme, err := journal.Theme(s.locale, week, reading)
	if err != nil {
		return interpret.WeeklyContent{}, err
	}
	feedback := interpretation.Feedback{Emotion: emotion, Review: review}
	if prev, ok := s.logForWeek(ctx, sub.ID, week-1); ok {
		feedback.PreviousActionItem = prev.ActionItem
	}

	req, err := interpretation.Build(interpretation.UserContext{
		Name:      sub.UserName,
		Question:  sub.Question,
		Situation: sub.Situation,
		MBTI:      sub.MBTI,
	}, reading,
		interpretation.WithLocale(s.locale),
		interpretation.WithPassage(passage, theme),
		interpretation.WithFeedback(feedback),
	)
	if err != nil {
		return interpret.WeeklyContent{}, err
	}

	content, err := s.interpreter.WeeklyContent(ctx, req)
	if err != nil {
		log.Printf("journal: week %d content for %s: %v", week, sub.ID, err)
		content = interpret.FallbackWeekly(s.locale, week)
	}
	content.Week = week

	logID, err := s.idGenerator()
	if err != nil {
		log.Printf("journal: week %d log id for %s: %v", week, sub.ID, err)
		return content, nil
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Storage)
	defer cancel()
	entry := storage.WeeklyLog{
		ID:             logID,
		SubscriptionID: sub.ID,
		Week:           week,
		Emotion:        emotion,
		Review:         review,
		Koan:           content.Koan,
		Reflection:     content.Reflection,
		ActionItem:     content.ActionItem,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.store.PutWeeklyLog(saveCtx, entry); err != nil {
		log.Printf("journal: save week %d log for %s: %v", week, sub.ID, err)
	}
	return content, nil
}

// Logs lists a subscriber's weekly logs, narrowed by an AIP-160 filter over
// week, emotion, and create_time.
func (s *Service) Logs(ctx context.Context, subscriptionID, filterStr string, pageSize int, pageToken string) (storage.LogPage, error) {
	if _, err := s.subscription(ctx, subscriptionID); err != nil {
		return storage.LogPage{}, err
	}
	if _, err := filter.ParseLogFilter(filterStr); err != nil {
		return storage.LogPage{}, apperrors.Wrap(apperrors.CodeInvalidArgument, "invalid filter", err)
	}
	if raw := strings.TrimSpace(pageToken); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err != nil || n < 0 {
			return storage.LogPage{}, invalidArgument("page_token", "invalid page token")
		}
	}
	pageSize = pagination.ClampPageSize(pageSize, logPageSize)
	return s.store.ListWeeklyLogs(ctx, subscriptionID, filterStr, pageSize, pageToken)
}

// Card renders the koan card for a generated week.
func (s *Service) Card(ctx context.Context, subscriptionID string, week int) ([]byte, error) {
	if err := journal.ValidateWeek(week); err != nil {
		return nil, err
	}
	sub, err := s.subscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	entry, err := s.store.GetLogByWeek(ctx, sub.ID, week)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperrors.New(apperrors.CodeNotFound, "week has no generated content")
	}
	if err != nil {
		return nil, fmt.Errorf("get week log: %w", err)
	}
	rec, err := s.catalog.Lookup(sub.HexagramCode)
	if err != nil {
		return nil, err
	}
	return s.cards.Render(card.Card{
		Week:         week,
		Koan:         entry.Koan,
		UserName:     sub.UserName,
		HexagramCode: sub.HexagramCode,
		HexagramName: rec.DisplayName(),
	})
}

// AdvanceResult counts what one schedule pass changed.
type AdvanceResult struct {
	Advanced  int
	Completed int
}

// Advance moves every active program to the week open at now and completes
// programs past their last week. Each newly opened week notifies the
// subscriber; notification failures are logged.
func (s *Service) Advance(ctx context.Context, now time.Time) (AdvanceResult, error) {
	subs, err := s.store.ListActiveSubscriptions(ctx)
	if err != nil {
		return AdvanceResult{}, fmt.Errorf("list active subscriptions: %w", err)
	}
	var result AdvanceResult
	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		week, completed := journal.WeekAt(sub.StartedAt, now)
		if week <= sub.CurrentWeek && !completed {
			continue
		}
		if week < sub.CurrentWeek {
			week = sub.CurrentWeek
		}
		status := storage.StatusActive
		if completed {
			status = storage.StatusCompleted
		}
		if err := s.store.UpdateSubscriptionWeek(ctx, sub.ID, week, status, now.UTC()); err != nil {
			return result, fmt.Errorf("advance subscription %s: %w", sub.ID, err)
		}
		if completed {
			result.Completed++
		}
		if week > sub.CurrentWeek {
			result.Advanced++
			if s.notifier != nil {
				if err := s.notifier.WeekOpened(ctx, sub, week); err != nil {
					log.Printf("journal: notify %s week %d: %v", sub.ID, week, err)
				}
			}
		}
	}
	return result, nil
}

func (s *Service) subscription(ctx context.Context, subscriptionID string) (storage.Subscription, error) {
	subscriptionID = strings.TrimSpace(subscriptionID)
	if subscriptionID == "" {
		return storage.Subscription{}, invalidArgument("subscription_id", "subscription id is required")
	}
	sub, err := s.store.GetSubscription(ctx, subscriptionID)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.Subscription{}, apperrors.New(apperrors.CodeNotFound, "subscription not found")
	}
	if err != nil {
		return storage.Subscription{}, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

// reading rebuilds the cast hexagram from the stored lines.
func (s *Service) reading(sub storage.Subscription) (hexagram.Hexagram, hexagram.Reading, error) {
	lines, err := ParseLines(sub.Lines)
	if err != nil {
		return hexagram.Hexagram{}, hexagram.Reading{}, err
	}
	h, err := hexagram.FromLines(lines)
	if err != nil {
		return hexagram.Hexagram{}, hexagram.Reading{}, err
	}
	if h.BinaryCode() != sub.HexagramCode {
		return hexagram.Hexagram{}, hexagram.Reading{}, apperrors.New(apperrors.CodeCatalogIntegrity, "stored lines do not match hexagram code")
	}
	reading, err := hexagram.Resolve(s.catalog, h)
	if err != nil {
		return hexagram.Hexagram{}, hexagram.Reading{}, err
	}
	return h, reading, nil
}

// logForWeek returns the week's most recent log. Weeks before the program
// and lookup failures report false; failures are logged.
func (s *Service) logForWeek(ctx context.Context, subscriptionID string, week int) (storage.WeeklyLog, bool) {
	if week < journal.FirstWeek {
		return storage.WeeklyLog{}, false
	}
	entry, err := s.store.GetLogByWeek(ctx, subscriptionID, week)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Printf("journal: week %d log for %s: %v", week, subscriptionID, err)
		}
		return storage.WeeklyLog{}, false
	}
	return entry, true
}

func invalidArgument(field, message string) error {
	return apperrors.WithMetadata(apperrors.CodeInvalidArgument, message, map[string]string{"Field": field})
}
