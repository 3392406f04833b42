// Package storage defines persistence contracts for journal subscriptions
// and their weekly logs.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// Status is the subscription lifecycle label.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Subscription is one four-week journal program.
type Subscription struct {
	ID           string
	UserName     string
	Phone        string
	Question     string
	Situation    string
	MBTI         string
	Lines        string // six digits 6-9, bottom to top
	HexagramCode string
	MovingLines  []int
	CurrentWeek  int
	Status       Status
	StartedAt    time.Time
	UpdatedAt    time.Time
}

// WeeklyLog is the user's entry for a week and the content generated for it.
type WeeklyLog struct {
	ID             string
	SubscriptionID string
	Week           int
	Emotion        string
	Review         string
	Koan           string
	Reflection     string
	ActionItem     string
	CreatedAt      time.Time
}

// LogPage is one page of weekly logs.
type LogPage struct {
	Logs          []WeeklyLog
	NextPageToken string
}

// SubscriptionStore persists subscriptions.
type SubscriptionStore interface {
	PutSubscription(ctx context.Context, sub Subscription) error
	GetSubscription(ctx context.Context, id string) (Subscription, error)
	LatestSubscriptionByPhone(ctx context.Context, phone string) (Subscription, error)
	ListActiveSubscriptions(ctx context.Context) ([]Subscription, error)
	UpdateSubscriptionWeek(ctx context.Context, id string, week int, status Status, updatedAt time.Time) error
}

// LogStore persists weekly logs. GetLogByWeek returns the most recent entry
// for the week or ErrNotFound.
type LogStore interface {
	PutWeeklyLog(ctx context.Context, log WeeklyLog) error
	GetLogByWeek(ctx context.Context, subscriptionID string, week int) (WeeklyLog, error)
	ListWeeklyLogs(ctx context.Context, subscriptionID string, filter string, pageSize int, pageToken string) (LogPage, error)
}

// Store is the full journal persistence surface.
type Store interface {
	SubscriptionStore
	LogStore
	Close() error
}
