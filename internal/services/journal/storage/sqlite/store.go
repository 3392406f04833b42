// Package sqlite provides the SQLite-backed journal store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	sqlitemigrate "github.com/oppajeom/oppajeom/internal/platform/storage/sqlitemigrate"
	"github.com/oppajeom/oppajeom/internal/services/journal/filter"
	"github.com/oppajeom/oppajeom/internal/services/journal/storage"
	"github.com/oppajeom/oppajeom/internal/services/journal/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists journal state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite journal store and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(ctx, sqlDB, migrations.FS, "."); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return s.sqlDB.PingContext(ctx)
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

const subscriptionColumns = `id, user_name, phone, question, situation, mbti, lines, hexagram_code,
	moving_lines, current_week, status, started_at, updated_at`

// PutSubscription inserts or replaces a subscription.
func (s *Store) PutSubscription(ctx context.Context, sub storage.Subscription) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(sub.ID) == "" {
		return fmt.Errorf("subscription id is required")
	}
	if strings.TrimSpace(sub.Phone) == "" {
		return fmt.Errorf("phone is required")
	}
	if len(sub.Lines) != 6 || len(sub.HexagramCode) != 6 {
		return fmt.Errorf("lines and hexagram code must have six characters")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO subscriptions (`+subscriptionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   user_name = excluded.user_name,
		   phone = excluded.phone,
		   question = excluded.question,
		   situation = excluded.situation,
		   mbti = excluded.mbti,
		   lines = excluded.lines,
		   hexagram_code = excluded.hexagram_code,
		   moving_lines = excluded.moving_lines,
		   current_week = excluded.current_week,
		   status = excluded.status,
		   updated_at = excluded.updated_at`,
		sub.ID,
		sub.UserName,
		strings.TrimSpace(sub.Phone),
		sub.Question,
		sub.Situation,
		sub.MBTI,
		sub.Lines,
		sub.HexagramCode,
		encodePositions(sub.MovingLines),
		sub.CurrentWeek,
		string(sub.Status),
		toMillis(sub.StartedAt),
		toMillis(sub.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put subscription: %w", err)
	}
	return nil
}

// GetSubscription returns one subscription by id.
func (s *Store) GetSubscription(ctx context.Context, id string) (storage.Subscription, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Subscription{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = ?`,
		strings.TrimSpace(id),
	)
	sub, err := scanSubscription(row)
	if err != nil {
		return storage.Subscription{}, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

// LatestSubscriptionByPhone returns the most recently started subscription
// for a phone number.
func (s *Store) LatestSubscriptionByPhone(ctx context.Context, phone string) (storage.Subscription, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Subscription{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+`
		 FROM subscriptions
		 WHERE phone = ?
		 ORDER BY started_at DESC
		 LIMIT 1`,
		strings.TrimSpace(phone),
	)
	sub, err := scanSubscription(row)
	if err != nil {
		return storage.Subscription{}, fmt.Errorf("latest subscription: %w", err)
	}
	return sub, nil
}

// ListActiveSubscriptions returns every active subscription, oldest first.
func (s *Store) ListActiveSubscriptions(ctx context.Context) ([]storage.Subscription, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+subscriptionColumns+`
		 FROM subscriptions
		 WHERE status = ?
		 ORDER BY started_at ASC`,
		string(storage.StatusActive),
	)
	if err != nil {
		return nil, fmt.Errorf("list active subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []storage.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("list active subscriptions: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list active subscriptions: %w", err)
	}
	return subs, nil
}

// UpdateSubscriptionWeek sets the current week and status.
func (s *Store) UpdateSubscriptionWeek(ctx context.Context, id string, week int, status storage.Status, updatedAt time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE subscriptions SET current_week = ?, status = ?, updated_at = ? WHERE id = ?`,
		week,
		string(status),
		toMillis(updatedAt),
		strings.TrimSpace(id),
	)
	if err != nil {
		return fmt.Errorf("update subscription week: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update subscription week: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// PutWeeklyLog appends a weekly log entry.
func (s *Store) PutWeeklyLog(ctx context.Context, log storage.WeeklyLog) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(log.ID) == "" {
		return fmt.Errorf("log id is required")
	}
	if strings.TrimSpace(log.SubscriptionID) == "" {
		return fmt.Errorf("subscription id is required")
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO weekly_logs (id, subscription_id, week, emotion, review, koan, reflection, action_item, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		log.ID,
		log.SubscriptionID,
		log.Week,
		log.Emotion,
		log.Review,
		log.Koan,
		log.Reflection,
		log.ActionItem,
		toMillis(log.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("put weekly log: %w", err)
	}
	return nil
}

const logColumns = `seq, id, subscription_id, week, emotion, review, koan, reflection, action_item, created_at`

// GetLogByWeek returns the most recent log for a subscription week.
func (s *Store) GetLogByWeek(ctx context.Context, subscriptionID string, week int) (storage.WeeklyLog, error) {
	if err := s.ready(ctx); err != nil {
		return storage.WeeklyLog{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+logColumns+`
		 FROM weekly_logs
		 WHERE subscription_id = ? AND week = ?
		 ORDER BY seq DESC
		 LIMIT 1`,
		strings.TrimSpace(subscriptionID),
		week,
	)
	log, _, err := scanLog(row)
	if err != nil {
		return storage.WeeklyLog{}, fmt.Errorf("get log by week: %w", err)
	}
	return log, nil
}

// ListWeeklyLogs returns one page of a subscription's logs in insertion
// order, narrowed by an AIP-160 filter.
func (s *Store) ListWeeklyLogs(ctx context.Context, subscriptionID string, filterStr string, pageSize int, pageToken string) (storage.LogPage, error) {
	if err := s.ready(ctx); err != nil {
		return storage.LogPage{}, err
	}
	if pageSize <= 0 {
		return storage.LogPage{}, fmt.Errorf("page size must be greater than zero")
	}
	cond, err := filter.ParseLogFilter(filterStr)
	if err != nil {
		return storage.LogPage{}, err
	}

	var after int64
	if token := strings.TrimSpace(pageToken); token != "" {
		after, err = strconv.ParseInt(token, 10, 64)
		if err != nil || after < 0 {
			return storage.LogPage{}, fmt.Errorf("invalid page token")
		}
	}

	query := `SELECT ` + logColumns + ` FROM weekly_logs WHERE subscription_id = ? AND seq > ?`
	params := []any{strings.TrimSpace(subscriptionID), after}
	if !cond.IsEmpty() {
		query += " AND " + cond.Clause
		params = append(params, cond.Params...)
	}
	query += " ORDER BY seq ASC LIMIT ?"
	params = append(params, pageSize+1)

	rows, err := s.sqlDB.QueryContext(ctx, query, params...)
	if err != nil {
		return storage.LogPage{}, fmt.Errorf("list weekly logs: %w", err)
	}
	defer rows.Close()

	page := storage.LogPage{Logs: make([]storage.WeeklyLog, 0, pageSize)}
	var seqs []int64
	for rows.Next() {
		log, seq, err := scanLog(rows)
		if err != nil {
			return storage.LogPage{}, fmt.Errorf("list weekly logs: %w", err)
		}
		page.Logs = append(page.Logs, log)
		seqs = append(seqs, seq)
	}
	if err := rows.Err(); err != nil {
		return storage.LogPage{}, fmt.Errorf("list weekly logs: %w", err)
	}
	if len(page.Logs) > pageSize {
		page.NextPageToken = strconv.FormatInt(seqs[pageSize-1], 10)
		page.Logs = page.Logs[:pageSize]
	}
	return page, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row scanner) (storage.Subscription, error) {
	var (
		sub       storage.Subscription
		moving    string
		status    string
		startedAt int64
		updatedAt int64
	)
	err := row.Scan(
		&sub.ID,
		&sub.UserName,
		&sub.Phone,
		&sub.Question,
		&sub.Situation,
		&sub.MBTI,
		&sub.Lines,
		&sub.HexagramCode,
		&moving,
		&sub.CurrentWeek,
		&status,
		&startedAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Subscription{}, storage.ErrNotFound
		}
		return storage.Subscription{}, err
	}
	positions, err := decodePositions(moving)
	if err != nil {
		return storage.Subscription{}, err
	}
	sub.MovingLines = positions
	sub.Status = storage.Status(status)
	sub.StartedAt = fromMillis(startedAt)
	sub.UpdatedAt = fromMillis(updatedAt)
	return sub, nil
}

func scanLog(row scanner) (storage.WeeklyLog, int64, error) {
	var (
		log       storage.WeeklyLog
		seq       int64
		createdAt int64
	)
	err := row.Scan(
		&seq,
		&log.ID,
		&log.SubscriptionID,
		&log.Week,
		&log.Emotion,
		&log.Review,
		&log.Koan,
		&log.Reflection,
		&log.ActionItem,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.WeeklyLog{}, 0, storage.ErrNotFound
		}
		return storage.WeeklyLog{}, 0, err
	}
	log.CreatedAt = fromMillis(createdAt)
	return log, seq, nil
}

func encodePositions(positions []int) string {
	parts := make([]string, len(positions))
	for i, p := range positions {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}

func decodePositions(value string) ([]int, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	parts := strings.Split(value, ",")
	positions := make([]int, 0, len(parts))
	for _, part := range parts {
		p, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("decode moving lines %q: %w", value, err)
		}
		positions = append(positions, p)
	}
	return positions, nil
}

var _ storage.Store = (*Store)(nil)
