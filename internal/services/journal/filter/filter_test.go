package filter

import (
	"reflect"
	"testing"
	"time"
)

func TestParseLogFilter(t *testing.T) {
	tests := []struct {
		name       string
		filter     string
		wantClause string
		wantParams []any
	}{
		{name: "empty", filter: "  "},
		{name: "week", filter: "week = 2", wantClause: "week = ?", wantParams: []any{int64(2)}},
		{
			name:       "and",
			filter:     `week >= 2 AND emotion = "calm"`,
			wantClause: "(week >= ? AND emotion = ?)",
			wantParams: []any{int64(2), "calm"},
		},
		{
			name:       "or",
			filter:     `emotion = "calm" OR emotion != "angry"`,
			wantClause: "(emotion = ? OR emotion != ?)",
			wantParams: []any{"calm", "angry"},
		},
		{
			name:       "timestamp",
			filter:     `create_time > timestamp("2026-03-01T00:00:00Z")`,
			wantClause: "created_at > ?",
			wantParams: []any{time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC).UnixMilli()},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond, err := ParseLogFilter(tt.filter)
			if err != nil {
				t.Fatalf("ParseLogFilter: %v", err)
			}
			if cond.Clause != tt.wantClause {
				t.Fatalf("Clause = %q, want %q", cond.Clause, tt.wantClause)
			}
			if len(tt.wantParams) == 0 && len(cond.Params) == 0 {
				return
			}
			if !reflect.DeepEqual(cond.Params, tt.wantParams) {
				t.Fatalf("Params = %#v, want %#v", cond.Params, tt.wantParams)
			}
		})
	}
}

func TestParseLogFilterRejects(t *testing.T) {
	for _, filter := range []string{
		"review = \"x\"",
		"week = ",
	} {
		if _, err := ParseLogFilter(filter); err == nil {
			t.Errorf("ParseLogFilter(%q) expected error", filter)
		}
	}
}
