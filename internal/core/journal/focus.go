// Package journal holds the pure rules of the four-week journal: which line
// each week focuses on and which theme frames it.
package journal

import (
	"strconv"

	"github.com/oppajeom/oppajeom/internal/core/hexagram"
	"github.com/oppajeom/oppajeom/internal/core/hexagram/catalog"
	apperrors "github.com/oppajeom/oppajeom/internal/platform/errors"
)

const (
	// FirstWeek reads the hexagram statement instead of a line.
	FirstWeek = 1
	// Weeks is the length of the program.
	Weeks = 4
)

// ErrStatementWeek is returned when a line focus is requested for week one.
var ErrStatementWeek = apperrors.New(apperrors.CodeInvalidState, "week 1 uses the hexagram statement")

// Focus is the line a week concentrates on.
type Focus struct {
	Week           int    `json:"week"`
	Position       int    `json:"position"`
	LineText       string `json:"line_text"`
	UsedMovingLine bool   `json:"used_moving_line"`
}

// ValidateWeek rejects weeks outside the program.
func ValidateWeek(week int) error {
	if week < FirstWeek || week > Weeks {
		return apperrors.WithMetadata(
			apperrors.CodeInvalidArgument,
			"week must be between 1 and 4, got "+strconv.Itoa(week),
			map[string]string{"Field": "week"},
		)
	}
	return nil
}

// FocusPosition returns the 1-based line for weeks 2 to 4: the (week-1)th
// moving line when there is one, otherwise ((week-1) mod 6) + 1.
func FocusPosition(h hexagram.Hexagram, week int) (position int, usedMovingLine bool, err error) {
	if err := ValidateWeek(week); err != nil {
		return 0, false, err
	}
	if week == FirstWeek {
		return 0, false, ErrStatementWeek
	}
	moving := h.MovingLines()
	if idx := week - 2; idx < len(moving) {
		return moving[idx], true, nil
	}
	return (week-1)%hexagram.LineCount + 1, false, nil
}

// SelectFocusLine picks the week's line text from the record of h.
func SelectFocusLine(rec catalog.Record, h hexagram.Hexagram, week int) (Focus, error) {
	position, moving, err := FocusPosition(h, week)
	if err != nil {
		return Focus{}, err
	}
	text, err := rec.LineText(position)
	if err != nil {
		return Focus{}, err
	}
	return Focus{
		Week:           week,
		Position:       position,
		LineText:       text,
		UsedMovingLine: moving,
	}, nil
}

// WeekOneStatement returns the text week one reflects on.
func WeekOneStatement(rec catalog.Record) string {
	return rec.Statement
}

// Passage is the text a week is built around: the statement in week one, a
// focus line afterwards.
type Passage struct {
	Week      int    `json:"week"`
	Statement string `json:"statement,omitempty"`
	Focus     *Focus `json:"focus,omitempty"`
}

// Text returns the passage body.
func (p Passage) Text() string {
	if p.Focus != nil {
		return p.Focus.LineText
	}
	return p.Statement
}

// PassageFor routes week one to the statement and later weeks to
// SelectFocusLine.
func PassageFor(rec catalog.Record, h hexagram.Hexagram, week int) (Passage, error) {
	if err := ValidateWeek(week); err != nil {
		return Passage{}, err
	}
	if week == FirstWeek {
		return Passage{Week: week, Statement: WeekOneStatement(rec)}, nil
	}
	focus, err := SelectFocusLine(rec, h, week)
	if err != nil {
		return Passage{}, err
	}
	return Passage{Week: week, Focus: &focus}, nil
}
