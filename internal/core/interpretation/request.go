// Package interpretation shapes the payload handed to the interpretation
// collaborator. It copies data; it makes no decisions.
package interpretation

import (
	"github.com/oppajeom/oppajeom/internal/core/hexagram"
	"github.com/oppajeom/oppajeom/internal/core/journal"
	apperrors "github.com/oppajeom/oppajeom/internal/platform/errors"
)

// UserContext is what the user told us about themselves and their question.
type UserContext struct {
	Name      string `json:"name"`
	Question  string `json:"question"`
	Situation string `json:"situation,omitempty"`
	MBTI      string `json:"mbti,omitempty"`
}

// HexagramInfo is the catalog data for one hexagram.
type HexagramInfo struct {
	Code      string    `json:"code"`
	Number    int       `json:"number"`
	Name      string    `json:"name"`
	Hanja     string    `json:"hanja"`
	Statement string    `json:"statement"`
	Lines     [6]string `json:"lines"`
}

// Feedback carries last week's action item and the user's reply to it.
type Feedback struct {
	PreviousActionItem string `json:"previous_action_item,omitempty"`
	Emotion            string `json:"emotion,omitempty"`
	Review             string `json:"review,omitempty"`
}

// Request is the structured interpretation payload.
type Request struct {
	Locale      string         `json:"locale"`
	User        UserContext    `json:"user"`
	BinaryCode  string         `json:"binary_code"`
	Hexagram    HexagramInfo   `json:"hexagram"`
	MovingLines []int          `json:"moving_lines"`
	MovingTexts []string       `json:"moving_texts,omitempty"`
	Changed     *HexagramInfo  `json:"changed,omitempty"`
	ChangedName string         `json:"changed_name"`
	Week        int            `json:"week,omitempty"`
	Passage     string         `json:"passage,omitempty"`
	Focus       *journal.Focus `json:"focus,omitempty"`
	Theme       string         `json:"theme,omitempty"`
	Feedback    *Feedback      `json:"feedback,omitempty"`
}

// HasChange reports whether the request carries a transformed hexagram.
func (r Request) HasChange() bool {
	return r.Changed != nil
}

// Option adds optional data to a request.
type Option func(*Request)

// WithLocale sets the locale used for labels such as "no change".
func WithLocale(locale string) Option {
	return func(r *Request) {
		r.Locale = locale
	}
}

// WithPassage attaches a journal week: its statement or focus line, and its
// theme.
func WithPassage(passage journal.Passage, theme string) Option {
	return func(r *Request) {
		r.Week = passage.Week
		r.Passage = passage.Text()
		r.Focus = passage.Focus
		r.Theme = theme
	}
}

// WithFeedback attaches the previous week's feedback. Empty feedback is
// dropped.
func WithFeedback(fb Feedback) Option {
	return func(r *Request) {
		if fb == (Feedback{}) {
			return
		}
		r.Feedback = &fb
	}
}

// Build assembles a request for a resolved reading.
func Build(user UserContext, reading hexagram.Reading, opts ...Option) (Request, error) {
	if reading.Hexagram.IsZero() {
		return Request{}, hexagram.ErrHexagramIncomplete
	}
	if reading.Record.Code != reading.Hexagram.BinaryCode() {
		return Request{}, apperrors.New(apperrors.CodeCatalogIntegrity, "record does not match hexagram")
	}

	req := Request{
		Locale:      "ko-KR",
		User:        user,
		BinaryCode:  reading.Hexagram.BinaryCode(),
		Hexagram:    infoFrom(reading),
		MovingLines: append([]int(nil), reading.MovingLines...),
	}
	for _, pos := range req.MovingLines {
		req.MovingTexts = append(req.MovingTexts, reading.Record.Lines[pos-1])
	}
	if reading.TransformedRecord != nil {
		changed := HexagramInfo(*reading.TransformedRecord)
		req.Changed = &changed
	}
	for _, opt := range opts {
		opt(&req)
	}
	req.ChangedName = journal.ChangedName(req.Locale, reading)
	return req, nil
}

func infoFrom(reading hexagram.Reading) HexagramInfo {
	return HexagramInfo(reading.Record)
}
