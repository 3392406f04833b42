// Package interpret turns interpretation requests into readable text.
//
// The OpenAI client is the production collaborator; Static renders the
// catalog text directly and serves tests and key-less deployments. Fallback
// wraps either and substitutes fixed content when the collaborator fails, so
// callers always get something to show.
package interpret

import (
	"context"

	"github.com/oppajeom/oppajeom/internal/core/interpretation"
)

// Reading is the one-off interpretation shown after a casting.
type Reading struct {
	StatementTranslation string   `json:"statement_translation"`
	Explanation          string   `json:"explanation"`
	Advice               string   `json:"advice"`
	CoreSummary          []string `json:"core_summary"`
}

// WeeklyContent is the generated journal entry for one week.
type WeeklyContent struct {
	Week       int    `json:"week"`
	Koan       string `json:"koan"`
	Reflection string `json:"reflection"`
	ActionItem string `json:"action_item"`
}

// Reflection answers a free-form journal entry written after a reading.
type Reflection struct {
	Title      string `json:"title"`
	Quote      string `json:"quote"`
	Reflection string `json:"reflection"`
	ActionItem string `json:"action_item"`
}

// Interpreter produces interpretation text.
type Interpreter interface {
	Interpret(ctx context.Context, req interpretation.Request) (Reading, error)
	// Premium answers two follow-up questions about an existing reading.
	Premium(ctx context.Context, req interpretation.Request, q1, q2 string) (string, error)
	Reflect(ctx context.Context, req interpretation.Request, entry string) (Reflection, error)
	WeeklyContent(ctx context.Context, req interpretation.Request) (WeeklyContent, error)
	LineCommentary(ctx context.Context, hexagramName, lineText string) (string, error)
}
