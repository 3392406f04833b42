package interpret

import (
	"context"
	"log"

	"github.com/oppajeom/oppajeom/internal/core/interpretation"
	i18n "github.com/oppajeom/oppajeom/internal/platform/i18n/catalog"
)

// FallbackWeekly returns the fixed journal entry shown when generation fails.
func FallbackWeekly(locale string, week int) WeeklyContent {
	p := i18n.Printer(locale)
	return WeeklyContent{
		Week:       week,
		Koan:       p.Sprintf("interpret.fallback.koan"),
		Reflection: p.Sprintf("interpret.fallback.reflection"),
		ActionItem: p.Sprintf("interpret.fallback.action_item"),
	}
}

// FallbackReading returns catalog-only reading text for a failed
// interpretation.
func FallbackReading(req interpretation.Request) Reading {
	return Reading{
		StatementTranslation: req.Hexagram.Statement,
		Explanation:          req.Hexagram.Statement,
		Advice:               i18n.Printer(req.Locale).Sprintf("interpret.fallback.advice"),
		CoreSummary:          []string{},
	}
}

// FallbackReflection returns the fixed reply to a journal entry.
func FallbackReflection(locale string) Reflection {
	p := i18n.Printer(locale)
	return Reflection{
		Title:      p.Sprintf("interpret.fallback.reflect.title"),
		Quote:      p.Sprintf("interpret.fallback.reflect.quote"),
		Reflection: p.Sprintf("interpret.fallback.reflect.reflection"),
		ActionItem: p.Sprintf("interpret.fallback.reflect.action_item"),
	}
}

// FallbackLine returns the line commentary placeholder for a failure.
func FallbackLine(locale string) string {
	return i18n.Printer(locale).Sprintf("interpret.fallback.line_error")
}

// ActionFor returns the small daily practice tied to a trigram, in the
// given locale. Unknown trigrams get the fallback practice.
func ActionFor(locale, trigram string) string {
	p := i18n.Printer(locale)
	switch trigram {
	case "111", "000", "100", "001", "010", "101", "011", "110":
		return p.Sprintf("interpret.action." + trigram)
	default:
		return p.Sprintf("interpret.fallback.action_item")
	}
}

// actionTrigram picks the trigram whose practice suits the week: the inner
// (lower) trigram while settling in, the outer (upper) trigram later, and the
// transformed hexagram's outer trigram once the change has arrived.
func actionTrigram(req interpretation.Request) string {
	code := req.BinaryCode
	if req.Week >= 3 && req.Changed != nil {
		code = req.Changed.Code
	}
	if len(code) != 6 {
		return ""
	}
	if req.Week >= 3 {
		return code[3:]
	}
	return code[:3]
}

// Fallback wraps an Interpreter and substitutes fixed content for failures.
type Fallback struct {
	next   Interpreter
	locale string
}

// NewFallback wraps next. The locale is used for line commentary, whose
// calls carry no request locale.
func NewFallback(next Interpreter, locale string) *Fallback {
	if locale == "" {
		locale = i18n.BaseLocale
	}
	return &Fallback{next: next, locale: locale}
}

// Interpret returns the reading or catalog-only text on failure.
func (f *Fallback) Interpret(ctx context.Context, req interpretation.Request) (Reading, error) {
	reading, err := f.next.Interpret(ctx, req)
	if err != nil {
		log.Printf("interpret: reading for %s fell back: %v", req.BinaryCode, err)
		return FallbackReading(req), nil
	}
	return reading, nil
}

// Premium passes failures through. The follow-up is paid for, so a stand-in
// answer is never substituted.
func (f *Fallback) Premium(ctx context.Context, req interpretation.Request, q1, q2 string) (string, error) {
	return f.next.Premium(ctx, req, q1, q2)
}

// Reflect returns the reflection or the fixed reply on failure.
func (f *Fallback) Reflect(ctx context.Context, req interpretation.Request, entry string) (Reflection, error) {
	out, err := f.next.Reflect(ctx, req, entry)
	if err != nil {
		log.Printf("interpret: reflection for %s fell back: %v", req.BinaryCode, err)
		return FallbackReflection(req.Locale), nil
	}
	return out, nil
}

// WeeklyContent returns generated content or the fixed fallback entry.
func (f *Fallback) WeeklyContent(ctx context.Context, req interpretation.Request) (WeeklyContent, error) {
	content, err := f.next.WeeklyContent(ctx, req)
	if err != nil {
		log.Printf("interpret: week %d content for %s fell back: %v", req.Week, req.BinaryCode, err)
		return FallbackWeekly(req.Locale, req.Week), nil
	}
	return content, nil
}

// LineCommentary returns commentary, the empty-text placeholder, or the
// failure placeholder.
func (f *Fallback) LineCommentary(ctx context.Context, hexagramName, lineText string) (string, error) {
	text, err := f.next.LineCommentary(ctx, hexagramName, lineText)
	if err != nil {
		log.Printf("interpret: line commentary for %s fell back: %v", hexagramName, err)
		return FallbackLine(f.locale), nil
	}
	if text == "" {
		return i18n.Printer(f.locale).Sprintf("interpret.fallback.line_empty"), nil
	}
	return text, nil
}
