package interpret

import (
	"context"
	"strconv"
	"strings"

	"github.com/oppajeom/oppajeom/internal/core/interpretation"
	i18n "github.com/oppajeom/oppajeom/internal/platform/i18n/catalog"
)

// Static renders interpretations from catalog text alone.
type Static struct {
	locale string
}

// NewStatic builds a Static interpreter. The locale applies to line
// commentary.
func NewStatic(locale string) *Static {
	if locale == "" {
		locale = i18n.BaseLocale
	}
	return &Static{locale: locale}
}

// Interpret summarizes the statement and moving lines.
func (s *Static) Interpret(ctx context.Context, req interpretation.Request) (Reading, error) {
	if err := ctx.Err(); err != nil {
		return Reading{}, err
	}
	p := i18n.Printer(req.Locale)
	name := req.Hexagram.Name + " (" + req.Hexagram.Hanja + ")"

	explanation := []string{req.Hexagram.Statement}
	explanation = append(explanation, req.MovingTexts...)
	if req.Changed != nil {
		explanation = append(explanation, req.Changed.Name+": "+req.Changed.Statement)
	}

	summary := make([]string, 0, 3)
	summary = append(summary, name)
	if len(req.MovingLines) > 0 {
		positions := make([]string, len(req.MovingLines))
		for i, pos := range req.MovingLines {
			positions[i] = strconv.Itoa(pos)
		}
		summary = append(summary, p.Sprintf("interpret.static.summary.changing", strings.Join(positions, ", ")))
	} else {
		summary = append(summary, p.Sprintf("interpret.static.summary.still"))
	}
	summary = append(summary, actionTitle(ActionFor(req.Locale, actionTrigram(req))))

	return Reading{
		StatementTranslation: req.Hexagram.Statement,
		Explanation:          strings.Join(explanation, "\n\n"),
		Advice:               p.Sprintf("interpret.static.advice", name, req.Hexagram.Statement),
		CoreSummary:          summary,
	}, nil
}

// Premium answers the first question from the statement and the second
// from the transformed hexagram when there is one.
func (s *Static) Premium(ctx context.Context, req interpretation.Request, q1, q2 string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p := i18n.Printer(req.Locale)
	first := p.Sprintf("interpret.static.premium.answer", q1, req.Hexagram.Name, req.Hexagram.Statement)
	second := p.Sprintf("interpret.static.premium.answer", q2, req.Hexagram.Name, req.Hexagram.Statement)
	if req.Changed != nil {
		second = p.Sprintf("interpret.static.premium.changing", q2, req.Changed.Name, req.Changed.Statement)
	}
	return first + "\n\n" + second, nil
}

// Reflect quotes the entry back beside the hexagram statement.
func (s *Static) Reflect(ctx context.Context, req interpretation.Request, entry string) (Reflection, error) {
	if err := ctx.Err(); err != nil {
		return Reflection{}, err
	}
	p := i18n.Printer(req.Locale)
	return Reflection{
		Title:      p.Sprintf("interpret.static.reflect.title", req.Hexagram.Name),
		Quote:      req.Hexagram.Statement,
		Reflection: p.Sprintf("interpret.static.reflect.body", excerpt(entry, excerptRunes), req.Hexagram.Name),
		ActionItem: ActionFor(req.Locale, actionTrigram(req)),
	}, nil
}

// WeeklyContent frames the week's passage as a koan.
func (s *Static) WeeklyContent(ctx context.Context, req interpretation.Request) (WeeklyContent, error) {
	if err := ctx.Err(); err != nil {
		return WeeklyContent{}, err
	}
	p := i18n.Printer(req.Locale)
	passage := req.Passage
	if passage == "" {
		passage = req.Hexagram.Statement
	}
	return WeeklyContent{
		Week:       req.Week,
		Koan:       p.Sprintf("interpret.static.koan", passage),
		Reflection: p.Sprintf("interpret.static.reflection", req.Theme, passage),
		ActionItem: ActionFor(req.Locale, actionTrigram(req)),
	}, nil
}

// LineCommentary returns the line text itself.
func (s *Static) LineCommentary(ctx context.Context, hexagramName, lineText string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(lineText) == "" {
		return i18n.Printer(s.locale).Sprintf("interpret.fallback.line_pending"), nil
	}
	return hexagramName + ": " + lineText, nil
}

const excerptRunes = 60

// excerpt trims text to at most n runes, marking the cut.
func excerpt(text string, n int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return strings.TrimSpace(string(runes[:n])) + "…"
}

// actionTitle extracts the bracketed title from a practice.
func actionTitle(action string) string {
	title, _, _ := strings.Cut(action, "\n")
	return strings.TrimSpace(title)
}
