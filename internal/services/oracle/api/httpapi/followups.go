package httpapi

import (
	"log"
	"net/http"
	"strings"

	"github.com/oppajeom/oppajeom/internal/core/hexagram"
	"github.com/oppajeom/oppajeom/internal/core/interpretation"
	"github.com/oppajeom/oppajeom/internal/core/wizard"
	i18n "github.com/oppajeom/oppajeom/internal/platform/i18n/catalog"
	"github.com/oppajeom/oppajeom/internal/services/journal/service"
)

// castingRequest identifies an earlier reading by its user and lines.
type castingRequest struct {
	Name      string `json:"name"`
	Question  string `json:"question"`
	Situation string `json:"situation"`
	MBTI      string `json:"mbti"`
	Locale    string `json:"locale"`
	Lines     string `json:"lines"`
}

type premiumRequest struct {
	castingRequest
	Q1 string `json:"q1"`
	Q2 string `json:"q2"`
}

type premiumResponse struct {
	Step   wizard.PremiumStep `json:"step"`
	Advice string             `json:"advice"`
}

type reflectionRequest struct {
	castingRequest
	Entry string `json:"entry"`
}

// createPremium answers the two follow-up questions on a reading. Payment
// happens upstream; reaching this handler counts as paid.
func (h *handler) createPremium(w http.ResponseWriter, r *http.Request) {
	var in premiumRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	step, err := wizard.PremiumIdle.Transition(wizard.PremiumOpen)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req, err := h.rebuildRequest(r, in.castingRequest)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q1, q2 := strings.TrimSpace(in.Q1), strings.TrimSpace(in.Q2)
	if q1 == "" {
		writeError(w, r, fieldError("q1", "both questions are required"))
		return
	}
	if q2 == "" {
		writeError(w, r, fieldError("q2", "both questions are required"))
		return
	}
	if step, err = step.Transition(wizard.PremiumPaid); err != nil {
		writeError(w, r, err)
		return
	}

	advice, err := h.interpreter.Premium(r.Context(), req, q1, q2)
	if err != nil {
		log.Printf("httpapi: premium %s: %v", req.BinaryCode, err)
		if _, fireErr := step.Transition(wizard.PremiumFailed); fireErr != nil {
			log.Printf("httpapi: %v", fireErr)
		}
		writeError(w, r, err)
		return
	}
	if step, err = step.Transition(wizard.PremiumDone); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, premiumResponse{Step: step, Advice: advice})
}

// createReflection answers a free-form journal entry about a reading.
func (h *handler) createReflection(w http.ResponseWriter, r *http.Request) {
	var in reflectionRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	req, err := h.rebuildRequest(r, in.castingRequest)
	if err != nil {
		writeError(w, r, err)
		return
	}
	entry := strings.TrimSpace(in.Entry)
	if entry == "" {
		writeError(w, r, fieldError("entry", "entry is required"))
		return
	}
	out, err := h.interpreter.Reflect(r.Context(), req, entry)
	if err != nil {
		log.Printf("httpapi: reflect %s: %v", req.BinaryCode, err)
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// rebuildRequest resolves the lines of an earlier reading into the request
// the interpreter saw.
func (h *handler) rebuildRequest(r *http.Request, in castingRequest) (interpretation.Request, error) {
	user := interpretation.UserContext{
		Name:      strings.TrimSpace(in.Name),
		Question:  strings.TrimSpace(in.Question),
		Situation: strings.TrimSpace(in.Situation),
		MBTI:      strings.ToUpper(strings.TrimSpace(in.MBTI)),
	}
	if user.Name == "" {
		return interpretation.Request{}, fieldError("name", "name is required")
	}
	if user.Question == "" {
		return interpretation.Request{}, fieldError("question", "question is required")
	}
	lines, err := service.ParseLines(in.Lines)
	if err != nil {
		return interpretation.Request{}, err
	}
	cast, err := hexagram.FromLines(lines)
	if err != nil {
		return interpretation.Request{}, err
	}
	reading, err := hexagram.Resolve(h.catalog, cast)
	if err != nil {
		return interpretation.Request{}, err
	}
	return interpretation.Build(user, reading, interpretation.WithLocale(bodyLocale(r, in.Locale)))
}

// bodyLocale prefers an explicit locale field over Accept-Language.
func bodyLocale(r *http.Request, locale string) string {
	if strings.TrimSpace(locale) == "" {
		return requestLocale(r)
	}
	return i18n.Default().Match(locale)
}
