package httpapi

import (
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/oppajeom/oppajeom/internal/core/coin"
	"github.com/oppajeom/oppajeom/internal/core/hexagram"
	"github.com/oppajeom/oppajeom/internal/core/hexagram/catalog"
	"github.com/oppajeom/oppajeom/internal/core/interpretation"
	"github.com/oppajeom/oppajeom/internal/core/wizard"
	apperrors "github.com/oppajeom/oppajeom/internal/platform/errors"
	"github.com/oppajeom/oppajeom/internal/services/interpret"
	"github.com/oppajeom/oppajeom/internal/services/journal/service"
)

type readingRequest struct {
	Name      string `json:"name"`
	Question  string `json:"question"`
	Situation string `json:"situation"`
	MBTI      string `json:"mbti"`
	Locale    string `json:"locale"`
	// Lines are six digits 6-9, bottom first. Empty means cast coins.
	Lines string `json:"lines"`
	Seed  *int64 `json:"seed"`
}

type tossView struct {
	Faces [coin.CoinsPerLine]int `json:"faces"`
	Value int                    `json:"value"`
}

type readingResponse struct {
	Step           wizard.Step       `json:"step"`
	Seed           *int64            `json:"seed,omitempty"`
	Lines          string            `json:"lines"`
	Tosses         []tossView        `json:"tosses,omitempty"`
	BinaryCode     string            `json:"binary_code"`
	MovingLines    []int             `json:"moving_lines"`
	Hexagram       catalog.Record    `json:"hexagram"`
	Transformed    *catalog.Record   `json:"transformed,omitempty"`
	ChangedName    string            `json:"changed_name"`
	Interpretation interpret.Reading `json:"interpretation"`
}

func (h *handler) createReading(w http.ResponseWriter, r *http.Request) {
	var in readingRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	user := interpretation.UserContext{
		Name:      strings.TrimSpace(in.Name),
		Question:  strings.TrimSpace(in.Question),
		Situation: strings.TrimSpace(in.Situation),
		MBTI:      strings.ToUpper(strings.TrimSpace(in.MBTI)),
	}
	if user.Name == "" {
		writeError(w, r, fieldError("name", "name is required"))
		return
	}
	if user.Question == "" {
		writeError(w, r, fieldError("question", "question is required"))
		return
	}

	session := wizard.NewSession()
	for _, trigger := range []wizard.Trigger{wizard.TriggerStart, wizard.TriggerSubmit} {
		if err := session.Fire(trigger); err != nil {
			writeError(w, r, err)
			return
		}
	}

	resp := readingResponse{}
	source := "lines"
	if strings.TrimSpace(in.Lines) != "" {
		lines, err := service.ParseLines(in.Lines)
		if err != nil {
			writeError(w, r, err)
			return
		}
		for _, v := range lines {
			if err := session.CastLine(v); err != nil {
				writeError(w, r, err)
				return
			}
		}
	} else {
		source = "coins"
		caster, seed, err := casterFor(in.Seed)
		if err != nil {
			writeError(w, r, err)
			return
		}
		resp.Seed = &seed
		for session.Step() == wizard.StepDivination {
			toss := caster.Toss()
			resp.Tosses = append(resp.Tosses, tossViewOf(toss))
			if err := session.CastLine(toss.Value); err != nil {
				writeError(w, r, err)
				return
			}
		}
	}

	cast, err := session.Hexagram()
	if err != nil {
		writeError(w, r, err)
		return
	}
	reading, err := hexagram.Resolve(h.catalog, cast)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req, err := interpretation.Build(user, reading, interpretation.WithLocale(bodyLocale(r, in.Locale)))
	if err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.interpreter.Interpret(r.Context(), req)
	if err != nil {
		log.Printf("httpapi: interpret %s: %v", req.BinaryCode, err)
		if fireErr := session.Fire(wizard.TriggerAnalysisFailed); fireErr != nil {
			log.Printf("httpapi: %v", fireErr)
		}
		writeError(w, r, err)
		return
	}
	if err := session.Fire(wizard.TriggerAnalysisDone); err != nil {
		writeError(w, r, err)
		return
	}
	h.metrics.RecordReading(source, cast.HasChange())

	resp.Step = session.Step()
	resp.Lines = service.FormatLines(cast.Lines())
	resp.BinaryCode = req.BinaryCode
	resp.MovingLines = req.MovingLines
	if resp.MovingLines == nil {
		resp.MovingLines = []int{}
	}
	resp.Hexagram = reading.Record
	resp.Transformed = reading.TransformedRecord
	resp.ChangedName = req.ChangedName
	resp.Interpretation = result
	writeJSON(w, http.StatusOK, resp)
}

type hexagramResponse struct {
	catalog.Record
	DisplayName string `json:"display_name"`
}

func (h *handler) getHexagram(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if _, err := hexagram.FromCode(code); err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := h.catalog.Lookup(code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hexagramResponse{Record: rec, DisplayName: rec.DisplayName()})
}

func casterFor(seed *int64) (*coin.Caster, int64, error) {
	if seed != nil {
		return coin.NewSeeded(*seed), *seed, nil
	}
	return coin.NewRandom()
}

func tossViewOf(t coin.Toss) tossView {
	view := tossView{Value: int(t.Value)}
	for i, f := range t.Faces {
		view.Faces[i] = int(f)
	}
	return view
}

func fieldError(field, message string) error {
	return apperrors.WithMetadata(apperrors.CodeInvalidArgument, message, map[string]string{"Field": field})
}
