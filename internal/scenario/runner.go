package scenario

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"slices"
	"strings"

	"github.com/oppajeom/oppajeom/internal/core/coin"
	"github.com/oppajeom/oppajeom/internal/core/hexagram"
	"github.com/oppajeom/oppajeom/internal/core/hexagram/catalog"
	"github.com/oppajeom/oppajeom/internal/core/journal"
	"github.com/oppajeom/oppajeom/internal/core/wizard"
)

// AssertionMode decides whether failed expectations fail the run.
type AssertionMode int

const (
	// AssertionStrict returns an error when any expectation fails.
	AssertionStrict AssertionMode = iota
	// AssertionLogOnly logs failed expectations and succeeds.
	AssertionLogOnly
)

// Config controls scenario execution.
type Config struct {
	Catalog    *catalog.Catalog
	Assertions AssertionMode
	Verbose    bool
	Logger     *log.Logger
}

// Failure is one unmet expectation.
type Failure struct {
	Step    int
	Kind    string
	Message string
}

func (f Failure) String() string {
	return fmt.Sprintf("step %d (%s): %s", f.Step, f.Kind, f.Message)
}

// Report summarises a run.
type Report struct {
	Scenario string
	Steps    int
	Castings int
	Failures []Failure
}

// RunFile loads and runs one script.
func RunFile(ctx context.Context, cfg Config, path string) (Report, error) {
	sc, err := LoadFile(path)
	if err != nil {
		return Report{}, err
	}
	return Run(ctx, cfg, sc)
}

// Run evaluates each step in order. Casting steps drive a wizard session
// through divination so the flow rules apply to scripted casts too.
func Run(ctx context.Context, cfg Config, sc *Scenario) (Report, error) {
	if sc == nil {
		return Report{}, errors.New("scenario is nil")
	}
	if cfg.Catalog == nil {
		c, err := catalog.Default()
		if err != nil {
			return Report{}, err
		}
		cfg.Catalog = c
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	r := &run{catalog: cfg.Catalog, report: Report{Scenario: sc.Name}}
	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return r.report, err
		}
		index := i + 1
		if cfg.Verbose {
			logger.Printf("%s: step %d %s", sc.Name, index, step.Kind)
		}
		if msg := r.apply(step); msg != "" {
			r.report.Failures = append(r.report.Failures, Failure{Step: index, Kind: step.Kind, Message: msg})
		}
		r.report.Steps++
	}

	if len(r.report.Failures) == 0 {
		return r.report, nil
	}
	for _, f := range r.report.Failures {
		logger.Printf("%s: %s", sc.Name, f)
	}
	if cfg.Assertions == AssertionLogOnly {
		return r.report, nil
	}
	return r.report, fmt.Errorf("scenario %q: %d of %d steps failed", sc.Name, len(r.report.Failures), r.report.Steps)
}

type run struct {
	catalog *catalog.Catalog
	report  Report
	cast    *hexagram.Hexagram
	reading hexagram.Reading
}

// apply runs one step and returns a failure message, or "" on success.
func (r *run) apply(step Step) string {
	switch step.Kind {
	case StepCast:
		values := make([]hexagram.LineValue, 0, len(step.Lines))
		for _, v := range step.Lines {
			lv, err := hexagram.ParseLineValue(v)
			if err != nil {
				r.cast = nil
				return err.Error()
			}
			values = append(values, lv)
		}
		return r.castLines(func(i int) (hexagram.LineValue, bool) {
			if i >= len(values) {
				return 0, false
			}
			return values[i], true
		})
	case StepSeeded:
		caster := coin.NewSeeded(step.Seed)
		return r.castLines(func(int) (hexagram.LineValue, bool) {
			return caster.Draw(), true
		})
	}

	if r.cast == nil {
		return "no casting to check"
	}
	switch step.Kind {
	case StepExpectCode:
		if got := r.cast.BinaryCode(); got != step.Code {
			return fmt.Sprintf("code = %s, want %s", got, step.Code)
		}
	case StepExpectMoving:
		got := r.cast.MovingLines()
		if !slices.Equal(got, step.Ints) && !(len(got) == 0 && len(step.Ints) == 0) {
			return fmt.Sprintf("moving lines = %v, want %v", got, step.Ints)
		}
	case StepExpectChanged:
		switch {
		case step.Code == "" && r.reading.Transformed != nil:
			return fmt.Sprintf("changed = %s, want none", r.reading.Transformed.BinaryCode())
		case step.Code != "" && r.reading.Transformed == nil:
			return fmt.Sprintf("changed = none, want %s", step.Code)
		case step.Code != "" && r.reading.Transformed.BinaryCode() != step.Code:
			return fmt.Sprintf("changed = %s, want %s", r.reading.Transformed.BinaryCode(), step.Code)
		}
	case StepExpectStatement:
		if !strings.Contains(r.reading.Record.Statement, step.Text) {
			return fmt.Sprintf("statement %q does not contain %q", r.reading.Record.Statement, step.Text)
		}
	case StepExpectFocus:
		passage, err := journal.PassageFor(r.reading.Record, *r.cast, step.Week)
		if err != nil {
			return err.Error()
		}
		if len(step.Ints) == 0 {
			return ""
		}
		got := 0
		if passage.Focus != nil {
			got = passage.Focus.Position
		}
		if got != step.Ints[0] {
			return fmt.Sprintf("week %d focus = %d, want %d", step.Week, got, step.Ints[0])
		}
	default:
		return "unknown step"
	}
	return ""
}

// castLines walks a fresh wizard session through divination using next for
// each line, then resolves the result.
func (r *run) castLines(next func(i int) (hexagram.LineValue, bool)) string {
	r.cast = nil
	session := wizard.NewSession()
	for _, trigger := range []wizard.Trigger{wizard.TriggerStart, wizard.TriggerSubmit} {
		if err := session.Fire(trigger); err != nil {
			return err.Error()
		}
	}
	for i := 0; session.Step() == wizard.StepDivination; i++ {
		v, ok := next(i)
		if !ok {
			return fmt.Sprintf("casting stopped after %d lines", i)
		}
		if err := session.CastLine(v); err != nil {
			return err.Error()
		}
	}
	h, err := session.Hexagram()
	if err != nil {
		return err.Error()
	}
	reading, err := hexagram.Resolve(r.catalog, h)
	if err != nil {
		_ = session.Fire(wizard.TriggerAnalysisFailed)
		return err.Error()
	}
	if err := session.Fire(wizard.TriggerAnalysisDone); err != nil {
		return err.Error()
	}
	r.cast = &h
	r.reading = reading
	r.report.Castings++
	return ""
}
