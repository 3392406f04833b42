package wizard

import (
	"github.com/oppajeom/oppajeom/internal/core/hexagram"
	apperrors "github.com/oppajeom/oppajeom/internal/platform/errors"
)

// Session couples the reading flow with the hexagram being cast. The flow
// leaves divination only once the sixth line is in.
type Session struct {
	step    Step
	builder *hexagram.Builder
}

// NewSession starts at the landing step.
func NewSession() *Session {
	return &Session{step: StepLanding, builder: hexagram.NewBuilder()}
}

// Step returns the current step.
func (s *Session) Step() Step {
	return s.step
}

// Fire applies a trigger. TriggerLinesCast is rejected until six lines are
// cast; CastLine fires it itself.
func (s *Session) Fire(trigger Trigger) error {
	if trigger == TriggerLinesCast && !s.builder.IsComplete() {
		return apperrors.Wrap(apperrors.CodeInvalidState, "lines still being cast", hexagram.ErrHexagramIncomplete)
	}
	next, err := s.step.Transition(trigger)
	if err != nil {
		return err
	}
	if next == StepLanding || next == StepInput {
		s.builder.Reset()
	}
	s.step = next
	return nil
}

// CastLine records one line during divination. The sixth line moves the
// session to analyzing.
func (s *Session) CastLine(v hexagram.LineValue) error {
	if s.step != StepDivination {
		return transitionError(string(s.step), "cast_line")
	}
	if err := s.builder.AppendLine(v); err != nil {
		return err
	}
	if s.builder.IsComplete() {
		return s.Fire(TriggerLinesCast)
	}
	return nil
}

// Lines returns the lines cast so far.
func (s *Session) Lines() []hexagram.LineValue {
	return s.builder.Lines()
}

// Hexagram returns the cast hexagram once complete.
func (s *Session) Hexagram() (hexagram.Hexagram, error) {
	return s.builder.Hexagram()
}
