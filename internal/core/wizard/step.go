// Package wizard models the screen flows of the reading and journal
// experiences as finite state machines. The UI owns when triggers fire;
// this package only decides whether a trigger is legal.
package wizard

import (
	apperrors "github.com/oppajeom/oppajeom/internal/platform/errors"
)

// Step is a screen of the main reading flow.
type Step string

const (
	StepLanding       Step = "landing"
	StepInput         Step = "input"
	StepDivination    Step = "divination"
	StepAnalyzing     Step = "analyzing"
	StepResult        Step = "result"
	StepAdvice        Step = "advice"
	StepPremiumResult Step = "premium_result"
)

// Trigger is a UI event that may move a flow forward.
type Trigger string

const (
	TriggerStart          Trigger = "start"
	TriggerSubmit         Trigger = "submit"
	TriggerLinesCast      Trigger = "lines_cast"
	TriggerAnalysisDone   Trigger = "analysis_done"
	TriggerAnalysisFailed Trigger = "analysis_failed"
	TriggerAdvice         Trigger = "advice"
	TriggerPremiumPaid    Trigger = "premium_paid"
	TriggerRestart        Trigger = "restart"
)

// Transition returns the step a trigger leads to from s.
func (s Step) Transition(trigger Trigger) (Step, error) {
	if trigger == TriggerRestart {
		return StepLanding, nil
	}
	next, ok := nextStep(s, trigger)
	if !ok {
		return s, transitionError(string(s), string(trigger))
	}
	return next, nil
}

func nextStep(from Step, trigger Trigger) (Step, bool) {
	switch from {
	case StepLanding:
		return StepInput, trigger == TriggerStart
	case StepInput:
		return StepDivination, trigger == TriggerSubmit
	case StepDivination:
		return StepAnalyzing, trigger == TriggerLinesCast
	case StepAnalyzing:
		switch trigger {
		case TriggerAnalysisDone:
			return StepResult, true
		case TriggerAnalysisFailed:
			return StepLanding, true
		}
	case StepResult:
		return StepAdvice, trigger == TriggerAdvice
	case StepAdvice:
		return StepPremiumResult, trigger == TriggerPremiumPaid
	}
	return "", false
}

// PremiumStep is the state of the paid follow-up question panel.
type PremiumStep string

const (
	PremiumIdle      PremiumStep = "idle"
	PremiumInput     PremiumStep = "input"
	PremiumAnalyzing PremiumStep = "analyzing"
	PremiumResult    PremiumStep = "result"
)

// PremiumTrigger is a premium panel event.
type PremiumTrigger string

const (
	PremiumOpen   PremiumTrigger = "open"
	PremiumPaid   PremiumTrigger = "paid"
	PremiumDone   PremiumTrigger = "done"
	PremiumFailed PremiumTrigger = "failed"
	PremiumClose  PremiumTrigger = "close"
)

// Transition returns the premium state a trigger leads to. Close is legal
// from every state; a failed analysis returns to the input form.
func (s PremiumStep) Transition(trigger PremiumTrigger) (PremiumStep, error) {
	if trigger == PremiumClose {
		return PremiumIdle, nil
	}
	switch {
	case s == PremiumIdle && trigger == PremiumOpen:
		return PremiumInput, nil
	case s == PremiumInput && trigger == PremiumPaid:
		return PremiumAnalyzing, nil
	case s == PremiumAnalyzing && trigger == PremiumDone:
		return PremiumResult, nil
	case s == PremiumAnalyzing && trigger == PremiumFailed:
		return PremiumInput, nil
	}
	return s, transitionError(string(s), string(trigger))
}

// JournalView is a screen of the journal program.
type JournalView string

const (
	JournalOnboarding JournalView = "onboarding"
	JournalLogin      JournalView = "login"
	JournalWeekly     JournalView = "weekly"
	JournalResult     JournalView = "result"
)

// JournalTrigger is a journal screen event.
type JournalTrigger string

const (
	JournalShowLogin  JournalTrigger = "show_login"
	JournalSubscribed JournalTrigger = "subscribed"
	JournalLoggedIn   JournalTrigger = "logged_in"
	JournalGenerated  JournalTrigger = "generated"
	JournalBack       JournalTrigger = "back"
)

// Transition returns the journal view a trigger leads to.
func (v JournalView) Transition(trigger JournalTrigger) (JournalView, error) {
	switch {
	case v == JournalOnboarding && trigger == JournalShowLogin:
		return JournalLogin, nil
	case v == JournalOnboarding && trigger == JournalSubscribed:
		return JournalWeekly, nil
	case v == JournalLogin && trigger == JournalLoggedIn:
		return JournalWeekly, nil
	case v == JournalLogin && trigger == JournalBack:
		return JournalOnboarding, nil
	case v == JournalWeekly && trigger == JournalGenerated:
		return JournalResult, nil
	case v == JournalResult && trigger == JournalBack:
		return JournalWeekly, nil
	}
	return v, transitionError(string(v), string(trigger))
}

func transitionError(from, trigger string) error {
	return apperrors.WithMetadata(
		apperrors.CodeInvalidState,
		"trigger "+trigger+" is not allowed from "+from,
		map[string]string{"From": from, "Trigger": trigger},
	)
}
