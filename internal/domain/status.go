package domain

import "fmt"

// ProcessingStatus is the per-posting pipeline state. Every status other
// than pending is terminal.
type ProcessingStatus string

const (
	StatusPending       ProcessingStatus = "pending"
	StatusSuccess       ProcessingStatus = "success"
	StatusCEONotFound   ProcessingStatus = "ceo_not_found"
	StatusEmailNotFound ProcessingStatus = "email_not_found"
	StatusSendFailed    ProcessingStatus = "send_failed"
)

func (s ProcessingStatus) Terminal() bool { return s != StatusPending }

// Outcome is an event fed to Transition. Each one maps a pending posting
// to exactly one terminal status.
type Outcome string

const (
	OutcomeEmailSent     Outcome = "email_sent"
	OutcomeVerifiedOnly  Outcome = "verified_only" // sending disabled, discovery complete
	OutcomeNoContact     Outcome = "no_contact"
	OutcomeNoEmail       Outcome = "no_email"
	OutcomeDispatchError Outcome = "dispatch_error"
	OutcomePipelineError Outcome = "pipeline_error" // unexpected failure at any stage
)

var transitions = map[ProcessingStatus]map[Outcome]ProcessingStatus{
	StatusPending: {
		OutcomeEmailSent:     StatusSuccess,
		OutcomeVerifiedOnly:  StatusSuccess,
		OutcomeNoContact:     StatusCEONotFound,
		OutcomeNoEmail:       StatusEmailNotFound,
		OutcomeDispatchError: StatusSendFailed,
		OutcomePipelineError: StatusSendFailed,
	},
}

// Transition validates ev against the allowed-transition table. Terminal
// states accept no events, so success can never flow back to pending.
func Transition(from ProcessingStatus, ev Outcome) (ProcessingStatus, error) {
	next, ok := transitions[from][ev]
	if !ok {
		return from, fmt.Errorf("illegal transition: %s + %s", from, ev)
	}
	return next, nil
}
