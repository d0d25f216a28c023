package domain

import (
	"fmt"
	"time"
)

type Company struct {
	Name        string `json:"name"`
	ExternalURL string `json:"externalUrl"`
	ExternalID  string `json:"externalId"`
}

// Contact is a senior person at a hiring company. Produced by the contact
// resolver, consumed by the pipeline; never stored standalone.
type Contact struct {
	Name        string
	Title       string
	ProfileURL  string
	Email       string // may be set by the resolver's provider directly
	EmailSource string // hunter.io, rocketreach, manual
}

type CEOContact struct {
	Name        string `json:"name"`
	ProfileURL  string `json:"profileUrl"`
	Email       string `json:"email"`
	EmailSource string `json:"emailSource"`
}

type Response struct {
	Status string     `json:"status"` // opened, clicked, replied
	At     *time.Time `json:"at,omitempty"`
}

// Posting is one scraped job listing, the root entity the pipeline mutates.
type Posting struct {
	ID          int64      `json:"id"`
	ExternalID  string     `json:"externalId"`
	Title       string     `json:"title"`
	Company     Company    `json:"company"`
	Location    string     `json:"location"`
	Description string     `json:"description"`
	PostedAt    *time.Time `json:"postedAt,omitempty"`

	Processed        bool             `json:"processed"`
	ProcessingStatus ProcessingStatus `json:"processingStatus"`
	CEOContact       CEOContact       `json:"ceoContact"`
	EmailSent        bool             `json:"emailSent"`
	EmailSentAt      *time.Time       `json:"emailSentAt,omitempty"`
	Notes            string           `json:"notes"`
	Response         *Response        `json:"response,omitempty"`
}

// MarkTerminal applies ev through the transition table and stamps the
// posting processed with a dated note. It is the only way a posting
// leaves pending, which keeps the processed=true => status!=pending
// invariant structural.
func (p *Posting) MarkTerminal(ev Outcome, note string, now time.Time) error {
	next, err := Transition(p.ProcessingStatus, ev)
	if err != nil {
		return err
	}
	p.ProcessingStatus = next
	p.Processed = true
	p.Notes = fmt.Sprintf("%s on %s", note, now.UTC().Format(time.RFC3339))
	if ev == OutcomeEmailSent {
		p.EmailSent = true
		t := now.UTC()
		p.EmailSentAt = &t
	}
	return nil
}
