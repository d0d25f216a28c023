// Package dispatch composes and sends one outreach email per invocation,
// writing exactly one send record whatever the transport does.
package dispatch

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/nagendra-kumar-y/zerothhire/internal/compose"
	"github.com/nagendra-kumar-y/zerothhire/internal/domain"
	"github.com/nagendra-kumar-y/zerothhire/internal/store"
)

const maxResendRetries = 3

type Receipt struct {
	TrackingID string
	MessageID  string
	RecordID   string
}

type Dispatcher struct {
	db        *sql.DB
	transport Transport

	FromEmail      string
	FromName       string
	CandidateCount int

	now func() time.Time
}

func New(db *sql.DB, transport Transport, fromEmail, fromName string, candidateCount int) *Dispatcher {
	if candidateCount <= 0 {
		candidateCount = 3
	}
	return &Dispatcher{
		db:             db,
		transport:      transport,
		FromEmail:      fromEmail,
		FromName:       fromName,
		CandidateCount: candidateCount,
		now:            time.Now,
	}
}

// Send fetches the curated shortlist, composes the message, calls the
// transport and persists the attempt. On transport failure the failed
// record is written first, then the error is returned - dispatch failures
// are the one error the pipeline must see.
func (d *Dispatcher) Send(ctx context.Context, posting domain.Posting, recipientEmail, recipientName string, templateID int64) (Receipt, error) {
	candidates, err := store.CuratedCandidates(ctx, d.db, d.CandidateCount)
	if err != nil {
		return Receipt{}, fmt.Errorf("curated candidates: %w", err)
	}

	tmpl, err := d.pickTemplate(ctx, posting.Title, templateID)
	if err != nil {
		return Receipt{}, err
	}

	msg := compose.Compose(recipientName, posting.Company.Name, candidates, tmpl)
	trackingID := trackingToken(posting.ID, recipientEmail, d.now())

	rec := domain.SendRecord{
		ID:             uuid.NewString(),
		PostingID:      posting.ID,
		CompanyName:    posting.Company.Name,
		RecipientEmail: recipientEmail,
		RecipientName:  recipientName,
		Subject:        msg.Subject,
		Body:           msg.Body,
		Candidates:     snapshot(candidates),
		TrackingID:     trackingID,
		SentAt:         d.now().UTC(),
	}
	if tmpl != nil {
		rec.TemplateID = tmpl.ID
	}

	messageID, sendErr := d.transport.Send(ctx, Message{
		To:       recipientEmail,
		From:     d.FromEmail,
		FromName: d.FromName,
		Subject:  msg.Subject,
		HTML:     msg.Body,
		Headers:  map[string]string{"X-Tracking-ID": trackingID},
	})

	if sendErr != nil {
		rec.Status = domain.SendFailed
		rec.ErrorMessage = sendErr.Error()
		if err := store.InsertSendRecord(ctx, d.db, rec); err != nil {
			log.Printf("[dispatch] recording failed send: %v", err)
		}
		return Receipt{}, fmt.Errorf("send to %s: %w", recipientEmail, sendErr)
	}

	rec.Status = domain.SendSent
	rec.MessageID = messageID
	if err := store.InsertSendRecord(ctx, d.db, rec); err != nil {
		return Receipt{}, fmt.Errorf("recording send: %w", err)
	}
	if tmpl != nil {
		if err := store.BumpTemplateSent(ctx, d.db, tmpl.ID); err != nil {
			log.Printf("[dispatch] bump template %d: %v", tmpl.ID, err)
		}
	}

	return Receipt{TrackingID: trackingID, MessageID: messageID, RecordID: rec.ID}, nil
}

// pickTemplate honors an explicit template id, else looks up an active one
// for the inferred sector. nil means the built-in default applies.
func (d *Dispatcher) pickTemplate(ctx context.Context, jobTitle string, templateID int64) (*domain.Template, error) {
	if templateID != 0 {
		t, err := store.TemplateByID(ctx, d.db, templateID)
		if err != nil {
			return nil, fmt.Errorf("template %d: %w", templateID, err)
		}
		return &t, nil
	}

	t, err := store.ActiveTemplateBySector(ctx, d.db, compose.Sector(jobTitle))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type ResendResult struct {
	RecordID string `json:"recordId"`
	Sent     bool   `json:"sent"`
	Error    string `json:"error,omitempty"`
}

// ResendFailed sweeps failed records still under the retry cap and retries
// them through the transport, mutating the same logical record: retries
// increments either way, status flips to sent on success.
func (d *Dispatcher) ResendFailed(ctx context.Context, limit int) ([]ResendResult, error) {
	failed, err := store.FailedSendRecords(ctx, d.db, maxResendRetries, limit)
	if err != nil {
		return nil, fmt.Errorf("list failed sends: %w", err)
	}

	var results []ResendResult
	for _, rec := range failed {
		messageID, sendErr := d.transport.Send(ctx, Message{
			To:       rec.RecipientEmail,
			From:     d.FromEmail,
			FromName: d.FromName,
			Subject:  rec.Subject,
			HTML:     rec.Body,
			Headers:  map[string]string{"X-Tracking-ID": rec.TrackingID},
		})

		rec.Retries++
		if sendErr != nil {
			rec.ErrorMessage = sendErr.Error()
			results = append(results, ResendResult{RecordID: rec.ID, Error: sendErr.Error()})
		} else {
			rec.Status = domain.SendSent
			rec.MessageID = messageID
			rec.ErrorMessage = ""
			results = append(results, ResendResult{RecordID: rec.ID, Sent: true})
		}
		if err := store.UpdateSendRecordRetry(ctx, d.db, rec); err != nil {
			log.Printf("[dispatch] retry update %s: %v", rec.ID, err)
		}
	}
	return results, nil
}

// trackingToken is <unix-ms>-<sha256 prefix>, collision-resistant and
// stable enough to correlate engagement events back to the record.
func trackingToken(postingID int64, email string, at time.Time) string {
	ts := at.UnixMilli()
	sum := sha256.Sum256(fmt.Appendf(nil, "%d:%s:%d", postingID, email, ts))
	return fmt.Sprintf("%d-%x", ts, sum[:8])
}

func snapshot(candidates []domain.Candidate) []domain.ListedCandidate {
	out := make([]domain.ListedCandidate, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, domain.ListedCandidate{
			Name:       c.Name,
			ProfileURL: c.ProfileURL,
			Title:      c.Title,
			Company:    c.CurrentCompany,
		})
	}
	return out
}
