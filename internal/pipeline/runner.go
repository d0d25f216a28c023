// Package pipeline drives one posting through contact discovery, email
// discovery, dispatch and durable status tracking.
package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/time/rate"

	"github.com/nagendra-kumar-y/zerothhire/internal/dispatch"
	"github.com/nagendra-kumar-y/zerothhire/internal/domain"
	"github.com/nagendra-kumar-y/zerothhire/internal/emailfind"
	"github.com/nagendra-kumar-y/zerothhire/internal/store"
)

// ErrAlreadyProcessed means the posting reached a terminal status earlier;
// the state machine refuses to re-enter it.
var ErrAlreadyProcessed = errors.New("posting already processed")

type ContactResolver interface {
	Resolve(ctx context.Context, companyName string) (domain.Contact, bool)
}

type EmailResolver interface {
	Resolve(ctx context.Context, personName, companyName string, known domain.Contact) (emailfind.Email, bool)
}

type Sender interface {
	Send(ctx context.Context, posting domain.Posting, recipientEmail, recipientName string, templateID int64) (dispatch.Receipt, error)
}

type Runner struct {
	db       *sql.DB
	contacts ContactResolver
	emails   EmailResolver
	sender   Sender

	// SendEmails=false is dry-run mode: discovery still runs and is
	// recorded, dispatch is skipped.
	SendEmails bool

	// limiter enforces the minimum interval between consecutive postings
	// in a batch, keeping provider and transport rate limits honest.
	limiter *rate.Limiter

	now func() time.Time
}

func NewRunner(db *sql.DB, contacts ContactResolver, emails EmailResolver, sender Sender, sendEmails bool, minInterval time.Duration) *Runner {
	if minInterval <= 0 {
		minInterval = time.Second
	}
	return &Runner{
		db:         db,
		contacts:   contacts,
		emails:     emails,
		sender:     sender,
		SendEmails: sendEmails,
		limiter:    rate.NewLimiter(rate.Every(minInterval), 1),
		now:        time.Now,
	}
}

// ProcessPosting runs the state machine over one posting. Terminal
// outcomes (no contact, no email, sent, send failed) are persisted and
// return nil; only reprocessing refusals and persistence failures surface
// as errors. Panics and unexpected stage errors force-terminate the
// posting as send_failed so nothing stays pending after a crash.
func (r *Runner) ProcessPosting(ctx context.Context, p *domain.Posting) (err error) {
	if p.Processed {
		return fmt.Errorf("posting %d: %w", p.ID, ErrAlreadyProcessed)
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[pipeline] posting %d: panic: %v", p.ID, rec)
			err = r.finish(ctx, p, domain.OutcomePipelineError, fmt.Sprintf("Processing error: %v", rec))
		}
	}()

	if runErr := r.run(ctx, p); runErr != nil {
		log.Printf("[pipeline] posting %d: %v", p.ID, runErr)
		return r.finish(ctx, p, domain.OutcomePipelineError, "Processing error: "+runErr.Error())
	}
	return nil
}

func (r *Runner) run(ctx context.Context, p *domain.Posting) error {
	log.Printf("[pipeline] processing %q at %s", p.Title, p.Company.Name)

	c, ok := r.contacts.Resolve(ctx, p.Company.Name)
	if !ok {
		return r.finish(ctx, p, domain.OutcomeNoContact, "CEO not found for "+p.Company.Name)
	}
	p.CEOContact = domain.CEOContact{
		Name:        c.Name,
		ProfileURL:  c.ProfileURL,
		EmailSource: c.EmailSource,
	}

	em, ok := r.emails.Resolve(ctx, c.Name, p.Company.Name, c)
	if !ok {
		return r.finish(ctx, p, domain.OutcomeNoEmail, "Email not found for CEO "+c.Name)
	}
	p.CEOContact.Email = em.Addr
	p.CEOContact.EmailSource = em.Source

	if !r.SendEmails {
		return r.finish(ctx, p, domain.OutcomeVerifiedOnly,
			"CEO and email verified - sending disabled")
	}

	if _, sendErr := r.sender.Send(ctx, *p, em.Addr, c.Name, 0); sendErr != nil {
		return r.finish(ctx, p, domain.OutcomeDispatchError, "Email send failed: "+sendErr.Error())
	}
	return r.finish(ctx, p, domain.OutcomeEmailSent, "Email sent successfully")
}

// finish stamps the terminal state and writes the posting back.
func (r *Runner) finish(ctx context.Context, p *domain.Posting, ev domain.Outcome, note string) error {
	if err := p.MarkTerminal(ev, note, r.now()); err != nil {
		return err
	}
	if err := store.SavePostingOutcome(ctx, r.db, *p); err != nil {
		return err
	}
	log.Printf("[pipeline] posting %d -> %s", p.ID, p.ProcessingStatus)
	return nil
}

type BatchStats struct {
	Total         int `json:"total"`
	Success       int `json:"success"`
	CEONotFound   int `json:"ceoNotFound"`
	EmailNotFound int `json:"emailNotFound"`
	SendFailed    int `json:"sendFailed"`
	Errors        int `json:"errors"`
}

// RunBatch processes postings strictly sequentially, pausing at least the
// configured interval between them. One posting's failure never aborts the
// batch.
func (r *Runner) RunBatch(ctx context.Context, postings []domain.Posting) BatchStats {
	stats := BatchStats{Total: len(postings)}

	for i := range postings {
		if err := r.limiter.Wait(ctx); err != nil {
			log.Printf("[pipeline] batch aborted: %v", err)
			stats.Errors += len(postings) - i
			return stats
		}

		p := &postings[i]
		if err := r.ProcessPosting(ctx, p); err != nil {
			stats.Errors++
			continue
		}

		switch p.ProcessingStatus {
		case domain.StatusSuccess:
			stats.Success++
		case domain.StatusCEONotFound:
			stats.CEONotFound++
		case domain.StatusEmailNotFound:
			stats.EmailNotFound++
		case domain.StatusSendFailed:
			stats.SendFailed++
		}
	}

	log.Printf("[pipeline] batch done: total=%d success=%d ceo_not_found=%d email_not_found=%d send_failed=%d errors=%d",
		stats.Total, stats.Success, stats.CEONotFound, stats.EmailNotFound, stats.SendFailed, stats.Errors)
	return stats
}
