package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nagendra-kumar-y/zerothhire/internal/dispatch"
	"github.com/nagendra-kumar-y/zerothhire/internal/domain"
	"github.com/nagendra-kumar-y/zerothhire/internal/emailfind"
	"github.com/nagendra-kumar-y/zerothhire/internal/store"
)

// fakeContacts keys resolution behavior by company name so one batch can
// mix outcomes.
type fakeContacts struct {
	byCompany map[string]domain.Contact
	panicOn   string
}

func (f *fakeContacts) Resolve(_ context.Context, companyName string) (domain.Contact, bool) {
	if companyName == f.panicOn {
		panic("provider client bug: " + companyName)
	}
	c, ok := f.byCompany[companyName]
	return c, ok
}

type fakeEmails struct {
	addr  string
	found bool
	calls int
}

func (f *fakeEmails) Resolve(_ context.Context, _, _ string, known domain.Contact) (emailfind.Email, bool) {
	f.calls++
	if known.Email != "" {
		return emailfind.Email{Addr: known.Email, Source: known.EmailSource}, true
	}
	if !f.found {
		return emailfind.Email{}, false
	}
	return emailfind.Email{Addr: f.addr, Source: "hunter.io"}, true
}

type fakeSender struct {
	err   error
	calls int
}

func (f *fakeSender) Send(_ context.Context, _ domain.Posting, _, _ string, _ int64) (dispatch.Receipt, error) {
	f.calls++
	if f.err != nil {
		return dispatch.Receipt{}, f.err
	}
	return dispatch.Receipt{TrackingID: "t", MessageID: "m"}, nil
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db.Pool))
	return db.Pool
}

func seedPosting(t *testing.T, db *sql.DB, company string) domain.Posting {
	t.Helper()
	id, added, err := store.InsertPostingIgnore(context.Background(), db, domain.Posting{
		Title:   "Founding Engineer",
		Company: domain.Company{Name: company},
	})
	require.NoError(t, err)
	require.True(t, added)
	p, err := store.GetPosting(context.Background(), db, id)
	require.NoError(t, err)
	return p
}

const testInterval = time.Millisecond

func TestDryRunVerifiedContactEndsSuccess(t *testing.T) {
	// company lookup yields a co-founder without email; the email resolver
	// finds one; sending is disabled
	db := newTestDB(t)
	contacts := &fakeContacts{byCompany: map[string]domain.Contact{
		"Acme": {Name: "Frank Founder", Title: "Co-Founder"},
	}}
	emails := &fakeEmails{addr: "frank@acme.example", found: true}
	sender := &fakeSender{}
	r := NewRunner(db, contacts, emails, sender, false, testInterval)

	p := seedPosting(t, db, "Acme")
	require.NoError(t, r.ProcessPosting(context.Background(), &p))

	got, err := store.GetPosting(context.Background(), db, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, got.ProcessingStatus)
	assert.True(t, got.Processed)
	assert.False(t, got.EmailSent, "dry-run must not mark emailSent")
	assert.Equal(t, "frank@acme.example", got.CEOContact.Email)
	assert.Contains(t, got.Notes, "sending disabled")
	assert.Zero(t, sender.calls)
}

func TestNoContactEndsCEONotFound(t *testing.T) {
	db := newTestDB(t)
	r := NewRunner(db, &fakeContacts{}, &fakeEmails{}, &fakeSender{}, true, testInterval)

	p := seedPosting(t, db, "Ghost Co")
	require.NoError(t, r.ProcessPosting(context.Background(), &p))

	got, _ := store.GetPosting(context.Background(), db, p.ID)
	assert.Equal(t, domain.StatusCEONotFound, got.ProcessingStatus)
	assert.True(t, got.Processed)
	assert.Contains(t, got.Notes, "CEO not found")
}

func TestKnownEmailShortCircuits(t *testing.T) {
	db := newTestDB(t)
	contacts := &fakeContacts{byCompany: map[string]domain.Contact{
		"Acme": {Name: "Sam", Email: "sam@acme.example", EmailSource: "rocketreach"},
	}}
	emails := &fakeEmails{}
	r := NewRunner(db, contacts, emails, &fakeSender{}, false, testInterval)

	p := seedPosting(t, db, "Acme")
	require.NoError(t, r.ProcessPosting(context.Background(), &p))

	got, _ := store.GetPosting(context.Background(), db, p.ID)
	assert.Equal(t, "sam@acme.example", got.CEOContact.Email)
	assert.Equal(t, "rocketreach", got.CEOContact.EmailSource, "source survives the short-circuit")
}

func TestNoEmailEndsEmailNotFound(t *testing.T) {
	db := newTestDB(t)
	contacts := &fakeContacts{byCompany: map[string]domain.Contact{
		"Acme": {Name: "Sam", Title: "CEO"},
	}}
	r := NewRunner(db, contacts, &fakeEmails{found: false}, &fakeSender{}, true, testInterval)

	p := seedPosting(t, db, "Acme")
	require.NoError(t, r.ProcessPosting(context.Background(), &p))

	got, _ := store.GetPosting(context.Background(), db, p.ID)
	assert.Equal(t, domain.StatusEmailNotFound, got.ProcessingStatus)
	assert.Contains(t, got.Notes, "Email not found for CEO Sam")
}

func TestDispatchFailureEndsSendFailed(t *testing.T) {
	db := newTestDB(t)
	contacts := &fakeContacts{byCompany: map[string]domain.Contact{
		"Acme": {Name: "Sam", Email: "sam@acme.example", EmailSource: "hunter.io"},
	}}
	sender := &fakeSender{err: errors.New("transport down")}
	r := NewRunner(db, contacts, &fakeEmails{}, sender, true, testInterval)

	p := seedPosting(t, db, "Acme")
	require.NoError(t, r.ProcessPosting(context.Background(), &p))

	got, _ := store.GetPosting(context.Background(), db, p.ID)
	assert.Equal(t, domain.StatusSendFailed, got.ProcessingStatus)
	assert.True(t, got.Processed)
	assert.False(t, got.EmailSent)
	assert.Contains(t, got.Notes, "transport down")
}

func TestSuccessfulSendStampsPosting(t *testing.T) {
	db := newTestDB(t)
	contacts := &fakeContacts{byCompany: map[string]domain.Contact{
		"Acme": {Name: "Sam", Email: "sam@acme.example", EmailSource: "hunter.io"},
	}}
	sender := &fakeSender{}
	r := NewRunner(db, contacts, &fakeEmails{}, sender, true, testInterval)

	p := seedPosting(t, db, "Acme")
	require.NoError(t, r.ProcessPosting(context.Background(), &p))

	got, _ := store.GetPosting(context.Background(), db, p.ID)
	assert.Equal(t, domain.StatusSuccess, got.ProcessingStatus)
	assert.True(t, got.EmailSent)
	require.NotNil(t, got.EmailSentAt)
	assert.NotEmpty(t, got.CEOContact.Email)
	assert.Equal(t, 1, sender.calls)
}

func TestReprocessingIsRefused(t *testing.T) {
	db := newTestDB(t)
	contacts := &fakeContacts{byCompany: map[string]domain.Contact{
		"Acme": {Name: "Sam", Email: "sam@acme.example", EmailSource: "hunter.io"},
	}}
	sender := &fakeSender{}
	r := NewRunner(db, contacts, &fakeEmails{}, sender, true, testInterval)

	p := seedPosting(t, db, "Acme")
	require.NoError(t, r.ProcessPosting(context.Background(), &p))
	require.Equal(t, 1, sender.calls)

	again, _ := store.GetPosting(context.Background(), db, p.ID)
	err := r.ProcessPosting(context.Background(), &again)
	assert.ErrorIs(t, err, ErrAlreadyProcessed)

	got, _ := store.GetPosting(context.Background(), db, p.ID)
	assert.Equal(t, domain.StatusSuccess, got.ProcessingStatus)
	assert.Equal(t, 1, sender.calls, "no second send")
}

func TestPanicForceTerminatesPosting(t *testing.T) {
	db := newTestDB(t)
	r := NewRunner(db, &fakeContacts{panicOn: "Boom Co"}, &fakeEmails{}, &fakeSender{}, true, testInterval)

	p := seedPosting(t, db, "Boom Co")
	require.NoError(t, r.ProcessPosting(context.Background(), &p))

	got, _ := store.GetPosting(context.Background(), db, p.ID)
	assert.Equal(t, domain.StatusSendFailed, got.ProcessingStatus)
	assert.True(t, got.Processed, "no posting stays pending after a crash")
	assert.Contains(t, got.Notes, "provider client bug")
}

func TestRunBatchAggregatesOutcomes(t *testing.T) {
	// 2 succeed, 2 have no contact, 1 panics mid-pipeline
	db := newTestDB(t)
	contacts := &fakeContacts{
		byCompany: map[string]domain.Contact{
			"Win1": {Name: "A", Email: "a@w1.example", EmailSource: "hunter.io"},
			"Win2": {Name: "B", Email: "b@w2.example", EmailSource: "hunter.io"},
		},
		panicOn: "Boom Co",
	}
	r := NewRunner(db, contacts, &fakeEmails{}, &fakeSender{}, true, testInterval)

	var batch []domain.Posting
	for _, co := range []string{"Win1", "Ghost1", "Boom Co", "Win2", "Ghost2"} {
		batch = append(batch, seedPosting(t, db, co))
	}

	stats := r.RunBatch(context.Background(), batch)

	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 2, stats.Success)
	assert.Equal(t, 2, stats.CEONotFound)
	assert.Equal(t, 1, stats.SendFailed)
	assert.Zero(t, stats.EmailNotFound)
	assert.Zero(t, stats.Errors)

	pending, err := store.PendingPostings(context.Background(), db, 100)
	require.NoError(t, err)
	assert.Empty(t, pending, "batch must leave nothing pending")
}

func TestRunBatchEnforcesMinimumInterval(t *testing.T) {
	db := newTestDB(t)
	contacts := &fakeContacts{byCompany: map[string]domain.Contact{}}
	interval := 30 * time.Millisecond
	r := NewRunner(db, contacts, &fakeEmails{}, &fakeSender{}, true, interval)

	batch := []domain.Posting{
		seedPosting(t, db, "One"),
		seedPosting(t, db, "Two"),
		seedPosting(t, db, "Three"),
	}

	start := time.Now()
	r.RunBatch(context.Background(), batch)
	elapsed := time.Since(start)

	// limiter burst covers the first posting; the next two wait
	assert.GreaterOrEqual(t, elapsed, 2*interval)
}
