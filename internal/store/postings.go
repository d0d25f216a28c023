package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nagendra-kumar-y/zerothhire/internal/domain"
)

var ErrNotFound = errors.New("not found")

// InsertPostingIgnore inserts p unless a posting with the same external id,
// or the same title+company (case-insensitive), already exists. Returns the
// stored id and whether a new row was added.
func InsertPostingIgnore(ctx context.Context, db *sql.DB, p domain.Posting) (id int64, added bool, err error) {
	var existing int64
	err = db.QueryRowContext(ctx, `
SELECT id FROM postings
WHERE (external_id != '' AND external_id = ?)
   OR (lower(title) = lower(?) AND lower(company_name) = lower(?))
LIMIT 1;`,
		p.ExternalID, p.Title, p.Company.Name,
	).Scan(&existing)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, fmt.Errorf("posting dedupe check: %w", err)
	}

	res, err := db.ExecContext(ctx, `
INSERT INTO postings (external_id, title, company_name, company_url, company_external_id,
                      location, description, posted_at, processing_status, scraped_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'pending', ?);`,
		p.ExternalID, p.Title, p.Company.Name, p.Company.ExternalURL, p.Company.ExternalID,
		p.Location, p.Description, nullTime(p.PostedAt), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, false, fmt.Errorf("insert posting: %w", err)
	}
	id, _ = res.LastInsertId()
	return id, true, nil
}

const postingCols = `id, external_id, title, company_name, company_url, company_external_id,
location, description, posted_at, processed, processing_status,
ceo_name, ceo_profile_url, ceo_email, ceo_email_source,
email_sent, email_sent_at, notes, response_status, response_at`

func GetPosting(ctx context.Context, db *sql.DB, id int64) (domain.Posting, error) {
	row := db.QueryRowContext(ctx, `SELECT `+postingCols+` FROM postings WHERE id = ?;`, id)
	p, err := scanPosting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, err
}

func PendingPostings(ctx context.Context, db *sql.DB, limit int) ([]domain.Posting, error) {
	rows, err := db.QueryContext(ctx, `
SELECT `+postingCols+` FROM postings
WHERE processed = 0
ORDER BY id
LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Posting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SavePostingOutcome writes back everything the pipeline may have changed:
// terminal status, contact fields, send stamp and notes.
func SavePostingOutcome(ctx context.Context, db *sql.DB, p domain.Posting) error {
	_, err := db.ExecContext(ctx, `
UPDATE postings SET
  processed = ?, processing_status = ?,
  ceo_name = ?, ceo_profile_url = ?, ceo_email = ?, ceo_email_source = ?,
  email_sent = ?, email_sent_at = ?, notes = ?
WHERE id = ?;`,
		boolInt(p.Processed), string(p.ProcessingStatus),
		p.CEOContact.Name, p.CEOContact.ProfileURL, p.CEOContact.Email, p.CEOContact.EmailSource,
		boolInt(p.EmailSent), nullTime(p.EmailSentAt), p.Notes,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("save posting %d: %w", p.ID, err)
	}
	return nil
}

func MarkPostingResponse(ctx context.Context, db *sql.DB, id int64, status string, at time.Time) error {
	_, err := db.ExecContext(ctx, `
UPDATE postings SET response_status = ?, response_at = ? WHERE id = ?;`,
		status, at.UTC().Format(time.RFC3339), id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPosting(r rowScanner) (domain.Posting, error) {
	var p domain.Posting
	var postedAt, sentAt, respAt sql.NullString
	var processed, emailSent int
	var status, respStatus string
	err := r.Scan(
		&p.ID, &p.ExternalID, &p.Title, &p.Company.Name, &p.Company.ExternalURL, &p.Company.ExternalID,
		&p.Location, &p.Description, &postedAt, &processed, &status,
		&p.CEOContact.Name, &p.CEOContact.ProfileURL, &p.CEOContact.Email, &p.CEOContact.EmailSource,
		&emailSent, &sentAt, &p.Notes, &respStatus, &respAt,
	)
	if err != nil {
		return p, err
	}
	p.Processed = processed != 0
	p.EmailSent = emailSent != 0
	p.ProcessingStatus = domain.ProcessingStatus(status)
	p.PostedAt = parseTime(postedAt)
	p.EmailSentAt = parseTime(sentAt)
	if respStatus != "" {
		p.Response = &domain.Response{Status: respStatus, At: parseTime(respAt)}
	}
	return p, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}
