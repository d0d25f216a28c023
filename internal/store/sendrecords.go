package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nagendra-kumar-y/zerothhire/internal/domain"
)

func InsertSendRecord(ctx context.Context, db *sql.DB, r domain.SendRecord) error {
	cands, _ := json.Marshal(r.Candidates)
	_, err := db.ExecContext(ctx, `
INSERT INTO send_records (id, posting_id, company_name, recipient_email, recipient_name,
                          template_id, subject, body, candidates, tracking_id, message_id,
                          status, error_message, retries, sent_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		r.ID, r.PostingID, r.CompanyName, r.RecipientEmail, r.RecipientName,
		r.TemplateID, r.Subject, r.Body, string(cands), r.TrackingID, r.MessageID,
		string(r.Status), r.ErrorMessage, r.Retries, r.SentAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert send record: %w", err)
	}
	return nil
}

const sendRecordCols = `id, posting_id, company_name, recipient_email, recipient_name,
template_id, subject, body, candidates, tracking_id, message_id,
status, error_message, retries, opened, opened_at, clicked, clicked_at, replied, replied_at, sent_at`

func scanSendRecord(r rowScanner) (domain.SendRecord, error) {
	var rec domain.SendRecord
	var cands, status, sentAt string
	var opened, clicked, replied int
	var openedAt, clickedAt, repliedAt sql.NullString
	err := r.Scan(&rec.ID, &rec.PostingID, &rec.CompanyName, &rec.RecipientEmail, &rec.RecipientName,
		&rec.TemplateID, &rec.Subject, &rec.Body, &cands, &rec.TrackingID, &rec.MessageID,
		&status, &rec.ErrorMessage, &rec.Retries,
		&opened, &openedAt, &clicked, &clickedAt, &replied, &repliedAt, &sentAt)
	if err != nil {
		return rec, err
	}
	_ = json.Unmarshal([]byte(cands), &rec.Candidates)
	rec.Status = domain.SendStatus(status)
	rec.Engagement = domain.Engagement{
		Opened: opened != 0, OpenedAt: parseTime(openedAt),
		Clicked: clicked != 0, ClickedAt: parseTime(clickedAt),
		Replied: replied != 0, RepliedAt: parseTime(repliedAt),
	}
	if t, err := time.Parse(time.RFC3339, sentAt); err == nil {
		rec.SentAt = t
	}
	return rec, nil
}

func SendRecordByTracking(ctx context.Context, db *sql.DB, trackingID string) (domain.SendRecord, error) {
	rec, err := scanSendRecord(db.QueryRowContext(ctx,
		`SELECT `+sendRecordCols+` FROM send_records WHERE tracking_id = ? LIMIT 1;`, trackingID))
	if errors.Is(err, sql.ErrNoRows) {
		return rec, ErrNotFound
	}
	return rec, err
}

func SendRecordsForPosting(ctx context.Context, db *sql.DB, postingID int64) ([]domain.SendRecord, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+sendRecordCols+` FROM send_records WHERE posting_id = ? ORDER BY sent_at;`, postingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SendRecord
	for rows.Next() {
		rec, err := scanSendRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// FailedSendRecords returns failed attempts still under the retry cap,
// oldest first.
func FailedSendRecords(ctx context.Context, db *sql.DB, maxRetries, limit int) ([]domain.SendRecord, error) {
	rows, err := db.QueryContext(ctx, `
SELECT `+sendRecordCols+` FROM send_records
WHERE status = 'failed' AND retries < ?
ORDER BY sent_at
LIMIT ?;`, maxRetries, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SendRecord
	for rows.Next() {
		rec, err := scanSendRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// UpdateSendRecordRetry rewrites the mutable fields of a retried record:
// status, message id, error text and the bumped retry count.
func UpdateSendRecordRetry(ctx context.Context, db *sql.DB, r domain.SendRecord) error {
	_, err := db.ExecContext(ctx, `
UPDATE send_records SET status = ?, message_id = ?, error_message = ?, retries = ?
WHERE id = ?;`,
		string(r.Status), r.MessageID, r.ErrorMessage, r.Retries, r.ID)
	if err != nil {
		return fmt.Errorf("update send record %s: %w", r.ID, err)
	}
	return nil
}

// MarkEngagement flips one engagement flag (opened/clicked/replied) on the
// record matched by tracking id.
func MarkEngagement(ctx context.Context, db *sql.DB, trackingID, kind string, at time.Time) error {
	var col string
	switch kind {
	case "opened", "clicked", "replied":
		col = kind
	default:
		return fmt.Errorf("unknown engagement kind %q", kind)
	}
	ts := at.UTC().Format(time.RFC3339)
	_, err := db.ExecContext(ctx,
		`UPDATE send_records SET `+col+` = 1, `+col+`_at = ? WHERE tracking_id = ?;`, ts, trackingID)
	return err
}
