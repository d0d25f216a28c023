package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nagendra-kumar-y/zerothhire/internal/domain"
)

const templateCols = `id, name, sector, subject, body, active, sent, opened, clicked, replied`

func scanTemplate(r rowScanner) (domain.Template, error) {
	var t domain.Template
	var active int
	err := r.Scan(&t.ID, &t.Name, &t.Sector, &t.Subject, &t.Body, &active,
		&t.Sent, &t.Opened, &t.Clicked, &t.Replied)
	t.Active = active != 0
	return t, err
}

func InsertTemplate(ctx context.Context, db *sql.DB, t domain.Template) (int64, error) {
	res, err := db.ExecContext(ctx, `
INSERT INTO templates (name, sector, subject, body, active)
VALUES (?, ?, ?, ?, ?);`,
		t.Name, t.Sector, t.Subject, t.Body, boolInt(t.Active))
	if err != nil {
		return 0, fmt.Errorf("insert template %q: %w", t.Name, err)
	}
	return res.LastInsertId()
}

func TemplateByID(ctx context.Context, db *sql.DB, id int64) (domain.Template, error) {
	t, err := scanTemplate(db.QueryRowContext(ctx,
		`SELECT `+templateCols+` FROM templates WHERE id = ?;`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrNotFound
	}
	return t, err
}

// ActiveTemplateBySector returns the first active template tagged with the
// sector, or ErrNotFound so callers fall back to the built-in default.
func ActiveTemplateBySector(ctx context.Context, db *sql.DB, sector string) (domain.Template, error) {
	t, err := scanTemplate(db.QueryRowContext(ctx, `
SELECT `+templateCols+` FROM templates
WHERE sector = ? AND active = 1
ORDER BY id
LIMIT 1;`, sector))
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrNotFound
	}
	return t, err
}

func BumpTemplateSent(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx, `UPDATE templates SET sent = sent + 1 WHERE id = ?;`, id)
	return err
}

func BumpTemplateReplied(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx, `UPDATE templates SET replied = replied + 1 WHERE id = ?;`, id)
	return err
}
