package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/nagendra-kumar-y/zerothhire/internal/domain"
)

// UpsertCandidate inserts or refreshes a talent record, keyed by profile URL.
func UpsertCandidate(ctx context.Context, db *sql.DB, c domain.Candidate) error {
	skills, _ := json.Marshal(c.Skills)
	tags, _ := json.Marshal(c.Tags)
	_, err := db.ExecContext(ctx, `
INSERT INTO candidates (name, profile_url, title, current_company, skills, location, rating, tags, experience_years)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(profile_url) DO UPDATE SET
  name = excluded.name,
  title = excluded.title,
  current_company = excluded.current_company,
  skills = excluded.skills,
  location = excluded.location,
  rating = excluded.rating,
  tags = excluded.tags,
  experience_years = excluded.experience_years;`,
		c.Name, c.ProfileURL, c.Title, c.CurrentCompany, string(skills), c.Location, c.Rating, string(tags), c.ExperienceYears,
	)
	if err != nil {
		return fmt.Errorf("upsert candidate %q: %w", c.ProfileURL, err)
	}
	return nil
}

// CuratedCandidates returns the outreach shortlist: rating >= 4, most
// experienced first, rating breaking ties.
func CuratedCandidates(ctx context.Context, db *sql.DB, limit int) ([]domain.Candidate, error) {
	rows, err := db.QueryContext(ctx, `
SELECT id, name, profile_url, title, current_company, skills, location, rating, tags, experience_years
FROM candidates
WHERE rating >= 4
ORDER BY experience_years DESC, rating DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Candidate
	for rows.Next() {
		var c domain.Candidate
		var skills, tags string
		if err := rows.Scan(&c.ID, &c.Name, &c.ProfileURL, &c.Title, &c.CurrentCompany,
			&skills, &c.Location, &c.Rating, &tags, &c.ExperienceYears); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(skills), &c.Skills)
		_ = json.Unmarshal([]byte(tags), &c.Tags)
		out = append(out, c)
	}
	return out, rows.Err()
}
