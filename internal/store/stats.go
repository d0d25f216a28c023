package store

import (
	"context"
	"database/sql"
)

type Stats struct {
	TotalJobs     int `json:"totalJobs"`
	ProcessedJobs int `json:"processedJobs"`
	EmailsSent    int `json:"emailsSent"`
	Responses     int `json:"responses"`
}

func LoadStats(ctx context.Context, db *sql.DB) (Stats, error) {
	var s Stats
	err := db.QueryRowContext(ctx, `
SELECT
  COUNT(*),
  COALESCE(SUM(processed), 0),
  COALESCE(SUM(email_sent), 0),
  COALESCE(SUM(CASE WHEN response_status != '' THEN 1 ELSE 0 END), 0)
FROM postings;`).Scan(&s.TotalJobs, &s.ProcessedJobs, &s.EmailsSent, &s.Responses)
	return s, err
}
