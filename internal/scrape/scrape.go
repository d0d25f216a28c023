// Package scrape discovers job postings. The pipeline only depends on the
// Scraper interface; the bundled implementation walks LinkedIn's guest
// search endpoint, which may return nothing when blocked and is never
// guaranteed complete.
package scrape

import (
	"context"
	"database/sql"
	"time"

	"github.com/nagendra-kumar-y/zerothhire/internal/domain"
	"github.com/nagendra-kumar-y/zerothhire/internal/store"
)

type RawPosting struct {
	ExternalID  string
	Title       string
	CompanyName string
	CompanyURL  string
	Location    string
	Description string
	URL         string
	PostedAt    *time.Time
}

type Scraper interface {
	ScrapePostings(ctx context.Context, titleQuery, location string) ([]RawPosting, error)
}

// SaveNew persists raw postings, skipping duplicates by external id or
// case-insensitive title+company, and returns only the newly added rows
// (loaded back so they carry their assigned ids).
func SaveNew(ctx context.Context, db *sql.DB, raw []RawPosting) ([]domain.Posting, error) {
	var saved []domain.Posting
	for _, rp := range raw {
		p := domain.Posting{
			ExternalID: rp.ExternalID,
			Title:      rp.Title,
			Company: domain.Company{
				Name:        rp.CompanyName,
				ExternalURL: rp.CompanyURL,
				ExternalID:  rp.ExternalID,
			},
			Location:    rp.Location,
			Description: rp.Description,
			PostedAt:    rp.PostedAt,
		}
		id, added, err := store.InsertPostingIgnore(ctx, db, p)
		if err != nil {
			return saved, err
		}
		if !added {
			continue
		}
		p.ID = id
		p.ProcessingStatus = domain.StatusPending
		saved = append(saved, p)
	}
	return saved, nil
}
