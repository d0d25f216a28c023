package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nagendra-kumar-y/zerothhire/internal/domain"
	"github.com/nagendra-kumar-y/zerothhire/internal/store"
)

const searchPage = `<ul>
  <li>
    <div class="base-card" data-entity-urn="urn:li:jobPosting:4001">
      <a class="base-card__full-link" href="https://example.com/jobs/4001"></a>
      <h3 class="base-search-card__title">
        Founding Engineer
      </h3>
      <h4 class="base-search-card__subtitle">
        <a href="https://example.com/company/acme">Acme Fintech</a>
      </h4>
      <span class="job-search-card__location">Bangalore, India</span>
      <time datetime="2026-08-12"></time>
    </div>
  </li>
  <li>
    <div class="base-card" data-entity-urn="urn:li:jobPosting:4002">
      <h3 class="base-search-card__title">Backend Engineer</h3>
      <h4 class="base-search-card__subtitle">Globex</h4>
    </div>
  </li>
  <li>
    <div class="base-card">
      <h3 class="base-search-card__title">Ghost Card</h3>
    </div>
  </li>
</ul>`

func TestScrapePostingsParsesSearchCards(t *testing.T) {
	var gotQuery, gotLocation string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("keywords")
		gotLocation = r.URL.Query().Get("location")
		_, _ = w.Write([]byte(searchPage))
	}))
	defer srv.Close()

	s := NewLinkedInWithURL(srv.URL, 1)
	postings, err := s.ScrapePostings(context.Background(), "Founding Engineer", "Bangalore")
	require.NoError(t, err)

	assert.Equal(t, "Founding Engineer", gotQuery)
	assert.Equal(t, "Bangalore", gotLocation)
	require.Len(t, postings, 2) // the card without a company is dropped

	first := postings[0]
	assert.Equal(t, "4001", first.ExternalID)
	assert.Equal(t, "Founding Engineer", first.Title)
	assert.Equal(t, "Acme Fintech", first.CompanyName)
	assert.Equal(t, "Bangalore, India", first.Location)
	assert.Equal(t, "https://example.com/jobs/4001", first.URL)
	assert.Equal(t, "https://example.com/company/acme", first.CompanyURL)
	require.NotNil(t, first.PostedAt)
	assert.Equal(t, time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC), *first.PostedAt)

	assert.Equal(t, "4002", postings[1].ExternalID)
	assert.Equal(t, "Globex", postings[1].CompanyName)
}

func TestScrapePostingsToleratesFailedPages(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Query().Get("start") != "0" {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(searchPage))
	}))
	defer srv.Close()

	s := NewLinkedInWithURL(srv.URL, 2)
	s.limiter.SetLimit(1000) // no throttling in tests

	postings, err := s.ScrapePostings(context.Background(), "Founding Engineer", "Bangalore")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Len(t, postings, 2) // throttled page contributes nothing
}

func TestScrapePostingsDeduplicatesAcrossPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(searchPage)) // same cards on every page
	}))
	defer srv.Close()

	s := NewLinkedInWithURL(srv.URL, 2)
	s.limiter.SetLimit(1000)

	postings, err := s.ScrapePostings(context.Background(), "Founding Engineer", "Bangalore")
	require.NoError(t, err)
	assert.Len(t, postings, 2)
}

func TestExternalIDFromURN(t *testing.T) {
	assert.Equal(t, "12345", externalIDFromURN("urn:li:jobPosting:12345"))
	assert.Equal(t, "", externalIDFromURN(""))
	assert.Equal(t, "", externalIDFromURN("no-colon"))
}

func TestSaveNewSkipsKnownPostings(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, store.Migrate(db.Pool))
	ctx := context.Background()

	raw := []RawPosting{
		{ExternalID: "li-1", Title: "Founding Engineer", CompanyName: "Acme"},
		{Title: "Founding Engineer", CompanyName: "Globex"},
	}

	saved, err := SaveNew(ctx, db.Pool, raw)
	require.NoError(t, err)
	require.Len(t, saved, 2)
	for _, p := range saved {
		assert.NotZero(t, p.ID)
		assert.Equal(t, domain.StatusPending, p.ProcessingStatus)
	}

	// same batch again, plus a case-variant duplicate of the id-less one
	raw = append(raw, RawPosting{Title: "FOUNDING ENGINEER", CompanyName: "globex"})
	saved, err = SaveNew(ctx, db.Pool, raw)
	require.NoError(t, err)
	assert.Empty(t, saved)
}
