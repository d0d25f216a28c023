package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	guestSearchURL = "https://www.linkedin.com/jobs-guest/jobs/api/seeMoreJobPostings/search"
	pageSize       = 25
)

// LinkedIn scrapes the guest (unauthenticated) job search pages. Blocked
// or empty responses yield an empty slice, not an error.
type LinkedIn struct {
	baseURL string
	hc      *http.Client
	limiter *rate.Limiter
	pages   int
}

func NewLinkedIn(pages int) *LinkedIn {
	if pages <= 0 {
		pages = 2
	}
	return &LinkedIn{
		baseURL: guestSearchURL,
		hc:      &http.Client{Timeout: 20 * time.Second},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		pages:   pages,
	}
}

func NewLinkedInWithURL(baseURL string, pages int) *LinkedIn {
	s := NewLinkedIn(pages)
	s.baseURL = baseURL
	return s
}

func (s *LinkedIn) ScrapePostings(ctx context.Context, titleQuery, location string) ([]RawPosting, error) {
	var (
		mu  sync.Mutex
		all []RawPosting
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(2)

	for page := 0; page < s.pages; page++ {
		start := page * pageSize
		g.Go(func() error {
			postings, err := s.fetchPage(gctx, titleQuery, location, start)
			if err != nil {
				// partial results beat a failed run; one bad page is not fatal
				return nil
			}
			mu.Lock()
			all = append(all, postings...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return dedupe(all), nil
}

func (s *LinkedIn) fetchPage(ctx context.Context, titleQuery, location string, start int) ([]RawPosting, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("keywords", titleQuery)
	q.Set("location", location)
	q.Set("start", strconv.Itoa(start))

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+q.Encode(), nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; zerothhire/1.0)")

	res, err := s.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("linkedin search: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		// 429/999 when throttled; treat as an empty page
		return nil, fmt.Errorf("linkedin search status %d", res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("linkedin parse: %w", err)
	}

	var out []RawPosting
	doc.Find("div.base-card, li").Each(func(_ int, card *goquery.Selection) {
		urn, _ := card.Attr("data-entity-urn")
		if urn == "" {
			urn, _ = card.Find("[data-entity-urn]").Attr("data-entity-urn")
		}
		title := clean(card.Find(".base-search-card__title").First().Text())
		company := clean(card.Find(".base-search-card__subtitle").First().Text())
		if title == "" || company == "" {
			return
		}

		rp := RawPosting{
			ExternalID:  externalIDFromURN(urn),
			Title:       title,
			CompanyName: company,
			Location:    clean(card.Find(".job-search-card__location").First().Text()),
		}
		rp.URL, _ = card.Find("a.base-card__full-link").First().Attr("href")
		rp.CompanyURL, _ = card.Find(".base-search-card__subtitle a").First().Attr("href")
		if dt, ok := card.Find("time").First().Attr("datetime"); ok {
			if t, err := time.Parse("2006-01-02", dt); err == nil {
				rp.PostedAt = &t
			}
		}
		out = append(out, rp)
	})
	return out, nil
}

// externalIDFromURN extracts the posting id from "urn:li:jobPosting:12345".
func externalIDFromURN(urn string) string {
	if i := strings.LastIndex(urn, ":"); i >= 0 {
		return urn[i+1:]
	}
	return ""
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func dedupe(in []RawPosting) []RawPosting {
	seen := map[string]bool{}
	var out []RawPosting
	for _, rp := range in {
		key := rp.ExternalID
		if key == "" {
			key = strings.ToLower(rp.Title + "|" + rp.CompanyName)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, rp)
	}
	return out
}
