// Package hunter is a thin client for the Hunter.io v2 API: domain search
// (company -> domain + people) and the name+domain email finder.
package hunter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://api.hunter.io/v2"

type Person struct {
	FirstName  string
	LastName   string
	Email      string
	Position   string
	ProfileURL string
}

func (p Person) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

type Client struct {
	apiKey  string
	baseURL string
	hc      *http.Client
}

func New(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		hc:      &http.Client{Timeout: 20 * time.Second},
	}
}

// NewWithBaseURL is for tests pointing at an httptest server.
func NewWithBaseURL(apiKey, baseURL string) *Client {
	c := New(apiKey)
	c.baseURL = baseURL
	return c
}

func (c *Client) Enabled() bool { return c != nil && c.apiKey != "" }

type domainSearchResp struct {
	Data struct {
		Domain string `json:"domain"`
		Emails []struct {
			Value     string `json:"value"`
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
			Position  string `json:"position"`
			LinkedIn  string `json:"linkedin"`
		} `json:"emails"`
	} `json:"data"`
}

// DomainSearch resolves a company name to its domain and the people Hunter
// knows there, in Hunter's own ranking order.
func (c *Client) DomainSearch(ctx context.Context, company string, limit int) (string, []Person, error) {
	q := url.Values{}
	q.Set("company", company)
	q.Set("api_key", c.apiKey)
	q.Set("limit", strconv.Itoa(limit))

	var resp domainSearchResp
	if err := c.get(ctx, "/domain-search", q, &resp); err != nil {
		return "", nil, err
	}

	people := make([]Person, 0, len(resp.Data.Emails))
	for _, e := range resp.Data.Emails {
		people = append(people, Person{
			FirstName:  e.FirstName,
			LastName:   e.LastName,
			Email:      e.Value,
			Position:   e.Position,
			ProfileURL: e.LinkedIn,
		})
	}
	return resp.Data.Domain, people, nil
}

type emailFinderResp struct {
	Data struct {
		Email string `json:"email"`
		Score int    `json:"score"`
	} `json:"data"`
}

// FindEmail guesses the address for first/last at domain. Empty email with
// nil error means Hunter had no confident answer.
func (c *Client) FindEmail(ctx context.Context, domain, firstName, lastName string) (string, int, error) {
	q := url.Values{}
	q.Set("domain", domain)
	q.Set("first_name", firstName)
	q.Set("last_name", lastName)
	q.Set("api_key", c.apiKey)

	var resp emailFinderResp
	if err := c.get(ctx, "/email-finder", q, &resp); err != nil {
		return "", 0, err
	}
	return resp.Data.Email, resp.Data.Score, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("hunter get %s: %w", path, err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return fmt.Errorf("hunter %s status %d", path, res.StatusCode)
	}
	return json.NewDecoder(res.Body).Decode(out)
}
