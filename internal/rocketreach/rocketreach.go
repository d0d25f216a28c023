// Package rocketreach is a minimal client for the RocketReach people
// search API. The caller is responsible for rationing calls; RocketReach
// quotas are small.
package rocketreach

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.rocketreach.co/v2/api"

// seniorTitles mirrors the contact resolver's preference list. The API does
// the filtering; ordering within results is theirs.
var seniorTitles = []string{
	"CEO", "Chief Executive Officer",
	"Co-Founder", "Founder", "President",
	"CTO", "Chief Technology Officer",
	"CIO", "Chief Information Officer",
	"CPO", "Chief Product Officer",
	"CSO", "Chief Strategy Officer", "Chief Sales Officer",
	"CMO", "Chief Marketing Officer",
	"COO", "Chief Operating Officer",
	"CFO", "Chief Financial Officer",
}

type Person struct {
	Name       string
	Title      string
	Email      string
	ProfileURL string
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

func NewWithBaseURL(apiKey, baseURL string) *Client {
	c := New(apiKey)
	c.baseURL = baseURL
	return c
}

func (c *Client) Enabled() bool { return c != nil && c.apiKey != "" }

type searchResp struct {
	Profiles []struct {
		Name             string `json:"name"`
		CurrentTitle     string `json:"current_title"`
		CurrentWorkEmail string `json:"current_work_email"`
		PersonalEmail    string `json:"personal_email"`
		LinkedInURL      string `json:"linkedin_url"`
	} `json:"profiles"`
}

// SearchSenior asks for the top senior person at a company.
func (c *Client) SearchSenior(ctx context.Context, company string) (Person, bool, error) {
	payload := map[string]any{
		"query": map[string]any{
			"company_name":  []string{company},
			"current_title": seniorTitles,
		},
		"page_size": 1,
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return Person{}, false, err
	}
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.hc.Do(req)
	if err != nil {
		return Person{}, false, fmt.Errorf("rocketreach search: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return Person{}, false, fmt.Errorf("rocketreach search status %d", res.StatusCode)
	}

	var resp searchResp
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return Person{}, false, err
	}
	if len(resp.Profiles) == 0 {
		return Person{}, false, nil
	}

	p := resp.Profiles[0]
	email := p.CurrentWorkEmail
	if email == "" {
		email = p.PersonalEmail
	}
	return Person{
		Name:       p.Name,
		Title:      p.CurrentTitle,
		Email:      email,
		ProfileURL: p.LinkedInURL,
	}, true, nil
}
