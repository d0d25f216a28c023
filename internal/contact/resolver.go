// Package contact resolves a company name to its most senior reachable
// person, chaining discovery providers in priority order.
package contact

import (
	"context"
	"log"
	"strings"
	"sync/atomic"

	"github.com/nagendra-kumar-y/zerothhire/internal/domain"
	"github.com/nagendra-kumar-y/zerothhire/internal/hunter"
	"github.com/nagendra-kumar-y/zerothhire/internal/rocketreach"
)

// titlePreference orders seniority: chief executives and founders first,
// then the technical/product chiefs, then the remaining C-level. The first
// entry that matches anyone wins; provider order breaks ties within one
// entry.
var titlePreference = []string{
	"ceo", "chief executive",
	"co-founder", "cofounder", "founder",
	"president",
	"cto", "chief technology",
	"cpo", "chief product",
	"cio", "chief information",
	"cso", "chief strategy", "chief sales",
	"cmo", "chief marketing",
	"coo", "chief operating",
	"cfo", "chief financial",
}

// Primary is the directory provider queried first (Hunter domain search).
type Primary interface {
	Enabled() bool
	DomainSearch(ctx context.Context, company string, limit int) (domain string, people []hunter.Person, err error)
}

// Secondary is the expensive fallback, rationed to one call per process.
type Secondary interface {
	Enabled() bool
	SearchSenior(ctx context.Context, company string) (rocketreach.Person, bool, error)
}

type Resolver struct {
	primary   Primary
	secondary Secondary

	// hard cost cap, not per company: flipped before the first secondary
	// call and never reset, regardless of that call's outcome
	secondaryUsed atomic.Bool
}

func NewResolver(primary Primary, secondary Secondary) *Resolver {
	return &Resolver{primary: primary, secondary: secondary}
}

// Resolve returns a best-effort senior contact for the company. Provider
// errors are logged and treated as misses so the chain always continues;
// ok=false means every provider came up empty.
func (r *Resolver) Resolve(ctx context.Context, companyName string) (domain.Contact, bool) {
	if r.primary != nil && r.primary.Enabled() {
		if c, ok := r.viaPrimary(ctx, companyName); ok {
			log.Printf("[contact] %s: found %s (%s) via hunter.io", companyName, c.Name, c.Title)
			return c, true
		}
	}

	if r.secondary != nil && r.secondary.Enabled() && r.secondaryUsed.CompareAndSwap(false, true) {
		log.Printf("[contact] %s: trying rocketreach (single use)", companyName)
		if c, ok := r.viaSecondary(ctx, companyName); ok {
			log.Printf("[contact] %s: found %s via rocketreach", companyName, c.Name)
			return c, true
		}
	}

	return domain.Contact{}, false
}

func (r *Resolver) viaPrimary(ctx context.Context, companyName string) (domain.Contact, bool) {
	_, people, err := r.primary.DomainSearch(ctx, companyName, 10)
	if err != nil {
		log.Printf("[contact] hunter domain search %q: %v", companyName, err)
		return domain.Contact{}, false
	}

	for _, want := range titlePreference {
		for _, p := range people {
			if strings.Contains(strings.ToLower(p.Position), want) {
				return domain.Contact{
					Name:        p.FullName(),
					Title:       p.Position,
					ProfileURL:  p.ProfileURL,
					Email:       p.Email,
					EmailSource: "hunter.io",
				}, true
			}
		}
	}
	return domain.Contact{}, false
}

func (r *Resolver) viaSecondary(ctx context.Context, companyName string) (domain.Contact, bool) {
	p, ok, err := r.secondary.SearchSenior(ctx, companyName)
	if err != nil {
		log.Printf("[contact] rocketreach %q: %v", companyName, err)
		return domain.Contact{}, false
	}
	if !ok {
		return domain.Contact{}, false
	}
	c := domain.Contact{
		Name:       p.Name,
		Title:      p.Title,
		ProfileURL: p.ProfileURL,
		Email:      p.Email,
	}
	if c.Email != "" {
		c.EmailSource = "rocketreach"
	}
	return c, true
}
