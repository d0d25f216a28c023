// Package emailfind turns a person+company into a deliverable address.
package emailfind

import (
	"context"
	"log"
	"strings"

	"github.com/nagendra-kumar-y/zerothhire/internal/domain"
	"github.com/nagendra-kumar-y/zerothhire/internal/hunter"
)

type Email struct {
	Addr   string
	Source string
}

// Finder is the name+domain lookup half of the directory provider.
type Finder interface {
	Enabled() bool
	DomainSearch(ctx context.Context, company string, limit int) (string, []hunter.Person, error)
	FindEmail(ctx context.Context, domain, firstName, lastName string) (string, int, error)
}

type Resolver struct {
	finder Finder
}

func NewResolver(finder Finder) *Resolver {
	return &Resolver{finder: finder}
}

// Resolve short-circuits on a contact that already carries an email (some
// providers return person and address together); otherwise it resolves the
// company domain and runs the name+domain finder. Every failure is a miss,
// never an error - the caller treats ok=false as a skip condition.
func (r *Resolver) Resolve(ctx context.Context, personName, companyName string, known domain.Contact) (Email, bool) {
	if known.Email != "" {
		src := known.EmailSource
		if src == "" {
			src = "contact-resolver"
		}
		return Email{Addr: known.Email, Source: src}, true
	}

	if r.finder == nil || !r.finder.Enabled() {
		return Email{}, false
	}

	dom, _, err := r.finder.DomainSearch(ctx, companyName, 1)
	if err != nil || dom == "" {
		if err != nil {
			log.Printf("[emailfind] domain lookup %q: %v", companyName, err)
		}
		return Email{}, false
	}

	first, last := splitName(personName)
	addr, score, err := r.finder.FindEmail(ctx, dom, first, last)
	if err != nil || addr == "" {
		if err != nil {
			log.Printf("[emailfind] finder %s@%s: %v", personName, dom, err)
		}
		return Email{}, false
	}

	log.Printf("[emailfind] %s at %s -> %s (score=%d)", personName, dom, addr, score)
	return Email{Addr: addr, Source: "hunter.io"}, true
}

func splitName(full string) (first, last string) {
	parts := strings.Fields(strings.TrimSpace(full))
	if len(parts) == 0 {
		return "", ""
	}
	first = parts[0]
	if len(parts) > 1 {
		last = parts[len(parts)-1]
	}
	return first, last
}
