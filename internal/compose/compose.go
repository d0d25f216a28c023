// Package compose renders outreach subject/body from a template and a
// candidate shortlist.
package compose

import (
	"fmt"
	"strings"

	"github.com/nagendra-kumar-y/zerothhire/internal/domain"
)

// sectorKeywords is checked in order; the first hit wins.
var sectorKeywords = []struct {
	sector string
	words  []string
}{
	{"fintech", []string{"fintech", "finance", "payment"}},
	{"ai", []string{"ai", "machine learning"}},
	{"healthtech", []string{"health"}},
	{"edtech", []string{"edtech", "education"}},
	{"marketplace", []string{"marketplace"}},
}

// Sector infers a template sector from a job title.
func Sector(jobTitle string) string {
	title := strings.ToLower(jobTitle)
	for _, sk := range sectorKeywords {
		for _, w := range sk.words {
			if strings.Contains(title, w) {
				return sk.sector
			}
		}
	}
	return "general"
}

type Message struct {
	Subject string
	Body    string
}

// Compose renders tmpl (or the built-in default when tmpl is nil) with the
// contact, company and candidate placeholders substituted. Candidate order
// is the caller's.
func Compose(ceoName, companyName string, candidates []domain.Candidate, tmpl *domain.Template) Message {
	list := candidateList(candidates)

	if tmpl == nil {
		return Message{
			Subject: defaultSubject(companyName),
			Body:    defaultBody(ceoName, companyName, list),
		}
	}

	sub := map[string]string{
		"{{ceoName}}":     ceoName,
		"{{companyName}}": companyName,
		"{{candidates}}":  list,
	}
	subject := tmpl.Subject
	body := tmpl.Body
	for k, v := range sub {
		subject = strings.ReplaceAll(subject, k, v)
		body = strings.ReplaceAll(body, k, v)
	}
	return Message{Subject: subject, Body: body}
}

func candidateList(candidates []domain.Candidate) string {
	var b strings.Builder
	for _, c := range candidates {
		fmt.Fprintf(&b, `<li><a href="%s">%s</a> - %s at %s</li>`,
			c.ProfileURL, c.Name, c.Title, c.CurrentCompany)
	}
	return b.String()
}

func defaultSubject(companyName string) string {
	return fmt.Sprintf("%s x ZerothHire — Your next founding engineer is here", companyName)
}

func defaultBody(ceoName, companyName, candidateList string) string {
	return fmt.Sprintf(`<html>
  <body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <p>Hi %s,</p>

    <p>I saw that %s just posted a Founding Engineer role. Congrats on the hiring!</p>

    <p>I specialize in finding exceptional founding engineers, and I've curated a list of outstanding candidates I think would be a great fit for your team:</p>

    <ul style="margin: 20px 0;">
      %s
    </ul>

    <p>All of these engineers have proven track records of building and scaling products from scratch. I've personally vetted each one through my network.</p>

    <p><strong>Here's how I can help:</strong></p>
    <p>I work on a success-fee model - completely free if you don't end up hiring through me. If we do work together and you hire one of my candidates, it's 15%% of their first-year annual salary. No risk, just results.</p>

    <p>Would love to chat more about your hiring needs and how I can support your growth.</p>

    <p>Best regards,<br>
    ZerothHire<br>
    <a href="https://zerothhire.com">zerothhire.com</a></p>
  </body>
</html>`, ceoName, companyName, candidateList)
}
