// Package engage closes the loop on sent outreach: it scans an IMAP inbox
// for replies carrying a tracking token and stamps the matching send
// record and posting.
package engage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"

	"github.com/nagendra-kumar-y/zerothhire/internal/config"
	"github.com/nagendra-kumar-y/zerothhire/internal/secrets"
	"github.com/nagendra-kumar-y/zerothhire/internal/store"
)

// Tracking tokens are <unix-ms>-<16 hex chars>; replies quote them via the
// X-Tracking-ID header or the message footer.
var tokenRe = regexp.MustCompile(`\b\d{13}-[0-9a-f]{16}\b`)

// RunOnce polls the configured mailbox and records replies. Messages
// without a token are left unseen for a human to read.
func RunOnce(ctx context.Context, db *sql.DB, cfg config.Config) (matched int, err error) {
	if !cfg.Engage.Enabled {
		return 0, nil
	}
	if cfg.Engage.IMAPHost == "" || cfg.Engage.Username == "" {
		return 0, errors.New("engage enabled but missing imap_host/username")
	}
	password := secrets.IMAPPassword(cfg)
	if password == "" {
		return 0, errors.New("engage enabled but no IMAP password in keychain or config")
	}

	addr := cfg.Engage.IMAPHost
	if !strings.Contains(addr, ":") {
		port := cfg.Engage.IMAPPort
		if port == 0 {
			port = 993
		}
		addr = fmt.Sprintf("%s:%d", addr, port)
	}

	ctx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	c, err := dialAndLogin(ctx, addr, cfg.Engage.Username, password)
	if err != nil {
		return 0, err
	}
	defer logoutAndClose(c)

	if _, err := c.Select(cfg.Engage.Mailbox, &imap.SelectOptions{ReadOnly: false}).Wait(); err != nil {
		return 0, fmt.Errorf("imap select %q: %w", cfg.Engage.Mailbox, err)
	}

	msgs, err := fetchUnseen(ctx, c, 200)
	if err != nil {
		return 0, err
	}
	if len(msgs) == 0 {
		return 0, nil
	}

	var processed []imap.UID
	for _, m := range msgs {
		token := findToken(m)
		if token == "" {
			continue
		}

		rec, err := store.SendRecordByTracking(ctx, db, token)
		if errors.Is(err, store.ErrNotFound) {
			processed = append(processed, m.UID)
			continue
		}
		if err != nil {
			return matched, err
		}

		at := m.Date
		if at.IsZero() {
			at = time.Now()
		}
		if err := store.MarkEngagement(ctx, db, token, "replied", at); err != nil {
			return matched, err
		}
		if err := store.MarkPostingResponse(ctx, db, rec.PostingID, "replied", at); err != nil {
			return matched, err
		}
		if rec.TemplateID != 0 && !rec.Engagement.Replied {
			if err := store.BumpTemplateReplied(ctx, db, rec.TemplateID); err != nil {
				log.Printf("[engage] bump template %d: %v", rec.TemplateID, err)
			}
		}

		log.Printf("[engage] reply from %s for posting %d (token %s)", m.From, rec.PostingID, token)
		matched++
		processed = append(processed, m.UID)
	}

	if err := markSeen(c, processed); err != nil {
		return matched, fmt.Errorf("imap mark seen: %w", err)
	}
	return matched, nil
}

func findToken(m replyMessage) string {
	if tok := tokenRe.FindString(m.Subject); tok != "" {
		return tok
	}
	return tokenRe.FindString(string(m.RawMessage))
}
