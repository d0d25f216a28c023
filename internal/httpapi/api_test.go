package httpapi

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nagendra-kumar-y/zerothhire/internal/automation"
	"github.com/nagendra-kumar-y/zerothhire/internal/dispatch"
	"github.com/nagendra-kumar-y/zerothhire/internal/domain"
	"github.com/nagendra-kumar-y/zerothhire/internal/pipeline"
	"github.com/nagendra-kumar-y/zerothhire/internal/scrape"
	"github.com/nagendra-kumar-y/zerothhire/internal/store"
)

type noopScraper struct{}

func (noopScraper) ScrapePostings(context.Context, string, string) ([]scrape.RawPosting, error) {
	return nil, nil
}

type markRunner struct{ db *sql.DB }

func (r markRunner) ProcessPosting(ctx context.Context, p *domain.Posting) error {
	if p.Processed {
		return pipeline.ErrAlreadyProcessed
	}
	if err := p.MarkTerminal(domain.OutcomeVerifiedOnly, "verified", time.Now()); err != nil {
		return err
	}
	return store.SavePostingOutcome(ctx, r.db, *p)
}

func (r markRunner) RunBatch(ctx context.Context, postings []domain.Posting) pipeline.BatchStats {
	return pipeline.BatchStats{Total: len(postings)}
}

type noopTransport struct{}

func (noopTransport) Send(context.Context, dispatch.Message) (string, error) { return "msg-1", nil }

func newTestServer(t *testing.T) (*httptest.Server, *sql.DB, *automation.Service) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db.Pool))

	svc := automation.NewService(db.Pool, noopScraper{}, markRunner{db: db.Pool}, nil, "Founding Engineer", "Bangalore")
	t.Cleanup(svc.Stop)

	mux := NewMux(Deps{
		Automation: svc,
		Dispatcher: dispatch.New(db.Pool, noopTransport{}, "outreach@zerothhire.com", "ZerothHire", 3),
	})
	srv := httptest.NewServer(Chain(mux, RequestID, Recover))
	t.Cleanup(srv.Close)
	return srv, db.Pool, svc
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	res, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Body.Close() })
	return res
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t)

	res, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.NotEmpty(t, res.Header.Get("X-Request-Id"))
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _, _ := newTestServer(t)

	res, err := http.Get(srv.URL + "/automation/start")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
}

func TestStartStopStatus(t *testing.T) {
	srv, _, _ := newTestServer(t)

	res := post(t, srv.URL+"/automation/start", `{"intervalMinutes": 60}`)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res2, err := http.Get(srv.URL + "/automation/status")
	require.NoError(t, err)
	defer res2.Body.Close()
	assert.Contains(t, readBody(t, res2), `"isRunning":true`)

	res3 := post(t, srv.URL+"/automation/stop", "")
	assert.Equal(t, http.StatusOK, res3.StatusCode)
	assert.Contains(t, readBody(t, res3), `"isRunning":false`)
}

func TestTriggerWhileStoppedConflicts(t *testing.T) {
	srv, _, _ := newTestServer(t)

	res := post(t, srv.URL+"/automation/trigger", "")
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Contains(t, readBody(t, res), "not_running")
}

func TestProcessByPath(t *testing.T) {
	srv, db, _ := newTestServer(t)

	id, _, err := store.InsertPostingIgnore(context.Background(), db, domain.Posting{
		Title: "Founding Engineer", Company: domain.Company{Name: "Acme"},
	})
	require.NoError(t, err)

	res := post(t, srv.URL+"/jobs/"+itoa(id)+"/process", "")
	assert.Equal(t, http.StatusOK, res.StatusCode)

	// second attempt conflicts: the posting is already terminal
	res = post(t, srv.URL+"/jobs/"+itoa(id)+"/process", "")
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Contains(t, readBody(t, res), "already_processed")

	res = post(t, srv.URL+"/jobs/999/process", "")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res = post(t, srv.URL+"/jobs/abc/process", "")
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = post(t, srv.URL+"/jobs/1/unknown", "")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestStatistics(t *testing.T) {
	srv, _, _ := newTestServer(t)

	res, err := http.Get(srv.URL + "/automation/statistics")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	body := readBody(t, res)
	assert.Contains(t, body, `"totalJobs":0`)
	assert.Contains(t, body, `"successRate":"0%"`)
}

func TestResendFailedEmptySweep(t *testing.T) {
	srv, _, _ := newTestServer(t)

	res := post(t, srv.URL+"/sends/resend-failed", "")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, readBody(t, res), "results")
}

func readBody(t *testing.T, res *http.Response) string {
	t.Helper()
	var b strings.Builder
	_, err := io.Copy(&b, res.Body)
	require.NoError(t, err)
	return b.String()
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
