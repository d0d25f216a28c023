// Package automation schedules and triggers the outreach pipeline:
// scrape new postings, persist them, then run the state machine over the
// fresh batch.
package automation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nagendra-kumar-y/zerothhire/internal/domain"
	"github.com/nagendra-kumar-y/zerothhire/internal/events"
	"github.com/nagendra-kumar-y/zerothhire/internal/pipeline"
	"github.com/nagendra-kumar-y/zerothhire/internal/scrape"
	"github.com/nagendra-kumar-y/zerothhire/internal/store"
)

var (
	// ErrNotRunning guards Trigger against firing while stopped.
	ErrNotRunning = errors.New("automation is not running")
	// ErrRunInProgress is the hard rejection when a scheduled and a manual
	// run would overlap.
	ErrRunInProgress = errors.New("pipeline run already in progress")
)

type Runner interface {
	ProcessPosting(ctx context.Context, p *domain.Posting) error
	RunBatch(ctx context.Context, postings []domain.Posting) pipeline.BatchStats
}

type Service struct {
	db      *sql.DB
	scraper scrape.Scraper
	runner  Runner
	hub     *events.Hub

	SearchTitle    string
	SearchLocation string

	mu      sync.Mutex
	running bool
	tasks   map[string]context.CancelFunc

	runMu sync.Mutex // one pipeline run at a time, scheduled or manual
}

func NewService(db *sql.DB, scraper scrape.Scraper, runner Runner, hub *events.Hub, searchTitle, searchLocation string) *Service {
	return &Service{
		db:             db,
		scraper:        scraper,
		runner:         runner,
		hub:            hub,
		SearchTitle:    searchTitle,
		SearchLocation: searchLocation,
		tasks:          make(map[string]context.CancelFunc),
	}
}

// Start registers the periodic full-pipeline task. Idempotent: calling it
// while running logs a warning and does nothing.
func (s *Service) Start(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		log.Printf("[automation] already running")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.tasks["job-pipeline"] = cancel
	s.running = true

	go s.every(ctx, interval, "job-pipeline")
	log.Printf("[automation] started, interval=%s", interval)
}

func (s *Service) every(ctx context.Context, interval time.Duration, name string) {
	t := time.NewTicker(interval)
	defer t.Stop()

	// run immediately, then on the tick
	if _, err := s.runPipeline(ctx); err != nil && !errors.Is(err, ErrRunInProgress) {
		log.Printf("[%s] error: %v", name, err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := s.runPipeline(ctx); err != nil && !errors.Is(err, ErrRunInProgress) {
				log.Printf("[%s] error: %v", name, err)
			}
		}
	}
}

// Stop cancels the periodic task. Safe to call when not running.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, cancel := range s.tasks {
		cancel()
		delete(s.tasks, name)
	}
	s.running = false
	log.Printf("[automation] stopped")
}

// Trigger runs the pipeline once immediately, only while started.
func (s *Service) Trigger(ctx context.Context) (pipeline.BatchStats, error) {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	if !running {
		return pipeline.BatchStats{}, ErrNotRunning
	}
	return s.runPipeline(ctx)
}

// ProcessManually runs the state machine over a single stored posting,
// bypassing the started guard but not the overlap lock.
func (s *Service) ProcessManually(ctx context.Context, postingID int64) error {
	if !s.runMu.TryLock() {
		return ErrRunInProgress
	}
	defer s.runMu.Unlock()

	p, err := store.GetPosting(ctx, s.db, postingID)
	if err != nil {
		return fmt.Errorf("posting %d: %w", postingID, err)
	}
	if err := s.runner.ProcessPosting(ctx, &p); err != nil {
		return err
	}
	s.publish(events.TypePostingProcessed, map[string]any{
		"postingId": p.ID, "status": p.ProcessingStatus,
	})
	return nil
}

func (s *Service) runPipeline(ctx context.Context) (pipeline.BatchStats, error) {
	if !s.runMu.TryLock() {
		log.Printf("[automation] skipping: %v", ErrRunInProgress)
		return pipeline.BatchStats{}, ErrRunInProgress
	}
	defer s.runMu.Unlock()

	log.Printf("[automation] pipeline run: scraping %q in %q", s.SearchTitle, s.SearchLocation)

	raw, err := s.scraper.ScrapePostings(ctx, s.SearchTitle, s.SearchLocation)
	if err != nil {
		return pipeline.BatchStats{}, fmt.Errorf("scrape: %w", err)
	}
	if len(raw) == 0 {
		log.Printf("[automation] no postings found")
		return pipeline.BatchStats{}, nil
	}

	saved, err := scrape.SaveNew(ctx, s.db, raw)
	if err != nil {
		return pipeline.BatchStats{}, fmt.Errorf("save postings: %w", err)
	}
	log.Printf("[automation] scraped=%d new=%d", len(raw), len(saved))
	if len(saved) == 0 {
		return pipeline.BatchStats{}, nil
	}

	stats := s.runner.RunBatch(ctx, saved)
	s.publish(events.TypePipelineRun, stats)
	return stats, nil
}

func (s *Service) publish(typ string, data any) {
	if s.hub != nil {
		s.hub.Publish(events.MakeEvent("", typ, 1, data))
	}
}

type Status struct {
	IsRunning   bool     `json:"isRunning"`
	ActiveTasks []string `json:"activeTasks"`
}

func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		tasks = append(tasks, name)
	}
	return Status{IsRunning: s.running, ActiveTasks: tasks}
}

type Statistics struct {
	TotalJobs     int    `json:"totalJobs"`
	ProcessedJobs int    `json:"processedJobs"`
	EmailsSent    int    `json:"emailsSent"`
	Responses     int    `json:"responses"`
	SuccessRate   string `json:"successRate"`
	ResponseRate  string `json:"responseRate"`
}

func (s *Service) Statistics(ctx context.Context) (Statistics, error) {
	raw, err := store.LoadStats(ctx, s.db)
	if err != nil {
		return Statistics{}, err
	}
	return Statistics{
		TotalJobs:     raw.TotalJobs,
		ProcessedJobs: raw.ProcessedJobs,
		EmailsSent:    raw.EmailsSent,
		Responses:     raw.Responses,
		SuccessRate:   percent(raw.ProcessedJobs, raw.TotalJobs),
		ResponseRate:  percent(raw.Responses, raw.EmailsSent),
	}, nil
}

func percent(n, of int) string {
	if of == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", float64(n)/float64(of)*100)
}
