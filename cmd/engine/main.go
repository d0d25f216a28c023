package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"github.com/nagendra-kumar-y/zerothhire/internal/automation"
	"github.com/nagendra-kumar-y/zerothhire/internal/config"
	"github.com/nagendra-kumar-y/zerothhire/internal/contact"
	"github.com/nagendra-kumar-y/zerothhire/internal/dispatch"
	"github.com/nagendra-kumar-y/zerothhire/internal/emailfind"
	"github.com/nagendra-kumar-y/zerothhire/internal/engage"
	"github.com/nagendra-kumar-y/zerothhire/internal/events"
	"github.com/nagendra-kumar-y/zerothhire/internal/httpapi"
	"github.com/nagendra-kumar-y/zerothhire/internal/hunter"
	"github.com/nagendra-kumar-y/zerothhire/internal/pipeline"
	"github.com/nagendra-kumar-y/zerothhire/internal/rocketreach"
	"github.com/nagendra-kumar-y/zerothhire/internal/scrape"
	"github.com/nagendra-kumar-y/zerothhire/internal/secrets"
	"github.com/nagendra-kumar-y/zerothhire/internal/store"
)

func main() {
	dataDir := os.Getenv("ZEROTHHIRE_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	// One engine per data dir: two processes would race the sqlite writer
	// and break the once-per-process provider cap.
	lock := flock.New(filepath.Join(dataDir, "engine.lock"))
	held, err := lock.TryLock()
	if err != nil {
		log.Fatalf("lock: %v", err)
	}
	if !held {
		log.Fatalf("another engine instance already holds %s", lock.Path())
	}
	defer func() { _ = lock.Unlock() }()

	userCfgPath, err := config.EnsureUserConfig(dataDir, filepath.Join("config", "config.yml"))
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}
	cfg, err := config.Load(userCfgPath)
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	if v := config.Validate(cfg); !v.OK() {
		log.Fatalf("config invalid: %v", v.Errors)
	} else {
		for _, w := range v.Warnings {
			log.Printf("[config] warning: %s", w)
		}
	}

	db, err := store.Open(filepath.Join(dataDir, "zerothhire.db"))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	if err := store.Migrate(db.Pool); err != nil {
		log.Fatal(err)
	}

	hub := events.NewHub()

	hunterClient := hunter.New(secrets.HunterKey(cfg))
	rocketClient := rocketreach.New(secrets.RocketReachKey(cfg))
	contacts := contact.NewResolver(hunterClient, rocketClient)
	emails := emailfind.NewResolver(hunterClient)

	transport := dispatch.NewSendGrid(secrets.SendGridKey(cfg))
	dispatcher := dispatch.New(db.Pool, transport,
		cfg.Providers.SendGrid.FromEmail, cfg.Providers.SendGrid.FromName,
		cfg.Automation.CandidateCount)

	runner := pipeline.NewRunner(db.Pool, contacts, emails, dispatcher,
		cfg.Automation.SendEmails,
		time.Duration(cfg.Automation.SendDelayMillis)*time.Millisecond)

	scraper := scrape.NewLinkedIn(2)

	svc := automation.NewService(db.Pool, scraper, runner, hub,
		cfg.Automation.SearchTitle, cfg.Automation.SearchLocation)
	svc.Start(time.Duration(cfg.Automation.IntervalMinutes) * time.Minute)
	defer svc.Stop()

	if cfg.Automation.SendEmails {
		log.Printf("[engine] email sending ENABLED")
	} else {
		log.Printf("[engine] email sending disabled (dry-run: verifying contacts only)")
	}

	engageCtx, engageCancel := context.WithCancel(context.Background())
	defer engageCancel()
	if cfg.Engage.Enabled {
		go engageLoop(engageCtx, db, cfg)
	}

	mux := httpapi.NewMux(httpapi.Deps{
		Automation: svc,
		Dispatcher: dispatcher,
		Hub:        hub,
	})
	handler := httpapi.Chain(mux, httpapi.RequestID, httpapi.Recover, httpapi.AccessLog)

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.App.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("engine listening on http://%s (data=%s)", addr, dataDir)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Printf("[engine] shutting down")
	svc.Stop()
	engageCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func engageLoop(ctx context.Context, db *store.DB, cfg config.Config) {
	t := time.NewTicker(5 * time.Minute)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			matched, err := engage.RunOnce(ctx, db.Pool, cfg)
			if err != nil {
				log.Printf("[engage] error: %v", err)
			} else if matched > 0 {
				log.Printf("[engage] matched %d replies", matched)
			}
		}
	}
}
