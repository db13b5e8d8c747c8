package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ironingOrderManagement/internal/auth"
	"ironingOrderManagement/internal/config"
	"ironingOrderManagement/internal/dashboard"
	"ironingOrderManagement/internal/logging"
	"ironingOrderManagement/internal/session"
	"ironingOrderManagement/models"
)

func main() {
	who := flag.String("login", "admin", "role (admin, customer, service provider) or user id to log in as")
	exportPath := flag.String("export", "", "write the visible orders as CSV to this file")
	once := flag.Bool("once", false, "print the summary and exit instead of running the SLA sweep")
	dev := flag.Bool("dev", false, "allow a built-in session secret when SESSION_SECRET is unset")
	flag.Parse()

	// Load configuration
	load := config.Load
	if *dev {
		load = config.LoadWithDefaults
	}
	cfg, err := load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	logger.Info("configuration loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mgr := session.NewManager(cfg, session.WithLogger(logger))
	s, err := mgr.Login(ctx, *who)
	if err != nil {
		log.Fatalf("login: %v", err)
	}
	defer func() {
		if err := mgr.Logout(); err != nil {
			logger.Error("logout", "error", err)
		}
	}()
	if _, err := auth.RequireKnownActor(s.Context(ctx), s.Service.Users()); err != nil {
		log.Fatalf("verify session: %v", err)
	}

	sum, err := s.Service.Summary(ctx, s.Actor)
	if err != nil {
		log.Fatalf("summary: %v", err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sum); err != nil {
		log.Fatalf("write summary: %v", err)
	}

	if *exportPath != "" {
		if err := export(ctx, s, *exportPath); err != nil {
			log.Fatalf("export: %v", err)
		}
	}
	if *once {
		return
	}

	// Wait for signal; the SLA sweep runs until then.
	logger.Info("session active", "actor", s.Actor.ID, "token_expires", s.ExpiresAt)
	ticker := time.NewTicker(cfg.SLA.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		case <-ticker.C:
			counts := s.Sweeper.Counts()
			logger.Info("sla status",
				"breach", counts[models.SLABreach],
				"within", counts[models.SLAWithin],
				"not_applicable", counts[models.SLANotApplicable])
		}
	}
}

func export(ctx context.Context, s *session.Session, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	n, err := s.Service.ExportOrdersCSV(ctx, s.Actor, f, dashboard.OrderFilter{})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	log.Printf("exported %d orders to %s", n, path)
	return nil
}
