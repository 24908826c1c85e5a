package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aimlab/internal/aimlab"
	"aimlab/internal/config"
	"aimlab/internal/data"
	"aimlab/internal/lobby"
	"aimlab/internal/organic"
	"aimlab/internal/tutorial"

	"github.com/charmbracelet/log"
)

// recordStore is what the server needs from a performance record backend.
type recordStore interface {
	aimlab.RecordSink
	aimlab.RecordLister
}

func main() {
	config.InitConfig()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration", "err", err)
	}
	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	} else {
		log.Warn("Unknown log level, keeping default", "level", cfg.LogLevel)
	}

	settings := aimlab.Settings{
		Strength:        cfg.AimAssistStrength,
		Randomness:      cfg.RandomnessFactor,
		BaseDamage:      cfg.BaseDamage,
		NormalizeAngles: cfg.NormalizeAngles,
	}
	if err := settings.Validate(); err != nil {
		log.Fatal("Invalid simulation settings", "err", err)
	}

	// 1. Record store: Postgres when configured, otherwise in memory
	var store recordStore
	if cfg.DatabaseURL != "" {
		pg, err := data.NewStoreFromDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("Failed to open record store", "err", err)
		}
		defer pg.Close()
		store = pg
		log.Info("Using Postgres record store")
	} else {
		store = data.NewMemoryStore()
		log.Info("DATABASE_URL not set, keeping records in memory")
	}

	// 2. Organic aim suggester
	var suggester aimlab.Suggester
	switch {
	case cfg.OrganicAimURL != "":
		suggester = organic.NewRemote(cfg.OrganicAimURL, &http.Client{Timeout: cfg.SuggestTimeout})
	case cfg.OrganicAimLocal:
		suggester = organic.Local{}
	default:
		log.Info("No organic aim service configured, Aim Assist uses random fallback")
	}

	// 3. Simulation + frame scheduler
	sim := aimlab.NewSimulation(aimlab.Options{
		Settings:       settings,
		Suggester:      suggester,
		SuggestTimeout: cfg.SuggestTimeout,
		Sink:           store,
	})
	engine := aimlab.NewEngine(sim)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go engine.Run(ctx)

	// 4. Tutorial service
	var generator tutorial.Generator
	if cfg.TutorialURL != "" {
		generator = &tutorial.Remote{URL: cfg.TutorialURL, APIKey: cfg.TutorialAPIKey}
	}
	tutorials := tutorial.NewService(generator, cfg.TutorialTimeout)

	// 5. Routes
	mux := http.NewServeMux()
	aimlab.NewAPI(engine, store).Register(mux)
	mux.HandleFunc("/api/tutorial", tutorials.Handler)
	mux.HandleFunc("/ws", aimlab.NewWebsocketHandler(engine))
	mux.HandleFunc("/", lobby.NewHandler(sim, store))

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("Server starting", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("ListenAndServe failed", "err", err)
	}
}
