package main

import (
	"os"
	"time"

	"farmdash/client"
	"farmdash/config"
	"farmdash/db"
	"farmdash/draft"
	"farmdash/platform/shutdown"
	"farmdash/web"
	"farmdash/wizard"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"
)

func main() {
	cfg := config.Get()

	backend, err := newBackend(cfg)
	if err != nil {
		logger.LogErr(err, "failed to set up plan storage")
		os.Exit(1)
	}

	hub := web.NewSSEHub()
	backend = web.Broadcasting(backend, hub)

	svc := draft.NewService(backend, draft.ServiceOptions{Actor: cfg.Actor})
	registry := wizard.NewRegistry(svc, cfg.SessionIdle())

	done := make(chan struct{})
	stopSweeper := make(chan struct{})
	registry.StartSweeper(time.Minute, stopSweeper)
	shutdown.RegisterHook(func(time.Duration) error {
		close(stopSweeper)
		return nil
	})
	shutdown.RegisterHook(func(time.Duration) error {
		hub.CloseAll()
		return nil
	})
	shutdown.InitShutdownService(done)

	s := rweb.NewServer(rweb.ServerOptions{
		Address: cfg.Addr,
		Verbose: true,
	})
	s.Use(rweb.RequestInfo)

	web.SetupRoutes(s, web.NewHandlers(backend, registry, hub, web.Options{
		Locale:   cfg.Locale,
		ExpertID: cfg.ExpertID,
	}))

	go func() {
		<-done
		os.Exit(0)
	}()

	logger.Info("Starting farmdash server", "address", cfg.Addr, "remote_api", cfg.APIURL)
	if err := s.Run(); err != nil {
		logger.LogErr(err, "server stopped")
		os.Exit(1)
	}
}

// newBackend picks the external farm API when one is configured and the
// local DuckDB store otherwise
func newBackend(cfg *config.Config) (web.Backend, error) {
	if cfg.UseRemoteAPI() {
		return client.New(client.Options{
			BaseURL:       cfg.APIURL,
			Token:         cfg.APIToken,
			RatePerSecond: cfg.RatePerSecond,
			Burst:         cfg.RateBurst,
		}), nil
	}

	database, err := db.GetDB()
	if err != nil {
		return nil, err
	}
	shutdown.RegisterHook(func(time.Duration) error {
		return database.Close()
	})
	return db.NewStore(database), nil
}
