package main

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"conversiq-server/internal/infrastructure/crontab"
	"conversiq-server/internal/interfaces/httpserver"
)

// Application runs the HTTP server and the background scheduler until the
// context is cancelled or either of them fails.
type Application struct {
	httpServer *httpserver.HTTPServer
	crontab    *crontab.Crontab
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HTTPServer, cron *crontab.Crontab, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		crontab:    cron,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return a.crontab.Run(ctx)
	})
	eg.Go(func() error {
		return a.httpServer.Run(ctx)
	})
	return eg.Wait()
}
