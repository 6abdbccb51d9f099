package crontab

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/mileusna/crontab"
	"github.com/rs/zerolog"

	"conversiq-server/internal/config"
	"conversiq-server/internal/domain/backfill"
	"conversiq-server/internal/infrastructure/cache"
	"conversiq-server/internal/utils/platformerrors"
)

const backfillLockName = "conversiq:embedding-backfill"

// Backfiller embeds pending messages.
type Backfiller interface {
	Run(ctx context.Context, report backfill.Reporter) (backfill.Progress, error)
}

// Locker serializes the sweep across replicas.
type Locker interface {
	WithLock(ctx context.Context, lockName string, ttl time.Duration, fn func(ctx context.Context) error) error
}

// Crontab schedules the pending-embedding sweep.
type Crontab struct {
	ctab     *crontab.Crontab
	backfill Backfiller
	locker   Locker
	cfg      *config.Config
	log      zerolog.Logger
	running  atomic.Bool
}

// NewCrontab creates the scheduler. locker may be nil for a single replica.
func NewCrontab(cfg *config.Config, backfiller Backfiller, locker Locker, log zerolog.Logger) *Crontab {
	return &Crontab{
		ctab:     crontab.New(),
		backfill: backfiller,
		locker:   locker,
		cfg:      cfg,
		log:      log.With().Str("component", "crontab").Logger(),
	}
}

// Run registers the jobs and blocks until ctx is done.
func (c *Crontab) Run(ctx context.Context) error {
	if !c.cfg.BackfillEnabled {
		c.log.Info().Msg("embedding backfill sweep disabled")
		<-ctx.Done()
		return nil
	}

	cronExpr, err := backfillSchedule(c.cfg.BackfillIntervalMinutes)
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "invalid embedding backfill interval")
	}
	if err := c.ctab.AddJob(cronExpr, func() { c.sweep(ctx) }); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "failed to add embedding backfill job")
	}
	c.log.Info().Msgf("Embedding backfill scheduled: every %d minute(s)", c.cfg.BackfillIntervalMinutes)

	<-ctx.Done()
	c.ctab.Shutdown()
	return nil
}

// backfillSchedule turns an interval into a cron expression with evenly spaced runs.
func backfillSchedule(minutes int) (string, error) {
	if !config.ValidBackfillInterval(minutes) {
		return "", fmt.Errorf("interval of %d minutes does not divide an hour or a day evenly", minutes)
	}
	switch {
	case minutes == 60:
		return "0 * * * *", nil
	case minutes > 60:
		return fmt.Sprintf("0 */%d * * *", minutes/60), nil
	default:
		return fmt.Sprintf("*/%d * * * *", minutes), nil
	}
}

func (c *Crontab) sweep(ctx context.Context) {
	if ctx.Err() != nil || !c.running.CompareAndSwap(false, true) {
		return
	}
	defer c.running.Store(false)

	jobCtx, cancel := context.WithTimeout(ctx, c.cfg.BackfillLockTTL)
	defer cancel()

	run := func(ctx context.Context) error {
		_, err := c.backfill.Run(ctx, func(p backfill.Progress) {
			c.log.Info().Str("progress", p.String()).Msg("embedding backfill progress")
		})
		return err
	}

	var err error
	if c.locker != nil {
		err = c.locker.WithLock(jobCtx, backfillLockName, c.cfg.BackfillLockTTL, run)
	} else {
		err = run(jobCtx)
	}

	switch {
	case err == nil:
	case errors.Is(err, cache.ErrLockHeld):
		c.log.Debug().Msg("embedding backfill running on another instance")
	default:
		c.log.Error().Err(err).Msg("embedding backfill failed")
	}
}
