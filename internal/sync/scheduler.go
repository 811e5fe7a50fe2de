package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Scheduler periodically syncs every user with at least one linked account.
// The HTTP "sync now" endpoint remains the primary invocation surface; this
// keeps dashboards fresh between visits.
type Scheduler struct {
	cron    *cron.Cron
	service *Service
}

func NewScheduler(service *Service, schedule string) (*Scheduler, error) {
	s := &Scheduler{service: service}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(schedule, s.runAll); err != nil {
		return nil, fmt.Errorf("parse sync schedule %q: %w", schedule, err)
	}
	s.cron = c
	return s, nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts scheduling and returns a context that is done once any
// in-flight run has finished.
func (s *Scheduler) Stop() context.Context { return s.cron.Stop() }

func (s *Scheduler) runAll() {
	ctx := context.Background()

	userIDs, err := s.service.store.GoogleAccounts.ListUserIDsWithAccounts(ctx)
	if err != nil {
		log.Error().Err(err).Msg("scheduled sync: listing users failed")
		return
	}

	for _, userID := range userIDs {
		result, err := s.service.SyncUser(ctx, userID)
		if err != nil {
			if errors.Is(err, ErrNoLinkedAccounts) {
				continue
			}
			log.Error().Err(err).Int64("user_id", userID).Msg("scheduled sync failed")
			continue
		}
		log.Info().
			Int64("user_id", userID).
			Str("run_id", result.RunID).
			Int("accounts", result.AccountsProcessed).
			Int("errors", len(result.Errors)).
			Msg("scheduled sync finished")
	}
}
