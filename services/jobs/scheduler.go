package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/dalant/core"
	"github.com/trezcool/dalant/core/game"
)

// Scheduler runs the periodic jobs of the API.
type Scheduler struct {
	cron   *cron.Cron
	logger core.Logger
}

func NewScheduler(conf *core.Config, digest *Digest, games *game.Service, logger core.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		logger: logger,
	}

	if conf.Jobs.DigestSpec != "" {
		if _, err := s.cron.AddFunc(conf.Jobs.DigestSpec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			n, err := digest.Send(ctx)
			if err != nil {
				logger.Error(fmt.Sprintf("qt digest: %v", err), err)
				return
			}
			logger.Info("qt digest sent", map[string]interface{}{"emails": n})
		}); err != nil {
			return nil, errors.Wrap(err, "adding digest job")
		}
	}

	ttl := conf.Jobs.GameSessionTTL
	if conf.Jobs.SweepSpec != "" && ttl > 0 {
		if _, err := s.cron.AddFunc(conf.Jobs.SweepSpec, func() {
			if n := games.SweepBoards(ttl); n > 0 {
				logger.Info("idle quiz boards evicted", map[string]interface{}{"count": n})
			}
		}); err != nil {
			return nil, errors.Wrap(err, "adding sweep job")
		}
	}
	return s, nil
}

// Run starts the jobs and blocks until ctx is done, then waits for running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	s.logger.Info("scheduler started", map[string]interface{}{"jobs": len(s.cron.Entries())})

	<-ctx.Done()

	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
	return nil
}
