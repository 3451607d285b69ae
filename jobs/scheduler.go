package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Schedule enqueues Name on Queue every Every
type Schedule struct {
	Name    string
	Every   time.Duration
	Queue   string
	Payload interface{}
}

// Scheduler publishes recurring jobs. Job bodies check their own
// predicates when they run, so a duplicate tick is harmless
type Scheduler struct {
	queue     Enqueuer
	schedules []Schedule
	log       zerolog.Logger
}

func NewScheduler(queue Enqueuer, log zerolog.Logger, schedules ...Schedule) *Scheduler {
	return &Scheduler{
		queue:     queue,
		schedules: schedules,
		log:       log,
	}
}

// Run blocks until ctx is done
func (s *Scheduler) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, sc := range s.schedules {
		if sc.Every <= 0 {
			s.log.Warn().Str("job", sc.Name).Msg("schedule disabled, no interval")
			continue
		}
		sc := sc
		g.Go(func() error {
			ticker := time.NewTicker(sc.Every)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					s.tick(ctx, sc)
				}
			}
		})
	}
	return g.Wait()
}

func (s *Scheduler) tick(ctx context.Context, sc Schedule) {
	payload := sc.Payload
	if payload == nil {
		payload = map[string]interface{}{"scheduled_at": time.Now().UTC()}
	}
	if err := s.queue.Enqueue(ctx, sc.Name, payload, sc.Queue); err != nil {
		s.log.Error().Err(err).Str("job", sc.Name).Msg("failed to enqueue scheduled job")
		return
	}
	s.log.Debug().Str("job", sc.Name).Str("queue", sc.Queue).Msg("scheduled job enqueued")
}
