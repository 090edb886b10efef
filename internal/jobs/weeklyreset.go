package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vendpair/vendpair-go/internal/clock"
	"github.com/vendpair/vendpair-go/internal/repository"
)

// WeeklyResetJob prunes pair records from before the current week so the
// history and unpaired views only ever reason about this week's data.
type WeeklyResetJob struct {
	pairRepo repository.PairRepository
	clk      *clock.Clock
	interval time.Duration
	done     chan struct{}
}

func NewWeeklyResetJob(pairRepo repository.PairRepository, clk *clock.Clock, interval time.Duration) *WeeklyResetJob {
	return &WeeklyResetJob{
		pairRepo: pairRepo,
		clk:      clk,
		interval: interval,
		done:     make(chan struct{}),
	}
}

func (j *WeeklyResetJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("weekly reset job started")
}

func (j *WeeklyResetJob) Stop() {
	close(j.done)
	log.Info().Msg("weekly reset job stopped")
}

func (j *WeeklyResetJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.reset()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.reset()
		}
	}
}

func (j *WeeklyResetJob) reset() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	weekStart := j.clk.ThisWeekStart().Format(clock.DateLayout)
	count, err := j.pairRepo.DeleteBefore(ctx, weekStart)
	if err != nil {
		log.Error().Err(err).Msg("failed to prune old pairs")
	} else if count > 0 {
		log.Info().Int64("count", count).Str("week_start", weekStart).Msg("pruned pairs from previous weeks")
	}
}
