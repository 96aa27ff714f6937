// internal/scheduler/autobalance.go
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/codr1/futbolito/internal/config"
)

const (
	AutoBalanceJobName = "match_auto_balance"
	autoBalanceTimeout = 2 * time.Minute
)

// KickoffBalancer assigns teams for matches that are about to start.
type KickoffBalancer interface {
	BalanceMatchesApproachingKickoff(ctx context.Context, now time.Time) (int, error)
}

// RegisterAutoBalanceJob schedules automatic team assignment on svc. Nothing
// is registered when balancing is disabled.
func RegisterAutoBalanceJob(svc *Service, balancer KickoffBalancer, cfg config.BalancingConfig) error {
	if balancer == nil {
		return errors.New("auto balance job requires a match engine")
	}
	if !cfg.Enabled {
		log.Info().Str("job_name", AutoBalanceJobName).Msg("Automatic balancing disabled")
		return nil
	}

	jobLogger := log.With().
		Str("component", "match_auto_balance_job").
		Str("job_name", AutoBalanceJobName).
		Str("cron", cfg.AutoBalanceCron).
		Logger()

	_, err := svc.AddJob(AutoBalanceJobName, cfg.AutoBalanceCron, autoBalanceTask(balancer, time.Now, jobLogger))
	return err
}

func autoBalanceTask(balancer KickoffBalancer, now func() time.Time, jobLogger zerolog.Logger) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), autoBalanceTimeout)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		balanced, err := balancer.BalanceMatchesApproachingKickoff(ctx, now().UTC())
		if err != nil {
			jobLogger.Error().Err(err).Msg("Automatic balancing run failed")
			return
		}
		if balanced > 0 {
			jobLogger.Info().Int("match_count", balanced).Msg("Automatic balancing assigned teams")
		}
	}
}
