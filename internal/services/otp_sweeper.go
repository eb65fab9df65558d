package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"grubgo/internal/repositories"
)

// sweepRetention keeps expired challenges around long enough for a late validation
// to still find them and answer with a fresh code.
const sweepRetention = time.Hour

// OTPSweeper periodically purges challenges that expired more than sweepRetention ago.
type OTPSweeper struct {
	repo repositories.OTPRepository
	cron *cron.Cron
	now  func() time.Time
}

// NewOTPSweeper parses spec ("@every 5m", "*/10 * * * *", ...) and registers the purge job.
func NewOTPSweeper(repo repositories.OTPRepository, spec string) (*OTPSweeper, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	s := &OTPSweeper{
		repo: repo,
		cron: cron.New(cron.WithParser(parser)),
		now:  time.Now,
	}
	if _, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := s.Sweep(ctx); err != nil {
			log.Printf("[otp][sweep][err] %v", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid cron schedule '%s': %w", spec, err)
	}
	return s, nil
}

func (s *OTPSweeper) Start() { s.cron.Start() }

// Stop waits for a running sweep to finish or ctx to be done.
func (s *OTPSweeper) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *OTPSweeper) Sweep(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.now().Add(-sweepRetention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Printf("[otp][sweep] removed=%d", n)
	}
	return n, nil
}
