package scheduler

import (
	"time"

	"github.com/ikkim/bizmarket-backend/internal/app/model"
	"github.com/ikkim/bizmarket-backend/internal/app/service"
	"github.com/ikkim/bizmarket-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// StaleQuoteFinder finds quotes stuck in a status since before a cutoff.
type StaleQuoteFinder interface {
	FindStale(status model.QuoteStatus, before time.Time) ([]model.QuoteRequest, error)
}

// QuoteReminderScheduler nudges owners about quote requests still NEW after
// staleAfter.
type QuoteReminderScheduler struct {
	cron       *cron.Cron
	schedule   string
	staleAfter time.Duration
	quotes     StaleQuoteFinder
	notifier   service.QuoteNotifier
	now        func() time.Time
}

func NewQuoteReminderScheduler(schedule string, staleAfter time.Duration, quotes StaleQuoteFinder, notifier service.QuoteNotifier) *QuoteReminderScheduler {
	return &QuoteReminderScheduler{
		cron:       cron.New(),
		schedule:   schedule,
		staleAfter: staleAfter,
		quotes:     quotes,
		notifier:   notifier,
		now:        time.Now,
	}
}

// RunOnce sends one reminder per stale quote and returns how many were sent.
func (s *QuoteReminderScheduler) RunOnce() (int, error) {
	cutoff := s.now().Add(-s.staleAfter)
	stale, err := s.quotes.FindStale(model.QuoteStatusNew, cutoff)
	if err != nil {
		return 0, err
	}

	for i := range stale {
		s.notifier.QuoteReminder(&stale[i])
	}
	return len(stale), nil
}

func (s *QuoteReminderScheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		logger.Info("Starting scheduled stale quote reminder run")

		sent, err := s.RunOnce()
		if err != nil {
			logger.Error("Failed to send stale quote reminders", err)
			return
		}

		logger.Info("Stale quote reminders sent", map[string]interface{}{
			"count": sent,
		})
	})
	if err != nil {
		logger.Error("Failed to add cron job for quote reminders", err, map[string]interface{}{
			"schedule": s.schedule,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Quote reminder scheduler started", map[string]interface{}{
		"schedule":    s.schedule,
		"stale_after": s.staleAfter.String(),
	})
	return nil
}

// Stop waits for a running job to finish.
func (s *QuoteReminderScheduler) Stop() {
	logger.Info("Stopping quote reminder scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Quote reminder scheduler stopped")
}
