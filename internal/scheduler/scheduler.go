package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"CryptoRadar/internal/metrics"
	"CryptoRadar/internal/model"
	"CryptoRadar/internal/notifier"
)

// DefaultAlertCooldown suppresses repeat alerts for the same symbol.
const DefaultAlertCooldown = 6 * time.Hour

// ExplosionScanner runs fresh explosion scans and drops expired scan results.
type ExplosionScanner interface {
	RefreshExplosions(ctx context.Context) ([]model.ExplosionScore, error)
	Purge() int
}

// SeriesPurger drops expired price series.
type SeriesPurger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

type retrySender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron          *cron.Cron
	Scanner       ExplosionScanner
	Series        SeriesPurger
	Notifier      notifier.Notifier
	AlertCooldown time.Duration
	Ctx           context.Context

	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu      sync.Mutex
	alerted map[string]time.Time // symbol -> last alert
}

// NewScheduler creates a new Scheduler. Overlapping runs of the same job are skipped.
func NewScheduler(ctx context.Context, sc ExplosionScanner, series SeriesPurger, n notifier.Notifier,
	logger *zap.Logger, m *metrics.Metrics) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if n == nil {
		n = notifier.NoopNotifier{}
	}
	cl := cronLogger{logger.Sugar()}
	return &Scheduler{
		Cron:          cron.New(cron.WithSeconds(), cron.WithLogger(cl), cron.WithChain(cron.SkipIfStillRunning(cl))),
		Scanner:       sc,
		Series:        series,
		Notifier:      n,
		AlertCooldown: DefaultAlertCooldown,
		Ctx:           ctx,
		logger:        logger,
		metrics:       m,
		now:           time.Now,
		alerted:       make(map[string]time.Time),
	}
}

// RegisterAll registers the explosion scan and cache purge tasks.
func (s *Scheduler) RegisterAll(scanCron, purgeCron string) error {
	if _, err := s.Cron.AddFunc(scanCron, s.scanTask); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	if _, err := s.Cron.AddFunc(purgeCron, s.purgeTask); err != nil {
		return fmt.Errorf("register purge task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.Cron.Entries())))
}

// Stop stops the scheduler and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.Cron.Stop().Done():
		s.logger.Info("scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out with jobs still running")
	}
}

// RunScanNow executes the scan task immediately (RUN_ON_START).
func (s *Scheduler) RunScanNow() {
	s.scanTask()
}

func (s *Scheduler) scanTask() {
	s.logger.Info("running scheduled explosion scan")
	scores, err := s.Scanner.RefreshExplosions(s.Ctx)
	if err != nil {
		s.logger.Error("scheduled scan failed", zap.Error(err))
		return
	}

	fresh := s.unalerted(scores)
	if len(fresh) == 0 {
		return
	}
	if err := s.send(notifier.FormatExplosionAlert(fresh)); err != nil {
		s.logger.Error("send explosion alert", zap.Int("symbols", len(fresh)), zap.Error(err))
		return
	}
	s.markAlerted(fresh)
	s.logger.Info("explosion alert sent", zap.Int("symbols", len(fresh)))
}

// unalerted keeps IMMEDIATE_BUY scores whose symbol has not been alerted within the cooldown.
func (s *Scheduler) unalerted(scores []model.ExplosionScore) []model.ExplosionScore {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.ExplosionScore
	for _, sc := range scores {
		if sc.Recommendation != model.RecommendImmediateBuy {
			continue
		}
		if last, ok := s.alerted[sc.Symbol]; ok && now.Sub(last) < s.AlertCooldown {
			continue
		}
		out = append(out, sc)
	}
	return out
}

func (s *Scheduler) markAlerted(scores []model.ExplosionScore) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sc := range scores {
		s.alerted[sc.Symbol] = now
		s.metrics.AlertSent()
	}
}

func (s *Scheduler) purgeTask() {
	series, err := s.Series.PurgeExpired(s.Ctx)
	if err != nil {
		s.logger.Error("purge series cache", zap.Error(err))
	}
	scans := s.Scanner.Purge()

	now := s.now()
	s.mu.Lock()
	alerts := 0
	for sym, last := range s.alerted {
		if now.Sub(last) >= s.AlertCooldown {
			delete(s.alerted, sym)
			alerts++
		}
	}
	s.mu.Unlock()

	s.logger.Info("cache purge complete",
		zap.Int("series", series), zap.Int("scans", scans), zap.Int("alerts", alerts))
}

func (s *Scheduler) send(text string) error {
	if rs, ok := s.Notifier.(retrySender); ok {
		return rs.SendWithRetry(s.Ctx, text, 3)
	}
	return s.Notifier.Send(s.Ctx, text)
}

// cronLogger routes cron's own logging through zap.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
