package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"fund-analytics-api/internal/config"
	"fund-analytics-api/internal/repositories"
	"fund-analytics-api/internal/services"
)

// recalcBatchSize bounds how many funds one precompute run touches
const recalcBatchSize = 200

// Scheduler runs the recurring maintenance jobs: nightly NAV refresh,
// score precompute, and snapshot cleanup
type Scheduler struct {
	cron             *cron.Cron
	cfg              config.SchedulerConfig
	fundService      *services.FundService
	analyticsService *services.AnalyticsService
	fundRepo         repositories.FundRepository
	snapshotRepo     repositories.SnapshotRepository
	logger           *logrus.Logger
}

// NewScheduler creates a scheduler with the configured timezone
func NewScheduler(
	cfg config.SchedulerConfig,
	fundService *services.FundService,
	analyticsService *services.AnalyticsService,
	fundRepo repositories.FundRepository,
	snapshotRepo repositories.SnapshotRepository,
	logger *logrus.Logger,
) (*Scheduler, error) {
	location, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		location = time.UTC
		logger.WithError(err).Warnf("Unknown timezone %q, falling back to UTC", cfg.TimeZone)
	}

	return &Scheduler{
		cron:             cron.New(cron.WithLocation(location)),
		cfg:              cfg,
		fundService:      fundService,
		analyticsService: analyticsService,
		fundRepo:         fundRepo,
		snapshotRepo:     snapshotRepo,
		logger:           logger,
	}, nil
}

// Start registers the jobs and starts the cron loop
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.NAVRefreshInterval, s.refreshAllNAVs); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.ScoreInterval, s.precomputeScores); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.CleanupInterval, s.cleanupSnapshots); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.WithFields(logrus.Fields{
		"nav_refresh": s.cfg.NAVRefreshInterval,
		"scores":      s.cfg.ScoreInterval,
		"cleanup":     s.cfg.CleanupInterval,
	}).Info("Scheduler started")

	return nil
}

// Stop halts the cron loop and waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) jobContext() (context.Context, context.CancelFunc) {
	timeout := s.cfg.JobTimeout
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return context.WithTimeout(context.Background(), timeout)
}

// refreshAllNAVs walks every fund and pulls its latest NAV series
func (s *Scheduler) refreshAllNAVs() {
	ctx, cancel := s.jobContext()
	defer cancel()

	started := time.Now()
	var refreshed, failed int

	offset := 0
	const pageSize = 100
	for {
		funds, err := s.fundRepo.List(ctx, "", pageSize, offset)
		if err != nil {
			s.logger.WithError(err).Error("NAV refresh job failed to list funds")
			return
		}
		if len(funds) == 0 {
			break
		}

		for _, fund := range funds {
			if ctx.Err() != nil {
				s.logger.Warn("NAV refresh job timed out")
				return
			}
			if _, err := s.fundService.RefreshNAV(ctx, fund.SchemeCode); err != nil {
				failed++
				s.logger.WithError(err).WithField("scheme_code", fund.SchemeCode).
					Warn("NAV refresh failed for fund")
				continue
			}
			refreshed++
		}

		offset += pageSize
	}

	s.logger.WithFields(logrus.Fields{
		"refreshed": refreshed,
		"failed":    failed,
		"duration":  time.Since(started).Round(time.Second).String(),
	}).Info("NAV refresh job completed")
}

// precomputeScores recalculates metrics for funds flagged stale
func (s *Scheduler) precomputeScores() {
	ctx, cancel := s.jobContext()
	defer cancel()

	computed, failed, err := s.analyticsService.RecalculatePending(ctx, recalcBatchSize)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"computed": computed,
			"failed":   failed,
		}).Error("Score precompute job aborted")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"computed": computed,
		"failed":   failed,
	}).Info("Score precompute job completed")
}

// cleanupSnapshots prunes score snapshots beyond the retention window
func (s *Scheduler) cleanupSnapshots() {
	ctx, cancel := s.jobContext()
	defer cancel()

	retention := time.Duration(s.cfg.SnapshotRetention) * 24 * time.Hour
	deleted, err := s.snapshotRepo.DeleteOlderThan(ctx, retention)
	if err != nil {
		s.logger.WithError(err).Error("Snapshot cleanup job failed")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"deleted":        deleted,
		"retention_days": s.cfg.SnapshotRetention,
	}).Info("Snapshot cleanup job completed")
}
