package service

import (
	"context"
	"time"

	"bitwise74/web-starter/internal/metrics"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const CleanupSchedule = "@every 1h"

// Cleaner deletes expired records
type Cleaner interface {
	CleanupExpired(ctx context.Context) (sessions, verifications int64, err error)
}

// RunCleanup deletes expired sessions and verification records once
func RunCleanup(ctx context.Context, c Cleaner) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	sessions, verifications, err := c.CleanupExpired(ctx)
	if err != nil {
		zap.L().Error("Failed to clean up expired records", zap.Error(err))
		return
	}

	metrics.RecordCleanup(sessions, verifications)

	if sessions > 0 || verifications > 0 {
		zap.L().Debug("Cleaned up expired records",
			zap.Int64("sessions", sessions),
			zap.Int64("verifications", verifications),
		)
	}
}

// StartCleanup schedules RunCleanup and returns the running scheduler. The
// caller stops it on shutdown
func StartCleanup(schedule string, c Cleaner) (*cron.Cron, error) {
	s := cron.New()

	_, err := s.AddFunc(schedule, func() { RunCleanup(context.Background(), c) })
	if err != nil {
		return nil, err
	}

	s.Start()
	zap.L().Debug("Cleanup scheduled", zap.String("schedule", schedule))

	return s, nil
}
