// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/dalemusser/stratauth/internal/app/store/logincodes"
	"go.uber.org/zap"
)

// LoginCodeCleanupJob creates a job that removes expired pending login codes.
// Mongo's TTL index on the collection does the same work eventually; this job
// keeps the collection tidy even when the TTL monitor lags.
func LoginCodeCleanupJob(codes *logincodes.Store, logger *zap.Logger) Job {
	return Job{
		Name:     "login-code-cleanup",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			deleted, err := codes.DeleteExpiredBefore(ctx, time.Now())
			if err != nil {
				return err
			}
			if deleted > 0 {
				logger.Info("cleaned up expired login codes",
					zap.Int64("deleted", deleted))
			}
			return nil
		},
	}
}
