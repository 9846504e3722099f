package store

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"
)

// RetentionJanitor deletes history rows older than the retention window. It
// replaces a TTL index: presence and device records are never touched.
type RetentionJanitor struct {
	db       *gorm.DB
	maxAge   time.Duration
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// NewRetentionJanitor builds a janitor sweeping at the given interval.
func NewRetentionJanitor(db *gorm.DB, maxAge, interval time.Duration) *RetentionJanitor {
	return &RetentionJanitor{
		db:       db,
		maxAge:   maxAge,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop. Call Stop to terminate it.
func (j *RetentionJanitor) Start() {
	go func() {
		defer close(j.done)
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()
		for {
			select {
			case <-j.stop:
				return
			case <-ticker.C:
				n, err := PurgeExpiredHistory(context.Background(), j.db, j.maxAge)
				if err != nil {
					log.Printf("retention sweep failed: %v", err)
				} else if n > 0 {
					log.Printf("retention sweep removed %d history rows", n)
				}
			}
		}
	}()
}

// Stop terminates the sweep loop and waits for it to exit.
func (j *RetentionJanitor) Stop() {
	close(j.stop)
	<-j.done
}

// PurgeExpiredHistory deletes history rows captured before now-maxAge and
// returns the number of rows removed.
func PurgeExpiredHistory(ctx context.Context, db *gorm.DB, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	res := db.WithContext(ctx).Where("captured_at < ?", cutoff).Delete(&LocationHistory{})
	return res.RowsAffected, res.Error
}
