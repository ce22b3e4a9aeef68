package jobs

import (
	"context"
	"database/sql"
	"time"

	"github.com/sirupsen/logrus"
)

// CacheRetentionJob prunes stale rows from the date-scoped cache tables.
// Expiry itself is structural (the date is part of the natural key), so this
// sweep only bounds table growth; nothing depends on it for correctness.
type CacheRetentionJob struct {
	DB        *sql.DB
	Retention time.Duration
}

func NewCacheRetentionJob(db *sql.DB, retention time.Duration) *CacheRetentionJob {
	return &CacheRetentionJob{DB: db, Retention: retention}
}

// dateScopedTables lists the tables whose natural key contains the calendar
// date. Birth-date keyed tables (numerology, primbon, sunda, shio) stay
// valid forever and are never pruned.
var dateScopedTables = []string{"zodiak_cache", "tarot_cache"}

func (j *CacheRetentionJob) Run() {
	logrus.Info("Running cache retention sweep")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-j.Retention)

	for _, table := range dateScopedTables {
		result, err := j.DB.ExecContext(ctx, "DELETE FROM "+table+" WHERE created_at < $1", cutoff)
		if err != nil {
			logrus.Errorf("Cache retention sweep failed for %s: %v", table, err)
			continue
		}

		rowsAffected, _ := result.RowsAffected()
		if rowsAffected > 0 {
			logrus.WithFields(logrus.Fields{
				"table":        table,
				"rows_removed": rowsAffected,
			}).Info("Pruned stale cache rows")
		}
	}
}
