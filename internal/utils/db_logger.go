package utils

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm/logger"
)

// QuietGormLogger wraps a gorm logger and drops trace lines for queries
// matching any of the configured patterns. The reminder worker scans the
// event table every few minutes; without this the SQL log is mostly noise.
type QuietGormLogger struct {
	logger.Interface
	quietPatterns []string
}

// NewQuietGormLogger wraps l, silencing successful queries that contain any
// of the patterns. Failing queries are always logged.
func NewQuietGormLogger(l logger.Interface, patterns ...string) *QuietGormLogger {
	return &QuietGormLogger{
		Interface:     l,
		quietPatterns: patterns,
	}
}

// LogMode implements logger.Interface
func (l *QuietGormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &QuietGormLogger{
		Interface:     l.Interface.LogMode(level),
		quietPatterns: l.quietPatterns,
	}
}

// Trace implements logger.Interface
func (l *QuietGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if err == nil {
		sql, _ := fc()
		for _, pattern := range l.quietPatterns {
			if strings.Contains(sql, pattern) {
				return
			}
		}
	}
	l.Interface.Trace(ctx, begin, fc, err)
}
