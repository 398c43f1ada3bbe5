package db

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm/logger"
)

// slogWriter forwards gorm's printf-style output to slog. gorm only calls it
// for slow queries and errors at the Warn level, and for every statement at
// Info.
type slogWriter struct {
	log   *slog.Logger
	level slog.Level
}

func (w slogWriter) Printf(format string, args ...any) {
	msg := strings.TrimSpace(fmt.Sprintf(format, args...))
	w.log.Log(context.Background(), w.level, msg, "component", "gorm")
}

func newGormLogger(l *slog.Logger, level logger.LogLevel) logger.Interface {
	lvl := slog.LevelWarn
	if level == logger.Info {
		lvl = slog.LevelDebug
	}
	return logger.New(slogWriter{log: l, level: lvl}, logger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
