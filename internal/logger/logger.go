// Package logger is the process-wide structured logger. Records always go to a
// rotating logfmt file under <config dir>/logs; serve and --debug also print
// them to stderr in a readable form.
package logger

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/RubeHicksCube/Djournal/internal/constants"
)

type Config struct {
	Debug     bool
	ConfigDir string
	// Stderr prints records at info level and above to stderr.
	Stderr bool
}

var (
	mu      sync.RWMutex
	file    *log.Logger
	console *log.Logger
	rotator *lumberjack.Logger
)

// Init replaces any previous logger. Log calls made before Init are dropped.
func Init(cfg Config) error {
	logDir := filepath.Join(cfg.ConfigDir, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}

	level := log.WarnLevel
	switch {
	case cfg.Debug:
		level = log.DebugLevel
	case cfg.Stderr:
		level = log.InfoLevel
	}

	rot := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, constants.AppName+".log"),
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
	f := log.NewWithOptions(rot, log.Options{
		ReportTimestamp: true,
		Level:           level,
		Formatter:       log.LogfmtFormatter,
	})

	var c *log.Logger
	if cfg.Debug || cfg.Stderr {
		c = log.NewWithOptions(os.Stderr, log.Options{
			ReportCaller:    cfg.Debug,
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
			Level:           level,
			Prefix:          constants.AppName,
		})
	}

	mu.Lock()
	old := rotator
	file, console, rotator = f, c, rot
	mu.Unlock()

	if old != nil {
		return old.Close()
	}
	return nil
}

// Close flushes and closes the log file.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	file, console = nil, nil
	if rotator == nil {
		return nil
	}
	err := rotator.Close()
	rotator = nil
	return err
}

func emit(level log.Level, msg string, keyvals []any) {
	mu.RLock()
	defer mu.RUnlock()
	if file != nil {
		file.Helper()
		file.Log(level, msg, keyvals...)
	}
	if console != nil {
		console.Helper()
		console.Log(level, msg, keyvals...)
	}
}

func Debug(msg string, keyvals ...any) { emit(log.DebugLevel, msg, keyvals) }
func Info(msg string, keyvals ...any)  { emit(log.InfoLevel, msg, keyvals) }
func Warn(msg string, keyvals ...any)  { emit(log.WarnLevel, msg, keyvals) }
func Error(msg string, keyvals ...any) { emit(log.ErrorLevel, msg, keyvals) }
