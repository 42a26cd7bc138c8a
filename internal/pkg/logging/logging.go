package logging

import (
	"io"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/natefinch/lumberjack"

	"github.com/ManuelReschke/tutorsite/internal/pkg/env"
)

var output io.Writer = os.Stdout

// Setup points the fiber logger at stdout and, when LOG_FILE is set, at a
// rotating file as well. The returned writer is shared with the request logger.
func Setup() io.Writer {
	output = NewWriter(env.GetEnv("LOG_FILE", ""), os.Stdout)
	log.SetOutput(output)
	log.SetLevel(ParseLevel(env.GetEnv("LOG_LEVEL", "info")))
	return output
}

// NewWriter tees console to a lumberjack file sink when file is not empty.
func NewWriter(file string, console io.Writer) io.Writer {
	if strings.TrimSpace(file) == "" {
		return console
	}
	sink := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    env.GetEnvInt("LOG_MAX_SIZE_MB", 50),
		MaxBackups: env.GetEnvInt("LOG_MAX_BACKUPS", 7),
		MaxAge:     env.GetEnvInt("LOG_MAX_AGE_DAYS", 14),
		Compress:   true,
	}
	return io.MultiWriter(console, sink)
}

// Output returns the writer configured by Setup.
func Output() io.Writer {
	return output
}

func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return log.LevelTrace
	case "debug":
		return log.LevelDebug
	case "warn", "warning":
		return log.LevelWarn
	case "error":
		return log.LevelError
	default:
		return log.LevelInfo
	}
}
