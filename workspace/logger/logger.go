package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileConfig describes the rotating file sink.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// New creates a new zerolog logger with the specified configuration.
// Supports console/json format, level filtering, and optional sampling.
func New(logLevel int, logFormat string, logSampler bool) zerolog.Logger {
	return build(consoleOrJSON(os.Stdout, logFormat), logLevel, logSampler)
}

// NewWithFile behaves like New and additionally writes JSON lines to a
// rotating log file. The returned closer flushes and closes the file.
func NewWithFile(logLevel int, logFormat string, logSampler bool, file FileConfig) (zerolog.Logger, io.Closer) {
	sink := &lumberjack.Logger{
		Filename:   file.Path,
		MaxSize:    file.MaxSizeMB, // megabytes
		MaxBackups: file.MaxBackups,
		MaxAge:     file.MaxAgeDays, // days
		Compress:   file.Compress,
	}
	writer := zerolog.MultiLevelWriter(consoleOrJSON(os.Stdout, logFormat), sink)
	return build(writer, logLevel, logSampler), sink
}

func consoleOrJSON(out io.Writer, logFormat string) io.Writer {
	if logFormat == "json" {
		return out
	}
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}
}

func build(writer io.Writer, logLevel int, logSampler bool) zerolog.Logger {
	logger := zerolog.New(writer).
		Level(zerolog.Level(logLevel)).
		With().
		Timestamp().
		Logger()

	if logSampler {
		logger = logger.Sample(&zerolog.BasicSampler{N: 5})
	}
	return logger
}
