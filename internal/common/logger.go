package common

import (
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

// NewLogger builds a logger writing to both console and a rotating file
// under location, at the given level. The result is never stored in a
// package global — callers thread it through runtime.Runtime explicitly.
func NewLogger(location, level string) arbor.ILogger {
	logger := arbor.NewLogger()

	logger = logger.WithConsoleWriter(models.WriterConfiguration{
		Type:             models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		TextOutput:       true,
		DisableTimestamp: false,
	})

	if location != "" {
		if err := os.MkdirAll(location, 0o755); err != nil {
			logger.Warn().Str("location", location).Str("error", err.Error()).Msg("failed to create log directory, console-only logging")
		} else {
			logFile := filepath.Join(location, "mmreplicate.log")
			logger = logger.WithFileWriter(models.WriterConfiguration{
				Type:             models.LogWriterTypeFile,
				FileName:         logFile,
				TimeFormat:       "15:04:05",
				MaxSize:          100 * 1024 * 1024,
				MaxBackups:       3,
				TextOutput:       true,
				DisableTimestamp: false,
			})
		}
	}

	return logger.WithLevelFromString(level)
}
