// -----------------------------------------------------------------------
// Crash protection - fatal error handling and crash file generation
// -----------------------------------------------------------------------

package common

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/ternarybob/arbor"
)

// CrashLogDir is the directory crash reports are written to.
var CrashLogDir = "./logs"

// InstallCrashHandler prepares the crash log directory. Call once at
// process startup before installing any deferred recovery.
func InstallCrashHandler(logDir string) {
	if logDir != "" {
		CrashLogDir = logDir
	}

	if err := os.MkdirAll(CrashLogDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "crash: failed to create log directory: %v\n", err)
	}
}

// WriteCrashFile writes a crash report to disk and, when logger is non-nil,
// emits a structured fatal log line through it. Returns the report path.
func WriteCrashFile(logger arbor.ILogger, panicVal interface{}, stackTrace string) string {
	timestamp := time.Now().Format("2006-01-02T15-04-05")
	crashPath := filepath.Join(CrashLogDir, fmt.Sprintf("crash-%s.log", timestamp))

	var report bytes.Buffer
	report.WriteString("=== MMREPLICATE CRASH REPORT ===\n")
	report.WriteString(fmt.Sprintf("Time: %s\n", time.Now().Format(time.RFC3339)))
	report.WriteString(fmt.Sprintf("Version: %s\n\n", GetFullVersion()))
	report.WriteString("=== PANIC VALUE ===\n")
	report.WriteString(fmt.Sprintf("%v\n\n", panicVal))
	report.WriteString("=== STACK TRACE ===\n")
	report.WriteString(stackTrace)
	report.WriteString("\n=== ALL GOROUTINES ===\n")
	report.WriteString(GetAllGoroutineStacks())

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	report.WriteString("\n=== SYSTEM INFO ===\n")
	report.WriteString(fmt.Sprintf("NumGoroutine: %d\n", runtime.NumGoroutine()))
	report.WriteString(fmt.Sprintf("GOOS/GOARCH: %s/%s\n", runtime.GOOS, runtime.GOARCH))
	report.WriteString(fmt.Sprintf("Alloc: %d MB  Sys: %d MB  NumGC: %d\n",
		memStats.Alloc/1024/1024, memStats.Sys/1024/1024, memStats.NumGC))

	if err := os.WriteFile(crashPath, report.Bytes(), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "crash: failed to write crash file: %v\n%s", err, report.String())
		crashPath = ""
	}

	if logger != nil {
		logger.Error().
			Str("panic", fmt.Sprintf("%v", panicVal)).
			Str("crash_file", crashPath).
			Msg("fatal panic, process exiting")
	} else {
		fmt.Fprintf(os.Stderr, "\nFATAL: panic report saved to %s\npanic: %v\n", crashPath, panicVal)
	}

	return crashPath
}

// GetAllGoroutineStacks dumps stack traces for every running goroutine.
func GetAllGoroutineStacks() string {
	buf := make([]byte, 64*1024)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			return string(buf[:n])
		}
		buf = make([]byte, len(buf)*2)
		if len(buf) > 64*1024*1024 {
			return string(buf[:runtime.Stack(buf, true)])
		}
	}
}

// GetStackTrace returns the calling goroutine's stack trace.
func GetStackTrace() string {
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// RecoverWithCrashFile is a deferred panic handler for main(): it writes a
// crash report, logs through logger if provided, and exits with status 1.
// Usage: defer common.RecoverWithCrashFile(logger)
func RecoverWithCrashFile(logger arbor.ILogger) {
	if r := recover(); r != nil {
		WriteCrashFile(logger, r, GetStackTrace())
		os.Exit(1)
	}
}
