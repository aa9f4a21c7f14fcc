package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	mu           sync.RWMutex
	currentLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	sugar        = newSugar("text", zapcore.AddSync(os.Stdout))
	// logFile is the file opened by Configure, if the sink is a path.
	logFile *os.File
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseLevel maps a case-insensitive level name to a Level.
func ParseLevel(level string) (Level, bool) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	}
	return LevelInfo, false
}

// SetLevel changes the minimum level. Unknown names are ignored.
func SetLevel(level string) {
	if l, ok := ParseLevel(level); ok {
		currentLevel.SetLevel(l.zapLevel())
	}
}

// Configure sets level, encoding ("text" or "json") and sink.
//
// Output accepts "stdout", "stderr" or a file path, which is opened in
// append mode.
func Configure(level, format, output string) error {
	var (
		ws   zapcore.WriteSyncer
		file *os.File
	)
	switch output {
	case "", "stdout":
		ws = zapcore.AddSync(os.Stdout)
	case "stderr":
		ws = zapcore.AddSync(os.Stderr)
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log output %q: %w", output, err)
		}
		ws = zapcore.AddSync(f)
		file = f
	}

	SetLevel(level)
	swap(newSugar(format, ws), file)
	return nil
}

// SetOutput redirects text-formatted logs to w.
func SetOutput(w io.Writer) {
	swap(newSugar("text", zapcore.AddSync(w)), nil)
}

// swap installs s and closes the file owned by the previous sink.
func swap(s *zap.SugaredLogger, file *os.File) {
	mu.Lock()
	prev, prevFile := sugar, logFile
	sugar, logFile = s, file
	mu.Unlock()

	_ = prev.Sync()
	if prevFile != nil && prevFile != file {
		_ = prevFile.Close()
	}
}

// Sync flushes buffered log entries.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = sugar.Sync()
}

func newSugar(format string, ws zapcore.WriteSyncer) *zap.SugaredLogger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	var enc zapcore.Encoder
	if format == "json" {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	return zap.New(zapcore.NewCore(enc, ws, currentLevel)).Sugar()
}

func log(level Level, format string, v ...any) {
	mu.RLock()
	s := sugar
	mu.RUnlock()

	switch level {
	case LevelDebug:
		s.Debugf(format, v...)
	case LevelInfo:
		s.Infof(format, v...)
	case LevelWarn:
		s.Warnf(format, v...)
	case LevelError:
		s.Errorf(format, v...)
	}
}

func Debug(format string, v ...any) {
	log(LevelDebug, format, v...)
}

func Info(format string, v ...any) {
	log(LevelInfo, format, v...)
}

func Warn(format string, v ...any) {
	log(LevelWarn, format, v...)
}

func Error(format string, v ...any) {
	log(LevelError, format, v...)
}
