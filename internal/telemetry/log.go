// Package telemetry is the gateway's ambient logging and metrics layer:
// every other package logs through L(), never log.Printf directly.
package telemetry

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu    sync.RWMutex
	sugar *zap.SugaredLogger
)

func init() {
	// a usable default before Init runs, so package-level init() functions
	// and early tests never hit a nil logger.
	sugar = zap.NewNop().Sugar()
}

// Conf is the logging configuration surface from SPEC_FULL.md §A.
type Conf struct {
	Output     string // "stdout" or "file"
	Path       string
	Filename   string
	Level      string
	RotateSize int // MB
	RotateNum  int
	MaxAgeDays int
}

// DefaultConf returns sane defaults for a process started with no
// logging configuration at all.
func DefaultConf() Conf {
	return Conf{
		Output:     "stdout",
		Path:       "./logs",
		Filename:   "gateway.log",
		Level:      "INFO",
		RotateSize: 100,
		RotateNum:  10,
		MaxAgeDays: 7,
	}
}

// Init builds the global logger from conf. Safe to call more than once;
// the last call wins.
func Init(conf Conf) error {
	var writer zapcore.WriteSyncer
	switch conf.Output {
	case "file":
		if err := os.MkdirAll(conf.Path, 0o755); err != nil {
			return fmt.Errorf("telemetry: create log dir: %w", err)
		}
		writer = zapcore.AddSync(&lumberjack.Logger{
			Filename:   conf.Path + "/" + conf.Filename,
			MaxSize:    conf.RotateSize,
			MaxBackups: conf.RotateNum,
			MaxAge:     conf.MaxAgeDays,
			Compress:   true,
		})
	default:
		writer = zapcore.AddSync(os.Stdout)
	}

	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(enc)

	core := zapcore.NewCore(encoder, writer, parseLevel(conf.Level))
	logger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))

	mu.Lock()
	sugar = logger.Sugar()
	mu.Unlock()
	return nil
}

// L returns the process-wide structured logger.
func L() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "WARN", "WARNING":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
