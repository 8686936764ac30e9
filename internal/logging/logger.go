// Package logging builds the two structured log sinks portiq writes to:
// the gateway's own operational log and the access log, each backed by a
// zap.Logger and independently configurable (level, encoding, output).
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ajju10/portiq/internal/config"
)

// AccessTarget names the logger used for access records. Access records
// are keyed by this target name; no other record may use it.
const AccessTarget = "access"

// New builds a *zap.Logger from a LogConfig. When FilePath names anything
// other than "stdout"/"stderr", output rotates through lumberjack; the
// returned io.Closer flushes and closes that file on shutdown and is nil
// for the stdout/stderr cases.
func New(cfg config.LogConfig) (*zap.Logger, io.Closer, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch strings.ToLower(cfg.Format) {
	case "", "compact":
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	case "json":
		encoder = zapcore.NewJSONEncoder(encCfg)
	default:
		return nil, nil, fmt.Errorf("log.format: unknown format %q", cfg.Format)
	}

	var ws zapcore.WriteSyncer
	var closer io.Closer
	switch cfg.FilePath {
	case "", "stdout":
		ws = zapcore.AddSync(os.Stdout)
	case "stderr":
		ws = zapcore.AddSync(os.Stderr)
	default:
		lj := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		}
		ws = zapcore.AddSync(lj)
		closer = lj
	}

	core := zapcore.NewCore(encoder, ws, level)
	logger := zap.New(core, zap.AddCaller())
	return logger, closer, nil
}

func parseLevel(level string) (zapcore.Level, error) {
	switch strings.ToUpper(level) {
	case "", "INFO":
		return zapcore.InfoLevel, nil
	case "DEBUG":
		return zapcore.DebugLevel, nil
	case "WARN":
		return zapcore.WarnLevel, nil
	case "ERROR":
		return zapcore.ErrorLevel, nil
	default:
		return 0, fmt.Errorf("log.level: unknown level %q", level)
	}
}
