// Package logging builds the process logger and routes the ipfs/go-log
// subsystems used by go-jsonrpc to the same output.
package logging

import (
	"errors"
	"fmt"
	"io"
	"time"

	golog "github.com/ipfs/go-log/v2"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/evstack/celestia-rpc-client/pkg/config"
)

// rpcSubsystem is the go-log logger name of go-jsonrpc.
const rpcSubsystem = "rpc"

// New returns a zerolog logger writing to out with the configured level and
// format. The go-log core is replaced so go-jsonrpc logs land on out too.
func New(cfg config.LogConfig, out io.Writer) (zerolog.Logger, error) {
	level := ParseLevel(cfg.Level)

	var w io.Writer = out
	if cfg.Format != "json" {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: !isTerminal(out)}
	}
	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()

	if err := routeGoLog(cfg.Format, level, out); err != nil {
		return logger, err
	}
	return logger, nil
}

// ParseLevel maps a configured level to zerolog. Unknown values fall back
// to info.
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel // Default to info
	}
}

// isTerminal reports whether out is a terminal; escape codes are only
// written to one.
func isTerminal(out io.Writer) bool {
	f, ok := out.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func routeGoLog(format string, level zerolog.Level, out io.Writer) error {
	zapLevel := zapLevelOf(level)

	var encoder zapcore.Encoder
	if format == "json" {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}
	golog.SetPrimaryCore(zapcore.NewCore(encoder, zapcore.AddSync(out), zap.NewAtomicLevelAt(zapLevel)))

	if err := golog.SetLogLevel(rpcSubsystem, zapLevel.String()); err != nil && !errors.Is(err, golog.ErrNoSuchLogger) {
		return fmt.Errorf("failed to set %s log level: %w", rpcSubsystem, err)
	}
	return nil
}

func zapLevelOf(level zerolog.Level) zapcore.Level {
	switch level {
	case zerolog.DebugLevel:
		return zapcore.DebugLevel
	case zerolog.WarnLevel:
		return zapcore.WarnLevel
	case zerolog.ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
