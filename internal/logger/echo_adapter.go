package logger

import (
	"fmt"
	"io"

	echo_log "github.com/labstack/gommon/log"
)

// EchoLoggerAdapter routes echo's internal logging through a module Logger.
// Output, prefix and level are owned by the central logger, so the setters are no-ops.
//
//	e := echo.New()
//	e.Logger = logger.NewEchoLoggerAdapter(log.Module("echo"))
type EchoLoggerAdapter struct {
	logger Logger
}

// NewEchoLoggerAdapter wraps l; a nil l falls back to a stdout JSON logger.
func NewEchoLoggerAdapter(l Logger) *EchoLoggerAdapter {
	if l == nil {
		l = NewSlogLogger(nil, LogLevelInfo, nil)
	}
	return &EchoLoggerAdapter{logger: l}
}

func (a *EchoLoggerAdapter) Output() io.Writer { return io.Discard }
func (a *EchoLoggerAdapter) SetOutput(io.Writer) {}
func (a *EchoLoggerAdapter) Prefix() string { return "" }
func (a *EchoLoggerAdapter) SetPrefix(string) {}
func (a *EchoLoggerAdapter) Level() echo_log.Lvl { return echo_log.INFO }
func (a *EchoLoggerAdapter) SetLevel(echo_log.Lvl) {}
func (a *EchoLoggerAdapter) SetHeader(string) {}
func (a *EchoLoggerAdapter) Print(i ...any) { a.logger.Info(fmt.Sprint(i...)) }
func (a *EchoLoggerAdapter) Printf(f string, v ...any) { a.logger.Info(fmt.Sprintf(f, v...)) }
func (a *EchoLoggerAdapter) Printj(j echo_log.JSON) { a.logj(LogLevelInfo, j) }
func (a *EchoLoggerAdapter) Debug(i ...any) { a.logger.Debug(fmt.Sprint(i...)) }
func (a *EchoLoggerAdapter) Debugf(f string, v ...any) { a.logger.Debug(fmt.Sprintf(f, v...)) }
func (a *EchoLoggerAdapter) Debugj(j echo_log.JSON) { a.logj(LogLevelDebug, j) }
func (a *EchoLoggerAdapter) Info(i ...any) { a.logger.Info(fmt.Sprint(i...)) }
func (a *EchoLoggerAdapter) Infof(f string, v ...any) { a.logger.Info(fmt.Sprintf(f, v...)) }
func (a *EchoLoggerAdapter) Infoj(j echo_log.JSON) { a.logj(LogLevelInfo, j) }
func (a *EchoLoggerAdapter) Warn(i ...any) { a.logger.Warn(fmt.Sprint(i...)) }
func (a *EchoLoggerAdapter) Warnf(f string, v ...any) { a.logger.Warn(fmt.Sprintf(f, v...)) }
func (a *EchoLoggerAdapter) Warnj(j echo_log.JSON) { a.logj(LogLevelWarn, j) }
func (a *EchoLoggerAdapter) Error(i ...any) { a.logger.Error(fmt.Sprint(i...)) }
func (a *EchoLoggerAdapter) Errorf(f string, v ...any) { a.logger.Error(fmt.Sprintf(f, v...)) }
func (a *EchoLoggerAdapter) Errorj(j echo_log.JSON) { a.logj(LogLevelError, j) }

// Fatal logs at ERROR and panics; the server's recover middleware turns it into a 500.
func (a *EchoLoggerAdapter) Fatal(i ...any) { a.panicMsg(fmt.Sprint(i...)) }
func (a *EchoLoggerAdapter) Fatalf(f string, v ...any) { a.panicMsg(fmt.Sprintf(f, v...)) }
func (a *EchoLoggerAdapter) Fatalj(j echo_log.JSON) { a.panicMsg(fmt.Sprint(j)) }
func (a *EchoLoggerAdapter) Panic(i ...any) { a.panicMsg(fmt.Sprint(i...)) }
func (a *EchoLoggerAdapter) Panicf(f string, v ...any) { a.panicMsg(fmt.Sprintf(f, v...)) }
func (a *EchoLoggerAdapter) Panicj(j echo_log.JSON) { a.panicMsg(fmt.Sprint(j)) }

func (a *EchoLoggerAdapter) logj(level LogLevel, j echo_log.JSON) {
	a.logger.Log(level, "echo", Any("data", map[string]any(j)))
}

func (a *EchoLoggerAdapter) panicMsg(msg string) {
	a.logger.Error(msg)
	panic(msg)
}
