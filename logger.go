package h2wire

import "go.uber.org/zap"

// Logger is the narrow logging capability a Connection needs: enough to
// report handshake failures, unexpected frames and GOAWAY reasons. Nothing
// on the decode/encode hot path logs, so this interface is never consulted
// there.
type Logger interface {
	Debugf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}

// zapLogger is the Logger NewZapLogger returns, a thin facade over a zap
// sugared logger.
type zapLogger struct {
	sugared *zap.SugaredLogger
}

// NewZapLogger wraps z as a Logger. A nil z falls back to zap's production
// default.
func NewZapLogger(z *zap.Logger) Logger {
	if z == nil {
		z, _ = zap.NewProduction()
	}
	return zapLogger{sugared: z.Sugar()}
}

func (l zapLogger) Debugf(template string, args ...interface{}) { l.sugared.Debugf(template, args...) }
func (l zapLogger) Infof(template string, args ...interface{})  { l.sugared.Infof(template, args...) }
func (l zapLogger) Warnf(template string, args ...interface{})  { l.sugared.Warnf(template, args...) }
func (l zapLogger) Errorf(template string, args ...interface{}) { l.sugared.Errorf(template, args...) }

// noopLogger discards everything; a Connection uses it whenever its Config
// carries no Logger.
type noopLogger struct{}

func (noopLogger) Debugf(string, ...interface{}) {}
func (noopLogger) Infof(string, ...interface{})  {}
func (noopLogger) Warnf(string, ...interface{})  {}
func (noopLogger) Errorf(string, ...interface{}) {}
