package logging

import (
	"os"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

type impl struct {
	name   string
	level  *atomic.Int32
	base   *zap.SugaredLogger
	fields []interface{}
}

// NewLogger constructs a top-level Logger with the given name, writing to
// stderr through zap's development config (which emits DEBUG and above),
// following go.viam.com/rdk/logging.NewLogger. The Logger's own Level
// starts at INFO; it is reported by Level but does not filter zap's output.
func NewLogger(name string) Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	zl, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
	lvl := &atomic.Int32{}
	lvl.Store(int32(INFO))
	return &impl{name: name, level: lvl, base: zl.Sugar().Named(name)}
}

// NewTestLogger constructs a Logger that writes to the test's own output via
// t.Log, following the go.viam.com/test convention every rdk package test
// uses. Output is emitted only when ROTERA_VERBOSE_TESTS is set, since most
// tests assert on return values rather than log text.
func NewTestLogger(tb testing.TB) Logger {
	lvl := &atomic.Int32{}
	lvl.Store(int32(INFO))
	base := zap.NewNop()
	if os.Getenv("ROTERA_VERBOSE_TESTS") != "" {
		base = zaptest.NewLogger(tb)
	}
	return &impl{name: tb.Name(), level: lvl, base: base.Sugar().Named(tb.Name())}
}

func (i *impl) clone() *impl {
	return &impl{name: i.name, level: i.level, base: i.base, fields: append([]interface{}{}, i.fields...)}
}

func (i *impl) Debugf(template string, args ...interface{}) { i.sugar().Debugf(template, args...) }
func (i *impl) Infof(template string, args ...interface{})  { i.sugar().Infof(template, args...) }
func (i *impl) Warnf(template string, args ...interface{})  { i.sugar().Warnf(template, args...) }
func (i *impl) Errorf(template string, args ...interface{}) { i.sugar().Errorf(template, args...) }

func (i *impl) Debugw(msg string, kv ...interface{}) { i.sugar().Debugw(msg, kv...) }
func (i *impl) Infow(msg string, kv ...interface{})  { i.sugar().Infow(msg, kv...) }
func (i *impl) Warnw(msg string, kv ...interface{})  { i.sugar().Warnw(msg, kv...) }
func (i *impl) Errorw(msg string, kv ...interface{}) { i.sugar().Errorw(msg, kv...) }

func (i *impl) sugar() *zap.SugaredLogger {
	if len(i.fields) == 0 {
		return i.base
	}
	return i.base.With(i.fields...)
}

func (i *impl) Sublogger(name string) Logger {
	child := i.clone()
	child.name = i.name + "." + name
	child.base = i.base.Named(name)
	return child
}

func (i *impl) With(keysAndValues ...interface{}) Logger {
	child := i.clone()
	child.fields = append(child.fields, keysAndValues...)
	return child
}

func (i *impl) Level() Level    { return Level(i.level.Load()) }
func (i *impl) SetLevel(l Level) { i.level.Store(int32(l)) }
func (i *impl) Name() string    { return i.name }
