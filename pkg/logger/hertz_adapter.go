package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/cloudwego/hertz/pkg/common/hlog"
)

// hlogBridge routes Hertz's internal logging through slog, so transport
// noise from the HTTP client obeys the configured level, format and output.
type hlogBridge struct {
	log *slog.Logger
}

// UseForHertz installs log as the destination for all hlog output.
func UseForHertz(log *slog.Logger) {
	hlog.SetLogger(&hlogBridge{log: log})
}

func (b *hlogBridge) emit(ctx context.Context, level slog.Level, msg string) {
	b.log.Log(ctx, level, msg)
}

func (b *hlogBridge) Trace(v ...interface{})  { b.emit(context.Background(), slog.LevelDebug, fmt.Sprint(v...)) }
func (b *hlogBridge) Debug(v ...interface{})  { b.emit(context.Background(), slog.LevelDebug, fmt.Sprint(v...)) }
func (b *hlogBridge) Info(v ...interface{})   { b.emit(context.Background(), slog.LevelInfo, fmt.Sprint(v...)) }
func (b *hlogBridge) Notice(v ...interface{}) { b.emit(context.Background(), slog.LevelInfo, fmt.Sprint(v...)) }
func (b *hlogBridge) Warn(v ...interface{})   { b.emit(context.Background(), slog.LevelWarn, fmt.Sprint(v...)) }
func (b *hlogBridge) Error(v ...interface{})  { b.emit(context.Background(), slog.LevelError, fmt.Sprint(v...)) }
func (b *hlogBridge) Fatal(v ...interface{})  { b.emit(context.Background(), slog.LevelError, fmt.Sprint(v...)) }

func (b *hlogBridge) Tracef(format string, v ...interface{}) {
	b.emit(context.Background(), slog.LevelDebug, fmt.Sprintf(format, v...))
}

func (b *hlogBridge) Debugf(format string, v ...interface{}) {
	b.emit(context.Background(), slog.LevelDebug, fmt.Sprintf(format, v...))
}

func (b *hlogBridge) Infof(format string, v ...interface{}) {
	b.emit(context.Background(), slog.LevelInfo, fmt.Sprintf(format, v...))
}

func (b *hlogBridge) Noticef(format string, v ...interface{}) {
	b.emit(context.Background(), slog.LevelInfo, fmt.Sprintf(format, v...))
}

func (b *hlogBridge) Warnf(format string, v ...interface{}) {
	b.emit(context.Background(), slog.LevelWarn, fmt.Sprintf(format, v...))
}

func (b *hlogBridge) Errorf(format string, v ...interface{}) {
	b.emit(context.Background(), slog.LevelError, fmt.Sprintf(format, v...))
}

func (b *hlogBridge) Fatalf(format string, v ...interface{}) {
	b.emit(context.Background(), slog.LevelError, fmt.Sprintf(format, v...))
}

func (b *hlogBridge) CtxTracef(ctx context.Context, format string, v ...interface{}) {
	b.emit(ctx, slog.LevelDebug, fmt.Sprintf(format, v...))
}

func (b *hlogBridge) CtxDebugf(ctx context.Context, format string, v ...interface{}) {
	b.emit(ctx, slog.LevelDebug, fmt.Sprintf(format, v...))
}

func (b *hlogBridge) CtxInfof(ctx context.Context, format string, v ...interface{}) {
	b.emit(ctx, slog.LevelInfo, fmt.Sprintf(format, v...))
}

func (b *hlogBridge) CtxNoticef(ctx context.Context, format string, v ...interface{}) {
	b.emit(ctx, slog.LevelInfo, fmt.Sprintf(format, v...))
}

func (b *hlogBridge) CtxWarnf(ctx context.Context, format string, v ...interface{}) {
	b.emit(ctx, slog.LevelWarn, fmt.Sprintf(format, v...))
}

func (b *hlogBridge) CtxErrorf(ctx context.Context, format string, v ...interface{}) {
	b.emit(ctx, slog.LevelError, fmt.Sprintf(format, v...))
}

func (b *hlogBridge) CtxFatalf(ctx context.Context, format string, v ...interface{}) {
	b.emit(ctx, slog.LevelError, fmt.Sprintf(format, v...))
}

// SetLevel is a no-op; the slog handler already filters by level.
func (b *hlogBridge) SetLevel(level hlog.Level) {}

// SetOutput is a no-op; output is fixed at Setup time.
func (b *hlogBridge) SetOutput(w io.Writer) {}
