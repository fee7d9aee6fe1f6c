package sentryutil

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/spanbridge/go-spanbridge/env"
	"github.com/spanbridge/go-spanbridge/service/logger"
)

// InitSentry configures the global sentry hub. A missing DSN disables reporting, which is
// the expected state for local development.
func InitSentry() {
	dsn := env.GetString("SENTRY_DSN")
	if dsn == "" {
		logger.For(nil).Info("sentry DSN not set, error reporting disabled")
		return
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      env.GetString("ENV"),
		TracesSampleRate: env.GetFloat64("SENTRY_TRACES_SAMPLE_RATE"),
		AttachStacktrace: true,
	})
	if err != nil {
		logger.For(nil).Errorf("failed to initialize sentry: %s", err)
	}
}

// ReportError captures err on the hub associated with ctx, or the current hub when the
// context carries none.
func ReportError(ctx context.Context, err error) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.CaptureException(err)
}

// ReportPanic captures a recovered panic value on the hub associated with ctx
func ReportPanic(ctx context.Context, rec interface{}) {
	hub := sentry.CurrentHub()
	if ctx != nil {
		if ctxHub := sentry.GetHubFromContext(ctx); ctxHub != nil {
			hub = ctxHub
		}
	}
	hub.Recover(rec)
	hub.Flush(2 * time.Second)
	logger.For(ctx).Errorf("recovered from panic: %v", rec)
}

// RecoverAndRaise reports a panic to sentry and then re-panics so the process still
// crashes loudly.
func RecoverAndRaise(ctx context.Context) {
	if rec := recover(); rec != nil {
		hub := sentry.CurrentHub()
		if ctx != nil {
			if ctxHub := sentry.GetHubFromContext(ctx); ctxHub != nil {
				hub = ctxHub
			}
		}
		hub.Recover(rec)
		hub.Flush(2 * time.Second)
		panic(rec)
	}
}
