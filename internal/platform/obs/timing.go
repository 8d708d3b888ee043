package obs

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

const tracerName = "charging-route-service"

// WithRequestID stores the request id for downstream timing logs.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// Time starts a span and returns a func that logs the duration (and error) of
// the operation. Use as: defer obs.Time(ctx, "op")(&err). Work done with ctx
// afterwards is not nested under the span; use Start for that.
func Time(ctx context.Context, name string) func(errp *error) {
	_, done := Start(ctx, name)
	return done
}

// Start is Time for operations that make further traced calls: spans started
// from the returned context are children of this one.
//
//	ctx, done := obs.Start(ctx, "op")
//	defer done(&err)
func Start(ctx context.Context, name string) (context.Context, func(errp *error)) {
	start := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, name)

	logger := zerolog.Ctx(ctx)
	reqID := RequestID(ctx)

	return ctx, func(errp *error) {
		dur := time.Since(start)
		defer span.End()

		if errp != nil && *errp != nil {
			span.RecordError(*errp)
			span.SetStatus(codes.Error, (*errp).Error())
			logger.Debug().Str("req_id", reqID).Str("op", name).Int64("dur_ms", dur.Milliseconds()).Err(*errp).Msg("operation failed")
			return
		}
		logger.Debug().Str("req_id", reqID).Str("op", name).Int64("dur_ms", dur.Milliseconds()).Msg("operation done")
	}
}
