package runner

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nai-labs/nai/internal/job"
	"github.com/nai-labs/nai/internal/metrics"
)

// loggingRequester wraps a Requester with throttled failure logging.
type loggingRequester struct {
	inner    Requester
	logger   *zap.Logger
	throttle *rate.Sometimes
}

// WithFailureLogging wraps req so transport errors and 5xx responses are
// logged. The first burst failures are always logged, then at most one per
// interval.
func WithFailureLogging(req Requester, logger *zap.Logger, burst int, interval time.Duration) Requester {
	if logger == nil {
		return req
	}
	return &loggingRequester{
		inner:    req,
		logger:   logger,
		throttle: &rate.Sometimes{First: burst, Interval: interval},
	}
}

func (l *loggingRequester) Do(ctx context.Context, d job.Descriptor) (int, error) {
	status, err := l.inner.Do(ctx, d)
	switch {
	case err != nil:
		l.throttle.Do(func() {
			l.logger.Warn("request failed",
				zap.String("method", d.Method),
				zap.String("url", d.URL),
				zap.String("kind", metrics.CategorizeError(err)),
				zap.Error(err),
			)
		})
	case status >= http.StatusInternalServerError || status < http.StatusOK:
		l.throttle.Do(func() {
			l.logger.Warn("request failed",
				zap.String("method", d.Method),
				zap.String("url", d.URL),
				zap.Int("status", status),
			)
		})
	}
	return status, err
}
