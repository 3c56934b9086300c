package engine

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xela07ax/smartguard/internal/connectors"
	"github.com/xela07ax/smartguard/internal/domain"
	"github.com/xela07ax/smartguard/internal/infra"
)

const backendName = "smartguard-api"

// ReliabilityWrapper оборачивает бэкенд: Rate Limiter -> Circuit Breaker -> Retry -> Timeout.
// По умолчанию одна попытка без таймаута, т.е. поведение "голого" клиента.
type ReliabilityWrapper struct {
	next     connectors.Backend
	cb       *gobreaker.CircuitBreaker
	limiter  *rate.Limiter
	attempts uint
	timeout  time.Duration
	metrics  *Metrics
	logger   *zap.Logger
}

func NewReliabilityWrapper(
	next connectors.Backend,
	rc infra.ReliabilityConfig,
	timeout time.Duration,
	metrics *Metrics,
	logger *zap.Logger,
) *ReliabilityWrapper {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	logger = logger.Named("reliability")

	threshold := rc.CBFailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	// Настройка предохранителя
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        backendName,
		MaxRequests: rc.CBMaxRequests,
		Interval:    rc.CBInterval,
		Timeout:     rc.CBTimeout, // Время, через которое CB попробует "закрыться"
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Отмена со стороны клиента (ушли с экрана), не вина бэкенда
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			logger.Warn("circuit breaker state changed",
				zap.String("backend", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	metrics.CircuitBreakerState.WithLabelValues(backendName).Set(float64(gobreaker.StateClosed))

	limit := rate.Inf
	if rc.RateLimit > 0 {
		limit = rate.Limit(rc.RateLimit)
	}
	burst := rc.RateBurst
	if burst < 1 {
		burst = 1
	}

	attempts := rc.RetryAttempts
	if attempts == 0 {
		attempts = 1
	}

	return &ReliabilityWrapper{
		next:     next,
		cb:       cb,
		limiter:  rate.NewLimiter(limit, burst),
		attempts: attempts,
		timeout:  timeout,
		metrics:  metrics,
		logger:   logger,
	}
}

func (w *ReliabilityWrapper) Scan(ctx context.Context) ([]domain.Device, error) {
	res, err := w.call(ctx, "scan", func(ctx context.Context) (interface{}, error) {
		return w.next.Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	return res.([]domain.Device), nil
}

func (w *ReliabilityWrapper) Predict(ctx context.Context, traffic float64) (*domain.PredictionResponse, error) {
	res, err := w.call(ctx, "predict", func(ctx context.Context) (interface{}, error) {
		return w.next.Predict(ctx, traffic)
	})
	if err != nil {
		return nil, err
	}
	return res.(*domain.PredictionResponse), nil
}

// State: текущее состояние предохранителя.
func (w *ReliabilityWrapper) State() gobreaker.State {
	return w.cb.State()
}

func (w *ReliabilityWrapper) call(ctx context.Context, op string, fn func(context.Context) (interface{}, error)) (res interface{}, err error) {
	w.metrics.TotalRequests.WithLabelValues(op).Inc()
	start := time.Now()
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
			w.metrics.ErrorTotal.WithLabelValues(op, classify(err)).Inc()
		}
		w.metrics.RequestDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
	}()

	// 1. Rate Limiter
	if err := w.limiter.Wait(ctx); err != nil {
		return nil, &RateLimitError{Cause: err}
	}

	// 2. Circuit Breaker
	return w.cb.Execute(func() (interface{}, error) {
		var (
			result  interface{}
			lastErr error
		)

		r := retry.New(
			retry.Context(ctx),
			retry.Attempts(w.attempts),
			retry.RetryIf(retryable),
			retry.DelayType(func(n uint, err error, config retry.DelayContext) time.Duration {
				// Бэкенд прислал Retry-After, уважаем его
				var tErr *connectors.ThrottleError
				if errors.As(err, &tErr) {
					return tErr.RetryAfter
				}
				return retry.BackOffDelay(n, err, config)
			}),
		)

		retryErr := r.Do(func() error {
			attemptCtx := ctx
			if w.timeout > 0 {
				var cancel context.CancelFunc
				attemptCtx, cancel = context.WithTimeout(ctx, w.timeout)
				defer cancel()
			}

			var callErr error
			result, callErr = fn(attemptCtx)
			if callErr != nil {
				lastErr = callErr
				w.logger.Debug("backend attempt failed", zap.String("op", op), zap.Error(callErr))
			}
			return callErr
		})

		if retryErr != nil {
			// Наружу отдаем ошибку последней попытки, а не сводку retry-go:
			// ее текст попадает пользователю как "Error: <message>"
			if lastErr != nil {
				return nil, lastErr
			}
			return nil, retryErr
		}
		return result, nil
	})
}

// RateLimitError: ожидание лимитера прервано (обычно отменой контекста).
type RateLimitError struct {
	Cause error
}

func (e *RateLimitError) Error() string { return "rate limit exceeded: " + e.Cause.Error() }

func (e *RateLimitError) Unwrap() error { return e.Cause }

// retryable: повторяем 5xx, 429 и сетевые сбои. 4xx и сбой скана на стороне бэкенда
// от повтора не изменятся.
func retryable(err error) bool {
	var (
		sErr *connectors.StatusError
		fErr *connectors.ScanFailedError
	)
	switch {
	case errors.Is(err, context.Canceled):
		return false
	case errors.As(err, &fErr):
		return false
	case errors.As(err, &sErr):
		return sErr.Temporary()
	default:
		return true
	}
}

func classify(err error) string {
	var (
		tErr  *connectors.ThrottleError
		sErr  *connectors.StatusError
		rlErr *RateLimitError
		fErr  *connectors.ScanFailedError
	)
	switch {
	case errors.As(err, &rlErr):
		return "rate_limit"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "breaker_open"
	case errors.As(err, &tErr):
		return "throttle"
	case errors.As(err, &sErr):
		return "status"
	case errors.As(err, &fErr):
		return "scan_failed"
	default:
		return "transport"
	}
}
