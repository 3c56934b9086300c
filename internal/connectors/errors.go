package connectors

import (
	"fmt"
	"time"

	"github.com/xela07ax/smartguard/internal/domain"
)

// StatusError: бэкенд ответил не-2xx. Обрабатывается так же, как сетевой сбой.
type StatusError struct {
	Op       string
	Code     int
	Envelope *domain.ErrorEnvelope // nil, если тело не в формате ErrorEnvelope
}

func (e *StatusError) Error() string {
	if e.Envelope != nil && e.Envelope.Error != "" {
		return fmt.Sprintf("HTTP error! Status: %d: %s", e.Code, e.Envelope.Error)
	}
	return fmt.Sprintf("HTTP error! Status: %d", e.Code)
}

// Temporary: 5xx и 429 имеет смысл повторять, 4xx нет.
func (e *StatusError) Temporary() bool {
	return e.Code >= 500 || e.Code == 429
}

type ThrottleError struct {
	RetryAfter time.Duration
	Cause      error
}

func (e *ThrottleError) Error() string {
	return fmt.Sprintf("throttled: retry after %v (cause: %v)", e.RetryAfter, e.Cause)
}

func (e *ThrottleError) Unwrap() error { return e.Cause }

// ScanFailedError: бэкенд вернул 200, но сообщил об ошибке своего сканирования.
type ScanFailedError struct {
	Reason string
}

func (e *ScanFailedError) Error() string {
	return "scan failed: " + e.Reason
}
