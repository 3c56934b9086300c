package connectors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/xela07ax/smartguard/internal/domain"
	"github.com/xela07ax/smartguard/internal/infra"
)

// Backend: то, что клиенту нужно от удаленного API сканирования/предсказаний.
type Backend interface {
	Scan(ctx context.Context) ([]domain.Device, error)
	Predict(ctx context.Context, traffic float64) (*domain.PredictionResponse, error)
}

// TokenSource выдает Bearer-токен для каждого запроса.
type TokenSource interface {
	Sign() (string, error)
}

// HTTPAdapter ходит в бэкенд по HTTP/JSON.
type HTTPAdapter struct {
	baseURL string
	client  *http.Client
	tokens  TokenSource // nil, если без авторизации
}

// NewHTTPAdapter создает экземпляр адаптера. Таймаут выставляется только если задан в конфиге.
func NewHTTPAdapter(cfg infra.APIConfig, tokens TokenSource) *HTTPAdapter {
	return &HTTPAdapter{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		tokens:  tokens,
	}
}

// WithHTTPClient подменяет транспорт (тесты, кастомный TLS).
func (a *HTTPAdapter) WithHTTPClient(c *http.Client) *HTTPAdapter {
	a.client = c
	return a
}

// Scan выполняет GET /scan.
func (a *HTTPAdapter) Scan(ctx context.Context) ([]domain.Device, error) {
	var resp domain.ScanResponse
	if err := a.do(ctx, "scan", http.MethodGet, "/scan", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, &ScanFailedError{Reason: resp.Error}
	}
	if resp.Devices == nil {
		return []domain.Device{}, nil
	}
	return resp.Devices, nil
}

// Predict выполняет POST /predict с {"traffic": <value>}.
func (a *HTTPAdapter) Predict(ctx context.Context, traffic float64) (*domain.PredictionResponse, error) {
	body, err := json.Marshal(domain.PredictRequest{Traffic: traffic})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal predict request: %w", err)
	}

	var resp domain.PredictionResponse
	if err := a.do(ctx, "predict", http.MethodPost, "/predict", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *HTTPAdapter) do(ctx context.Context, op, method, path string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	traceID := infra.TraceID(ctx)
	if traceID == "" {
		traceID = infra.TraceID(infra.WithTraceID(ctx, ""))
	}
	req.Header.Set(infra.TraceHeader, traceID)

	if a.tokens != nil {
		token, err := a.tokens.Sign()
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(op, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: malformed response body: %w", op, err)
	}
	return nil
}

func statusError(op string, resp *http.Response) error {
	se := &StatusError{Op: op, Code: resp.StatusCode}

	// Тело ошибки не обязано быть ErrorEnvelope, читаем с лимитом и без претензий
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var env domain.ErrorEnvelope
	if len(data) > 0 && json.Unmarshal(data, &env) == nil && env.Error != "" {
		se.Envelope = &env
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs >= 0 {
			return &ThrottleError{RetryAfter: time.Duration(secs) * time.Second, Cause: se}
		}
	}
	return se
}
