package behavior

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/xela07ax/smartguard/internal/connectors"
	"github.com/xela07ax/smartguard/internal/domain"
)

// Placeholder: текст статуса, пока ответ /predict не пришел.
const Placeholder = "Checking..."

// Check: проверка поведения одного устройства, живет ровно столько, сколько экран деталей.
// Каждый заход на экран создает новый Check: результаты не кэшируются.
type Check struct {
	backend connectors.Backend
	device  domain.Device
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	status string
	result *domain.PredictionResponse
	err    error
	done   bool
	closed bool
}

func NewCheck(backend connectors.Backend, device domain.Device, logger *zap.Logger) *Check {
	ctx, cancel := context.WithCancel(context.Background())
	return &Check{
		backend: backend,
		device:  device,
		logger:  logger.Named("behavior").With(zap.String("device_id", device.ID)),
		ctx:     ctx,
		cancel:  cancel,
		status:  Placeholder,
	}
}

// Run выполняет один запрос /predict с трафиком устройства и возвращает текст статуса.
// Отмена приходит либо из ctx, либо из Close.
func (c *Check) Run(ctx context.Context) string {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.ctx, cancel)
	defer stop()

	c.logger.Debug("making predict call", zap.Float64("traffic", c.device.Traffic))
	resp, err := c.backend.Predict(ctx, c.device.Traffic)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		// Экран уже закрыт, результат никому не нужен
		c.logger.Debug("predict result dropped: view closed")
		return c.status
	}

	c.done = true
	if err != nil {
		c.err = err
		c.status = "Error: " + err.Error()
		c.logger.Error("predict call failed", zap.Error(err))
		return c.status
	}

	c.result = resp
	c.status = resp.Status
	c.logger.Info("predict response",
		zap.Float64("prediction", resp.Prediction),
		zap.Bool("is_anomaly", resp.IsAnomaly),
		zap.String("status", resp.Status))
	return c.status
}

// Status: текст для строки "Behavioral Analysis".
func (c *Check) Status() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// Result: ответ бэкенда, nil до успешного завершения.
func (c *Check) Result() *domain.PredictionResponse {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.result
}

// Err: ошибка последнего запроса, если он упал.
func (c *Check) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Done: ответ (успешный или нет) зафиксирован.
func (c *Check) Done() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.done
}

func (c *Check) Device() domain.Device { return c.device }

// Close отменяет запрос в полете и запрещает дальнейшие коммиты.
func (c *Check) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
}
