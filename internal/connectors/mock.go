package connectors

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/xela07ax/smartguard/internal/domain"
)

// MockBackend: in-process имитация бэкенда для тестов пакетов над Backend.
type MockBackend struct {
	mu      sync.Mutex
	devices []domain.Device
	status  func(traffic float64) *domain.PredictionResponse

	// Задержка ответа, 0 значит сразу
	Latency time.Duration
	// Если задано, Scan/Predict вернут эти ошибки
	ScanErr    error
	PredictErr error

	scans    int
	predicts int
}

func NewMockBackend(devices []domain.Device) *MockBackend {
	return &MockBackend{devices: devices}
}

// WithPrediction задает функцию, по которой считается ответ /predict.
func (m *MockBackend) WithPrediction(f func(traffic float64) *domain.PredictionResponse) *MockBackend {
	m.status = f
	return m
}

func (m *MockBackend) Scan(ctx context.Context) ([]domain.Device, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.scans++
	if m.ScanErr != nil {
		return nil, m.ScanErr
	}
	out := make([]domain.Device, len(m.devices))
	copy(out, m.devices)
	return out, nil
}

func (m *MockBackend) Predict(ctx context.Context, traffic float64) (*domain.PredictionResponse, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.predicts++
	if m.PredictErr != nil {
		return nil, m.PredictErr
	}
	if m.status != nil {
		return m.status(traffic), nil
	}
	return &domain.PredictionResponse{Prediction: 0, IsAnomaly: false, Status: domain.StatusNormal}, nil
}

// Calls возвращает количество вызовов Scan и Predict.
func (m *MockBackend) Calls() (scans, predicts int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scans, m.predicts
}

func (m *MockBackend) wait(ctx context.Context) error {
	if m.Latency <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(m.Latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RandomDevices генерирует набор устройств так же, как это делает бэкенд по ARP:
// id это MAC без двоеточий, имя Device_<ip>, трафик в [5, 15).
func RandomDevices(n int) []domain.Device {
	out := make([]domain.Device, 0, n)
	for i := 0; i < n; i++ {
		mac := fmt.Sprintf("02:00:00:%02x:%02x:%02x", rand.Intn(256), rand.Intn(256), i)
		out = append(out, domain.Device{
			ID:              strings.ReplaceAll(mac, ":", ""),
			Name:            fmt.Sprintf("Device_192.168.1.%d", 10+i),
			Traffic:         5 + rand.Float64()*10,
			Status:          "Unknown",
			Vulnerabilities: []string{},
		})
	}
	return out
}
