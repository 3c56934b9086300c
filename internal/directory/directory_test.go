package directory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xela07ax/smartguard/internal/connectors"
	"github.com/xela07ax/smartguard/internal/domain"
	"github.com/xela07ax/smartguard/internal/engine"
)

var router = domain.Device{
	ID: "1", Name: "Router", Traffic: 12.5, Status: "Online",
	Vulnerabilities: []string{"Weak Password"},
}

func TestInitialStateIsIdle(t *testing.T) {
	d := New(connectors.NewMockBackend(nil), nil, zap.NewNop())
	st := d.State()
	assert.Equal(t, PhaseIdle, st.Phase)
	assert.False(t, st.Loading())
	assert.Empty(t, st.Visible())
}

func TestScanKeepsReceivedOrder(t *testing.T) {
	for _, n := range []int{0, 1, 7} {
		devices := connectors.RandomDevices(n)
		d := New(connectors.NewMockBackend(devices), nil, zap.NewNop())

		st := d.Scan(context.Background())
		assert.Equal(t, PhaseLoaded, st.Phase)
		assert.NoError(t, st.Err)
		assert.Len(t, st.Visible(), n)
		for i := range devices {
			assert.Equal(t, devices[i], st.Devices[i])
		}
	}
}

func TestFailedScanClearsPreviousList(t *testing.T) {
	backend := connectors.NewMockBackend([]domain.Device{router})
	d := New(backend, nil, zap.NewNop())

	st := d.Scan(context.Background())
	require.Len(t, st.Visible(), 1)

	backend.ScanErr = &connectors.StatusError{Code: 500}
	st = d.Scan(context.Background())
	assert.Equal(t, PhaseFailed, st.Phase)
	assert.Empty(t, st.Devices, "no stale data survives a failed rescan")
	assert.Empty(t, st.Visible())
	assert.EqualError(t, st.Err, "HTTP error! Status: 500")
	assert.False(t, st.Loading())
}

func TestFailedAndEmptyAreDistinguishable(t *testing.T) {
	empty := New(connectors.NewMockBackend(nil), nil, zap.NewNop()).Scan(context.Background())
	failedBackend := connectors.NewMockBackend(nil)
	failedBackend.ScanErr = errors.New("boom")
	failed := New(failedBackend, nil, zap.NewNop()).Scan(context.Background())

	assert.Empty(t, empty.Visible())
	assert.Empty(t, failed.Visible())
	assert.Equal(t, PhaseLoaded, empty.Phase)
	assert.Equal(t, PhaseFailed, failed.Phase)
}

func TestOnChangeSeesLoadingThenResult(t *testing.T) {
	d := New(connectors.NewMockBackend([]domain.Device{router}), nil, zap.NewNop())

	var phases []Phase
	d.OnChange(func(st State) { phases = append(phases, st.Phase) })
	d.Scan(context.Background())

	assert.Equal(t, []Phase{PhaseLoading, PhaseLoaded}, phases)
}

// gatedBackend отвечает на каждый Scan только после release.
type gatedBackend struct {
	mu      sync.Mutex
	gates   []chan []domain.Device
	started chan struct{}
}

func newGatedBackend() *gatedBackend {
	return &gatedBackend{started: make(chan struct{}, 8)}
}

func (g *gatedBackend) Scan(ctx context.Context) ([]domain.Device, error) {
	ch := make(chan []domain.Device, 1)
	g.mu.Lock()
	g.gates = append(g.gates, ch)
	g.mu.Unlock()
	g.started <- struct{}{}
	return <-ch, nil
}

func (g *gatedBackend) Predict(ctx context.Context, traffic float64) (*domain.PredictionResponse, error) {
	return nil, errors.New("not used")
}

func (g *gatedBackend) release(i int, devices []domain.Device) {
	g.mu.Lock()
	ch := g.gates[i]
	g.mu.Unlock()
	ch <- devices
}

func TestOverlappingScansLatestWins(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := engine.NewMetrics(reg)
	g := newGatedBackend()
	d := New(g, m, zap.NewNop())

	first := make(chan State, 1)
	go func() { first <- d.Scan(context.Background()) }()
	<-g.started

	second := make(chan State, 1)
	go func() { second <- d.Scan(context.Background()) }()
	<-g.started

	newer := []domain.Device{{ID: "new", Name: "Newer"}}
	older := []domain.Device{{ID: "old", Name: "Older"}}

	// Ответ на второй запрос приходит раньше первого
	g.release(1, newer)
	st := <-second
	assert.Equal(t, PhaseLoaded, st.Phase)
	assert.Equal(t, newer, st.Devices)

	g.release(0, older)
	<-first

	assert.Equal(t, newer, d.State().Devices, "stale response must not overwrite newer list")
	assert.Equal(t, uint64(2), d.State().Seq)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.StaleScans))
}

func TestCloseBlocksInFlightCommit(t *testing.T) {
	g := newGatedBackend()
	d := New(g, nil, zap.NewNop())

	var notified int
	d.OnChange(func(State) { notified++ })

	done := make(chan State, 1)
	go func() { done <- d.Scan(context.Background()) }()
	<-g.started

	d.Close()
	g.release(0, []domain.Device{router})
	st := <-done

	assert.Equal(t, PhaseLoading, st.Phase)
	assert.Empty(t, d.State().Devices)
	assert.Equal(t, 1, notified, "only the loading transition was observed")
	assert.True(t, d.Closed())

	// Закрытый каталог больше не ходит в бэкенд
	d.Scan(context.Background())
	g.mu.Lock()
	assert.Len(t, g.gates, 1)
	g.mu.Unlock()
}

func TestSnapshotIsIsolated(t *testing.T) {
	d := New(connectors.NewMockBackend([]domain.Device{router}), nil, zap.NewNop())
	st := d.Scan(context.Background())
	st.Devices[0].Name = "Mutated"

	assert.Equal(t, "Router", d.State().Devices[0].Name)
}

func TestBeginIsSynchronous(t *testing.T) {
	d := New(connectors.NewMockBackend([]domain.Device{router}), nil, zap.NewNop())

	ticket, ok := d.Begin()
	require.True(t, ok)
	assert.True(t, d.State().Loading())

	st := d.Complete(context.Background(), ticket)
	assert.Equal(t, PhaseLoaded, st.Phase)

	d.Close()
	_, ok = d.Begin()
	assert.False(t, ok)
	assert.Equal(t, PhaseLoaded, d.Complete(context.Background(), Ticket{}).Phase)
}

func TestCloseCancelsBackendRequest(t *testing.T) {
	backend := connectors.NewMockBackend([]domain.Device{router})
	backend.Latency = time.Hour
	d := New(backend, nil, zap.NewNop())

	ticket, ok := d.Begin()
	require.True(t, ok)

	done := make(chan State, 1)
	go func() { done <- d.Complete(context.Background(), ticket) }()
	d.Close()

	select {
	case st := <-done:
		assert.Equal(t, PhaseLoading, st.Phase)
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not cancel the in-flight scan")
	}
}
