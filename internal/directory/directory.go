package directory

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/xela07ax/smartguard/internal/connectors"
	"github.com/xela07ax/smartguard/internal/domain"
	"github.com/xela07ax/smartguard/internal/engine"
)

// Phase: тег состояния каталога устройств.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseLoaded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State: снимок каталога. Devices заполнен только в PhaseLoaded
// (в PhaseLoading остается список предыдущего успешного сканирования).
type State struct {
	Phase   Phase
	Devices []domain.Device
	Err     error
	Seq     uint64 // номер последнего выпущенного запроса
}

func (s State) Loading() bool { return s.Phase == PhaseLoading }

// Visible отдает то, что показывает UI; провал выглядит как пустой список.
func (s State) Visible() []domain.Device {
	if s.Phase == PhaseFailed {
		return nil
	}
	return s.Devices
}

// Directory владеет результатом сканирования сети.
// Новое сканирование полностью заменяет список, при ошибке очищает его.
type Directory struct {
	backend connectors.Backend
	metrics *engine.Metrics
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	state    State
	closed   bool
	onChange func(State)
}

func New(backend connectors.Backend, metrics *engine.Metrics, logger *zap.Logger) *Directory {
	if metrics == nil {
		metrics = engine.NewMetrics(nil)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Directory{
		backend: backend,
		metrics: metrics,
		logger:  logger.Named("directory"),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// OnChange регистрирует наблюдателя. Вызывается после каждого зафиксированного перехода.
func (d *Directory) OnChange(f func(State)) {
	d.mu.Lock()
	d.onChange = f
	d.mu.Unlock()
}

// State возвращает текущий снимок.
func (d *Directory) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snapshot()
}

// Ticket: право зафиксировать результат одного запроса сканирования.
type Ticket struct {
	seq uint64
	ok  bool
}

// Scan запускает один цикл запрос-ответ и возвращает состояние после него.
func (d *Directory) Scan(ctx context.Context) State {
	t, _ := d.Begin()
	return d.Complete(ctx, t)
}

// Begin синхронно переводит каталог в Loading и выдает билет на запрос.
// ok == false значит каталог закрыт и запрос делать не нужно.
func (d *Directory) Begin() (Ticket, bool) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return Ticket{}, false
	}
	d.state.Seq++
	t := Ticket{seq: d.state.Seq, ok: true}
	d.state.Phase = PhaseLoading
	d.state.Err = nil
	loading := d.snapshot()
	notify := d.onChange
	d.mu.Unlock()

	if notify != nil {
		notify(loading)
	}
	d.logger.Debug("scan started", zap.Uint64("seq", t.seq))
	return t, true
}

// Complete выполняет запрос по билету и фиксирует результат.
// Зафиксировать результат может только ответ на последний выпущенный запрос.
func (d *Directory) Complete(ctx context.Context, t Ticket) State {
	if !t.ok {
		return d.State()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(d.ctx, cancel)
	defer stop()

	devices, err := d.backend.Scan(ctx)

	d.mu.Lock()
	if d.closed {
		st := d.snapshot()
		d.mu.Unlock()
		d.logger.Debug("scan result dropped: directory closed", zap.Uint64("seq", t.seq))
		return st
	}
	if t.seq != d.state.Seq {
		st := d.snapshot()
		d.mu.Unlock()
		d.metrics.StaleScans.Inc()
		d.logger.Info("stale scan result discarded",
			zap.Uint64("seq", t.seq), zap.Uint64("latest", st.Seq))
		return st
	}

	if err != nil {
		d.state.Phase = PhaseFailed
		d.state.Devices = []domain.Device{}
		d.state.Err = err
		d.logger.Error("scan error", zap.Uint64("seq", t.seq), zap.Error(err))
	} else {
		if devices == nil {
			devices = []domain.Device{}
		}
		d.state.Phase = PhaseLoaded
		d.state.Devices = devices
		d.state.Err = nil
		d.logger.Info("scanned devices", zap.Uint64("seq", t.seq), zap.Int("count", len(devices)))
	}
	d.metrics.DirectoryDevices.Set(float64(len(d.state.Devices)))
	st := d.snapshot()
	notify := d.onChange
	d.mu.Unlock()

	if notify != nil {
		notify(st)
	}
	return st
}

// Close завершает жизнь каталога: запрос в полете отменяется,
// ответы, пришедшие после, не фиксируются.
func (d *Directory) Close() {
	d.mu.Lock()
	d.closed = true
	d.onChange = nil
	d.mu.Unlock()
	d.cancel()
}

// Closed сообщает, закрыт ли каталог.
func (d *Directory) Closed() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.closed
}

// snapshot копирует срез, чтобы снимок не зависел от будущих коммитов. Вызывать под mu.
func (d *Directory) snapshot() State {
	st := d.state
	if st.Devices != nil {
		st.Devices = append([]domain.Device(nil), st.Devices...)
	}
	return st
}
