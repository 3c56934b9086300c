package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/xela07ax/smartguard/internal/behavior"
	"github.com/xela07ax/smartguard/internal/connectors"
	"github.com/xela07ax/smartguard/internal/directory"
	"github.com/xela07ax/smartguard/internal/domain"
	"github.com/xela07ax/smartguard/internal/engine"
	"github.com/xela07ax/smartguard/internal/recommend"
)

// Screen один из трех экранов: Home -> Device List -> Device Details.
type Screen int

const (
	ScreenHome Screen = iota
	ScreenList
	ScreenDetails
)

func (s Screen) String() string {
	switch s {
	case ScreenHome:
		return "home"
	case ScreenList:
		return "device_list"
	case ScreenDetails:
		return "device_details"
	default:
		return "unknown"
	}
}

// scanDoneMsg: сканирование зафиксировано (или отброшено) в конкретном каталоге.
type scanDoneMsg struct {
	dir   *directory.Directory
	state directory.State
}

// checkDoneMsg: проверка поведения завершилась.
type checkDoneMsg struct {
	check *behavior.Check
}

// Model: контроллер экранов. Каталог живет, пока открыт список,
// проверка поведения, пока открыты детали.
type Model struct {
	backend connectors.Backend
	metrics *engine.Metrics
	advisor *recommend.Advisor
	logger  *zap.Logger
	styles  Styles

	screen Screen

	// Device List
	dir    *directory.Directory
	cursor int

	// Device Details: устройство передается по значению внутри Check
	advice []string
	check  *behavior.Check
}

func NewModel(backend connectors.Backend, metrics *engine.Metrics, logger *zap.Logger) *Model {
	if metrics == nil {
		metrics = engine.NewMetrics(nil)
	}
	return &Model{
		backend: backend,
		metrics: metrics,
		advisor: recommend.NewAdvisor(logger),
		logger:  logger.Named("tui"),
		styles:  NewStyles(DefaultTheme),
		screen:  ScreenHome,
	}
}

// Screen: текущий экран.
func (m *Model) Screen() Screen { return m.screen }

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.teardown()
			return m, tea.Quit
		}
		switch m.screen {
		case ScreenHome:
			return m.updateHome(msg)
		case ScreenList:
			return m.updateList(msg)
		case ScreenDetails:
			return m.updateDetails(msg)
		}

	case scanDoneMsg:
		// Ответ от каталога, который уже закрыт, игнорируем
		if msg.dir != m.dir || msg.dir.Closed() {
			return m, nil
		}
		m.clampCursor()

	case checkDoneMsg:
		if msg.check != m.check {
			return m, nil
		}
	}
	return m, nil
}

func (m *Model) updateHome(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "s", "enter":
		return m, m.openList()
	}
	return m, nil
}

func (m *Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.dir.State()
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(st.Visible())-1 {
			m.cursor++
		}
	case "r":
		// Rescan недоступен, пока идет сканирование
		if st.Loading() {
			return m, nil
		}
		return m, m.scan()
	case "enter":
		devices := st.Visible()
		if st.Loading() || m.cursor >= len(devices) {
			return m, nil
		}
		return m, m.openDetails(devices[m.cursor])
	case "esc", "backspace":
		m.dir.Close()
		m.dir = nil
		m.screen = ScreenHome
	}
	return m, nil
}

func (m *Model) updateDetails(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		// Возврат к списку: он остался смонтированным, повторного скана нет
		m.check.Close()
		m.check = nil
		m.screen = ScreenList
	}
	return m, nil
}

// openList монтирует новый каталог и сразу запускает сканирование.
func (m *Model) openList() tea.Cmd {
	m.dir = directory.New(m.backend, m.metrics, m.logger)
	m.cursor = 0
	m.screen = ScreenList
	m.logger.Debug("navigate", zap.Stringer("screen", m.screen))
	return m.scan()
}

func (m *Model) scan() tea.Cmd {
	dir := m.dir
	ticket, ok := dir.Begin()
	if !ok {
		return nil
	}
	return func() tea.Msg {
		return scanDoneMsg{dir: dir, state: dir.Complete(context.Background(), ticket)}
	}
}

// openDetails создает новую проверку поведения на каждый заход.
func (m *Model) openDetails(d domain.Device) tea.Cmd {
	m.advice = m.advisor.AdviseAll(d.Vulnerabilities)
	m.check = behavior.NewCheck(m.backend, d, m.logger)
	m.screen = ScreenDetails
	m.logger.Debug("navigate", zap.Stringer("screen", m.screen), zap.String("device_id", d.ID))

	check := m.check
	return func() tea.Msg {
		check.Run(context.Background())
		return checkDoneMsg{check: check}
	}
}

func (m *Model) clampCursor() {
	n := len(m.dir.State().Visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) teardown() {
	if m.check != nil {
		m.check.Close()
		m.check = nil
	}
	if m.dir != nil {
		m.dir.Close()
		m.dir = nil
	}
}
