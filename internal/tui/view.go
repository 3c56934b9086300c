package tui

import (
	"fmt"
	"strings"
)

func (m *Model) View() string {
	var body string
	switch m.screen {
	case ScreenHome:
		body = m.viewHome()
	case ScreenList:
		body = m.viewList()
	case ScreenDetails:
		body = m.viewDetails()
	}
	return m.styles.Container.Render(body)
}

func (m *Model) viewHome() string {
	s := m.styles
	lines := []string{
		s.Title.Render("Welcome to SmartGuard"),
		"",
		"[s] Scan Network",
		"",
		s.Dim.Render("q quit"),
	}
	return strings.Join(lines, "\n")
}

func (m *Model) viewList() string {
	s := m.styles
	st := m.dir.State()
	lines := []string{s.Title.Render("Devices"), ""}

	devices := st.Visible()
	switch {
	case st.Loading():
		lines = append(lines, s.Warning.Render("Scanning..."))
	case len(devices) == 0:
		lines = append(lines, "No devices found")
	default:
		for i, d := range devices {
			row := fmt.Sprintf("%s - %s", d.Name, d.Status)
			if i == m.cursor {
				lines = append(lines, s.Selected.Render("> "+row))
			} else {
				lines = append(lines, "  "+row)
			}
		}
	}

	lines = append(lines, "")
	if st.Loading() {
		lines = append(lines, s.Dim.Render("[r] Rescan (disabled)"))
	} else {
		lines = append(lines, "[r] Rescan")
	}
	lines = append(lines, s.Dim.Render("↑/↓ select • enter details • esc back • q quit"))
	return strings.Join(lines, "\n")
}

func (m *Model) viewDetails() string {
	s := m.styles
	d := m.check.Device()

	status := m.check.Status()
	analysis := status
	switch {
	case !m.check.Done():
		analysis = s.Dim.Render(status)
	case m.check.Err() != nil:
		analysis = s.Error.Render(status)
	case m.check.Result() != nil && m.check.Result().IsAnomaly:
		analysis = s.Warning.Render(status)
	case m.check.Result() != nil:
		analysis = s.Success.Render(status)
	}

	vulns := "None"
	if len(d.Vulnerabilities) > 0 {
		vulns = strings.Join(d.Vulnerabilities, ", ")
	}

	lines := []string{
		s.Title.Render(d.Name),
		"",
		"Status: " + d.Status,
		fmt.Sprintf("Traffic: %.2f MB", d.Traffic),
		"Behavioral Analysis: " + analysis,
		"Vulnerabilities: " + vulns,
	}

	if len(d.Vulnerabilities) > 0 {
		lines = append(lines, "", s.Title.Render("Recommendations:"))
		for _, advice := range m.advice {
			lines = append(lines, "- "+advice)
		}
	}

	lines = append(lines, "", s.Dim.Render("esc back • q quit"))
	return strings.Join(lines, "\n")
}
