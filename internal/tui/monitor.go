package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"spectral/internal/engine"
)

var (
	monitorTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFDF5")).
				Background(lipgloss.Color("#25A065")).
				Padding(0, 1).
				Bold(true)

	monitorInfoStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFDF5"))

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065"))
)

const monitorTickInterval = 66 * time.Millisecond

// MonitorModel is the Bubble Tea model for the live oscillator-bank
// monitor: a per-voice amplitude bar and the current top FFT peaks,
// refreshed on a fixed tick rather than in response to engine events,
// since the engine has no event stream of its own to subscribe to.
type MonitorModel struct {
	eng *engine.Engine

	voices []engine.VoiceState
	bins   []struct {
		Bin       int
		Magnitude float32
	}

	viewport viewport.Model
	ready    bool
}

// NewMonitorModel builds a monitor model against a running engine.
func NewMonitorModel(eng *engine.Engine) MonitorModel {
	return MonitorModel{eng: eng}
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(monitorTickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init starts the poll loop.
func (m MonitorModel) Init() tea.Cmd {
	return tick()
}

// Update refreshes the polled snapshot on every tick and resizes the
// viewport on window-size events.
func (m MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}
		m.viewport.SetContent(m.render())

	case tickMsg:
		m.voices = m.eng.VoiceStates()
		peaks := m.eng.BinMag()
		m.bins = make([]struct {
			Bin       int
			Magnitude float32
		}, len(peaks))
		for i, p := range peaks {
			m.bins[i].Bin = p.Bin
			m.bins[i].Magnitude = float32(p.Magnitude)
		}
		if m.ready {
			m.viewport.SetContent(m.render())
		}
		return m, tick()

	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the title, the current viewport content, and the
// footer help line.
func (m MonitorModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	title := monitorTitleStyle.Render("Spectral Monitor")
	help := monitorInfoStyle.Render("q: Quit")
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

func (m MonitorModel) render() string {
	var sb strings.Builder

	sb.WriteString("Oscillator bank\n")
	for i, v := range m.voices {
		barLen := int(v.Amplitude * 40)
		if barLen > 40 {
			barLen = 40
		}
		if barLen < 0 {
			barLen = 0
		}
		bar := barStyle.Render(strings.Repeat("█", barLen))
		sb.WriteString(fmt.Sprintf("  %2d %-40s amp=%.4f inc=%.4f\n", i, bar, v.Amplitude, v.Increment))
	}

	sb.WriteString("\nTop FFT peaks\n")
	if len(m.bins) == 0 {
		sb.WriteString("  (none yet)\n")
	}
	for _, b := range m.bins {
		sb.WriteString(fmt.Sprintf("  bin=%-5d magnitude=%.4f\n", b.Bin, b.Magnitude))
	}

	return sb.String()
}

// StartMonitorUI launches the Bubble Tea TUI against a running engine.
func StartMonitorUI(eng *engine.Engine) error {
	p := tea.NewProgram(
		NewMonitorModel(eng),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
