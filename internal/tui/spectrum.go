// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"specviz/internal/transport"
)

const refreshInterval = 33 * time.Millisecond // ~30Hz display tick

// Partial-height cells for the top of each bar, coarsest to finest.
var barGlyphs = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

var (
	barStyleLow = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065"))

	barStyleMid = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E8C547"))

	barStyleHigh = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#D94F4F"))
)

// LevelSource reports the instantaneous input level for the meter line.
type LevelSource interface {
	Level() float64
}

// SpectrumModel is the Bubble Tea model for the live spectrum view. It
// pulls one frame from the pipeline per display tick; the pipeline itself
// runs at the audio callback rate independently of this model.
type SpectrumModel struct {
	source transport.FrameSource
	levels LevelSource

	width  int
	height int
	ready  bool

	frame []float64
	err   error
}

// NewSpectrumModel creates a spectrum view over the given frame source.
// levels may be nil to omit the meter line.
func NewSpectrumModel(source transport.FrameSource, levels LevelSource) SpectrumModel {
	return SpectrumModel{
		source: source,
		levels: levels,
	}
}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts the display tick.
func (m SpectrumModel) Init() tea.Cmd {
	return tickCmd()
}

// Update handles resize, quit keys and the display tick.
func (m SpectrumModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = m.width > 0 && m.height > 4

	case tickMsg:
		if m.ready {
			frame, err := m.source.Frame(m.width)
			if err != nil {
				m.err = err
			} else {
				// The source owns its slice; copy before the next tick
				// overwrites it.
				if len(m.frame) != len(frame) {
					m.frame = make([]float64, len(frame))
				}
				copy(m.frame, frame)
				m.err = nil
			}
		}
		return m, tickCmd()

	case tea.KeyMsg:
		if key.Matches(msg, key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"))) {
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the bar field bottom-up with eighth-block caps.
func (m SpectrumModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress q to exit.", m.err)
	}

	barRows := m.height - 2 // Reserve a meter line and a help line.
	var sb strings.Builder

	for row := barRows - 1; row >= 0; row-- {
		for x := 0; x < m.width && x < len(m.frame); x++ {
			sb.WriteString(m.renderCell(m.frame[x], row, barRows))
		}
		sb.WriteByte('\n')
	}

	sb.WriteString(m.renderMeter())
	sb.WriteByte('\n')
	sb.WriteString(infoStyle.Render("q: Quit"))
	return sb.String()
}

// renderCell picks the glyph for one terminal cell: full block below the
// bar top, a partial block at the top, blank above.
func (m SpectrumModel) renderCell(value float64, row, rows int) string {
	cells := value * float64(rows)
	full := int(cells)

	var glyph rune
	switch {
	case row < full:
		glyph = barGlyphs[len(barGlyphs)-1]
	case row == full:
		eighths := int((cells - float64(full)) * 8)
		glyph = barGlyphs[eighths]
	default:
		glyph = barGlyphs[0]
	}

	if glyph == ' ' {
		return " "
	}
	return styleForRow(row, rows).Render(string(glyph))
}

// styleForRow colors bars green at the base, yellow in the middle band and
// red near the top.
func styleForRow(row, rows int) lipgloss.Style {
	switch pos := float64(row) / float64(rows); {
	case pos > 0.85:
		return barStyleHigh
	case pos > 0.6:
		return barStyleMid
	default:
		return barStyleLow
	}
}

// renderMeter draws the input level line under the bar field.
func (m SpectrumModel) renderMeter() string {
	if m.levels == nil {
		return ""
	}

	level := m.levels.Level()
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}

	usable := m.width - 8
	if usable < 1 {
		usable = 1
	}
	filled := int(level * float64(usable))

	var sb strings.Builder
	sb.WriteString(infoStyle.Render("level "))
	sb.WriteString(barStyleLow.Render(strings.Repeat("█", filled)))
	sb.WriteString(strings.Repeat("░", usable-filled))
	return sb.String()
}

// StartSpectrumUI launches the live spectrum view over the given pipeline.
func StartSpectrumUI(source transport.FrameSource, levels LevelSource) error {
	p := tea.NewProgram(
		NewSpectrumModel(source, levels),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
