// SPDX-License-Identifier: MIT
package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type rampSource struct{ frame []float64 }

func (r *rampSource) Frame(width int) ([]float64, error) {
	if len(r.frame) != width {
		r.frame = make([]float64, width)
		for i := range r.frame {
			r.frame[i] = float64(i) / float64(width-1)
		}
	}
	return r.frame, nil
}

type fixedLevel float64

func (f fixedLevel) Level() float64 { return float64(f) }

func TestSpectrumModelRendersBars(t *testing.T) {
	m := NewSpectrumModel(&rampSource{}, fixedLevel(0.5))

	next, _ := m.Update(tea.WindowSizeMsg{Width: 40, Height: 12})
	m = next.(SpectrumModel)
	if !m.ready {
		t.Fatal("model should be ready after a window size message")
	}

	next, _ = m.Update(tickMsg(time.Now()))
	m = next.(SpectrumModel)
	if len(m.frame) != 40 {
		t.Fatalf("frame length = %d, want 40", len(m.frame))
	}

	view := m.View()
	if !strings.Contains(view, "█") {
		t.Error("view should contain full bar glyphs for a ramp frame")
	}
	if !strings.Contains(view, "level") {
		t.Error("view should contain the level meter line")
	}

	// One line per bar row, plus meter and help lines.
	lines := strings.Split(view, "\n")
	if len(lines) != 12 {
		t.Errorf("view has %d lines, want 12", len(lines))
	}
}

func TestSpectrumModelQuitKeys(t *testing.T) {
	m := NewSpectrumModel(&rampSource{}, nil)

	for _, k := range []string{"q", "ctrl+c", "esc"} {
		msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		if k == "ctrl+c" {
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		}
		if k == "esc" {
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		}
		_, cmd := m.Update(msg)
		if cmd == nil {
			t.Errorf("key %q should quit", k)
		}
	}
}

func TestSpectrumModelNotReady(t *testing.T) {
	m := NewSpectrumModel(&rampSource{}, nil)
	if got := m.View(); got != "Initializing..." {
		t.Errorf("View() before sizing = %q", got)
	}
}
