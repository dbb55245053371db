// Package tui provides a terminal user interface for autokalimba
package tui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/james-see/autokalimba/pkg/kalimba"
	"github.com/james-see/autokalimba/pkg/voicing"
)

// Warm wood and brass color scheme
var (
	brass     = lipgloss.Color("#E0B050")
	ember     = lipgloss.Color("#FF7F3F")
	wood      = lipgloss.Color("#5C3A21")
	pale      = lipgloss.Color("#D8CFC4")
	darkGray  = lipgloss.Color("#333333")
	faintGray = lipgloss.Color("#666666")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(brass).
			Background(darkGray).
			Padding(0, 2).
			MarginBottom(1)

	cellStyle = lipgloss.NewStyle().
			Width(9).
			Align(lipgloss.Center).
			Foreground(pale).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(faintGray)

	activeStyle = cellStyle.
			Bold(true).
			Foreground(darkGray).
			Background(brass).
			BorderForeground(brass)

	splitStyle = cellStyle.
			Bold(true).
			Foreground(ember).
			BorderForeground(ember)

	keyStyle = lipgloss.NewStyle().
			Foreground(faintGray)

	statusStyle = lipgloss.NewStyle().
			Foreground(brass).
			PaddingTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(wood).
			Padding(0, 1)
)

// PollInterval is how often the grids refresh and held keys are checked
const PollInterval = 30 * time.Millisecond

const (
	minLowestBass = -12
	maxLowestBass = 12
)

// Player is the part of kalimba.Player the interface drives
type Player interface {
	KeyDown(ctx context.Context, ev kalimba.KeyEvent) (bool, error)
	KeyUp(ctx context.Context, ev kalimba.KeyEvent) error
	ReleaseAll(ctx context.Context) error
	Targets(ctx context.Context) ([]kalimba.TargetState, error)
	Settings(ctx context.Context) (kalimba.Settings, error)
	UpdateSettings(ctx context.Context, fn func(*kalimba.Settings)) (kalimba.Settings, error)
}

type tickMsg time.Time

type statesMsg struct {
	states []kalimba.TargetState
	err    error
}

// Model represents the TUI model
type Model struct {
	ctx      context.Context
	player   Player
	bindings map[string]string
	labels   map[string]string // target -> key
	roots    map[string]int    // bass name -> root semitone
	active   map[string]bool
	settings kalimba.Settings
	dog      *watchdog
	help     help.Model
	now      func() time.Time
	err      error
	width    int
}

// New creates a new TUI model playing through player with the given key
// bindings.
func New(ctx context.Context, player Player, bindings map[string]string) Model {
	bound := make([]string, 0, len(bindings))
	for k := range bindings {
		bound = append(bound, k)
	}
	sort.Strings(bound)
	labels := map[string]string{}
	for _, k := range bound {
		if _, ok := labels[bindings[k]]; !ok {
			labels[bindings[k]] = k
		}
	}

	roots := map[string]int{}
	for _, e := range kalimba.Catalog() {
		if e.Kind == kalimba.KindBass {
			roots[e.Name] = e.Semitones[0]
		}
	}

	m := Model{
		ctx:      ctx,
		player:   player,
		bindings: bindings,
		labels:   labels,
		roots:    roots,
		active:   map[string]bool{},
		settings: kalimba.DefaultSettings(),
		dog:      newWatchdog(FirstRepeatTimeout, RepeatTimeout),
		help:     help.New(),
		now:      time.Now,
	}
	if s, err := player.Settings(ctx); err == nil {
		m.settings = s
	}
	return m
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), m.poll())
}

func tick() tea.Cmd {
	return tea.Tick(PollInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) poll() tea.Cmd {
	return func() tea.Msg {
		states, err := m.player.Targets(m.ctx)
		return statesMsg{states: states, err: err}
	}
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		for _, k := range m.dog.expired(time.Time(msg)) {
			if err := m.player.KeyUp(m.ctx, kalimba.KeyEvent{Key: k}); err != nil {
				return m.fail(err)
			}
		}
		return m, tea.Batch(tick(), m.poll())

	case statesMsg:
		if msg.err != nil {
			return m.fail(msg.err)
		}
		clear(m.active)
		for _, s := range msg.states {
			if s.Active {
				m.active[s.Name] = true
			}
		}
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)
	}

	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	if _, ok := m.bindings[k]; ok {
		repeat := m.dog.press(k, m.now())
		if _, err := m.player.KeyDown(m.ctx, kalimba.KeyEvent{Key: k, Repeat: repeat}); err != nil {
			return m.fail(err)
		}
		return m, m.poll()
	}

	switch {
	case key.Matches(msg, keys.Quit):
		m.dog.clear()
		_ = m.player.ReleaseAll(m.ctx)
		return m, tea.Quit
	case key.Matches(msg, keys.Release):
		m.dog.clear()
		if err := m.player.ReleaseAll(m.ctx); err != nil {
			return m.fail(err)
		}
		return m, m.poll()
	case key.Matches(msg, keys.Strum):
		return m.updateSettings(func(s *kalimba.Settings) { s.StrumStyle = s.StrumStyle.Next() })
	case key.Matches(msg, keys.BassDown):
		return m.updateSettings(func(s *kalimba.Settings) {
			s.LowestBassNote = max(s.LowestBassNote-1, minLowestBass)
		})
	case key.Matches(msg, keys.BassUp):
		return m.updateSettings(func(s *kalimba.Settings) {
			s.LowestBassNote = min(s.LowestBassNote+1, maxLowestBass)
		})
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m Model) updateSettings(fn func(*kalimba.Settings)) (tea.Model, tea.Cmd) {
	s, err := m.player.UpdateSettings(m.ctx, fn)
	if err != nil {
		return m.fail(err)
	}
	m.settings = s
	return m, nil
}

// fail records err; a stopped player ends the program
func (m Model) fail(err error) (tea.Model, tea.Cmd) {
	m.err = err
	if errors.Is(err, kalimba.ErrStopped) || errors.Is(err, context.Canceled) {
		return m, tea.Quit
	}
	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" AUTOKALIMBA "))
	s.WriteString("\n")

	grids := lipgloss.JoinHorizontal(lipgloss.Top,
		m.bassGrid(),
		"  ",
		m.chordGrid(),
	)
	s.WriteString(boxStyle.Render(grids))
	s.WriteString("\n")

	s.WriteString(statusStyle.Render(fmt.Sprintf("strum %s %v • lowest bass %s",
		m.settings.StrumStyle, m.settings.StrumDelay, voicing.NoteName(m.settings.LowestBassNote))))
	s.WriteString("\n")
	if m.err != nil {
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s", m.err.Error())))
		s.WriteString("\n")
	}
	s.WriteString(m.help.View(keys))

	return s.String()
}

func (m Model) bassGrid() string {
	return m.grid(kalimba.BassNames(), func(name string) (string, lipgloss.Style) {
		switch {
		case m.active[name]:
			return name, activeStyle
		case m.active[kalimba.SplitName(m.roots[name])]:
			return name + "/", splitStyle
		}
		return name, cellStyle
	})
}

func (m Model) chordGrid() string {
	return m.grid(kalimba.ChordNames(), func(name string) (string, lipgloss.Style) {
		label := name
		if l, ok := kalimba.ChordLabels[name]; ok {
			label = l
		}
		if m.active[name] {
			return label, activeStyle
		}
		return label, cellStyle
	})
}

// grid lays names out three to a row
func (m Model) grid(names []string, cell func(string) (string, lipgloss.Style)) string {
	var rows []string
	for i := 0; i < len(names); i += 3 {
		var cells []string
		for _, name := range names[i:min(i+3, len(names))] {
			label, style := cell(name)
			if k, ok := m.labels[name]; ok {
				label += " " + keyStyle.Render(k)
			}
			cells = append(cells, style.Render(label))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// Run starts the TUI application and blocks until it exits or ctx is done
func Run(ctx context.Context, player Player, bindings map[string]string) error {
	p := tea.NewProgram(New(ctx, player, bindings), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
