// Package tui provides the terminal front panel simulator for elbow
package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/james-see/elbow/pkg/device"
	"github.com/james-see/elbow/pkg/input"
	"github.com/james-see/elbow/pkg/pattern"
	"github.com/james-see/elbow/pkg/ticks"
)

// Acid-inspired color scheme
var (
	acidGreen  = lipgloss.Color("#39FF14")
	acidYellow = lipgloss.Color("#FFFF00")
	silverGray = lipgloss.Color("#C0C0C0")
	darkGray   = lipgloss.Color("#333333")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(acidGreen).
			Background(darkGray).
			Padding(0, 2).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(silverGray).
			Width(10)

	valueStyle = lipgloss.NewStyle().
			Foreground(acidYellow).
			Bold(true)

	litStyle = lipgloss.NewStyle().
			Foreground(acidGreen).
			Bold(true)

	darkStyle = lipgloss.NewStyle().
			Foreground(darkGray)

	redLit = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FF0000")).
		Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(acidGreen).
			Padding(1, 2)
)

// refresh is how often the panel is redrawn
const refresh = 40 * time.Millisecond

// Options are the simulator timings
type Options struct {
	Tick time.Duration // millisecond counter period
	Poll time.Duration // control loop period
	Tap  time.Duration // how long a tap keeps a button down
	Hold time.Duration // how long a hold keeps a button down
}

type keyMap struct {
	Tap      key.Binding
	Hold     key.Binding
	Up       key.Binding
	Down     key.Binding
	HoldUp   key.Binding
	HoldDown key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var tapKeys = []string{"1", "2", "3", "4", "5", "6"}
var holdKeys = []string{"!", "@", "#", "$", "%", "^"}

func newKeyMap() keyMap {
	return keyMap{
		Tap:      key.NewBinding(key.WithKeys(tapKeys...), key.WithHelp("1-6", "tap pattern")),
		Hold:     key.NewBinding(key.WithKeys(holdKeys...), key.WithHelp("shift+1-6", "hold pattern")),
		Up:       key.NewBinding(key.WithKeys("="), key.WithHelp("=", "tap up")),
		Down:     key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "tap down")),
		HoldUp:   key.NewBinding(key.WithKeys("+"), key.WithHelp("+", "hold up")),
		HoldDown: key.NewBinding(key.WithKeys("_"), key.WithHelp("_", "hold down")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tap, k.Hold, k.Up, k.Down, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tap, k.Hold},
		{k.Up, k.Down, k.HoldUp, k.HoldDown},
		{k.Help, k.Quit},
	}
}

// Model represents the TUI model
type Model struct {
	dev     *device.Device
	panel   *Panel
	opts    Options
	keys    keyMap
	help    help.Model
	spinner spinner.Model
	last    string
	width   int
}

type frameMsg time.Time

func nextFrame() tea.Cmd {
	return tea.Tick(refresh, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// New creates the simulator model for a running device
func New(dev *device.Device, panel *Panel, opts Options) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(acidGreen)

	return Model{
		dev:     dev,
		panel:   panel,
		opts:    opts,
		keys:    newKeyMap(),
		help:    help.New(),
		spinner: s,
	}
}

// Init starts the redraw ticker and the spinner
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, nextFrame())
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)

	case frameMsg:
		return m, nextFrame()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Tap):
		m.press(indexOf(tapKeys, msg.String()), m.opts.Tap, "tap")
	case key.Matches(msg, m.keys.Hold):
		m.press(indexOf(holdKeys, msg.String()), m.opts.Hold, "hold")
	case key.Matches(msg, m.keys.Up):
		m.press(input.AdjustUp, m.opts.Tap, "tap")
	case key.Matches(msg, m.keys.Down):
		m.press(input.AdjustDown, m.opts.Tap, "tap")
	case key.Matches(msg, m.keys.HoldUp):
		m.press(input.AdjustUp, m.opts.Hold, "hold")
	case key.Matches(msg, m.keys.HoldDown):
		m.press(input.AdjustDown, m.opts.Hold, "hold")
	}
	return m, nil
}

func (m *Model) press(ch int, d time.Duration, gesture string) {
	if ch < 0 {
		return
	}
	m.panel.Press(ch, d)
	m.last = fmt.Sprintf("%s %s", gesture, buttonName(ch))
}

func indexOf(keys []string, k string) int {
	for i, s := range keys {
		if s == k {
			return i
		}
	}
	return -1
}

func buttonName(ch int) string {
	switch ch {
	case input.AdjustUp:
		return "up"
	case input.AdjustDown:
		return "down"
	default:
		return fmt.Sprintf("pattern %d", ch+1)
	}
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(asciiLogo())
	s.WriteString("\n")
	s.WriteString(m.viewPanel())
	s.WriteString("\n")
	s.WriteString(m.help.View(m.keys))

	return s.String()
}

func (m Model) viewPanel() string {
	st := m.dev.State()
	lit, period := m.dev.Indicator()

	var s strings.Builder

	title := fmt.Sprintf(" %s ", strings.ToUpper(st.Mode.String()))
	if st.Mode == device.Playback {
		title = fmt.Sprintf(" %s %s", strings.ToUpper(st.Mode.String()), m.spinner.View())
	}
	s.WriteString(titleStyle.Render(title))
	s.WriteString("\n\n")

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label))
		s.WriteString(valueStyle.Render(value))
		s.WriteString("\n")
	}
	row("Pattern", fmt.Sprintf("%d", st.Pattern+1))
	row("Frame", fmt.Sprintf("%d / %d", st.Cursor+1, st.MarkerPos+1))
	row("Style", st.Settings.Style.String())
	row("Delay", fmt.Sprintf("%d ms", st.Settings.Delay))
	s.WriteString("\n")

	s.WriteString(labelStyle.Render("Lamps"))
	s.WriteString(renderLamps(m.panel.Lamps()))
	s.WriteString("\n")

	s.WriteString(labelStyle.Render("Status"))
	s.WriteString(renderLED(lit, period))
	s.WriteString("\n")

	s.WriteString(labelStyle.Render("Buttons"))
	for ch := 0; ch < input.NumChannels; ch++ {
		name := fmt.Sprintf("%d", ch+1)
		switch ch {
		case input.AdjustUp:
			name = "+"
		case input.AdjustDown:
			name = "-"
		}
		if m.dev.Active(ch) {
			s.WriteString(litStyle.Render("[" + name + "]"))
		} else {
			s.WriteString(darkStyle.Render(" " + name + " "))
		}
	}
	s.WriteString("\n")

	if m.last != "" {
		s.WriteString("\n")
		s.WriteString(darkStyle.Render(m.last))
	}

	return boxStyle.Render(s.String())
}

func renderLamps(bits uint8) string {
	var s strings.Builder
	for ch := 0; ch < pattern.NumLamps; ch++ {
		if bits&(1<<ch) != 0 {
			s.WriteString(litStyle.Render("● "))
		} else {
			s.WriteString(darkStyle.Render("○ "))
		}
	}
	return s.String()
}

func renderLED(lit bool, period ticks.Millis) string {
	dot := darkStyle.Render("○")
	if lit {
		dot = redLit.Render("●")
	}
	if period == 0 {
		return dot
	}
	return fmt.Sprintf("%s %s", dot, darkStyle.Render(fmt.Sprintf("blink %d ms", period)))
}

func asciiLogo() string {
	logo := `
   _____ _     ____   _____        __
  | ____| |   | __ ) / _ \ \      / /
  |  _| | |   |  _ \| | | \ \ /\ / /
  | |___| |___| |_) | |_| |\ V  V /
  |_____|_____|____/ \___/  \_/\_/
`
	return lipgloss.NewStyle().Foreground(acidGreen).Render(logo)
}

// Run starts the tick counter and the control loop, then runs the simulator
// until the user quits. The loop is stopped before Run returns.
func Run(dev *device.Device, counter *ticks.Counter, panel *Panel, opts Options) error {
	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		counter.Run(ctx, opts.Tick)
	}()
	go func() {
		defer wg.Done()
		dev.Run(ctx, panel, opts.Poll)
	}()

	p := tea.NewProgram(New(dev, panel, opts), tea.WithAltScreen())
	_, err := p.Run()

	cancel()
	wg.Wait()
	return err
}
