package tui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/relclock/internal/kepler"
	"github.com/san-kum/relclock/internal/relativity"
	"github.com/san-kum/relclock/internal/report"
)

const (
	frameInterval = 33 * time.Millisecond
	historyLen    = 120
	maxSpeed      = 64
)

// Track is a propagated orbit with its accumulated clock offset.
type Track struct {
	Name       string
	Elements   kepler.Elements
	Trajectory *kepler.Trajectory
	Offset     []float64 // s
}

// NewTrack propagates el over duration and attaches the clock offset.
func NewTrack(ctx context.Context, p relativity.Propagator, name string, el kepler.Elements, duration float64, samples int) (*Track, error) {
	off, err := relativity.ClockOffset(ctx, p, el, duration, samples)
	if err != nil {
		return nil, err
	}
	tr, err := p.Propagate(el, off.Times)
	if err != nil {
		return nil, err
	}
	return &Track{Name: name, Elements: el, Trajectory: tr, Offset: off.Offset}, nil
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Model steps through a Track one frame per tick.
type Model struct {
	track   *Track
	idx     int
	speed   int
	paused  bool
	history []float64

	width  int
	height int
}

func NewModel(track *Track) Model {
	return Model{
		track:   track,
		speed:   1,
		history: make([]float64, 0, historyLen),
		width:   80,
		height:  24,
	}
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if !m.paused {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case " ", "p":
		m.paused = !m.paused
	case "+", "=":
		m.speed = min(m.speed*2, maxSpeed)
	case "-", "_":
		m.speed = max(m.speed/2, 1)
	case "r":
		m.idx = 0
		m.history = m.history[:0]
	}
	return m, nil
}

func (m *Model) advance() {
	last := m.track.Trajectory.Len() - 1
	if m.idx >= last {
		return
	}
	m.idx = min(m.idx+m.speed, last)
	m.history = append(m.history, m.track.Offset[m.idx]*1e6)
	if len(m.history) > historyLen {
		m.history = m.history[len(m.history)-historyLen:]
	}
}

// Index is the trajectory sample currently shown.
func (m Model) Index() int { return m.idx }

func (m Model) Paused() bool { return m.paused }

func (m Model) View() string {
	var b strings.Builder

	status := report.StatusRunning.Render("● running")
	if m.paused {
		status = report.StatusPaused.Render("○ paused")
	} else if m.idx >= m.track.Trajectory.Len()-1 {
		status = report.StatusPaused.Render("■ done")
	}
	fmt.Fprintf(&b, "\n %s  %s  %s\n", report.Title.Render(m.track.Name), status, report.Subtle.Render(fmt.Sprintf("x%d", m.speed)))

	s := m.track.Trajectory.At(m.idx)
	duration := m.track.Trajectory.Times[m.track.Trajectory.Len()-1]
	barWidth := 36
	filled := 0
	if duration > 0 {
		filled = int(s.T / duration * float64(barWidth))
	}
	bar := strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)
	fmt.Fprintf(&b, " %s %s\n\n", bar, report.Subtle.Render(fmt.Sprintf("%.2fh/%.2fh", s.T/3600, duration/3600)))

	for _, line := range m.orbitCanvas().lines() {
		b.WriteString(" " + line + "\n")
	}

	fmt.Fprintf(&b, "\n %s  %s  %s\n",
		report.KV("radius", fmt.Sprintf("%.1f km", s.Radius/1e3)),
		report.KV("speed", fmt.Sprintf("%.3f km/s", s.Speed/1e3)),
		report.KV("clock offset", fmt.Sprintf("%.3f µs", m.track.Offset[m.idx]*1e6)),
	)
	if len(m.history) > 1 {
		fmt.Fprintf(&b, " %s %s\n", report.Label.Render("offset"), sparkline(m.history, 40))
	}
	b.WriteString("\n" + report.KeyHint.Render(" space pause  +/- speed  r restart  q quit") + "\n")
	return b.String()
}

// orbitCanvas projects the orbit onto the equatorial plane.
func (m Model) orbitCanvas() *canvas {
	cw := max(m.width-4, 40)
	ch := max(m.height-12, 12)
	c := newCanvas(cw, ch)

	extent := m.track.Elements.Apoapsis()
	scale := math.Min(float64(cw)/2-1, float64(ch)-1) / extent
	cx, cy := cw/2, ch/2
	project := func(p kepler.Vec3) (int, int) {
		return cx + int(math.Round(p[0]*scale)), cy - int(math.Round(p[1]*scale/2))
	}

	tr := m.track.Trajectory
	stride := max(tr.Len()/400, 1)
	for i := 0; i < tr.Len(); i += stride {
		x, y := project(tr.Position[i])
		c.set(x, y, '·')
	}

	c.ellipse(cx, cy, math.Max(1, relativity.REarth*scale), 'o')
	c.set(cx, cy, '+')

	x, y := project(tr.Position[m.idx])
	c.line(cx, cy, x, y, '.')
	c.set(x, y, '●')
	return c
}

// Run starts the live view in the alternate screen.
func Run(track *Track) error {
	p := tea.NewProgram(NewModel(track), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
