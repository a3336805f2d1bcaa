package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/calder-labs/motorcore/internal/motor"
)

const (
	historyCapacity = 600
	frameRate       = 30
	targetStepRPM   = 25
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(40)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	staleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

type history struct {
	target  []float64
	rpm     []float64
	command []float64
	current []float64
}

func (h *history) push(target, rpm, command, current float64) {
	h.target = append(h.target, target)
	h.rpm = append(h.rpm, rpm)
	h.command = append(h.command, command)
	h.current = append(h.current, current)
	if len(h.rpm) > historyCapacity {
		h.target = h.target[1:]
		h.rpm = h.rpm[1:]
		h.command = h.command[1:]
		h.current = h.current[1:]
	}
}

// Model is the live bench view: one chart per telemetry channel for the
// selected motor, target nudging on the arrow keys.
type Model struct {
	motors   []*motor.Motor
	targets  []float64
	hist     []history
	selected int
	paused   bool
	showHelp bool
	start    time.Time
}

func NewModel(motors []*motor.Motor) Model {
	targets := make([]float64, len(motors))
	for i, m := range motors {
		targets[i] = m.TargetRPM()
	}
	return Model{
		motors:  motors,
		targets: targets,
		hist:    make([]history, len(motors)),
		start:   time.Now(),
	}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab":
			if len(m.motors) > 0 {
				m.selected = (m.selected + 1) % len(m.motors)
			}
		case "up", "k":
			m.nudge(targetStepRPM)
		case "down", "j":
			m.nudge(-targetStepRPM)
		case "0":
			m.retarget(0)
		case " ":
			if m.paused {
				m.retarget(m.targets[m.selected])
			} else {
				m.motors[m.selected].Stop()
			}
			m.paused = !m.paused
		case "r":
			cur := m.motors[m.selected]
			cur.SetReversed(!cur.Reversed())
		case "s":
			for _, mm := range m.motors {
				mm.Stop()
			}
			m.paused = true
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		for i, mm := range m.motors {
			m.hist[i].push(mm.TargetRPM(), mm.RPM(), mm.LastCommandMv(), mm.Current())
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) nudge(delta float64) {
	cur := m.motors[m.selected]
	max := cur.Gearset().MaxRPM()
	t := m.targets[m.selected] + delta
	if t > max {
		t = max
	}
	if t < -max {
		t = -max
	}
	m.targets[m.selected] = t
	m.retarget(t)
	m.paused = false
}

func (m *Model) retarget(rpm float64) {
	// Ignoring the error: a closed handle just stops reacting to keys.
	_ = m.motors[m.selected].SetTargetRPM(rpm)
}

func (m Model) View() string {
	if len(m.motors) == 0 {
		return "no motors attached\n"
	}
	if m.showHelp {
		return helpView()
	}

	cur := m.motors[m.selected]
	h := m.hist[m.selected]

	var charts strings.Builder
	if len(h.rpm) > 1 {
		speed := asciigraph.PlotMany(
			[][]float64{h.target, h.rpm},
			asciigraph.Height(8), asciigraph.Width(60),
			asciigraph.Caption("speed (target / measured), RPM"),
			asciigraph.SeriesColors(asciigraph.Gray, asciigraph.Green),
		)
		charts.WriteString(graphStyle.Render(speed) + "\n")

		cmd := asciigraph.Plot(h.command,
			asciigraph.Height(5), asciigraph.Width(60),
			asciigraph.Caption("command, mV"))
		charts.WriteString(graphStyle.Render(cmd) + "\n")

		amps := asciigraph.Plot(h.current,
			asciigraph.Height(4), asciigraph.Width(60),
			asciigraph.Caption("current, mA"))
		charts.WriteString(graphStyle.Render(amps) + "\n")
	} else {
		charts.WriteString("collecting telemetry...\n")
	}

	var stats strings.Builder
	for i, mm := range m.motors {
		line := fmt.Sprintf("port %d  %s  %.0f RPM", mm.Port(), mm.Gearset(), mm.RPM())
		if i == m.selected {
			stats.WriteString(activeStyle.Render("> "+line) + "\n")
		} else {
			stats.WriteString("  " + labelStyle.Render(line) + "\n")
		}
	}
	stats.WriteString("\n")
	stats.WriteString(labelStyle.Render("Target") + valueStyle.Render(fmt.Sprintf("%.0f RPM", cur.TargetRPM())) + "\n")
	stats.WriteString(labelStyle.Render("Measured") + valueStyle.Render(fmt.Sprintf("%.1f RPM", cur.RPM())) + "\n")
	stats.WriteString(labelStyle.Render("Command") + valueStyle.Render(fmt.Sprintf("%.0f mV", cur.LastCommandMv())) + "\n")
	stats.WriteString(labelStyle.Render("Current") + valueStyle.Render(fmt.Sprintf("%.0f mA", cur.Current())) + "\n")
	stats.WriteString(labelStyle.Render("Temp") + valueStyle.Render(fmt.Sprintf("%.1f C", cur.Temperature())) + "\n")
	stats.WriteString(labelStyle.Render("Position") + valueStyle.Render(fmt.Sprintf("%.0f", cur.Position())) + "\n")
	if cur.Reversed() {
		stats.WriteString(labelStyle.Render("Reversed") + valueStyle.Render("yes") + "\n")
	}
	if cur.Stale() {
		stats.WriteString(staleStyle.Render("TELEMETRY STALE") + "\n")
	}
	if cur.IsSpinning() {
		stats.WriteString(labelStyle.Render("Status") + valueStyle.Render("on target") + "\n")
	}
	stats.WriteString(helpStyle.Render("\ntab:motor  up/down:target  0:zero\nspace:stop/go  r:reverse  s:stop all\nq:quit  ?:help"))

	left := lipgloss.NewStyle().Padding(1, 2).Render(charts.String())
	right := statsStyle.Render(stats.String())

	title := headerStyle.Render(fmt.Sprintf("MOTOR BENCH  t=%.1fs", time.Since(m.start).Seconds()))
	return title + "\n" + lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func helpView() string {
	return `
  keyboard

    tab        select next motor
    up / k     raise target 25 RPM
    down / j   lower target 25 RPM
    0          zero the target
    space      stop / resume the selected motor
    r          toggle reversed on the selected motor
    s          stop every motor
    ?          toggle this help
    q          quit

` + helpStyle.Render("  press ? to return")
}

// Run blocks on the live view until the user quits.
func Run(motors []*motor.Motor) error {
	p := tea.NewProgram(NewModel(motors))
	_, err := p.Run()
	return err
}
