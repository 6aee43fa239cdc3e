// Package results renders the two-option split bar. The bar eases towards
// the latest percentages with a critically damped harmonica spring.
package results

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"

	"github.com/catsvsdogs/results/internal/client"
	"github.com/catsvsdogs/results/internal/tally"
	"github.com/catsvsdogs/results/internal/theme"
)

const (
	fps          = 60
	angularFreq  = 6.0
	dampingRatio = 1.0
	settleEps    = 0.05
)

// FrameInterval is the animation tick period.
const FrameInterval = time.Second / fps

// Model holds the bar state. Target is the display split of the last tally;
// pos is where bar A's edge currently is, in percent.
type Model struct {
	Labels   client.Labels
	Tally    tally.Tally
	Target   tally.Percentages
	LastVote string
	Width    int

	pos    float64
	vel    float64
	spring harmonica.Spring
}

// New creates a 50/50 bar at rest.
func New() Model {
	return Model{
		Labels: client.DefaultLabels,
		Target: tally.Percentages{A: 50, B: 50},
		pos:    50,
		spring: harmonica.NewSpring(harmonica.FPS(fps), angularFreq, dampingRatio),
	}
}

// SetTally replaces the displayed tally and retargets the bar.
func (m *Model) SetTally(t tally.Tally) {
	m.Tally = t
	m.Target = t.Percent()
}

// Step advances the animation by one frame. It reports whether the bar is
// still moving.
func (m *Model) Step() bool {
	target := float64(m.Target.A)
	if m.Settled() {
		m.pos, m.vel = target, 0
		return false
	}
	m.pos, m.vel = m.spring.Update(m.pos, m.vel, target)
	if m.Settled() {
		m.pos, m.vel = target, 0
		return false
	}
	return true
}

// Settled reports whether the bar has reached its target.
func (m Model) Settled() bool {
	return math.Abs(m.pos-float64(m.Target.A)) < settleEps && math.Abs(m.vel) < settleEps
}

// Position returns bar A's current width in percent.
func (m Model) Position() float64 {
	return m.pos
}

// View renders the labels, the split bar and the percentages.
func (m Model) View() string {
	width := m.Width - 4
	if width < 20 {
		width = 20
	}

	aw := int(math.Round(m.pos / 100 * float64(width)))
	aw = max(0, min(width, aw))

	barA := lipgloss.NewStyle().Background(theme.ColorOptionA).Render(strings.Repeat(" ", aw))
	barB := lipgloss.NewStyle().Background(theme.ColorOptionB).Render(strings.Repeat(" ", width-aw))

	left := m.optionLabel(tally.OptionA, m.Labels.A, m.Target.A)
	right := m.optionLabel(tally.OptionB, m.Labels.B, m.Target.B)
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	header := left + strings.Repeat(" ", gap) + right

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		barA+barB,
		barA+barB,
	)
}

func (m Model) optionLabel(option, label string, pct int) string {
	style := lipgloss.NewStyle().Bold(true).Foreground(theme.OptionColor(option))
	text := fmt.Sprintf("[%s] %s %d%%", option, label, pct)
	if m.LastVote == option {
		text += " ✓"
	}
	return style.Render(text)
}
