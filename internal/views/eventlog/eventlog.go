// Package eventlog keeps a capped history of what the relay and the votes
// API told this client, rendered as an overlay. Repeated identical tallies
// collapse into one row.
package eventlog

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/catsvsdogs/results/internal/client"
	"github.com/catsvsdogs/results/internal/tally"
	"github.com/catsvsdogs/results/internal/theme"
)

const maxEntries = 200

// Kind classifies a row.
type Kind int

const (
	KindConnection Kind = iota
	KindScores
	KindError
	KindErrorCleared
	KindVote
)

func (k Kind) tag() string {
	switch k {
	case KindConnection:
		return "conn"
	case KindScores:
		return "score"
	case KindError:
		return "error"
	case KindErrorCleared:
		return "clear"
	case KindVote:
		return "vote"
	default:
		return "?"
	}
}

// Entry is one row. Only the fields for its Kind are set.
type Entry struct {
	Time time.Time
	Kind Kind
	Text string // connection notes

	Tally  tally.Tally
	DeltaA int
	DeltaB int
	Repeat int // identical tallies folded into this row, beyond the first

	Message string // upstream error
	Detail  string

	Option string // vote
	VoteOK bool
	Reason string
}

// Model holds the log and its scroll position.
type Model struct {
	Entries []Entry
	Offset  int // rows scrolled up from the bottom

	last     *tally.Tally
	scores   int
	errors   int
	votes    int
	failures int
	now      func() time.Time
}

// New creates an empty log.
func New() Model {
	return Model{now: time.Now}
}

// AddConnection records a connection-level note.
func (m *Model) AddConnection(text string) {
	m.push(Entry{Kind: KindConnection, Text: text})
}

// AddScores records a tally with its change since the previous one. A tally
// equal to the previous row extends that row instead.
func (m *Model) AddScores(t tally.Tally) {
	m.scores++
	if n := len(m.Entries); n > 0 && m.last != nil && *m.last == t && m.Entries[n-1].Kind == KindScores {
		m.Entries[n-1].Repeat++
		m.Entries[n-1].Time = m.clock()
		return
	}
	e := Entry{Kind: KindScores, Tally: t}
	if m.last != nil {
		e.DeltaA = t.A - m.last.A
		e.DeltaB = t.B - m.last.B
	}
	m.last = &t
	m.push(e)
}

// AddError records an upstream error report; nil records the clear.
func (m *Model) AddError(p *client.ErrorPayload) {
	if p == nil {
		m.push(Entry{Kind: KindErrorCleared})
		return
	}
	m.errors++
	m.push(Entry{Kind: KindError, Message: p.Message, Detail: p.Detail})
}

// AddVote records the outcome of a submission. err is nil on success.
func (m *Model) AddVote(option string, err error) {
	m.votes++
	e := Entry{Kind: KindVote, Option: option, VoteOK: err == nil}
	if err != nil {
		m.failures++
		e.Reason = err.Error()
	}
	m.push(e)
}

func (m *Model) push(e Entry) {
	e.Time = m.clock()
	m.Entries = append(m.Entries, e)
	if len(m.Entries) > maxEntries {
		m.Entries = m.Entries[len(m.Entries)-maxEntries:]
	}
	m.Offset = 0
}

func (m *Model) clock() time.Time {
	if m.now == nil {
		return time.Now()
	}
	return m.now()
}

// ScrollUp moves the viewport up.
func (m *Model) ScrollUp(n int) {
	m.Offset = min(m.Offset+n, max(len(m.Entries)-1, 0))
}

// ScrollDown moves the viewport down.
func (m *Model) ScrollDown(n int) {
	m.Offset = max(m.Offset-n, 0)
}

// Summary is the one-line count shown in the overlay title.
func (m Model) Summary() string {
	return fmt.Sprintf("%d tallies  %d errors  %d votes (%d failed)",
		m.scores, m.errors, m.votes, m.failures)
}

// View renders the log as an overlay panel.
func (m Model) View(width, height int) string {
	innerW := max(width-8, 24)
	visibleRows := max(height-8, 3)

	title := theme.StyleHeader.Render(" EVENT LOG ") + " " + theme.StyleDimmed.Render(m.Summary())
	help := theme.StyleDimmed.Render("j/k:scroll  esc:close")

	panel := lipgloss.NewStyle().
		Width(innerW + 4).
		Padding(1, 2).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder)

	if len(m.Entries) == 0 {
		body := theme.StyleDimmed.Render("No events received yet.")
		return panel.Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", help))
	}

	end := len(m.Entries) - m.Offset
	var lines []string
	for i := end - 1; i >= 0 && len(lines) < visibleRows; i-- {
		row := m.renderEntry(m.Entries[i], innerW)
		lines = append(row, lines...)
	}
	if len(lines) > visibleRows {
		lines = lines[len(lines)-visibleRows:]
	}

	footer := help
	if m.Offset > 0 {
		footer = theme.StyleDimmed.Render(fmt.Sprintf("↓ %d newer  ", m.Offset)) + help
	}
	return panel.Render(lipgloss.JoinVertical(lipgloss.Left, title, "", strings.Join(lines, "\n"), "", footer))
}

// renderEntry returns the entry's lines, each cut to width display cells.
func (m Model) renderEntry(e Entry, width int) []string {
	prefix := theme.StyleDimmed.Render(e.Time.Format("15:04:05")) + " " +
		lipgloss.NewStyle().Foreground(tagColor(e)).Width(6).Render(e.Kind.tag())

	var head, second string
	switch e.Kind {
	case KindConnection:
		head = e.Text
	case KindScores:
		head = fmt.Sprintf("a=%d%s  b=%d%s  total %d",
			e.Tally.A, signed(e.DeltaA), e.Tally.B, signed(e.DeltaB), e.Tally.Total())
		if e.Repeat > 0 {
			head += theme.StyleDimmed.Render(fmt.Sprintf("  ×%d", e.Repeat+1))
		}
	case KindError:
		head = e.Message
		if e.Detail != "" {
			second = "    ↳ " + oneLine(e.Detail)
		}
	case KindErrorCleared:
		head = "upstream recovered"
	case KindVote:
		if e.VoteOK {
			head = "voted " + e.Option + ": recorded"
		} else {
			head = "voted " + e.Option + ": failed"
			second = "    ↳ " + oneLine(e.Reason)
		}
	}

	lines := []string{ansi.Truncate(prefix+" "+oneLine(head), width, "…")}
	if second != "" {
		lines = append(lines, ansi.Truncate(theme.StyleDimmed.Render(second), width, "…"))
	}
	return lines
}

func tagColor(e Entry) lipgloss.Color {
	switch e.Kind {
	case KindScores:
		return theme.ColorOptionA
	case KindError:
		return theme.ColorDanger
	case KindErrorCleared:
		return theme.ColorHealthy
	case KindVote:
		if e.VoteOK {
			return theme.ColorSuccess
		}
		return theme.ColorFailure
	default:
		return theme.ColorDimmed
	}
}

func signed(d int) string {
	if d == 0 {
		return ""
	}
	return fmt.Sprintf(" (%+d)", d)
}

// oneLine flattens multi-line upstream bodies so a row stays one row.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
