package status

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/catsvsdogs/results/internal/client"
	"github.com/catsvsdogs/results/internal/theme"
)

// Model holds the status bar state.
type Model struct {
	Connected bool
	Ready     bool // startup finished; live events are being applied
	Total     int
	VoterID   string
	LastVote  string
	Err       *client.ErrorPayload
	Width     int
}

// New creates a status bar model.
func New() Model {
	return Model{}
}

// TotalText renders the vote count the way the web client does.
func TotalText(total int) string {
	switch total {
	case 0:
		return "No votes yet"
	case 1:
		return "1 vote"
	default:
		return fmt.Sprintf("%d votes", total)
	}
}

// View renders the status bar, followed by the error banner when an
// upstream error is active.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	var connStr string
	switch {
	case !m.Connected:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("○ Connecting...")
	case !m.Ready:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorWarning).Render("◌ Starting...")
	default:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("● Connected")
	}

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := connStr + sep + TotalText(m.Total)
	if m.LastVote != "" {
		content += sep + "your vote: " + theme.StyleSelected.Render(m.LastVote)
	}
	if m.VoterID != "" {
		content += sep + theme.StyleDimmed.Render(shortID(m.VoterID))
	}

	bar := lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)

	if m.Err == nil {
		return bar
	}
	banner := theme.StyleErrorBanner.Width(width).Render(m.Err.Message)
	detail := theme.StyleDimmed.Render("  " + m.Err.Detail)
	return lipgloss.JoinVertical(lipgloss.Left, bar, banner, detail)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[len(id)-8:]
	}
	return id
}
