// Package app is the vote TUI's root Bubble Tea model. All view state is
// mutated in Update; network and disk work runs in commands.
package app

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/catsvsdogs/results/internal/client"
	"github.com/catsvsdogs/results/internal/tally"
	"github.com/catsvsdogs/results/internal/theme"
	"github.com/catsvsdogs/results/internal/views/eventlog"
	"github.com/catsvsdogs/results/internal/views/results"
	"github.com/catsvsdogs/results/internal/views/status"
)

// Relay is the real-time results channel.
type Relay interface {
	Listen(ctx context.Context) tea.Cmd
	ReadLoop(ctx context.Context) tea.Cmd
	Subscribe(channel string) error
}

// Votes is the votes API.
type Votes interface {
	Options(ctx context.Context) (client.Labels, error)
	Vote(ctx context.Context, option, voterID string) (*client.VoteResult, error)
}

// Identities persists the local voter.
type Identities interface {
	LoadOrCreate() (client.Identity, error)
	SaveVote(option string) error
}

// Overlay identifies which modal is active.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayLog
)

type startupDoneMsg struct {
	identity    client.Identity
	identityErr error
	labels      client.Labels
	optionsErr  error
}

type voteResultMsg struct {
	gen     uint64
	option  string
	err     error
	saveErr error
}

type revertMsg struct{ gen uint64 }

type animFrameMsg struct{}

// Model is the root Bubble Tea model.
type Model struct {
	relay  Relay
	votes  Votes
	ids    Identities
	ctx    context.Context
	cancel context.CancelFunc

	keys    KeyMap
	width   int
	height  int
	overlay Overlay
	channel string

	// Startup: events are applied only once ready.
	connected bool
	starting  bool
	ready     bool
	identity  client.Identity

	voting    Voting
	animating bool

	statusBar status.Model
	bars      results.Model
	log       eventlog.Model
}

// Option configures a Model.
type Option func(*Model)

// WithChannel joins the named group after each connect.
func WithChannel(channel string) Option {
	return func(m *Model) { m.channel = channel }
}

// New creates the root model.
func New(relay Relay, votes Votes, ids Identities, opts ...Option) Model {
	ctx, cancel := context.WithCancel(context.Background())
	m := Model{
		relay:     relay,
		votes:     votes,
		ids:       ids,
		ctx:       ctx,
		cancel:    cancel,
		keys:      DefaultKeyMap(),
		statusBar: status.New(),
		bars:      results.New(),
		log:       eventlog.New(),
	}
	for _, o := range opts {
		o(&m)
	}
	return m
}

// Init starts the relay connection.
func (m Model) Init() tea.Cmd {
	return m.relay.Listen(m.ctx)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.bars.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case client.WSConnectedMsg:
		m.connected = true
		m.statusBar.Connected = true
		m.log.AddConnection("connected")
		if m.channel != "" {
			if err := m.relay.Subscribe(m.channel); err != nil {
				m.log.AddConnection("subscribe failed: " + err.Error())
			} else {
				m.log.AddConnection("subscribed to " + m.channel)
			}
		}
		return m, m.relay.ReadLoop(m.ctx)

	case client.WSDisconnectedMsg:
		m.connected = false
		m.statusBar.Connected = false
		if msg.Err != nil {
			m.log.AddConnection("disconnected: " + msg.Err.Error())
		}
		return m, m.relay.Listen(m.ctx)

	case client.WelcomeMsg:
		m.log.AddConnection("welcome: " + msg.Text)
		if m.ready || m.starting {
			return m, m.relay.ReadLoop(m.ctx)
		}
		m.starting = true
		return m, tea.Batch(m.relay.ReadLoop(m.ctx), m.startup())

	case startupDoneMsg:
		m.starting = false
		m.ready = true
		m.statusBar.Ready = true
		m.identity = msg.identity
		m.statusBar.VoterID = msg.identity.VoterID
		m.statusBar.LastVote = msg.identity.LastVote
		m.bars.LastVote = msg.identity.LastVote
		m.bars.Labels = msg.labels
		if msg.identityErr != nil {
			m.log.AddConnection("identity unavailable: " + msg.identityErr.Error())
		}
		if msg.optionsErr != nil {
			m.log.AddConnection("using default labels: " + msg.optionsErr.Error())
		}
		return m, nil

	case client.ScoresMsg:
		if !m.ready {
			return m, m.relay.ReadLoop(m.ctx)
		}
		m.bars.SetTally(msg.Tally)
		m.statusBar.Total = msg.Tally.Total()
		m.log.AddScores(msg.Tally)
		anim := m.animate()
		return m, tea.Batch(m.relay.ReadLoop(m.ctx), anim)

	case client.ErrorMsg:
		if !m.ready {
			return m, m.relay.ReadLoop(m.ctx)
		}
		m.statusBar.Err = msg.Err
		m.log.AddError(msg.Err)
		return m, m.relay.ReadLoop(m.ctx)

	case voteResultMsg:
		return m.handleVoteResult(msg)

	case revertMsg:
		m.voting.Revert(msg.gen)
		return m, nil

	case animFrameMsg:
		if m.bars.Step() {
			return m, frameTick()
		}
		m.animating = false
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.cancel()
		return m, tea.Quit
	}

	if m.overlay == OverlayLog {
		switch {
		case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Log):
			m.overlay = OverlayNone
		case key.Matches(msg, m.keys.Up):
			m.log.ScrollUp(1)
		case key.Matches(msg, m.keys.Down):
			m.log.ScrollDown(1)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.VoteA):
		return m.submitVote(tally.OptionA)
	case key.Matches(msg, m.keys.VoteB):
		return m.submitVote(tally.OptionB)
	case key.Matches(msg, m.keys.Log):
		m.overlay = OverlayLog
	}
	return m, nil
}

func (m Model) submitVote(option string) (tea.Model, tea.Cmd) {
	if !m.ready {
		return m, nil
	}
	if !m.voting.Begin() {
		return m, nil
	}
	gen := m.voting.Gen()
	votes, ids, ctx, voterID := m.votes, m.ids, m.ctx, m.identity.VoterID
	return m, func() tea.Msg {
		res := voteResultMsg{gen: gen, option: option}
		if _, err := votes.Vote(ctx, option, voterID); err != nil {
			res.err = err
			return res
		}
		res.saveErr = ids.SaveVote(option)
		return res
	}
}

func (m Model) handleVoteResult(msg voteResultMsg) (tea.Model, tea.Cmd) {
	var (
		delay time.Duration
		ok    bool
	)
	if msg.err != nil {
		delay, ok = m.voting.Fail(msg.gen)
	} else {
		delay, ok = m.voting.Succeed(msg.gen)
		m.identity.LastVote = msg.option
		m.statusBar.LastVote = msg.option
		m.bars.LastVote = msg.option
		if msg.saveErr != nil {
			m.log.AddConnection("saving vote: " + msg.saveErr.Error())
		}
	}
	if !ok {
		return m, nil
	}
	m.log.AddVote(msg.option, msg.err)
	gen := msg.gen
	return m, tea.Tick(delay, func(time.Time) tea.Msg { return revertMsg{gen: gen} })
}

// startup loads the identity, then the option labels. Option failures fall
// back to the default labels without retrying.
func (m Model) startup() tea.Cmd {
	ids, votes, ctx := m.ids, m.votes, m.ctx
	return func() tea.Msg {
		var done startupDoneMsg
		done.identity, done.identityErr = ids.LoadOrCreate()
		done.labels, done.optionsErr = votes.Options(ctx)
		if done.optionsErr != nil {
			done.labels = client.DefaultLabels
		}
		return done
	}
}

func (m *Model) animate() tea.Cmd {
	if m.animating || m.bars.Settled() {
		return nil
	}
	m.animating = true
	return frameTick()
}

func frameTick() tea.Cmd {
	return tea.Tick(results.FrameInterval, func(time.Time) tea.Msg { return animFrameMsg{} })
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}
	if m.overlay == OverlayLog {
		return m.log.View(m.width, m.height)
	}

	sections := []string{m.statusBar.View(), ""}
	if m.ready {
		sections = append(sections, theme.StyleBorder.Width(m.width-2).Render(m.bars.View()), m.votingLine())
	} else {
		sections = append(sections, theme.StyleDimmed.Render("  Waiting for the results relay..."))
	}
	sections = append(sections, "",
		theme.StyleDimmed.Render("  a:vote "+m.bars.Labels.A+"  b:vote "+m.bars.Labels.B+"  l:event log  q:quit"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) votingLine() string {
	text := m.voting.State().Message()
	if text == "" {
		return ""
	}
	var color lipgloss.Color
	switch m.voting.State() {
	case Succeeded:
		color = theme.ColorSuccess
	case Failed:
		color = theme.ColorFailure
	default:
		color = theme.ColorProgress
	}
	return lipgloss.NewStyle().Foreground(color).Render("  " + text)
}
