package eventlog

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catsvsdogs/results/internal/client"
	"github.com/catsvsdogs/results/internal/tally"
)

func fixedClock() func() time.Time {
	t0 := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return t0.Add(time.Duration(n) * time.Second)
	}
}

func newTestLog() Model {
	m := New()
	m.now = fixedClock()
	return m
}

func TestAddScores_RecordsDelta(t *testing.T) {
	m := newTestLog()
	m.AddScores(tally.Tally{A: 3, B: 1})
	m.AddScores(tally.Tally{A: 5, B: 1})

	require.Len(t, m.Entries, 2)
	first, second := m.Entries[0], m.Entries[1]
	assert.Equal(t, 0, first.DeltaA, "the first tally has nothing to compare against")
	assert.Equal(t, 2, second.DeltaA)
	assert.Equal(t, 0, second.DeltaB)

	v := m.View(100, 30)
	assert.Contains(t, v, "a=5 (+2)  b=1  total 6")
}

func TestAddScores_FoldsIdenticalTallies(t *testing.T) {
	m := newTestLog()
	for i := 0; i < 5; i++ {
		m.AddScores(tally.Tally{A: 2, B: 2})
	}

	require.Len(t, m.Entries, 1)
	assert.Equal(t, 4, m.Entries[0].Repeat)
	assert.Equal(t, "12:00:05", m.Entries[0].Time.Format("15:04:05"), "folded row shows the latest arrival")
	assert.Contains(t, m.View(100, 30), "×5")
	assert.Contains(t, m.Summary(), "5 tallies")
}

func TestAddScores_ErrorBreaksFold(t *testing.T) {
	m := newTestLog()
	m.AddScores(tally.Tally{A: 1, B: 1})
	m.AddError(&client.ErrorPayload{Message: "API Error: Status 502"})
	m.AddScores(tally.Tally{A: 1, B: 1})

	require.Len(t, m.Entries, 3)
	assert.Equal(t, KindScores, m.Entries[2].Kind)
	assert.Equal(t, 0, m.Entries[2].DeltaA)
}

func TestAddError_DetailOnSecondLine(t *testing.T) {
	m := newTestLog()
	m.AddError(&client.ErrorPayload{
		Message: "Connection Error: connection refused",
		Detail:  "Failed to connect to votes API at votes:5000",
	})
	m.AddError(nil)

	require.Len(t, m.Entries, 2)
	assert.Equal(t, KindErrorCleared, m.Entries[1].Kind)

	lines := strings.Split(ansi.Strip(m.View(120, 30)), "\n")
	msgLine := -1
	for i, l := range lines {
		if strings.Contains(l, "Connection Error: connection refused") {
			msgLine = i
		}
	}
	require.NotEqual(t, -1, msgLine)
	assert.Contains(t, lines[msgLine+1], "↳ Failed to connect to votes API at votes:5000")
	assert.Contains(t, ansi.Strip(m.View(120, 30)), "upstream recovered")
}

func TestAddError_MultilineBodyFlattened(t *testing.T) {
	m := newTestLog()
	m.AddError(&client.ErrorPayload{Message: "API Error: Status 500", Detail: "<html>\n  <body>oops</body>\n</html>"})
	assert.Contains(t, ansi.Strip(m.View(120, 30)), "↳ <html> <body>oops</body> </html>")
}

func TestAddVote_Outcomes(t *testing.T) {
	m := newTestLog()
	m.AddVote("a", nil)
	m.AddVote("b", errors.New("POST /vote: 500 Database connection failed"))

	require.Len(t, m.Entries, 2)
	assert.True(t, m.Entries[0].VoteOK)
	assert.False(t, m.Entries[1].VoteOK)

	v := ansi.Strip(m.View(120, 30))
	assert.Contains(t, v, "voted a: recorded")
	assert.Contains(t, v, "voted b: failed")
	assert.Contains(t, v, "↳ POST /vote: 500 Database connection failed")
	assert.Contains(t, m.Summary(), "2 votes (1 failed)")
}

func TestView_TruncatesByDisplayWidth(t *testing.T) {
	m := newTestLog()
	m.AddError(&client.ErrorPayload{
		Message: "API Error: Status 500",
		Detail:  strings.Repeat("猫犬", 80),
	})

	for _, line := range strings.Split(m.View(60, 20), "\n") {
		assert.True(t, utf8.ValidString(line), "line is not valid UTF-8: %q", line)
		assert.LessOrEqual(t, ansi.StringWidth(line), 60)
	}
	assert.Contains(t, m.View(60, 20), "…")
}

func TestMaxEntries(t *testing.T) {
	m := newTestLog()
	for i := 0; i < maxEntries+50; i++ {
		m.AddScores(tally.Tally{A: i})
	}
	assert.Len(t, m.Entries, maxEntries)
	assert.Equal(t, maxEntries+49, m.Entries[maxEntries-1].Tally.A)
}

func TestScrolling(t *testing.T) {
	m := newTestLog()
	for i := 0; i < 20; i++ {
		m.AddConnection(fmt.Sprint("note ", i))
	}
	m.ScrollUp(5)
	assert.Equal(t, 5, m.Offset)
	assert.Contains(t, m.View(80, 12), "5 newer")
	assert.NotContains(t, m.View(80, 12), "note 19")

	m.ScrollDown(10)
	assert.Equal(t, 0, m.Offset)

	m.ScrollUp(100)
	assert.Equal(t, 19, m.Offset)

	m.AddConnection("connected")
	assert.Equal(t, 0, m.Offset, "a new row scrolls back to the bottom")
}

func TestView_Empty(t *testing.T) {
	assert.Contains(t, New().View(80, 20), "No events received yet.")
}
