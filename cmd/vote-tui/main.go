package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/url"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/catsvsdogs/results/internal/app"
	"github.com/catsvsdogs/results/internal/client"
)

const votesAPIPort = "5001"

func main() {
	wsURL := flag.String("url", "ws://127.0.0.1:8080/ws", "WebSocket URL of the results relay")
	votesAPI := flag.String("votes-api", "", "Votes API base URL (default: relay host on port 5001)")
	stateDir := flag.String("state-dir", "", "Directory for the voter identity (default: $XDG_STATE_HOME/vote-tui)")
	channel := flag.String("channel", "", "Named group to join after connecting")
	flag.Parse()

	if path := os.Getenv("VOTE_TUI_LOG"); path != "" {
		f, err := tea.LogToFile(path, "vote-tui")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	apiBase := *votesAPI
	if apiBase == "" {
		apiBase = deriveVotesAPIBase(*wsURL)
	}

	ws := client.NewWSClient(*wsURL)
	defer ws.Close()

	m := app.New(ws, client.NewVotesAPI(apiBase), client.NewIdentityStore(*stateDir),
		app.WithChannel(*channel))
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// deriveVotesAPIBase converts ws://host:port/ws → http://host:5001
func deriveVotesAPIBase(wsURL string) string {
	u, err := url.Parse(wsURL)
	if err != nil || u.Hostname() == "" {
		return "http://127.0.0.1:" + votesAPIPort
	}
	return "http://" + net.JoinHostPort(u.Hostname(), votesAPIPort)
}
