package ws

import "encoding/json"

// Event names on the real-time channel.
type Event string

const (
	EventMessage   Event = "message"   // server → viewer, once per connection
	EventSubscribe Event = "subscribe" // viewer → server, joins a named group
	EventScores    Event = "scores"    // server → viewer, JSON-encoded tally string
	EventError     Event = "error"     // server → viewer, ErrorPayload or null to clear
)

// OutboundFrame is the envelope for every server → viewer message.
type OutboundFrame struct {
	Event Event       `json:"event"`
	Seq   uint64      `json:"seq"`
	Data  interface{} `json:"data"`
}

// InboundFrame is the envelope for viewer → server messages.
type InboundFrame struct {
	Event Event           `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type WelcomePayload struct {
	Text string `json:"text"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

type SubscribePayload struct {
	Channel string `json:"channel"`
}

const welcomeText = "Welcome!"
