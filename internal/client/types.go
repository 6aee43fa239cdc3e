// Package client provides the Vote Client's transports: the real-time
// results channel, the votes API and the on-disk voter identity.
package client

import (
	"encoding/json"

	"github.com/catsvsdogs/results/internal/tally"
)

// Event identifies the kind of real-time frame.
type Event string

const (
	EventMessage   Event = "message"
	EventSubscribe Event = "subscribe"
	EventScores    Event = "scores"
	EventError     Event = "error"
)

// Frame is the envelope for every frame on the results channel.
type Frame struct {
	Event Event           `json:"event"`
	Seq   uint64          `json:"seq"`
	Data  json.RawMessage `json:"data"`
}

// ErrorPayload is an upstream failure report. A nil *ErrorPayload clears it.
type ErrorPayload struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// Labels are the display names of the two options.
type Labels struct {
	A string `json:"a"`
	B string `json:"b"`
}

// DefaultLabels are used whenever the votes API cannot be asked.
var DefaultLabels = Labels{A: "Cats", B: "Dogs"}

// decodeScores unwraps the scores payload: a JSON string holding the
// encoded tally.
func decodeScores(raw json.RawMessage) (tally.Tally, error) {
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return tally.Tally{}, err
	}
	var t tally.Tally
	if err := json.Unmarshal([]byte(encoded), &t); err != nil {
		return tally.Tally{}, err
	}
	return t, nil
}

// decodeError returns nil for a null payload.
func decodeError(raw json.RawMessage) (*ErrorPayload, error) {
	var p *ErrorPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return p, nil
}
