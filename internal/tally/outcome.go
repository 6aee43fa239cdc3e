package tally

import "fmt"

// Kind classifies the result of a single fetch.
type Kind int

const (
	KindOK              Kind = iota // 200 with a well-formed tally
	KindStatusError                 // any non-200 status
	KindParseError                  // 200 but the body is not a tally
	KindConnectionError             // the request never completed
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindStatusError:
		return "status_error"
	case KindParseError:
		return "parse_error"
	case KindConnectionError:
		return "connection_error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Outcome is the classified result of Fetcher.Fetch. Only the fields relevant
// to Kind are set.
type Outcome struct {
	Kind       Kind
	Tally      Tally  // KindOK
	StatusCode int    // KindStatusError
	Body       string // KindStatusError: raw response body
	Message    string // KindParseError, KindConnectionError
	Endpoint   string // host:port that was queried
}

// OK reports whether the fetch produced a tally.
func (o Outcome) OK() bool {
	return o.Kind == KindOK
}

// ErrorReport renders a failed outcome as the message/detail pair shown to
// viewers. It returns empty strings for a successful outcome.
func (o Outcome) ErrorReport() (message, detail string) {
	switch o.Kind {
	case KindStatusError:
		detail = o.Body
		if detail == "" {
			detail = "Failed to fetch results from votes API"
		}
		return fmt.Sprintf("API Error: Status %d", o.StatusCode), detail
	case KindParseError:
		return "Parse Error: " + o.Message, "Failed to parse response from votes API"
	case KindConnectionError:
		return "Connection Error: " + o.Message, "Failed to connect to votes API at " + o.Endpoint
	}
	return "", ""
}
