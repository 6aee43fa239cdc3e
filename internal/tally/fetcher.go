package tally

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/catsvsdogs/results/internal/metrics"
)

// ResultsPath is the votes API route that returns the current tally.
const ResultsPath = "/results"

// ErrEmptyEndpoint is returned by NewFetcher when host or port is blank.
var ErrEmptyEndpoint = errors.New("votes API endpoint must have a host and port")

// Fetcher performs one GET against the votes API per call. It never retries;
// the caller owns the retry policy.
type Fetcher struct {
	endpoint string
	url      string
	client   *http.Client
}

// NewFetcher builds a fetcher for http://host:port/results. A nil client
// means http.DefaultClient.
func NewFetcher(host, port string, client *http.Client) (*Fetcher, error) {
	if host == "" || port == "" {
		return nil, ErrEmptyEndpoint
	}
	if client == nil {
		client = http.DefaultClient
	}
	endpoint := net.JoinHostPort(host, port)
	return &Fetcher{
		endpoint: endpoint,
		url:      (&url.URL{Scheme: "http", Host: endpoint, Path: ResultsPath}).String(),
		client:   client,
	}, nil
}

// Endpoint returns the host:port being polled.
func (f *Fetcher) Endpoint() string {
	return f.endpoint
}

// URL returns the full results URL.
func (f *Fetcher) URL() string {
	return f.url
}

// Fetch issues the request and classifies the result.
func (f *Fetcher) Fetch(ctx context.Context) Outcome {
	start := time.Now()
	out := f.fetch(ctx)
	metrics.FetchDuration.Observe(time.Since(start).Seconds())
	metrics.FetchTotal.WithLabelValues(out.Kind.String()).Inc()
	return out
}

func (f *Fetcher) fetch(ctx context.Context) Outcome {
	out := Outcome{Endpoint: f.endpoint}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		out.Kind = KindConnectionError
		out.Message = err.Error()
		return out
	}

	resp, err := f.client.Do(req)
	if err != nil {
		out.Kind = KindConnectionError
		out.Message = transportMessage(err)
		return out
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		out.Kind = KindConnectionError
		out.Message = transportMessage(err)
		return out
	}

	if resp.StatusCode != http.StatusOK {
		out.Kind = KindStatusError
		out.StatusCode = resp.StatusCode
		out.Body = string(body)
		return out
	}

	t, err := Parse(body)
	if err != nil {
		out.Kind = KindParseError
		out.Message = err.Error()
		return out
	}
	out.Kind = KindOK
	out.Tally = t
	return out
}

// Parse decodes a results body. Both counts must be present, non-negative
// and small enough that their sum fits in an int.
func Parse(body []byte) (Tally, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Tally{}, errors.New("expected a JSON object")
	}

	var raw struct {
		A *int `json:"a"`
		B *int `json:"b"`
	}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return Tally{}, err
	}
	if raw.A == nil || raw.B == nil {
		return Tally{}, errors.New(`missing "a" or "b" count`)
	}
	if *raw.A < 0 || *raw.B < 0 {
		return Tally{}, fmt.Errorf("negative count a=%d b=%d", *raw.A, *raw.B)
	}
	if *raw.A > math.MaxInt-*raw.B {
		return Tally{}, fmt.Errorf("total overflows a=%d b=%d", *raw.A, *raw.B)
	}
	return Tally{A: *raw.A, B: *raw.B}, nil
}

// transportMessage strips the "Get <url>:" prefix from client errors.
func transportMessage(err error) string {
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Err != nil {
		return uerr.Err.Error()
	}
	return err.Error()
}
