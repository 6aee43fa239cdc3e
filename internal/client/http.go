package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/catsvsdogs/results/internal/tally"
)

// VotesAPI talks to the votes service directly; the relay never sees votes.
type VotesAPI struct {
	baseURL string
	client  *http.Client
}

// NewVotesAPI creates a client for the given base URL (e.g. "http://127.0.0.1:5001").
// Calls carry no deadline of their own; the caller's context is the only bound.
func NewVotesAPI(baseURL string) *VotesAPI {
	return &VotesAPI{
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

type apiInfo struct {
	Service string `json:"service"`
	Options Labels `json:"options"`
}

// Options fetches GET / and returns the option labels. Missing labels fall
// back to DefaultLabels; on error DefaultLabels is returned with the error.
func (c *VotesAPI) Options(ctx context.Context) (Labels, error) {
	var info apiInfo
	if err := c.get(ctx, "/", &info); err != nil {
		return DefaultLabels, err
	}
	labels := info.Options
	if labels.A == "" {
		labels.A = DefaultLabels.A
	}
	if labels.B == "" {
		labels.B = DefaultLabels.B
	}
	return labels, nil
}

// VoteResult is the votes API's acknowledgement.
type VoteResult struct {
	Success bool   `json:"success"`
	VoterID string `json:"voter_id"`
	Vote    string `json:"vote"`
	Message string `json:"message"`
}

// Vote sends POST /vote. Any non-2xx status is an error.
func (c *VotesAPI) Vote(ctx context.Context, option, voterID string) (*VoteResult, error) {
	if option != tally.OptionA && option != tally.OptionB {
		return nil, fmt.Errorf("invalid vote option %q", option)
	}
	body := map[string]string{"vote": option, "voter_id": voterID}
	var out VoteResult
	if err := c.post(ctx, "/vote", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *VotesAPI) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s: %d %s", path, resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *VotesAPI) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("POST %s: %d %s", path, resp.StatusCode, string(respBody))
	}
	if out != nil {
		// The acknowledgement body is informational; a 2xx is the success signal.
		_ = json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
