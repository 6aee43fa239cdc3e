package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/", r.URL.Path)
		w.Write([]byte(`{"service":"voting-api","options":{"a":"Tabs","b":"Spaces"}}`))
	}))
	defer srv.Close()

	labels, err := NewVotesAPI(srv.URL).Options(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Labels{A: "Tabs", B: "Spaces"}, labels)
}

func TestOptions_PartialLabelsDefaulted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"options":{"a":"Tabs"}}`))
	}))
	defer srv.Close()

	labels, err := NewVotesAPI(srv.URL).Options(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Labels{A: "Tabs", B: "Dogs"}, labels)
}

func TestOptions_FailureReturnsDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	labels, err := NewVotesAPI(srv.URL).Options(context.Background())
	assert.Error(t, err)
	assert.Equal(t, DefaultLabels, labels)
}

func TestOptions_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	labels, err := NewVotesAPI(url).Options(context.Background())
	assert.Error(t, err)
	assert.Equal(t, DefaultLabels, labels)
}

func TestVote(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/vote", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"success":true,"voter_id":"v1","vote":"a","message":"Vote recorded successfully"}`))
	}))
	defer srv.Close()

	res, err := NewVotesAPI(srv.URL).Vote(context.Background(), "a", "v1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"vote": "a", "voter_id": "v1"}, got)
	assert.True(t, res.Success)
	assert.Equal(t, "v1", res.VoterID)
}

func TestVote_NonJSONSuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	_, err := NewVotesAPI(srv.URL).Vote(context.Background(), "b", "v1")
	assert.NoError(t, err)
}

func TestVote_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Database connection failed"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewVotesAPI(srv.URL).Vote(context.Background(), "a", "v1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestVote_InvalidOption(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	_, err := NewVotesAPI(srv.URL).Vote(context.Background(), "c", "v1")
	assert.Error(t, err)
	assert.False(t, called)
}

func TestVote_NoClientDeadline(t *testing.T) {
	api := NewVotesAPI("http://127.0.0.1:5001")
	assert.Zero(t, api.client.Timeout)
}

func TestVote_SlowServerStillSucceeds(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	errCh := make(chan error, 1)
	go func() {
		_, err := NewVotesAPI(srv.URL).Vote(context.Background(), "a", "v1")
		errCh <- err
	}()

	assert.Never(t, func() bool { return len(errCh) > 0 }, 300*time.Millisecond, 20*time.Millisecond)
	close(release)
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("vote did not complete after the server answered")
	}
}

func TestVote_ContextBoundsCall(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewVotesAPI(srv.URL).Vote(ctx, "a", "v1")
	assert.ErrorIs(t, err, context.Canceled)
}
