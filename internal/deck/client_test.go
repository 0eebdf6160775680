// ABOUTME: Tests for the deck API client covering status mapping and record selection.
// ABOUTME: Uses httptest servers to exercise every HTTP outcome.

package deck

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testFilter() Filter {
	return Filter{Region: "west", Set: "OP10", Leader: "OP01-060"}
}

func TestClientQuery_ReturnsNewestRecord(t *testing.T) {
	var gotAuth, gotRegion, gotSet, gotLeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRegion = r.URL.Query().Get("region")
		gotSet = r.URL.Query().Get("set")
		gotLeader = r.URL.Query().Get("leader")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"leader": "OP01-060", "set": "OP10", "region": "west", "author": "Player One", "tournament": "Regional", "event": "Spring", "decklist": ["Card 1", "Card 2"]},
			{"leader": "OP01-060", "set": "OP10", "region": "west", "author": "Player Two", "tournament": "Older", "event": "Winter", "decklist": ["Card 3"]}
		]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-secret", 5*time.Second, testLogger())
	record, err := client.Query(context.Background(), testFilter())
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-secret", gotAuth)
	assert.Equal(t, "west", gotRegion)
	assert.Equal(t, "OP10", gotSet)
	assert.Equal(t, "OP01-060", gotLeader)

	// First record is the newest.
	assert.Equal(t, "Player One", record.Author)
	assert.Equal(t, []string{"Card 1", "Card 2"}, record.Decklist)
}

func TestClientQuery_NoDecksFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-secret", 5*time.Second, testLogger())
	_, err := client.Query(context.Background(), testFilter())
	assert.ErrorIs(t, err, ErrNoDecksFound)
}

func TestClientQuery_StatusMapping(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantReason    string
		wantTransient bool
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, wantReason: "authentication failed"},
		{name: "forbidden", status: http.StatusForbidden, wantReason: "access forbidden"},
		{name: "not found", status: http.StatusNotFound, wantReason: "endpoint not found"},
		{name: "rate limited", status: http.StatusTooManyRequests, wantReason: "rate limit", wantTransient: true},
		{name: "server error", status: http.StatusInternalServerError, wantReason: "server error", wantTransient: true},
		{name: "bad gateway", status: http.StatusBadGateway, wantReason: "server error", wantTransient: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := NewClient(server.URL, "test-secret", 5*time.Second, testLogger())
			_, err := client.Query(context.Background(), testFilter())
			require.Error(t, err)

			var serviceErr *ServiceError
			require.ErrorAs(t, err, &serviceErr)
			assert.Contains(t, serviceErr.Reason, tt.wantReason)
			assert.Equal(t, tt.wantTransient, serviceErr.Transient)
		})
	}
}

func TestClientQuery_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-secret", 20*time.Millisecond, testLogger())
	_, err := client.Query(context.Background(), testFilter())
	require.Error(t, err)

	var serviceErr *ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.True(t, serviceErr.Transient)
}

func TestClientQuery_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not": "an array"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-secret", 5*time.Second, testLogger())
	_, err := client.Query(context.Background(), testFilter())

	var serviceErr *ServiceError
	require.ErrorAs(t, err, &serviceErr)
	assert.Contains(t, serviceErr.Reason, "malformed")
}

func TestClientQuery_MissingCredentials(t *testing.T) {
	t.Run("missing endpoint", func(t *testing.T) {
		client := NewClient("", "secret", 5*time.Second, testLogger())
		_, err := client.Query(context.Background(), testFilter())

		var serviceErr *ServiceError
		require.ErrorAs(t, err, &serviceErr)
		assert.Contains(t, serviceErr.Reason, "COMPETITIVE_DECK_ENDPOINT")
	})

	t.Run("missing secret", func(t *testing.T) {
		client := NewClient("http://localhost:1", "", 5*time.Second, testLogger())
		_, err := client.Query(context.Background(), testFilter())

		var serviceErr *ServiceError
		require.ErrorAs(t, err, &serviceErr)
		assert.Contains(t, serviceErr.Reason, "COMPETITIVE_DECK_SECRET")
	})
}

func TestValidate(t *testing.T) {
	t.Run("complete filter passes", func(t *testing.T) {
		assert.NoError(t, Validate(testFilter()))
	})

	t.Run("reports all missing fields at once", func(t *testing.T) {
		err := Validate(Filter{Region: "west"})
		require.Error(t, err)

		var insufficient *InsufficientCriteriaError
		require.ErrorAs(t, err, &insufficient)
		assert.Len(t, insufficient.Missing, 2)
		assert.Contains(t, insufficient.Missing[0], "format/set")
		assert.Contains(t, insufficient.Missing[1], "leader card ID")
	})

	t.Run("whitespace counts as missing", func(t *testing.T) {
		err := Validate(Filter{Region: "  ", Set: "OP10", Leader: "OP01-060"})
		var insufficient *InsufficientCriteriaError
		require.ErrorAs(t, err, &insufficient)
		assert.Len(t, insufficient.Missing, 1)
	})
}
