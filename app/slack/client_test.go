package slack

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lysyi3m/site-sync/app/pipeline"
	"github.com/lysyi3m/site-sync/app/web"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(web.NewClient("site-sync-test", 5*time.Second), server.URL, "xoxb-test")
}

func TestFetchMessages(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/conversations.history", r.URL.Path)
		require.Equal(t, "C123", r.URL.Query().Get("channel"))
		require.Equal(t, "50", r.URL.Query().Get("limit"))
		require.Equal(t, "Bearer xoxb-test", r.Header.Get("Authorization"))
		require.Equal(t, "site-sync-test", r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"ok": true,
			"messages": [
				{"type": "message", "text": "hello <https://example.com>", "ts": "1700000002.000200", "user": "U1"},
				{"type": "message", "text": "reply", "ts": "1700000003.000300", "thread_ts": "1700000001.000100"},
				{"type": "message", "text": "parent", "ts": "1700000001.000100", "thread_ts": "1700000001.000100"},
				{"type": "message", "subtype": "bot_message", "text": "beep", "ts": 1700000000},
				{"type": "message", "text": "integration", "ts": "1699999999.000000", "bot_id": "B1"},
				{"type": "message", "subtype": "channel_join", "text": "joined", "ts": "1699999998.000000"}
			]
		}`))
	})

	messages, err := client.FetchMessages(context.Background(), "C123", 50)
	require.NoError(t, err)
	require.Len(t, messages, 6)

	require.Equal(t, pipeline.RawMessage{Text: "hello <https://example.com>", Timestamp: "1700000002.000200"}, messages[0])
	require.True(t, messages[1].HasThread, "thread replies are flagged")
	require.False(t, messages[2].HasThread, "thread parents are not replies")
	require.True(t, messages[3].IsBot)
	require.Equal(t, "1700000000", messages[3].Timestamp)
	require.True(t, messages[4].IsBot)
	require.Equal(t, "channel_join", messages[5].Subtype)
}

func TestFetchMessages_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok": false, "error": "channel_not_found"}`))
	})

	_, err := client.FetchMessages(context.Background(), "C404", 10)
	require.Error(t, err)

	var upstreamErr *pipeline.UpstreamError
	require.True(t, errors.As(err, &upstreamErr))
	require.Contains(t, err.Error(), "channel_not_found")
}

func TestFetchMessages_HTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("slow down"))
	})

	_, err := client.FetchMessages(context.Background(), "C123", 10)

	var upstreamErr *pipeline.UpstreamError
	require.True(t, errors.As(err, &upstreamErr))
	require.Equal(t, http.StatusTooManyRequests, upstreamErr.StatusCode)
}

func TestFetchMessages_MalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	})

	_, err := client.FetchMessages(context.Background(), "C123", 10)

	var upstreamErr *pipeline.UpstreamError
	require.True(t, errors.As(err, &upstreamErr))
	require.Contains(t, err.Error(), "malformed response")
}
