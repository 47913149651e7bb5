package onebot

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relaybot/internal/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClientWithHTTPClient(srv.URL, "relaybot-test", srv.Client(), testLogger())
}

func TestDeliverPrivateMessage(t *testing.T) {
	var gotPath string
	var gotBody map[string]json.RawMessage

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"data": {"message_id": 321}, "retcode": 0, "status": "ok"}`)
	}))
	defer srv.Close()

	client := newTestClient(srv)
	outcome := client.Deliver(context.Background(), types.OutboundMessage{
		To:     998877,
		Target: types.TargetPrivate,
		Body:   "hello",
	})

	assert.True(t, outcome.Success)
	require.NotNil(t, outcome.MessageID)
	assert.Equal(t, int32(321), *outcome.MessageID)

	assert.Equal(t, "/send_private_msg", gotPath)
	assert.JSONEq(t, `998877`, string(gotBody["user_id"]))
	assert.JSONEq(t, `"hello"`, string(gotBody["message"]))
	assert.JSONEq(t, `false`, string(gotBody["auto_escape"]))

	// group_id must be present and explicitly null in private payloads.
	raw, ok := gotBody["group_id"]
	require.True(t, ok, "private payload must carry group_id")
	assert.Equal(t, "null", string(raw))
}

func TestDeliverGroupMessage(t *testing.T) {
	var gotPath string
	var gotBody map[string]json.RawMessage

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		io.WriteString(w, `{"data": {"message_id": 12}, "retcode": 0, "status": "ok"}`)
	}))
	defer srv.Close()

	client := newTestClient(srv)
	outcome := client.Deliver(context.Background(), types.OutboundMessage{
		To:     112233,
		Target: types.TargetGroup,
		Body:   "release v1.0",
	})

	assert.True(t, outcome.Success)
	assert.Equal(t, "/send_group_msg", gotPath)
	assert.JSONEq(t, `112233`, string(gotBody["group_id"]))
	assert.JSONEq(t, `"release v1.0"`, string(gotBody["message"]))

	_, hasUserID := gotBody["user_id"]
	assert.False(t, hasUserID, "group payload must not carry user_id")
}

func TestDeliverNullDataEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data": null, "retcode": 100, "status": "failed"}`)
	}))
	defer srv.Close()

	client := newTestClient(srv)
	outcome := client.Deliver(context.Background(), types.OutboundMessage{
		To:     1,
		Target: types.TargetGroup,
		Body:   "x",
	})

	// A decodable envelope counts as delivered even without a message ID.
	assert.True(t, outcome.Success)
	assert.Nil(t, outcome.MessageID)
}

func TestDeliverTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := newTestClient(srv)
	srv.Close()

	outcome := client.Deliver(context.Background(), types.OutboundMessage{
		To:     1,
		Target: types.TargetGroup,
		Body:   "x",
	})

	assert.False(t, outcome.Success)
	assert.Nil(t, outcome.MessageID)
}

func TestDeliverServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(srv)
	outcome := client.Deliver(context.Background(), types.OutboundMessage{
		To:     1,
		Target: types.TargetGroup,
		Body:   "x",
	})

	assert.False(t, outcome.Success)
}

func TestDeliverUndecodableResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "not json")
	}))
	defer srv.Close()

	client := newTestClient(srv)
	outcome := client.Deliver(context.Background(), types.OutboundMessage{
		To:     1,
		Target: types.TargetGroup,
		Body:   "x",
	})

	assert.False(t, outcome.Success)
}

func TestDeliverBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(srv)
	msg := types.OutboundMessage{To: 1, Target: types.TargetGroup, Body: "x"}

	for i := 0; i < 10; i++ {
		outcome := client.Deliver(context.Background(), msg)
		assert.False(t, outcome.Success)
	}

	// After six consecutive failures the breaker opens and short-circuits
	// the remaining attempts without touching the transport.
	assert.Equal(t, 6, hits)
}

func TestDescribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/get_version_info", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "relaybot-test", r.Header.Get("User-Agent"))
		io.WriteString(w, `{"data": {"app_name": "go-cqhttp", "app_version": "1.2.0", "protocol": 11}, "retcode": 0, "status": "ok"}`)
	}))
	defer srv.Close()

	client := newTestClient(srv)
	about, err := client.Describe(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "go-cqhttp", about.AppName)
	assert.Equal(t, "1.2.0", about.AppVersion)
	assert.Equal(t, int32(11), about.Protocol)
}

func TestDescribeFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "non-200 status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
		},
		{
			name: "null data",
			handler: func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, `{"data": null, "retcode": 100, "status": "failed"}`)
			},
		},
		{
			name: "undecodable body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, "not json")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			about, err := newTestClient(srv).Describe(context.Background())
			assert.Nil(t, about)
			assert.Error(t, err)
		})
	}
}

func TestCheckReportsProviderHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data": {"app_name": "go-cqhttp", "app_version": "1.2.0", "protocol": 11}, "retcode": 0, "status": "ok"}`)
	}))
	defer srv.Close()

	client := newTestClient(srv)
	assert.Equal(t, "onebot", client.Name())
	assert.NoError(t, client.Check(context.Background()))

	srv.Close()
	assert.Error(t, client.Check(context.Background()))
}
