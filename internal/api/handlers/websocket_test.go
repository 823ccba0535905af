package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/onnwee/repulse/internal/apierr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialStream(t *testing.T, s *ForceStream) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(s.HandleWebSocket))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	ws, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	return ws
}

func roundTrip(t *testing.T, ws *websocket.Conn, msg string) []byte {
	t.Helper()
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(msg)))
	ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, reply, err := ws.ReadMessage()
	require.NoError(t, err)
	return reply
}

func TestForceStream_ExactAndApprox(t *testing.T) {
	stream := NewForceStream(NewForceHandler(newEngine(t), nil, Limits{}, 2))
	ws := dialStream(t, stream)

	for _, mode := range []string{ModeExact, ModeApprox} {
		reply := roundTrip(t, ws, `{"mode":"`+mode+`","nodes":[{"id":"a","pos":[0,0]},{"id":"b","pos":[2,0]}]}`)

		var resp ForceResponse
		require.NoError(t, json.Unmarshal(reply, &resp))
		assert.Equal(t, mode, resp.Strategy)
		assert.InDelta(t, 0.5, resp.Forces["b"][0], 1e-12)
	}
}

func TestForceStream_ErrorReplies(t *testing.T) {
	stream := NewForceStream(NewForceHandler(&stubComputer{}, nil, Limits{MaxNodes: 1}, 2))
	ws := dialStream(t, stream)

	tests := []struct {
		msg  string
		code apierr.ErrorCode
	}{
		{`not json`, apierr.ErrValidationInvalidJSON},
		{`{"mode":"bogus","nodes":[]}`, apierr.ErrValidationInvalidValue},
		{`{"mode":"exact","nodes":[{"id":"a","pos":[0,0]},{"id":"b","pos":[1,0]}]}`, apierr.ErrForceTooManyNodes},
	}
	for _, tt := range tests {
		var resp apierr.ErrorResponse
		require.NoError(t, json.Unmarshal(roundTrip(t, ws, tt.msg), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, tt.code, resp.Error.Code)
	}

	// The connection survives error replies.
	reply := roundTrip(t, ws, `{"mode":"exact","nodes":[{"id":"a","pos":[0,0]}]}`)
	assert.Contains(t, string(reply), `"strategy":"exact"`)
}

func TestForceStream_Close(t *testing.T) {
	stream := NewForceStream(NewForceHandler(&stubComputer{}, nil, Limits{}, 2))
	ws := dialStream(t, stream)

	roundTrip(t, ws, `{"mode":"exact","nodes":[]}`)
	assert.Equal(t, 1, stream.Clients())

	stream.Close()

	ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := ws.ReadMessage()
	assert.Error(t, err)
	assert.Eventually(t, func() bool { return stream.Clients() == 0 }, 5*time.Second, 10*time.Millisecond)
}
