package peer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/tinyhttpd/internal/headers"
	"github.com/Brownie44l1/tinyhttpd/internal/router"
)

func serve(t *testing.T, routes router.Table, path, body string) (int, string) {
	t.Helper()
	h, ok := routes.Lookup(path, "POST")
	require.True(t, ok, path)

	res, err := h.ServeRequest(headers.NewHeaders(), body)
	require.NoError(t, err)

	var out struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(res.Body, &out))
	assert.Equal(t, res.Status, out.Status)
	return out.Status, out.Message
}

func newTestNode(t *testing.T) (*Node, router.Table) {
	n := NewNode("alice", nil)
	n.now = func() time.Time { return time.Unix(1700000000, 0) }
	r := router.New()
	n.Routes(r)
	return n, r.Seal()
}

func TestHandshake(t *testing.T) {
	n, routes := newTestNode(t)

	status, msg := serve(t, routes, "/connect-peer", `{"username":"bob"}`)
	assert.Equal(t, 200, status)
	assert.Equal(t, "ACK", msg)
	serve(t, routes, "/connect-peer", `{"username":"carol"}`)
	assert.Equal(t, []string{"bob", "carol"}, n.Connected())

	status, msg = serve(t, routes, "/disconnect-peer", `{"username":"bob"}`)
	assert.Equal(t, 200, status)
	assert.Equal(t, "ACK", msg)
	assert.Equal(t, []string{"carol"}, n.Connected())

	// unknown peers disconnect quietly
	status, _ = serve(t, routes, "/disconnect-peer", `{"username":"dave"}`)
	assert.Equal(t, 200, status)
}

func TestMessages(t *testing.T) {
	n, routes := newTestNode(t)

	status, msg := serve(t, routes, "/send-peer", `{"from_user":"bob","message":"hi"}`)
	assert.Equal(t, 200, status)
	assert.Equal(t, "Received", msg)

	_, msg = serve(t, routes, "/broadcast-peer", `{"from_user":"alice","message":"echo"}`)
	assert.Equal(t, "Self-broadcast ignored", msg)
	_, msg = serve(t, routes, "/broadcast-peer", `{"from_user":"bob","message":"all"}`)
	assert.Equal(t, "Received", msg)

	_, msg = serve(t, routes, "/send-channel-message", `{"from_user":"alice","channel":"dev","message":"mine"}`)
	assert.Equal(t, "Self-message ignored", msg)
	_, msg = serve(t, routes, "/send-channel-message", `{"from_user":"carol","channel":"dev","message":"ship it"}`)
	assert.Equal(t, "Received", msg)

	got := n.Messages()
	require.Len(t, got, 3)
	assert.Equal(t, Message{Kind: KindDirect, From: "bob", Text: "hi", Received: time.Unix(1700000000, 0)}, got[0])
	assert.Equal(t, KindBroadcast, got[1].Kind)
	assert.Equal(t, "all", got[1].Text)
	assert.Equal(t, KindChannel, got[2].Kind)
	assert.Equal(t, "dev", got[2].Channel)
	assert.Equal(t, "carol", got[2].From)

	// the returned slice is a copy
	got[0].Text = "changed"
	assert.Equal(t, "hi", n.Messages()[0].Text)
}

func TestMalformedBodies(t *testing.T) {
	_, routes := newTestNode(t)
	for _, path := range []string{"/connect-peer", "/disconnect-peer", "/send-peer", "/broadcast-peer", "/send-channel-message"} {
		status, _ := serve(t, routes, path, "not json")
		assert.Equal(t, 400, status, path)
	}
}
