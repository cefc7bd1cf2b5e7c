// Package peer implements the inbound side of a chat peer: the routes other
// peers call to connect, disconnect and deliver messages.
package peer

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Brownie44l1/tinyhttpd/internal/headers"
	"github.com/Brownie44l1/tinyhttpd/internal/router"
	"github.com/Brownie44l1/tinyhttpd/internal/server"
)

// Kind tells how a message reached this node
type Kind string

const (
	KindDirect    Kind = "direct"
	KindBroadcast Kind = "broadcast"
	KindChannel   Kind = "channel"
)

// Message is one received chat message
type Message struct {
	Kind     Kind
	From     string
	Channel  string
	Text     string
	Received time.Time
}

// Node holds the state of one peer: who is connected and what arrived
type Node struct {
	username string
	logger   server.Logger

	mu        sync.RWMutex
	connected map[string]struct{}
	inbox     []Message

	now func() time.Time
}

// NewNode creates a node for username. Broadcast and channel messages sent
// by username itself are ignored.
func NewNode(username string, logger server.Logger) *Node {
	if logger == nil {
		logger = &server.NullLogger{}
	}
	return &Node{
		username:  username,
		logger:    logger,
		connected: make(map[string]struct{}),
		now:       time.Now,
	}
}

func (n *Node) Username() string {
	return n.username
}

// Routes registers the peer endpoints on r
func (n *Node) Routes(r *router.Router) {
	r.POST("/connect-peer", n.connectPeer)
	r.POST("/disconnect-peer", n.disconnectPeer)
	r.POST("/send-peer", n.sendPeer)
	r.POST("/broadcast-peer", n.broadcastPeer)
	r.POST("/send-channel-message", n.sendChannelMessage)
}

// Connected lists the peers that completed a handshake, sorted
func (n *Node) Connected() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := make([]string, 0, len(n.connected))
	for name := range n.connected {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Messages returns a copy of the inbox in arrival order
func (n *Node) Messages() []Message {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]Message(nil), n.inbox...)
}

type handshake struct {
	Username string `json:"username"`
}

type chatMessage struct {
	FromUser string `json:"from_user"`
	Channel  string `json:"channel"`
	Message  string `json:"message"`
}

func (n *Node) connectPeer(_ *headers.Headers, body string) (*router.Result, error) {
	var in handshake
	if err := decode(body, &in); err != nil {
		return reply(400, err.Error())
	}

	n.mu.Lock()
	n.connected[in.Username] = struct{}{}
	n.mu.Unlock()

	n.logger.Info("peer connected", server.Field{Key: "peer", Value: in.Username})
	return reply(200, "ACK")
}

func (n *Node) disconnectPeer(_ *headers.Headers, body string) (*router.Result, error) {
	var in handshake
	if err := decode(body, &in); err != nil {
		return reply(400, err.Error())
	}

	n.mu.Lock()
	delete(n.connected, in.Username)
	n.mu.Unlock()

	n.logger.Info("peer disconnected", server.Field{Key: "peer", Value: in.Username})
	return reply(200, "ACK")
}

func (n *Node) sendPeer(_ *headers.Headers, body string) (*router.Result, error) {
	var in chatMessage
	if err := decode(body, &in); err != nil {
		return reply(400, err.Error())
	}

	n.deliver(Message{Kind: KindDirect, From: in.FromUser, Text: in.Message})
	return reply(200, "Received")
}

func (n *Node) broadcastPeer(_ *headers.Headers, body string) (*router.Result, error) {
	var in chatMessage
	if err := decode(body, &in); err != nil {
		return reply(400, err.Error())
	}
	if in.FromUser == n.username {
		return reply(200, "Self-broadcast ignored")
	}

	n.deliver(Message{Kind: KindBroadcast, From: in.FromUser, Text: in.Message})
	return reply(200, "Received")
}

func (n *Node) sendChannelMessage(_ *headers.Headers, body string) (*router.Result, error) {
	var in chatMessage
	if err := decode(body, &in); err != nil {
		return reply(400, err.Error())
	}
	if in.FromUser == n.username {
		return reply(200, "Self-message ignored")
	}

	n.deliver(Message{Kind: KindChannel, From: in.FromUser, Channel: in.Channel, Text: in.Message})
	return reply(200, "Received")
}

func (n *Node) deliver(m Message) {
	m.Received = n.now()

	n.mu.Lock()
	n.inbox = append(n.inbox, m)
	n.mu.Unlock()

	n.logger.Info("message received",
		server.Field{Key: "kind", Value: string(m.Kind)},
		server.Field{Key: "from", Value: m.From},
		server.Field{Key: "channel", Value: m.Channel},
	)
}

func decode(body string, v any) error {
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func reply(status int, message string) (*router.Result, error) {
	return router.JSON(status, map[string]any{
		"status":  status,
		"message": message,
	})
}
