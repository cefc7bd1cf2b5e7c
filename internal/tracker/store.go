package tracker

import (
	"context"
	"errors"
)

// GeneralChannel always exists and every peer that submits its address
// joins it.
const GeneralChannel = "general"

var (
	ErrUserExists      = errors.New("username already exists")
	ErrUserNotFound    = errors.New("user not found")
	ErrChannelNotFound = errors.New("channel not found")
	ErrNotMember       = errors.New("user is not a member of the channel")
)

// PeerInfo is the address a peer node accepts connections on
type PeerInfo struct {
	IP   string `json:"ip"`
	Port int    `json:"port"`
}

// Store keeps users, online peers and channel membership. Implementations
// must be safe for concurrent use.
type Store interface {
	// CreateUser stores a new user, ErrUserExists if the name is taken
	CreateUser(ctx context.Context, username, passwordHash string) error
	// PasswordHash returns the stored hash, ErrUserNotFound if unknown
	PasswordHash(ctx context.Context, username string) (string, error)

	// SetOnline records the peer address and joins the general channel
	SetOnline(ctx context.Context, username string, peer PeerInfo) error
	// Logout drops the peer from the online set and from every channel
	Logout(ctx context.Context, username string) error
	OnlinePeers(ctx context.Context) (map[string]PeerInfo, error)

	// JoinChannel adds a member, creating the channel when needed
	JoinChannel(ctx context.Context, channel, username string) error
	// LeaveChannel removes a member, ErrNotMember when the user (or the
	// channel) is unknown. Channels left empty are deleted, except general.
	LeaveChannel(ctx context.Context, channel, username string) error
	// Channels returns every channel with all of its members
	Channels(ctx context.Context) (map[string][]string, error)
	// ChannelMembers returns the members of one channel
	ChannelMembers(ctx context.Context, channel string) ([]string, error)

	Close() error
}
