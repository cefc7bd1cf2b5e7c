package tracker

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps everything in process memory
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]string
	peers    map[string]PeerInfo
	channels map[string]map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]string),
		peers: make(map[string]PeerInfo),
		channels: map[string]map[string]struct{}{
			GeneralChannel: {},
		},
	}
}

func (s *MemoryStore) CreateUser(_ context.Context, username, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; ok {
		return ErrUserExists
	}
	s.users[username] = passwordHash
	return nil
}

func (s *MemoryStore) PasswordHash(_ context.Context, username string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hash, ok := s.users[username]
	if !ok {
		return "", ErrUserNotFound
	}
	return hash, nil
}

func (s *MemoryStore) SetOnline(_ context.Context, username string, peer PeerInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.peers[username] = peer
	s.channels[GeneralChannel][username] = struct{}{}
	return nil
}

func (s *MemoryStore) Logout(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.peers, username)
	for _, members := range s.channels {
		delete(members, username)
	}
	return nil
}

func (s *MemoryStore) OnlinePeers(_ context.Context) (map[string]PeerInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]PeerInfo, len(s.peers))
	for name, peer := range s.peers {
		out[name] = peer
	}
	return out, nil
}

func (s *MemoryStore) JoinChannel(_ context.Context, channel, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	members, ok := s.channels[channel]
	if !ok {
		members = make(map[string]struct{})
		s.channels[channel] = members
	}
	members[username] = struct{}{}
	return nil
}

func (s *MemoryStore) LeaveChannel(_ context.Context, channel, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	members, ok := s.channels[channel]
	if !ok {
		return ErrNotMember
	}
	if _, ok := members[username]; !ok {
		return ErrNotMember
	}

	delete(members, username)
	if len(members) == 0 && channel != GeneralChannel {
		delete(s.channels, channel)
	}
	return nil
}

func (s *MemoryStore) Channels(_ context.Context) (map[string][]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]string, len(s.channels))
	for name, members := range s.channels {
		out[name] = sortedMembers(members)
	}
	return out, nil
}

func (s *MemoryStore) ChannelMembers(_ context.Context, channel string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	members, ok := s.channels[channel]
	if !ok {
		return nil, ErrChannelNotFound
	}
	return sortedMembers(members), nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func sortedMembers(members map[string]struct{}) []string {
	out := make([]string, 0, len(members))
	for name := range members {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
