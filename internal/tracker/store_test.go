package tracker

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gomodule/redigo/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisTestStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)

	pool := &redis.Pool{
		MaxIdle: 4,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", mr.Addr())
		},
	}
	store := NewRedisStoreFromPool(pool, "test:")
	t.Cleanup(func() { store.Close() })
	return store
}

func storeImplementations(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"redis":  func(t *testing.T) Store { return newRedisTestStore(t) },
	}
}

func TestStoreUsers(t *testing.T) {
	for name, open := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			require.NoError(t, s.CreateUser(ctx, "alice", "hash-1"))
			assert.ErrorIs(t, s.CreateUser(ctx, "alice", "hash-2"), ErrUserExists)

			hash, err := s.PasswordHash(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, "hash-1", hash)

			_, err = s.PasswordHash(ctx, "bob")
			assert.ErrorIs(t, err, ErrUserNotFound)
		})
	}
}

func TestStorePresence(t *testing.T) {
	for name, open := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			require.NoError(t, s.SetOnline(ctx, "alice", PeerInfo{IP: "10.0.0.1", Port: 9001}))
			require.NoError(t, s.SetOnline(ctx, "bob", PeerInfo{IP: "10.0.0.2", Port: 9002}))

			peers, err := s.OnlinePeers(ctx)
			require.NoError(t, err)
			assert.Equal(t, map[string]PeerInfo{
				"alice": {IP: "10.0.0.1", Port: 9001},
				"bob":   {IP: "10.0.0.2", Port: 9002},
			}, peers)

			members, err := s.ChannelMembers(ctx, GeneralChannel)
			require.NoError(t, err)
			assert.Equal(t, []string{"alice", "bob"}, members)

			require.NoError(t, s.JoinChannel(ctx, "dev", "alice"))
			require.NoError(t, s.Logout(ctx, "alice"))

			peers, err = s.OnlinePeers(ctx)
			require.NoError(t, err)
			assert.NotContains(t, peers, "alice")

			channels, err := s.Channels(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"bob"}, channels[GeneralChannel])
			assert.Empty(t, channels["dev"])
		})
	}
}

func TestStoreChannels(t *testing.T) {
	for name, open := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			channels, err := s.Channels(ctx)
			require.NoError(t, err)
			assert.Contains(t, channels, GeneralChannel)

			_, err = s.ChannelMembers(ctx, "dev")
			assert.ErrorIs(t, err, ErrChannelNotFound)

			require.NoError(t, s.JoinChannel(ctx, "dev", "alice"))
			require.NoError(t, s.JoinChannel(ctx, "dev", "bob"))
			require.NoError(t, s.JoinChannel(ctx, "dev", "bob"))

			members, err := s.ChannelMembers(ctx, "dev")
			require.NoError(t, err)
			assert.Equal(t, []string{"alice", "bob"}, members)

			assert.ErrorIs(t, s.LeaveChannel(ctx, "dev", "carol"), ErrNotMember)
			assert.ErrorIs(t, s.LeaveChannel(ctx, "nope", "alice"), ErrNotMember)

			require.NoError(t, s.LeaveChannel(ctx, "dev", "alice"))
			require.NoError(t, s.LeaveChannel(ctx, "dev", "bob"))

			_, err = s.ChannelMembers(ctx, "dev")
			assert.ErrorIs(t, err, ErrChannelNotFound, "empty channel should be deleted")
		})
	}
}

func TestStoreGeneralSurvivesEmptying(t *testing.T) {
	for name, open := range storeImplementations(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			require.NoError(t, s.SetOnline(ctx, "alice", PeerInfo{IP: "127.0.0.1", Port: 1}))
			require.NoError(t, s.LeaveChannel(ctx, GeneralChannel, "alice"))

			members, err := s.ChannelMembers(ctx, GeneralChannel)
			require.NoError(t, err)
			assert.Empty(t, members)
		})
	}
}

func TestRedisStorePing(t *testing.T) {
	s := newRedisTestStore(t)
	require.NoError(t, s.Ping(context.Background()))
}
