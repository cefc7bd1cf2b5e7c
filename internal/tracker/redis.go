package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gomodule/redigo/redis"
)

const (
	defaultKeyPrefix = "tinyhttpd:"
	defaultPoolSize  = 16
)

// leaveScript removes a member and drops the channel when it empties.
// KEYS: channel set, channel index. ARGV: username, channel, general.
var leaveScript = redis.NewScript(2, `
local removed = redis.call('SREM', KEYS[1], ARGV[1])
if removed == 0 then
	return 0
end
if redis.call('SCARD', KEYS[1]) == 0 and ARGV[2] ~= ARGV[3] then
	redis.call('DEL', KEYS[1])
	redis.call('SREM', KEYS[2], ARGV[2])
end
return 1
`)

// RedisStore shares tracker state between processes through Redis.
//
// Layout: <prefix>users is a hash of password hashes, <prefix>peers a hash
// of JSON encoded PeerInfo, <prefix>channels the set of channel names and
// <prefix>channel:<name> the member set of one channel.
type RedisStore struct {
	pool   *redis.Pool
	prefix string
}

// NewRedisStore dials rawURL (redis://[:password@]host:port[/db]) lazily
// through a connection pool.
func NewRedisStore(rawURL string) *RedisStore {
	pool := &redis.Pool{
		MaxIdle:     defaultPoolSize,
		IdleTimeout: 240 * time.Second,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			return redis.DialURLContext(ctx, rawURL)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
	return NewRedisStoreFromPool(pool, defaultKeyPrefix)
}

// NewRedisStoreFromPool uses an existing pool and key prefix
func NewRedisStoreFromPool(pool *redis.Pool, prefix string) *RedisStore {
	return &RedisStore{pool: pool, prefix: prefix}
}

// Ping checks that Redis is reachable and makes sure general exists
func (s *RedisStore) Ping(ctx context.Context) error {
	conn, err := s.conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := redis.DoContext(conn, ctx, "PING"); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	_, err = redis.DoContext(conn, ctx, "SADD", s.channelsKey(), GeneralChannel)
	return err
}

func (s *RedisStore) CreateUser(ctx context.Context, username, passwordHash string) error {
	conn, err := s.conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	created, err := redis.Bool(redis.DoContext(conn, ctx, "HSETNX", s.usersKey(), username, passwordHash))
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	if !created {
		return ErrUserExists
	}
	return nil
}

func (s *RedisStore) PasswordHash(ctx context.Context, username string) (string, error) {
	conn, err := s.conn(ctx)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	hash, err := redis.String(redis.DoContext(conn, ctx, "HGET", s.usersKey(), username))
	if errors.Is(err, redis.ErrNil) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}
	return hash, nil
}

func (s *RedisStore) SetOnline(ctx context.Context, username string, peer PeerInfo) error {
	data, err := json.Marshal(peer)
	if err != nil {
		return fmt.Errorf("encode peer: %w", err)
	}

	conn, err := s.conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	conn.Send("MULTI")
	conn.Send("HSET", s.peersKey(), username, data)
	conn.Send("SADD", s.channelsKey(), GeneralChannel)
	conn.Send("SADD", s.channelKey(GeneralChannel), username)
	if _, err := redis.DoContext(conn, ctx, "EXEC"); err != nil {
		return fmt.Errorf("set online: %w", err)
	}
	return nil
}

func (s *RedisStore) Logout(ctx context.Context, username string) error {
	conn, err := s.conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	names, err := redis.Strings(redis.DoContext(conn, ctx, "SMEMBERS", s.channelsKey()))
	if err != nil {
		return fmt.Errorf("list channels: %w", err)
	}

	conn.Send("MULTI")
	conn.Send("HDEL", s.peersKey(), username)
	for _, name := range names {
		conn.Send("SREM", s.channelKey(name), username)
	}
	if _, err := redis.DoContext(conn, ctx, "EXEC"); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (s *RedisStore) OnlinePeers(ctx context.Context) (map[string]PeerInfo, error) {
	conn, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	raw, err := redis.StringMap(redis.DoContext(conn, ctx, "HGETALL", s.peersKey()))
	if err != nil {
		return nil, fmt.Errorf("list peers: %w", err)
	}

	peers := make(map[string]PeerInfo, len(raw))
	for name, data := range raw {
		var peer PeerInfo
		if err := json.Unmarshal([]byte(data), &peer); err != nil {
			return nil, fmt.Errorf("decode peer %q: %w", name, err)
		}
		peers[name] = peer
	}
	return peers, nil
}

func (s *RedisStore) JoinChannel(ctx context.Context, channel, username string) error {
	conn, err := s.conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	conn.Send("MULTI")
	conn.Send("SADD", s.channelsKey(), channel)
	conn.Send("SADD", s.channelKey(channel), username)
	if _, err := redis.DoContext(conn, ctx, "EXEC"); err != nil {
		return fmt.Errorf("join channel: %w", err)
	}
	return nil
}

func (s *RedisStore) LeaveChannel(ctx context.Context, channel, username string) error {
	conn, err := s.conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	removed, err := redis.Int(leaveScript.Do(conn,
		s.channelKey(channel), s.channelsKey(),
		username, channel, GeneralChannel,
	))
	if err != nil {
		return fmt.Errorf("leave channel: %w", err)
	}
	if removed == 0 {
		return ErrNotMember
	}
	return nil
}

func (s *RedisStore) Channels(ctx context.Context) (map[string][]string, error) {
	conn, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	names, err := redis.Strings(redis.DoContext(conn, ctx, "SMEMBERS", s.channelsKey()))
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}

	out := map[string][]string{GeneralChannel: {}}
	for _, name := range names {
		members, err := redis.Strings(redis.DoContext(conn, ctx, "SMEMBERS", s.channelKey(name)))
		if err != nil {
			return nil, fmt.Errorf("list members of %q: %w", name, err)
		}
		sort.Strings(members)
		out[name] = members
	}
	return out, nil
}

func (s *RedisStore) ChannelMembers(ctx context.Context, channel string) ([]string, error) {
	conn, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if channel != GeneralChannel {
		exists, err := redis.Bool(redis.DoContext(conn, ctx, "SISMEMBER", s.channelsKey(), channel))
		if err != nil {
			return nil, fmt.Errorf("lookup channel: %w", err)
		}
		if !exists {
			return nil, ErrChannelNotFound
		}
	}

	members, err := redis.Strings(redis.DoContext(conn, ctx, "SMEMBERS", s.channelKey(channel)))
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	sort.Strings(members)
	return members, nil
}

func (s *RedisStore) Close() error {
	return s.pool.Close()
}

func (s *RedisStore) conn(ctx context.Context) (redis.Conn, error) {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("redis connection: %w", err)
	}
	return conn, nil
}

func (s *RedisStore) usersKey() string    { return s.prefix + "users" }
func (s *RedisStore) peersKey() string    { return s.prefix + "peers" }
func (s *RedisStore) channelsKey() string { return s.prefix + "channels" }

func (s *RedisStore) channelKey(name string) string {
	return s.prefix + "channel:" + name
}
