package tracker

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionsRoundTrip(t *testing.T) {
	s := NewSessions("secret", time.Hour)

	token, err := s.Issue("alice")
	require.NoError(t, err)

	username, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", username)

	assert.Equal(t, "session="+token+"; Path=/; HttpOnly", s.Cookie(token))
}

func TestSessionsRejects(t *testing.T) {
	s := NewSessions("secret", time.Hour)
	token, err := s.Issue("alice")
	require.NoError(t, err)

	// Test: wrong secret
	_, err = NewSessions("other", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidSession)

	// Test: tampered payload
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	_, err = s.Verify(parts[0] + ".e30." + parts[2])
	assert.ErrorIs(t, err, ErrInvalidSession)

	// Test: expired
	later := NewSessions("secret", time.Hour)
	later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = later.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidSession)

	// Test: garbage
	_, err = s.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidSession)
}
