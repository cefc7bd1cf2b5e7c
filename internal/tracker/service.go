package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Brownie44l1/tinyhttpd/internal/headers"
	"github.com/Brownie44l1/tinyhttpd/internal/request"
	"github.com/Brownie44l1/tinyhttpd/internal/router"
	"github.com/Brownie44l1/tinyhttpd/internal/server"
)

// Service serves the tracker routes: accounts, sessions, peer presence and
// channel membership.
type Service struct {
	store    Store
	sessions *Sessions
	cost     int
	timeout  time.Duration
	logger   server.Logger
}

func NewService(cfg Config, store Store, logger server.Logger) *Service {
	cfg = sanitizeConfig(cfg)
	if logger == nil {
		logger = &server.NullLogger{}
	}
	return &Service{
		store:    store,
		sessions: NewSessions(cfg.SessionSecret, cfg.SessionTTL),
		cost:     cfg.BcryptCost,
		timeout:  cfg.RequestTimeout,
		logger:   logger,
	}
}

// Routes registers every tracker endpoint on r
func (s *Service) Routes(r *router.Router) {
	r.POST("/register", s.register)
	r.POST("/login", s.login)
	r.GET("/session", s.session)
	r.POST("/submit-info", s.submitInfo)
	r.GET("/get-list", s.getList)
	r.GET("/get-channels", s.getChannels)
	r.POST("/join-channel", s.joinChannel)
	r.POST("/get-channel-peers", s.getChannelPeers)
	r.POST("/leave-channel", s.leaveChannel)
	r.POST("/logout", s.logout)
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type peerSubmission struct {
	Username string `json:"username"`
	IP       string `json:"ip"`
	Port     int    `json:"port"`
}

type membership struct {
	Username string `json:"username"`
	Channel  string `json:"channel"`
}

func (s *Service) register(_ *headers.Headers, body string) (*router.Result, error) {
	var in credentials
	if err := decode(body, &in); err != nil {
		return badRequest(err.Error())
	}
	if in.Username == "" || in.Password == "" {
		return badRequest("Username and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		// over-long passwords are the caller's fault
		return badRequest(err.Error())
	}

	ctx, cancel := s.context()
	defer cancel()

	if err := s.store.CreateUser(ctx, in.Username, string(hash)); err != nil {
		if errors.Is(err, ErrUserExists) {
			s.logger.Info("register rejected", server.Field{Key: "username", Value: in.Username})
			return badRequest("Username already exists")
		}
		return nil, err
	}

	s.logger.Info("user registered", server.Field{Key: "username", Value: in.Username})
	return reply(200, "User registered successfully", nil)
}

func (s *Service) login(_ *headers.Headers, body string) (*router.Result, error) {
	var in credentials
	if err := decode(body, &in); err != nil {
		return badRequest(err.Error())
	}

	ctx, cancel := s.context()
	defer cancel()

	hash, err := s.store.PasswordHash(ctx, in.Username)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	if err != nil || bcrypt.CompareHashAndPassword([]byte(hash), []byte(in.Password)) != nil {
		return reply(401, "Invalid credentials", nil)
	}

	token, err := s.sessions.Issue(in.Username)
	if err != nil {
		return nil, err
	}

	res, err := reply(200, "Login successful", map[string]any{
		"username": in.Username,
		"token":    token,
	})
	if err != nil {
		return nil, err
	}
	res.SetCookie = s.sessions.Cookie(token)

	s.logger.Info("user logged in", server.Field{Key: "username", Value: in.Username})
	return res, nil
}

func (s *Service) session(h *headers.Headers, _ string) (*router.Result, error) {
	token, ok := request.CookieValue(h, SessionCookie)
	if !ok {
		return reply(401, "Not logged in", nil)
	}

	username, err := s.sessions.Verify(token)
	if err != nil {
		s.logger.Debug("session rejected", server.Field{Key: "error", Value: err})
		return reply(401, "Session expired or invalid", nil)
	}
	return reply(200, "Session valid", map[string]any{"username": username})
}

func (s *Service) submitInfo(_ *headers.Headers, body string) (*router.Result, error) {
	var in peerSubmission
	if err := decode(body, &in); err != nil {
		return badRequest(err.Error())
	}
	if in.Username == "" || in.IP == "" || in.Port == 0 {
		return badRequest("Missing data")
	}

	ctx, cancel := s.context()
	defer cancel()

	if err := s.store.SetOnline(ctx, in.Username, PeerInfo{IP: in.IP, Port: in.Port}); err != nil {
		return nil, err
	}

	s.logger.Info("peer online",
		server.Field{Key: "username", Value: in.Username},
		server.Field{Key: "addr", Value: fmt.Sprintf("%s:%d", in.IP, in.Port)},
	)
	return reply(200, "Info submitted", nil)
}

func (s *Service) getList(_ *headers.Headers, _ string) (*router.Result, error) {
	ctx, cancel := s.context()
	defer cancel()

	members, err := s.store.ChannelMembers(ctx, GeneralChannel)
	if err != nil {
		return nil, err
	}
	peers, err := s.onlineAmong(ctx, members)
	if err != nil {
		return nil, err
	}

	return reply(200, "", map[string]any{
		"channel": GeneralChannel,
		"peers":   peers,
	})
}

func (s *Service) getChannels(_ *headers.Headers, _ string) (*router.Result, error) {
	ctx, cancel := s.context()
	defer cancel()

	channels, err := s.store.Channels(ctx)
	if err != nil {
		return nil, err
	}
	online, err := s.store.OnlinePeers(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]string, len(channels))
	for name, members := range channels {
		list := make([]string, 0, len(members))
		for _, m := range members {
			if _, ok := online[m]; ok {
				list = append(list, m)
			}
		}
		out[name] = list
	}

	return reply(200, "", map[string]any{"channels": out})
}

func (s *Service) joinChannel(_ *headers.Headers, body string) (*router.Result, error) {
	var in membership
	if err := decode(body, &in); err != nil {
		return badRequest(err.Error())
	}
	if in.Username == "" || in.Channel == "" {
		return badRequest("Username and channel are required")
	}

	ctx, cancel := s.context()
	defer cancel()

	if err := s.store.JoinChannel(ctx, in.Channel, in.Username); err != nil {
		return nil, err
	}
	return reply(200, "Joined "+in.Channel, nil)
}

func (s *Service) getChannelPeers(_ *headers.Headers, body string) (*router.Result, error) {
	var in membership
	if err := decode(body, &in); err != nil {
		return badRequest(err.Error())
	}
	if in.Username == "" || in.Channel == "" {
		return badRequest("Channel name required")
	}

	ctx, cancel := s.context()
	defer cancel()

	members, err := s.store.ChannelMembers(ctx, in.Channel)
	if errors.Is(err, ErrChannelNotFound) {
		return reply(404, "Channel not found", nil)
	}
	if err != nil {
		return nil, err
	}

	if !slices.Contains(members, in.Username) {
		s.logger.Warn("channel access denied",
			server.Field{Key: "username", Value: in.Username},
			server.Field{Key: "channel", Value: in.Channel},
		)
		return reply(403, "Forbidden. You are not a member of this channel.", nil)
	}

	peers, err := s.onlineAmong(ctx, members)
	if err != nil {
		return nil, err
	}
	return reply(200, "", map[string]any{
		"channel": in.Channel,
		"peers":   peers,
	})
}

func (s *Service) leaveChannel(_ *headers.Headers, body string) (*router.Result, error) {
	var in membership
	if err := decode(body, &in); err != nil {
		return badRequest(err.Error())
	}
	if in.Username == "" || in.Channel == "" {
		return badRequest("Username and channel are required")
	}

	ctx, cancel := s.context()
	defer cancel()

	err := s.store.LeaveChannel(ctx, in.Channel, in.Username)
	if errors.Is(err, ErrNotMember) {
		return reply(404, "Channel or user not found in that channel", nil)
	}
	if err != nil {
		return nil, err
	}
	return reply(200, "Successfully left "+in.Channel, nil)
}

func (s *Service) logout(_ *headers.Headers, body string) (*router.Result, error) {
	var in struct {
		Username string `json:"username"`
	}
	if err := decode(body, &in); err != nil {
		return badRequest(err.Error())
	}
	if in.Username == "" {
		return badRequest("Username is required")
	}

	ctx, cancel := s.context()
	defer cancel()

	if err := s.store.Logout(ctx, in.Username); err != nil {
		return nil, err
	}

	s.logger.Info("user logged out", server.Field{Key: "username", Value: in.Username})
	return reply(200, "Logout successful", nil)
}

func (s *Service) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func (s *Service) onlineAmong(ctx context.Context, members []string) (map[string]PeerInfo, error) {
	online, err := s.store.OnlinePeers(ctx)
	if err != nil {
		return nil, err
	}

	peers := make(map[string]PeerInfo)
	for _, m := range members {
		if peer, ok := online[m]; ok {
			peers[m] = peer
		}
	}
	return peers, nil
}

func decode(body string, v any) error {
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// reply builds the JSON body every tracker route answers with
func reply(status int, message string, fields map[string]any) (*router.Result, error) {
	out := map[string]any{"status": status}
	if message != "" {
		out["message"] = message
	}
	for k, v := range fields {
		out[k] = v
	}
	return router.JSON(status, out)
}

func badRequest(message string) (*router.Result, error) {
	return reply(400, message, nil)
}
