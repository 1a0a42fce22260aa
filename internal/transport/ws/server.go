package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"hashchat/internal/relay"
)

// Authenticator resuelve el user id de un access token.
type Authenticator interface {
	Validate(token string) (string, error)
}

// Relay es lo que el transporte necesita del engine.
type Relay interface {
	Join(ch relay.Channel, userID string) error
	Leave(ch relay.Channel)
	Submit(ctx context.Context, origin relay.Channel, in relay.SubmitInput) (relay.Outcome, error)
}

type Options struct {
	AllowedOrigins []string
	SendRate       float64
	SendBurst      int
	OutboundBuffer int
	SubmitTimeout  time.Duration
	PingEvery      time.Duration
}

type Server struct {
	logger   *zap.Logger
	auth     Authenticator
	relay    Relay
	upgrader websocket.Upgrader
	opts     Options

	mu    sync.Mutex
	conns map[string]*wsConn
}

func NewServer(logger *zap.Logger, auth Authenticator, r Relay, opts Options) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PingEvery <= 0 {
		opts.PingEvery = 15 * time.Second
	}
	if opts.SubmitTimeout <= 0 {
		opts.SubmitTimeout = 10 * time.Second
	}
	if opts.OutboundBuffer <= 0 {
		opts.OutboundBuffer = 64
	}
	s := &Server{
		logger: logger,
		auth:   auth,
		relay:  r,
		opts:   opts,
		conns:  make(map[string]*wsConn),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// ServeHTTP maneja GET /ws?token=... (o Authorization: Bearer).
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := tokenFromRequest(r)
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	userID, err := s.auth.Validate(token)
	if err != nil || userID == "" {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade ya respondio al cliente.
		s.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	c := newWsConn(uuid.NewString(), userID, conn, s.opts.OutboundBuffer, s.newLimiter())
	s.track(c)
	s.logger.Debug("ws connected", zap.String("channel", c.id), zap.String("user_id", userID))

	go s.writeLoop(c)
	s.readLoop(c)

	s.relay.Leave(c)
	s.untrack(c)
	if err := c.Close(); err != nil {
		s.logger.Debug("ws close failed", zap.String("channel", c.id), zap.Error(err))
	}
	s.logger.Debug("ws disconnected", zap.String("channel", c.id), zap.String("user_id", userID))
}

// CloseAll cierra todas las conexiones abiertas; se usa al apagar.
func (s *Server) CloseAll() {
	s.mu.Lock()
	conns := lo.Values(s.conns)
	s.mu.Unlock()
	for _, c := range conns {
		_ = c.Close()
	}
}

// Open devuelve la cantidad de conexiones abiertas.
func (s *Server) Open() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *Server) readLoop(c *wsConn) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(1 << 20)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.opts.PingEvery))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(2 * s.opts.PingEvery))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("ws read failed", zap.String("channel", c.id), zap.Error(err))
			}
			return
		}
		var frame inbound
		if err := json.Unmarshal(data, &frame); err != nil {
			s.reply(c, msgInvalidFrame)
			continue
		}
		s.dispatch(c, frame)
	}
}

// dispatch procesa un frame a la vez, asi los envios de una conexion mantienen su orden.
func (s *Server) dispatch(c *wsConn, frame inbound) {
	switch frame.Type {
	case relay.EventJoin:
		s.handleJoin(c, frame.Payload)
	case relay.EventSendMessage:
		s.handleSend(c, frame.Payload)
	default:
		s.logger.Debug("ws unknown event", zap.String("channel", c.id), zap.String("type", frame.Type))
	}
}

func (s *Server) handleJoin(c *wsConn, raw json.RawMessage) {
	userID, err := decodeJoin(raw)
	if err != nil || userID == "" {
		s.reply(c, msgInvalidFrame)
		return
	}
	if userID != c.userID {
		s.logger.Info("ws join refused", zap.String("channel", c.id), zap.String("user_id", c.userID), zap.String("requested", userID))
		s.reply(c, msgUnauthorized)
		return
	}
	if err := s.relay.Join(c, userID); err != nil {
		if errors.Is(err, relay.ErrDraining) {
			s.reply(c, msgShuttingDown)
			return
		}
		s.reply(c, msgInvalidFrame)
	}
}

func (s *Server) handleSend(c *wsConn, raw json.RawMessage) {
	if !c.allowSend() {
		s.reply(c, msgRateLimited)
		return
	}
	in, err := decodeSend(raw)
	if err != nil {
		s.reply(c, msgInvalidFrame)
		return
	}
	in.Sender = strings.TrimSpace(in.Sender)
	if in.Sender == "" {
		in.Sender = c.userID
	}
	if in.Sender != c.userID {
		s.logger.Info("ws sender mismatch", zap.String("channel", c.id), zap.String("user_id", c.userID), zap.String("sender", in.Sender))
		s.reply(c, msgUnauthorized)
		return
	}

	// El submit sobrevive al cierre de la conexion.
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.SubmitTimeout)
	defer cancel()
	outcome, err := s.relay.Submit(ctx, c, in)
	if err != nil {
		s.logger.Debug("ws submit failed", zap.String("channel", c.id), zap.String("outcome", string(outcome)), zap.Error(err))
	}
}

func (s *Server) writeLoop(c *wsConn) {
	ticker := time.NewTicker(s.opts.PingEvery)
	defer ticker.Stop()

	for {
		select {
		case evt := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := c.conn.WriteJSON(evt); err != nil {
				s.logger.Debug("ws write failed", zap.String("channel", c.id), zap.Error(err))
				_ = c.Close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				_ = c.Close()
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (s *Server) reply(c *wsConn, message string) {
	if err := c.Push(relay.ErrorEvent(message)); err != nil {
		s.logger.Debug("ws error event dropped", zap.String("channel", c.id), zap.Error(err))
	}
}

func (s *Server) newLimiter() *rate.Limiter {
	if s.opts.SendRate <= 0 {
		return nil
	}
	burst := s.opts.SendBurst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(s.opts.SendRate), burst)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.opts.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return lo.Contains(s.opts.AllowedOrigins, origin)
}

func (s *Server) track(c *wsConn) {
	s.mu.Lock()
	s.conns[c.id] = c
	s.mu.Unlock()
}

func (s *Server) untrack(c *wsConn) {
	s.mu.Lock()
	delete(s.conns, c.id)
	s.mu.Unlock()
}

func tokenFromRequest(r *http.Request) string {
	if token := strings.TrimSpace(r.URL.Query().Get("token")); token != "" {
		return token
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
