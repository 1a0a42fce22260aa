package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"hashchat/internal/relay"
)

// wsConn implementa relay.Channel sobre una conexion gorilla.
// Push encola sin bloquear; el writeLoop es el unico que escribe en el socket.
type wsConn struct {
	id      string
	userID  string
	conn    *websocket.Conn
	limiter *rate.Limiter

	out       chan relay.Event
	closed    chan struct{}
	closeOnce sync.Once
}

func newWsConn(id, userID string, conn *websocket.Conn, buffer int, limiter *rate.Limiter) *wsConn {
	if buffer <= 0 {
		buffer = 1
	}
	return &wsConn{
		id:      id,
		userID:  userID,
		conn:    conn,
		limiter: limiter,
		out:     make(chan relay.Event, buffer),
		closed:  make(chan struct{}),
	}
}

func (c *wsConn) ID() string { return c.id }

func (c *wsConn) Push(evt relay.Event) error {
	select {
	case <-c.closed:
		return relay.ErrChannelClosed
	default:
	}
	select {
	case c.out <- evt:
		return nil
	case <-c.closed:
		return relay.ErrChannelClosed
	default:
		return relay.ErrChannelFull
	}
}

func (c *wsConn) allowSend() bool {
	if c.limiter == nil {
		return true
	}
	return c.limiter.Allow()
}

func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		if c.conn != nil {
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			err = c.conn.Close()
		}
	})
	return err
}
