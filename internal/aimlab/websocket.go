package aimlab

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"aimlab/internal/protocol"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	readLimit    = 64 << 10
	pongWait     = 60 * time.Second
	pingPeriod   = 25 * time.Second
	writeWait    = 10 * time.Second
	sendBuffered = 256
)

var errSendBufferFull = errors.New("send buffer full")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsConn queues outbound frames for a single writer goroutine.
type wsConn struct {
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

func (c *wsConn) Send(b []byte) (err error) {
	defer func() {
		if recover() != nil {
			err = websocket.ErrCloseSent
		}
	}()
	select {
	case c.send <- b:
		return nil
	default:
		return errSendBufferFull
	}
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() { close(c.send) })
	return nil
}

func NewWebsocketHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("Websocket upgrade failed", "err", err)
			return
		}

		wc := &wsConn{conn: conn, send: make(chan []byte, sendBuffered)}
		sp := &Spectator{ID: "s_" + uuid.NewString(), Conn: wc}

		e.Register <- sp
		go writePump(wc)
		go readPump(e, sp, wc)
	}
}

func readPump(e *Engine, sp *Spectator, c *wsConn) {
	defer func() {
		e.Unregister <- sp
		c.conn.Close()
	}()

	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("Websocket read failed", "id", sp.ID, "err", err)
			}
			return
		}

		env, err := protocol.DecodeEnvelope(message)
		if err != nil {
			e.sendTo(sp, protocol.MsgError, protocol.Error{Message: err.Error()})
			continue
		}
		if err := e.Apply(context.Background(), env); err != nil {
			e.sendTo(sp, protocol.MsgError, protocol.Error{Cmd: env.T, Message: err.Error()})
			continue
		}
		e.sendTo(sp, protocol.MsgAck, protocol.Ack{Cmd: env.T})
	}
}

func writePump(c *wsConn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
