// network/connection.go
package network

import (
	"context"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

type Connection interface {
	WriteJSON(v interface{}) error
	ReadMessage() ([]byte, error)
	Close() error
	RemoteAddr() net.Addr
}

type WSConnection struct {
	conn      *websocket.Conn
	sendMutex sync.Mutex
	heartbeat time.Duration
	closeOnce sync.Once
}

func NewWSConnection(conn *websocket.Conn) *WSConnection {
	return &WSConnection{conn: conn}
}

// WriteJSON sends v as one text frame.
func (c *WSConnection) WriteJSON(v interface{}) error {
	c.sendMutex.Lock()
	defer c.sendMutex.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

func (c *WSConnection) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

// SetHeartbeat expects a server ping at least every interval*2; each ping extends the deadline.
func (c *WSConnection) SetHeartbeat(interval time.Duration) {
	c.heartbeat = interval
	c.conn.SetReadDeadline(time.Now().Add(interval * 2))
	c.conn.SetPingHandler(func(appData string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.heartbeat * 2))
		err := c.conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
		if err == websocket.ErrCloseSent {
			return nil
		}
		if e, ok := err.(net.Error); ok && e.Timeout() {
			return nil
		}
		return err
	})
}

func (c *WSConnection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		err = c.conn.Close()
	})
	return err
}

func (c *WSConnection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

type Dialer interface {
	Dial(ctx context.Context, rawURL string) (Connection, error)
}

// WSDialer opens gorilla websocket connections.
type WSDialer struct {
	Dialer    *websocket.Dialer
	Heartbeat time.Duration
}

func (d WSDialer) Dial(ctx context.Context, rawURL string) (Connection, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		return nil, err
	}
	ws := NewWSConnection(conn)
	if d.Heartbeat > 0 {
		ws.SetHeartbeat(d.Heartbeat)
	}
	return ws, nil
}

// Params are the query parameters of the websocket handshake.
type Params struct {
	Name  string
	Token string
	Auth  string
	Room  string
}

// BuildURL appends the handshake parameters to base; empty values are omitted.
func BuildURL(base string, p Params) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for key, value := range map[string]string{"name": p.Name, "token": p.Token, "auth": p.Auth, "room": p.Room} {
		if value != "" {
			q.Set(key, value)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
