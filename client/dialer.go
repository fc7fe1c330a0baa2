package client

import (
	"context"
	"net/http"

	"bluecollar-chat/errors"

	"github.com/gorilla/websocket"
)

// WebsocketDialer dials the relay with gorilla/websocket, presenting
// the bearer token on the handshake.
type WebsocketDialer struct{}

func (WebsocketDialer) Dial(ctx context.Context, url, token string) (Conn, error) {
	header := http.Header{"Authorization": []string{"Bearer " + token}}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, errors.ErrUnauthenticated
		}
		return nil, err
	}
	return gorillaConn{conn: conn}, nil
}

type gorillaConn struct {
	conn *websocket.Conn
}

func (c gorillaConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c gorillaConn) WriteMessage(data []byte) error {
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c gorillaConn) Close() error {
	return c.conn.Close()
}
