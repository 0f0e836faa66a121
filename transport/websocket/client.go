package websocket

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// client is one browser connection. gorilla allows a single concurrent writer, so writes are serialized.
type client struct {
	conn *websocket.Conn

	writeMu  sync.Mutex
	playerID string
}

func newClient(conn *websocket.Conn) *client {
	return &client{conn: conn}
}

func (that *client) send(action string, payload Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	if err = that.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err = that.conn.WriteJSON(Message{Action: action, Payload: data}); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func (that *client) sendError(action, errorMsg string) error {
	return that.send(action, Payload{Error: errorMsg})
}
