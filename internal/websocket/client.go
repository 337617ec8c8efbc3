// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package websocket

import (
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jmoreau78/audiotheca/internal/logging"
	"github.com/jmoreau78/audiotheca/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024 // 512 KB
)

// clientIDCounter hands out ordering IDs. The hub sorts clients by ID
// before delivery so broadcast order never depends on map iteration.
var clientIDCounter atomic.Uint64

// Client owns one websocket connection: a read pump feeding the hub's
// lifecycle channels and a write pump draining the send buffer.
type Client struct {
	id   uint64
	hub  *Hub
	conn *websocket.Conn
	send chan Message
}

// NewClient wraps an upgraded connection for the hub.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:   clientIDCounter.Add(1),
		hub:  hub,
		conn: conn,
		send: make(chan Message, 256),
	}
}

// ID returns the client's ordering identifier.
func (c *Client) ID() uint64 {
	return c.id
}

// Start launches both pumps. The pumps own the connection from here on:
// readPump unregisters the client when the peer goes away, writePump closes
// the connection when the hub closes the send channel.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// readPump consumes inbound frames until the connection dies. Clients only
// ever send application-level pings to keep the connection warm; anything
// else is ignored.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		metrics.WSErrors.WithLabelValues("read").Inc()
		logging.Error().Err(err).Uint64("client_id", c.id).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				metrics.WSErrors.WithLabelValues("read").Inc()
				logging.Error().Err(err).Uint64("client_id", c.id).Msg("unexpected websocket close")
			}
			return
		}
		if msg.Type == MessageTypePing {
			c.enqueuePong()
		}
	}
}

// enqueuePong answers an application-level ping. A full send buffer means
// the write side is already behind; the pong is dropped rather than letting
// a chatty client block the read pump.
func (c *Client) enqueuePong() {
	select {
	case c.send <- Message{Type: MessageTypePong}:
	default:
	}
}

// writePump drains the send buffer and keeps the protocol-level ping cycle
// going. Any write failure tears the connection down; readPump then
// unregisters the client.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// Hub closed the channel; say goodbye properly.
				c.writeControl(websocket.CloseMessage, []byte{})
				return
			}
			if !c.writeJSON(message) {
				return
			}

		case <-ticker.C:
			if !c.writeControl(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

// writeJSON sends one message under the write deadline, reporting whether
// the pump should keep going.
func (c *Client) writeJSON(message Message) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		metrics.WSErrors.WithLabelValues("write").Inc()
		logging.Error().Err(err).Uint64("client_id", c.id).Msg("failed to set write deadline")
		return false
	}
	if err := c.conn.WriteJSON(message); err != nil {
		metrics.WSErrors.WithLabelValues("write").Inc()
		logging.Error().Err(err).Uint64("client_id", c.id).Msg("failed to write message")
		return false
	}
	metrics.WSMessagesSent.Inc()
	return true
}

// writeControl sends a control frame under the write deadline.
func (c *Client) writeControl(messageType int, payload []byte) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		metrics.WSErrors.WithLabelValues("write").Inc()
		return false
	}
	return c.conn.WriteMessage(messageType, payload) == nil
}
