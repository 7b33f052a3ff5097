package main

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 50
	actionReplyWait   = 2 * time.Second
)

// Client represents a WebSocket viewer connection. Every client
// receives snapshots; only a connection holding a valid claim token
// may act on its address.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	remoteAddr string
	address    string // claimed address, "" for plain viewers
	msgCount   int
	msgResetAt time.Time
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		remoteAddr: remoteAddr,
	}
}

// SendJSON marshals and queues a JSON envelope, dropping on backpressure.
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws error: %v", err)
			}
			break
		}

		// Rate limiting
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			log.Printf("rate limit exceeded for %s, disconnecting", c.remoteAddr)
			break
		}

		var env InEnvelope
		if err := json.Unmarshal(message, &env); err != nil {
			c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "bad message"}})
			continue
		}
		c.handleMessage(env)
	}
}

// handleMessage dispatches one incoming envelope.
func (c *Client) handleMessage(env InEnvelope) {
	switch env.T {
	case MsgClaim:
		var msg ClaimMsg
		if err := json.Unmarshal(env.D, &msg); err != nil {
			c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "bad claim"}})
			return
		}
		address, err := c.hub.claims.Verify(msg.Token)
		if err != nil {
			c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: err.Error()}})
			return
		}
		c.address = address
		c.SendJSON(Envelope{T: MsgClaimed, Data: ClaimedMsg{Address: address}})

	case MsgAllocate:
		var msg AllocateMsg
		if err := json.Unmarshal(env.D, &msg); err != nil {
			c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "bad allocate"}})
			return
		}
		if c.address == "" {
			c.SendJSON(Envelope{T: MsgResult, Data: ResultMsg{Action: MsgAllocate, OK: false, Code: "unclaimed"}})
			return
		}
		c.submit(Action{Kind: ActionAllocate, Address: c.address, Talent: TalentID(msg.Talent)}, MsgAllocate)

	case MsgReset:
		if c.address == "" {
			c.SendJSON(Envelope{T: MsgResult, Data: ResultMsg{Action: MsgReset, OK: false, Code: "unclaimed"}})
			return
		}
		c.submit(Action{Kind: ActionReset, Address: c.address}, MsgReset)

	case MsgTx:
		var msg TxMsg
		if err := json.Unmarshal(env.D, &msg); err != nil || (msg.Kind != "buy" && msg.Kind != "sell") {
			c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "bad tx"}})
			return
		}
		c.submit(Action{Kind: ActionTx, TxKind: msg.Kind}, MsgTx)

	default:
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "unknown message type"}})
	}
}

// submit queues an action on the sim and relays the tick-boundary
// result back to this client without blocking the read pump for long.
func (c *Client) submit(a Action, action string) {
	reply := make(chan ActionResult, 1)
	a.Reply = reply
	c.hub.sim.SubmitAction(a)

	go func() {
		select {
		case res := <-reply:
			c.SendJSON(Envelope{T: MsgResult, Data: ResultMsg{Action: action, OK: res.OK, Code: res.Code}})
		case <-time.After(actionReplyWait):
			c.SendJSON(Envelope{T: MsgResult, Data: ResultMsg{Action: action, OK: false, Code: "timeout"}})
		}
	}()
}

// WritePump writes queued messages to the WebSocket connection.
// Snapshot payloads are binary msgpack; everything else is JSON text.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			msgType := websocket.BinaryMessage
			if len(message) > 0 && message[0] == '{' {
				msgType = websocket.TextMessage
			}
			if err := c.conn.WriteMessage(msgType, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
