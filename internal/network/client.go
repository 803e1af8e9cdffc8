package network

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ghostguild/ghg-server/internal/engine"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 4096
	// Upper bound for a single command.
	commandTimeout = 5 * time.Second
)

// Client command types.
const (
	CommandStart        = "START"
	CommandReset        = "RESET"
	CommandSnapshot     = "SNAPSHOT"
	CommandProfile      = "PROFILE"
	CommandUpgradeSkill = "UPGRADE_SKILL"
	CommandCraft        = "CRAFT"
	CommandEquip        = "EQUIP"
)

// Reply types. Event broadcasts carry the event type instead.
const (
	ReplyOK    = "COMMAND_OK"
	ReplyError = "COMMAND_ERROR"
)

var ErrRateLimited = errors.New("rate limit exceeded")

// ClientCommand represents an incoming command from the frontend.
type ClientCommand struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// CommandReply answers a single ClientCommand.
type CommandReply struct {
	Type    string      `json:"type"`
	Command string      `json:"command"`
	Error   string      `json:"error,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// Client is one websocket connection. The hub owns and closes send;
// replies is written only by the client's own read loop.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	replies chan []byte

	windowStart time.Time
	windowCount int
}

// NewClient creates a new WebSocket client and returns it.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, hub.opts.ClientSendBuffer),
		replies: make(chan []byte, 16),
	}
}

// Register adds the client to the hub.
func (c *Client) Register() {
	select {
	case c.hub.register <- c:
	case <-c.hub.done:
		c.conn.Close()
	}
}

// ReadPump pumps commands from the websocket connection to the engine.
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
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
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.metrics.RecordWSError()
				c.hub.logger.Warn("WebSocket read error: " + err.Error())
			}
			break
		}
		c.hub.metrics.RecordWSMessage(true)

		var cmd ClientCommand
		if err := json.Unmarshal(message, &cmd); err != nil {
			c.hub.logger.Error("Failed to parse ClientCommand from WebSocket. err: " + err.Error())
			c.reply(CommandReply{Type: ReplyError, Error: "malformed command"})
			continue
		}

		c.reply(c.handleCommand(time.Now(), cmd))
	}
}

// allow applies the per-second message budget.
func (c *Client) allow(now time.Time) bool {
	if now.Sub(c.windowStart) >= time.Second {
		c.windowStart = now
		c.windowCount = 0
	}
	c.windowCount++
	return c.windowCount <= c.hub.opts.MaxMessagesPerSecond
}

func (c *Client) handleCommand(now time.Time, cmd ClientCommand) CommandReply {
	if !c.allow(now) {
		c.hub.logger.Warn("Rate limit exceeded for client command " + cmd.Type)
		return CommandReply{Type: ReplyError, Command: cmd.Type, Error: ErrRateLimited.Error()}
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	payload, err := c.dispatch(ctx, cmd)
	if err != nil {
		return CommandReply{Type: ReplyError, Command: cmd.Type, Error: err.Error()}
	}
	return CommandReply{Type: ReplyOK, Command: cmd.Type, Payload: payload}
}

func (c *Client) dispatch(ctx context.Context, cmd ClientCommand) (interface{}, error) {
	h := c.hub
	switch cmd.Type {
	case CommandStart:
		var req engine.StartRequest
		if err := decodePayload(cmd.Payload, &req); err != nil {
			return nil, err
		}
		snap, err := h.engine.StartEncounter(ctx, req)
		if err != nil {
			return nil, err
		}
		h.logger.Event("CLIENT_START", snap.SessionID, req.HunterID+" @ "+req.LocationID)
		return snap, nil
	case CommandReset:
		return h.engine.Reset(ctx)
	case CommandSnapshot:
		return h.engine.Snapshot(ctx)
	case CommandProfile:
		return h.guild.LoadProfile(ctx, h.userID), nil
	case CommandUpgradeSkill, CommandCraft, CommandEquip:
		var target struct {
			ID string `json:"id"`
		}
		if err := decodePayload(cmd.Payload, &target); err != nil {
			return nil, err
		}
		switch cmd.Type {
		case CommandUpgradeSkill:
			return h.guild.UpgradeSkill(ctx, h.userID, target.ID)
		case CommandCraft:
			return h.guild.Craft(ctx, h.userID, target.ID)
		default:
			return h.guild.Equip(ctx, h.userID, target.ID)
		}
	}
	h.logger.Warn("Unknown ClientCommand type: " + cmd.Type)
	return nil, errors.New("unknown command " + cmd.Type)
}

func decodePayload(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return errors.New("missing payload")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.New("malformed payload")
	}
	return nil
}

// reply queues a direct answer; it is dropped if the client is not reading.
func (c *Client) reply(r CommandReply) {
	b, err := json.Marshal(r)
	if err != nil {
		c.hub.logger.Error("Failed to serialize CommandReply: " + err.Error())
		return
	}
	select {
	case c.replies <- b:
	default:
		c.hub.metrics.RecordWSError()
	}
}

// WritePump pumps messages from the hub to the websocket connection.
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
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case message := <-c.replies:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
