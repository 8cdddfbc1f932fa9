package relay

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/pokerpoll/internal/api"
	"github.com/lox/pokerpoll/internal/client"
	"github.com/lox/pokerpoll/internal/gate"
	"github.com/lox/pokerpoll/internal/overlay"
	"github.com/lox/pokerpoll/internal/reconcile"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	sendBuffer = 256
)

// ErrConnectionClosed is returned when sending on a closed connection
var ErrConnectionClosed = websocket.ErrCloseSent

// Connection is one browser. It owns a client.Table and is that table's
// view: every update is forwarded as a JSON message.
type Connection struct {
	conn   *websocket.Conn
	send   chan *Message
	table  *client.Table
	logger *log.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
}

var _ client.View = (*Connection)(nil)

// NewConnection wraps conn. ctx bounds the connection and its game sessions.
func NewConnection(ctx context.Context, conn *websocket.Conn, gameAPI client.GameAPI, opts client.Options, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(ctx)
	c := &Connection{
		conn:   conn,
		send:   make(chan *Message, sendBuffer),
		logger: logger.WithPrefix("conn"),
		ctx:    ctx,
		cancel: cancel,
	}
	opts.Logger = logger
	c.table = client.NewTable(gameAPI, c, opts)
	return c
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Done is closed once the connection is closed
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close stops the session and closes the socket
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		c.table.Close()

		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()

		err = c.conn.Close()
	})
	return err
}

// SendMessage queues msg without blocking. A peer that cannot keep up is
// disconnected.
func (c *Connection) SendMessage(msg *Message) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrConnectionClosed
	}
	select {
	case c.send <- msg:
		c.mu.Unlock()
		return nil
	default:
	}
	c.mu.Unlock()

	c.logger.Warn("Connection send buffer full, closing connection")
	// Close re-enters the table, which may be what is calling us
	go func() { _ = c.Close() }()
	return ErrConnectionClosed
}

func (c *Connection) post(mt MessageType, data any) {
	msg, err := NewMessage(mt, data)
	if err != nil {
		c.logger.Error("Failed to create message", "type", mt, "error", err)
		return
	}
	_ = c.SendMessage(msg)
}

func (c *Connection) sendError(code, message string) {
	c.post(TypeError, ErrorData{Code: code, Message: message})
}

// client.View

func (c *Connection) Apply(updates []reconcile.Update) {
	for _, u := range updates {
		mt, data := updatePayload(u)
		c.post(mt, data)
	}
}

func (c *Connection) Controls(ctrl gate.Controls) {
	c.post(TypeControls, controlsData(ctrl))
}

func (c *Connection) Lobby(games []api.GameSummary) {
	if games == nil {
		games = []api.GameSummary{}
	}
	c.post(TypeLobby, LobbyData{Games: games})
}

func (c *Connection) Notice(level client.NoticeLevel, msg string) {
	c.post(TypeNotice, NoticeData{Level: level.String(), Text: msg})
}

func (c *Connection) Entered(s client.Session) {
	c.post(TypeEntered, EnteredData{GameID: s.GameID, PlayerID: s.PlayerID, Name: s.Name, Spectator: s.Spectator()})
}

func (c *Connection) Left() {
	c.post(TypeLeft, struct{}{})
}

func (c *Connection) ShowHandWinner(w overlay.HandWinner, remaining int) {
	c.post(TypeOverlayHandWinner, handWinnerData(w, remaining))
}

func (c *Connection) Countdown(remaining int) {
	c.post(TypeOverlayCountdown, CountdownData{Remaining: remaining})
}

func (c *Connection) ShowGameWinner(w overlay.GameWinner) {
	c.post(TypeOverlayGameWinner, GameWinnerData{PlayerID: w.PlayerID, Name: w.Name})
}

func (c *Connection) Hide() {
	c.post(TypeOverlayHide, struct{}{})
}

// readPump handles incoming messages from the browser
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}
		if c.ctx.Err() != nil {
			return
		}
		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the browser
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Connection) decode(msg *Message, out any) bool {
	if err := json.Unmarshal(msg.Data, out); err != nil {
		c.sendError("invalid_message", "Failed to parse "+msg.Type.String()+" data")
		return false
	}
	return true
}

// handleMessage runs one browser command against the table
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type)

	var err error
	switch msg.Type {
	case TypeList:
		err = c.table.Lobby(c.ctx)

	case TypeCreate:
		var data CreateData
		if !c.decode(msg, &data) {
			return
		}
		if data.Name == "" {
			c.sendError("invalid_message", "Game name required")
			return
		}
		if _, err = c.table.CreateGame(c.ctx, data.Name); err == nil {
			err = c.table.Lobby(c.ctx)
		}

	case TypeWatch:
		var data GameData
		if !c.decode(msg, &data) {
			return
		}
		if data.GameID == "" {
			c.sendError("invalid_message", "Game id required")
			return
		}
		c.table.Watch(c.ctx, data.GameID)

	case TypeJoin:
		var data JoinData
		if !c.decode(msg, &data) {
			return
		}
		if data.GameID == "" || data.Name == "" {
			c.sendError("invalid_message", "Game id and player name required")
			return
		}
		err = c.table.Join(c.ctx, data.GameID, data.Name)

	case TypeLeave:
		if !c.table.Leave() {
			err = client.ErrNoSession
		}

	case TypeStart:
		err = c.table.StartGame(c.ctx)

	case TypeAddBot:
		_, err = c.table.AddBot(c.ctx)

	case TypeAction:
		var data ActionData
		if !c.decode(msg, &data) {
			return
		}
		if !data.Type.Valid() {
			c.sendError("invalid_message", "Unknown action: "+string(data.Type))
			return
		}
		err = c.table.Submit(c.ctx, api.Action{Type: data.Type, Amount: data.Amount})

	case TypeDismiss:
		c.table.DismissWinner()

	case TypeRefresh:
		c.table.Refresh()

	default:
		c.sendError("unknown_message_type", "Unknown message type: "+msg.Type.String())
		return
	}

	if err != nil {
		c.sendError(errorCode(err), err.Error())
	}
}

var errorCodes = []struct {
	err  error
	code string
}{
	{client.ErrNoSession, "no_session"},
	{client.ErrNotSeated, "not_seated"},
	{client.ErrNotYourTurn, "not_your_turn"},
	{client.ErrAlreadyActed, "already_acted"},
	{client.ErrStartInFlight, "start_in_flight"},
	{gate.ErrSubmitInFlight, "submit_in_flight"},
	{gate.ErrInvalidAmount, "invalid_amount"},
	{api.ErrConnectionUnavailable, "server_unavailable"},
}

func errorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	if _, ok := api.RejectionMessage(err); ok {
		return "rejected"
	}
	return "request_failed"
}
