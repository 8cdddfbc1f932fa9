package relay

import (
	"encoding/json"
	"time"

	"github.com/lox/pokerpoll/internal/api"
	"github.com/lox/pokerpoll/internal/gate"
	"github.com/lox/pokerpoll/internal/overlay"
	"github.com/lox/pokerpoll/internal/reconcile"
)

// MessageType names a websocket message
type MessageType string

// Browser to relay
const (
	TypeList    MessageType = "list"
	TypeCreate  MessageType = "create"
	TypeWatch   MessageType = "watch"
	TypeJoin    MessageType = "join"
	TypeLeave   MessageType = "leave"
	TypeStart   MessageType = "start"
	TypeAddBot  MessageType = "add_bot"
	TypeAction  MessageType = "action"
	TypeDismiss MessageType = "dismiss"
	TypeRefresh MessageType = "refresh"
)

// Relay to browser. View updates use the reconciler's kind names (phase,
// pot, current_bet, community_cards, players, player, player_order,
// action_log).
const (
	TypeLobby             MessageType = "lobby"
	TypeEntered           MessageType = "entered"
	TypeLeft              MessageType = "left"
	TypeControls          MessageType = "controls"
	TypeOverlayHandWinner MessageType = "overlay_hand_winner"
	TypeOverlayCountdown  MessageType = "overlay_countdown"
	TypeOverlayGameWinner MessageType = "overlay_game_winner"
	TypeOverlayHide       MessageType = "overlay_hide"
	TypeNotice            MessageType = "notice"
	TypeError             MessageType = "error"
)

func (mt MessageType) String() string {
	return string(mt)
}

// Message is the envelope of every websocket frame
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a message stamped with the current time
func NewMessage(messageType MessageType, data any) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Browser → relay payloads

type CreateData struct {
	Name string `json:"name"`
}

type GameData struct {
	GameID string `json:"game_id"`
}

type JoinData struct {
	GameID string `json:"game_id"`
	Name   string `json:"name"`
}

type ActionData struct {
	Type   api.ActionKind `json:"type"`
	Amount int            `json:"amount,omitempty"`
}

// Relay → browser payloads

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type NoticeData struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

type LobbyData struct {
	Games []api.GameSummary `json:"games"`
}

type EnteredData struct {
	GameID    string `json:"game_id"`
	PlayerID  string `json:"player_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Spectator bool   `json:"spectator"`
}

type PhaseData struct {
	Phase string `json:"phase"`
}

type PotData struct {
	Pot int `json:"pot"`
}

type CurrentBetData struct {
	CurrentBet int `json:"current_bet"`
}

type CardsData struct {
	Cards []string `json:"cards"`
}

// PlayerData is one player node. Cards holds the faces to draw, with card
// backs for cards the viewer cannot see.
type PlayerData struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Chips      int      `json:"chips"`
	Bet        int      `json:"bet"`
	Status     string   `json:"status"`
	Active     bool     `json:"active"`
	Folded     bool     `json:"folded"`
	Cards      []string `json:"cards"`
	LastAction string   `json:"last_action,omitempty"`
}

type PlayersData struct {
	Players []PlayerData `json:"players"`
}

type OrderData struct {
	Order []string `json:"order"`
}

// ActionLogData carries the whole log, newest first
type ActionLogData struct {
	Entries []string `json:"entries"`
}

type ControlsData struct {
	Visible    bool     `json:"visible"`
	MyTurn     bool     `json:"my_turn"`
	Fold       bool     `json:"fold"`
	Check      bool     `json:"check"`
	Call       bool     `json:"call"`
	Raise      bool     `json:"raise"`
	AllIn      bool     `json:"allin"`
	CallAmount int      `json:"call_amount"`
	MinRaise   int      `json:"min_raise"`
	Message    string   `json:"message"`
	Cards      []string `json:"cards"`
	Chips      int      `json:"chips"`
}

type HandWinnerData struct {
	PlayerID    string   `json:"player_id"`
	Name        string   `json:"name"`
	Amount      int      `json:"amount"`
	Description string   `json:"description,omitempty"`
	Cards       []string `json:"cards,omitempty"`
	Remaining   int      `json:"remaining"`
}

type CountdownData struct {
	Remaining int `json:"remaining"`
}

type GameWinnerData struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
}

func playerData(c reconcile.PlayerContent) PlayerData {
	return PlayerData{
		ID:         c.ID,
		Name:       c.Name,
		Chips:      c.Chips,
		Bet:        c.Bet,
		Status:     string(c.Status),
		Active:     c.Active,
		Folded:     c.Folded,
		Cards:      nonNil(c.CardFaces()),
		LastAction: c.LastAction,
	}
}

// updatePayload maps one reconciler update to its message type and payload
func updatePayload(u reconcile.Update) (MessageType, any) {
	mt := MessageType(u.Kind.String())
	switch u.Kind {
	case reconcile.UpdatePhase:
		return mt, PhaseData{Phase: u.Phase}
	case reconcile.UpdatePot:
		return mt, PotData{Pot: u.Pot}
	case reconcile.UpdateCurrentBet:
		return mt, CurrentBetData{CurrentBet: u.CurrentBet}
	case reconcile.UpdateCommunityCards:
		return mt, CardsData{Cards: nonNil(u.Cards)}
	case reconcile.UpdatePlayersRebuilt:
		players := make([]PlayerData, len(u.Players))
		for i, p := range u.Players {
			players[i] = playerData(p)
		}
		return mt, PlayersData{Players: players}
	case reconcile.UpdatePlayer:
		return mt, playerData(u.Player)
	case reconcile.UpdatePlayerOrder:
		return mt, OrderData{Order: u.Order}
	case reconcile.UpdateActionLog:
		return mt, ActionLogData{Entries: nonNil(u.Log)}
	}
	return mt, nil
}

func controlsData(c gate.Controls) ControlsData {
	return ControlsData{
		Visible:    c.Visible,
		MyTurn:     c.MyTurn,
		Fold:       c.Fold,
		Check:      c.Check,
		Call:       c.Call,
		Raise:      c.Raise,
		AllIn:      c.AllIn,
		CallAmount: c.CallAmount,
		MinRaise:   c.MinRaise,
		Message:    c.Message,
		Cards:      nonNil(c.Cards),
		Chips:      c.Chips,
	}
}

func handWinnerData(w overlay.HandWinner, remaining int) HandWinnerData {
	return HandWinnerData{
		PlayerID:    w.PlayerID,
		Name:        w.Name,
		Amount:      w.Amount,
		Description: w.Description,
		Cards:       w.Cards,
		Remaining:   remaining,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
