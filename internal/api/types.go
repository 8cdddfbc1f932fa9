package api

import (
	"fmt"
	"slices"
)

// SpectatorID is the player id used to poll a game without a seat.
const SpectatorID = "spectator"

// ActionKind is one of the action types accepted by the server
type ActionKind string

const (
	Fold  ActionKind = "fold"
	Check ActionKind = "check"
	Call  ActionKind = "call"
	Raise ActionKind = "raise"
	AllIn ActionKind = "allin"
)

// Valid reports whether k is a known action type
func (k ActionKind) Valid() bool {
	switch k {
	case Fold, Check, Call, Raise, AllIn:
		return true
	}
	return false
}

// Action is the payload submitted for a turn. Amount is only sent for raises.
type Action struct {
	Type   ActionKind `json:"type"`
	Amount int        `json:"amount,omitempty"`
}

func (a Action) String() string {
	if a.Type == Raise {
		return fmt.Sprintf("%s (%d)", a.Type, a.Amount)
	}
	return string(a.Type)
}

// PlayerStatus mirrors the server's player status names
type PlayerStatus string

const (
	StatusActive     PlayerStatus = "Active"
	StatusFolded     PlayerStatus = "Folded"
	StatusSittingOut PlayerStatus = "SittingOut"
	StatusAllIn      PlayerStatus = "AllIn"
)

// PlayerType distinguishes seats taken by people from bot seats
type PlayerType string

const (
	PlayerHuman PlayerType = "human"
	PlayerBot   PlayerType = "bot"
)

// PlayerView is one seat as seen by the requesting viewer. Cards are only
// populated for the viewer's own seat.
type PlayerView struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Chips      int          `json:"chips"`
	CurrentBet int          `json:"current_bet"`
	Status     PlayerStatus `json:"status"`
	PlayerType PlayerType   `json:"player_type,omitempty"`
	Cards      []string     `json:"cards,omitempty"`
}

// GameSnapshot is the full game state returned by one poll. Optional fields
// the server sends as null decode to their zero values.
type GameSnapshot struct {
	GameID          string       `json:"game_id"`
	Phase           string       `json:"phase"`
	Pot             int          `json:"pot"`
	CurrentBet      int          `json:"current_bet"`
	CommunityCards  []string     `json:"community_cards"`
	Players         []PlayerView `json:"players"`
	CurrentPlayerID string       `json:"current_player_id"`
	YourPlayerID    string       `json:"your_player_id"`
	YourChips       int          `json:"your_chips"`
	YourCards       []string     `json:"your_cards"`
	ValidActions    []ActionKind `json:"valid_actions"`
	GameFinished    bool         `json:"game_finished"`
	WinnerID        string       `json:"winner_id"`
	WinnerName      string       `json:"winner_name"`
	ActionLog       []string     `json:"action_log"`

	LastHandWinner      string   `json:"last_hand_winner"`
	LastHandWinnerName  string   `json:"last_hand_winner_name"`
	LastHandAmount      int      `json:"last_hand_amount"`
	LastHandDescription string   `json:"last_hand_description"`
	LastHandCards       []string `json:"last_hand_cards"`
}

// Clone returns a deep copy so later mutation of s cannot leak into the copy
func (s *GameSnapshot) Clone() *GameSnapshot {
	if s == nil {
		return nil
	}
	c := *s
	c.CommunityCards = slices.Clone(s.CommunityCards)
	c.YourCards = slices.Clone(s.YourCards)
	c.ValidActions = slices.Clone(s.ValidActions)
	c.ActionLog = slices.Clone(s.ActionLog)
	c.LastHandCards = slices.Clone(s.LastHandCards)
	if s.Players != nil {
		c.Players = make([]PlayerView, len(s.Players))
		for i, p := range s.Players {
			p.Cards = slices.Clone(p.Cards)
			c.Players[i] = p
		}
	}
	return &c
}

// CanAct reports whether kind is among the valid actions
func (s *GameSnapshot) CanAct(kind ActionKind) bool {
	return slices.Contains(s.ValidActions, kind)
}

// IsTurn reports whether it is playerID's turn to act
func (s *GameSnapshot) IsTurn(playerID string) bool {
	return playerID != "" && s.CurrentPlayerID == playerID
}

// Player looks up a seat by id
func (s *GameSnapshot) Player(id string) (PlayerView, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return PlayerView{}, false
}

// Committed returns what playerID has already put in during this betting round
func (s *GameSnapshot) Committed(playerID string) int {
	p, _ := s.Player(playerID)
	return p.CurrentBet
}

// ToCall returns the incremental amount playerID needs to call
func (s *GameSnapshot) ToCall(playerID string) int {
	return max(0, s.CurrentBet-s.Committed(playerID))
}

// TurnKey identifies the betting position a turn belongs to. It changes as
// soon as anyone acts, so it can be used to avoid acting twice on one turn.
func (s *GameSnapshot) TurnKey() string {
	last := ""
	if n := len(s.ActionLog); n > 0 {
		last = s.ActionLog[n-1]
	}
	return fmt.Sprintf("%s|%s|%s|%d|%d|%d|%s",
		s.GameID, s.Phase, s.CurrentPlayerID, s.Pot, s.CurrentBet, len(s.ActionLog), last)
}

// CreateGameRequest holds the table settings for a new game
type CreateGameRequest struct {
	Name          string `json:"name"`
	MaxPlayers    int    `json:"max_players"`
	StartingChips int    `json:"starting_chips"`
	SmallBlind    int    `json:"small_blind"`
	BigBlind      int    `json:"big_blind"`
}

type CreateGameResponse struct {
	GameID string `json:"game_id"`
	Name   string `json:"name"`
}

type JoinRequest struct {
	BotName    string     `json:"bot_name"`
	PlayerType PlayerType `json:"player_type,omitempty"`
}

type JoinResponse struct {
	PlayerID  string `json:"player_id"`
	GameID    string `json:"game_id"`
	Position  int    `json:"position"`
	AuthToken string `json:"auth_token"`
}

type ActionRequest struct {
	AuthToken string `json:"auth_token"`
	Action    Action `json:"action"`
}

type ActionResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// GameSummary is one lobby entry
type GameSummary struct {
	GameID      string `json:"game_id"`
	Name        string `json:"name"`
	PlayerCount int    `json:"player_count"`
	MaxPlayers  int    `json:"max_players"`
	Phase       string `json:"phase"`
	Pot         int    `json:"pot"`
}

type gameList struct {
	Games []GameSummary `json:"games"`
}
