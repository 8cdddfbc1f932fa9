package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lox/pokerpoll/internal/api"
	"github.com/lox/pokerpoll/internal/client"
	"github.com/lox/pokerpoll/internal/gate"
	"github.com/lox/pokerpoll/internal/overlay"
	"github.com/lox/pokerpoll/internal/reconcile"
)

type (
	updatesMsg    struct{ updates []reconcile.Update }
	controlsMsg   struct{ controls gate.Controls }
	lobbyMsg      struct{ games []api.GameSummary }
	noticeMsg     struct{ notice client.Notice }
	enteredMsg    struct{ session client.Session }
	leftMsg       struct{}
	handWinnerMsg struct {
		winner    overlay.HandWinner
		remaining int
	}
	countdownMsg  struct{ remaining int }
	gameWinnerMsg struct{ winner overlay.GameWinner }
	hideMsg       struct{}
)

// Bridge is the client.View of the terminal program. Every call becomes a
// message delivered to the bubbletea event loop, so the model is only ever
// touched from Update.
type Bridge struct {
	mu   sync.RWMutex
	send func(tea.Msg)
}

var _ client.View = (*Bridge)(nil)

func NewBridge() *Bridge {
	return &Bridge{}
}

// Attach connects the bridge to a program's Send. Messages posted before
// Attach are dropped.
func (b *Bridge) Attach(send func(tea.Msg)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.send = send
}

func (b *Bridge) post(msg tea.Msg) {
	b.mu.RLock()
	send := b.send
	b.mu.RUnlock()
	if send != nil {
		send(msg)
	}
}

func (b *Bridge) Apply(updates []reconcile.Update) { b.post(updatesMsg{updates: updates}) }

func (b *Bridge) Controls(c gate.Controls) { b.post(controlsMsg{controls: c}) }

func (b *Bridge) Lobby(games []api.GameSummary) { b.post(lobbyMsg{games: games}) }

func (b *Bridge) Notice(level client.NoticeLevel, msg string) {
	b.post(noticeMsg{notice: client.Notice{Level: level, Text: msg}})
}

func (b *Bridge) Entered(s client.Session) { b.post(enteredMsg{session: s}) }

func (b *Bridge) Left() { b.post(leftMsg{}) }

func (b *Bridge) ShowHandWinner(w overlay.HandWinner, remaining int) {
	b.post(handWinnerMsg{winner: w, remaining: remaining})
}

func (b *Bridge) Countdown(remaining int) { b.post(countdownMsg{remaining: remaining}) }

func (b *Bridge) ShowGameWinner(w overlay.GameWinner) { b.post(gameWinnerMsg{winner: w}) }

func (b *Bridge) Hide() { b.post(hideMsg{}) }
