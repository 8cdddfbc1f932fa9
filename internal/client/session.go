package client

import (
	"sync"

	"github.com/lox/pokerpoll/internal/api"
	"github.com/lox/pokerpoll/internal/gate"
	"github.com/lox/pokerpoll/internal/overlay"
	"github.com/lox/pokerpoll/internal/reconcile"
)

// Session identifies the game a client is attached to. A spectator session
// has no PlayerID.
type Session struct {
	GameID    string
	PlayerID  string
	AuthToken string
	Name      string
}

// Spectator reports whether the session watches without a seat
func (s Session) Spectator() bool {
	return s.PlayerID == ""
}

// ViewerID is the player id used when polling
func (s Session) ViewerID() string {
	if s.Spectator() {
		return api.SpectatorID
	}
	return s.PlayerID
}

// Key identifies the session for polling: the game and who is viewing it.
// Watching a game and then joining it are different sessions.
func (s Session) Key() string {
	return s.GameID + "/" + s.ViewerID()
}

// NoticeLevel grades a client notice
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarn
	NoticeError
)

func (l NoticeLevel) String() string {
	switch l {
	case NoticeWarn:
		return "warn"
	case NoticeError:
		return "error"
	default:
		return "info"
	}
}

// View receives everything a Table wants displayed. It must be safe for use
// from several goroutines: session updates arrive from the poller while
// overlay countdowns arrive from their own timer. Implementations must not
// call back into the Table synchronously.
type View interface {
	overlay.Display
	Apply(updates []reconcile.Update)
	Controls(c gate.Controls)
	Lobby(games []api.GameSummary)
	Notice(level NoticeLevel, msg string)
	Entered(s Session)
	Left()
}

// MaxNotices is how many notices a NoticeLog keeps
const MaxNotices = 50

// Notice is one system message
type Notice struct {
	Level NoticeLevel
	Text  string
}

// NoticeLog keeps the most recent notices, newest first
type NoticeLog struct {
	mu      sync.Mutex
	entries []Notice
}

func (l *NoticeLog) Add(level NoticeLevel, text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append([]Notice{{Level: level, Text: text}}, l.entries...)
	if len(l.entries) > MaxNotices {
		l.entries = l.entries[:MaxNotices]
	}
}

// Entries returns the notices, newest first
func (l *NoticeLog) Entries() []Notice {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Notice(nil), l.entries...)
}
