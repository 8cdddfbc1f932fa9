package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokerpoll/internal/api"
	"github.com/lox/pokerpoll/internal/client"
	"github.com/lox/pokerpoll/internal/gate"
	"github.com/lox/pokerpoll/internal/overlay"
	"github.com/lox/pokerpoll/internal/reconcile"
)

type fakeController struct {
	mu      sync.Mutex
	calls   []string
	actions []api.Action
}

func (f *fakeController) record(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeController) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeController) Lobby(context.Context) error { f.record("lobby"); return nil }

func (f *fakeController) CreateGame(_ context.Context, name string) (string, error) {
	f.record("create %s", name)
	return "g9", nil
}

func (f *fakeController) Watch(_ context.Context, gameID string) { f.record("watch %s", gameID) }

func (f *fakeController) Join(_ context.Context, gameID, name string) error {
	f.record("join %s %s", gameID, name)
	return nil
}

func (f *fakeController) Leave() bool { f.record("leave"); return true }

func (f *fakeController) StartGame(context.Context) error { f.record("start"); return nil }

func (f *fakeController) AddBot(context.Context) (string, error) {
	f.record("addbot")
	return "BotAlpha1", nil
}

func (f *fakeController) Submit(_ context.Context, action api.Action) error {
	f.mu.Lock()
	f.actions = append(f.actions, action)
	f.mu.Unlock()
	f.record("submit %s", action)
	return nil
}

func (f *fakeController) DismissWinner() bool { f.record("dismiss"); return true }

func (f *fakeController) Refresh() { f.record("refresh") }

func newTestModel(t *testing.T) (*Model, *fakeController) {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
	ctrl := &fakeController{}
	return NewModel(context.Background(), ctrl, "Alice", logger), ctrl
}

// runCmd executes a command the way the program would and feeds the result
// back into the model
func runCmd(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	m.Update(cmd())
}

func latestNotice(t *testing.T, m *Model) string {
	t.Helper()
	entries := m.notices.Entries()
	require.NotEmpty(t, entries)
	return entries[0].Text
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"", Command{}},
		{"raise 40", Command{Kind: CmdAction, Action: api.Action{Type: api.Raise, Amount: 40}}},
		{"r $60", Command{Kind: CmdAction, Action: api.Action{Type: api.Raise, Amount: 60}}},
		{"raise", Command{Kind: CmdAction, Action: api.Action{Type: api.Raise}}},
		{"CALL", Command{Kind: CmdAction, Action: api.Action{Type: api.Call}}},
		{"k", Command{Kind: CmdAction, Action: api.Action{Type: api.Check}}},
		{"allin", Command{Kind: CmdAction, Action: api.Action{Type: api.AllIn}}},
		{"/join abc Bob", Command{Kind: CmdJoin, Args: []string{"abc", "Bob"}}},
		{"/LIST", Command{Kind: CmdList, Args: []string{}}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseCommand(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"bet 5", "/nope", "raise -5", "raise lots"} {
		_, err := ParseCommand(bad)
		assert.Error(t, err, bad)
	}
}

func TestModelAppliesUpdates(t *testing.T) {
	m, _ := newTestModel(t)
	m.Update(enteredMsg{session: client.Session{GameID: "g1", PlayerID: "p1", Name: "Alice"}})

	m.Update(updatesMsg{updates: []reconcile.Update{
		{Kind: reconcile.UpdatePot, Pot: 30},
		{Kind: reconcile.UpdatePlayersRebuilt, Players: []reconcile.PlayerContent{
			{ID: "p1", Name: "Alice", Chips: 990},
			{ID: "p2", Name: "Bob", Chips: 980},
		}},
		{Kind: reconcile.UpdateActionLog, Log: []string{"newest", "oldest"}},
	}})
	assert.Equal(t, 30, m.pot)
	assert.Equal(t, []string{"p1", "p2"}, m.order)
	assert.Equal(t, []string{"newest", "oldest"}, m.actionLog)

	m.Update(updatesMsg{updates: []reconcile.Update{
		{Kind: reconcile.UpdatePlayer, Player: reconcile.PlayerContent{ID: "p3", Name: "Carol"}},
		{Kind: reconcile.UpdatePlayerOrder, Order: []string{"p3", "p1"}},
	}})
	assert.Equal(t, []string{"p3", "p1"}, m.order)
	assert.Len(t, m.players, 2)
	assert.NotContains(t, m.players, "p2")

	m.Update(leftMsg{})
	assert.Nil(t, m.session)
	assert.Empty(t, m.players)
	assert.Zero(t, m.pot)
}

func TestLeavingReloadsLobby(t *testing.T) {
	m, ctrl := newTestModel(t)
	m.Update(enteredMsg{session: client.Session{GameID: "g1"}})

	_, cmd := m.Update(leftMsg{})
	runCmd(t, m, cmd)
	assert.Equal(t, []string{"lobby"}, ctrl.Calls())
}

func TestActionsAreGatedByControls(t *testing.T) {
	m, ctrl := newTestModel(t)

	assert.Nil(t, m.execute("call"))
	assert.Equal(t, "Not in a game", latestNotice(t, m))

	m.Update(enteredMsg{session: client.Session{GameID: "g1"}})
	assert.Nil(t, m.execute("call"))
	assert.Equal(t, "Watching as a spectator", latestNotice(t, m))

	m.Update(enteredMsg{session: client.Session{GameID: "g1", PlayerID: "p1", AuthToken: "tok", Name: "Alice"}})
	assert.Nil(t, m.execute("call"))
	assert.Equal(t, "Not your turn", latestNotice(t, m))

	m.Update(controlsMsg{controls: gate.Controls{
		Visible: true, MyTurn: true, Fold: true, Call: true, Raise: true, AllIn: true,
		CallAmount: 20, MinRaise: 40, Message: gate.MessageYourTurn,
	}})
	assert.Nil(t, m.execute("check"))
	assert.Equal(t, "Check is not available now", latestNotice(t, m))

	runCmd(t, m, m.execute("raise"))
	runCmd(t, m, m.execute("r 100"))
	runCmd(t, m, m.execute("c"))
	assert.Equal(t, []api.Action{
		{Type: api.Raise, Amount: 40},
		{Type: api.Raise, Amount: 100},
		{Type: api.Call},
	}, ctrl.actions)
}

func TestLobbyCommands(t *testing.T) {
	m, ctrl := newTestModel(t)
	m.Update(lobbyMsg{games: []api.GameSummary{{GameID: "g1", Name: "One"}, {GameID: "g2", Name: "Two"}}})

	runCmd(t, m, m.execute("/join 2"))
	runCmd(t, m, m.execute("/join g7 Bob"))
	runCmd(t, m, m.execute("/watch 1"))
	runCmd(t, m, m.execute("/create"))
	runCmd(t, m, m.execute("/create High Stakes"))

	assert.Equal(t, []string{
		"join g2 Alice",
		"join g7 Bob",
		"watch g1",
		"create Alice's table",
		"lobby",
		"create High Stakes",
		"lobby",
	}, ctrl.Calls())

	assert.Nil(t, m.execute("/join"))
	assert.Equal(t, "A game id or lobby number is required", latestNotice(t, m))
}

func TestSessionCommands(t *testing.T) {
	m, ctrl := newTestModel(t)
	assert.Nil(t, m.execute("/leave"))

	m.Update(enteredMsg{session: client.Session{GameID: "g1", PlayerID: "p1", Name: "Alice"}})
	runCmd(t, m, m.execute("/start"))
	runCmd(t, m, m.execute("/addbot"))
	runCmd(t, m, m.execute("/refresh"))
	runCmd(t, m, m.execute("/dismiss"))
	runCmd(t, m, m.execute("/leave"))

	assert.Equal(t, []string{"start", "addbot", "refresh", "dismiss", "leave"}, ctrl.Calls())

	cmd := m.execute("/quit")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, "", m.View())
}

func TestLocalRefusalsBecomeNotices(t *testing.T) {
	m, _ := newTestModel(t)

	m.Update(cmdDoneMsg{err: fmt.Errorf("submit: %w", client.ErrAlreadyActed)})
	assert.Equal(t, "Submit: already acted this turn", latestNotice(t, m))

	m.Update(cmdDoneMsg{err: errors.New("rejected by server: nope")})
	assert.Len(t, m.notices.Entries(), 1)

	m.Update(noticeMsg{notice: client.Notice{Level: client.NoticeInfo, Text: "Game started"}})
	assert.Equal(t, "Game started", latestNotice(t, m))
}

func TestOverlayMessages(t *testing.T) {
	m, ctrl := newTestModel(t)
	m.Update(tea.WindowSizeMsg{Width: 160, Height: 40})
	m.Update(enteredMsg{session: client.Session{GameID: "g1"}})

	m.Update(handWinnerMsg{winner: overlay.HandWinner{Name: "Bob", Amount: 120, Description: "Two Pair"}, remaining: 5})
	assert.Contains(t, m.View(), "Bob wins $120")
	assert.Contains(t, m.View(), "Next hand in 5s")

	m.Update(countdownMsg{remaining: 2})
	assert.Contains(t, m.View(), "Next hand in 2s")

	m.Update(hideMsg{})
	assert.NotContains(t, m.View(), "Bob wins")

	m.Update(gameWinnerMsg{winner: overlay.GameWinner{PlayerID: "p2"}})
	assert.Contains(t, m.View(), "p2 wins the game!")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	runCmd(t, m, cmd)
	assert.Equal(t, []string{"dismiss"}, ctrl.Calls())
	assert.False(t, m.quitting)
}

func TestViewRendersTable(t *testing.T) {
	m, _ := newTestModel(t)
	m.Update(tea.WindowSizeMsg{Width: 160, Height: 40})
	assert.Contains(t, m.View(), "lobby")

	m.Update(enteredMsg{session: client.Session{GameID: "g1", PlayerID: "p1", Name: "Alice"}})
	m.Update(updatesMsg{updates: []reconcile.Update{
		{Kind: reconcile.UpdatePot, Pot: 30},
		{Kind: reconcile.UpdateCommunityCards, Cards: []string{"A♥", "K♠", "2♦"}},
		{Kind: reconcile.UpdatePlayersRebuilt, Players: []reconcile.PlayerContent{
			{ID: "p1", Name: "Alice", Chips: 990, Cards: []string{"Q♣", "Q♦"}, Active: true},
			{ID: "p2", Name: "Bob", Chips: 980, HiddenCards: 2, LastAction: "CALL"},
		}},
	}})
	m.Update(controlsMsg{controls: gate.Controls{
		Visible: true, MyTurn: true, Fold: true, Check: true, AllIn: true,
		Message: gate.MessageYourTurn, Chips: 990, Cards: []string{"Q♣", "Q♦"},
	}})

	view := m.View()
	assert.Contains(t, view, "game g1")
	assert.Contains(t, view, "Pot: $30")
	assert.Contains(t, view, "Alice (you)")
	assert.Contains(t, view, "Bob")
	assert.Contains(t, view, "CALL")
	assert.Contains(t, view, "A♥")
	assert.Contains(t, view, "[check]")
	assert.NotContains(t, view, "[call")
}

func TestBridge(t *testing.T) {
	bridge := NewBridge()
	bridge.Notice(client.NoticeInfo, "dropped before attach")

	var got []tea.Msg
	bridge.Attach(func(msg tea.Msg) { got = append(got, msg) })

	bridge.Entered(client.Session{GameID: "g1"})
	bridge.Apply([]reconcile.Update{{Kind: reconcile.UpdatePot, Pot: 10}})
	bridge.Controls(gate.Controls{Visible: true})
	bridge.ShowHandWinner(overlay.HandWinner{Name: "Bob"}, overlay.CountdownTicks)
	bridge.Countdown(4)
	bridge.Hide()
	bridge.ShowGameWinner(overlay.GameWinner{Name: "Bob"})
	bridge.Lobby(nil)
	bridge.Notice(client.NoticeWarn, "careful")
	bridge.Left()

	require.Len(t, got, 10)
	assert.Equal(t, enteredMsg{session: client.Session{GameID: "g1"}}, got[0])
	assert.Equal(t, handWinnerMsg{winner: overlay.HandWinner{Name: "Bob"}, remaining: 5}, got[3])
	assert.Equal(t, countdownMsg{remaining: 4}, got[4])
	assert.Equal(t, noticeMsg{notice: client.Notice{Level: client.NoticeWarn, Text: "careful"}}, got[8])
	assert.IsType(t, leftMsg{}, got[9])
}
