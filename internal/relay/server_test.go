package relay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokerpoll/internal/api"
	"github.com/lox/pokerpoll/internal/cards"
	"github.com/lox/pokerpoll/internal/client"
	"github.com/lox/pokerpoll/internal/reconcile"
)

type fakeGameAPI struct {
	mu      sync.Mutex
	actions []api.Action
}

func (f *fakeGameAPI) CreateGame(_ context.Context, req api.CreateGameRequest) (*api.CreateGameResponse, error) {
	return &api.CreateGameResponse{GameID: "g2", Name: req.Name}, nil
}

func (f *fakeGameAPI) ListGames(context.Context) ([]api.GameSummary, error) {
	return []api.GameSummary{{GameID: "g1", Name: "Main", PlayerCount: 2, MaxPlayers: 4, Phase: "preflop"}}, nil
}

func (f *fakeGameAPI) Join(_ context.Context, gameID, name string, _ api.PlayerType) (*api.JoinResponse, error) {
	return &api.JoinResponse{PlayerID: name + "_1", GameID: gameID, AuthToken: "tok"}, nil
}

func (f *fakeGameAPI) StartGame(context.Context, string) error { return nil }

func (f *fakeGameAPI) State(_ context.Context, gameID, _ string) (*api.GameSnapshot, error) {
	return &api.GameSnapshot{
		GameID:          gameID,
		Phase:           "preflop",
		Pot:             30,
		CurrentBet:      20,
		CurrentPlayerID: "Alice_1",
		YourCards:       []string{"A♥", "K♥"},
		YourChips:       980,
		Players: []api.PlayerView{
			{ID: "Alice_1", Name: "Alice", Chips: 980, CurrentBet: 20, Status: api.StatusActive, Cards: []string{"A♥", "K♥"}},
			{ID: "Bob_1", Name: "Bob", Chips: 990, CurrentBet: 10, Status: api.StatusActive},
		},
		ValidActions: []api.ActionKind{api.Fold, api.Check, api.Raise},
		ActionLog:    []string{"[preflop] Bob -> CALL (10)"},
	}, nil
}

func (f *fakeGameAPI) SubmitAction(_ context.Context, _, _ string, action api.Action) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
	return nil
}

func (f *fakeGameAPI) Actions() []api.Action {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.Action(nil), f.actions...)
}

func newTestRelay(t *testing.T) (*Server, *httptest.Server, *fakeGameAPI) {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
	fake := &fakeGameAPI{}
	relay := NewServer("", fake, client.Options{Clock: quartz.NewMock(t)}, logger)
	srv := httptest.NewServer(relay.Handler())
	t.Cleanup(func() {
		relay.Stop()
		srv.Close()
	})
	return relay, srv, fake
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, mt MessageType, data any) {
	t.Helper()
	msg := &Message{Type: mt, Timestamp: time.Now()}
	if data != nil {
		raw, err := json.Marshal(data)
		require.NoError(t, err)
		msg.Data = raw
	}
	require.NoError(t, conn.WriteJSON(msg))
}

// readUntil skips messages until one of type mt arrives and decodes its data
func readUntil(t *testing.T, conn *websocket.Conn, mt MessageType, out any) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type != mt {
			continue
		}
		if out != nil {
			require.NoError(t, json.Unmarshal(msg.Data, out))
		}
		return
	}
}

func TestHealth(t *testing.T) {
	_, srv, _ := newTestRelay(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestLobbyOverWebsocket(t *testing.T) {
	_, srv, _ := newTestRelay(t)
	conn := dial(t, srv)

	send(t, conn, TypeList, nil)
	var lobby LobbyData
	readUntil(t, conn, TypeLobby, &lobby)
	require.Len(t, lobby.Games, 1)
	assert.Equal(t, "g1", lobby.Games[0].GameID)

	send(t, conn, TypeCreate, CreateData{Name: "Fresh"})
	var notice NoticeData
	readUntil(t, conn, TypeNotice, &notice)
	assert.Equal(t, "info", notice.Level)
	assert.Contains(t, notice.Text, "Fresh")
	readUntil(t, conn, TypeLobby, nil)
}

func TestWatchStreamsViewUpdates(t *testing.T) {
	_, srv, _ := newTestRelay(t)
	conn := dial(t, srv)

	send(t, conn, TypeWatch, GameData{GameID: "g1"})

	var entered EnteredData
	readUntil(t, conn, TypeEntered, &entered)
	assert.Equal(t, "g1", entered.GameID)
	assert.True(t, entered.Spectator)

	var pot PotData
	readUntil(t, conn, MessageType(reconcile.UpdatePot.String()), &pot)
	assert.Equal(t, 30, pot.Pot)

	var players PlayersData
	readUntil(t, conn, MessageType(reconcile.UpdatePlayersRebuilt.String()), &players)
	require.Len(t, players.Players, 2)
	assert.Equal(t, []string{"A♥", "K♥"}, players.Players[0].Cards)
	assert.Equal(t, []string{cards.Back, cards.Back}, players.Players[1].Cards)
	assert.Equal(t, "CALL", players.Players[1].LastAction)
	assert.True(t, players.Players[0].Active)

	var history ActionLogData
	readUntil(t, conn, MessageType(reconcile.UpdateActionLog.String()), &history)
	assert.Equal(t, []string{"[preflop] Bob -> CALL (10)"}, history.Entries)

	send(t, conn, TypeAction, ActionData{Type: api.Check})
	var failure ErrorData
	readUntil(t, conn, TypeError, &failure)
	assert.Equal(t, "not_seated", failure.Code)

	send(t, conn, TypeLeave, nil)
	readUntil(t, conn, TypeLeft, nil)
	send(t, conn, TypeLeave, nil)
	readUntil(t, conn, TypeError, &failure)
	assert.Equal(t, "no_session", failure.Code)
}

func TestJoinAndAct(t *testing.T) {
	_, srv, fake := newTestRelay(t)
	conn := dial(t, srv)

	send(t, conn, TypeJoin, JoinData{GameID: "g1", Name: "Alice"})

	var entered EnteredData
	readUntil(t, conn, TypeEntered, &entered)
	assert.Equal(t, "Alice_1", entered.PlayerID)
	assert.False(t, entered.Spectator)

	var controls ControlsData
	readUntil(t, conn, TypeControls, &controls)
	assert.True(t, controls.MyTurn)
	assert.True(t, controls.Check)
	assert.False(t, controls.Call)
	assert.Equal(t, 20, controls.MinRaise)
	assert.Equal(t, []string{"A♥", "K♥"}, controls.Cards)

	send(t, conn, TypeAction, ActionData{Type: api.Check})
	require.Eventually(t, func() bool {
		return len(fake.Actions()) == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, api.Action{Type: api.Check}, fake.Actions()[0])

	send(t, conn, TypeAction, ActionData{Type: api.Check})
	var failure ErrorData
	readUntil(t, conn, TypeError, &failure)
	assert.Equal(t, "already_acted", failure.Code)
}

func TestBadMessages(t *testing.T) {
	_, srv, _ := newTestRelay(t)
	conn := dial(t, srv)

	var failure ErrorData
	send(t, conn, "shuffle", nil)
	readUntil(t, conn, TypeError, &failure)
	assert.Equal(t, "unknown_message_type", failure.Code)

	send(t, conn, TypeJoin, nil)
	readUntil(t, conn, TypeError, &failure)
	assert.Equal(t, "invalid_message", failure.Code)

	send(t, conn, TypeJoin, JoinData{GameID: "g1"})
	readUntil(t, conn, TypeError, &failure)
	assert.Equal(t, "invalid_message", failure.Code)

	send(t, conn, TypeAction, ActionData{Type: "bet"})
	readUntil(t, conn, TypeError, &failure)
	assert.Equal(t, "invalid_message", failure.Code)

	send(t, conn, TypeStart, nil)
	readUntil(t, conn, TypeError, &failure)
	assert.Equal(t, "no_session", failure.Code)
}

func TestStopClosesConnections(t *testing.T) {
	relay, srv, _ := newTestRelay(t)
	conn := dial(t, srv)

	require.Eventually(t, func() bool { return relay.ConnectionCount() == 1 }, 5*time.Second, 10*time.Millisecond)

	relay.Stop()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	require.Eventually(t, func() bool { return relay.ConnectionCount() == 0 }, 5*time.Second, 10*time.Millisecond)
}
