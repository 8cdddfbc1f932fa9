package gate

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokerpoll/internal/api"
)

func humanTurn(valid ...api.ActionKind) *api.GameSnapshot {
	return &api.GameSnapshot{
		GameID:          "g1",
		CurrentBet:      40,
		CurrentPlayerID: "me",
		YourChips:       960,
		YourCards:       []string{"A♥", "10♦"},
		ValidActions:    valid,
		Players:         []api.PlayerView{{ID: "me", CurrentBet: 10}, {ID: "bot", CurrentBet: 40}},
	}
}

func TestEvaluateOnTurn(t *testing.T) {
	c := Evaluate(humanTurn(api.Fold, api.Check, api.Call), "me")

	assert.True(t, c.Visible)
	assert.True(t, c.MyTurn)
	assert.Equal(t, MessageYourTurn, c.Message)
	assert.Equal(t, []api.ActionKind{api.Fold, api.Check, api.Call, api.AllIn}, c.Enabled())
	assert.Equal(t, 30, c.CallAmount)
	assert.False(t, c.Raise)
	assert.Zero(t, c.MinRaise)
	assert.Equal(t, []string{"A♥", "10♦"}, c.Cards)
	assert.Equal(t, 960, c.Chips)
}

func TestEvaluateRaiseDefaults(t *testing.T) {
	c := Evaluate(humanTurn(api.Raise), "me")
	assert.True(t, c.Raise)
	assert.Equal(t, 40, c.MinRaise)

	snap := humanTurn(api.Check, api.Raise)
	snap.CurrentBet = 0
	c = Evaluate(snap, "me")
	assert.Equal(t, DefaultMinRaise, c.MinRaise)
}

func TestEvaluateNotOurTurn(t *testing.T) {
	snap := humanTurn(api.Fold, api.Call)
	snap.CurrentPlayerID = "bot"

	c := Evaluate(snap, "me")
	assert.True(t, c.Visible)
	assert.False(t, c.MyTurn)
	assert.Empty(t, c.Enabled())
	assert.Equal(t, MessageWaiting, c.Message)
}

func TestEvaluateSpectator(t *testing.T) {
	assert.Equal(t, Controls{}, Evaluate(humanTurn(api.Fold), ""))
	assert.Equal(t, Controls{}, Evaluate(nil, "me"))
}

type fakeSender struct {
	mu      sync.Mutex
	sent    []api.Action
	err     error
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeSender) SubmitAction(_ context.Context, _, _ string, action api.Action) error {
	if f.block != nil {
		close(f.entered)
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, action)
	return f.err
}

func newSubmitter(t *testing.T, sender ActionSender) (*Submitter, *quartz.Mock, *atomic.Int32) {
	t.Helper()
	clock := quartz.NewMock(t)
	var refreshes atomic.Int32
	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
	s := NewSubmitter(sender, clock, func() { refreshes.Add(1) }, 0, logger)
	return s, clock, &refreshes
}

func TestSubmitSchedulesRefresh(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sender := &fakeSender{}
	s, clock, refreshes := newSubmitter(t, sender)

	require.NoError(t, s.Submit(ctx, "g1", "tok", api.Action{Type: api.Check}))
	assert.Equal(t, []api.Action{{Type: api.Check}}, sender.sent)
	assert.Zero(t, refreshes.Load())

	clock.Advance(DefaultRefreshDelay).MustWait(ctx)
	assert.Equal(t, int32(1), refreshes.Load())
}

func TestSubmitFailureDoesNotRefresh(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sender := &fakeSender{err: &api.RejectedError{Status: 200, Message: "Not your turn"}}
	s, clock, refreshes := newSubmitter(t, sender)

	err := s.Submit(ctx, "g1", "tok", api.Action{Type: api.Call})
	msg, ok := api.RejectionMessage(err)
	require.True(t, ok)
	assert.Equal(t, "Not your turn", msg)

	clock.Advance(time.Second).MustWait(ctx)
	assert.Zero(t, refreshes.Load())
	assert.False(t, s.Busy())
}

func TestSubmitValidation(t *testing.T) {
	sender := &fakeSender{}
	s, _, _ := newSubmitter(t, sender)
	ctx := context.Background()

	assert.ErrorIs(t, s.Submit(ctx, "g1", "tok", api.Action{Type: api.Raise}), ErrInvalidAmount)
	assert.ErrorIs(t, s.Submit(ctx, "g1", "tok", api.Action{Type: api.Raise, Amount: -5}), ErrInvalidAmount)
	assert.Error(t, s.Submit(ctx, "g1", "tok", api.Action{Type: "bet"}))
	assert.Empty(t, sender.sent)
}

func TestSubmitOneAtATime(t *testing.T) {
	sender := &fakeSender{block: make(chan struct{}), entered: make(chan struct{})}
	s, _, _ := newSubmitter(t, sender)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- s.Submit(ctx, "g1", "tok", api.Action{Type: api.Fold}) }()
	<-sender.entered

	assert.True(t, s.Busy())
	assert.ErrorIs(t, s.Submit(ctx, "g1", "tok", api.Action{Type: api.Fold}), ErrSubmitInFlight)

	close(sender.block)
	require.NoError(t, <-done)
	assert.Len(t, sender.sent, 1)
}

func TestControlsEqual(t *testing.T) {
	a := Evaluate(humanTurn(api.Fold, api.Call), "me")
	b := Evaluate(humanTurn(api.Fold, api.Call), "me")
	assert.True(t, a.Equal(b))

	b.Cards = []string{"2♣", "3♣"}
	assert.False(t, a.Equal(b))

	c := Evaluate(humanTurn(api.Fold, api.Check), "me")
	assert.False(t, a.Equal(c))
}
