// Package reconcile turns successive game snapshots into the minimal set of
// view updates needed to move a display from one to the next.
package reconcile

import (
	"fmt"
	"slices"
	"strings"

	"github.com/lox/pokerpoll/internal/api"
	"github.com/lox/pokerpoll/internal/cards"
)

// UpdateKind identifies which part of the view an Update touches
type UpdateKind int

const (
	UpdatePhase UpdateKind = iota + 1
	UpdatePot
	UpdateCurrentBet
	UpdateCommunityCards
	// UpdatePlayersRebuilt replaces every player node; Players holds them in order.
	UpdatePlayersRebuilt
	// UpdatePlayer creates or patches the single node in Player.
	UpdatePlayer
	// UpdatePlayerOrder reorders existing nodes without recreating them.
	UpdatePlayerOrder
	// UpdateActionLog replaces the displayed log; Log is newest first.
	UpdateActionLog
)

func (k UpdateKind) String() string {
	switch k {
	case UpdatePhase:
		return "phase"
	case UpdatePot:
		return "pot"
	case UpdateCurrentBet:
		return "current_bet"
	case UpdateCommunityCards:
		return "community_cards"
	case UpdatePlayersRebuilt:
		return "players"
	case UpdatePlayer:
		return "player"
	case UpdatePlayerOrder:
		return "player_order"
	case UpdateActionLog:
		return "action_log"
	default:
		return "unknown"
	}
}

// Update is one view instruction. Only the fields relevant to Kind are set,
// and all of them are copies the receiver may keep.
type Update struct {
	Kind       UpdateKind
	Phase      string
	Pot        int
	CurrentBet int
	Cards      []string
	Players    []PlayerContent
	Player     PlayerContent
	Order      []string
	Log        []string
}

// PlayerContent is everything a player node displays
type PlayerContent struct {
	ID          string
	Name        string
	Chips       int
	Bet         int
	Status      api.PlayerStatus
	Active      bool
	Folded      bool
	Cards       []string
	HiddenCards int
	LastAction  string
}

// Render returns the canonical text of the node. Two contents that render
// the same need no repaint.
func (c PlayerContent) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s|%d|%d|%s|%t|%t|", c.LastAction, c.Name, c.Chips, c.Bet, c.Status, c.Active, c.Folded)
	b.WriteString(strings.Join(c.Cards, ","))
	fmt.Fprintf(&b, "|%d", c.HiddenCards)
	return b.String()
}

// CardFaces returns the faces to draw: the visible cards, or backs for
// cards the viewer cannot see.
func (c PlayerContent) CardFaces() []string {
	if len(c.Cards) > 0 {
		return c.Cards
	}
	return cards.Backs(c.HiddenCards)
}

// PlayerNode is the reconciler's handle on one displayed player. Its identity
// is stable for as long as the player id stays at the table.
type PlayerNode struct {
	ID       string
	content  PlayerContent
	rendered string
}

// Content returns what the node currently displays
func (n *PlayerNode) Content() PlayerContent {
	return n.content
}

func (n *PlayerNode) set(c PlayerContent) {
	n.content = c
	n.rendered = c.Render()
}

// Reconciler holds the last applied snapshot and the player nodes built from
// it. It is not safe for concurrent use.
type Reconciler struct {
	previous *api.GameSnapshot
	nodes    map[string]*PlayerNode
	order    []string
}

func New() *Reconciler {
	return &Reconciler{}
}

// Reconcile diffs next against the previous snapshot and returns the updates
// to apply. The first call after New or Reset emits every section. A deep
// copy of next becomes the new baseline.
func (r *Reconciler) Reconcile(next *api.GameSnapshot) []Update {
	if next == nil {
		return nil
	}
	prev := r.previous
	var updates []Update

	if prev == nil || prev.Phase != next.Phase {
		updates = append(updates, Update{Kind: UpdatePhase, Phase: next.Phase})
	}
	if prev == nil || prev.Pot != next.Pot {
		updates = append(updates, Update{Kind: UpdatePot, Pot: next.Pot})
	}
	if prev == nil || prev.CurrentBet != next.CurrentBet {
		updates = append(updates, Update{Kind: UpdateCurrentBet, CurrentBet: next.CurrentBet})
	}
	if prev == nil || !slices.Equal(prev.CommunityCards, next.CommunityCards) {
		updates = append(updates, Update{Kind: UpdateCommunityCards, Cards: slices.Clone(next.CommunityCards)})
	}

	updates = append(updates, r.reconcilePlayers(prev == nil, next)...)

	if prev == nil || !slices.Equal(prev.ActionLog, next.ActionLog) {
		newestFirst := slices.Clone(next.ActionLog)
		slices.Reverse(newestFirst)
		updates = append(updates, Update{Kind: UpdateActionLog, Log: newestFirst})
	}

	r.previous = next.Clone()
	return updates
}

func (r *Reconciler) reconcilePlayers(first bool, next *api.GameSnapshot) []Update {
	contents := make([]PlayerContent, len(next.Players))
	ids := make([]string, len(next.Players))
	for i, p := range next.Players {
		contents[i] = contentFor(p, next)
		ids[i] = p.ID
	}

	if first || len(contents) != len(r.order) {
		r.nodes = make(map[string]*PlayerNode, len(contents))
		for _, c := range contents {
			node := &PlayerNode{ID: c.ID}
			node.set(c)
			r.nodes[c.ID] = node
		}
		r.order = ids
		return []Update{{Kind: UpdatePlayersRebuilt, Players: contents}}
	}

	var updates []Update
	seen := make(map[string]bool, len(contents))
	for _, c := range contents {
		seen[c.ID] = true
		node, ok := r.nodes[c.ID]
		if !ok {
			node = &PlayerNode{ID: c.ID}
			r.nodes[c.ID] = node
		} else if node.rendered == c.Render() {
			continue
		}
		node.set(c)
		updates = append(updates, Update{Kind: UpdatePlayer, Player: c})
	}
	for id := range r.nodes {
		if !seen[id] {
			delete(r.nodes, id)
		}
	}
	if !slices.Equal(r.order, ids) {
		r.order = ids
		updates = append(updates, Update{Kind: UpdatePlayerOrder, Order: slices.Clone(ids)})
	}
	return updates
}

func contentFor(p api.PlayerView, snap *api.GameSnapshot) PlayerContent {
	c := PlayerContent{
		ID:         p.ID,
		Name:       p.Name,
		Chips:      p.Chips,
		Bet:        p.CurrentBet,
		Status:     p.Status,
		Active:     p.ID != "" && p.ID == snap.CurrentPlayerID,
		Folded:     p.Status == api.StatusFolded,
		Cards:      slices.Clone(p.Cards),
		LastAction: LastAction(p.Name, snap.ActionLog),
	}
	if len(c.Cards) == 0 && !c.Folded && p.Status != api.StatusSittingOut {
		c.HiddenCards = 2
	}
	return c
}

// Reset forgets the baseline and all nodes, so the next snapshot is rendered
// from scratch.
func (r *Reconciler) Reset() {
	r.previous = nil
	r.nodes = nil
	r.order = nil
}

// Node returns the node for a player id
func (r *Reconciler) Node(id string) (*PlayerNode, bool) {
	n, ok := r.nodes[id]
	return n, ok
}

// Order returns the displayed player ids
func (r *Reconciler) Order() []string {
	return slices.Clone(r.order)
}

// Previous returns a copy of the baseline snapshot, or nil
func (r *Reconciler) Previous() *api.GameSnapshot {
	return r.previous.Clone()
}
