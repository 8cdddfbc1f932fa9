// Package tui is the terminal client: a bubbletea program showing the lobby,
// the table and the winner overlays, driven by a client.Table through Bridge.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/pokerpoll/internal/api"
	"github.com/lox/pokerpoll/internal/client"
	"github.com/lox/pokerpoll/internal/gate"
	"github.com/lox/pokerpoll/internal/overlay"
	"github.com/lox/pokerpoll/internal/reconcile"
)

// Controller is what the model drives. *client.Table implements it. Every
// call is made from a tea.Cmd, never from Update, since the controller
// reports back through the Bridge and the program.
type Controller interface {
	Lobby(ctx context.Context) error
	CreateGame(ctx context.Context, name string) (string, error)
	Watch(ctx context.Context, gameID string)
	Join(ctx context.Context, gameID, name string) error
	Leave() bool
	StartGame(ctx context.Context) error
	AddBot(ctx context.Context) (string, error)
	Submit(ctx context.Context, action api.Action) error
	DismissWinner() bool
	Refresh()
}

var _ Controller = (*client.Table)(nil)

type overlayKind int

const (
	overlayNone overlayKind = iota
	overlayHand
	overlayGame
)

// cmdDoneMsg reports the outcome of a controller call
type cmdDoneMsg struct{ err error }

// Model is the bubbletea model of the terminal client
type Model struct {
	ctx    context.Context
	ctrl   Controller
	name   string
	logger *log.Logger

	logViewport viewport.Model
	actionInput textinput.Model

	session *client.Session
	lobby   []api.GameSummary

	phase      string
	pot        int
	currentBet int
	community  []string
	players    map[string]reconcile.PlayerContent
	order      []string
	actionLog  []string
	controls   gate.Controls
	notices    *client.NoticeLog

	overlay    overlayKind
	handWinner overlay.HandWinner
	remaining  int
	gameWinner overlay.GameWinner

	showHelp bool
	quitting bool
	width    int
	height   int
}

// NewModel creates the model. name is the default seat name for /join and
// may be empty. ctx bounds every game session started from the program.
func NewModel(ctx context.Context, ctrl Controller, name string, logger *log.Logger) *Model {
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 80
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	m := &Model{
		ctx:         ctx,
		ctrl:        ctrl,
		name:        name,
		logger:      logger.WithPrefix("tui"),
		logViewport: vp,
		actionInput: ti,
		players:     map[string]reconcile.PlayerContent{},
		notices:     &client.NoticeLog{},
	}
	m.syncPlaceholder()
	return m
}

// Init loads the lobby
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.run(m.ctrl.Lobby))
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEsc:
			if m.overlay == overlayGame {
				return m, m.run(m.dismiss)
			}
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			line := m.actionInput.Value()
			m.actionInput.Reset()
			return m, m.execute(line)
		case tea.KeyPgUp:
			m.logViewport.HalfPageUp()
			return m, nil
		case tea.KeyPgDown:
			m.logViewport.HalfPageDown()
			return m, nil
		}

	case updatesMsg:
		m.apply(msg.updates)
		return m, nil

	case controlsMsg:
		m.controls = msg.controls
		m.syncPlaceholder()
		if msg.controls.MyTurn && msg.controls.Raise {
			m.logger.Debug("Turn", "call", msg.controls.CallAmount, "min_raise", msg.controls.MinRaise)
		}
		return m, nil

	case lobbyMsg:
		m.lobby = msg.games
		return m, nil

	case noticeMsg:
		m.notices.Add(msg.notice.Level, msg.notice.Text)
		return m, nil

	case enteredMsg:
		s := msg.session
		m.session = &s
		m.clearTable()
		m.syncPlaceholder()
		return m, nil

	case leftMsg:
		m.session = nil
		m.clearTable()
		m.syncPlaceholder()
		return m, m.run(m.ctrl.Lobby)

	case handWinnerMsg:
		m.overlay = overlayHand
		m.handWinner = msg.winner
		m.remaining = msg.remaining
		return m, nil

	case countdownMsg:
		m.remaining = msg.remaining
		return m, nil

	case gameWinnerMsg:
		m.overlay = overlayGame
		m.gameWinner = msg.winner
		return m, nil

	case hideMsg:
		m.overlay = overlayNone
		return m, nil

	case cmdDoneMsg:
		if msg.err != nil {
			m.failed(msg.err)
		}
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.actionInput, cmd = m.actionInput.Update(msg)
	cmds = append(cmds, cmd)
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// run calls fn on the controller from a command goroutine
func (m *Model) run(fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return cmdDoneMsg{err: fn(ctx)}
	}
}

func (m *Model) dismiss(context.Context) error {
	m.ctrl.DismissWinner()
	return nil
}

// localErrors are refusals the Table returns without posting a notice
var localErrors = []error{
	client.ErrNoSession,
	client.ErrNotSeated,
	client.ErrNotYourTurn,
	client.ErrAlreadyActed,
	client.ErrStartInFlight,
	gate.ErrSubmitInFlight,
	gate.ErrInvalidAmount,
}

func (m *Model) failed(err error) {
	for _, local := range localErrors {
		if errors.Is(err, local) {
			m.notices.Add(client.NoticeWarn, capitalize(err.Error()))
			return
		}
	}
	m.logger.Debug("Command failed", "error", err)
}

func (m *Model) warn(msg string) tea.Cmd {
	m.notices.Add(client.NoticeWarn, msg)
	return nil
}

// execute runs one input line
func (m *Model) execute(line string) tea.Cmd {
	cmd, err := ParseCommand(line)
	if err != nil {
		m.notices.Add(client.NoticeError, err.Error())
		return nil
	}
	ctrl := m.ctrl

	switch cmd.Kind {
	case CmdNone:
		return nil
	case CmdHelp:
		m.showHelp = !m.showHelp
		return nil
	case CmdQuit:
		m.quitting = true
		return tea.Quit
	case CmdList:
		return m.run(ctrl.Lobby)
	case CmdCreate:
		name := strings.Join(cmd.Args, " ")
		if name == "" {
			name = m.defaultTableName()
		}
		return m.run(func(ctx context.Context) error {
			if _, err := ctrl.CreateGame(ctx, name); err != nil {
				return err
			}
			return ctrl.Lobby(ctx)
		})
	case CmdWatch:
		gameID, err := m.resolveGame(cmd.Args)
		if err != nil {
			return m.warn(capitalize(err.Error()))
		}
		return m.run(func(ctx context.Context) error {
			ctrl.Watch(ctx, gameID)
			return nil
		})
	case CmdJoin:
		gameID, err := m.resolveGame(cmd.Args)
		if err != nil {
			return m.warn(capitalize(err.Error()))
		}
		name := m.name
		if len(cmd.Args) > 1 {
			name = strings.Join(cmd.Args[1:], " ")
		}
		if name == "" {
			return m.warn("A player name is required: /join <game> <name>")
		}
		return m.run(func(ctx context.Context) error {
			return ctrl.Join(ctx, gameID, name)
		})
	case CmdStart:
		return m.run(ctrl.StartGame)
	case CmdAddBot:
		return m.run(func(ctx context.Context) error {
			_, err := ctrl.AddBot(ctx)
			return err
		})
	case CmdLeave:
		if m.session == nil {
			return m.warn("Not in a game")
		}
		return m.run(func(context.Context) error {
			ctrl.Leave()
			return nil
		})
	case CmdDismiss:
		return m.run(m.dismiss)
	case CmdRefresh:
		if m.session == nil {
			return m.run(ctrl.Lobby)
		}
		return m.run(func(context.Context) error {
			ctrl.Refresh()
			return nil
		})
	case CmdAction:
		return m.submit(cmd.Action)
	}
	return nil
}

// submit checks the action against the controls currently shown before
// handing it to the controller
func (m *Model) submit(action api.Action) tea.Cmd {
	switch {
	case m.session == nil:
		return m.warn("Not in a game")
	case m.session.Spectator():
		return m.warn("Watching as a spectator")
	case !m.controls.MyTurn:
		return m.warn("Not your turn")
	case !m.controls.Allows(action.Type):
		return m.warn(fmt.Sprintf("%s is not available now", capitalize(string(action.Type))))
	}
	if action.Type == api.Raise && action.Amount == 0 {
		action.Amount = m.controls.MinRaise
	}
	ctrl := m.ctrl
	return m.run(func(ctx context.Context) error {
		return ctrl.Submit(ctx, action)
	})
}

// resolveGame accepts a game id or a 1-based lobby position
func (m *Model) resolveGame(args []string) (string, error) {
	if len(args) == 0 {
		return "", errors.New("a game id or lobby number is required")
	}
	if n, err := strconv.Atoi(args[0]); err == nil && n >= 1 && n <= len(m.lobby) {
		return m.lobby[n-1].GameID, nil
	}
	return args[0], nil
}

func (m *Model) defaultTableName() string {
	if m.name == "" {
		return "New table"
	}
	return m.name + "'s table"
}

// apply moves the table display forward by a batch of reconciler updates
func (m *Model) apply(updates []reconcile.Update) {
	for _, u := range updates {
		switch u.Kind {
		case reconcile.UpdatePhase:
			m.phase = u.Phase
		case reconcile.UpdatePot:
			m.pot = u.Pot
		case reconcile.UpdateCurrentBet:
			m.currentBet = u.CurrentBet
		case reconcile.UpdateCommunityCards:
			m.community = u.Cards
		case reconcile.UpdatePlayersRebuilt:
			m.players = make(map[string]reconcile.PlayerContent, len(u.Players))
			m.order = m.order[:0]
			for _, p := range u.Players {
				m.players[p.ID] = p
				m.order = append(m.order, p.ID)
			}
		case reconcile.UpdatePlayer:
			if _, ok := m.players[u.Player.ID]; !ok {
				m.order = append(m.order, u.Player.ID)
			}
			m.players[u.Player.ID] = u.Player
		case reconcile.UpdatePlayerOrder:
			keep := make(map[string]reconcile.PlayerContent, len(u.Order))
			for _, id := range u.Order {
				if p, ok := m.players[id]; ok {
					keep[id] = p
				}
			}
			m.players = keep
			m.order = u.Order
		case reconcile.UpdateActionLog:
			m.actionLog = u.Log
			m.logViewport.SetContent(strings.Join(m.actionLog, "\n"))
			m.logViewport.GotoTop()
		}
	}
}

func (m *Model) clearTable() {
	m.phase = ""
	m.pot = 0
	m.currentBet = 0
	m.community = nil
	m.players = map[string]reconcile.PlayerContent{}
	m.order = nil
	m.actionLog = nil
	m.controls = gate.Controls{}
	m.overlay = overlayNone
	m.logViewport.SetContent("")
}

func (m *Model) syncPlaceholder() {
	switch {
	case m.session == nil:
		m.actionInput.Placeholder = "/list, /create [name], /join <#> [name], /watch <#>, /help"
	case m.controls.MyTurn:
		m.actionInput.Placeholder = "fold, check, call, raise N, allin"
	default:
		m.actionInput.Placeholder = "/start, /addbot, /leave, /help"
	}
}

// View renders the program
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	header := m.renderHeader()
	actionPane := m.renderActionPane()
	bodyHeight := max(1, m.height-lipgloss.Height(header)-lipgloss.Height(actionPane)-4)

	sideWidth := max(30, m.width/3)
	mainWidth := max(1, m.width-sideWidth-4)

	var main string
	if m.session == nil {
		main = m.renderLobby()
	} else {
		main = m.renderTable()
	}
	if box := m.renderOverlay(); box != "" {
		main = lipgloss.JoinVertical(lipgloss.Center, box, main)
	}
	mainPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#04B575")).
		Width(mainWidth).
		Height(bodyHeight).
		Render(main)

	noticeLines := min(6, max(1, bodyHeight/3))
	notices := m.renderNotices(noticeLines)
	m.logViewport.Width = sideWidth
	m.logViewport.Height = max(1, bodyHeight-lipgloss.Height(notices)-1)
	sidePane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(sideWidth).
		Height(bodyHeight).
		Render(lipgloss.JoinVertical(lipgloss.Left, m.logViewport.View(), notices))

	actions := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#04B575")).
		Width(max(1, m.width-2)).
		Render(actionPane)

	body := lipgloss.JoinHorizontal(lipgloss.Top, mainPane, sidePane)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, actions)
}

func (m *Model) renderHeader() string {
	if m.session == nil {
		return HeaderStyle.Render("pokerpoll ♠ lobby")
	}
	role := "spectator"
	if !m.session.Spectator() {
		role = m.session.Name
	}
	return HeaderStyle.Render(fmt.Sprintf("pokerpoll ♠ game %s ♠ %s", m.session.GameID, role))
}

func (m *Model) renderLobby() string {
	var b strings.Builder
	b.WriteString(InfoStyle.Render("Games"))
	b.WriteString("\n")
	if len(m.lobby) == 0 {
		b.WriteString("No games yet. /create to start one.")
		return b.String()
	}
	for i, g := range m.lobby {
		fmt.Fprintf(&b, "%2d. %-20s %d/%d  %-10s pot $%-6d %s\n",
			i+1, g.Name, g.PlayerCount, g.MaxPlayers, g.Phase, g.Pot, InfoStyle.Render(g.GameID))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) renderTable() string {
	var b strings.Builder
	b.WriteString(WarningStyle.Render(fmt.Sprintf("Pot: $%d", m.pot)))
	if m.currentBet > 0 {
		b.WriteString(" | ")
		b.WriteString(WarningStyle.Render(fmt.Sprintf("Bet: $%d", m.currentBet)))
	}
	if m.phase != "" {
		b.WriteString(" | ")
		b.WriteString(InfoStyle.Render(m.phase))
	}
	b.WriteString("\n")
	if board := formatCards(m.community); board != "" {
		b.WriteString("Board: " + board + "\n")
	}
	b.WriteString("\n")
	for _, id := range m.order {
		p, ok := m.players[id]
		if !ok {
			continue
		}
		b.WriteString(m.renderPlayer(p))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) renderPlayer(p reconcile.PlayerContent) string {
	name := p.Name
	if m.session != nil && p.ID == m.session.PlayerID {
		name += " (you)"
	}
	line := fmt.Sprintf("%-18s $%-6d bet $%-5d", name, p.Chips, p.Bet)
	if faces := formatCards(p.CardFaces()); faces != "" {
		line += " " + faces
	}
	if p.LastAction != "" {
		line += " " + InfoStyle.Render(p.LastAction)
	}
	switch {
	case p.Folded:
		return "  " + FoldedPlayerStyle.Render(line)
	case p.Active:
		return ActivePlayerStyle.Render("▶ ") + line
	default:
		return "  " + PlayerInfoStyle.Render(line)
	}
}

func (m *Model) renderOverlay() string {
	switch m.overlay {
	case overlayHand:
		w := m.handWinner
		lines := []string{ActionsStyle.Render(fmt.Sprintf("🏆 %s wins $%d", displayName(w.Name, w.PlayerID), w.Amount))}
		if w.Description != "" {
			lines = append(lines, w.Description)
		}
		if faces := formatCards(w.Cards); faces != "" {
			lines = append(lines, faces)
		}
		lines = append(lines, InfoStyle.Render(fmt.Sprintf("Next hand in %ds", m.remaining)))
		return OverlayStyle.Render(strings.Join(lines, "\n"))
	case overlayGame:
		w := m.gameWinner
		return OverlayStyle.Render(
			ActionsStyle.Render(fmt.Sprintf("🏆 %s wins the game!", displayName(w.Name, w.PlayerID))) +
				"\n" + InfoStyle.Render("/dismiss or Esc to close"))
	}
	return ""
}

func (m *Model) renderNotices(limit int) string {
	entries := m.notices.Entries()
	if len(entries) > limit {
		entries = entries[:limit]
	}
	lines := make([]string, 0, len(entries))
	for _, n := range entries {
		switch n.Level {
		case client.NoticeError:
			lines = append(lines, ErrorStyle.Render(n.Text))
		case client.NoticeWarn:
			lines = append(lines, WarningStyle.Render(n.Text))
		default:
			lines = append(lines, SuccessStyle.Render(n.Text))
		}
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderActionPane() string {
	var b strings.Builder
	if m.showHelp {
		b.WriteString(InfoStyle.Render(helpText))
		b.WriteString("\n")
	}
	if c := m.controls; c.Visible {
		b.WriteString(HandInfoStyle.Render(fmt.Sprintf("Hand: %s  Chips: $%d", formatCards(c.Cards), c.Chips)))
		b.WriteString("  ")
		b.WriteString(c.Message)
		b.WriteString("\n")
		if c.MyTurn {
			b.WriteString(renderAvailableActions(c))
			b.WriteString("\n")
		}
	}
	b.WriteString(m.actionInput.View())
	b.WriteString("\n")
	b.WriteString(InfoStyle.Render("Enter to submit • PgUp/PgDn scroll log • /help • Ctrl+C to quit"))
	return b.String()
}

// renderAvailableActions lists the enabled controls
func renderAvailableActions(c gate.Controls) string {
	var actions []string
	for _, kind := range c.Enabled() {
		switch kind {
		case api.Fold:
			actions = append(actions, ErrorStyle.Render("[fold]"))
		case api.Check:
			actions = append(actions, SuccessStyle.Render("[check]"))
		case api.Call:
			actions = append(actions, SuccessStyle.Render(fmt.Sprintf("[call $%d]", c.CallAmount)))
		case api.Raise:
			actions = append(actions, WarningStyle.Render(fmt.Sprintf("[raise $%d+]", c.MinRaise)))
		case api.AllIn:
			actions = append(actions, WarningStyle.Render("[allin]"))
		}
	}
	return ActionsStyle.Render("Actions: " + strings.Join(actions, " "))
}

func displayName(name, id string) string {
	if name != "" {
		return name
	}
	return id
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
