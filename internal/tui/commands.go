package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lox/pokerpoll/internal/api"
)

// CommandKind names what a line typed into the input does
type CommandKind string

const (
	CmdNone    CommandKind = ""
	CmdList    CommandKind = "list"
	CmdCreate  CommandKind = "create"
	CmdWatch   CommandKind = "watch"
	CmdJoin    CommandKind = "join"
	CmdStart   CommandKind = "start"
	CmdAddBot  CommandKind = "addbot"
	CmdLeave   CommandKind = "leave"
	CmdDismiss CommandKind = "dismiss"
	CmdRefresh CommandKind = "refresh"
	CmdHelp    CommandKind = "help"
	CmdQuit    CommandKind = "quit"
	CmdAction  CommandKind = "action"
)

// Command is a parsed input line
type Command struct {
	Kind   CommandKind
	Args   []string
	Action api.Action
}

var slashCommands = map[string]CommandKind{
	"list":    CmdList,
	"ls":      CmdList,
	"create":  CmdCreate,
	"new":     CmdCreate,
	"watch":   CmdWatch,
	"join":    CmdJoin,
	"start":   CmdStart,
	"addbot":  CmdAddBot,
	"bot":     CmdAddBot,
	"leave":   CmdLeave,
	"dismiss": CmdDismiss,
	"refresh": CmdRefresh,
	"help":    CmdHelp,
	"quit":    CmdQuit,
	"exit":    CmdQuit,
}

var actionWords = map[string]api.ActionKind{
	"fold":  api.Fold,
	"f":     api.Fold,
	"check": api.Check,
	"k":     api.Check,
	"call":  api.Call,
	"c":     api.Call,
	"raise": api.Raise,
	"r":     api.Raise,
	"allin": api.AllIn,
	"all":   api.AllIn,
	"a":     api.AllIn,
}

// ParseCommand parses one input line. Lines starting with "/" are session
// commands, anything else is a poker action. A raise without an amount
// parses with Amount 0; the caller fills in the minimum raise.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 {
		return Command{}, nil
	}

	head := strings.ToLower(fields[0])
	if name, ok := strings.CutPrefix(head, "/"); ok {
		kind, known := slashCommands[name]
		if !known {
			return Command{}, fmt.Errorf("unknown command /%s (try /help)", name)
		}
		return Command{Kind: kind, Args: fields[1:]}, nil
	}

	kind, ok := actionWords[head]
	if !ok {
		return Command{}, fmt.Errorf("unknown action %q (fold, check, call, raise N, allin)", fields[0])
	}
	cmd := Command{Kind: CmdAction, Action: api.Action{Type: kind}}
	if kind == api.Raise && len(fields) > 1 {
		amount, err := strconv.Atoi(strings.TrimPrefix(fields[1], "$"))
		if err != nil || amount <= 0 {
			return Command{}, fmt.Errorf("invalid raise amount %q", fields[1])
		}
		cmd.Action.Amount = amount
	}
	return cmd, nil
}

const helpText = `Lobby:  /list  /create [name]  /watch <id|#>  /join <id|#> [name]
Game:   /start  /addbot  /leave  /dismiss  /refresh
Play:   fold (f)  check (k)  call (c)  raise [N] (r)  allin (a)
Quit:   /quit or Ctrl+C`
