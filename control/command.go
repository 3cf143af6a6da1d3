// Package control defines the command tokens event sources deliver to the
// application command loop, and the Dispatcher that maps each token to an
// action. The command loop hands tokens to the Dispatcher one at a time, so
// the Dispatcher never runs concurrently with itself.
package control

import (
	"fmt"
	"strings"
)

// CommandType enumerates the closed set of control actions.
type CommandType int

const (
	CmdSlowDown CommandType = iota
	CmdSpeedUp
	CmdStop
	CmdSetSpeedUpFactor
	CmdResetInterval
	CmdExit
	CmdSetSlowDownFactor
	CmdSetBaseInterval
	CmdResetAll
	CmdSetRoundBudget
	CmdStart
)

var commandNames = [...]string{
	CmdSlowDown:          "slow-down",
	CmdSpeedUp:           "speed-up",
	CmdStop:              "stop",
	CmdSetSpeedUpFactor:  "set-speed-up-factor",
	CmdResetInterval:     "reset-interval",
	CmdExit:              "exit",
	CmdSetSlowDownFactor: "set-slow-down-factor",
	CmdSetBaseInterval:   "set-base-interval",
	CmdResetAll:          "reset-all",
	CmdSetRoundBudget:    "set-round-budget",
	CmdStart:             "start",
}

func (c CommandType) String() string {
	if c >= 0 && int(c) < len(commandNames) {
		return commandNames[c]
	}
	return fmt.Sprintf("CommandType(%d)", int(c))
}

// Valid reports whether c is one of the known commands.
func (c CommandType) Valid() bool {
	return c >= 0 && int(c) < len(commandNames)
}

// ParseCommandType resolves a command name such as "reset-all".
func ParseCommandType(name string) (CommandType, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	for i, n := range commandNames {
		if n == normalized {
			return CommandType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown command %q", name)
}

// AllCommandTypes returns every command in declaration order.
func AllCommandTypes() []CommandType {
	all := make([]CommandType, len(commandNames))
	for i := range commandNames {
		all[i] = CommandType(i)
	}
	return all
}

// Command is the message sent from an event source to the application
// command loop. The optional Reply channel receives the dispatch result.
type Command struct {
	Type   CommandType
	Source string     // event source that produced the token, for logs
	Reply  chan error // optional reply channel
}
