package state

import (
	"context"
	"strconv"
)

// State identifies a dialogue step. Values are persisted as small integers.
type State int8

// Idle means there is no active conversation with the user. It is also the
// state of a user that has never been seen.
const Idle State = 0

var names = map[State]string{Idle: "idle"}

// Name registers a human-readable label for st used by String.
func Name(st State, label string) State {
	names[st] = label
	return st
}

func (s State) String() string {
	if n, ok := names[s]; ok {
		return n
	}
	return "state_" + strconv.Itoa(int(s))
}

// Manager persists the dialogue state per user.
type Manager interface {
	GetState(ctx context.Context, userID int64) (State, error)
	SetState(ctx context.Context, userID int64, st State) error
}
