package state

import (
	"fmt"
	"log/slog"
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/wbcoef/wbcoef/core/logger"
	tghelpers "github.com/wbcoef/wbcoef/core/telegram/helpers"
)

// Machine maps states to text handlers. States without a handler (Idle by
// default) leave the text unhandled.
type Machine struct {
	mgr Manager

	mu       sync.RWMutex
	handlers map[State]tele.HandlerFunc
}

// NewMachine returns a Machine reading states from mgr.
func NewMachine(mgr Manager) *Machine {
	return &Machine{mgr: mgr, handlers: make(map[State]tele.HandlerFunc)}
}

// Handle associates a state with its handler.
func (m *Machine) Handle(st State, h tele.HandlerFunc) {
	if h == nil {
		return
	}
	m.mu.Lock()
	m.handlers[st] = h
	m.mu.Unlock()
}

// HandlerFor returns the handler for the sender's current state, or nil
// when the state has none. The name is suitable for logs.
func (m *Machine) HandlerFor(c tele.Context) (string, tele.HandlerFunc, error) {
	user := c.Sender()
	if user == nil || m.mgr == nil {
		return "", nil, nil
	}
	ctx := tghelpers.BuildContext(c)
	st, err := m.mgr.GetState(ctx, user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("fsm: get state: %w", err)
	}

	m.mu.RLock()
	h := m.handlers[st]
	m.mu.RUnlock()

	logger.Debug(ctx, "tg", "fsm.lookup",
		slog.String("state", st.String()),
		slog.Bool("handled", h != nil),
	)
	if h == nil {
		return "", nil, nil
	}
	return "fsm." + st.String(), h, nil
}
