package domain

import "github.com/wbcoef/wbcoef/core/telegram/state"

// Dialogue states. The numeric values are persisted in user_states and
// must not change. The last three belong to the phone-profile flow and
// have no transitions yet.
var (
	StateIdle            = state.Idle
	StateAwaitingToken   = state.Name(1, "awaiting_token")
	StateTokenEntered    = state.Name(2, "token_entered")
	StateAwaitingNumber  = state.Name(3, "awaiting_number")
	StateAwaitingCaptcha = state.Name(4, "awaiting_captcha")
	StateAwaitingSMSCode = state.Name(5, "awaiting_sms_code")
)

// ParseState maps a stored value to a state. Unknown values read as Idle.
func ParseState(v int64) state.State {
	switch s := state.State(v); s {
	case StateAwaitingToken, StateTokenEntered, StateAwaitingNumber, StateAwaitingCaptcha, StateAwaitingSMSCode:
		return s
	}
	return StateIdle
}
