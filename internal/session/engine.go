// Package session is the conversation engine: it maps commands, button
// presses and free text to store updates, upstream calls and replies.
package session

import (
	"context"
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/wbcoef/wbcoef/core/telegram"
	"github.com/wbcoef/wbcoef/core/telegram/commands"
	tghelpers "github.com/wbcoef/wbcoef/core/telegram/helpers"
	"github.com/wbcoef/wbcoef/core/telegram/state"
	"github.com/wbcoef/wbcoef/core/telegram/ui"
	"github.com/wbcoef/wbcoef/internal/callbackdata"
	"github.com/wbcoef/wbcoef/internal/domain"
	"github.com/wbcoef/wbcoef/internal/keyboards"
)

// Store is the persistence the engine needs.
type Store interface {
	state.Manager
	AddUser(ctx context.Context, id int64, username string) error
	UserIDs(ctx context.Context) ([]int64, error)
	UserIDByUsername(ctx context.Context, username string) (int64, bool, error)
	ClearState(ctx context.Context, userID int64) error
	GetToken(ctx context.Context, userID int64) (string, error)
	SetToken(ctx context.Context, userID int64, token string) error
	WarehousesPage(ctx context.Context, page, size int) ([]domain.Warehouse, error)
	CountWarehouses(ctx context.Context) (int, error)
	UniqueBoxTypes(ctx context.Context, warehouseID uint32) ([]string, error)
	WarehouseReport(ctx context.Context, warehouseID uint32, boxType string) (string, error)
	PhonesPage(ctx context.Context, userID int64, page, size int) ([]string, error)
	CountPhones(ctx context.Context, userID int64) (int, error)
}

// Pinger checks a token against the marketplace.
type Pinger interface {
	Ping(ctx context.Context, token string) (bool, error)
}

// Catalog refreshes the cached marketplace data.
type Catalog interface {
	RefreshWarehouses(ctx context.Context, token string) error
	RefreshCoefficients(ctx context.Context, token string, warehouseIDs ...uint32) error
}

// Sender delivers messages outside of an update, *tele.Bot satisfies it.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Options tune the engine.
type Options struct {
	AdminUsername string
	PageSize      int
	Now           func() time.Time
}

// Engine holds the handlers. It is safe for concurrent updates: every
// store call is a single statement and no state is kept in memory.
type Engine struct {
	store   Store
	api     Pinger
	catalog Catalog
	sender  Sender
	opts    Options
	machine *state.Machine
}

var _ ui.FallbackProvider = (*Engine)(nil)

// New builds an engine. Attach must be called before broadcasts can be sent.
func New(store Store, api Pinger, catalog Catalog, opts Options) *Engine {
	if opts.PageSize <= 0 {
		opts.PageSize = keyboards.PageSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	e := &Engine{store: store, api: api, catalog: catalog, opts: opts}
	e.machine = state.NewMachine(store)
	e.machine.Handle(domain.StateAwaitingToken, e.wrap("token_input", e.onTokenText))
	return e
}

// Attach sets the sender used for broadcasts and the startup notice.
func (e *Engine) Attach(s Sender) { e.sender = s }

// FSM resolves free text by the sender's dialogue state.
func (e *Engine) FSM() *state.Machine { return e.machine }

// Register binds the commands and callbacks to reg.
func (e *Engine) Register(reg *tg.Registry) error {
	reg.RegisterCommand("/help", commands.Command{
		Handler:     e.wrap("help", e.onHelp),
		Description: "Help",
	})
	reg.RegisterCommand("/start", commands.Command{
		Handler:     e.wrap("start", e.onStart),
		Description: "Авторизация пользователя",
	})
	reg.RegisterCommand("/msg_to_all", commands.Command{
		Handler:     e.wrap("msg_to_all", e.onBroadcast),
		Description: "Отправляет сообщение всем пользователям.",
		AdminOnly:   true,
		Hidden:      true,
		Aliases:     []string{"msgtoall"},
	})

	exact := map[string]handlerFunc{
		callbackdata.MainMenu:         e.onMainMenu,
		callbackdata.TokenLifetime:    e.onTokenLifetime,
		callbackdata.WarehousesList:   e.onWarehousesList,
		callbackdata.AnotherWarehouse: e.onAnotherWarehouse,
	}
	for key, h := range exact {
		if err := reg.RegisterCallback(key, e.wrap(key, h)); err != nil {
			return err
		}
	}
	prefixed := map[string]handlerFunc{
		callbackdata.AnotherBoxTypePrefix: e.onAnotherBoxType,
		callbackdata.WarehousePagePrefix:  e.onWarehousePage,
		callbackdata.PhonePagePrefix:      e.onPhonePage,
		callbackdata.WarehousePrefix:      e.onWarehouseChosen,
		callbackdata.BoxTypePrefix:        e.onBoxTypeChosen,
	}
	for prefix, h := range prefixed {
		if err := reg.RegisterCallbackPrefix(prefix, e.wrap(prefix, h)); err != nil {
			return err
		}
	}
	reg.SetCallbackNotFound(e.UnknownCallback())
	return nil
}

// UnknownText returns nil: text outside a dialogue is ignored.
func (e *Engine) UnknownText() tele.HandlerFunc { return nil }

// UnknownCallback echoes payloads no handler recognizes.
func (e *Engine) UnknownCallback() tele.HandlerFunc {
	return e.wrap("unknown_callback", e.onUnknownCallback)
}

// StateError answers when the dialogue state cannot be read.
func (e *Engine) StateError(c tele.Context, _ error) error {
	return tghelpers.Send(c, textApology)
}

// Denied answers non-admins who try an admin command.
func (e *Engine) Denied(c tele.Context) error {
	return e.wrap("denied", func(context.Context, tele.Context) error {
		return domain.E(domain.KindPermissionDenied, "session.admin", nil)
	})(c)
}
