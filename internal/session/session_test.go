package session

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/wbcoef/wbcoef/core/database"
	tg "github.com/wbcoef/wbcoef/core/telegram"
	"github.com/wbcoef/wbcoef/core/telegram/keyboard"
	"github.com/wbcoef/wbcoef/core/telegram/router"
	"github.com/wbcoef/wbcoef/internal/catalog"
	"github.com/wbcoef/wbcoef/internal/domain"
	"github.com/wbcoef/wbcoef/internal/storage"
)

var now = time.Unix(1_700_000_000, 0)

func makeToken(exp int64) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(`{"alg":"ES256"}`)) + "." +
		enc.EncodeToString([]byte(fmt.Sprintf(`{"exp":%d,"s":1024}`, exp))) + ".sig"
}

// reply is one outbound call made through the fake context.
type reply struct {
	kind   string // send, edit_text, edit_markup, delete
	text   string
	markup *tele.ReplyMarkup
}

type fakeContext struct {
	tele.Context
	update  tele.Update
	store   map[string]any
	replies []reply
}

func textCtx(id int64, username, text string) *fakeContext {
	return &fakeContext{
		update: tele.Update{ID: 1, Message: &tele.Message{
			ID:     10,
			Text:   text,
			Sender: &tele.User{ID: id, Username: username},
			Chat:   &tele.Chat{ID: id},
		}},
		store: map[string]any{},
	}
}

func callbackCtx(id int64, data string) *fakeContext {
	return &fakeContext{
		update: tele.Update{ID: 2, Callback: &tele.Callback{
			ID:      "q",
			Data:    data,
			Sender:  &tele.User{ID: id},
			Message: &tele.Message{ID: 20, Chat: &tele.Chat{ID: id}},
		}},
		store: map[string]any{},
	}
}

func (f *fakeContext) Update() tele.Update                     { return f.update }
func (f *fakeContext) Callback() *tele.Callback                { return f.update.Callback }
func (f *fakeContext) Get(k string) interface{}                { return f.store[k] }
func (f *fakeContext) Set(k string, v interface{})             { f.store[k] = v }
func (f *fakeContext) Respond(...*tele.CallbackResponse) error { return nil }

func (f *fakeContext) Message() *tele.Message {
	if f.update.Callback != nil {
		return f.update.Callback.Message
	}
	return f.update.Message
}

func (f *fakeContext) Sender() *tele.User {
	if f.update.Callback != nil {
		return f.update.Callback.Sender
	}
	return f.update.Message.Sender
}

func (f *fakeContext) Chat() *tele.Chat {
	if m := f.Message(); m != nil {
		return m.Chat
	}
	return nil
}

func (f *fakeContext) Text() string {
	if f.update.Message != nil {
		return f.update.Message.Text
	}
	return ""
}

func (f *fakeContext) Send(what interface{}, opts ...interface{}) error {
	f.replies = append(f.replies, reply{kind: "send", text: fmt.Sprint(what), markup: markupOf(opts)})
	return nil
}

func (f *fakeContext) Edit(what interface{}, opts ...interface{}) error {
	if m, ok := what.(*tele.ReplyMarkup); ok {
		f.replies = append(f.replies, reply{kind: "edit_markup", markup: m})
		return nil
	}
	f.replies = append(f.replies, reply{kind: "edit_text", text: fmt.Sprint(what), markup: markupOf(opts)})
	return nil
}

func (f *fakeContext) Delete() error {
	f.replies = append(f.replies, reply{kind: "delete"})
	return nil
}

func (f *fakeContext) kinds() []string {
	out := make([]string, len(f.replies))
	for i, r := range f.replies {
		out[i] = r.kind
	}
	return out
}

func (f *fakeContext) last() reply {
	if len(f.replies) == 0 {
		return reply{}
	}
	return f.replies[len(f.replies)-1]
}

func markupOf(opts []interface{}) *tele.ReplyMarkup {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil {
				return v.ReplyMarkup
			}
		case *tele.ReplyMarkup:
			return v
		}
	}
	return nil
}

type fakeWB struct {
	pingOK       bool
	pingErr      error
	pinged       []string
	warehouses   []domain.Warehouse
	coefficients []domain.Coefficient
	coefErr      error
}

func (f *fakeWB) Ping(_ context.Context, token string) (bool, error) {
	f.pinged = append(f.pinged, token)
	return f.pingOK, f.pingErr
}

func (f *fakeWB) Warehouses(context.Context, string) ([]domain.Warehouse, error) {
	return f.warehouses, nil
}

func (f *fakeWB) Coefficients(context.Context, string, ...uint32) ([]domain.Coefficient, error) {
	return f.coefficients, f.coefErr
}

type fakeSender struct {
	to   []string
	text []string
	fail map[string]bool
}

func (f *fakeSender) Send(to tele.Recipient, what interface{}, _ ...interface{}) (*tele.Message, error) {
	f.to = append(f.to, to.Recipient())
	f.text = append(f.text, fmt.Sprint(what))
	if f.fail[to.Recipient()] {
		return nil, errors.New("telegram: Forbidden: bot was blocked by the user (403)")
	}
	return &tele.Message{}, nil
}

type fixture struct {
	engine *Engine
	store  *storage.Store
	wb     *fakeWB
	sender *fakeSender
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := database.Config{Path: filepath.Join(t.TempDir(), "bot.db")}
	require.NoError(t, database.RunMigrations(cfg, storage.Migrations, storage.MigrationsDir))
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	st := storage.New(db)
	t.Cleanup(func() { _ = st.Close() })

	wb := &fakeWB{warehouses: []domain.Warehouse{{ID: 507, Name: "Коледино"}, {ID: 117986, Name: "Казань"}}}
	e := New(st, wb, catalog.New(wb, st), Options{
		AdminUsername: "boss",
		Now:           func() time.Time { return now },
	})
	snd := &fakeSender{fail: map[string]bool{}}
	e.Attach(snd)
	return &fixture{engine: e, store: st, wb: wb, sender: snd}
}

func (fx *fixture) state(t *testing.T, id int64) string {
	t.Helper()
	st, err := fx.store.GetState(context.Background(), id)
	require.NoError(t, err)
	return st.String()
}

func TestStartRegistersUser(t *testing.T) {
	fx := newFixture(t)
	c := textCtx(1, "", "/start")
	require.NoError(t, fx.engine.wrap("start", fx.engine.onStart)(c))

	id, ok, err := fx.store.UserIDByUsername(context.Background(), domain.NoUsername)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, "idle", fx.state(t, 1))

	r := c.last()
	assert.Contains(t, r.text, "🍆 Я бот для работы с <b>Wildberris</b>! 🍆")
	assert.Equal(t, [][]string{{"warehouses_list_callback"}}, keyboard.Data(r.markup))
}

func TestWarehousesListWithoutTokenAsksForOne(t *testing.T) {
	fx := newFixture(t)
	c := callbackCtx(1, "warehouses_list_callback")
	require.NoError(t, fx.engine.wrap("x", fx.engine.onWarehousesList)(c))

	assert.Equal(t, "awaiting_token", fx.state(t, 1))
	assert.Regexp(t, "^Введите токен", c.last().text)
	assert.Equal(t, [][]string{{"main_menu"}}, keyboard.Data(c.last().markup))
}

func TestWarehousesListWithLiveToken(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	require.NoError(t, fx.store.SetToken(ctx, 1, makeToken(now.Unix()+3600)))

	c := callbackCtx(1, "warehouses_list_callback")
	require.NoError(t, fx.engine.wrap("x", fx.engine.onWarehousesList)(c))

	r := c.last()
	assert.Equal(t, "edit_text", r.kind)
	assert.Equal(t, "Выберите склад", r.text)
	assert.Equal(t, [][]string{{"whid:117986"}, {"whid:507"}, {"main_menu"}}, keyboard.Data(r.markup))
	assert.Equal(t, "idle", fx.state(t, 1))
}

func TestWarehousesListWithPastToken(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, fx.store.SetToken(context.Background(), 1, makeToken(1728993600-86400*365)))

	c := callbackCtx(1, "warehouses_list_callback")
	require.NoError(t, fx.engine.wrap("x", fx.engine.onWarehousesList)(c))

	assert.Equal(t, "awaiting_token", fx.state(t, 1))
	assert.Regexp(t, `^Срок действия токена истек\. Действовал до \d\d\.\d\d\.\d{4} \d\d:\d\d:\d\d\.`, c.last().text)
}

func TestTokenInputAccepted(t *testing.T) {
	fx := newFixture(t)
	fx.wb.pingOK = true
	ctx := context.Background()
	require.NoError(t, fx.store.SetState(ctx, 1, domain.StateAwaitingToken))

	tok := makeToken(now.Unix() + 3600)
	c := textCtx(1, "u", "  "+tok+"\n")
	require.NoError(t, fx.engine.wrap("x", fx.engine.onTokenText)(c))

	assert.Equal(t, []string{tok}, fx.wb.pinged)
	stored, err := fx.store.GetToken(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, tok, stored)
	assert.Equal(t, "idle", fx.state(t, 1))

	n, err := fx.store.CountWarehouses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "Выберите склад", c.last().text)
}

func TestTokenInputRejected(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	require.NoError(t, fx.store.SetState(ctx, 1, domain.StateAwaitingToken))

	cases := map[string]string{
		makeToken(now.Unix() + 3600): "Токен просрочен, введите другой токен",
		makeToken(now.Unix() - 3600): "Токен невалиден, введите другой токен",
		"not a token":                "Токен невалиден, введите другой токен",
	}
	for input, want := range cases {
		c := textCtx(1, "u", input)
		require.NoError(t, fx.engine.wrap("x", fx.engine.onTokenText)(c))
		assert.Equal(t, want, c.last().text, input)
	}
	assert.Equal(t, "awaiting_token", fx.state(t, 1))
	tok, err := fx.store.GetToken(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestTokenInputPingFailureApologizes(t *testing.T) {
	fx := newFixture(t)
	fx.wb.pingErr = domain.E(domain.KindUpstreamUnavailable, "wb.ping", errors.New("dial tcp: refused"))
	c := textCtx(1, "u", makeToken(now.Unix()+3600))
	err := fx.engine.wrap("x", fx.engine.onTokenText)(c)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Equal(t, "Внутренняя ошибка, попробуйте повторить позже", c.last().text)
}

func TestWarehouseChosenWithoutUpstreamData(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	require.NoError(t, fx.store.UpsertWarehouses(ctx, fx.wb.warehouses))
	fx.wb.coefErr = domain.E(domain.KindUpstreamEmpty, "wb.coefficients", nil)

	c := callbackCtx(1, "whid:507")
	err := fx.engine.wrap("x", fx.engine.onWarehouseChosen)(c)
	assert.ErrorIs(t, err, domain.ErrUpstreamEmpty)

	require.Len(t, c.replies, 1, "no apology on top of the specific message")
	r := c.last()
	assert.Equal(t, "edit_text", r.kind)
	assert.Equal(t, "WB не предоставил информации по данному складу\nВыберите другой склад", r.text)
	assert.Equal(t, [][]string{{"whid:117986"}, {"whid:507"}, {"main_menu"}}, keyboard.Data(r.markup))
}

func TestWarehouseChosenShowsBoxTypes(t *testing.T) {
	fx := newFixture(t)
	fx.wb.coefficients = []domain.Coefficient{
		{Date: now.Add(24 * time.Hour), Coefficient: 1, WarehouseID: 507, WarehouseName: "Коледино", BoxTypeName: "Короб"},
		{Date: now.Add(24 * time.Hour), Coefficient: 0, WarehouseID: 507, WarehouseName: "Коледино", BoxTypeName: "QR-поставка с коробами"},
	}
	c := callbackCtx(1, "whid:507")
	require.NoError(t, fx.engine.wrap("x", fx.engine.onWarehouseChosen)(c))

	r := c.last()
	assert.Equal(t, "Выберите тип поставки", r.text)
	assert.Equal(t, [][]string{
		{"boxtype:QR-поставка с коробами whid:507"},
		{"boxtype:Короб whid:507"},
		{"main_menu"},
	}, keyboard.Data(r.markup))
}

func TestBoxTypeChosenSendsReport(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	require.NoError(t, fx.store.UpsertWarehouses(ctx, []domain.Warehouse{{ID: 507, Name: "Коледино"}}))
	require.NoError(t, fx.store.UpsertCoefficients(ctx, []domain.Coefficient{
		{Date: time.Unix(1728993600, 0), Coefficient: 2, WarehouseID: 507, WarehouseName: "Коледино", BoxTypeName: "QR-поставка с коробами"},
	}))

	c := callbackCtx(1, "boxtype:QR-поставка с коробами whid:507")
	require.NoError(t, fx.engine.wrap("x", fx.engine.onBoxTypeChosen)(c))

	assert.Equal(t, []string{"delete", "send"}, c.kinds())
	r := c.last()
	assert.Equal(t, "📍Склад: Коледино\n📦Тип поставки: QR-поставка с коробами\n\n⌛️Дата: 15.10.2024 15:00:00\n📈Коэффициент: 2\n\n", r.text)
	assert.Equal(t, [][]string{{"another_box_type_callback:507"}, {"another_warehouse_callback"}, {"main_menu"}}, keyboard.Data(r.markup))
}

func TestTokenLifetimeKeysOnStoredToken(t *testing.T) {
	fx := newFixture(t)
	c := callbackCtx(1, "token_lifetime_callback")
	require.NoError(t, fx.engine.wrap("x", fx.engine.onTokenLifetime)(c))
	assert.Equal(t, "Токен не был введен", c.last().text)

	require.NoError(t, fx.store.SetToken(context.Background(), 1, makeToken(1728993600)))
	c = callbackCtx(1, "token_lifetime_callback")
	require.NoError(t, fx.engine.wrap("x", fx.engine.onTokenLifetime)(c))
	assert.Equal(t, []string{"delete", "send", "send"}, c.kinds())
	assert.Equal(t, "Токен действителен до 15.10.2024 15:00:00", c.replies[1].text)
	assert.Equal(t, "Главное меню", c.replies[2].text)
}

func TestMainMenuResetsState(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, fx.store.SetState(context.Background(), 1, domain.StateAwaitingToken))
	c := callbackCtx(1, "main_menu")
	require.NoError(t, fx.engine.wrap("x", fx.engine.onMainMenu)(c))
	assert.Equal(t, "idle", fx.state(t, 1))
	assert.Equal(t, "Главное меню", c.last().text)

	rec := &clearRecorder{Store: fx.store}
	e := New(rec, fx.wb, catalog.New(fx.wb, fx.store), Options{})
	require.NoError(t, e.wrap("x", e.onMainMenu)(callbackCtx(2, "main_menu")))
	assert.Equal(t, []int64{2}, rec.cleared)
}

// clearRecorder notes which users had their dialogue state dropped.
type clearRecorder struct {
	*storage.Store
	cleared []int64
}

func (r *clearRecorder) ClearState(ctx context.Context, userID int64) error {
	r.cleared = append(r.cleared, userID)
	return r.Store.ClearState(ctx, userID)
}

func TestCallbackWithoutMessageApologizes(t *testing.T) {
	fx := newFixture(t)
	c := callbackCtx(1, "main_menu")
	c.update.Callback.Message = nil
	err := fx.engine.wrap("x", fx.engine.onMainMenu)(c)
	assert.ErrorIs(t, err, domain.ErrMissingMessage)
	assert.Equal(t, "Внутренняя ошибка, попробуйте повторить позже", c.last().text)
}

func TestPagination(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	var list []domain.Warehouse
	for i := 1; i <= 12; i++ {
		list = append(list, domain.Warehouse{ID: uint32(i), Name: fmt.Sprintf("Склад %02d", i)})
	}
	require.NoError(t, fx.store.UpsertWarehouses(ctx, list))

	c := callbackCtx(1, "w_page:1")
	require.NoError(t, fx.engine.wrap("x", fx.engine.onWarehousePage)(c))
	r := c.last()
	assert.Equal(t, "edit_markup", r.kind)
	assert.Equal(t, [][]string{{"whid:11"}, {"whid:12"}, {"w_page:0"}, {"main_menu"}}, keyboard.Data(r.markup))

	require.NoError(t, fx.store.AddPhone(ctx, 1, "9001112233"))
	c = callbackCtx(1, "p_page:0")
	require.NoError(t, fx.engine.wrap("x", fx.engine.onPhonePage)(c))
	assert.Equal(t, [][]string{{"phone:9001112233"}, {"main_menu"}}, keyboard.Data(c.last().markup))
}

func TestBroadcastSkipsSenderAndSurvivesFailures(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	for id, name := range map[int64]string{1: "boss", 2: "a", 3: "b", 4: "c"} {
		require.NoError(t, fx.store.AddUser(ctx, id, name))
	}
	fx.sender.fail["3"] = true

	c := textCtx(1, "boss", "/msg_to_all hi")
	require.NoError(t, fx.engine.wrap("x", fx.engine.onBroadcast)(c))

	assert.ElementsMatch(t, []string{"2", "3", "4"}, fx.sender.to)
	assert.Equal(t, []string{"hi", "hi", "hi"}, fx.sender.text)
	assert.Equal(t, "Отправлено всем.", c.last().text)
}

func TestDenied(t *testing.T) {
	fx := newFixture(t)
	c := textCtx(5, "mallory", "/msg_to_all hi")
	err := fx.engine.Denied(c)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	assert.Equal(t, "Недостатоно прав.", c.last().text)
}

func TestUnknownCallbackEchoes(t *testing.T) {
	fx := newFixture(t)
	c := callbackCtx(1, "phone:9001112233")
	require.NoError(t, fx.engine.UnknownCallback()(c))
	assert.Equal(t, "Неизвестный callback: phone:9001112233", c.last().text)
}

func TestNotifyStart(t *testing.T) {
	fx := newFixture(t)
	fx.engine.NotifyStart(context.Background())
	assert.Empty(t, fx.sender.to)

	require.NoError(t, fx.store.AddUser(context.Background(), 77, "Boss"))
	fx.engine.NotifyStart(context.Background())
	assert.Equal(t, []string{"77"}, fx.sender.to)
	assert.Equal(t, []string{"Бот запущен"}, fx.sender.text)
}

func TestRoutingThroughRegistry(t *testing.T) {
	fx := newFixture(t)
	reg := tg.NewRegistry()
	reg.SetBotUsername("wb_bot")
	require.NoError(t, fx.engine.Register(reg))

	text := router.TextRoutes(fx.engine.FSM(), reg, router.TextOptions{
		Commands: router.CommandOptions{AdminUsername: "boss", OnAdminReject: fx.engine.Denied},
	})[0].Handler
	callbacks := router.CallbackRoute(reg, router.CallbackOptions{}).Handler

	// /start wins over the awaited token.
	require.NoError(t, fx.store.SetState(context.Background(), 1, domain.StateAwaitingToken))
	c := textCtx(1, "u", "/Start@wb_bot")
	require.NoError(t, text(c))
	assert.Equal(t, "idle", fx.state(t, 1))
	assert.Empty(t, fx.wb.pinged)

	// idle text is ignored
	c = textCtx(1, "u", "hello")
	require.NoError(t, text(c))
	assert.Empty(t, c.replies)

	c = textCtx(1, "u", "/msg_to_all hi")
	assert.ErrorIs(t, text(c), domain.ErrPermissionDenied)
	assert.Equal(t, "Недостатоно прав.", c.last().text)

	c = callbackCtx(1, "warehouses_list_callback")
	require.NoError(t, callbacks(c))
	assert.Equal(t, "awaiting_token", fx.state(t, 1))

	c = textCtx(1, "u", "garbage")
	require.NoError(t, text(c))
	assert.Equal(t, []string{"garbage"}, fx.wb.pinged)
	assert.Equal(t, "Токен невалиден, введите другой токен", c.last().text)

	c = callbackCtx(1, "nonsense")
	require.NoError(t, callbacks(c))
	assert.Equal(t, "Неизвестный callback: nonsense", c.last().text)

	c = callbackCtx(1, "w_page:"+strconv.Itoa(0))
	require.NoError(t, callbacks(c))
	assert.Equal(t, "edit_markup", c.last().kind)
}
