package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	tele "gopkg.in/telebot.v4"
)

const metricsNamespace = "wbcoef"

var (
	updatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "updates_total",
		Help:      "Telegram updates received, by kind.",
	}, []string{"kind"})

	messagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "tg_messages_sent_total",
		Help:      "Messages sent or edited in reply to updates.",
	})

	rateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "rate_limited_total",
		Help:      "Updates dropped by the per-user rate limiter.",
	})

	handlerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "handler_duration_seconds",
		Help:      "Time spent in routed handlers.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"handler", "status"})
)

// ObserveHandler records a routed handler's duration.
func ObserveHandler(handler, status string, took time.Duration) {
	handlerDuration.WithLabelValues(handler, status).Observe(took.Seconds())
}

const (
	keyMessages = "messages"
	keyKeyboard = "kb"
)

// metricsContext wraps tele.Context to count sent messages and detect keyboard usage.
type metricsContext struct{ tele.Context }

func (m metricsContext) count(opts []interface{}, err error) error {
	if err != nil {
		return err
	}
	n, _ := m.Get(keyMessages).(int)
	m.Set(keyMessages, n+1)
	if hasKeyboard(opts) {
		m.Set(keyKeyboard, true)
	}
	messagesSent.Inc()
	return nil
}

func hasKeyboard(opts []interface{}) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

func (m metricsContext) Send(what interface{}, opts ...interface{}) error {
	return m.count(opts, m.Context.Send(what, opts...))
}

func (m metricsContext) Reply(what interface{}, opts ...interface{}) error {
	return m.count(opts, m.Context.Reply(what, opts...))
}

// Edit counts keyboard-only edits as keyboard replies.
func (m metricsContext) Edit(what interface{}, opts ...interface{}) error {
	if rm, ok := what.(*tele.ReplyMarkup); ok {
		return m.count([]interface{}{rm}, m.Context.Edit(what, opts...))
	}
	return m.count(opts, m.Context.Edit(what, opts...))
}

func (m metricsContext) EditOrSend(what interface{}, opts ...interface{}) error {
	return m.count(opts, m.Context.EditOrSend(what, opts...))
}

// MessageMetricsMiddleware counts the update and instruments the context to
// track replies and keyboard usage for the handler summary line.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		updatesTotal.WithLabelValues(UpdateKind(c.Update())).Inc()
		c.Set(keyMessages, 0)
		c.Set(keyKeyboard, false)
		return next(metricsContext{Context: c})
	}
}

// GetCounters reads message count and keyboard presence flags from context.
func GetCounters(c tele.Context) (int, bool) {
	msgs, _ := c.Get(keyMessages).(int)
	kb, _ := c.Get(keyKeyboard).(bool)
	return msgs, kb
}
