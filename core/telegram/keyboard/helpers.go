package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn is an inline button whose callback payload is sent verbatim.
// Data must fit Telegram's 64-byte callback_data limit.
type InlineBtn struct {
	Text string
	Data string
}

// Inline converts b into a telebot inline button without the "\f" unique
// prefix telebot adds to registered buttons, so the payload stays exactly
// as given.
func (b InlineBtn) Inline() tele.InlineButton {
	return tele.InlineButton{Text: b.Text, Data: b.Data}
}

// Grid accumulates rows of inline buttons.
type Grid struct {
	rows [][]tele.InlineButton
}

// Row appends one row; empty rows are skipped.
func (g *Grid) Row(buttons ...InlineBtn) *Grid {
	if len(buttons) == 0 {
		return g
	}
	row := make([]tele.InlineButton, len(buttons))
	for i, b := range buttons {
		row[i] = b.Inline()
	}
	g.rows = append(g.rows, row)
	return g
}

// Column appends each button on its own row.
func (g *Grid) Column(buttons ...InlineBtn) *Grid {
	for _, b := range buttons {
		g.Row(b)
	}
	return g
}

// Markup returns the accumulated keyboard.
func (g *Grid) Markup() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{InlineKeyboard: g.rows}
}

// InlineButtons builds an inline keyboard where each provided button is placed on its own row.
func InlineButtons(buttons ...InlineBtn) *tele.ReplyMarkup {
	return new(Grid).Column(buttons...).Markup()
}

// Data extracts the callback payloads of markup row by row, for tests and logs.
func Data(markup *tele.ReplyMarkup) [][]string {
	if markup == nil {
		return nil
	}
	out := make([][]string, len(markup.InlineKeyboard))
	for i, row := range markup.InlineKeyboard {
		for _, b := range row {
			out[i] = append(out[i], b.Data)
		}
	}
	return out
}
