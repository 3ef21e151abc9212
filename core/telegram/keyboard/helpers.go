// Package keyboard builds the reply and inline markups used by the bot.
package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn is one inline button. With URL set it opens a link and
// Unique/Data are ignored; otherwise it fires the Unique callback.
type InlineBtn struct {
	Text   string
	Unique string
	Data   string
	URL    string
}

func (b InlineBtn) inline(m *tele.ReplyMarkup) tele.InlineButton {
	if b.URL != "" {
		return *m.URL(b.Text, b.URL).Inline()
	}
	return *m.Data(b.Text, b.Unique, b.Data).Inline()
}

// RemoveKeyboard hides any reply keyboard on the client.
func RemoveKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}

// ReplyButtons lays out text buttons, one slice per row.
func ReplyButtons(rows ...[]string) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{ResizeKeyboard: true}
	layout := make([]tele.Row, 0, len(rows))
	for _, labels := range rows {
		row := make(tele.Row, 0, len(labels))
		for _, l := range labels {
			row = append(row, m.Text(l))
		}
		layout = append(layout, row)
	}
	m.Reply(layout...)
	return m
}

// ContactRequest asks for the phone number with a single one-time button.
func ContactRequest(label string) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}
	m.Reply(m.Row(m.Contact(label)))
	return m
}

// InlineButtons stacks the buttons vertically.
func InlineButtons(buttons []InlineBtn) *tele.ReplyMarkup {
	rows := make([][]InlineBtn, len(buttons))
	for i := range buttons {
		rows[i] = buttons[i : i+1]
	}
	return InlineButtonsRows(rows...)
}

// InlineButtonsRows lays out inline buttons, one slice per row.
func InlineButtonsRows(rows ...[]InlineBtn) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.InlineKeyboard = make([][]tele.InlineButton, 0, len(rows))
	for _, row := range rows {
		out := make([]tele.InlineButton, 0, len(row))
		for _, b := range row {
			out = append(out, b.inline(m))
		}
		m.InlineKeyboard = append(m.InlineKeyboard, out)
	}
	return m
}
