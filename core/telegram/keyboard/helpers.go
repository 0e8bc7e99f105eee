package keyboard

import tele "gopkg.in/telebot.v4"

// RemoveKeyboard returns a markup that hides the reply keyboard.
func RemoveKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}

// ContactRequest builds a one-time reply keyboard with a share-contact button
// and, when cancel is not empty, a plain text button under it.
func ContactRequest(label, cancel string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}
	rows := []tele.Row{markup.Row(markup.Contact(label))}
	if cancel != "" {
		rows = append(rows, markup.Row(markup.Text(cancel)))
	}
	markup.Reply(rows...)
	return markup
}
