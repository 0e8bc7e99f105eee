package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// RawData returns the callback_data of the update, without telebot's "\f" unique prefix.
func RawData(cb *tele.Callback) string {
	if cb == nil {
		return ""
	}
	if cb.Unique != "" {
		return cb.Unique + "|" + cb.Data
	}
	return strings.TrimPrefix(cb.Data, "\f")
}

// FromContext decodes the callback carried by c.
func FromContext(c tele.Context) (Action, error) {
	return Decode(RawData(c.Callback()))
}
