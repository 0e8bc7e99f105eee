package keyboard

import (
	"fmt"

	tele "gopkg.in/telebot.v4"

	"github.com/mayak/orderbot/core/telegram/callbacks"
)

// Item is one menu entry before encoding.
type Item struct {
	Label   string
	Action  string
	Payload string
}

// Button is a rendered inline button.
type Button struct {
	Label string
	Token string
}

// Menu is a vertical list of single-button rows.
type Menu struct {
	Rows [][]Button
}

// BuildMenu renders every item as its own row, in input order.
// Duplicates are kept. An empty input gives a menu with zero rows.
func BuildMenu(items []Item) (Menu, error) {
	rows := make([][]Button, 0, len(items))
	for i, it := range items {
		token, err := callbacks.Encode(it.Action, it.Payload)
		if err != nil {
			return Menu{}, fmt.Errorf("menu item %d (%q): %w", i, it.Label, err)
		}
		rows = append(rows, []Button{{Label: it.Label, Token: token}})
	}
	return Menu{Rows: rows}, nil
}

// MustBuildMenu is BuildMenu for static menus; it panics on an invalid item.
func MustBuildMenu(items []Item) Menu {
	m, err := BuildMenu(items)
	if err != nil {
		panic(err)
	}
	return m
}

// Len returns the number of rows.
func (m Menu) Len() int { return len(m.Rows) }

// Markup converts the menu into a telebot inline keyboard.
func (m Menu) Markup() *tele.ReplyMarkup {
	inline := make([][]tele.InlineButton, 0, len(m.Rows))
	for _, row := range m.Rows {
		r := make([]tele.InlineButton, 0, len(row))
		for _, b := range row {
			r = append(r, tele.InlineButton{Text: b.Label, Data: b.Token})
		}
		inline = append(inline, r)
	}
	return &tele.ReplyMarkup{InlineKeyboard: inline}
}
