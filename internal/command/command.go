// Package command enumerates the chat commands and inline buttons the bot
// understands, together with the backend verbs they map to.
package command

import "strings"

// Backend verbs that are not tied to a button.
const (
	VerbOrders   = "orders"
	VerbStatus   = "status"
	VerbRegister = "register"
	VerbConfirm  = "confirm"
	VerbDebts    = "debts"
	VerbPromos   = "promos"
	VerbPrice    = "price"
)

// DefaultOrdersLimit is sent with /orders when no amount is given.
const DefaultOrdersLimit = 50

// Kind is a chat command keyword.
type Kind int

const (
	Unknown Kind = iota
	Help
	Start
	Register
	Find
	Orders
	Status
	Debts
	Promos
	Price
	Doc
)

var keywords = map[string]Kind{
	"help":     Help,
	"start":    Start,
	"register": Register,
	"find":     Find,
	"orders":   Orders,
	"status":   Status,
	"debts":    Debts,
	"promos":   Promos,
	"price":    Price,
	"doc":      Doc,
}

// ParseKind maps a command keyword (without the leading slash) to its Kind.
func ParseKind(keyword string) Kind {
	if k, ok := keywords[strings.ToLower(strings.TrimPrefix(keyword, "/"))]; ok {
		return k
	}
	return Unknown
}

func (k Kind) String() string {
	for keyword, kind := range keywords {
		if kind == k {
			return keyword
		}
	}
	return "unknown"
}

// Verb returns the backend command issued directly by k, if any.
func (k Kind) Verb() (string, bool) {
	switch k {
	case Orders:
		return VerbOrders, true
	case Status:
		return VerbStatus, true
	case Register:
		return VerbRegister, true
	case Debts:
		return VerbDebts, true
	case Promos:
		return VerbPromos, true
	case Price:
		return VerbPrice, true
	}
	return "", false
}

// MenuEntry is one line of the command menu shown by Telegram clients.
type MenuEntry struct {
	Kind        Kind
	Description string
}

var menu = []MenuEntry{
	{Help, "Показать список всех доступных команд"},
	{Register, "Зарегистрироваться"},
	{Find, "Найти товар"},
	{Orders, "Показать список заказов"},
	{Status, "Узнать статус заказа"},
	{Debts, "Показать задолженности"},
	{Promos, "Вывести действующие акции"},
	{Price, "Скачать прайс"},
	{Doc, "Получить документ"},
}

// Menu lists the commands published to Telegram on startup.
func Menu() []MenuEntry {
	out := make([]MenuEntry, len(menu))
	copy(out, menu)
	return out
}

// IsDecimal reports whether s is a non-empty run of ASCII digits.
func IsDecimal(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
