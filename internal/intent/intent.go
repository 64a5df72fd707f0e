// Package intent remembers, per chat, the single follow-up message the bot
// is waiting for.
package intent

// Kind tags what the next text message from the chat will be used for.
type Kind int

const (
	None Kind = iota
	// SearchText waits for free text to send with Verb (search or document lookup).
	SearchText
	OrderNumber
	Email
	// VerificationCode waits for the code the backend returned on registration.
	VerificationCode
)

func (k Kind) String() string {
	switch k {
	case SearchText:
		return "search_text"
	case OrderNumber:
		return "order_number"
	case Email:
		return "email"
	case VerificationCode:
		return "verification_code"
	}
	return "none"
}

// Registration holds the backend answer to a register call while the user
// is typing the confirmation code.
type Registration struct {
	GUID string
	Code string
}

type Intent struct {
	Kind         Kind
	Verb         string
	Registration *Registration
}

func AwaitSearchText(verb string) Intent { return Intent{Kind: SearchText, Verb: verb} }

func AwaitOrderNumber() Intent { return Intent{Kind: OrderNumber} }

func AwaitEmail() Intent { return Intent{Kind: Email} }

func AwaitCode(guid, code string) Intent {
	return Intent{Kind: VerificationCode, Registration: &Registration{GUID: guid, Code: code}}
}

// Store is a single-slot memory keyed by chat id.
type Store interface {
	// Arm replaces whatever the chat was waiting for.
	Arm(chatID int64, in Intent)
	// Take returns the armed intent and clears it.
	Take(chatID int64) (Intent, bool)
	Peek(chatID int64) (Intent, bool)
	Clear(chatID int64)
	Len() int
}
