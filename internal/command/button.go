package command

// Button is an inline keyboard choice that asks the user for free text.
type Button int

const (
	SearchByName Button = iota + 1
	SearchByCode
	SearchByBarcode
	SearchByISBN
	DocUPD
	DocInvoice
	DocSale
	DocReceipt
)

type buttonInfo struct {
	data   string
	label  string
	prompt string
}

// Callback data doubles as the backend verb.
var buttons = map[Button]buttonInfo{
	SearchByName:    {"name", "По наименованию", "Введите наименование товара"},
	SearchByCode:    {"code", "По артикулу", "Введите артикул товара"},
	SearchByBarcode: {"barcode", "По штрихкоду", "Введите штрихкод товара"},
	SearchByISBN:    {"isbn", "По ISBN", "Введите ISBN"},
	DocUPD:          {"upd", "УПД", "Введите номер документа"},
	DocInvoice:      {"invoice", "Счет на оплату", "Введите номер документа"},
	DocSale:         {"sale", "Реализация товаров", "Введите номер документа"},
	DocReceipt:      {"receipt", "Приходная накладная", "Введите номер документа"},
}

// SearchButtons is the /find menu, two per row.
var SearchButtons = []Button{SearchByName, SearchByCode, SearchByBarcode, SearchByISBN}

// DocumentButtons is the /doc menu, two per row.
var DocumentButtons = []Button{DocUPD, DocInvoice, DocSale, DocReceipt}

// ParseButton maps callback data back to a Button.
func ParseButton(data string) (Button, bool) {
	for b, info := range buttons {
		if info.data == data {
			return b, true
		}
	}
	return 0, false
}

func (b Button) Data() string   { return buttons[b].data }
func (b Button) Verb() string   { return buttons[b].data }
func (b Button) Label() string  { return buttons[b].label }
func (b Button) Prompt() string { return buttons[b].prompt }

func (b Button) String() string {
	if info, ok := buttons[b]; ok {
		return info.data
	}
	return "unknown"
}
