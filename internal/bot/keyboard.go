package bot

import (
	"trade-bot/internal/command"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BOT KEYBOARDS

const buttonsPerRow = 2

func buttonsKeyboard(buttons []command.Button) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, (len(buttons)+buttonsPerRow-1)/buttonsPerRow)
	for i := 0; i < len(buttons); i += buttonsPerRow {
		row := make([]tgbotapi.InlineKeyboardButton, 0, buttonsPerRow)
		for _, button := range buttons[i:min(i+buttonsPerRow, len(buttons))] {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(button.Label(), button.Data()))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (b *Bot) createSearchKeyboard() tgbotapi.InlineKeyboardMarkup {
	return buttonsKeyboard(command.SearchButtons)
}

func (b *Bot) createDocumentKeyboard() tgbotapi.InlineKeyboardMarkup {
	return buttonsKeyboard(command.DocumentButtons)
}
