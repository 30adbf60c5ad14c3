package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-marketplace/internal/domain/ports/adapter"
)

var _ adapter.ChatTransport = (*apiTransport)(nil)

// apiTransport implements the outbound chat port on top of tgbotapi.
// Chat ids cross this boundary as strings; everything above it never
// sees a Telegram int64.
type apiTransport struct {
	api *tgbotapi.BotAPI
}

func newAPITransport(api *tgbotapi.BotAPI) *apiTransport {
	return &apiTransport{api: api}
}

func parseChatID(chatID string) (int64, error) {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid chat id %q: %w", chatID, err)
	}
	return id, nil
}

func chatIDString(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (t *apiTransport) SendMessage(ctx context.Context, chatID string, text string) error {
	id, err := parseChatID(chatID)
	if err != nil {
		return err
	}
	_, err = t.api.Send(tgbotapi.NewMessage(id, text))
	return err
}

func (t *apiTransport) SendButtons(ctx context.Context, chatID string, text string, rows [][]adapter.InlineButton) error {
	id, err := parseChatID(chatID)
	if err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	msg := tgbotapi.NewMessage(id, text)
	msg.ReplyMarkup = inlineMarkup(rows)
	_, err = t.api.Send(msg)
	return err
}

func (t *apiTransport) SendReplyKeyboard(ctx context.Context, chatID string, text string, rows [][]adapter.ReplyButton, oneTime bool) error {
	id, err := parseChatID(chatID)
	if err != nil {
		return err
	}
	kbRows := make([][]tgbotapi.KeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, btn := range row {
			if btn.RequestContact {
				r = append(r, tgbotapi.NewKeyboardButtonContact(btn.Text))
			} else {
				r = append(r, tgbotapi.NewKeyboardButton(btn.Text))
			}
		}
		kbRows = append(kbRows, r)
	}
	markup := tgbotapi.NewReplyKeyboard(kbRows...)
	markup.OneTimeKeyboard = oneTime
	msg := tgbotapi.NewMessage(id, text)
	msg.ReplyMarkup = markup
	_, err = t.api.Send(msg)
	return err
}

func (t *apiTransport) RemoveReplyKeyboard(ctx context.Context, chatID string, text string) error {
	id, err := parseChatID(chatID)
	if err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(id, text)
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	_, err = t.api.Send(msg)
	return err
}

func (t *apiTransport) SendPhoto(ctx context.Context, chatID string, fileID, caption string, rows [][]adapter.InlineButton) error {
	id, err := parseChatID(chatID)
	if err != nil {
		return err
	}
	photo := tgbotapi.NewPhoto(id, tgbotapi.FileID(fileID))
	photo.Caption = caption
	if len(rows) > 0 {
		photo.ReplyMarkup = inlineMarkup(rows)
	}
	_, err = t.api.Send(photo)
	return err
}

// EditMessagePhoto swaps the media of an already sent product card,
// which is how image navigation avoids flooding the chat.
func (t *apiTransport) EditMessagePhoto(ctx context.Context, chatID string, messageID int, fileID, caption string, rows [][]adapter.InlineButton) error {
	id, err := parseChatID(chatID)
	if err != nil {
		return err
	}
	media := tgbotapi.NewInputMediaPhoto(tgbotapi.FileID(fileID))
	media.Caption = caption
	markup := inlineMarkup(rows)
	edit := tgbotapi.EditMessageMediaConfig{
		BaseEdit: tgbotapi.BaseEdit{
			ChatID:      id,
			MessageID:   messageID,
			ReplyMarkup: &markup,
		},
		Media: media,
	}
	_, err = t.api.Request(edit)
	return err
}

func inlineMarkup(rows [][]adapter.InlineButton) tgbotapi.InlineKeyboardMarkup {
	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			var kb tgbotapi.InlineKeyboardButton
			switch {
			case btn.URL != "":
				kb = tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL)
			case btn.Data != "":
				kb = tgbotapi.NewInlineKeyboardButtonData(label, btn.Data)
			default:
				kb = tgbotapi.NewInlineKeyboardButtonData(label, label)
			}
			r = append(r, kb)
		}
		kbRows = append(kbRows, r)
	}
	return tgbotapi.NewInlineKeyboardMarkup(kbRows...)
}
