package bot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"trade-bot/internal/backend"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type attachmentKind int

const (
	attachmentDocument attachmentKind = iota
	attachmentPhoto
)

func (k attachmentKind) String() string {
	if k == attachmentPhoto {
		return "photo"
	}
	return "document"
}

// render relays a backend reply. Absent fields are skipped. If any part
// cannot be delivered the rest is still sent and the user is told once.
func (b *Bot) render(conv conversation, resp *backend.Response) {
	if resp.Empty() {
		conv.logger.Debug("Backend reply has nothing to show")
		return
	}

	failed := false
	if resp.Message != "" {
		failed = b.sendText(conv, resp.Message) != nil || failed
	}
	for _, text := range resp.Messages {
		if text == "" {
			continue
		}
		failed = b.sendText(conv, text) != nil || failed
	}
	for _, doc := range resp.Docs {
		failed = b.sendAttachment(conv, doc, attachmentDocument) != nil || failed
	}
	for _, pic := range resp.Pics {
		failed = b.sendAttachment(conv, pic, attachmentPhoto) != nil || failed
	}

	if failed {
		b.sendMessage(conv, tgbotapi.NewMessage(conv.chatID, msgSomethingWrong))
	}
}

// sendAttachment writes the payload to a temporary file under its original
// name, uploads it and removes the file.
func (b *Bot) sendAttachment(conv conversation, att backend.Attachment, kind attachmentKind) error {
	log := conv.logger.With(
		zap.Stringer("kind", kind),
		zap.String("name", att.Name))

	path, cleanup, err := b.writeAttachment(att)
	if err != nil {
		log.Error("Failed to prepare attachment", zap.Error(err))
		return err
	}
	defer func() {
		if err := cleanup(); err != nil {
			log.Warn("Failed to remove attachment copy", zap.Error(err))
		}
	}()

	file := tgbotapi.FilePath(path)
	var upload tgbotapi.Chattable
	switch kind {
	case attachmentPhoto:
		photo := tgbotapi.NewPhoto(conv.chatID, file)
		photo.Caption = att.Caption
		photo.ParseMode = tgbotapi.ModeMarkdown
		upload = photo
	default:
		doc := tgbotapi.NewDocument(conv.chatID, file)
		doc.Caption = att.Caption
		doc.ParseMode = tgbotapi.ModeMarkdown
		upload = doc
	}

	if _, err := b.api.Send(upload); err != nil {
		log.Error("Failed to upload attachment", zap.Error(err))
		return err
	}
	log.Debug("Attachment uploaded")
	return nil
}

func (b *Bot) writeAttachment(att backend.Attachment) (string, func() error, error) {
	raw, err := att.Decode()
	if err != nil {
		return "", nil, err
	}

	dir, err := os.MkdirTemp(b.attachmentDir, "attachment-*")
	if err != nil {
		return "", nil, fmt.Errorf("create temp dir: %w", err)
	}
	cleanup := func() error { return os.RemoveAll(dir) }

	path := filepath.Join(dir, attachmentFileName(att.Name))
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		_ = cleanup()
		return "", nil, fmt.Errorf("write %s: %w", path, err)
	}
	return path, cleanup, nil
}

// attachmentFileName keeps the backend's file name but never lets it leave
// the temp directory.
func attachmentFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	switch name {
	case "", ".", "..", "/":
		return "attachment"
	}
	return name
}
