package transport

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/gogermany/gobot/core/logger"
	tghelpers "github.com/gogermany/gobot/core/telegram/helpers"
	"github.com/gogermany/gobot/core/telegram/netutil"
	"github.com/gogermany/gobot/internal/membership"
)

const component = "tg.transport"

// BotAPI is the subset of *tele.Bot used by Telegram.
type BotAPI interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error)
	Delete(msg tele.Editable) error
	Copy(to tele.Recipient, msg tele.Editable, opts ...interface{}) (*tele.Message, error)
	ChatMemberOf(chat, user tele.Recipient) (*tele.ChatMember, error)
}

// chatRef addresses a chat by numeric id or @username.
type chatRef string

func (c chatRef) Recipient() string { return string(c) }

// Telegram implements Messenger, Copier and membership.Lookup on top of telebot.
type Telegram struct {
	bot   BotAPI
	retry netutil.Retry
}

// NewTelegram wraps a bot instance. Flood control and connection failures
// are retried a few times.
func NewTelegram(bot BotAPI) *Telegram {
	return &Telegram{
		bot:   bot,
		retry: netutil.Retry{Attempts: 3, MinInterval: 500 * time.Millisecond, MaxInterval: 3 * time.Second},
	}
}

// WithRetry replaces the retry policy.
func (t *Telegram) WithRetry(r netutil.Retry) *Telegram {
	t.retry = r
	return t
}

func sendOptions(msg Message) *tele.SendOptions {
	return &tele.SendOptions{
		ParseMode:   msg.ParseMode,
		ReplyMarkup: msg.Markup,
		Protected:   msg.Protected,
	}
}

func editable(ref Ref) tele.StoredMessage {
	return tele.StoredMessage{MessageID: strconv.Itoa(ref.MessageID), ChatID: ref.ChatID}
}

func (t *Telegram) call(ctx context.Context, action string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	calls, err := t.retry.Do(ctx, fn)
	err = classify(err)
	attrs := []slog.Attr{
		slog.String("action", action),
		slog.String("status", logger.Status(err)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	}
	if calls > 1 {
		attrs = append(attrs, slog.Int("attempts", calls))
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", logger.SanitizeLimit(netutil.Redact(err.Error()), 256)))
	}
	logger.Debug(ctx, component, "tg.call", attrs...)
	return err
}

// Send delivers msg to chatID and returns its reference.
func (t *Telegram) Send(ctx context.Context, chatID int64, msg Message) (Ref, error) {
	var sent *tele.Message
	err := t.call(ctx, "send", func() error {
		var err error
		sent, err = t.bot.Send(tele.ChatID(chatID), msg.Text, sendOptions(msg))
		return err
	})
	if err != nil {
		return Ref{}, fmt.Errorf("transport: send: %w", err)
	}
	tghelpers.CountMessage(ctx, msg.Markup != nil)
	ref := Ref{ChatID: chatID}
	if sent != nil {
		ref.MessageID = sent.ID
	}
	return ref, nil
}

// Edit replaces the text and markup of a sent message.
func (t *Telegram) Edit(ctx context.Context, ref Ref, msg Message) error {
	err := t.call(ctx, "edit", func() error {
		_, err := t.bot.Edit(editable(ref), msg.Text, sendOptions(msg))
		return err
	})
	if err != nil {
		return fmt.Errorf("transport: edit: %w", err)
	}
	tghelpers.CountMessage(ctx, msg.Markup != nil)
	return nil
}

// Delete removes a sent message.
func (t *Telegram) Delete(ctx context.Context, ref Ref) error {
	err := t.call(ctx, "delete", func() error {
		return t.bot.Delete(editable(ref))
	})
	if err != nil {
		return fmt.Errorf("transport: delete: %w", err)
	}
	return nil
}

// Copy re-sends the referenced message to toChatID.
func (t *Telegram) Copy(ctx context.Context, toChatID int64, from Ref) error {
	err := t.call(ctx, "copy", func() error {
		_, err := t.bot.Copy(tele.ChatID(toChatID), editable(from))
		return err
	})
	if err != nil {
		return fmt.Errorf("transport: copy: %w", err)
	}
	return nil
}

// SendDocument uploads an in-memory file.
func (t *Telegram) SendDocument(ctx context.Context, chatID int64, name string, data []byte, caption string) error {
	doc := &tele.Document{
		File:     tele.FromReader(bytes.NewReader(data)),
		FileName: name,
		Caption:  caption,
	}
	err := t.call(ctx, "send_document", func() error {
		_, err := t.bot.Send(tele.ChatID(chatID), doc)
		return err
	})
	if err != nil {
		return fmt.Errorf("transport: send document: %w", err)
	}
	tghelpers.CountMessage(ctx, false)
	return nil
}

// MemberStatus reports the user's role in a group addressed by id or @username.
func (t *Telegram) MemberStatus(ctx context.Context, groupID string, userID int64) (membership.Status, error) {
	var member *tele.ChatMember
	err := t.call(ctx, "chat_member", func() error {
		var err error
		member, err = t.bot.ChatMemberOf(chatRef(groupID), tele.ChatID(userID))
		return err
	})
	if err != nil {
		return "", fmt.Errorf("transport: chat member %s: %w", groupID, err)
	}
	if member == nil {
		return membership.StatusLeft, nil
	}
	return membership.Status(member.Role), nil
}
