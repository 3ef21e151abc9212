// Package transport defines the messaging capabilities the conversation
// core depends on and adapts them to the Telegram Bot API.
package transport

import (
	"context"
	"errors"
	"net/http"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/gogermany/gobot/core/telegram/netutil"
)

var (
	// ErrBlocked marks a recipient that blocked the bot or is unreachable.
	ErrBlocked = errors.New("transport: recipient blocked the bot")
	// ErrNotModified is returned when an edit would not change the message.
	ErrNotModified = errors.New("transport: message is not modified")
)

// Message is an outbound message body with rendering options.
type Message struct {
	Text      string
	ParseMode tele.ParseMode
	Markup    *tele.ReplyMarkup
	// Protected forbids forwarding and saving the message.
	Protected bool
}

// Ref identifies a message that was already sent.
type Ref struct {
	ChatID    int64
	MessageID int
}

// Messenger sends, edits and deletes messages.
type Messenger interface {
	Send(ctx context.Context, chatID int64, msg Message) (Ref, error)
	Edit(ctx context.Context, ref Ref, msg Message) error
	Delete(ctx context.Context, ref Ref) error
}

// Copier re-sends an existing message to another chat without re-authoring it.
type Copier interface {
	Copy(ctx context.Context, toChatID int64, from Ref) error
}

// IsBlocked reports whether err means the recipient cannot be reached.
func IsBlocked(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrBlocked) {
		return true
	}
	if netutil.StatusCode(err) == http.StatusForbidden {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "blocked") || strings.Contains(msg, "user is deactivated")
}

// IsNotModified reports whether err is Telegram's "message is not modified".
func IsNotModified(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotModified) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "message is not modified")
}

// classify maps raw API errors onto the package sentinels.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrBlocked), errors.Is(err, ErrNotModified):
		return err
	case IsNotModified(err):
		return errors.Join(ErrNotModified, err)
	case IsBlocked(err):
		return errors.Join(ErrBlocked, err)
	}
	return err
}
