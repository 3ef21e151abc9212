// Package bot turns Telegram updates into state machine events and renders
// the results. Handlers work on Inbound values and reply through a
// transport, so the whole conversation runs without a live connection.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/gogermany/gobot/core/logger"
	"github.com/gogermany/gobot/internal/admin"
	"github.com/gogermany/gobot/internal/broadcast"
	"github.com/gogermany/gobot/internal/domain"
	"github.com/gogermany/gobot/internal/flow"
	"github.com/gogermany/gobot/internal/jobs"
	"github.com/gogermany/gobot/internal/membership"
	"github.com/gogermany/gobot/internal/reveal"
	"github.com/gogermany/gobot/internal/storage"
	"github.com/gogermany/gobot/internal/transport"
)

const component = "tg.bot"

// Transport is everything the handlers send through.
type Transport interface {
	transport.Messenger
	transport.Copier
	SendDocument(ctx context.Context, chatID int64, name string, data []byte, caption string) error
}

// Contact is a shared phone contact.
type Contact struct {
	OwnerID int64
	Phone   string
}

// Inbound is one user interaction stripped of Telegram types.
type Inbound struct {
	UserID    int64
	ChatID    int64
	Username  string
	FirstName string
	LastName  string

	Text      string
	MessageID int
	Contact   *Contact
	// Media is set for photos, videos, documents, audio and voice notes.
	Media bool
	// Source is the message carrying the pressed inline button.
	Source transport.Ref
}

func (in Inbound) fromButton() bool { return in.Source.MessageID != 0 }

// Settings are the static parts of the bot configuration.
type Settings struct {
	Admins       []int64
	Groups       []membership.Group
	WhatsAppLink string
}

// Deps wires a Bot.
type Deps struct {
	Users     storage.Users
	Machine   *flow.Machine
	Transport Transport
	Admin     *admin.Service
	Sessions  *admin.Sessions
	Reveal    *reveal.Timer
	Broadcast *broadcast.Engine
	Jobs      *jobs.Group
	Settings  Settings
	Now       func() time.Time
}

// Bot handles every user and admin interaction.
type Bot struct {
	users       storage.Users
	machine     *flow.Machine
	out         Transport
	admin       *admin.Service
	sessions    *admin.Sessions
	reveal      *reveal.Timer
	broadcaster *broadcast.Engine
	jobs        *jobs.Group
	settings    Settings
	now         func() time.Time

	locks userLocks
}

// New validates d and builds a Bot.
func New(d Deps) (*Bot, error) {
	switch {
	case d.Users == nil:
		return nil, errors.New("bot: users store is required")
	case d.Machine == nil:
		return nil, errors.New("bot: state machine is required")
	case d.Transport == nil:
		return nil, errors.New("bot: transport is required")
	case d.Admin == nil || d.Sessions == nil:
		return nil, errors.New("bot: admin service and sessions are required")
	case d.Reveal == nil || d.Broadcast == nil || d.Jobs == nil:
		return nil, errors.New("bot: reveal, broadcast and jobs are required")
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &Bot{
		users:       d.Users,
		machine:     d.Machine,
		out:         d.Transport,
		admin:       d.Admin,
		sessions:    d.Sessions,
		reveal:      d.Reveal,
		broadcaster: d.Broadcast,
		jobs:        d.Jobs,
		settings:    d.Settings,
		now:         now,
	}, nil
}

func (b *Bot) isAdmin(userID int64) bool {
	return userID != 0 && slices.Contains(b.settings.Admins, userID)
}

const lockStripes = 64

// userLocks serializes the events of one user. Users sharing a stripe
// also wait for each other.
type userLocks struct {
	stripes [lockStripes]sync.Mutex
}

func (l *userLocks) lock(userID int64) (unlock func()) {
	m := &l.stripes[uint64(userID)%lockStripes]
	m.Lock()
	return m.Unlock
}

// LoadUser returns the record of the sender, creating it on first contact.
// Profile fields are refreshed and the activity stamp is moved forward.
func (b *Bot) LoadUser(ctx context.Context, in Inbound) (*domain.User, error) {
	now := b.now()
	u, err := b.users.FindUser(ctx, in.UserID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		u = domain.NewUser(in.UserID, now)
		u.Username, u.FirstName, u.LastName = in.Username, in.FirstName, in.LastName
		if err := b.users.CreateUser(ctx, u); err != nil {
			return nil, fmt.Errorf("bot: create user: %w", err)
		}
		logger.Info(ctx, component, "user.registered",
			slog.Int64("user_id", in.UserID),
			slog.String("username", logger.SanitizeLimit(in.Username, 64)),
		)
		return u, nil
	case err != nil:
		return nil, fmt.Errorf("bot: load user: %w", err)
	}

	u.LastActivityAt = now
	if u.Username != in.Username || u.FirstName != in.FirstName || u.LastName != in.LastName {
		u.Username, u.FirstName, u.LastName = in.Username, in.FirstName, in.LastName
		if err := b.users.SaveUser(ctx, u); err != nil {
			return nil, fmt.Errorf("bot: refresh profile: %w", err)
		}
		return u, nil
	}
	if err := b.users.TouchActivity(ctx, u.TelegramID, now); err != nil {
		return nil, fmt.Errorf("bot: touch activity: %w", err)
	}
	return u, nil
}

// Fail logs err and tells the user to try again later.
func (b *Bot) Fail(ctx context.Context, in Inbound, err error) {
	logger.Error(ctx, component, "handler.failed",
		slog.Int64("user_id", in.UserID),
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
	)
	if in.ChatID == 0 {
		return
	}
	if _, sendErr := b.out.Send(ctx, in.ChatID, plain(textFailure, nil)); sendErr != nil {
		logger.Warn(ctx, component, "failure_notice.failed",
			slog.Int64("chat_id", in.ChatID),
			slog.String("err", sendErr.Error()),
		)
	}
}

// advance runs ev through the machine and persists the record when it changed.
func (b *Bot) advance(ctx context.Context, u *domain.User, ev flow.Event) (flow.Result, error) {
	res, err := b.machine.Advance(ctx, u, ev)
	if err != nil {
		return res, err
	}
	if res.Dirty {
		if err := b.users.SaveUser(ctx, u); err != nil {
			return res, fmt.Errorf("bot: save user: %w", err)
		}
	}
	return res, nil
}

// apply advances and renders. Text the current state does not claim is
// reported as unhandled so the next routing stage can look at it.
func (b *Bot) apply(ctx context.Context, in Inbound, u *domain.User, ev flow.Event) (bool, error) {
	res, err := b.advance(ctx, u, ev)
	if err != nil {
		return true, err
	}
	if !res.Claimed() && ev.Kind == flow.TextEntered {
		return false, nil
	}
	return true, b.present(ctx, in, u, ev, res)
}

func (b *Bot) reply(ctx context.Context, in Inbound, msg transport.Message) error {
	_, err := b.out.Send(ctx, in.ChatID, msg)
	return err
}

// replace edits the message carrying the pressed button, or sends msg when
// the event did not come from a button.
func (b *Bot) replace(ctx context.Context, in Inbound, msg transport.Message) error {
	if !in.fromButton() {
		return b.reply(ctx, in, msg)
	}
	if err := b.out.Edit(ctx, in.Source, msg); err != nil && !transport.IsNotModified(err) {
		return err
	}
	return nil
}
