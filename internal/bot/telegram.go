package bot

import (
	"context"

	tele "gopkg.in/telebot.v4"

	tg "github.com/gogermany/gobot/core/telegram"
	"github.com/gogermany/gobot/core/telegram/callbacks"
	tghelpers "github.com/gogermany/gobot/core/telegram/helpers"
	"github.com/gogermany/gobot/core/telegram/middleware"
	"github.com/gogermany/gobot/core/telegram/router"
	"github.com/gogermany/gobot/internal/domain"
	"github.com/gogermany/gobot/internal/transport"
)

// mediaEndpoints share the text stage chain so admins can broadcast any
// kind of message.
var mediaEndpoints = []string{
	tele.OnPhoto,
	tele.OnVideo,
	tele.OnDocument,
	tele.OnAudio,
	tele.OnVoice,
	tele.OnAnimation,
	tele.OnSticker,
	tele.OnVideoNote,
}

func isMedia(m *tele.Message) bool {
	return m.Photo != nil || m.Video != nil || m.Document != nil ||
		m.Audio != nil || m.Voice != nil || m.Animation != nil ||
		m.Sticker != nil || m.VideoNote != nil
}

// inboundFrom strips the Telegram types from an update.
func inboundFrom(c tele.Context) Inbound {
	var in Inbound
	if s := c.Sender(); s != nil {
		in.UserID = s.ID
		in.Username = s.Username
		in.FirstName = s.FirstName
		in.LastName = s.LastName
	}
	if cb := c.Callback(); cb != nil {
		if m := cb.Message; m != nil && m.Chat != nil {
			in.ChatID = m.Chat.ID
			in.Source = transport.Ref{ChatID: m.Chat.ID, MessageID: m.ID}
		}
	} else if m := c.Message(); m != nil {
		if m.Chat != nil {
			in.ChatID = m.Chat.ID
		}
		in.MessageID = m.ID
		in.Text = m.Text
		in.Media = isMedia(m)
		if m.Contact != nil {
			in.Contact = &Contact{OwnerID: m.Contact.UserID, Phone: m.Contact.PhoneNumber}
		}
	}
	if in.ChatID == 0 {
		in.ChatID = in.UserID
	}
	return in
}

// Middleware loads the sender's record before any handler runs and holds
// the sender's lock until the handler returns.
func (b *Bot) Middleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		in := inboundFrom(c)
		if in.UserID == 0 {
			return next(c)
		}
		unlock := b.locks.lock(in.UserID)
		defer unlock()

		ctx := tghelpers.BuildContext(c)
		u, err := b.LoadUser(ctx, in)
		if err != nil {
			b.Fail(ctx, in, err)
			return err
		}
		tghelpers.StoreUser(c, u)
		return next(c)
	}
}

type handlerFunc func(ctx context.Context, in Inbound, u *domain.User) error

type stageFunc func(ctx context.Context, in Inbound, u *domain.User) (bool, error)

func (b *Bot) handler(fn handlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		u, ok := tghelpers.UserFrom[*domain.User](c)
		if !ok {
			return nil
		}
		ctx := tghelpers.BuildContext(c)
		in := inboundFrom(c)
		if err := fn(ctx, in, u); err != nil {
			b.Fail(ctx, in, err)
			return err
		}
		return nil
	}
}

func (b *Bot) stage(fn stageFunc) func(tele.Context) (bool, error) {
	return func(c tele.Context) (bool, error) {
		u, ok := tghelpers.UserFrom[*domain.User](c)
		if !ok {
			return true, nil
		}
		ctx := tghelpers.BuildContext(c)
		in := inboundFrom(c)
		handled, err := fn(ctx, in, u)
		if err != nil {
			b.Fail(ctx, in, err)
			return true, err
		}
		return handled, nil
	}
}

func (b *Bot) callback(c tele.Context) error {
	key := callbacks.CallbackKey(c)
	return b.handler(func(ctx context.Context, in Inbound, u *domain.User) error {
		return b.Button(ctx, in, u, key)
	})(c)
}

type textStage struct {
	name string
	fn   stageFunc
}

// textStages is the routing order for text and media. Admin sessions come
// first so a pending broadcast captures whatever the admin sends next.
func (b *Bot) textStages() []textStage {
	return []textStage{
		{"admin_session", b.AdminSession},
		{"admin_menu", b.AdminMenu},
		{"onboarding", b.OnboardingText},
		{"action", b.ActionText},
		{"menu", b.MenuLabel},
	}
}

// HandleText runs in through the text stages and falls back to Fallback.
func (b *Bot) HandleText(ctx context.Context, in Inbound, u *domain.User) error {
	for _, st := range b.textStages() {
		handled, err := st.fn(ctx, in, u)
		if err != nil || handled {
			return err
		}
	}
	return b.Fallback(ctx, in, u)
}

// Register adds the commands and inline buttons to reg.
func (b *Bot) Register(reg *tg.Registry) error {
	cmds := map[string]tg.Command{
		"/start":  {Handler: b.handler(b.Start), Description: "Botni ishga tushirish"},
		"/menu":   {Handler: b.handler(b.Menu), Description: "Asosiy menyu"},
		"/cancel": {Handler: b.handler(b.Cancel), Description: "Amalni bekor qilish"},
		"/admin":  {Handler: b.handler(b.AdminPanel), Description: "Admin panel", AdminOnly: true},
	}
	for name, cmd := range cmds {
		if err := reg.RegisterCommand(name, cmd); err != nil {
			return err
		}
	}
	for key := range buttonEvents {
		if err := reg.RegisterCallback(key, b.callback); err != nil {
			return err
		}
	}
	reg.SetTextFallback(b.handler(b.Fallback))
	return nil
}

// Routes binds the registry and the text chain to Telegram endpoints.
func (b *Bot) Routes(reg *tg.Registry) []tg.Route {
	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		IsAdmin: b.isAdmin,
		OnAdminReject: func(c tele.Context) error {
			return tghelpers.SendText(c, textAdminOnly, nil)
		},
	})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))

	stages := make([]router.Stage, 0, len(b.textStages()))
	for _, st := range b.textStages() {
		stages = append(stages, router.Stage{Name: st.name, Handle: b.stage(st.fn)})
	}
	routes = append(routes, router.TextRoutes(reg, router.TextOptions{
		Stages:         stages,
		MediaEndpoints: mediaEndpoints,
	})...)

	routes = append(routes, tg.Route{
		Endpoint: tele.OnContact,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(b.handler(b.Contact))),
	})
	return routes
}
