package router

import (
	"log/slog"
	"slices"

	tele "gopkg.in/telebot.v4"

	"github.com/gogermany/gobot/core/logger"
	tg "github.com/gogermany/gobot/core/telegram"
	"github.com/gogermany/gobot/core/telegram/middleware"
)

// CommandRouteOptions configures command routes.
type CommandRouteOptions struct {
	// IsAdmin gates commands registered as AdminOnly.
	IsAdmin       func(userID int64) bool
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes returns one route per registered command, ordered by name.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	gate := middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		IsAdmin:  opts.IsAdmin,
		OnReject: opts.OnAdminReject,
	})

	cmds := reg.Commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	slices.Sort(names)

	routes := make([]tg.Route, 0, len(names))
	admin := 0
	for _, name := range names {
		def := cmds[name]
		h := summarized("cmd."+handlerName(name), def.Handler)
		if def.AdminOnly {
			h = gate(h)
			admin++
		}
		routes = append(routes, tg.Route{Endpoint: name, Handler: guarded(h)})
	}

	logger.Info(logger.Background(), "tg.wire", "routes.commands",
		slog.Int("commands", len(routes)),
		slog.Int("admin_only", admin),
		slog.Int("callbacks", len(reg.CallbackKeys())),
	)
	return routes
}
