package router

import (
	"log/slog"
	"time"

	tg "github.com/gogermany/gobot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// Stage is one step of the message routing chain. Handle reports whether
// it took the update; a stage that declines lets the next one run.
type Stage struct {
	Name   string
	Handle func(c tele.Context) (bool, error)
}

// TextOptions controls routing of text and media updates.
type TextOptions struct {
	// Stages run in order until one handles the update.
	Stages []Stage
	// MediaEndpoints receive the same chain as text; defaults to documents only.
	MediaEndpoints []string
	UnknownText    tele.HandlerFunc
}

// TextRoutes builds handlers that pass text and media updates through the
// stage chain, then the registry fallback, then UnknownText.
func TextRoutes(reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()

		for _, st := range opts.Stages {
			if st.Handle == nil {
				continue
			}
			name := handlerName(st.Name)
			var handled bool
			err := runStage(c, name, func() error {
				var err error
				handled, err = st.Handle(c)
				return err
			})
			if handled || err != nil {
				logHandled(c, name, start, err)
				return err
			}
		}

		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return observe(c, "fallback", start, func() error { return fb(c) })
			}
		}

		if opts.UnknownText != nil {
			return observe(c, "unknown_text", start, func() error { return opts.UnknownText(c) })
		}

		logHandled(c, "unknown_text", start, nil, slog.String("status", "skip"))
		return nil
	}

	wrapped := guarded(handler)
	media := opts.MediaEndpoints
	if len(media) == 0 {
		media = []string{tele.OnDocument}
	}
	routes := make([]tg.Route, 0, len(media)+1)
	routes = append(routes, tg.Route{Endpoint: tele.OnText, Handler: wrapped})
	for _, ep := range media {
		routes = append(routes, tg.Route{Endpoint: ep, Handler: wrapped})
	}
	return routes
}
