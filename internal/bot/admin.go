package bot

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gogermany/gobot/core/logger"
	"github.com/gogermany/gobot/core/telegram/format"
	"github.com/gogermany/gobot/core/telegram/keyboard"
	"github.com/gogermany/gobot/internal/admin"
	"github.com/gogermany/gobot/internal/broadcast"
	"github.com/gogermany/gobot/internal/domain"
	"github.com/gogermany/gobot/internal/transport"
)

// AdminPanel shows the statistics and the admin keyboard.
func (b *Bot) AdminPanel(ctx context.Context, in Inbound, _ *domain.User) error {
	st, err := b.admin.Stats(ctx)
	if err != nil {
		return err
	}
	return b.reply(ctx, in, md(adminPanelText(st), adminKeyboard()))
}

// AdminSession consumes the next message of an admin with a pending
// sub-flow. It runs before every other text stage, so a menu label sent
// while a broadcast is pending is broadcast rather than interpreted.
func (b *Bot) AdminSession(ctx context.Context, in Inbound, _ *domain.User) (bool, error) {
	if !b.isAdmin(in.UserID) {
		return false, nil
	}
	switch b.sessions.Get(in.UserID) {
	case admin.SessionAwaitingNames:
		return true, b.importNames(ctx, in)
	case admin.SessionAwaitingBroadcast:
		return true, b.startBroadcast(ctx, in)
	}
	return false, nil
}

// AdminMenu handles the admin keyboard labels.
func (b *Bot) AdminMenu(ctx context.Context, in Inbound, _ *domain.User) (bool, error) {
	if in.Media || !b.isAdmin(in.UserID) {
		return false, nil
	}
	switch in.Text {
	case labelExport:
		return true, b.exportUsers(ctx, in)
	case labelAddNames:
		b.sessions.Set(in.UserID, admin.SessionAwaitingNames)
		return true, b.reply(ctx, in, md(textAddNames, keyboard.RemoveKeyboard()))
	case labelViewNames:
		return true, b.listNames(ctx, in)
	case labelBroadcast:
		st, err := b.admin.Stats(ctx)
		if err != nil {
			return true, err
		}
		b.sessions.Set(in.UserID, admin.SessionAwaitingBroadcast)
		return true, b.reply(ctx, in, md(broadcastPromptText(st.Onboarded), keyboard.RemoveKeyboard()))
	case labelBack:
		b.sessions.Clear(in.UserID)
		return true, b.reply(ctx, in, plain(textAdminBack, mainMenuKeyboard()))
	}
	return false, nil
}

func (b *Bot) exportUsers(ctx context.Context, in Inbound) error {
	if err := b.reply(ctx, in, plain(textExporting, nil)); err != nil {
		return err
	}
	exp, err := b.admin.ExportUsers(ctx)
	if err == nil {
		err = b.out.SendDocument(ctx, in.ChatID, exp.FileName, exp.Data, exportCaption(exp, b.now()))
	}
	if err != nil {
		logger.Error(ctx, component, "admin.export_failed",
			slog.Int64("admin_id", in.UserID),
			slog.String("err", err.Error()),
		)
		return b.reply(ctx, in, plain(textExportFailed, adminKeyboard()))
	}
	logger.Info(ctx, component, "admin.exported",
		slog.Int64("admin_id", in.UserID),
		slog.Int("rows", exp.Rows),
	)
	return nil
}

func (b *Bot) listNames(ctx context.Context, in Inbound) error {
	list, err := b.admin.ListNames(ctx, admin.ChunkLimit)
	if err != nil {
		logger.Error(ctx, component, "admin.list_failed",
			slog.Int64("admin_id", in.UserID),
			slog.String("err", err.Error()),
		)
		return b.reply(ctx, in, plain(textListFailed, adminKeyboard()))
	}
	switch len(list.Chunks) {
	case 0:
		return b.reply(ctx, in, md(textNamesEmpty, nil))
	case 1:
		return b.reply(ctx, in, md(namesHeaderText(list.Total, false)+"\n\n"+format.MD(list.Chunks[0]), nil))
	}
	if err := b.reply(ctx, in, md(namesHeaderText(list.Total, true), nil)); err != nil {
		return err
	}
	for _, chunk := range list.Chunks {
		if err := b.reply(ctx, in, plain(chunk, nil)); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) importNames(ctx context.Context, in Inbound) error {
	if in.Media || in.Text == "" {
		return b.reply(ctx, in, plain(textNamesNeedText, nil))
	}
	rep, err := b.admin.ImportNames(ctx, in.Text, in.UserID)
	switch {
	case errors.Is(err, admin.ErrNoNames):
		return b.reply(ctx, in, plain(textNoNames, nil))
	case err != nil:
		logger.Error(ctx, component, "admin.import_failed",
			slog.Int64("admin_id", in.UserID),
			slog.String("err", err.Error()),
		)
		return b.reply(ctx, in, plain(textImportFailed, adminKeyboard()))
	}
	b.sessions.Clear(in.UserID)
	return b.reply(ctx, in, md(namesAddedText(rep), adminKeyboard()))
}

// startBroadcast copies the admin's message to every onboarded user in a
// background job. Progress and the final summary go back to the admin.
func (b *Bot) startBroadcast(ctx context.Context, in Inbound) error {
	b.sessions.Clear(in.UserID)
	recipients, err := b.admin.Recipients(ctx)
	if err != nil {
		logger.Error(ctx, component, "admin.broadcast_failed",
			slog.Int64("admin_id", in.UserID),
			slog.String("err", err.Error()),
		)
		return b.reply(ctx, in, plain(textBroadcastFailed, adminKeyboard()))
	}
	if err := b.reply(ctx, in, plain(textBroadcastStart, adminKeyboard())); err != nil {
		return err
	}

	source := transport.Ref{ChatID: in.ChatID, MessageID: in.MessageID}
	adminChat := in.ChatID
	err = b.jobs.Go(ctx, "broadcast", func(jctx context.Context) {
		progress := func(pctx context.Context, p broadcast.Progress) {
			if _, err := b.out.Send(pctx, adminChat, plain(broadcastProgressText(p), nil)); err != nil {
				logger.Warn(pctx, component, "broadcast.progress_failed", slog.String("err", err.Error()))
			}
		}
		sum, runErr := b.broadcaster.Broadcast(jctx, source, recipients, progress)
		interrupted := runErr != nil
		// The summary still goes out when shutdown interrupted the run.
		sendCtx := context.WithoutCancel(jctx)
		if _, err := b.out.Send(sendCtx, adminChat, md(broadcastDoneText(sum, interrupted), nil)); err != nil {
			logger.Warn(sendCtx, component, "broadcast.summary_failed", slog.String("err", err.Error()))
		}
	})
	if err != nil {
		logger.Error(ctx, component, "admin.broadcast_failed",
			slog.Int64("admin_id", in.UserID),
			slog.String("err", err.Error()),
		)
		return b.reply(ctx, in, plain(textBroadcastFailed, adminKeyboard()))
	}
	return nil
}
