package bot

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gogermany/gobot/core/logger"
	"github.com/gogermany/gobot/core/telegram/keyboard"
	"github.com/gogermany/gobot/internal/domain"
	"github.com/gogermany/gobot/internal/flow"
	"github.com/gogermany/gobot/internal/reveal"
	"github.com/gogermany/gobot/internal/transport"
)

var buttonEvents = map[string]flow.EventKind{
	cbCheckSubscription: flow.MembershipCheckRequested,
	cbConfirmName:       flow.NameConfirmed,
	cbReenterName:       flow.NameReentryRequested,
	cbConfirmPhone:      flow.PhoneConfirmed,
	cbDifferentPhone:    flow.DifferentPhoneRequested,
	cbWhatsappConfirm:   flow.RevealConfirmed,
	cbWhatsappReenter:   flow.RevealReentryRequested,
	cbWhatsappCancel:    flow.RevealCancelled,
}

// Start greets the user: onboarded users get the main menu, everybody else
// the step they stopped at. Admins are pointed to /admin.
func (b *Bot) Start(ctx context.Context, in Inbound, u *domain.User) error {
	hint := b.isAdmin(in.UserID)
	if u.IsOnboarded {
		text := textWelcomeBack
		if hint {
			text += textAdminHint
		}
		return b.reply(ctx, in, plain(text, mainMenuKeyboard()))
	}
	if hint {
		if err := b.reply(ctx, in, plain(textAdminHintPending, nil)); err != nil {
			return err
		}
	}
	return b.showStep(ctx, in, u)
}

// Menu shows the main menu or the pending onboarding step.
func (b *Bot) Menu(ctx context.Context, in Inbound, u *domain.User) error {
	if !u.IsOnboarded {
		return b.showStep(ctx, in, u)
	}
	return b.reply(ctx, in, md(textMainMenu, mainMenuKeyboard()))
}

// Cancel ends a pending admin session first; otherwise it resets the
// user's action sub-flow.
func (b *Bot) Cancel(ctx context.Context, in Inbound, u *domain.User) error {
	if b.isAdmin(in.UserID) && b.sessions.InProgress(in.UserID) {
		b.sessions.Clear(in.UserID)
		return b.reply(ctx, in, plain(textAdminCancelled, adminKeyboard()))
	}
	_, err := b.apply(ctx, in, u, flow.On(flow.CancelRequested))
	return err
}

// Contact handles a shared phone contact.
func (b *Bot) Contact(ctx context.Context, in Inbound, u *domain.User) error {
	if in.Contact == nil {
		return nil
	}
	_, err := b.apply(ctx, in, u, flow.Contact(in.Contact.OwnerID, in.Contact.Phone))
	return err
}

// Button handles an inline button press identified by its callback key.
func (b *Bot) Button(ctx context.Context, in Inbound, u *domain.User, key string) error {
	kind, ok := buttonEvents[key]
	if !ok {
		logger.Debug(ctx, component, "button.unknown", slog.String("cb_key", key))
		return nil
	}
	_, err := b.apply(ctx, in, u, flow.On(kind))
	return err
}

// OnboardingText consumes every text of a user who has not finished
// onboarding: names in the name steps, a redirect to the current step
// otherwise.
func (b *Bot) OnboardingText(ctx context.Context, in Inbound, u *domain.User) (bool, error) {
	if u.IsOnboarded || in.Media {
		return false, nil
	}
	return b.apply(ctx, in, u, flow.Text(in.Text))
}

// ActionText feeds text into the active sub-flow of an onboarded user.
func (b *Bot) ActionText(ctx context.Context, in Inbound, u *domain.User) (bool, error) {
	if !u.IsOnboarded || in.Media || u.ActionState == domain.ActionNone {
		return false, nil
	}
	return b.apply(ctx, in, u, flow.Text(in.Text))
}

// MenuLabel handles the main menu reply buttons.
func (b *Bot) MenuLabel(ctx context.Context, in Inbound, u *domain.User) (bool, error) {
	if in.Media {
		return false, nil
	}
	if in.Text == labelWhatsapp {
		return b.apply(ctx, in, u, flow.On(flow.RevealRequested))
	}
	if s, ok := serviceLabels[in.Text]; ok {
		return b.apply(ctx, in, u, flow.Service(s))
	}
	return false, nil
}

// Fallback answers whatever no stage handled.
func (b *Bot) Fallback(ctx context.Context, in Inbound, u *domain.User) error {
	if in.Media {
		if !u.IsOnboarded {
			return nil
		}
		return b.reply(ctx, in, plain(textTextOnly, mainMenuKeyboard()))
	}
	return b.reply(ctx, in, plain(textUnknown, mainMenuKeyboard()))
}

// showStep re-renders the onboarding step u is at.
func (b *Bot) showStep(ctx context.Context, in Inbound, u *domain.User) error {
	return b.present(ctx, in, u, flow.Event{}, flow.Result{
		Outcome: flow.Redirected,
		Prompt:  flow.StepPrompt(u.OnboardingState),
	})
}

// present renders res. ev tells where the result came from, which decides
// whether the button message is edited before the next prompt is sent.
func (b *Bot) present(ctx context.Context, in Inbound, u *domain.User, ev flow.Event, res flow.Result) error {
	applied := res.Outcome == flow.Applied
	switch res.Prompt {
	case flow.PromptNone:
		return nil

	case flow.PromptSharePhone:
		return b.reply(ctx, in, plain(textWelcome, contactKeyboard()))

	case flow.PromptForeignContact:
		return b.reply(ctx, in, plain(textForeignContact, contactKeyboard()))

	case flow.PromptJoinChannels:
		if applied && ev.Kind == flow.ContactShared {
			if err := b.reply(ctx, in, plain(textPhoneReceived, keyboard.RemoveKeyboard())); err != nil {
				return err
			}
		}
		return b.reply(ctx, in, plain(textJoinChannels, channelsKeyboard(b.settings.Groups)))

	case flow.PromptNotSubscribed:
		return b.replace(ctx, in, plain(textNotSubscribed, channelsKeyboard(b.settings.Groups)))

	case flow.PromptMembershipUnverified:
		return b.replace(ctx, in, plain(textUnverified, channelsKeyboard(b.settings.Groups)))

	case flow.PromptEnterFirstName:
		if applied {
			var notice string
			switch ev.Kind {
			case flow.MembershipCheckRequested:
				notice = textChannelsVerified
			case flow.NameReentryRequested:
				notice = textReenterName
			}
			if notice != "" {
				if err := b.replace(ctx, in, plain(notice, nil)); err != nil {
					return err
				}
			}
		}
		return b.reply(ctx, in, md(textAskFirstName, keyboard.RemoveKeyboard()))

	case flow.PromptEnterLastName:
		return b.reply(ctx, in, md(enterLastNameText(u.PassportFirstName), nil))

	case flow.PromptInvalidName:
		return b.reply(ctx, in, plain(invalidNameText(res.Reason), nil))

	case flow.PromptConfirmName:
		return b.reply(ctx, in, md(confirmNameText(u.PassportFirstName, u.PassportLastName), nameConfirmKeyboard()))

	case flow.PromptOnboarded:
		if err := b.replace(ctx, in, plain(textPassportConfirmed, nil)); err != nil {
			return err
		}
		return b.reply(ctx, in, plain(textNameConfirmed, mainMenuKeyboard()))

	case flow.PromptMainMenu:
		return b.reply(ctx, in, md(textMainMenu, mainMenuKeyboard()))

	case flow.PromptCancelled:
		return b.reply(ctx, in, plain(textCancelled, mainMenuKeyboard()))

	case flow.PromptConfirmPhone:
		return b.reply(ctx, in, md(serviceConfirmText(res.Service, res.ContactPhone), phoneConfirmKeyboard()))

	case flow.PromptEnterSecondaryPhone:
		return b.replace(ctx, in, md(textEnterSecondaryPhone, nil))

	case flow.PromptInvalidPhone:
		return b.reply(ctx, in, plain(textInvalidPhone, nil))

	case flow.PromptServiceRequested:
		if err := b.replace(ctx, in, md(requestSentText(res.Service, res.ContactPhone), nil)); err != nil {
			return err
		}
		b.notifyAdmins(ctx, u, res)
		return b.reply(ctx, in, plain(textBackToMenu, mainMenuKeyboard()))

	case flow.PromptWhatsappFirstName:
		if applied && ev.Kind == flow.RevealReentryRequested {
			if err := b.replace(ctx, in, plain(textWhatsappReenter, nil)); err != nil {
				return err
			}
		}
		return b.reply(ctx, in, md(textWhatsappFirstName, mainMenuKeyboard()))

	case flow.PromptWhatsappLastName:
		return b.reply(ctx, in, md(whatsappLastNameText(u.WhatsappFirstName), nil))

	case flow.PromptWhatsappConfirm:
		return b.reply(ctx, in, md(whatsappConfirmText(u.WhatsappFirstName, u.WhatsappLastName), whatsappConfirmKeyboard()))

	case flow.PromptRevealGranted:
		if err := b.replace(ctx, in, plain(textRevealPreparing, nil)); err != nil {
			return err
		}
		return b.startReveal(ctx, in)

	case flow.PromptRevealDenied:
		return b.replace(ctx, in, md(revealDeniedText(u.WhatsappFirstName, u.WhatsappLastName), whatsappRetryKeyboard()))

	case flow.PromptRevealCancelled:
		if err := b.replace(ctx, in, plain(textRevealCancelled, nil)); err != nil {
			return err
		}
		return b.reply(ctx, in, plain(textShortMenu, mainMenuKeyboard()))

	case flow.PromptNotOnboarded:
		return b.reply(ctx, in, plain(textNotOnboarded, nil))

	case flow.PromptWrongAction:
		return b.reply(ctx, in, plain(textWrong, nil))
	}

	logger.Warn(ctx, component, "prompt.unhandled", slog.String("prompt", res.Prompt.String()))
	return nil
}

// notifyAdmins tells every administrator about a service request. A failed
// delivery to one admin does not stop the others.
func (b *Bot) notifyAdmins(ctx context.Context, u *domain.User, res flow.Result) {
	msg := md(serviceRequestNotice(u, res.Service, res.ContactPhone, b.now()), nil)
	for _, id := range b.settings.Admins {
		if _, err := b.out.Send(ctx, id, msg); err != nil {
			logger.Warn(ctx, component, "admin.notify_failed",
				slog.Int64("admin_id", id),
				slog.String("err", err.Error()),
			)
		}
	}
	logger.Info(ctx, component, "service.requested",
		slog.Int64("user_id", u.TelegramID),
		slog.String("service", string(res.Service)),
		slog.Int("admins", len(b.settings.Admins)),
	)
}

func (b *Bot) revealContent() reveal.Content {
	link := whatsappLinkKeyboard(b.settings.WhatsAppLink)
	return reveal.Content{
		Countdown: func(remaining time.Duration) transport.Message {
			msg := md(countdownText(remaining), link)
			msg.Protected = true
			return msg
		},
		Expired: md(textLinkExpiredEdit, nil),
		Notice:  plain(textLinkExpired, nil),
	}
}

// startReveal sends the protected link and leaves the countdown to a
// background job.
func (b *Bot) startReveal(ctx context.Context, in Inbound) error {
	content := b.revealContent()
	ref, err := b.reveal.Reveal(ctx, in.ChatID, content)
	if err != nil {
		return err
	}
	err = b.jobs.Go(ctx, "reveal", func(jctx context.Context) {
		b.reveal.Run(jctx, ref, content)
	})
	if err != nil {
		if delErr := b.out.Delete(ctx, ref); delErr != nil {
			err = errors.Join(err, delErr)
		}
		return err
	}
	return nil
}
