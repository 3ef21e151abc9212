// Package flow is the conversation state machine. It owns every transition
// of a user's onboarding and action states and never talks to Telegram or
// the store directly: callers persist the record when Result.Dirty is set
// and render Result.Prompt.
//
// Events for one user must be serialized by the caller. The machine keeps
// no per-user state of its own.
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gogermany/gobot/core/logger"
	"github.com/gogermany/gobot/internal/domain"
	"github.com/gogermany/gobot/internal/membership"
	"github.com/gogermany/gobot/internal/validation"
)

const component = "svc.flow"

// MembershipChecker verifies the required group subscriptions.
type MembershipChecker interface {
	Check(ctx context.Context, userID int64) membership.Result
}

// AllowlistLookup answers whether a normalized full name may see the reveal.
type AllowlistLookup interface {
	IsAllowed(ctx context.Context, fullName string) (bool, error)
}

// Option customizes a Machine.
type Option func(*Machine)

// WithClock overrides the time source used for completion stamps.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

// Machine applies events to user records.
type Machine struct {
	members   MembershipChecker
	allowlist AllowlistLookup
	now       func() time.Time
}

// NewMachine wires the machine to its collaborators.
func NewMachine(members MembershipChecker, allowlist AllowlistLookup, opts ...Option) *Machine {
	m := &Machine{
		members:   members,
		allowlist: allowlist,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Advance applies ev to u. The returned error is reserved for collaborator
// failures; validation and precondition problems are reported in Result.
func (m *Machine) Advance(ctx context.Context, u *domain.User, ev Event) (Result, error) {
	if u == nil {
		return Result{}, fmt.Errorf("flow: advance: nil user")
	}
	fromOnboarding, fromAction := u.OnboardingState, u.ActionState

	res, err := m.dispatch(ctx, u, ev)
	if err != nil {
		logger.Error(ctx, component, "flow.failed",
			slog.Int64("user_id", u.TelegramID),
			slog.String("cause", ev.Kind.String()),
			slog.String("err", err.Error()),
		)
		return res, err
	}

	attrs := []slog.Attr{
		slog.Int64("user_id", u.TelegramID),
		slog.String("cause", ev.Kind.String()),
		slog.String("outcome", res.Outcome.String()),
		slog.String("prompt", res.Prompt.String()),
	}
	if fromOnboarding != u.OnboardingState {
		attrs = append(attrs,
			slog.String("from_state", string(fromOnboarding)),
			slog.String("to_state", string(u.OnboardingState)),
		)
	}
	if fromAction != u.ActionState {
		attrs = append(attrs, slog.String("action_state", string(u.ActionState)))
	}
	logger.Debug(ctx, component, "flow.transition", attrs...)
	return res, nil
}

func (m *Machine) dispatch(ctx context.Context, u *domain.User, ev Event) (Result, error) {
	switch ev.Kind {
	case ContactShared:
		return m.contactShared(u, ev), nil
	case MembershipCheckRequested:
		return m.checkMembership(ctx, u), nil
	case TextEntered:
		return m.textEntered(u, ev.Text), nil
	case NameConfirmed:
		return m.confirmName(u), nil
	case NameReentryRequested:
		return m.reenterName(u), nil
	case CancelRequested:
		return m.cancel(u), nil
	case ServiceSelected:
		return m.selectService(u, ev.Service), nil
	case PhoneConfirmed:
		return m.confirmPhone(u), nil
	case DifferentPhoneRequested:
		return m.differentPhone(u), nil
	case RevealRequested:
		return m.startReveal(u, false), nil
	case RevealReentryRequested:
		return m.startReveal(u, true), nil
	case RevealConfirmed:
		return m.confirmReveal(ctx, u)
	case RevealCancelled:
		return m.cancelReveal(u), nil
	}
	return declined(PromptNone), nil
}

func applied(p Prompt) Result { return Result{Outcome: Applied, Prompt: p, Dirty: true} }

func declined(p Prompt) Result { return Result{Outcome: Declined, Prompt: p} }

func redirected(u *domain.User) Result {
	return Result{Outcome: Redirected, Prompt: StepPrompt(u.OnboardingState)}
}

func rejected(p Prompt, reason error) Result {
	return Result{Outcome: Rejected, Prompt: p, Reason: reason}
}

// outOfPlace handles an onboarding event arriving in the wrong step.
func outOfPlace(u *domain.User) Result {
	if u.IsOnboarded {
		return declined(PromptNone)
	}
	return redirected(u)
}

func (m *Machine) contactShared(u *domain.User, ev Event) Result {
	if ev.ContactOwnerID != u.TelegramID {
		return rejected(PromptForeignContact, nil)
	}
	switch u.OnboardingState {
	case domain.OnboardingStarted, domain.OnboardingPhoneShared:
	default:
		return outOfPlace(u)
	}
	phone, err := validation.FormatPhone(ev.Phone)
	if err != nil {
		return rejected(PromptSharePhone, err)
	}
	u.PrimaryPhone = phone
	u.OnboardingState = domain.OnboardingPhoneShared
	return applied(PromptJoinChannels)
}

func (m *Machine) checkMembership(ctx context.Context, u *domain.User) Result {
	if u.PrimaryPhone == "" {
		return Result{Outcome: Redirected, Prompt: PromptSharePhone}
	}
	switch u.OnboardingState {
	case domain.OnboardingPhoneShared, domain.OnboardingChannelsJoined:
	default:
		return outOfPlace(u)
	}
	check := m.members.Check(ctx, u.TelegramID)
	if !check.Satisfied() {
		p := PromptNotSubscribed
		if len(check.Missing) == 0 {
			p = PromptMembershipUnverified
		}
		res := rejected(p, nil)
		res.Membership = check
		return res
	}
	// channels_joined is never persisted: the same transition moves on to
	// the first name step.
	u.OnboardingState = domain.OnboardingAwaitingFirstName
	res := applied(PromptEnterFirstName)
	res.Membership = check
	return res
}

func (m *Machine) textEntered(u *domain.User, text string) Result {
	if !u.IsOnboarded {
		return m.onboardingText(u, text)
	}
	switch u.ActionState {
	case domain.ActionAwaitingSecondaryPhone:
		phone, err := validation.FormatPhone(text)
		if err != nil {
			return rejected(PromptInvalidPhone, err)
		}
		u.SecondaryPhone = phone
		res := applied(PromptServiceRequested)
		res.Service = u.CurrentService
		res.ContactPhone = phone
		u.ResetAction()
		return res
	case domain.ActionAwaitingWhatsappFirstName:
		name, err := validation.ValidateName(text)
		if err != nil {
			return rejected(PromptInvalidName, err)
		}
		u.WhatsappFirstName = name
		u.ActionState = domain.ActionAwaitingWhatsappLastName
		return applied(PromptWhatsappLastName)
	case domain.ActionAwaitingWhatsappLastName:
		name, err := validation.ValidateName(text)
		if err != nil {
			return rejected(PromptInvalidName, err)
		}
		u.WhatsappLastName = name
		u.ActionState = domain.ActionAwaitingWhatsappConfirmation
		return applied(PromptWhatsappConfirm)
	}
	return declined(PromptNone)
}

func (m *Machine) onboardingText(u *domain.User, text string) Result {
	switch u.OnboardingState {
	case domain.OnboardingAwaitingFirstName:
		name, err := validation.ValidateName(text)
		if err != nil {
			return rejected(PromptInvalidName, err)
		}
		u.PassportFirstName = name
		u.OnboardingState = domain.OnboardingAwaitingLastName
		return applied(PromptEnterLastName)
	case domain.OnboardingAwaitingLastName:
		name, err := validation.ValidateName(text)
		if err != nil {
			return rejected(PromptInvalidName, err)
		}
		u.PassportLastName = name
		u.OnboardingState = domain.OnboardingAwaitingNameConfirmation
		return applied(PromptConfirmName)
	}
	return redirected(u)
}

func (m *Machine) confirmName(u *domain.User) Result {
	if u.OnboardingState != domain.OnboardingAwaitingNameConfirmation {
		return outOfPlace(u)
	}
	if u.OriginalPassportFirstName == "" {
		u.OriginalPassportFirstName = u.PassportFirstName
	}
	if u.OriginalPassportLastName == "" {
		u.OriginalPassportLastName = u.PassportLastName
	}
	now := m.now()
	u.OnboardingState = domain.OnboardingCompleted
	u.IsOnboarded = true
	u.OnboardedAt = &now
	return applied(PromptOnboarded)
}

// reenterName rewinds to the first-name step. From a completed record the
// user leaves the onboarded state until the names are confirmed again; the
// original names are kept.
func (m *Machine) reenterName(u *domain.User) Result {
	switch u.OnboardingState {
	case domain.OnboardingAwaitingLastName, domain.OnboardingAwaitingNameConfirmation, domain.OnboardingCompleted:
	default:
		return redirected(u)
	}
	u.PassportFirstName = ""
	u.PassportLastName = ""
	u.OnboardingState = domain.OnboardingAwaitingFirstName
	u.IsOnboarded = false
	u.ResetAction()
	return applied(PromptEnterFirstName)
}

func (m *Machine) cancel(u *domain.User) Result {
	u.ResetAction()
	if !u.IsOnboarded {
		return applied(StepPrompt(u.OnboardingState))
	}
	return applied(PromptCancelled)
}

func (m *Machine) selectService(u *domain.User, s domain.ServiceType) Result {
	if !u.IsOnboarded {
		return redirected(u)
	}
	if !s.Valid() {
		return declined(PromptNone)
	}
	u.ResetAction()
	u.CurrentService = s
	u.ActionState = domain.ActionAwaitingPhoneConfirmation
	res := applied(PromptConfirmPhone)
	res.Service = s
	res.ContactPhone = u.PrimaryPhone
	return res
}

func (m *Machine) confirmPhone(u *domain.User) Result {
	if u.ActionState != domain.ActionAwaitingPhoneConfirmation {
		return declined(PromptWrongAction)
	}
	res := applied(PromptServiceRequested)
	res.Service = u.CurrentService
	res.ContactPhone = u.PrimaryPhone
	u.ResetAction()
	return res
}

func (m *Machine) differentPhone(u *domain.User) Result {
	if u.ActionState != domain.ActionAwaitingPhoneConfirmation {
		return declined(PromptWrongAction)
	}
	u.ActionState = domain.ActionAwaitingSecondaryPhone
	return applied(PromptEnterSecondaryPhone)
}

func revealState(s domain.ActionState) bool {
	switch s {
	case domain.ActionNone, domain.ActionAwaitingWhatsappFirstName,
		domain.ActionAwaitingWhatsappLastName, domain.ActionAwaitingWhatsappConfirmation:
		return true
	}
	return false
}

// startReveal enters the name capture of the gated reveal. A fresh request
// from the menu may interrupt any sub-flow; a re-entry button only applies
// inside the reveal flow.
func (m *Machine) startReveal(u *domain.User, reentry bool) Result {
	if !u.IsOnboarded {
		return declined(PromptNotOnboarded)
	}
	if reentry && !revealState(u.ActionState) {
		return declined(PromptWrongAction)
	}
	u.ResetAction()
	u.ActionState = domain.ActionAwaitingWhatsappFirstName
	return applied(PromptWhatsappFirstName)
}

func (m *Machine) confirmReveal(ctx context.Context, u *domain.User) (Result, error) {
	if u.ActionState != domain.ActionAwaitingWhatsappConfirmation {
		return declined(PromptWrongAction), nil
	}
	fullName := validation.JoinFullName(u.WhatsappFirstName, u.WhatsappLastName)
	ok, err := m.allowlist.IsAllowed(ctx, fullName)
	if err != nil {
		return Result{}, fmt.Errorf("flow: allowlist lookup: %w", err)
	}
	u.ActionState = domain.ActionNone
	if !ok {
		res := rejected(PromptRevealDenied, nil)
		res.Dirty = true
		return res, nil
	}
	return applied(PromptRevealGranted), nil
}

func (m *Machine) cancelReveal(u *domain.User) Result {
	if !revealState(u.ActionState) {
		return declined(PromptWrongAction)
	}
	u.ResetAction()
	return applied(PromptRevealCancelled)
}
