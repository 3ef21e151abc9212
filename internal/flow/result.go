package flow

import (
	"github.com/gogermany/gobot/internal/domain"
	"github.com/gogermany/gobot/internal/membership"
)

// Outcome tells the caller how the machine treated an event.
type Outcome int

const (
	// Applied means the event was valid for the current state.
	Applied Outcome = iota + 1
	// Rejected means the event was valid but its input failed validation or a check.
	Rejected
	// Declined means the event does not belong to the current state. Nothing changed.
	Declined
	// Redirected means the event was out of place during onboarding and the
	// current step should be shown again. Nothing changed.
	Redirected
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Rejected:
		return "rejected"
	case Declined:
		return "declined"
	case Redirected:
		return "redirected"
	}
	return "unknown"
}

// Prompt names the message the caller should render next.
type Prompt int

const (
	PromptNone Prompt = iota
	PromptSharePhone
	PromptForeignContact
	PromptJoinChannels
	PromptNotSubscribed
	PromptMembershipUnverified
	PromptEnterFirstName
	PromptEnterLastName
	PromptInvalidName
	PromptConfirmName
	PromptOnboarded
	PromptMainMenu
	PromptCancelled
	PromptConfirmPhone
	PromptEnterSecondaryPhone
	PromptInvalidPhone
	PromptServiceRequested
	PromptWhatsappFirstName
	PromptWhatsappLastName
	PromptWhatsappConfirm
	PromptRevealGranted
	PromptRevealDenied
	PromptRevealCancelled
	PromptNotOnboarded
	PromptWrongAction
)

var promptNames = map[Prompt]string{
	PromptNone:                 "none",
	PromptSharePhone:           "share_phone",
	PromptForeignContact:       "foreign_contact",
	PromptJoinChannels:         "join_channels",
	PromptNotSubscribed:        "not_subscribed",
	PromptMembershipUnverified: "membership_unverified",
	PromptEnterFirstName:       "enter_first_name",
	PromptEnterLastName:        "enter_last_name",
	PromptInvalidName:          "invalid_name",
	PromptConfirmName:          "confirm_name",
	PromptOnboarded:            "onboarded",
	PromptMainMenu:             "main_menu",
	PromptCancelled:            "cancelled",
	PromptConfirmPhone:         "confirm_phone",
	PromptEnterSecondaryPhone:  "enter_secondary_phone",
	PromptInvalidPhone:         "invalid_phone",
	PromptServiceRequested:     "service_requested",
	PromptWhatsappFirstName:    "whatsapp_first_name",
	PromptWhatsappLastName:     "whatsapp_last_name",
	PromptWhatsappConfirm:      "whatsapp_confirm",
	PromptRevealGranted:        "reveal_granted",
	PromptRevealDenied:         "reveal_denied",
	PromptRevealCancelled:      "reveal_cancelled",
	PromptNotOnboarded:         "not_onboarded",
	PromptWrongAction:          "wrong_action",
}

func (p Prompt) String() string {
	if name, ok := promptNames[p]; ok {
		return name
	}
	return "unknown"
}

// StepPrompt returns the prompt that re-renders an onboarding step.
func StepPrompt(s domain.OnboardingState) Prompt {
	switch s {
	case domain.OnboardingPhoneShared:
		return PromptJoinChannels
	case domain.OnboardingChannelsJoined, domain.OnboardingAwaitingFirstName:
		return PromptEnterFirstName
	case domain.OnboardingAwaitingLastName:
		return PromptEnterLastName
	case domain.OnboardingAwaitingNameConfirmation:
		return PromptConfirmName
	case domain.OnboardingCompleted:
		return PromptMainMenu
	default:
		return PromptSharePhone
	}
}

// Result describes what Advance did and what the caller should do next.
type Result struct {
	Outcome Outcome
	Prompt  Prompt
	// Dirty is set when the user record changed and must be saved.
	Dirty bool
	// Reason carries the validation error behind a Rejected outcome.
	Reason error

	// Membership is filled by MembershipCheckRequested.
	Membership membership.Result

	// Service and ContactPhone describe a completed service request; the
	// caller notifies the administrators.
	Service      domain.ServiceType
	ContactPhone string
}

// Claimed reports whether the event was handled by the current state.
// Declined events fall through to the next router stage.
func (r Result) Claimed() bool {
	return r.Outcome != Declined
}

// ServiceRequested reports whether the caller should notify administrators.
func (r Result) ServiceRequested() bool {
	return r.Outcome == Applied && r.Prompt == PromptServiceRequested
}
