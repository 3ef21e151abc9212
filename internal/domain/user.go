// Package domain holds the records and closed enumerations shared by the
// conversation flow, the stores and the bot handlers.
package domain

import (
	"strings"
	"time"
)

// OnboardingState tracks the fixed, forward-only onboarding sequence.
type OnboardingState string

const (
	OnboardingStarted                  OnboardingState = "started"
	OnboardingPhoneShared              OnboardingState = "phone_shared"
	OnboardingChannelsJoined           OnboardingState = "channels_joined"
	OnboardingAwaitingFirstName        OnboardingState = "awaiting_first_name"
	OnboardingAwaitingLastName         OnboardingState = "awaiting_last_name"
	OnboardingAwaitingNameConfirmation OnboardingState = "awaiting_name_confirmation"
	OnboardingCompleted                OnboardingState = "completed"
)

var onboardingOrder = map[OnboardingState]int{
	OnboardingStarted:                  0,
	OnboardingPhoneShared:              1,
	OnboardingChannelsJoined:           2,
	OnboardingAwaitingFirstName:        3,
	OnboardingAwaitingLastName:         4,
	OnboardingAwaitingNameConfirmation: 5,
	OnboardingCompleted:                6,
}

// Valid reports whether s is one of the known onboarding states.
func (s OnboardingState) Valid() bool {
	_, ok := onboardingOrder[s]
	return ok
}

// Step returns the position of s in the onboarding sequence, or -1 if unknown.
func (s OnboardingState) Step() int {
	if n, ok := onboardingOrder[s]; ok {
		return n
	}
	return -1
}

// ActionState tracks the optional sub-flow a completed user is in.
type ActionState string

const (
	ActionNone                         ActionState = "none"
	ActionAwaitingPhoneConfirmation    ActionState = "awaiting_phone_confirmation"
	ActionAwaitingSecondaryPhone       ActionState = "awaiting_secondary_phone"
	ActionAwaitingWhatsappFirstName    ActionState = "awaiting_whatsapp_first_name"
	ActionAwaitingWhatsappLastName     ActionState = "awaiting_whatsapp_last_name"
	ActionAwaitingWhatsappConfirmation ActionState = "awaiting_whatsapp_confirmation"
)

// Valid reports whether s is one of the known action states.
func (s ActionState) Valid() bool {
	switch s {
	case ActionNone, ActionAwaitingPhoneConfirmation, ActionAwaitingSecondaryPhone,
		ActionAwaitingWhatsappFirstName, ActionAwaitingWhatsappLastName, ActionAwaitingWhatsappConfirmation:
		return true
	}
	return false
}

// User is the persisted conversation record of one Telegram user.
type User struct {
	TelegramID int64  `db:"telegram_id"`
	Username   string `db:"username"`
	FirstName  string `db:"first_name"`
	LastName   string `db:"last_name"`

	PrimaryPhone   string `db:"primary_phone"`
	SecondaryPhone string `db:"secondary_phone"`

	PassportFirstName         string `db:"passport_first_name"`
	PassportLastName          string `db:"passport_last_name"`
	OriginalPassportFirstName string `db:"original_passport_first_name"`
	OriginalPassportLastName  string `db:"original_passport_last_name"`

	OnboardingState OnboardingState `db:"onboarding_state"`
	IsOnboarded     bool            `db:"is_onboarded"`
	ActionState     ActionState     `db:"action_state"`
	CurrentService  ServiceType     `db:"current_service"`

	WhatsappFirstName string `db:"whatsapp_first_name"`
	WhatsappLastName  string `db:"whatsapp_last_name"`

	RegisteredAt   time.Time  `db:"registered_at"`
	OnboardedAt    *time.Time `db:"onboarded_at"`
	LastActivityAt time.Time  `db:"last_activity_at"`
}

// NewUser returns a fresh record at the start of onboarding.
func NewUser(telegramID int64, now time.Time) *User {
	return &User{
		TelegramID:      telegramID,
		OnboardingState: OnboardingStarted,
		ActionState:     ActionNone,
		RegisteredAt:    now,
		LastActivityAt:  now,
	}
}

// ResetAction drops the active sub-flow and its transient fields.
func (u *User) ResetAction() {
	u.ActionState = ActionNone
	u.CurrentService = ""
	u.WhatsappFirstName = ""
	u.WhatsappLastName = ""
}

// PassportFullName joins the current passport names.
func (u *User) PassportFullName() string {
	return joinName(u.PassportFirstName, u.PassportLastName)
}

// TelegramName joins the profile names reported by Telegram.
func (u *User) TelegramName() string {
	return joinName(u.FirstName, u.LastName)
}

// WhatsappFullName joins the names captured by the reveal flow.
func (u *User) WhatsappFullName() string {
	return joinName(u.WhatsappFirstName, u.WhatsappLastName)
}

func joinName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

// Stats aggregates user counters for the admin panel.
type Stats struct {
	Total           int `db:"total"`
	Onboarded       int `db:"onboarded"`
	Pending         int `db:"pending"`
	RegisteredToday int `db:"registered_today"`
}
