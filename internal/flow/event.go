package flow

import "github.com/gogermany/gobot/internal/domain"

// EventKind classifies an inbound interaction.
type EventKind int

const (
	ContactShared EventKind = iota + 1
	MembershipCheckRequested
	TextEntered
	NameConfirmed
	NameReentryRequested
	CancelRequested
	ServiceSelected
	PhoneConfirmed
	DifferentPhoneRequested
	RevealRequested
	RevealConfirmed
	RevealReentryRequested
	RevealCancelled
)

var eventNames = map[EventKind]string{
	ContactShared:            "contact_shared",
	MembershipCheckRequested: "membership_check",
	TextEntered:              "text_entered",
	NameConfirmed:            "name_confirmed",
	NameReentryRequested:     "name_reentry",
	CancelRequested:          "cancel",
	ServiceSelected:          "service_selected",
	PhoneConfirmed:           "phone_confirmed",
	DifferentPhoneRequested:  "different_phone",
	RevealRequested:          "reveal_requested",
	RevealConfirmed:          "reveal_confirmed",
	RevealReentryRequested:   "reveal_reentry",
	RevealCancelled:          "reveal_cancelled",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event is a classified input for Machine.Advance.
type Event struct {
	Kind EventKind

	// Text is the raw message text for TextEntered.
	Text string
	// ContactOwnerID and Phone describe a shared contact.
	ContactOwnerID int64
	Phone          string
	// Service is the selection for ServiceSelected.
	Service domain.ServiceType
}

// On builds an event that carries no payload.
func On(kind EventKind) Event { return Event{Kind: kind} }

// Text builds a TextEntered event.
func Text(text string) Event { return Event{Kind: TextEntered, Text: text} }

// Contact builds a ContactShared event.
func Contact(ownerID int64, phone string) Event {
	return Event{Kind: ContactShared, ContactOwnerID: ownerID, Phone: phone}
}

// Service builds a ServiceSelected event.
func Service(s domain.ServiceType) Event { return Event{Kind: ServiceSelected, Service: s} }
