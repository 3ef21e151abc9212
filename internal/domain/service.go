package domain

// ServiceType identifies a service a user can request from the main menu.
type ServiceType string

const (
	ServiceWorkTravel   ServiceType = "work_travel"
	ServiceStudy        ServiceType = "study"
	ServiceAusbildung   ServiceType = "ausbildung"
	ServiceArbeitsvisum ServiceType = "arbeitsvisum"
)

// Services lists the offered services in menu order.
var Services = []ServiceType{
	ServiceWorkTravel,
	ServiceStudy,
	ServiceAusbildung,
	ServiceArbeitsvisum,
}

var serviceNames = map[ServiceType]string{
	ServiceWorkTravel:   "Work & Travel (Germaniya)",
	ServiceStudy:        "O'qish (Germaniya)",
	ServiceAusbildung:   "Ausbildung (Germaniya)",
	ServiceArbeitsvisum: "Arbeitsvisum (Germaniya)",
}

// Valid reports whether s is an offered service.
func (s ServiceType) Valid() bool {
	_, ok := serviceNames[s]
	return ok
}

// DisplayName returns the human-readable service name, falling back to the raw tag.
func (s ServiceType) DisplayName() string {
	if name, ok := serviceNames[s]; ok {
		return name
	}
	return string(s)
}
