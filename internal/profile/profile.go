package profile

// OfferingKind tags the service variants an operator can declare.
type OfferingKind string

const (
	OfferingInPerson OfferingKind = "in_person"
	OfferingRemote   OfferingKind = "remote"
	OfferingCustom   OfferingKind = "custom"
	OfferingOther    OfferingKind = "other"
)

// InPersonMode narrows an in-person offering.
type InPersonMode string

const (
	IncallOnly    InPersonMode = "incall"
	OutcallOnly   InPersonMode = "outcall"
	IncallOutcall InPersonMode = "both"
)

// Offering is one declared service variant. Kind selects which of the
// remaining fields are meaningful.
type Offering struct {
	Kind OfferingKind `json:"kind"`

	// in_person
	Mode     InPersonMode `json:"mode,omitempty"`
	Location string       `json:"location,omitempty"`

	// remote
	Platforms string `json:"platforms,omitempty"`

	// remote and custom
	Payment string `json:"payment,omitempty"`

	// custom
	Delivery string `json:"delivery,omitempty"`

	// other
	Description string `json:"description,omitempty"`
}

// Label is the short human name used in digests.
func (o Offering) Label() string {
	switch o.Kind {
	case OfferingInPerson:
		return "In-Person"
	case OfferingRemote:
		return "Remote Shows"
	case OfferingCustom:
		return "Custom Content"
	default:
		return "Other"
	}
}

func (m InPersonMode) Label() string {
	switch m {
	case IncallOnly:
		return "Incall Only"
	case OutcallOnly:
		return "Outcall Only"
	default:
		return "Incall/Outcall"
	}
}

// ContactMethod selects how the operator wants to be reached. Exactly one
// contact is stored per profile.
type ContactMethod string

const (
	ContactPhone    ContactMethod = "phone"
	ContactEmail    ContactMethod = "email"
	ContactPlatform ContactMethod = "platform"
)

type Contact struct {
	Method ContactMethod `json:"method"`
	Value  string        `json:"value"`
}

// Profile is one operator's committed listing content.
type Profile struct {
	UserID      string     `json:"user_id"`
	DisplayName string     `json:"display_name"`
	Offerings   []Offering `json:"offerings"`
	About       string     `json:"about"`
	Contact     Contact    `json:"contact"`
	SocialLinks string     `json:"social_links,omitempty"`
	Rates       string     `json:"rates,omitempty"`
	Disclaimer  string     `json:"disclaimer,omitempty"`
	Images      []string   `json:"images,omitempty"`
	Videos      []string   `json:"videos,omitempty"`
}

// Publishable reports whether the profile is complete enough to broadcast: a
// display name and at least one offering.
func (p Profile) Publishable() bool {
	return p.DisplayName != "" && len(p.Offerings) > 0
}

// Clone returns a copy with independent slices, so callers cannot mutate
// stored state through a returned profile.
func (p Profile) Clone() Profile {
	c := p
	if p.Offerings != nil {
		c.Offerings = append([]Offering(nil), p.Offerings...)
	}
	if p.Images != nil {
		c.Images = append([]string(nil), p.Images...)
	}
	if p.Videos != nil {
		c.Videos = append([]string(nil), p.Videos...)
	}
	return c
}
