package protocol

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies inbound event payload variants.
type Kind string

const (
	KindText    Kind = "text"
	KindChoice  Kind = "choice"
	KindMedia   Kind = "media"
	KindCommand Kind = "command"
)

// MediaType distinguishes gallery uploads.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// Commands understood outside a form session.
const (
	CommandStart    = "start"
	CommandCreate   = "create"
	CommandCancel   = "cancel"
	CommandPublish  = "publish"
	CommandDelete   = "delete"
	CommandListings = "listings"
)

var ErrUnsupportedKind = errors.New("unsupported event kind")

// Inbound is one typed event from the transport, in arrival order per user.
type Inbound struct {
	Kind   Kind   `json:"kind"`
	UserID string `json:"user_id"`

	// Text carries free-text input. For choice events it may carry
	// supplementary context, e.g. the operator's platform handle.
	Text string `json:"text,omitempty"`

	// Choice is the selected token of a discrete menu.
	Choice string `json:"choice,omitempty"`

	// Media and MediaRef describe one uploaded gallery item.
	Media    MediaType `json:"media,omitempty"`
	MediaRef string    `json:"media_ref,omitempty"`

	// Command and Arg carry out-of-session actions, e.g. publish with a
	// duration argument.
	Command string `json:"command,omitempty"`
	Arg     string `json:"arg,omitempty"`
}

func (e Inbound) Validate() error {
	if strings.TrimSpace(e.UserID) == "" {
		return fmt.Errorf("event is missing user_id")
	}
	switch e.Kind {
	case KindText, KindChoice, KindCommand:
		return nil
	case KindMedia:
		if e.Media != MediaImage && e.Media != MediaVideo {
			return fmt.Errorf("unknown media type %q", e.Media)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedKind, e.Kind)
	}
}

// Choice is one selectable option presented to the operator.
type Choice struct {
	Label string `json:"label"`
	Data  string `json:"data"`
}

// Outbound is a rendered reply addressed to a single operator.
type Outbound struct {
	UserID  string   `json:"user_id"`
	Text    string   `json:"text"`
	Choices []Choice `json:"choices,omitempty"`
}
