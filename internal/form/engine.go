package form

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/beacon-bot/beacon/internal/profile"
	"github.com/beacon-bot/beacon/internal/protocol"
)

var (
	ErrNoSession  = errors.New("no active form session")
	ErrValidation = errors.New("input not valid for this step")
	ErrCapacity   = errors.New("media limit reached")
)

// Choice tokens recognized by the step graph.
const (
	tokenOfferInPerson = "offer_in_person"
	tokenOfferRemote   = "offer_remote"
	tokenOfferCustom   = "offer_custom"
	tokenOfferOther    = "offer_other"
	tokenOffersDone    = "offers_done"

	tokenModeIncall  = "mode_incall"
	tokenModeOutcall = "mode_outcall"
	tokenModeBoth    = "mode_both"

	tokenContactPhone    = "contact_phone"
	tokenContactEmail    = "contact_email"
	tokenContactPlatform = "contact_platform"

	tokenConfirm = "profile_confirm"
	tokenCancel  = "profile_cancel"

	// Sentinel text tokens.
	tokenDone = "done"
	tokenSkip = "skip"
)

// Reply is the rendered next prompt for the operator. Committed and Cancelled
// mark the terminal transitions; the session is already dissolved when either
// is set.
type Reply struct {
	Text      string
	Choices   []protocol.Choice
	Committed bool
	Cancelled bool
}

// Engine walks the profile-builder step graph. Given the operator's current
// session and one typed input event it computes the next (step, prompt) pair,
// mutating the draft as a side effect. Rejected input leaves the step
// unchanged and re-prompts.
type Engine struct {
	sessions  *Store
	profiles  *profile.Repository
	preview   func(profile.Profile) string
	maxImages int
	maxVideos int
}

func NewEngine(sessions *Store, profiles *profile.Repository, preview func(profile.Profile) string, maxImages, maxVideos int) *Engine {
	if maxImages <= 0 {
		maxImages = 10
	}
	if maxVideos <= 0 {
		maxVideos = 4
	}
	if preview == nil {
		preview = func(profile.Profile) string { return "" }
	}
	return &Engine{
		sessions:  sessions,
		profiles:  profiles,
		preview:   preview,
		maxImages: maxImages,
		maxVideos: maxVideos,
	}
}

// Active reports whether the operator has an in-progress draft.
func (e *Engine) Active(userID string) bool {
	_, ok := e.sessions.Get(userID)
	return ok
}

// Begin starts (or restarts) the form, overwriting any prior draft.
func (e *Engine) Begin(userID string) Reply {
	e.sessions.Begin(userID)
	return Reply{Text: "Let's build your profile. Enter your name or subject line:"}
}

// Cancel dissolves the operator's session.
func (e *Engine) Cancel(userID string) (Reply, error) {
	if _, ok := e.sessions.Get(userID); !ok {
		return Reply{}, ErrNoSession
	}
	e.sessions.End(userID)
	return Reply{Text: "Profile creation cancelled.", Cancelled: true}, nil
}

// Handle applies one inbound event to the operator's session. The returned
// error is nil for accepted input; ErrValidation or ErrCapacity mark rejected
// input, in which case the Reply still carries the re-prompt and the session
// state is unchanged.
func (e *Engine) Handle(ctx context.Context, ev protocol.Inbound) (Reply, error) {
	sess, ok := e.sessions.Get(ev.UserID)
	if !ok {
		return Reply{}, ErrNoSession
	}

	switch sess.Step {
	case StepName:
		return e.textStep(sess, ev, func(text string) Reply {
			sess.Draft.DisplayName = text
			sess.Step = StepOfferingChoice
			return offeringMenu("Great! What services do you offer? Select all that apply:")
		})

	case StepOfferingChoice:
		return e.handleOfferingChoice(sess, ev)

	case StepInPersonMode:
		return e.handleInPersonMode(sess, ev)

	case StepInPersonLocation:
		return e.textStep(sess, ev, func(text string) Reply {
			sess.pending.Location = text
			sess.Draft.Offerings = append(sess.Draft.Offerings, sess.pending)
			sess.pending = profile.Offering{}
			sess.Step = StepOfferingChoice
			return offeringMenu("Added. Select another service or continue:")
		})

	case StepRemotePlatforms:
		return e.textStep(sess, ev, func(text string) Reply {
			sess.pending.Platforms = text
			sess.Step = StepRemotePayment
			return Reply{Text: "What payment methods do you accept?"}
		})

	case StepRemotePayment:
		return e.textStep(sess, ev, func(text string) Reply {
			sess.pending.Payment = text
			sess.Draft.Offerings = append(sess.Draft.Offerings, sess.pending)
			sess.pending = profile.Offering{}
			sess.Step = StepOfferingChoice
			return offeringMenu("Added. Select another service or continue:")
		})

	case StepCustomPayment:
		return e.textStep(sess, ev, func(text string) Reply {
			sess.pending.Payment = text
			sess.Step = StepCustomDelivery
			return Reply{Text: "How will content be delivered?"}
		})

	case StepCustomDelivery:
		return e.textStep(sess, ev, func(text string) Reply {
			sess.pending.Delivery = text
			sess.Draft.Offerings = append(sess.Draft.Offerings, sess.pending)
			sess.pending = profile.Offering{}
			sess.Step = StepOfferingChoice
			return offeringMenu("Added. Select another service or continue:")
		})

	case StepOtherDescription:
		return e.textStep(sess, ev, func(text string) Reply {
			sess.Draft.Offerings = append(sess.Draft.Offerings, profile.Offering{
				Kind:        profile.OfferingOther,
				Description: text,
			})
			sess.Step = StepOfferingChoice
			return offeringMenu("Added. Select another service or continue:")
		})

	case StepAbout:
		return e.textStep(sess, ev, func(text string) Reply {
			sess.Draft.About = text
			sess.Step = StepContactMethod
			return contactMenu()
		})

	case StepContactMethod:
		return e.handleContactMethod(sess, ev)

	case StepPhone:
		return e.textStep(sess, ev, func(text string) Reply {
			sess.Draft.Contact = profile.Contact{Method: profile.ContactPhone, Value: text}
			sess.Step = StepSocialLinks
			return socialLinksPrompt()
		})

	case StepEmail:
		return e.textStep(sess, ev, func(text string) Reply {
			sess.Draft.Contact = profile.Contact{Method: profile.ContactEmail, Value: text}
			sess.Step = StepSocialLinks
			return socialLinksPrompt()
		})

	case StepSocialLinks:
		return e.optionalTextStep(sess, ev, func(text string) Reply {
			sess.Draft.SocialLinks = text
			sess.Step = StepRates
			return Reply{Text: "Enter your rates, or 'skip':"}
		})

	case StepRates:
		return e.optionalTextStep(sess, ev, func(text string) Reply {
			sess.Draft.Rates = text
			sess.Step = StepDisclaimer
			return Reply{Text: "Add any disclaimers or notices, or 'skip':"}
		})

	case StepDisclaimer:
		return e.optionalTextStep(sess, ev, func(text string) Reply {
			sess.Draft.Disclaimer = text
			sess.Step = StepImages
			return Reply{Text: fmt.Sprintf("Upload up to %d images, one at a time. Send 'done' when finished.", e.maxImages)}
		})

	case StepImages:
		return e.mediaStep(sess, ev, protocol.MediaImage, &sess.Draft.Images, e.maxImages, func() Reply {
			sess.Step = StepVideos
			return Reply{Text: fmt.Sprintf("Upload up to %d videos, one at a time. Send 'done' when finished.", e.maxVideos)}
		})

	case StepVideos:
		return e.mediaStep(sess, ev, protocol.MediaVideo, &sess.Draft.Videos, e.maxVideos, func() Reply {
			sess.Step = StepPreview
			return Reply{
				Text: e.preview(sess.Draft),
				Choices: []protocol.Choice{
					{Label: "Confirm", Data: tokenConfirm},
					{Label: "Cancel", Data: tokenCancel},
				},
			}
		})

	case StepPreview:
		return e.handlePreview(ctx, sess, ev)

	default:
		// Unknown step means a corrupted session; start over is the only exit.
		return Reply{Text: "Something went wrong with your draft. Send 'create' to start over."}, ErrValidation
	}
}

// textStep accepts exactly one non-empty free-text input.
func (e *Engine) textStep(sess *Session, ev protocol.Inbound, accept func(text string) Reply) (Reply, error) {
	text := strings.TrimSpace(ev.Text)
	if ev.Kind != protocol.KindText || text == "" {
		return reprompt(sess), ErrValidation
	}
	return accept(text), nil
}

// optionalTextStep additionally treats the skip sentinel as "leave empty".
func (e *Engine) optionalTextStep(sess *Session, ev protocol.Inbound, accept func(text string) Reply) (Reply, error) {
	text := strings.TrimSpace(ev.Text)
	if ev.Kind != protocol.KindText || text == "" {
		return reprompt(sess), ErrValidation
	}
	if strings.EqualFold(text, tokenSkip) {
		text = ""
	}
	return accept(text), nil
}

func (e *Engine) handleOfferingChoice(sess *Session, ev protocol.Inbound) (Reply, error) {
	if ev.Kind != protocol.KindChoice {
		return reprompt(sess), ErrValidation
	}
	switch ev.Choice {
	case tokenOfferInPerson:
		sess.pending = profile.Offering{Kind: profile.OfferingInPerson}
		sess.Step = StepInPersonMode
		return Reply{
			Text: "For in-person services, which do you offer?",
			Choices: []protocol.Choice{
				{Label: "Incall Only", Data: tokenModeIncall},
				{Label: "Outcall Only", Data: tokenModeOutcall},
				{Label: "Incall/Outcall", Data: tokenModeBoth},
			},
		}, nil
	case tokenOfferRemote:
		sess.pending = profile.Offering{Kind: profile.OfferingRemote}
		sess.Step = StepRemotePlatforms
		return Reply{Text: "Which platforms do you use for remote shows?"}, nil
	case tokenOfferCustom:
		sess.pending = profile.Offering{Kind: profile.OfferingCustom}
		sess.Step = StepCustomPayment
		return Reply{Text: "What payment methods do you accept for custom content?"}, nil
	case tokenOfferOther:
		sess.Step = StepOtherDescription
		return Reply{Text: "Describe your service:"}, nil
	case tokenOffersDone:
		if len(sess.Draft.Offerings) == 0 {
			return offeringMenu("Please select at least one service before continuing:"), ErrValidation
		}
		sess.Step = StepAbout
		return Reply{Text: "Tell us about yourself:"}, nil
	default:
		return reprompt(sess), ErrValidation
	}
}

func (e *Engine) handleInPersonMode(sess *Session, ev protocol.Inbound) (Reply, error) {
	if ev.Kind != protocol.KindChoice {
		return reprompt(sess), ErrValidation
	}
	var mode profile.InPersonMode
	switch ev.Choice {
	case tokenModeIncall:
		mode = profile.IncallOnly
	case tokenModeOutcall:
		mode = profile.OutcallOnly
	case tokenModeBoth:
		mode = profile.IncallOutcall
	default:
		return reprompt(sess), ErrValidation
	}
	sess.pending.Mode = mode
	sess.Step = StepInPersonLocation
	return Reply{Text: "What's your general location?"}, nil
}

func (e *Engine) handleContactMethod(sess *Session, ev protocol.Inbound) (Reply, error) {
	if ev.Kind != protocol.KindChoice {
		return reprompt(sess), ErrValidation
	}
	switch ev.Choice {
	case tokenContactPhone:
		sess.Step = StepPhone
		return Reply{Text: "Please enter your phone number:"}, nil
	case tokenContactEmail:
		sess.Step = StepEmail
		return Reply{Text: "Please enter your email address:"}, nil
	case tokenContactPlatform:
		// The handle rides along on the choice event; fall back to the
		// operator id when the transport does not supply one.
		handle := strings.TrimSpace(ev.Text)
		if handle == "" {
			handle = ev.UserID
		}
		sess.Draft.Contact = profile.Contact{Method: profile.ContactPlatform, Value: handle}
		sess.Step = StepSocialLinks
		r := socialLinksPrompt()
		r.Text = fmt.Sprintf("Your handle is @%s.\n%s", handle, r.Text)
		return r, nil
	default:
		return reprompt(sess), ErrValidation
	}
}

func (e *Engine) mediaStep(sess *Session, ev protocol.Inbound, want protocol.MediaType, items *[]string, limit int, advance func() Reply) (Reply, error) {
	if ev.Kind == protocol.KindText && strings.EqualFold(strings.TrimSpace(ev.Text), tokenDone) {
		return advance(), nil
	}
	if ev.Kind != protocol.KindMedia || ev.Media != want || strings.TrimSpace(ev.MediaRef) == "" {
		return Reply{Text: fmt.Sprintf("Please send a %s or type 'done' to continue.", want)}, ErrValidation
	}
	if len(*items) >= limit {
		return Reply{Text: fmt.Sprintf("You've reached the maximum of %d %ss. Send 'done' to continue.", limit, want)}, ErrCapacity
	}
	*items = append(*items, ev.MediaRef)
	return Reply{Text: fmt.Sprintf("Saved %s %d/%d. Send another or 'done' to continue.", want, len(*items), limit)}, nil
}

func (e *Engine) handlePreview(ctx context.Context, sess *Session, ev protocol.Inbound) (Reply, error) {
	if ev.Kind != protocol.KindChoice {
		return reprompt(sess), ErrValidation
	}
	switch ev.Choice {
	case tokenConfirm:
		e.profiles.Save(ctx, sess.Draft)
		e.sessions.End(sess.UserID)
		return Reply{Text: "Profile saved. Send 'publish' to go live.", Committed: true}, nil
	case tokenCancel:
		e.sessions.End(sess.UserID)
		return Reply{Text: "Profile creation cancelled.", Cancelled: true}, nil
	default:
		return reprompt(sess), ErrValidation
	}
}

// reprompt re-renders the current step's prompt without mutating state.
func reprompt(sess *Session) Reply {
	switch sess.Step {
	case StepName:
		return Reply{Text: "Please enter your name or subject line:"}
	case StepOfferingChoice:
		return offeringMenu("Select a service, or 'Done Selecting' to continue:")
	case StepInPersonMode:
		return Reply{
			Text: "Please pick one of the in-person options:",
			Choices: []protocol.Choice{
				{Label: "Incall Only", Data: tokenModeIncall},
				{Label: "Outcall Only", Data: tokenModeOutcall},
				{Label: "Incall/Outcall", Data: tokenModeBoth},
			},
		}
	case StepContactMethod:
		return contactMenu()
	case StepPreview:
		return Reply{
			Text: "Please confirm or cancel your profile.",
			Choices: []protocol.Choice{
				{Label: "Confirm", Data: tokenConfirm},
				{Label: "Cancel", Data: tokenCancel},
			},
		}
	default:
		return Reply{Text: "Please enter a text reply:"}
	}
}

func offeringMenu(text string) Reply {
	return Reply{
		Text: text,
		Choices: []protocol.Choice{
			{Label: "In-Person", Data: tokenOfferInPerson},
			{Label: "Remote Shows", Data: tokenOfferRemote},
			{Label: "Custom Content", Data: tokenOfferCustom},
			{Label: "Other", Data: tokenOfferOther},
			{Label: "Done Selecting", Data: tokenOffersDone},
		},
	}
}

func contactMenu() Reply {
	return Reply{
		Text: "How should people contact you?",
		Choices: []protocol.Choice{
			{Label: "Text/Call", Data: tokenContactPhone},
			{Label: "Email", Data: tokenContactEmail},
			{Label: "Platform DM", Data: tokenContactPlatform},
		},
	}
}

func socialLinksPrompt() Reply {
	return Reply{Text: "Enter links to your social media or content platforms, or 'skip':"}
}
