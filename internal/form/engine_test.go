package form

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/beacon-bot/beacon/internal/profile"
	"github.com/beacon-bot/beacon/internal/protocol"
)

func newTestEngine(t *testing.T) (*Engine, *profile.Repository) {
	t.Helper()
	profiles := profile.NewRepository(nil)
	preview := func(p profile.Profile) string { return "preview: " + p.DisplayName }
	return NewEngine(NewStore(), profiles, preview, 10, 4), profiles
}

func text(userID, s string) protocol.Inbound {
	return protocol.Inbound{Kind: protocol.KindText, UserID: userID, Text: s}
}

func choice(userID, token string) protocol.Inbound {
	return protocol.Inbound{Kind: protocol.KindChoice, UserID: userID, Choice: token}
}

func media(userID string, mt protocol.MediaType, ref string) protocol.Inbound {
	return protocol.Inbound{Kind: protocol.KindMedia, UserID: userID, Media: mt, MediaRef: ref}
}

func mustHandle(t *testing.T, e *Engine, ev protocol.Inbound) Reply {
	t.Helper()
	r, err := e.Handle(context.Background(), ev)
	if err != nil {
		t.Fatalf("Handle(%+v) error = %v", ev, err)
	}
	return r
}

// walkToPreview drives a minimal complete form: one in-person offering, a
// platform contact, everything optional skipped, no media.
func walkToPreview(t *testing.T, e *Engine, userID string) {
	t.Helper()
	e.Begin(userID)
	mustHandle(t, e, text(userID, "Alex"))
	mustHandle(t, e, choice(userID, tokenOfferInPerson))
	mustHandle(t, e, choice(userID, tokenModeBoth))
	mustHandle(t, e, text(userID, "Uptown"))
	mustHandle(t, e, choice(userID, tokenOffersDone))
	mustHandle(t, e, text(userID, "Friendly"))
	mustHandle(t, e, choice(userID, tokenContactPlatform))
	mustHandle(t, e, text(userID, "skip")) // social links
	mustHandle(t, e, text(userID, "skip")) // rates
	mustHandle(t, e, text(userID, "skip")) // disclaimer
	mustHandle(t, e, text(userID, "done")) // no images
	mustHandle(t, e, text(userID, "done")) // no videos
}

func TestEndToEndCommit(t *testing.T) {
	e, profiles := newTestEngine(t)
	walkToPreview(t, e, "op-1")

	r := mustHandle(t, e, choice("op-1", tokenConfirm))
	if !r.Committed {
		t.Fatalf("confirm should commit, got %+v", r)
	}
	if e.Active("op-1") {
		t.Fatalf("session should dissolve on commit")
	}

	p, err := profiles.Get("op-1")
	if err != nil {
		t.Fatalf("committed profile missing: %v", err)
	}
	if p.DisplayName != "Alex" || p.About != "Friendly" {
		t.Fatalf("unexpected profile: %+v", p)
	}
	if len(p.Offerings) != 1 {
		t.Fatalf("offerings = %d, want 1", len(p.Offerings))
	}
	o := p.Offerings[0]
	if o.Kind != profile.OfferingInPerson || o.Mode != profile.IncallOutcall || o.Location != "Uptown" {
		t.Fatalf("unexpected offering: %+v", o)
	}
	if p.Contact.Method != profile.ContactPlatform {
		t.Fatalf("contact method = %q", p.Contact.Method)
	}
	if p.SocialLinks != "" || p.Rates != "" || p.Disclaimer != "" {
		t.Fatalf("skipped fields should be empty: %+v", p)
	}
}

func TestOfferingLoopCountsSelections(t *testing.T) {
	e, profiles := newTestEngine(t)
	e.Begin("op-1")
	mustHandle(t, e, text("op-1", "Alex"))

	// Three offerings through three different branches.
	mustHandle(t, e, choice("op-1", tokenOfferRemote))
	mustHandle(t, e, text("op-1", "Facetime"))
	mustHandle(t, e, text("op-1", "PayPal"))

	mustHandle(t, e, choice("op-1", tokenOfferCustom))
	mustHandle(t, e, text("op-1", "CashApp"))
	mustHandle(t, e, text("op-1", "Email"))

	mustHandle(t, e, choice("op-1", tokenOfferOther))
	mustHandle(t, e, text("op-1", "Something else"))

	mustHandle(t, e, choice("op-1", tokenOffersDone))
	mustHandle(t, e, text("op-1", "About me"))
	mustHandle(t, e, choice("op-1", tokenContactEmail))
	mustHandle(t, e, text("op-1", "a@example.com"))
	mustHandle(t, e, text("op-1", "skip"))
	mustHandle(t, e, text("op-1", "skip"))
	mustHandle(t, e, text("op-1", "skip"))
	mustHandle(t, e, text("op-1", "done"))
	mustHandle(t, e, text("op-1", "done"))
	mustHandle(t, e, choice("op-1", tokenConfirm))

	p, err := profiles.Get("op-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(p.Offerings) != 3 {
		t.Fatalf("offerings = %d, want 3", len(p.Offerings))
	}
	kinds := []profile.OfferingKind{p.Offerings[0].Kind, p.Offerings[1].Kind, p.Offerings[2].Kind}
	want := []profile.OfferingKind{profile.OfferingRemote, profile.OfferingCustom, profile.OfferingOther}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("offering order = %v, want %v", kinds, want)
		}
	}
}

func TestDoneRejectedWithoutSelections(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Begin("op-1")
	mustHandle(t, e, text("op-1", "Alex"))

	r, err := e.Handle(context.Background(), choice("op-1", tokenOffersDone))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("done with no offerings: error = %v, want ErrValidation", err)
	}
	if !strings.Contains(r.Text, "at least one") {
		t.Fatalf("re-prompt should explain the guard, got %q", r.Text)
	}

	sess, _ := e.sessions.Get("op-1")
	if sess.Step != StepOfferingChoice {
		t.Fatalf("step = %q, want unchanged %q", sess.Step, StepOfferingChoice)
	}
}

func TestUnknownChoiceTokenReprompts(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Begin("op-1")
	mustHandle(t, e, text("op-1", "Alex"))

	if _, err := e.Handle(context.Background(), choice("op-1", "offer_mystery")); !errors.Is(err, ErrValidation) {
		t.Fatalf("unknown token: error = %v, want ErrValidation", err)
	}
	sess, _ := e.sessions.Get("op-1")
	if sess.Step != StepOfferingChoice {
		t.Fatalf("unknown token must not change the step")
	}
}

func TestTextRejectedInChoiceStep(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Begin("op-1")
	mustHandle(t, e, text("op-1", "Alex"))

	if _, err := e.Handle(context.Background(), text("op-1", "in person please")); !errors.Is(err, ErrValidation) {
		t.Fatalf("free text in a choice step: error = %v, want ErrValidation", err)
	}
}

func TestChoiceRejectedInTextStep(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Begin("op-1")
	if _, err := e.Handle(context.Background(), choice("op-1", "anything")); !errors.Is(err, ErrValidation) {
		t.Fatalf("choice in a text step: error = %v, want ErrValidation", err)
	}
	sess, _ := e.sessions.Get("op-1")
	if sess.Step != StepName {
		t.Fatalf("step = %q, want unchanged %q", sess.Step, StepName)
	}
}

func TestImageCapacity(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Begin("op-1")
	mustHandle(t, e, text("op-1", "Alex"))
	mustHandle(t, e, choice("op-1", tokenOfferOther))
	mustHandle(t, e, text("op-1", "service"))
	mustHandle(t, e, choice("op-1", tokenOffersDone))
	mustHandle(t, e, text("op-1", "about"))
	mustHandle(t, e, choice("op-1", tokenContactPhone))
	mustHandle(t, e, text("op-1", "555-0100"))
	mustHandle(t, e, text("op-1", "skip"))
	mustHandle(t, e, text("op-1", "skip"))
	mustHandle(t, e, text("op-1", "skip"))

	for i := 0; i < 10; i++ {
		mustHandle(t, e, media("op-1", protocol.MediaImage, fmt.Sprintf("img-%d", i)))
	}
	r, err := e.Handle(context.Background(), media("op-1", protocol.MediaImage, "img-overflow"))
	if !errors.Is(err, ErrCapacity) {
		t.Fatalf("11th image: error = %v, want ErrCapacity", err)
	}
	if !strings.Contains(r.Text, "maximum") {
		t.Fatalf("capacity notice missing, got %q", r.Text)
	}

	sess, _ := e.sessions.Get("op-1")
	if len(sess.Draft.Images) != 10 {
		t.Fatalf("stored images = %d, want 10", len(sess.Draft.Images))
	}
	if sess.Step != StepImages {
		t.Fatalf("capacity rejection must not advance the step")
	}
}

func TestWrongMediaTypeRejected(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Begin("op-1")
	mustHandle(t, e, text("op-1", "Alex"))
	mustHandle(t, e, choice("op-1", tokenOfferOther))
	mustHandle(t, e, text("op-1", "service"))
	mustHandle(t, e, choice("op-1", tokenOffersDone))
	mustHandle(t, e, text("op-1", "about"))
	mustHandle(t, e, choice("op-1", tokenContactPhone))
	mustHandle(t, e, text("op-1", "555-0100"))
	mustHandle(t, e, text("op-1", "skip"))
	mustHandle(t, e, text("op-1", "skip"))
	mustHandle(t, e, text("op-1", "skip"))

	if _, err := e.Handle(context.Background(), media("op-1", protocol.MediaVideo, "vid-1")); !errors.Is(err, ErrValidation) {
		t.Fatalf("video during image step: error = %v, want ErrValidation", err)
	}
}

func TestCancelAtPreviewDiscardsDraft(t *testing.T) {
	e, profiles := newTestEngine(t)
	walkToPreview(t, e, "op-1")

	r := mustHandle(t, e, choice("op-1", tokenCancel))
	if !r.Cancelled {
		t.Fatalf("cancel should report Cancelled, got %+v", r)
	}
	if e.Active("op-1") {
		t.Fatalf("session should dissolve on cancel")
	}
	if _, err := profiles.Get("op-1"); !errors.Is(err, profile.ErrNotFound) {
		t.Fatalf("cancelled draft must not be committed")
	}
}

func TestBeginOverwritesDraft(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Begin("op-1")
	mustHandle(t, e, text("op-1", "First"))

	e.Begin("op-1")
	sess, _ := e.sessions.Get("op-1")
	if sess.Step != StepName || sess.Draft.DisplayName != "" {
		t.Fatalf("restart should reset the draft, got step=%q draft=%+v", sess.Step, sess.Draft)
	}
}

func TestCommitOverwritesPriorProfile(t *testing.T) {
	e, profiles := newTestEngine(t)
	walkToPreview(t, e, "op-1")
	mustHandle(t, e, choice("op-1", tokenConfirm))

	e.Begin("op-1")
	mustHandle(t, e, text("op-1", "Alexandra"))
	mustHandle(t, e, choice("op-1", tokenOfferOther))
	mustHandle(t, e, text("op-1", "new service"))
	mustHandle(t, e, choice("op-1", tokenOffersDone))
	mustHandle(t, e, text("op-1", "new about"))
	mustHandle(t, e, choice("op-1", tokenContactEmail))
	mustHandle(t, e, text("op-1", "a@example.com"))
	mustHandle(t, e, text("op-1", "skip"))
	mustHandle(t, e, text("op-1", "skip"))
	mustHandle(t, e, text("op-1", "skip"))
	mustHandle(t, e, text("op-1", "done"))
	mustHandle(t, e, text("op-1", "done"))
	mustHandle(t, e, choice("op-1", tokenConfirm))

	p, err := profiles.Get("op-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if p.DisplayName != "Alexandra" {
		t.Fatalf("re-commit should overwrite, got %q", p.DisplayName)
	}
	if profiles.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", profiles.Len())
	}
}

func TestHandleWithoutSession(t *testing.T) {
	e, _ := newTestEngine(t)
	if _, err := e.Handle(context.Background(), text("ghost", "hello")); !errors.Is(err, ErrNoSession) {
		t.Fatalf("error = %v, want ErrNoSession", err)
	}
}
