package protocol

import (
	"errors"
	"testing"
)

func TestValidateRequiresUserID(t *testing.T) {
	ev := Inbound{Kind: KindText, Text: "hi"}
	if err := ev.Validate(); err == nil {
		t.Fatalf("Validate() should reject missing user_id")
	}
}

func TestValidateRejectsUnknownKind(t *testing.T) {
	ev := Inbound{Kind: Kind("sticker"), UserID: "u1"}
	err := ev.Validate()
	if !errors.Is(err, ErrUnsupportedKind) {
		t.Fatalf("Validate() error = %v, want ErrUnsupportedKind", err)
	}
}

func TestValidateMediaType(t *testing.T) {
	ev := Inbound{Kind: KindMedia, UserID: "u1", Media: MediaImage, MediaRef: "ref-1"}
	if err := ev.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	ev.Media = MediaType("gif")
	if err := ev.Validate(); err == nil {
		t.Fatalf("Validate() should reject unknown media type")
	}
}
