package form

import (
	"sync"

	"github.com/beacon-bot/beacon/internal/profile"
)

// Step names one node of the profile-builder graph.
type Step string

const (
	StepName             Step = "awaiting_name"
	StepOfferingChoice   Step = "awaiting_offering_choice"
	StepInPersonMode     Step = "awaiting_in_person_mode"
	StepInPersonLocation Step = "awaiting_in_person_location"
	StepRemotePlatforms  Step = "awaiting_remote_platforms"
	StepRemotePayment    Step = "awaiting_remote_payment"
	StepCustomPayment    Step = "awaiting_custom_payment"
	StepCustomDelivery   Step = "awaiting_custom_delivery"
	StepOtherDescription Step = "awaiting_other_description"
	StepAbout            Step = "awaiting_about"
	StepContactMethod    Step = "awaiting_contact_method"
	StepPhone            Step = "awaiting_phone"
	StepEmail            Step = "awaiting_email"
	StepSocialLinks      Step = "awaiting_social_links"
	StepRates            Step = "awaiting_rates"
	StepDisclaimer       Step = "awaiting_disclaimer"
	StepImages           Step = "awaiting_images"
	StepVideos           Step = "awaiting_videos"
	StepPreview          Step = "awaiting_preview"
)

// Session is one operator's in-progress draft. It exists from the first
// form-entry event until commit or cancel dissolves it.
type Session struct {
	UserID string
	Step   Step
	Draft  profile.Profile

	// pending is the offering under construction while a branch of the
	// offering loop is being walked.
	pending profile.Offering
}

// Store holds at most one in-progress session per operator.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Begin creates a fresh session at the first step, overwriting any
// in-progress draft for the same operator.
func (s *Store) Begin(userID string) *Session {
	sess := &Session{
		UserID: userID,
		Step:   StepName,
		Draft:  profile.Profile{UserID: userID},
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = sess
	return sess
}

func (s *Store) Get(userID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	return sess, ok
}

func (s *Store) End(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
