package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/beacon-bot/beacon/internal/form"
	"github.com/beacon-bot/beacon/internal/gateway"
	"github.com/beacon-bot/beacon/internal/listing"
	"github.com/beacon-bot/beacon/internal/observability"
	"github.com/beacon-bot/beacon/internal/policy"
	"github.com/beacon-bot/beacon/internal/profile"
	"github.com/beacon-bot/beacon/internal/protocol"
	"github.com/beacon-bot/beacon/internal/schedule"
)

// Service routes inbound events to the form engine and the listing lifecycle,
// one event at a time per operator. Scheduled retractions run through the
// same per-user queues as inbound events.
type Service struct {
	auth       *policy.Allowlist
	forms      *form.Engine
	profiles   *profile.Repository
	registry   *listing.Registry
	scheduler  *schedule.Scheduler
	outbound   gateway.Outbound
	notify     gateway.Notifier
	metrics    *observability.Metrics
	dispatcher *Dispatcher
	durations  []time.Duration
	channel    string
	now        func() time.Time
}

func NewService(
	auth *policy.Allowlist,
	forms *form.Engine,
	profiles *profile.Repository,
	registry *listing.Registry,
	outbound gateway.Outbound,
	notify gateway.Notifier,
	metrics *observability.Metrics,
	durations []time.Duration,
	channel string,
) *Service {
	s := &Service{
		auth:       auth,
		forms:      forms,
		profiles:   profiles,
		registry:   registry,
		outbound:   outbound,
		notify:     notify,
		metrics:    metrics,
		dispatcher: NewDispatcher(),
		durations:  durations,
		channel:    channel,
		now:        time.Now,
	}
	s.scheduler = s.newScheduler()
	return s
}

func (s *Service) newScheduler() *schedule.Scheduler {
	return schedule.NewScheduler(s.dispatcher.Submit)
}

// SetClock overrides the time source, for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Dispatch validates the event and queues it on the operator's serial queue.
func (s *Service) Dispatch(ev protocol.Inbound) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	s.dispatcher.Submit(ev.UserID, func() { s.process(ev) })
	return nil
}

// Close drains the per-user queues. Pending retraction timers are left armed;
// firings after Close are dropped by the dispatcher.
func (s *Service) Close() {
	s.dispatcher.Close()
}

func (s *Service) process(ev protocol.Inbound) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("event handling panic for %s: %v", ev.UserID, r)
		}
	}()

	ctx := context.Background()
	if ev.Kind == protocol.KindCommand {
		s.handleCommand(ctx, ev)
		return
	}
	s.handleFormEvent(ctx, ev)
}

func (s *Service) handleCommand(ctx context.Context, ev protocol.Inbound) {
	cmd := strings.ToLower(strings.TrimSpace(ev.Command))
	switch cmd {
	case protocol.CommandStart:
		s.reply(ev.UserID, startMenu(ev.UserID))

	case protocol.CommandCreate:
		if !s.auth.IsAuthorized(ev.UserID) {
			s.replyText(ev.UserID, "You must be an approved operator to use this service.")
			return
		}
		r := s.forms.Begin(ev.UserID)
		s.reply(ev.UserID, protocol.Outbound{UserID: ev.UserID, Text: r.Text, Choices: r.Choices})

	case protocol.CommandCancel:
		r, err := s.forms.Cancel(ev.UserID)
		if errors.Is(err, form.ErrNoSession) {
			s.replyText(ev.UserID, "Nothing to cancel.")
			return
		}
		s.replyText(ev.UserID, r.Text)

	case protocol.CommandPublish:
		if !s.auth.IsAuthorized(ev.UserID) {
			s.replyText(ev.UserID, "You must be an approved operator to publish.")
			return
		}
		s.publish(ctx, ev.UserID, ev.Arg)

	case protocol.CommandDelete:
		if !s.auth.IsAuthorized(ev.UserID) {
			s.replyText(ev.UserID, "You must be an approved operator to delete a profile.")
			return
		}
		s.deleteProfile(ctx, ev.UserID)

	case protocol.CommandListings:
		s.replyText(ev.UserID, s.digest())

	default:
		s.replyText(ev.UserID, fmt.Sprintf("Unknown command %q. Send 'start' for the menu.", cmd))
	}
}

func (s *Service) handleFormEvent(ctx context.Context, ev protocol.Inbound) {
	if !s.forms.Active(ev.UserID) {
		// Input with no session and no recognized entry trigger is not ours.
		return
	}
	r, err := s.forms.Handle(ctx, ev)
	switch {
	case err == nil:
		s.metrics.FormEvents.WithLabelValues("accepted").Inc()
	case errors.Is(err, form.ErrCapacity):
		s.metrics.FormEvents.WithLabelValues("capacity").Inc()
	default:
		s.metrics.FormEvents.WithLabelValues("rejected").Inc()
	}
	s.reply(ev.UserID, protocol.Outbound{UserID: ev.UserID, Text: r.Text, Choices: r.Choices})
}

func (s *Service) publish(ctx context.Context, userID, arg string) {
	d, err := s.parseDuration(arg)
	if err != nil {
		s.replyText(userID, err.Error())
		return
	}
	if s.channel == "" {
		s.replyText(userID, "Broadcast channel is not configured.")
		return
	}

	p, err := s.profiles.Get(userID)
	if errors.Is(err, profile.ErrNotFound) {
		s.replyText(userID, "You must create a profile first. Send 'create' to begin.")
		return
	}
	if !p.Publishable() {
		s.replyText(userID, "Your profile needs at least one service before publishing.")
		return
	}

	l, err := s.registry.Publish(ctx, p, d)
	switch {
	case errors.Is(err, listing.ErrConflict):
		s.metrics.ListingEvents.WithLabelValues("conflict").Inc()
		s.replyText(userID, "You already have a live listing. Delete it first or wait for it to expire.")
		return
	case err != nil:
		s.metrics.ListingEvents.WithLabelValues("delivery_error").Inc()
		s.metrics.GatewayErrors.WithLabelValues("send").Inc()
		log.Printf("publish failed for %s: %v", userID, err)
		s.replyText(userID, "Posting your listing failed. Please try again.")
		return
	}

	s.scheduler.Arm(userID, l.ExpiresAt, s.retraction(l))
	s.metrics.ListingEvents.WithLabelValues("published").Inc()
	s.metrics.ActiveListings.Set(float64(s.registry.Len()))
	s.replyText(userID, fmt.Sprintf(
		"Your listing is live for %s. It will be removed automatically when the time expires.",
		formatDuration(l.Duration)))
}

// retraction is the scheduled exactly-once cleanup for one listing. It checks
// that the registry still holds the same listing, so a revoke that raced the
// timer never triggers a delete of a message that is already gone.
func (s *Service) retraction(l listing.Listing) func() {
	return func() {
		current, ok := s.registry.Get(l.UserID)
		if !ok || current.MessageRef != l.MessageRef {
			return
		}
		ctx := context.Background()
		if err := s.outbound.Delete(ctx, l.MessageRef); err != nil {
			// Terminal: the message may already be gone; do not retry.
			s.metrics.GatewayErrors.WithLabelValues("delete").Inc()
			log.Printf("listing retraction delete failed for %s: %v", l.UserID, err)
		}
		s.registry.Remove(l.UserID)
		s.metrics.ListingEvents.WithLabelValues("retracted").Inc()
		s.metrics.ActiveListings.Set(float64(s.registry.Len()))
	}
}

func (s *Service) deleteProfile(ctx context.Context, userID string) {
	err := s.profiles.Delete(ctx, userID)
	if errors.Is(err, profile.ErrNotFound) {
		s.replyText(userID, "You don't have a profile to delete.")
		return
	}
	s.revoke(userID)
	s.replyText(userID, "Profile deleted. Any live listing was withdrawn.")
}

// revoke cancels the pending retraction and drops the registry entry without
// a gateway delete. Revoking a user with no listing is a no-op.
func (s *Service) revoke(userID string) {
	s.scheduler.Cancel(userID)
	if _, ok := s.registry.Remove(userID); ok {
		s.metrics.ListingEvents.WithLabelValues("revoked").Inc()
		s.metrics.ActiveListings.Set(float64(s.registry.Len()))
	}
}

func (s *Service) digest() string {
	active := s.registry.Active(s.now())
	lines := make([]listing.DigestLine, 0, len(active))
	for _, l := range active {
		p, err := s.profiles.Get(l.UserID)
		if err != nil {
			continue
		}
		lines = append(lines, listing.DigestLine{
			Name:     p.DisplayName,
			Services: listing.ServiceSummary(p),
		})
	}
	return listing.FormatDigest(lines)
}

// ListingView is the API-facing shape of an active listing.
type ListingView struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	MessageRef  string    `json:"message_ref"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ActiveListings returns the current listings joined with profile names.
func (s *Service) ActiveListings() []ListingView {
	active := s.registry.Active(s.now())
	out := make([]ListingView, 0, len(active))
	for _, l := range active {
		view := ListingView{
			UserID:     l.UserID,
			MessageRef: l.MessageRef,
			CreatedAt:  l.CreatedAt,
			ExpiresAt:  l.ExpiresAt,
		}
		if p, err := s.profiles.Get(l.UserID); err == nil {
			view.DisplayName = p.DisplayName
		}
		out = append(out, view)
	}
	return out
}

func (s *Service) parseDuration(arg string) (time.Duration, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return 0, fmt.Errorf("How long will you be available? Choose one of: %s.", s.durationChoices())
	}
	var d time.Duration
	if hours, err := strconv.Atoi(arg); err == nil {
		d = time.Duration(hours) * time.Hour
	} else {
		parsed, err := time.ParseDuration(arg)
		if err != nil {
			return 0, fmt.Errorf("%q is not a valid duration. Choose one of: %s.", arg, s.durationChoices())
		}
		d = parsed
	}
	for _, allowed := range s.durations {
		if d == allowed {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%s is not an available duration. Choose one of: %s.", formatDuration(d), s.durationChoices())
}

func (s *Service) durationChoices() string {
	parts := make([]string, 0, len(s.durations))
	for _, d := range s.durations {
		parts = append(parts, formatDuration(d))
	}
	return strings.Join(parts, ", ")
}

func (s *Service) reply(userID string, msg protocol.Outbound) {
	msg.UserID = userID
	s.notify.Notify(userID, msg)
}

func (s *Service) replyText(userID, text string) {
	s.reply(userID, protocol.Outbound{UserID: userID, Text: text})
}

func startMenu(userID string) protocol.Outbound {
	return protocol.Outbound{
		UserID: userID,
		Text:   "Welcome! What would you like to do?",
		Choices: []protocol.Choice{
			{Label: "Create Profile", Data: protocol.CommandCreate},
			{Label: "Delete Profile", Data: protocol.CommandDelete},
			{Label: "Publish Listing", Data: protocol.CommandPublish},
			{Label: "Who's Available", Data: protocol.CommandListings},
		},
	}
}

func formatDuration(d time.Duration) string {
	if d%time.Hour == 0 {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return d.String()
}
