package listing

import (
	"fmt"
	"strings"
	"time"

	"github.com/beacon-bot/beacon/internal/profile"
)

// FormatPreview renders the draft as the operator will review it before
// committing.
func FormatPreview(p profile.Profile) string {
	var b strings.Builder
	b.WriteString("Preview of Your Listing\n\n")
	b.WriteString(p.DisplayName)
	b.WriteString("\n\n")
	writeBody(&b, p)
	b.WriteString("Images and videos will be attached to the broadcast.\n")
	return b.String()
}

// FormatListing renders the broadcast text, including when it was posted and
// how long it remains valid.
func FormatListing(p profile.Profile, createdAt, expiresAt time.Time) string {
	var b strings.Builder
	b.WriteString(p.DisplayName)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Posted: %s | Expires in: %s\n\n",
		createdAt.Format("Jan 2, 2006, 3:04 PM"),
		formatCountdown(expiresAt.Sub(createdAt)))
	writeBody(&b, p)
	return b.String()
}

// DigestLine is one row of the active-listings summary.
type DigestLine struct {
	Name     string
	Services string
}

// FormatDigest renders the short "who is available now" summary.
func FormatDigest(lines []DigestLine) string {
	if len(lines) == 0 {
		return "No one is available right now. Check back soon!"
	}
	var b strings.Builder
	b.WriteString("Available Now:\n\n")
	for i, line := range lines {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, line.Name, line.Services)
	}
	return b.String()
}

// ServiceSummary joins the offered service labels for digest rows.
func ServiceSummary(p profile.Profile) string {
	labels := make([]string, 0, len(p.Offerings))
	for _, o := range p.Offerings {
		labels = append(labels, o.Label())
	}
	return strings.Join(labels, ", ")
}

func writeBody(b *strings.Builder, p profile.Profile) {
	if len(p.Offerings) > 0 {
		b.WriteString("Services Offered:\n")
		for _, o := range p.Offerings {
			b.WriteString("  ")
			b.WriteString(offeringLine(o))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	if p.About != "" {
		fmt.Fprintf(b, "About:\n%s\n\n", p.About)
	}
	b.WriteString("Contact:\n")
	switch p.Contact.Method {
	case profile.ContactPhone:
		fmt.Fprintf(b, "  Phone: %s\n", p.Contact.Value)
	case profile.ContactEmail:
		fmt.Fprintf(b, "  Email: %s\n", p.Contact.Value)
	case profile.ContactPlatform:
		fmt.Fprintf(b, "  DM: @%s\n", p.Contact.Value)
	}
	b.WriteString("\n")
	if p.SocialLinks != "" {
		fmt.Fprintf(b, "Social Media:\n%s\n\n", p.SocialLinks)
	}
	if p.Rates != "" {
		fmt.Fprintf(b, "Rates:\n%s\n\n", p.Rates)
	}
	if p.Disclaimer != "" {
		fmt.Fprintf(b, "Notice:\n%s\n\n", p.Disclaimer)
	}
}

func offeringLine(o profile.Offering) string {
	switch o.Kind {
	case profile.OfferingInPerson:
		return fmt.Sprintf("In-Person (%s, %s)", o.Mode.Label(), o.Location)
	case profile.OfferingRemote:
		return fmt.Sprintf("Remote Shows (%s, %s)", o.Platforms, o.Payment)
	case profile.OfferingCustom:
		return fmt.Sprintf("Custom Content (%s, %s)", o.Delivery, o.Payment)
	default:
		return o.Description
	}
}

func formatCountdown(remaining time.Duration) string {
	if remaining < 0 {
		remaining = 0
	}
	hours := int(remaining.Hours())
	minutes := int(remaining.Minutes()) % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
