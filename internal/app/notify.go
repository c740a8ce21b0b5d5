package app

import (
	"context"
	"fmt"
	"html"

	"github.com/rs/zerolog/log"

	"hostel_hub/internal/domain"
)

type Recipient struct {
	Email string
	Name  string
}

// Notifier renders transactional mails. Delivery failures are logged and
// never fail the calling operation.
type Notifier struct {
	mailer  domain.Mailer
	support string
}

func NewNotifier(m domain.Mailer, supportEmail string) *Notifier {
	return &Notifier{mailer: m, support: supportEmail}
}

func (n *Notifier) BookingRequested(ctx context.Context, to Recipient, b domain.Booking) {
	text := fmt.Sprintf("New booking request for %s: %d month(s) from %s, total %s.",
		b.HostelName, b.Months, b.MoveIn.Format(dateLayout), formatMoney(b.TotalCents, b.Currency))
	n.send(ctx, to, "New booking request", text)
}

func (n *Notifier) BookingDecided(ctx context.Context, to Recipient, b domain.Booking) {
	text := fmt.Sprintf("Your booking for %s starting %s was %s.", hostelLabel(b), b.MoveIn.Format(dateLayout), b.Status)
	n.send(ctx, to, "Booking "+string(b.Status), text)
}

func (n *Notifier) PaymentRecorded(ctx context.Context, to Recipient, p domain.Payment) {
	text := fmt.Sprintf("Payment %s of %s was received for booking %s.", p.Reference, formatMoney(p.AmountCents, p.Currency), p.BookingID)
	n.send(ctx, to, "Payment received", text)
}

func (n *Notifier) ContactReceived(ctx context.Context, m domain.ContactMessage) {
	text := fmt.Sprintf("From: %s <%s>\n\n%s", m.Name, m.Email, m.Message)
	n.send(ctx, Recipient{Email: n.support, Name: "Support"}, "Contact form: "+m.Name, text)
}

func (n *Notifier) send(ctx context.Context, to Recipient, subject, text string) {
	if n == nil || n.mailer == nil || to.Email == "" {
		return
	}
	m := domain.Mail{
		To:      to.Email,
		ToName:  to.Name,
		Subject: subject,
		Text:    text,
		HTML:    "<p>" + html.EscapeString(text) + "</p>",
	}
	if err := n.mailer.Send(ctx, m); err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("mail delivery failed")
	}
}

func hostelLabel(b domain.Booking) string {
	if b.HostelName != "" {
		return b.HostelName
	}
	return "hostel " + b.HostelID
}

func formatMoney(cents int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", cents/100, cents%100, currency)
}
