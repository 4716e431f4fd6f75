package notifsvc

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/trezcool/shule/core"
)

// emailSink turns applied-transfer events into emails. Delivery goes through
// whichever core.EmailService is wired in (console locally, sendgrid in
// production); failures end up in the email service's logger, never with the
// workflow that produced the event.
type emailSink struct {
	email core.EmailService
	to    []mail.Address
}

var _ core.NotificationSink = (*emailSink)(nil)

// NewEmailSink notifies the given recipients (the school office distribution
// list) of every published event.
func NewEmailSink(email core.EmailService, to ...mail.Address) *emailSink {
	return &emailSink{email: email, to: to}
}

func (s *emailSink) Publish(ev core.Event) {
	s.email.SendMessages(&core.EmailMessage{
		To:      s.to,
		Subject: subject(ev),
		BodyStr: body(ev),
	})
}

func subject(ev core.Event) string {
	return strings.ReplaceAll(ev.Name, "_", " ")
}

func body(ev core.Event) string {
	b := new(strings.Builder)
	_, _ = fmt.Fprintf(b, "%s\n\n", subject(ev))
	_, _ = fmt.Fprintf(b, "Member: %s (%s)\n", ev.Data["member_name"], ev.MemberID)
	_, _ = fmt.Fprintf(b, "Acted by: %s at %s\n", ev.ActorID, ev.OccurredAt.Format("2006-01-02 15:04:05 MST"))
	for k, v := range ev.Data {
		if k == "member_name" {
			continue
		}
		_, _ = fmt.Fprintf(b, "%s: %s\n", strings.ReplaceAll(k, "_", " "), v)
	}
	return b.String()
}
