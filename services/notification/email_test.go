package notifsvc

import (
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/trezcool/shule/core"
	emailsvc "github.com/trezcool/shule/services/email"
)

func TestEmailSink_Publish(t *testing.T) {
	emailSvc := emailsvc.NewConsoleServiceMock()
	office := mail.Address{Name: "School Office", Address: "office@shule.cd"}
	sink := NewEmailSink(emailSvc, office)

	before := len(emailsvc.SentMessages)
	sink.Publish(core.Event{
		Name:       "shift_transfer.applied",
		Kind:       "shift",
		TransferID: "t1",
		MemberID:   "m1",
		ActorID:    "a1",
		OccurredAt: time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC),
		Data: map[string]string{
			"member_name": "Amani K",
			"old_code":    "C01-M-24-0007",
			"new_code":    "C01-A-24-0007",
		},
	})

	sent := emailsvc.SentMessages[before:]
	if len(sent) != 1 {
		t.Fatalf("len(sent) = %d; want 1", len(sent))
	}
	msg := sent[0]
	if len(msg.To) != 1 || msg.To[0] != office {
		t.Errorf("To = %+v; want %+v", msg.To, office)
	}
	if msg.Subject != "shift transfer.applied" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	for _, want := range []string{"Amani K", "C01-M-24-0007", "C01-A-24-0007"} {
		if !strings.Contains(msg.TextContent, want) {
			t.Errorf("TextContent missing %q:\n%s", want, msg.TextContent)
		}
	}
}
