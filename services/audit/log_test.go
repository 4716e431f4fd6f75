package auditsvc

import (
	"strings"
	"testing"
	"time"

	"github.com/trezcool/shule/core"
)

type logSpy struct {
	core.Logger
	lines []string
}

func (l *logSpy) Info(msg string, args ...interface{}) { l.lines = append(l.lines, msg) }

func TestLogSink_Record(t *testing.T) {
	spy := new(logSpy)
	sink := NewLogSink(spy)

	sink.Record(core.Event{
		Name:       "campus_transfer.applied",
		Kind:       "campus",
		TransferID: "t1",
		MemberID:   "m1",
		ActorID:    "a1",
		OccurredAt: time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC),
		Data: map[string]string{
			"new_code": "C02-M-24-0007",
			"old_code": "C01-M-24-0007",
		},
	})

	if len(spy.lines) != 1 {
		t.Fatalf("len(lines) = %d; want 1", len(spy.lines))
	}
	line := spy.lines[0]
	for _, want := range []string{
		"audit event=campus_transfer.applied",
		"kind=campus",
		"transfer=t1",
		"member=m1",
		"actor=a1",
		`new_code="C02-M-24-0007"`,
	} {
		if !strings.Contains(line, want) {
			t.Errorf("line missing %q:\n%s", want, line)
		}
	}

	// deterministic key order
	if strings.Index(line, "new_code=") > strings.Index(line, "old_code=") {
		t.Errorf("data keys not sorted:\n%s", line)
	}
}
