package auditsvc

import (
	"fmt"
	"sort"
	"strings"

	"github.com/trezcool/shule/core"
)

// logSink writes events to the application logger as single structured lines,
// giving operations a greppable audit trail without extra infrastructure.
type logSink struct {
	logger core.Logger
}

var _ core.AuditSink = (*logSink)(nil)

func NewLogSink(logger core.Logger) *logSink {
	return &logSink{logger: logger}
}

func (s *logSink) Record(ev core.Event) {
	keys := make([]string, 0, len(ev.Data))
	for k := range ev.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b := new(strings.Builder)
	_, _ = fmt.Fprintf(b, "audit event=%s kind=%s transfer=%s member=%s actor=%s at=%s",
		ev.Name, ev.Kind, ev.TransferID, ev.MemberID, ev.ActorID, ev.OccurredAt.Format("2006-01-02T15:04:05Z07:00"))
	for _, k := range keys {
		_, _ = fmt.Fprintf(b, " %s=%q", k, ev.Data[k])
	}
	s.logger.Info(b.String())
}
