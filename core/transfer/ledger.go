package transfer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

// Step decisions.
const (
	DecisionApproved  = "approved"
	DecisionDeclined  = "declined"
	DecisionCancelled = "cancelled"
)

// Step owner roles, in workflow order.
const (
	StepRoleSupervisor  = "supervisor"
	StepRoleCoordinator = "coordinator"
	StepRoleOtherCoord  = "other_coordinator"
	StepRoleReceiver    = "receiver"
	StepRoleRequester   = "requester"
)

// Step is one immutable entry of a transfer's approval ledger. Steps are
// unique per (kind, transfer, order) and strictly ordered: step N may only be
// recorded once steps 1..N-1 exist and were all approved.
type Step struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	TransferID string    `json:"transfer_id"`
	Order      int       `json:"order"`
	Role       string    `json:"role"`
	ActorID    string    `json:"actor_id"`
	Decision   string    `json:"decision"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"` // UTC
}

// LedgerRepository persists approval steps. AppendStep must reject a
// duplicate (kind, transfer, order) key with ErrApprovalOutOfOrder so that
// two concurrent decisions on the same step have exactly one winner.
type LedgerRepository interface {
	AppendStep(ctx context.Context, s Step, exec ...core.DBExecutor) (Step, error)
	// QuerySteps returns the steps of a transfer in ascending order.
	QuerySteps(ctx context.Context, kind Kind, transferID string, exec ...core.DBExecutor) ([]Step, error)
}

// Ledger enforces step ordering on top of a LedgerRepository.
type Ledger struct {
	repo LedgerRepository
}

func NewLedger(repo LedgerRepository) *Ledger {
	return &Ledger{repo: repo}
}

func (l *Ledger) Steps(ctx context.Context, kind Kind, transferID string, exec ...core.DBExecutor) ([]Step, error) {
	return l.repo.QuerySteps(ctx, kind, transferID, exec...)
}

// Append records a decision as step `order` of the given transfer. It fails
// with ErrApprovalOutOfOrder when the slot is already taken or when any prior
// step is missing or not approved. The storage-level uniqueness guarantee of
// AppendStep catches races the read-then-write check here cannot.
func (l *Ledger) Append(ctx context.Context, s Step, exec ...core.DBExecutor) (Step, error) {
	if s.Order < 1 {
		return Step{}, errors.Wrapf(ErrApprovalOutOfOrder, "invalid step order %d", s.Order)
	}

	steps, err := l.repo.QuerySteps(ctx, s.Kind, s.TransferID, exec...)
	if err != nil {
		return Step{}, errors.Wrap(err, "querying prior steps")
	}

	prior := make(map[int]Step, len(steps))
	for _, st := range steps {
		if st.Order == s.Order {
			return Step{}, errors.Wrapf(ErrApprovalOutOfOrder, "step %d already recorded", s.Order)
		}
		prior[st.Order] = st
	}
	for o := 1; o < s.Order; o++ {
		p, ok := prior[o]
		if !ok {
			return Step{}, errors.Wrapf(ErrApprovalOutOfOrder, "step %d missing", o)
		}
		if p.Decision != DecisionApproved {
			return Step{}, errors.Wrapf(ErrApprovalOutOfOrder, "step %d was not approved", o)
		}
	}

	s.ID = uuid.NewString()
	s.CreatedAt = nowFunc().UTC()
	return l.repo.AppendStep(ctx, s, exec...)
}

// NextOrder returns the order the next step of the transfer would take.
func (l *Ledger) NextOrder(ctx context.Context, kind Kind, transferID string, exec ...core.DBExecutor) (int, error) {
	steps, err := l.repo.QuerySteps(ctx, kind, transferID, exec...)
	if err != nil {
		return 0, err
	}
	max := 0
	for _, st := range steps {
		if st.Order > max {
			max = st.Order
		}
	}
	return max + 1, nil
}
