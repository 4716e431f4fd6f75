package transfer_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/transfer"
	inmemdb "github.com/trezcool/shule/storage/database/inmem"
	testutil "github.com/trezcool/shule/tests"
)

func setupLedger(t *testing.T) *transfer.Ledger {
	f := testutil.NewFixture(t)
	return transfer.NewLedger(inmemdb.NewLedgerRepository(f.DB))
}

func step(order int, decision string) transfer.Step {
	return transfer.Step{
		Kind:       transfer.KindClass,
		TransferID: "t1",
		Order:      order,
		Role:       transfer.StepRoleCoordinator,
		ActorID:    "a1",
		Decision:   decision,
	}
}

func TestLedger_Append(t *testing.T) {
	ctx := context.Background()

	t.Run("strictly ordered", func(t *testing.T) {
		l := setupLedger(t)

		if _, err := l.Append(ctx, step(2, transfer.DecisionApproved)); errors.Cause(err) != transfer.ErrApprovalOutOfOrder {
			t.Errorf("Append(2 before 1) error = %v; want ErrApprovalOutOfOrder", err)
		}
		if _, err := l.Append(ctx, step(1, transfer.DecisionApproved)); err != nil {
			t.Fatalf("Append(1) failed: %v", err)
		}
		if _, err := l.Append(ctx, step(3, transfer.DecisionApproved)); errors.Cause(err) != transfer.ErrApprovalOutOfOrder {
			t.Errorf("Append(3 before 2) error = %v; want ErrApprovalOutOfOrder", err)
		}
		if _, err := l.Append(ctx, step(2, transfer.DecisionApproved)); err != nil {
			t.Fatalf("Append(2) failed: %v", err)
		}
	})

	t.Run("invalid order", func(t *testing.T) {
		l := setupLedger(t)
		if _, err := l.Append(ctx, step(0, transfer.DecisionApproved)); errors.Cause(err) != transfer.ErrApprovalOutOfOrder {
			t.Errorf("Append(0) error = %v; want ErrApprovalOutOfOrder", err)
		}
	})

	t.Run("taken slot has one winner", func(t *testing.T) {
		l := setupLedger(t)
		if _, err := l.Append(ctx, step(1, transfer.DecisionApproved)); err != nil {
			t.Fatalf("Append(1) failed: %v", err)
		}
		if _, err := l.Append(ctx, step(1, transfer.DecisionDeclined)); errors.Cause(err) != transfer.ErrApprovalOutOfOrder {
			t.Errorf("Append(1 again) error = %v; want ErrApprovalOutOfOrder", err)
		}
	})

	t.Run("no step after a non-approval", func(t *testing.T) {
		l := setupLedger(t)
		if _, err := l.Append(ctx, step(1, transfer.DecisionDeclined)); err != nil {
			t.Fatalf("Append(1) failed: %v", err)
		}
		if _, err := l.Append(ctx, step(2, transfer.DecisionApproved)); errors.Cause(err) != transfer.ErrApprovalOutOfOrder {
			t.Errorf("Append(2 after declined 1) error = %v; want ErrApprovalOutOfOrder", err)
		}
	})

	t.Run("steps are stamped and ordered", func(t *testing.T) {
		l := setupLedger(t)
		for o := 1; o <= 3; o++ {
			s, err := l.Append(ctx, step(o, transfer.DecisionApproved))
			if err != nil {
				t.Fatalf("Append(%d) failed: %v", o, err)
			}
			if s.ID == "" || s.CreatedAt.IsZero() {
				t.Errorf("Append(%d) did not stamp the step: %+v", o, s)
			}
		}
		steps, err := l.Steps(ctx, transfer.KindClass, "t1")
		if err != nil {
			t.Fatalf("Steps() failed: %v", err)
		}
		if len(steps) != 3 {
			t.Fatalf("len(steps) = %d; want 3", len(steps))
		}
		for i, s := range steps {
			if s.Order != i+1 {
				t.Errorf("steps[%d].Order = %d; want %d", i, s.Order, i+1)
			}
		}

		order, err := l.NextOrder(ctx, transfer.KindClass, "t1")
		if err != nil {
			t.Fatalf("NextOrder() failed: %v", err)
		}
		if order != 4 {
			t.Errorf("NextOrder() = %d; want 4", order)
		}
	})

	t.Run("ledgers are scoped per kind", func(t *testing.T) {
		l := setupLedger(t)
		if _, err := l.Append(ctx, step(1, transfer.DecisionApproved)); err != nil {
			t.Fatalf("Append() failed: %v", err)
		}
		s := step(1, transfer.DecisionApproved)
		s.Kind = transfer.KindShift
		if _, err := l.Append(ctx, s); err != nil {
			t.Errorf("Append(same order, other kind) failed: %v", err)
		}
	})
}
