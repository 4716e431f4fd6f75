package sqlxrepos

import (
	"context"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/transfer"
)

type ledgerRepository struct {
	exec core.DBExecutor
}

var _ transfer.LedgerRepository = (*ledgerRepository)(nil) // interface compliance check

func NewLedgerRepository(exec core.DBExecutor) *ledgerRepository {
	return &ledgerRepository{exec: exec}
}

func (repo ledgerRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo ledgerRepository) AppendStep(ctx context.Context, s transfer.Step, exec ...core.DBExecutor) (transfer.Step, error) {
	const q = `
		INSERT INTO approval_step (id, kind, transfer_id, step_order, role, actor_id, decision, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := repo.getExec(exec).ExecContext(ctx, q,
		s.ID, s.Kind, s.TransferID, s.Order, s.Role, s.ActorID, s.Decision, s.Comment, s.CreatedAt,
	)
	if err != nil {
		// the unique (kind, transfer_id, step_order) index serializes racing decisions
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == "23505" {
			return transfer.Step{}, errors.Wrapf(transfer.ErrApprovalOutOfOrder, "step %d already recorded", s.Order)
		}
		return transfer.Step{}, errors.Wrap(err, "inserting approval step")
	}
	return s, nil
}

var stepOrdering = core.DBOrdering{Field: "step_order", Ascending: true}

func (repo ledgerRepository) QuerySteps(ctx context.Context, kind transfer.Kind, transferID string, exec ...core.DBExecutor) ([]transfer.Step, error) {
	q := `
		SELECT id, kind, transfer_id, step_order, role, actor_id, decision, comment, created_at
		FROM approval_step
		WHERE kind = $1 AND transfer_id = $2
		ORDER BY ` + stepOrdering.String()
	rows, err := repo.getExec(exec).QueryContext(ctx, q, kind, transferID)
	if err != nil {
		return nil, errors.Wrap(err, "querying approval steps")
	}
	defer func() { _ = rows.Close() }()

	steps := make([]transfer.Step, 0, 3)
	for rows.Next() {
		var s transfer.Step
		if err = rows.Scan(&s.ID, &s.Kind, &s.TransferID, &s.Order, &s.Role, &s.ActorID, &s.Decision, &s.Comment, &s.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning approval step")
		}
		steps = append(steps, s)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "querying approval steps")
	}
	return steps, nil
}
