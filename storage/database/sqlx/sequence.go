package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/ident"
)

type sequenceRepository struct {
	exec core.DBExecutor
}

var _ ident.SequenceRepository = (*sequenceRepository)(nil) // interface compliance check

func NewSequenceRepository(exec core.DBExecutor) *sequenceRepository {
	return &sequenceRepository{exec: exec}
}

func (repo sequenceRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

// NextValue upserts the role counter in a single statement so two concurrent
// allocations never see the same value.
func (repo sequenceRepository) NextValue(ctx context.Context, role string, exec ...core.DBExecutor) (int, error) {
	const q = `
		INSERT INTO role_sequence (role, value)
		VALUES ($1, 1)
		ON CONFLICT (role) DO UPDATE SET value = role_sequence.value + 1
		RETURNING value`
	var n int
	if err := repo.getExec(exec).QueryRowContext(ctx, q, role).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "allocating serial")
	}
	return n, nil
}
