package inmemdb

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/transfer"
)

type ledgerRepository struct {
	db *stepTable
}

var _ transfer.LedgerRepository = (*ledgerRepository)(nil) // interface compliance check

func NewLedgerRepository(db *DB) *ledgerRepository {
	return &ledgerRepository{db: db.steps}
}

func (repo *ledgerRepository) AppendStep(ctx context.Context, s transfer.Step, exec ...core.DBExecutor) (transfer.Step, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, st := range repo.db.t {
		if st.Kind == s.Kind && st.TransferID == s.TransferID && st.Order == s.Order {
			return transfer.Step{}, errors.Wrapf(transfer.ErrApprovalOutOfOrder, "step %d already recorded", s.Order)
		}
	}
	repo.db.t = append(repo.db.t, s)
	return s, nil
}

func (repo *ledgerRepository) QuerySteps(ctx context.Context, kind transfer.Kind, transferID string, exec ...core.DBExecutor) ([]transfer.Step, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	steps := make([]transfer.Step, 0, 3)
	for _, st := range repo.db.t {
		if st.Kind == kind && st.TransferID == transferID {
			steps = append(steps, st)
		}
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i].Order < steps[j].Order })
	return steps, nil
}
