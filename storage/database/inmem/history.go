package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/transfer"
)

type historyRepository struct {
	db *recordTable
}

var _ transfer.HistoryRepository = (*historyRepository)(nil) // interface compliance check

func NewHistoryRepository(db *DB) *historyRepository {
	return &historyRepository{db: db.records}
}

func (repo *historyRepository) CreateChangeRecord(ctx context.Context, r transfer.ChangeRecord, exec ...core.DBExecutor) (transfer.ChangeRecord, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.t = append(repo.db.t, r)
	return r, nil
}

func (repo *historyRepository) QueryChangeRecords(ctx context.Context, memberID string, exec ...core.DBExecutor) ([]transfer.ChangeRecord, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	recs := make([]transfer.ChangeRecord, 0, 4)
	for _, r := range repo.db.t {
		if r.MemberID == memberID {
			recs = append(recs, r)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].CreatedAt.After(recs[j].CreatedAt) })
	return recs, nil
}
