package inmemdb

import (
	"context"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/ident"
)

type sequenceRepository struct {
	db *sequenceTable
}

var _ ident.SequenceRepository = (*sequenceRepository)(nil) // interface compliance check

func NewSequenceRepository(db *DB) *sequenceRepository {
	return &sequenceRepository{db: db.sequences}
}

func (repo *sequenceRepository) NextValue(ctx context.Context, role string, exec ...core.DBExecutor) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.t[role]++
	return repo.db.t[role], nil
}
