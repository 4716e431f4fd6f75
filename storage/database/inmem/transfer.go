package inmemdb

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/transfer"
)

type transferRepository struct {
	db *transferTable
}

var _ transfer.Repository = (*transferRepository)(nil) // interface compliance check

func NewTransferRepository(db *DB) *transferRepository {
	return &transferRepository{db: db.transfers}
}

func (repo *transferRepository) CreateClassTransfer(ctx context.Context, t transfer.ClassTransfer, exec ...core.DBExecutor) (transfer.ClassTransfer, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.class[t.ID] = &t
	return t, nil
}

func (repo *transferRepository) GetClassTransfer(ctx context.Context, id string, exec ...core.DBExecutor) (transfer.ClassTransfer, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	if t, ok := repo.db.class[id]; ok {
		return *t, nil
	}
	return transfer.ClassTransfer{}, transfer.ErrNotFound
}

func (repo *transferRepository) UpdateClassTransfer(ctx context.Context, t transfer.ClassTransfer, exec ...core.DBExecutor) (transfer.ClassTransfer, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.class[t.ID]
	if !ok {
		return transfer.ClassTransfer{}, transfer.ErrNotFound
	}
	if orig.Status.IsTerminal() {
		return transfer.ClassTransfer{}, errors.Wrapf(transfer.ErrAlreadyTerminal, "status %q", orig.Status)
	}
	repo.db.class[t.ID] = &t
	return t, nil
}

func (repo *transferRepository) CreateShiftTransfer(ctx context.Context, t transfer.ShiftTransfer, exec ...core.DBExecutor) (transfer.ShiftTransfer, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.shift[t.ID] = &t
	return t, nil
}

func (repo *transferRepository) GetShiftTransfer(ctx context.Context, id string, exec ...core.DBExecutor) (transfer.ShiftTransfer, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	if t, ok := repo.db.shift[id]; ok {
		return *t, nil
	}
	return transfer.ShiftTransfer{}, transfer.ErrNotFound
}

func (repo *transferRepository) UpdateShiftTransfer(ctx context.Context, t transfer.ShiftTransfer, exec ...core.DBExecutor) (transfer.ShiftTransfer, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.shift[t.ID]
	if !ok {
		return transfer.ShiftTransfer{}, transfer.ErrNotFound
	}
	if orig.Status.IsTerminal() {
		return transfer.ShiftTransfer{}, errors.Wrapf(transfer.ErrAlreadyTerminal, "status %q", orig.Status)
	}
	repo.db.shift[t.ID] = &t
	return t, nil
}

func (repo *transferRepository) CreateGradeSkipTransfer(ctx context.Context, t transfer.GradeSkipTransfer, exec ...core.DBExecutor) (transfer.GradeSkipTransfer, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.gradeSkip[t.ID] = &t
	return t, nil
}

func (repo *transferRepository) GetGradeSkipTransfer(ctx context.Context, id string, exec ...core.DBExecutor) (transfer.GradeSkipTransfer, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	if t, ok := repo.db.gradeSkip[id]; ok {
		return *t, nil
	}
	return transfer.GradeSkipTransfer{}, transfer.ErrNotFound
}

func (repo *transferRepository) UpdateGradeSkipTransfer(ctx context.Context, t transfer.GradeSkipTransfer, exec ...core.DBExecutor) (transfer.GradeSkipTransfer, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.gradeSkip[t.ID]
	if !ok {
		return transfer.GradeSkipTransfer{}, transfer.ErrNotFound
	}
	if orig.Status.IsTerminal() {
		return transfer.GradeSkipTransfer{}, errors.Wrapf(transfer.ErrAlreadyTerminal, "status %q", orig.Status)
	}
	repo.db.gradeSkip[t.ID] = &t
	return t, nil
}

func (repo *transferRepository) CreateCampusTransfer(ctx context.Context, t transfer.CampusTransfer, exec ...core.DBExecutor) (transfer.CampusTransfer, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.campus[t.ID] = &t
	return t, nil
}

func (repo *transferRepository) GetCampusTransfer(ctx context.Context, id string, exec ...core.DBExecutor) (transfer.CampusTransfer, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	if t, ok := repo.db.campus[id]; ok {
		return *t, nil
	}
	return transfer.CampusTransfer{}, transfer.ErrNotFound
}

func (repo *transferRepository) UpdateCampusTransfer(ctx context.Context, t transfer.CampusTransfer, exec ...core.DBExecutor) (transfer.CampusTransfer, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.campus[t.ID]
	if !ok {
		return transfer.CampusTransfer{}, transfer.ErrNotFound
	}
	if orig.Status.IsTerminal() {
		return transfer.CampusTransfer{}, errors.Wrapf(transfer.ErrAlreadyTerminal, "status %q", orig.Status)
	}
	repo.db.campus[t.ID] = &t
	return t, nil
}
