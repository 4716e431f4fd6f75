package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/member"
)

type memberRepository struct {
	db *memberTable
}

var _ member.Repository = (*memberRepository)(nil) // interface compliance check

func NewMemberRepository(db *DB) *memberRepository {
	return &memberRepository{db: db.members}
}

func (repo *memberRepository) CreateMember(ctx context.Context, m member.Member, exec ...core.DBExecutor) (member.Member, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	repo.db.t[m.ID] = &m
	return m, nil
}

func (repo *memberRepository) GetMember(ctx context.Context, id string, exec ...core.DBExecutor) (member.Member, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if m, ok := repo.db.t[id]; ok {
		return *m, nil
	}
	return member.Member{}, member.ErrNotFound
}

func (repo *memberRepository) UpdateMemberAssignment(ctx context.Context, m member.Member, exec ...core.DBExecutor) (member.Member, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.t[m.ID]
	if !ok {
		return member.Member{}, member.ErrNotFound
	}
	orig.Code = m.Code
	orig.CampusID = m.CampusID
	orig.Shift = m.Shift
	orig.GradeID = m.GradeID
	orig.GradeName = m.GradeName
	orig.ClassroomID = m.ClassroomID
	orig.Section = m.Section
	orig.UpdatedAt = m.UpdatedAt
	return *orig, nil
}
