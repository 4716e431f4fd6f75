package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/member"
)

type memberRepository struct {
	exec core.DBExecutor
}

var _ member.Repository = (*memberRepository)(nil) // interface compliance check

func NewMemberRepository(exec core.DBExecutor) *memberRepository {
	return &memberRepository{exec: exec}
}

func (repo memberRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

const memberColumns = `id, kind, name, code, campus_id, shift, grade_id, grade_name, classroom_id, section, role_code, created_at, updated_at`

func (repo memberRepository) scan(row *sql.Row) (member.Member, error) {
	var m member.Member
	err := row.Scan(
		&m.ID, &m.Kind, &m.Name, &m.Code, &m.CampusID, &m.Shift,
		&m.GradeID, &m.GradeName, &m.ClassroomID, &m.Section, &m.RoleCode,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return member.Member{}, member.ErrNotFound
	}
	if err != nil {
		return member.Member{}, errors.Wrap(err, "scanning member")
	}
	return m, nil
}

func (repo memberRepository) CreateMember(ctx context.Context, m member.Member, exec ...core.DBExecutor) (member.Member, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	const q = `
		INSERT INTO member (` + memberColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := repo.getExec(exec).ExecContext(ctx, q,
		m.ID, m.Kind, m.Name, m.Code, m.CampusID, m.Shift,
		m.GradeID, m.GradeName, m.ClassroomID, m.Section, m.RoleCode,
		m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return member.Member{}, errors.Wrap(err, "inserting member")
	}
	return m, nil
}

func (repo memberRepository) GetMember(ctx context.Context, id string, exec ...core.DBExecutor) (member.Member, error) {
	if _, err := uuid.Parse(id); err != nil {
		return member.Member{}, member.ErrNotFound
	}
	const q = `SELECT ` + memberColumns + ` FROM member WHERE id = $1`
	return repo.scan(repo.getExec(exec).QueryRowContext(ctx, q, id))
}

func (repo memberRepository) UpdateMemberAssignment(ctx context.Context, m member.Member, exec ...core.DBExecutor) (member.Member, error) {
	const q = `
		UPDATE member
		SET code = $2, campus_id = $3, shift = $4, grade_id = $5, grade_name = $6,
		    classroom_id = $7, section = $8, updated_at = $9
		WHERE id = $1`
	res, err := repo.getExec(exec).ExecContext(ctx, q,
		m.ID, m.Code, m.CampusID, m.Shift, m.GradeID, m.GradeName,
		m.ClassroomID, m.Section, m.UpdatedAt,
	)
	if err != nil {
		return member.Member{}, errors.Wrap(err, "updating member assignment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return member.Member{}, member.ErrNotFound
	}
	return m, nil
}
