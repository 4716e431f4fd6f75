package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/transfer"
)

type historyRepository struct {
	exec core.DBExecutor
}

var _ transfer.HistoryRepository = (*historyRepository)(nil) // interface compliance check

func NewHistoryRepository(exec core.DBExecutor) *historyRepository {
	return &historyRepository{exec: exec}
}

func (repo historyRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

const changeRecordColumns = `id, member_id, member_kind, old_code, new_code,
	old_campus_code, old_shift_code, old_year_code, new_campus_code, new_shift_code, new_year_code,
	role_code, serial, kind, transfer_id, actor_id, reason, created_at`

// newest first
var changeRecordOrdering = core.DBOrdering{Field: "created_at"}

func (repo historyRepository) CreateChangeRecord(ctx context.Context, r transfer.ChangeRecord, exec ...core.DBExecutor) (transfer.ChangeRecord, error) {
	const q = `
		INSERT INTO change_record (` + changeRecordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := repo.getExec(exec).ExecContext(ctx, q,
		r.ID, r.MemberID, r.MemberKind, r.OldCode, r.NewCode,
		r.OldCampusCode, r.OldShiftCode, r.OldYearCode, r.NewCampusCode, r.NewShiftCode, r.NewYearCode,
		r.RoleCode, r.Serial, r.Kind, r.TransferID, r.ActorID, r.Reason, r.CreatedAt,
	)
	if err != nil {
		return transfer.ChangeRecord{}, errors.Wrap(err, "inserting change record")
	}
	return r, nil
}

func (repo historyRepository) QueryChangeRecords(ctx context.Context, memberID string, exec ...core.DBExecutor) ([]transfer.ChangeRecord, error) {
	q := `
		SELECT ` + changeRecordColumns + `
		FROM change_record
		WHERE member_id = $1
		ORDER BY ` + changeRecordOrdering.String()
	rows, err := repo.getExec(exec).QueryContext(ctx, q, memberID)
	if err != nil {
		return nil, errors.Wrap(err, "querying change records")
	}
	defer func() { _ = rows.Close() }()

	recs := make([]transfer.ChangeRecord, 0, 4)
	for rows.Next() {
		var r transfer.ChangeRecord
		if err = rows.Scan(
			&r.ID, &r.MemberID, &r.MemberKind, &r.OldCode, &r.NewCode,
			&r.OldCampusCode, &r.OldShiftCode, &r.OldYearCode, &r.NewCampusCode, &r.NewShiftCode, &r.NewYearCode,
			&r.RoleCode, &r.Serial, &r.Kind, &r.TransferID, &r.ActorID, &r.Reason, &r.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scanning change record")
		}
		recs = append(recs, r)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "querying change records")
	}
	return recs, nil
}
