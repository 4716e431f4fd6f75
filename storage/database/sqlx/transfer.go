package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/transfer"
)

type transferRepository struct {
	exec core.DBExecutor
}

var _ transfer.Repository = (*transferRepository)(nil) // interface compliance check

func NewTransferRepository(exec core.DBExecutor) *transferRepository {
	return &transferRepository{exec: exec}
}

func (repo transferRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

// updates only touch non-terminal rows; a zero row count is disambiguated
// into ErrNotFound vs ErrAlreadyTerminal by re-checking existence.
const notTerminal = `status NOT IN ('approved', 'declined', 'cancelled')`

func (repo transferRepository) checkUpdated(ctx context.Context, exe core.DBExecutor, res sql.Result, table, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "checking update")
	}
	if n > 0 {
		return nil
	}
	var exists bool
	if err = exe.QueryRowContext(ctx, `SELECT true FROM `+table+` WHERE id = $1`, id).Scan(&exists); err == sql.ErrNoRows {
		return transfer.ErrNotFound
	} else if err != nil {
		return errors.Wrap(err, "checking update")
	}
	return transfer.ErrAlreadyTerminal
}

// -- class --

const classTransferColumns = `id, member_id, from_classroom_id, to_classroom_id, from_section, to_section,
	from_grade_name, to_grade_name, supervisor_id, coordinator_id, status, reason, requested_date,
	decline_reason, created_at, updated_at`

func (repo transferRepository) CreateClassTransfer(ctx context.Context, t transfer.ClassTransfer, exec ...core.DBExecutor) (transfer.ClassTransfer, error) {
	const q = `
		INSERT INTO class_transfer (` + classTransferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := repo.getExec(exec).ExecContext(ctx, q,
		t.ID, t.MemberID, t.FromClassroomID, t.ToClassroomID, t.FromSection, t.ToSection,
		t.FromGradeName, t.ToGradeName, t.SupervisorID, t.CoordinatorID, t.Status, t.Reason, t.RequestedDate,
		t.DeclineReason, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return transfer.ClassTransfer{}, errors.Wrap(err, "inserting class transfer")
	}
	return t, nil
}

func (repo transferRepository) GetClassTransfer(ctx context.Context, id string, exec ...core.DBExecutor) (transfer.ClassTransfer, error) {
	const q = `SELECT ` + classTransferColumns + ` FROM class_transfer WHERE id = $1`
	var t transfer.ClassTransfer
	err := repo.getExec(exec).QueryRowContext(ctx, q, id).Scan(
		&t.ID, &t.MemberID, &t.FromClassroomID, &t.ToClassroomID, &t.FromSection, &t.ToSection,
		&t.FromGradeName, &t.ToGradeName, &t.SupervisorID, &t.CoordinatorID, &t.Status, &t.Reason, &t.RequestedDate,
		&t.DeclineReason, &t.CreatedAt, &t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return transfer.ClassTransfer{}, transfer.ErrNotFound
	}
	if err != nil {
		return transfer.ClassTransfer{}, errors.Wrap(err, "finding class transfer")
	}
	return t, nil
}

func (repo transferRepository) UpdateClassTransfer(ctx context.Context, t transfer.ClassTransfer, exec ...core.DBExecutor) (transfer.ClassTransfer, error) {
	const q = `
		UPDATE class_transfer
		SET status = $2, decline_reason = $3, updated_at = $4
		WHERE id = $1 AND ` + notTerminal
	exe := repo.getExec(exec)
	res, err := exe.ExecContext(ctx, q, t.ID, t.Status, t.DeclineReason, t.UpdatedAt)
	if err != nil {
		return transfer.ClassTransfer{}, errors.Wrap(err, "updating class transfer")
	}
	if err = repo.checkUpdated(ctx, exe, res, "class_transfer", t.ID); err != nil {
		return transfer.ClassTransfer{}, err
	}
	return t, nil
}

// -- shift --

const shiftTransferColumns = `id, member_id, from_shift, to_shift, from_classroom_id, to_classroom_id,
	from_section, to_section, from_grade_name, to_grade_name, supervisor_id, from_shift_coordinator,
	to_shift_coordinator, status, reason, requested_date, decline_reason, change_record_id, created_at, updated_at`

func (repo transferRepository) CreateShiftTransfer(ctx context.Context, t transfer.ShiftTransfer, exec ...core.DBExecutor) (transfer.ShiftTransfer, error) {
	const q = `
		INSERT INTO shift_transfer (` + shiftTransferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`
	_, err := repo.getExec(exec).ExecContext(ctx, q,
		t.ID, t.MemberID, t.FromShift, t.ToShift, t.FromClassroomID, t.ToClassroomID,
		t.FromSection, t.ToSection, t.FromGradeName, t.ToGradeName, t.SupervisorID, t.FromShiftCoordinator,
		t.ToShiftCoordinator, t.Status, t.Reason, t.RequestedDate, t.DeclineReason, t.ChangeRecordID, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return transfer.ShiftTransfer{}, errors.Wrap(err, "inserting shift transfer")
	}
	return t, nil
}

func (repo transferRepository) GetShiftTransfer(ctx context.Context, id string, exec ...core.DBExecutor) (transfer.ShiftTransfer, error) {
	const q = `SELECT ` + shiftTransferColumns + ` FROM shift_transfer WHERE id = $1`
	var t transfer.ShiftTransfer
	err := repo.getExec(exec).QueryRowContext(ctx, q, id).Scan(
		&t.ID, &t.MemberID, &t.FromShift, &t.ToShift, &t.FromClassroomID, &t.ToClassroomID,
		&t.FromSection, &t.ToSection, &t.FromGradeName, &t.ToGradeName, &t.SupervisorID, &t.FromShiftCoordinator,
		&t.ToShiftCoordinator, &t.Status, &t.Reason, &t.RequestedDate, &t.DeclineReason, &t.ChangeRecordID, &t.CreatedAt, &t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return transfer.ShiftTransfer{}, transfer.ErrNotFound
	}
	if err != nil {
		return transfer.ShiftTransfer{}, errors.Wrap(err, "finding shift transfer")
	}
	return t, nil
}

func (repo transferRepository) UpdateShiftTransfer(ctx context.Context, t transfer.ShiftTransfer, exec ...core.DBExecutor) (transfer.ShiftTransfer, error) {
	const q = `
		UPDATE shift_transfer
		SET status = $2, decline_reason = $3, change_record_id = $4, to_classroom_id = $5,
		    to_section = $6, to_grade_name = $7, updated_at = $8
		WHERE id = $1 AND ` + notTerminal
	exe := repo.getExec(exec)
	res, err := exe.ExecContext(ctx, q,
		t.ID, t.Status, t.DeclineReason, t.ChangeRecordID, t.ToClassroomID,
		t.ToSection, t.ToGradeName, t.UpdatedAt,
	)
	if err != nil {
		return transfer.ShiftTransfer{}, errors.Wrap(err, "updating shift transfer")
	}
	if err = repo.checkUpdated(ctx, exe, res, "shift_transfer", t.ID); err != nil {
		return transfer.ShiftTransfer{}, err
	}
	return t, nil
}

// -- grade skip --

const gradeSkipTransferColumns = `id, member_id, from_grade_id, to_grade_id, from_grade_name, to_grade_name,
	from_classroom_id, to_classroom_id, from_shift, to_shift, supervisor_id, from_grade_coordinator,
	to_grade_coordinator, status, reason, requested_date, decline_reason, change_record_id, created_at, updated_at`

func (repo transferRepository) CreateGradeSkipTransfer(ctx context.Context, t transfer.GradeSkipTransfer, exec ...core.DBExecutor) (transfer.GradeSkipTransfer, error) {
	const q = `
		INSERT INTO grade_skip_transfer (` + gradeSkipTransferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`
	_, err := repo.getExec(exec).ExecContext(ctx, q,
		t.ID, t.MemberID, t.FromGradeID, t.ToGradeID, t.FromGradeName, t.ToGradeName,
		t.FromClassroomID, t.ToClassroomID, t.FromShift, t.ToShift, t.SupervisorID, t.FromGradeCoordinator,
		t.ToGradeCoordinator, t.Status, t.Reason, t.RequestedDate, t.DeclineReason, t.ChangeRecordID, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return transfer.GradeSkipTransfer{}, errors.Wrap(err, "inserting grade skip transfer")
	}
	return t, nil
}

func (repo transferRepository) GetGradeSkipTransfer(ctx context.Context, id string, exec ...core.DBExecutor) (transfer.GradeSkipTransfer, error) {
	const q = `SELECT ` + gradeSkipTransferColumns + ` FROM grade_skip_transfer WHERE id = $1`
	var t transfer.GradeSkipTransfer
	err := repo.getExec(exec).QueryRowContext(ctx, q, id).Scan(
		&t.ID, &t.MemberID, &t.FromGradeID, &t.ToGradeID, &t.FromGradeName, &t.ToGradeName,
		&t.FromClassroomID, &t.ToClassroomID, &t.FromShift, &t.ToShift, &t.SupervisorID, &t.FromGradeCoordinator,
		&t.ToGradeCoordinator, &t.Status, &t.Reason, &t.RequestedDate, &t.DeclineReason, &t.ChangeRecordID, &t.CreatedAt, &t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return transfer.GradeSkipTransfer{}, transfer.ErrNotFound
	}
	if err != nil {
		return transfer.GradeSkipTransfer{}, errors.Wrap(err, "finding grade skip transfer")
	}
	return t, nil
}

func (repo transferRepository) UpdateGradeSkipTransfer(ctx context.Context, t transfer.GradeSkipTransfer, exec ...core.DBExecutor) (transfer.GradeSkipTransfer, error) {
	const q = `
		UPDATE grade_skip_transfer
		SET status = $2, decline_reason = $3, change_record_id = $4, to_classroom_id = $5,
		    updated_at = $6
		WHERE id = $1 AND ` + notTerminal
	exe := repo.getExec(exec)
	res, err := exe.ExecContext(ctx, q,
		t.ID, t.Status, t.DeclineReason, t.ChangeRecordID, t.ToClassroomID, t.UpdatedAt,
	)
	if err != nil {
		return transfer.GradeSkipTransfer{}, errors.Wrap(err, "updating grade skip transfer")
	}
	if err = repo.checkUpdated(ctx, exe, res, "grade_skip_transfer", t.ID); err != nil {
		return transfer.GradeSkipTransfer{}, err
	}
	return t, nil
}

// -- campus --

const campusTransferColumns = `id, member_id, from_campus_id, to_campus_id, from_shift, to_shift,
	requester_id, receiver_id, category, status, reason, decline_reason, change_record_id, created_at, updated_at`

func (repo transferRepository) CreateCampusTransfer(ctx context.Context, t transfer.CampusTransfer, exec ...core.DBExecutor) (transfer.CampusTransfer, error) {
	const q = `
		INSERT INTO campus_transfer (` + campusTransferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := repo.getExec(exec).ExecContext(ctx, q,
		t.ID, t.MemberID, t.FromCampusID, t.ToCampusID, t.FromShift, t.ToShift,
		t.RequesterID, t.ReceiverID, t.Category, t.Status, t.Reason, t.DeclineReason, t.ChangeRecordID, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return transfer.CampusTransfer{}, errors.Wrap(err, "inserting campus transfer")
	}
	return t, nil
}

func (repo transferRepository) GetCampusTransfer(ctx context.Context, id string, exec ...core.DBExecutor) (transfer.CampusTransfer, error) {
	const q = `SELECT ` + campusTransferColumns + ` FROM campus_transfer WHERE id = $1`
	var t transfer.CampusTransfer
	err := repo.getExec(exec).QueryRowContext(ctx, q, id).Scan(
		&t.ID, &t.MemberID, &t.FromCampusID, &t.ToCampusID, &t.FromShift, &t.ToShift,
		&t.RequesterID, &t.ReceiverID, &t.Category, &t.Status, &t.Reason, &t.DeclineReason, &t.ChangeRecordID, &t.CreatedAt, &t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return transfer.CampusTransfer{}, transfer.ErrNotFound
	}
	if err != nil {
		return transfer.CampusTransfer{}, errors.Wrap(err, "finding campus transfer")
	}
	return t, nil
}

func (repo transferRepository) UpdateCampusTransfer(ctx context.Context, t transfer.CampusTransfer, exec ...core.DBExecutor) (transfer.CampusTransfer, error) {
	const q = `
		UPDATE campus_transfer
		SET status = $2, decline_reason = $3, change_record_id = $4, updated_at = $5
		WHERE id = $1 AND ` + notTerminal
	exe := repo.getExec(exec)
	res, err := exe.ExecContext(ctx, q, t.ID, t.Status, t.DeclineReason, t.ChangeRecordID, t.UpdatedAt)
	if err != nil {
		return transfer.CampusTransfer{}, errors.Wrap(err, "updating campus transfer")
	}
	if err = repo.checkUpdated(ctx, exe, res, "campus_transfer", t.ID); err != nil {
		return transfer.CampusTransfer{}, err
	}
	return t, nil
}
