package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/org"
)

type directory struct {
	exec core.DBExecutor
}

var _ org.Directory = (*directory)(nil) // interface compliance check

func NewDirectory(exec core.DBExecutor) *directory {
	return &directory{exec: exec}
}

func (dir directory) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return dir.exec
}

func (dir directory) GetCampus(ctx context.Context, id string, exec ...core.DBExecutor) (org.Campus, error) {
	const q = `SELECT id, code, name FROM campus WHERE id = $1`
	var c org.Campus
	err := dir.getExec(exec).QueryRowContext(ctx, q, id).Scan(&c.ID, &c.Code, &c.Name)
	if err == sql.ErrNoRows {
		return org.Campus{}, org.ErrCampusNotFound
	}
	if err != nil {
		return org.Campus{}, errors.Wrap(err, "finding campus")
	}
	return c, nil
}

func (dir directory) GetGrade(ctx context.Context, id string, exec ...core.DBExecutor) (org.Grade, error) {
	const q = `SELECT id, campus_id, level, name, ordinal FROM grade WHERE id = $1`
	var g org.Grade
	err := dir.getExec(exec).QueryRowContext(ctx, q, id).Scan(&g.ID, &g.CampusID, &g.Level, &g.Name, &g.Ordinal)
	if err == sql.ErrNoRows {
		return org.Grade{}, org.ErrGradeNotFound
	}
	if err != nil {
		return org.Grade{}, errors.Wrap(err, "finding grade")
	}
	return g, nil
}

const classroomColumns = `id, campus_id, grade_id, shift, section, capacity, enrolled`

func (dir directory) GetClassroom(ctx context.Context, id string, exec ...core.DBExecutor) (org.Classroom, error) {
	const q = `SELECT ` + classroomColumns + ` FROM classroom WHERE id = $1`
	var c org.Classroom
	err := dir.getExec(exec).QueryRowContext(ctx, q, id).Scan(&c.ID, &c.CampusID, &c.GradeID, &c.Shift, &c.Section, &c.Capacity, &c.Enrolled)
	if err == sql.ErrNoRows {
		return org.Classroom{}, org.ErrClassroomNotFound
	}
	if err != nil {
		return org.Classroom{}, errors.Wrap(err, "finding classroom")
	}
	return c, nil
}

func (dir directory) QueryClassrooms(ctx context.Context, gradeID, shift string, exec ...core.DBExecutor) ([]org.Classroom, error) {
	const q = `
		SELECT ` + classroomColumns + `
		FROM classroom
		WHERE grade_id = $1 AND shift = $2
		ORDER BY section`
	rows, err := dir.getExec(exec).QueryContext(ctx, q, gradeID, shift)
	if err != nil {
		return nil, errors.Wrap(err, "querying classrooms")
	}
	defer func() { _ = rows.Close() }()

	rooms := make([]org.Classroom, 0, 4)
	for rows.Next() {
		var c org.Classroom
		if err = rows.Scan(&c.ID, &c.CampusID, &c.GradeID, &c.Shift, &c.Section, &c.Capacity, &c.Enrolled); err != nil {
			return nil, errors.Wrap(err, "scanning classroom")
		}
		rooms = append(rooms, c)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "querying classrooms")
	}
	return rooms, nil
}

func (dir directory) SetClassroomEnrolled(ctx context.Context, id string, delta int, exec ...core.DBExecutor) error {
	const q = `UPDATE classroom SET enrolled = enrolled + $2 WHERE id = $1`
	res, err := dir.getExec(exec).ExecContext(ctx, q, id, delta)
	if err != nil {
		return errors.Wrap(err, "updating classroom headcount")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return org.ErrClassroomNotFound
	}
	return nil
}

const coordinatorColumns = `id, campus_id, name, shift, level, levels, is_active, actor_id, email, username`

func (dir directory) ActiveCoordinators(ctx context.Context, campusID string, exec ...core.DBExecutor) ([]org.Coordinator, error) {
	const q = `
		SELECT ` + coordinatorColumns + `
		FROM coordinator
		WHERE campus_id = $1 AND is_active
		ORDER BY id`
	rows, err := dir.getExec(exec).QueryContext(ctx, q, campusID)
	if err != nil {
		return nil, errors.Wrap(err, "querying coordinators")
	}
	defer func() { _ = rows.Close() }()

	coords := make([]org.Coordinator, 0, 4)
	for rows.Next() {
		var c org.Coordinator
		if err = rows.Scan(&c.ID, &c.CampusID, &c.Name, &c.Shift, &c.Level, pq.Array(&c.Levels), &c.IsActive, &c.ActorID, &c.Email, &c.Username); err != nil {
			return nil, errors.Wrap(err, "scanning coordinator")
		}
		coords = append(coords, c)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "querying coordinators")
	}
	return coords, nil
}

func (dir directory) GetCoordinator(ctx context.Context, id string, exec ...core.DBExecutor) (org.Coordinator, error) {
	const q = `SELECT ` + coordinatorColumns + ` FROM coordinator WHERE id = $1`
	var c org.Coordinator
	err := dir.getExec(exec).QueryRowContext(ctx, q, id).Scan(
		&c.ID, &c.CampusID, &c.Name, &c.Shift, &c.Level, pq.Array(&c.Levels), &c.IsActive, &c.ActorID, &c.Email, &c.Username)
	if err == sql.ErrNoRows {
		return org.Coordinator{}, org.ErrCoordinatorNotFound
	}
	if err != nil {
		return org.Coordinator{}, errors.Wrap(err, "finding coordinator")
	}
	return c, nil
}
