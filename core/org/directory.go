package org

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

var (
	// errors
	ErrCampusNotFound      = errors.New("campus not found")
	ErrGradeNotFound       = errors.New("grade not found")
	ErrClassroomNotFound   = errors.New("classroom not found")
	ErrCoordinatorNotFound = errors.New("no coordinator found for scope")
)

// Directory is the org-structure read interface. Implementations back it with
// the school directory store.
type Directory interface {
	GetCampus(ctx context.Context, id string, exec ...core.DBExecutor) (Campus, error)
	GetGrade(ctx context.Context, id string, exec ...core.DBExecutor) (Grade, error)
	GetClassroom(ctx context.Context, id string, exec ...core.DBExecutor) (Classroom, error)
	// QueryClassrooms returns the classrooms of a grade/shift ordered by section.
	QueryClassrooms(ctx context.Context, gradeID, shift string, exec ...core.DBExecutor) ([]Classroom, error)
	SetClassroomEnrolled(ctx context.Context, id string, delta int, exec ...core.DBExecutor) error
	// ActiveCoordinators returns the active coordinators scoped to a campus.
	ActiveCoordinators(ctx context.Context, campusID string, exec ...core.DBExecutor) ([]Coordinator, error)
	GetCoordinator(ctx context.Context, id string, exec ...core.DBExecutor) (Coordinator, error)
}
