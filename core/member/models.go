package member

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
)

// Kinds
const (
	KindStudent = "student"
	KindTeacher = "teacher"
)

var (
	// errors
	ErrNotFound = errors.New("member not found")
)

// Member is the transferable entity: a student or a teacher. Its assignment
// and identifier fields are mutated exclusively by the transfer orchestrator's
// apply step, never mid-workflow.
type Member struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	Name string `json:"name"`

	Code     string `json:"code"` // structured identifier, see core/ident
	CampusID string `json:"campus_id"`
	Shift    string `json:"shift"`

	// students
	GradeID     null.String `json:"grade_id,omitempty"`
	GradeName   string      `json:"grade_name,omitempty"`
	ClassroomID null.String `json:"classroom_id,omitempty"`
	Section     string      `json:"section,omitempty"`

	// teachers
	RoleCode string `json:"role_code,omitempty"`

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (m Member) IsStudent() bool { return m.Kind == KindStudent }
func (m Member) IsTeacher() bool { return m.Kind == KindTeacher }

// IsAssigned reports whether the member currently holds a classroom
// assignment (students) or any campus placement (teachers).
func (m Member) IsAssigned() bool {
	if m.IsStudent() {
		return m.ClassroomID.Valid
	}
	return m.CampusID != ""
}

type Repository interface {
	CreateMember(ctx context.Context, m Member, exec ...core.DBExecutor) (Member, error)
	GetMember(ctx context.Context, id string, exec ...core.DBExecutor) (Member, error)
	// UpdateMemberAssignment persists the assignment/identifier fields
	// (code, campus, shift, grade, classroom, section) of an existing member.
	UpdateMemberAssignment(ctx context.Context, m Member, exec ...core.DBExecutor) (Member, error)
}
