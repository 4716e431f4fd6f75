package transfer

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
)

var nowFunc = time.Now // mockable

// Kind tags the four transfer variants. The approval ledger and the API key
// transfers on (kind, id), not on a shared table.
type Kind string

const (
	KindClass     Kind = "class"
	KindShift     Kind = "shift"
	KindGradeSkip Kind = "grade_skip"
	KindCampus    Kind = "campus"
)

func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	switch k {
	case KindClass, KindShift, KindGradeSkip, KindCampus:
		return k, nil
	}
	return "", errors.Wrapf(ErrUnknownKind, "%q", s)
}

// Status values per machine. Class and campus transfers only use
// StatusPending (campus additionally StatusDraft); shift and grade-skip
// transfers walk the two pending coordinator states.
type Status string

const (
	StatusDraft             Status = "draft"
	StatusPending           Status = "pending"
	StatusPendingOwnCoord   Status = "pending_own_coord"
	StatusPendingOtherCoord Status = "pending_other_coord"
	StatusApproved          Status = "approved"
	StatusDeclined          Status = "declined"
	StatusCancelled         Status = "cancelled"
)

// IsTerminal reports whether no further transition is legal. Terminal
// instances are never mutated again, only superseded by a new transfer.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusApproved, StatusDeclined, StatusCancelled:
		return true
	}
	return false
}

var (
	// errors
	ErrNotFound               = errors.New("transfer not found")
	ErrUnknownKind            = errors.New("unknown transfer kind")
	ErrAlreadyTerminal        = errors.New("transfer already finalized")
	ErrPermissionDenied       = errors.New("actor may not act on this step")
	ErrApprovalOutOfOrder     = errors.New("approval step out of order")
	ErrCrossCampus            = errors.New("source and destination classrooms are on different campuses")
	ErrCrossShift             = errors.New("source and destination classrooms are on different shifts")
	ErrGradeDelta             = errors.New("grade skip must advance exactly one grade")
	ErrNotAssigned            = errors.New("member has no current assignment")
	ErrNoAvailableDestination = errors.New("no destination classroom with free capacity")
)

type (
	// ClassTransfer moves a student between classrooms of the same campus and
	// shift. The identifier is untouched. Classroom links are nullable so the
	// record survives classroom deletion; the cached section/grade labels
	// preserve display data.
	ClassTransfer struct {
		ID       string `json:"id"`
		MemberID string `json:"member_id"`

		FromClassroomID null.String `json:"from_classroom_id,omitempty"`
		ToClassroomID   null.String `json:"to_classroom_id,omitempty"`
		FromSection     string      `json:"from_section"`
		ToSection       string      `json:"to_section"`
		FromGradeName   string      `json:"from_grade_name"`
		ToGradeName     string      `json:"to_grade_name"`

		SupervisorID  string `json:"supervisor_id"`  // initiating supervisor (actor)
		CoordinatorID string `json:"coordinator_id"` // routing coordinator

		Status        Status    `json:"status"`
		Reason        string    `json:"reason"`
		RequestedDate time.Time `json:"requested_date"`
		DeclineReason string    `json:"decline_reason,omitempty"`

		CreatedAt time.Time `json:"created_at"` // UTC
		UpdatedAt time.Time `json:"updated_at"` // UTC
	}

	// ShiftTransfer moves a member to another shift of the same campus, with
	// an optional classroom change. Applying it regenerates the identifier;
	// ChangeRecordID links the realizing identifier-change record.
	ShiftTransfer struct {
		ID       string `json:"id"`
		MemberID string `json:"member_id"`

		FromShift string `json:"from_shift"`
		ToShift   string `json:"to_shift"`

		FromClassroomID null.String `json:"from_classroom_id,omitempty"`
		ToClassroomID   null.String `json:"to_classroom_id,omitempty"`
		FromSection     string      `json:"from_section"`
		ToSection       string      `json:"to_section"`
		FromGradeName   string      `json:"from_grade_name"`
		ToGradeName     string      `json:"to_grade_name"`

		SupervisorID         string      `json:"supervisor_id"`
		FromShiftCoordinator string      `json:"from_shift_coordinator"`
		ToShiftCoordinator   null.String `json:"to_shift_coordinator,omitempty"`

		Status         Status      `json:"status"`
		Reason         string      `json:"reason"`
		RequestedDate  time.Time   `json:"requested_date"`
		DeclineReason  string      `json:"decline_reason,omitempty"`
		ChangeRecordID null.String `json:"change_record_id,omitempty"`

		CreatedAt time.Time `json:"created_at"` // UTC
		UpdatedAt time.Time `json:"updated_at"` // UTC
	}

	// GradeSkipTransfer advances a student by exactly one grade; shift change
	// optional. Routing compares the coordinators resolved for the source and
	// destination grade levels; when both resolve to the same coordinator a
	// single approval step suffices.
	GradeSkipTransfer struct {
		ID       string `json:"id"`
		MemberID string `json:"member_id"`

		FromGradeID   string `json:"from_grade_id"`
		ToGradeID     string `json:"to_grade_id"`
		FromGradeName string `json:"from_grade_name"`
		ToGradeName   string `json:"to_grade_name"`

		FromClassroomID null.String `json:"from_classroom_id,omitempty"`
		ToClassroomID   null.String `json:"to_classroom_id,omitempty"`
		FromShift       string      `json:"from_shift"`
		ToShift         string      `json:"to_shift"`

		SupervisorID         string      `json:"supervisor_id"`
		FromGradeCoordinator string      `json:"from_grade_coordinator"`
		ToGradeCoordinator   null.String `json:"to_grade_coordinator,omitempty"`

		Status         Status      `json:"status"`
		Reason         string      `json:"reason"`
		RequestedDate  time.Time   `json:"requested_date"`
		DeclineReason  string      `json:"decline_reason,omitempty"`
		ChangeRecordID null.String `json:"change_record_id,omitempty"`

		CreatedAt time.Time `json:"created_at"` // UTC
		UpdatedAt time.Time `json:"updated_at"` // UTC
	}

	// CampusTransfer is the top-level, always identifier-changing transfer
	// request between campuses. The receiving-side registrar alone approves
	// or declines; the requester alone may cancel a draft/pending request.
	CampusTransfer struct {
		ID       string `json:"id"`
		MemberID string `json:"member_id"`

		FromCampusID string `json:"from_campus_id"`
		ToCampusID   string `json:"to_campus_id"`
		FromShift    string `json:"from_shift"`
		ToShift      string `json:"to_shift"`

		RequesterID string `json:"requester_id"` // requesting supervisory user
		ReceiverID  string `json:"receiver_id"`  // receiving supervisory user
		Category    string `json:"category,omitempty"`

		Status         Status      `json:"status"`
		Reason         string      `json:"reason"`
		DeclineReason  string      `json:"decline_reason,omitempty"`
		ChangeRecordID null.String `json:"change_record_id,omitempty"`

		CreatedAt time.Time `json:"created_at"` // UTC
		UpdatedAt time.Time `json:"updated_at"` // UTC
	}
)

// Creation payloads.

type NewClassTransfer struct {
	MemberID      string    `json:"member_id" validate:"required"`
	ToClassroomID string    `json:"to_classroom_id" validate:"required"`
	Reason        string    `json:"reason"`
	RequestedDate time.Time `json:"requested_date"`
}

func (n *NewClassTransfer) Validate() error {
	n.Reason = core.CleanString(n.Reason)
	return core.Validate.Struct(n)
}

type NewShiftTransfer struct {
	MemberID      string    `json:"member_id" validate:"required"`
	ToShift       string    `json:"to_shift" validate:"required"`
	ToClassroomID string    `json:"to_classroom_id"`
	Reason        string    `json:"reason"`
	RequestedDate time.Time `json:"requested_date"`
}

func (n *NewShiftTransfer) Validate() error {
	n.ToShift = core.CleanString(n.ToShift)
	n.Reason = core.CleanString(n.Reason)
	return core.Validate.Struct(n)
}

type NewGradeSkipTransfer struct {
	MemberID      string    `json:"member_id" validate:"required"`
	ToGradeID     string    `json:"to_grade_id" validate:"required"`
	ToClassroomID string    `json:"to_classroom_id"`
	ToShift       string    `json:"to_shift"`
	Reason        string    `json:"reason"`
	RequestedDate time.Time `json:"requested_date"`
}

func (n *NewGradeSkipTransfer) Validate() error {
	n.ToShift = core.CleanString(n.ToShift)
	n.Reason = core.CleanString(n.Reason)
	return core.Validate.Struct(n)
}

type NewCampusTransfer struct {
	MemberID   string `json:"member_id" validate:"required"`
	ToCampusID string `json:"to_campus_id" validate:"required"`
	ToShift    string `json:"to_shift" validate:"required"`
	ReceiverID string `json:"receiver_id" validate:"required"`
	Category   string `json:"category"`
	Reason     string `json:"reason"`
	Draft      bool   `json:"draft"` // create as draft instead of submitting right away
}

func (n *NewCampusTransfer) Validate() error {
	n.ToShift = core.CleanString(n.ToShift)
	n.Reason = core.CleanString(n.Reason)
	n.Category = core.CleanString(n.Category)
	return core.Validate.Struct(n)
}

// Repository persists the four transfer kinds. Update methods must refuse to
// overwrite a row whose stored status is already terminal (returning
// ErrAlreadyTerminal) so concurrent finalizations have exactly one winner.
type Repository interface {
	CreateClassTransfer(ctx context.Context, t ClassTransfer, exec ...core.DBExecutor) (ClassTransfer, error)
	GetClassTransfer(ctx context.Context, id string, exec ...core.DBExecutor) (ClassTransfer, error)
	UpdateClassTransfer(ctx context.Context, t ClassTransfer, exec ...core.DBExecutor) (ClassTransfer, error)

	CreateShiftTransfer(ctx context.Context, t ShiftTransfer, exec ...core.DBExecutor) (ShiftTransfer, error)
	GetShiftTransfer(ctx context.Context, id string, exec ...core.DBExecutor) (ShiftTransfer, error)
	UpdateShiftTransfer(ctx context.Context, t ShiftTransfer, exec ...core.DBExecutor) (ShiftTransfer, error)

	CreateGradeSkipTransfer(ctx context.Context, t GradeSkipTransfer, exec ...core.DBExecutor) (GradeSkipTransfer, error)
	GetGradeSkipTransfer(ctx context.Context, id string, exec ...core.DBExecutor) (GradeSkipTransfer, error)
	UpdateGradeSkipTransfer(ctx context.Context, t GradeSkipTransfer, exec ...core.DBExecutor) (GradeSkipTransfer, error)

	CreateCampusTransfer(ctx context.Context, t CampusTransfer, exec ...core.DBExecutor) (CampusTransfer, error)
	GetCampusTransfer(ctx context.Context, id string, exec ...core.DBExecutor) (CampusTransfer, error)
	UpdateCampusTransfer(ctx context.Context, t CampusTransfer, exec ...core.DBExecutor) (CampusTransfer, error)
}
