package transfer

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/ident"
	"github.com/trezcool/shule/core/member"
	"github.com/trezcool/shule/core/org"
)

// Event names, one per applied transfer kind.
const (
	EventClassApplied     = "class_transfer.applied"
	EventShiftApplied     = "shift_transfer.applied"
	EventGradeSkipApplied = "grade_skip_transfer.applied"
	EventCampusApplied    = "campus_transfer.applied"
)

// Orchestrator executes the entity mutations of an approved transfer: member
// reassignment, classroom headcounts, identifier regeneration and the change
// record. It runs inside the caller's transaction (via exec) and returns the
// events to publish after commit; it never touches the sinks itself.
type Orchestrator struct {
	members member.Repository
	dir     org.Directory
	history HistoryRepository
}

func NewOrchestrator(members member.Repository, dir org.Directory, history HistoryRepository) *Orchestrator {
	return &Orchestrator{members: members, dir: dir, history: history}
}

// ApplyClassTransfer moves the student to the destination classroom. The
// identifier is untouched, so no change record is written.
func (o *Orchestrator) ApplyClassTransfer(ctx context.Context, t *ClassTransfer, actor org.Actor, exec ...core.DBExecutor) ([]core.Event, error) {
	m, err := o.members.GetMember(ctx, t.MemberID, exec...)
	if err != nil {
		return nil, err
	}
	if !m.IsAssigned() {
		return nil, errors.Wrapf(ErrNotAssigned, "member %s", m.ID)
	}

	to, err := o.dir.GetClassroom(ctx, t.ToClassroomID.String, exec...)
	if err != nil {
		return nil, err
	}
	if err := o.reassignClassroom(ctx, &m, to, exec...); err != nil {
		return nil, err
	}

	m.UpdatedAt = nowFunc().UTC()
	if _, err := o.members.UpdateMemberAssignment(ctx, m, exec...); err != nil {
		return nil, err
	}

	ev := newEvent(EventClassApplied, KindClass, t.ID, m, actor)
	ev.Data["from_section"] = t.FromSection
	ev.Data["to_section"] = t.ToSection
	return []core.Event{ev}, nil
}

// ApplyShiftTransfer moves the member to the destination shift, optionally to
// a new classroom, and regenerates the identifier for the new shift code. The
// change record ID is linked back onto the transfer.
func (o *Orchestrator) ApplyShiftTransfer(ctx context.Context, t *ShiftTransfer, actor org.Actor, exec ...core.DBExecutor) ([]core.Event, error) {
	m, err := o.members.GetMember(ctx, t.MemberID, exec...)
	if err != nil {
		return nil, err
	}
	if !m.IsAssigned() {
		return nil, errors.Wrapf(ErrNotAssigned, "member %s", m.ID)
	}

	campus, err := o.dir.GetCampus(ctx, m.CampusID, exec...)
	if err != nil {
		return nil, err
	}

	oldCode := m.Code
	rec, err := o.regenerate(ctx, &m, t.Reason, KindShift, t.ID, actor, campus.Code, t.ToShift, exec...)
	if err != nil {
		return nil, err
	}
	t.ChangeRecordID = null.StringFrom(rec.ID)

	if t.ToClassroomID.Valid {
		to, err := o.dir.GetClassroom(ctx, t.ToClassroomID.String, exec...)
		if err != nil {
			return nil, err
		}
		if err := o.reassignClassroom(ctx, &m, to, exec...); err != nil {
			return nil, err
		}
	}

	m.Shift = t.ToShift
	m.UpdatedAt = nowFunc().UTC()
	if _, err := o.members.UpdateMemberAssignment(ctx, m, exec...); err != nil {
		return nil, err
	}

	ev := newEvent(EventShiftApplied, KindShift, t.ID, m, actor)
	ev.Data["from_shift"] = t.FromShift
	ev.Data["to_shift"] = t.ToShift
	ev.Data["old_code"] = oldCode
	ev.Data["new_code"] = m.Code
	return []core.Event{ev}, nil
}

// ApplyGradeSkipTransfer advances the student one grade. The destination
// classroom is the one picked at creation time or, failing that, the first
// classroom of the destination grade/shift (section order) with a free seat.
// The identifier is regenerated only when the shift or campus changes.
func (o *Orchestrator) ApplyGradeSkipTransfer(ctx context.Context, t *GradeSkipTransfer, actor org.Actor, exec ...core.DBExecutor) ([]core.Event, error) {
	m, err := o.members.GetMember(ctx, t.MemberID, exec...)
	if err != nil {
		return nil, err
	}
	if !m.IsAssigned() {
		return nil, errors.Wrapf(ErrNotAssigned, "member %s", m.ID)
	}

	toGrade, err := o.dir.GetGrade(ctx, t.ToGradeID, exec...)
	if err != nil {
		return nil, err
	}

	var to org.Classroom
	if t.ToClassroomID.Valid {
		if to, err = o.dir.GetClassroom(ctx, t.ToClassroomID.String, exec...); err != nil {
			return nil, err
		}
		if to.Enrolled >= to.Capacity {
			return nil, errors.Wrapf(ErrNoAvailableDestination, "classroom %s is full", to.ID)
		}
	} else {
		if to, err = o.pickClassroom(ctx, t.ToGradeID, t.ToShift, exec...); err != nil {
			return nil, err
		}
		t.ToClassroomID = null.StringFrom(to.ID)
	}

	oldCode := m.Code
	if t.ToShift != t.FromShift || toGrade.CampusID != m.CampusID {
		campus, err := o.dir.GetCampus(ctx, toGrade.CampusID, exec...)
		if err != nil {
			return nil, err
		}
		rec, err := o.regenerate(ctx, &m, t.Reason, KindGradeSkip, t.ID, actor, campus.Code, t.ToShift, exec...)
		if err != nil {
			return nil, err
		}
		t.ChangeRecordID = null.StringFrom(rec.ID)
	}

	if err := o.reassignClassroom(ctx, &m, to, exec...); err != nil {
		return nil, err
	}
	m.GradeID = null.StringFrom(t.ToGradeID)
	m.GradeName = t.ToGradeName
	m.CampusID = toGrade.CampusID
	m.Shift = t.ToShift
	m.UpdatedAt = nowFunc().UTC()
	if _, err := o.members.UpdateMemberAssignment(ctx, m, exec...); err != nil {
		return nil, err
	}

	ev := newEvent(EventGradeSkipApplied, KindGradeSkip, t.ID, m, actor)
	ev.Data["from_grade"] = t.FromGradeName
	ev.Data["to_grade"] = t.ToGradeName
	ev.Data["to_section"] = to.Section
	if m.Code != oldCode {
		ev.Data["old_code"] = oldCode
		ev.Data["new_code"] = m.Code
	}
	return []core.Event{ev}, nil
}

// ApplyCampusTransfer moves the member to the destination campus/shift and
// regenerates the identifier for the new campus code. The classroom
// assignment is cleared; the receiving campus assigns one separately.
func (o *Orchestrator) ApplyCampusTransfer(ctx context.Context, t *CampusTransfer, actor org.Actor, exec ...core.DBExecutor) ([]core.Event, error) {
	m, err := o.members.GetMember(ctx, t.MemberID, exec...)
	if err != nil {
		return nil, err
	}
	if !m.IsAssigned() {
		return nil, errors.Wrapf(ErrNotAssigned, "member %s", m.ID)
	}

	toCampus, err := o.dir.GetCampus(ctx, t.ToCampusID, exec...)
	if err != nil {
		return nil, err
	}

	oldCode := m.Code
	rec, err := o.regenerate(ctx, &m, t.Reason, KindCampus, t.ID, actor, toCampus.Code, t.ToShift, exec...)
	if err != nil {
		return nil, err
	}
	t.ChangeRecordID = null.StringFrom(rec.ID)

	if m.ClassroomID.Valid {
		if err := o.dir.SetClassroomEnrolled(ctx, m.ClassroomID.String, -1, exec...); err != nil {
			return nil, err
		}
		m.ClassroomID = null.String{}
		m.Section = ""
	}
	m.CampusID = t.ToCampusID
	m.Shift = t.ToShift
	m.UpdatedAt = nowFunc().UTC()
	if _, err := o.members.UpdateMemberAssignment(ctx, m, exec...); err != nil {
		return nil, err
	}

	ev := newEvent(EventCampusApplied, KindCampus, t.ID, m, actor)
	ev.Data["from_campus_id"] = t.FromCampusID
	ev.Data["to_campus_id"] = t.ToCampusID
	ev.Data["old_code"] = oldCode
	ev.Data["new_code"] = m.Code
	return []core.Event{ev}, nil
}

// regenerate rewrites the member's identifier for a new campus/shift (year
// defaults to current, role is kept) and writes the change record.
func (o *Orchestrator) regenerate(
	ctx context.Context, m *member.Member, reason string, kind Kind, transferID string, actor org.Actor,
	campusCode, shiftCode string, exec ...core.DBExecutor,
) (ChangeRecord, error) {
	newCode, err := ident.Regenerate(m.Code, campusCode, shiftCode, "", m.RoleCode)
	if err != nil {
		return ChangeRecord{}, errors.Wrapf(err, "regenerating identifier of member %s", m.ID)
	}
	rec, err := newChangeRecord(m.ID, m.Kind, m.Code, newCode, kind, transferID, actor.ID, reason)
	if err != nil {
		return ChangeRecord{}, err
	}
	if rec, err = o.history.CreateChangeRecord(ctx, rec, exec...); err != nil {
		return ChangeRecord{}, errors.Wrap(err, "writing change record")
	}
	m.Code = newCode
	return rec, nil
}

// reassignClassroom moves the member into `to`, keeping both classrooms'
// enrolled counts in step.
func (o *Orchestrator) reassignClassroom(ctx context.Context, m *member.Member, to org.Classroom, exec ...core.DBExecutor) error {
	if m.ClassroomID.Valid && m.ClassroomID.String != to.ID {
		if err := o.dir.SetClassroomEnrolled(ctx, m.ClassroomID.String, -1, exec...); err != nil {
			return err
		}
	}
	if !m.ClassroomID.Valid || m.ClassroomID.String != to.ID {
		if err := o.dir.SetClassroomEnrolled(ctx, to.ID, +1, exec...); err != nil {
			return err
		}
	}
	m.ClassroomID = null.StringFrom(to.ID)
	m.Section = to.Section
	return nil
}

// pickClassroom returns the first classroom of the grade/shift, in section
// order, that still has a free seat.
func (o *Orchestrator) pickClassroom(ctx context.Context, gradeID, shift string, exec ...core.DBExecutor) (org.Classroom, error) {
	rooms, err := o.dir.QueryClassrooms(ctx, gradeID, shift, exec...)
	if err != nil {
		return org.Classroom{}, err
	}
	for _, r := range rooms {
		if r.Enrolled < r.Capacity {
			return r, nil
		}
	}
	return org.Classroom{}, errors.Wrapf(ErrNoAvailableDestination, "grade %s, shift %s", gradeID, shift)
}

func newEvent(name string, kind Kind, transferID string, m member.Member, actor org.Actor) core.Event {
	return core.Event{
		Name:       name,
		Kind:       string(kind),
		TransferID: transferID,
		MemberID:   m.ID,
		ActorID:    actor.ID,
		OccurredAt: nowFunc().UTC(),
		Data:       map[string]string{"member_name": m.Name, "member_code": m.Code},
	}
}
