package transfer

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/org"
	"github.com/volatiletech/null/v8"
)

// CreateClassTransfer validates the move, resolves the routing coordinator
// for the destination grade's level and records the transfer as pending with
// the supervisor's implicit first approval step. Cross-campus and cross-shift
// moves are rejected before anything is written.
func (svc *service) CreateClassTransfer(ctx context.Context, actor org.Actor, n NewClassTransfer) (ClassTransfer, error) {
	if err := canInitiate(actor); err != nil {
		return ClassTransfer{}, err
	}
	if err := n.Validate(); err != nil {
		return ClassTransfer{}, err
	}

	m, err := svc.members.GetMember(ctx, n.MemberID)
	if err != nil {
		return ClassTransfer{}, err
	}
	if !m.IsStudent() {
		return ClassTransfer{}, core.NewValidationError(errors.New("only students can be moved between classrooms"))
	}
	if !m.IsAssigned() {
		return ClassTransfer{}, errors.Wrapf(ErrNotAssigned, "member %s", m.ID)
	}

	from, err := svc.dir.GetClassroom(ctx, m.ClassroomID.String)
	if err != nil {
		return ClassTransfer{}, err
	}
	to, err := svc.dir.GetClassroom(ctx, n.ToClassroomID)
	if err != nil {
		return ClassTransfer{}, err
	}
	if to.ID == from.ID {
		return ClassTransfer{}, core.NewValidationError(errors.New("destination classroom must differ"), core.FieldError{Field: "to_classroom_id", Error: "destination classroom must differ"})
	}
	if to.CampusID != from.CampusID {
		return ClassTransfer{}, errors.Wrapf(ErrCrossCampus, "%s vs %s", from.CampusID, to.CampusID)
	}
	if to.Shift != from.Shift {
		return ClassTransfer{}, errors.Wrapf(ErrCrossShift, "%s vs %s", from.Shift, to.Shift)
	}

	fromGrade, err := svc.dir.GetGrade(ctx, from.GradeID)
	if err != nil {
		return ClassTransfer{}, err
	}
	toGrade, err := svc.dir.GetGrade(ctx, to.GradeID)
	if err != nil {
		return ClassTransfer{}, err
	}

	coord, err := svc.resolver.Resolve(ctx, toGrade.Level, m.Shift, m.CampusID)
	if err != nil {
		return ClassTransfer{}, err
	}

	now := nowFunc().UTC()
	t := ClassTransfer{
		ID:              uuid.NewString(),
		MemberID:        m.ID,
		FromClassroomID: null.StringFrom(from.ID),
		ToClassroomID:   null.StringFrom(to.ID),
		FromSection:     from.Section,
		ToSection:       to.Section,
		FromGradeName:   fromGrade.Name,
		ToGradeName:     toGrade.Name,
		SupervisorID:    actor.ID,
		CoordinatorID:   coord.ID,
		Status:          StatusPending,
		Reason:          n.Reason,
		RequestedDate:   n.RequestedDate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = svc.withTx(ctx, func(exec ...core.DBExecutor) ([]core.Event, error) {
		if t, err = svc.repo.CreateClassTransfer(ctx, t, exec...); err != nil {
			return nil, err
		}
		_, err = svc.ledger.Append(ctx, Step{
			Kind:       KindClass,
			TransferID: t.ID,
			Order:      1,
			Role:       StepRoleSupervisor,
			ActorID:    actor.ID,
			Decision:   DecisionApproved,
			Comment:    n.Reason,
		}, exec...)
		return nil, err
	})
	if err != nil {
		return ClassTransfer{}, err
	}
	return t, nil
}

// ApproveClassTransfer records the coordinator's approval as step 2,
// finalizes the transfer and applies the classroom move in one transaction.
func (svc *service) ApproveClassTransfer(ctx context.Context, actor org.Actor, id, comment string) (ClassTransfer, error) {
	t, err := svc.repo.GetClassTransfer(ctx, id)
	if err != nil {
		return ClassTransfer{}, err
	}
	if t.Status.IsTerminal() {
		return ClassTransfer{}, errors.Wrapf(ErrAlreadyTerminal, "status %q", t.Status)
	}
	if err = svc.authorizeClassCoordinator(ctx, actor, t); err != nil {
		return ClassTransfer{}, err
	}

	err = svc.withTx(ctx, func(exec ...core.DBExecutor) ([]core.Event, error) {
		if _, err := svc.ledger.Append(ctx, Step{
			Kind:       KindClass,
			TransferID: t.ID,
			Order:      2,
			Role:       StepRoleCoordinator,
			ActorID:    actor.ID,
			Decision:   DecisionApproved,
			Comment:    comment,
		}, exec...); err != nil {
			return nil, err
		}
		events, err := svc.orch.ApplyClassTransfer(ctx, &t, actor, exec...)
		if err != nil {
			return nil, err
		}
		t.Status = StatusApproved
		t.UpdatedAt = nowFunc().UTC()
		if t, err = svc.repo.UpdateClassTransfer(ctx, t, exec...); err != nil {
			return nil, err
		}
		return events, nil
	})
	if err != nil {
		return ClassTransfer{}, err
	}
	return t, nil
}

// DeclineClassTransfer records the coordinator's refusal as step 2 and
// finalizes the transfer as declined. No entity mutation happens.
func (svc *service) DeclineClassTransfer(ctx context.Context, actor org.Actor, id, reason string) (ClassTransfer, error) {
	t, err := svc.repo.GetClassTransfer(ctx, id)
	if err != nil {
		return ClassTransfer{}, err
	}
	if t.Status.IsTerminal() {
		return ClassTransfer{}, errors.Wrapf(ErrAlreadyTerminal, "status %q", t.Status)
	}
	if err = svc.authorizeClassCoordinator(ctx, actor, t); err != nil {
		return ClassTransfer{}, err
	}

	err = svc.withTx(ctx, func(exec ...core.DBExecutor) ([]core.Event, error) {
		if _, err := svc.ledger.Append(ctx, Step{
			Kind:       KindClass,
			TransferID: t.ID,
			Order:      2,
			Role:       StepRoleCoordinator,
			ActorID:    actor.ID,
			Decision:   DecisionDeclined,
			Comment:    reason,
		}, exec...); err != nil {
			return nil, err
		}
		t.Status = StatusDeclined
		t.DeclineReason = reason
		t.UpdatedAt = nowFunc().UTC()
		var err error
		t, err = svc.repo.UpdateClassTransfer(ctx, t, exec...)
		return nil, err
	})
	if err != nil {
		return ClassTransfer{}, err
	}
	return t, nil
}

// CancelClassTransfer lets the initiating supervisor (or an admin) withdraw a
// pending transfer.
func (svc *service) CancelClassTransfer(ctx context.Context, actor org.Actor, id string) (ClassTransfer, error) {
	t, err := svc.repo.GetClassTransfer(ctx, id)
	if err != nil {
		return ClassTransfer{}, err
	}
	if t.Status.IsTerminal() {
		return ClassTransfer{}, errors.Wrapf(ErrAlreadyTerminal, "status %q", t.Status)
	}
	if err = canCancel(actor, t.SupervisorID); err != nil {
		return ClassTransfer{}, err
	}

	err = svc.withTx(ctx, func(exec ...core.DBExecutor) ([]core.Event, error) {
		order, err := svc.ledger.NextOrder(ctx, KindClass, t.ID, exec...)
		if err != nil {
			return nil, err
		}
		if _, err = svc.ledger.Append(ctx, Step{
			Kind:       KindClass,
			TransferID: t.ID,
			Order:      order,
			Role:       StepRoleSupervisor,
			ActorID:    actor.ID,
			Decision:   DecisionCancelled,
		}, exec...); err != nil {
			return nil, err
		}
		t.Status = StatusCancelled
		t.UpdatedAt = nowFunc().UTC()
		t, err = svc.repo.UpdateClassTransfer(ctx, t, exec...)
		return nil, err
	})
	if err != nil {
		return ClassTransfer{}, err
	}
	return t, nil
}

func (svc *service) authorizeClassCoordinator(ctx context.Context, actor org.Actor, t ClassTransfer) error {
	to, err := svc.dir.GetClassroom(ctx, t.ToClassroomID.String)
	if err != nil {
		return err
	}
	g, err := svc.dir.GetGrade(ctx, to.GradeID)
	if err != nil {
		return err
	}
	return svc.authorizeCoordinator(ctx, actor, t.CoordinatorID, g.Level, to.Shift)
}
