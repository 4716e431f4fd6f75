package transfer

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/org"
)

// CreateShiftTransfer routes the move through the source-shift coordinator
// and, when a distinct one exists, the destination-shift coordinator. When
// both scopes resolve to the same coordinator the second step collapses and a
// single approval finalizes the transfer.
func (svc *service) CreateShiftTransfer(ctx context.Context, actor org.Actor, n NewShiftTransfer) (ShiftTransfer, error) {
	if err := canInitiate(actor); err != nil {
		return ShiftTransfer{}, err
	}
	if err := n.Validate(); err != nil {
		return ShiftTransfer{}, err
	}

	m, err := svc.members.GetMember(ctx, n.MemberID)
	if err != nil {
		return ShiftTransfer{}, err
	}
	if !m.IsAssigned() {
		return ShiftTransfer{}, errors.Wrapf(ErrNotAssigned, "member %s", m.ID)
	}
	if n.ToShift == m.Shift {
		return ShiftTransfer{}, core.NewValidationError(errors.New("destination shift must differ"), core.FieldError{Field: "to_shift", Error: "destination shift must differ"})
	}

	level, err := svc.memberLevel(ctx, m)
	if err != nil {
		return ShiftTransfer{}, err
	}

	own, err := svc.resolver.Resolve(ctx, level, m.Shift, m.CampusID)
	if err != nil {
		return ShiftTransfer{}, err
	}
	var other null.String
	if o, err := svc.resolver.Resolve(ctx, level, n.ToShift, m.CampusID); err == nil {
		if o.ID != own.ID {
			other = null.StringFrom(o.ID)
		}
	} else if errors.Cause(err) != org.ErrCoordinatorNotFound {
		return ShiftTransfer{}, err
	}

	now := nowFunc().UTC()
	t := ShiftTransfer{
		ID:                   uuid.NewString(),
		MemberID:             m.ID,
		FromShift:            m.Shift,
		ToShift:              n.ToShift,
		FromClassroomID:      m.ClassroomID,
		FromSection:          m.Section,
		FromGradeName:        m.GradeName,
		SupervisorID:         actor.ID,
		FromShiftCoordinator: own.ID,
		ToShiftCoordinator:   other,
		Status:               StatusPendingOwnCoord,
		Reason:               n.Reason,
		RequestedDate:        n.RequestedDate,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if n.ToClassroomID != "" {
		to, err := svc.dir.GetClassroom(ctx, n.ToClassroomID)
		if err != nil {
			return ShiftTransfer{}, err
		}
		if to.CampusID != m.CampusID {
			return ShiftTransfer{}, errors.Wrapf(ErrCrossCampus, "%s vs %s", m.CampusID, to.CampusID)
		}
		if to.Shift != n.ToShift {
			return ShiftTransfer{}, errors.Wrapf(ErrCrossShift, "classroom %s is on shift %s", to.ID, to.Shift)
		}
		toGrade, err := svc.dir.GetGrade(ctx, to.GradeID)
		if err != nil {
			return ShiftTransfer{}, err
		}
		t.ToClassroomID = null.StringFrom(to.ID)
		t.ToSection = to.Section
		t.ToGradeName = toGrade.Name
	}

	err = svc.withTx(ctx, func(exec ...core.DBExecutor) ([]core.Event, error) {
		if t, err = svc.repo.CreateShiftTransfer(ctx, t, exec...); err != nil {
			return nil, err
		}
		_, err = svc.ledger.Append(ctx, Step{
			Kind:       KindShift,
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
		return ShiftTransfer{}, err
	}
	return t, nil
}

// ApproveShiftTransfer advances the machine by one coordinator approval. The
// transfer applies (member moved, identifier regenerated) on the approval
// that makes it final.
func (svc *service) ApproveShiftTransfer(ctx context.Context, actor org.Actor, id, comment string) (ShiftTransfer, error) {
	t, err := svc.repo.GetShiftTransfer(ctx, id)
	if err != nil {
		return ShiftTransfer{}, err
	}

	m, err := svc.members.GetMember(ctx, t.MemberID)
	if err != nil {
		return ShiftTransfer{}, err
	}
	level, err := svc.memberLevel(ctx, m)
	if err != nil {
		return ShiftTransfer{}, err
	}

	switch t.Status {
	case StatusPendingOwnCoord:
		if err = svc.authorizeCoordinator(ctx, actor, t.FromShiftCoordinator, level, t.FromShift); err != nil {
			return ShiftTransfer{}, err
		}
		final := !t.ToShiftCoordinator.Valid
		err = svc.withTx(ctx, func(exec ...core.DBExecutor) ([]core.Event, error) {
			if _, err := svc.ledger.Append(ctx, Step{
				Kind:       KindShift,
				TransferID: t.ID,
				Order:      2,
				Role:       StepRoleCoordinator,
				ActorID:    actor.ID,
				Decision:   DecisionApproved,
				Comment:    comment,
			}, exec...); err != nil {
				return nil, err
			}
			if !final {
				t.Status = StatusPendingOtherCoord
				t.UpdatedAt = nowFunc().UTC()
				var err error
				t, err = svc.repo.UpdateShiftTransfer(ctx, t, exec...)
				return nil, err
			}
			return svc.finalizeShiftTransfer(ctx, &t, actor, exec...)
		})

	case StatusPendingOtherCoord:
		if err = svc.authorizeCoordinator(ctx, actor, t.ToShiftCoordinator.String, level, t.ToShift); err != nil {
			return ShiftTransfer{}, err
		}
		err = svc.withTx(ctx, func(exec ...core.DBExecutor) ([]core.Event, error) {
			if _, err := svc.ledger.Append(ctx, Step{
				Kind:       KindShift,
				TransferID: t.ID,
				Order:      3,
				Role:       StepRoleOtherCoord,
				ActorID:    actor.ID,
				Decision:   DecisionApproved,
				Comment:    comment,
			}, exec...); err != nil {
				return nil, err
			}
			return svc.finalizeShiftTransfer(ctx, &t, actor, exec...)
		})

	default:
		return ShiftTransfer{}, errors.Wrapf(ErrAlreadyTerminal, "status %q", t.Status)
	}

	if err != nil {
		return ShiftTransfer{}, err
	}
	return t, nil
}

func (svc *service) finalizeShiftTransfer(ctx context.Context, t *ShiftTransfer, actor org.Actor, exec ...core.DBExecutor) ([]core.Event, error) {
	events, err := svc.orch.ApplyShiftTransfer(ctx, t, actor, exec...)
	if err != nil {
		return nil, err
	}
	t.Status = StatusApproved
	t.UpdatedAt = nowFunc().UTC()
	if *t, err = svc.repo.UpdateShiftTransfer(ctx, *t, exec...); err != nil {
		return nil, err
	}
	return events, nil
}

// DeclineShiftTransfer records the acting coordinator's refusal and finalizes
// the transfer as declined.
func (svc *service) DeclineShiftTransfer(ctx context.Context, actor org.Actor, id, reason string) (ShiftTransfer, error) {
	t, err := svc.repo.GetShiftTransfer(ctx, id)
	if err != nil {
		return ShiftTransfer{}, err
	}

	m, err := svc.members.GetMember(ctx, t.MemberID)
	if err != nil {
		return ShiftTransfer{}, err
	}
	level, err := svc.memberLevel(ctx, m)
	if err != nil {
		return ShiftTransfer{}, err
	}

	var order int
	var role string
	switch t.Status {
	case StatusPendingOwnCoord:
		if err = svc.authorizeCoordinator(ctx, actor, t.FromShiftCoordinator, level, t.FromShift); err != nil {
			return ShiftTransfer{}, err
		}
		order, role = 2, StepRoleCoordinator
	case StatusPendingOtherCoord:
		if err = svc.authorizeCoordinator(ctx, actor, t.ToShiftCoordinator.String, level, t.ToShift); err != nil {
			return ShiftTransfer{}, err
		}
		order, role = 3, StepRoleOtherCoord
	default:
		return ShiftTransfer{}, errors.Wrapf(ErrAlreadyTerminal, "status %q", t.Status)
	}

	err = svc.withTx(ctx, func(exec ...core.DBExecutor) ([]core.Event, error) {
		if _, err := svc.ledger.Append(ctx, Step{
			Kind:       KindShift,
			TransferID: t.ID,
			Order:      order,
			Role:       role,
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
		t, err = svc.repo.UpdateShiftTransfer(ctx, t, exec...)
		return nil, err
	})
	if err != nil {
		return ShiftTransfer{}, err
	}
	return t, nil
}

// CancelShiftTransfer lets the initiating supervisor (or an admin) withdraw
// the transfer at any pending stage.
func (svc *service) CancelShiftTransfer(ctx context.Context, actor org.Actor, id string) (ShiftTransfer, error) {
	t, err := svc.repo.GetShiftTransfer(ctx, id)
	if err != nil {
		return ShiftTransfer{}, err
	}
	if t.Status.IsTerminal() {
		return ShiftTransfer{}, errors.Wrapf(ErrAlreadyTerminal, "status %q", t.Status)
	}
	if err = canCancel(actor, t.SupervisorID); err != nil {
		return ShiftTransfer{}, err
	}

	err = svc.withTx(ctx, func(exec ...core.DBExecutor) ([]core.Event, error) {
		order, err := svc.ledger.NextOrder(ctx, KindShift, t.ID, exec...)
		if err != nil {
			return nil, err
		}
		if _, err = svc.ledger.Append(ctx, Step{
			Kind:       KindShift,
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
		t, err = svc.repo.UpdateShiftTransfer(ctx, t, exec...)
		return nil, err
	})
	if err != nil {
		return ShiftTransfer{}, err
	}
	return t, nil
}
