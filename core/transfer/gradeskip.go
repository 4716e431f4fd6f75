package transfer

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/org"
)

// CreateGradeSkipTransfer validates the one-grade advancement rule and routes
// the request like a shift transfer: source-grade coordinator first, then the
// destination-grade coordinator when a distinct one exists. The destination
// grade may sit on another campus and/or shift; the apply step then also
// regenerates the identifier. A destination classroom may be picked now or
// left to the apply step.
func (svc *service) CreateGradeSkipTransfer(ctx context.Context, actor org.Actor, n NewGradeSkipTransfer) (GradeSkipTransfer, error) {
	if err := canInitiate(actor); err != nil {
		return GradeSkipTransfer{}, err
	}
	if err := n.Validate(); err != nil {
		return GradeSkipTransfer{}, err
	}

	m, err := svc.members.GetMember(ctx, n.MemberID)
	if err != nil {
		return GradeSkipTransfer{}, err
	}
	if !m.IsStudent() {
		return GradeSkipTransfer{}, core.NewValidationError(errors.New("only students can skip a grade"))
	}
	if !m.IsAssigned() || !m.GradeID.Valid {
		return GradeSkipTransfer{}, errors.Wrapf(ErrNotAssigned, "member %s", m.ID)
	}

	fromGrade, err := svc.dir.GetGrade(ctx, m.GradeID.String)
	if err != nil {
		return GradeSkipTransfer{}, err
	}
	toGrade, err := svc.dir.GetGrade(ctx, n.ToGradeID)
	if err != nil {
		return GradeSkipTransfer{}, err
	}
	if toGrade.Ordinal-fromGrade.Ordinal != 1 {
		return GradeSkipTransfer{}, errors.Wrapf(ErrGradeDelta, "%s (%d) -> %s (%d)", fromGrade.Name, fromGrade.Ordinal, toGrade.Name, toGrade.Ordinal)
	}

	toShift := n.ToShift
	if toShift == "" {
		toShift = m.Shift
	}

	own, err := svc.resolver.Resolve(ctx, fromGrade.Level, m.Shift, m.CampusID)
	if err != nil {
		return GradeSkipTransfer{}, err
	}
	var other null.String
	if o, err := svc.resolver.Resolve(ctx, toGrade.Level, toShift, toGrade.CampusID); err == nil {
		if o.ID != own.ID {
			other = null.StringFrom(o.ID)
		}
	} else if errors.Cause(err) != org.ErrCoordinatorNotFound {
		return GradeSkipTransfer{}, err
	}

	now := nowFunc().UTC()
	t := GradeSkipTransfer{
		ID:                   uuid.NewString(),
		MemberID:             m.ID,
		FromGradeID:          fromGrade.ID,
		ToGradeID:            toGrade.ID,
		FromGradeName:        fromGrade.Name,
		ToGradeName:          toGrade.Name,
		FromClassroomID:      m.ClassroomID,
		FromShift:            m.Shift,
		ToShift:              toShift,
		SupervisorID:         actor.ID,
		FromGradeCoordinator: own.ID,
		ToGradeCoordinator:   other,
		Status:               StatusPendingOwnCoord,
		Reason:               n.Reason,
		RequestedDate:        n.RequestedDate,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if n.ToClassroomID != "" {
		to, err := svc.dir.GetClassroom(ctx, n.ToClassroomID)
		if err != nil {
			return GradeSkipTransfer{}, err
		}
		if to.GradeID != toGrade.ID {
			return GradeSkipTransfer{}, core.NewValidationError(errors.New("classroom does not belong to the destination grade"), core.FieldError{Field: "to_classroom_id", Error: "classroom does not belong to the destination grade"})
		}
		if to.Shift != toShift {
			return GradeSkipTransfer{}, errors.Wrapf(ErrCrossShift, "classroom %s is on shift %s", to.ID, to.Shift)
		}
		t.ToClassroomID = null.StringFrom(to.ID)
	}

	err = svc.withTx(ctx, func(exec ...core.DBExecutor) ([]core.Event, error) {
		if t, err = svc.repo.CreateGradeSkipTransfer(ctx, t, exec...); err != nil {
			return nil, err
		}
		_, err = svc.ledger.Append(ctx, Step{
			Kind:       KindGradeSkip,
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
		return GradeSkipTransfer{}, err
	}
	return t, nil
}

// ApproveGradeSkipTransfer advances the machine by one coordinator approval
// and applies the skip on the final one.
func (svc *service) ApproveGradeSkipTransfer(ctx context.Context, actor org.Actor, id, comment string) (GradeSkipTransfer, error) {
	t, err := svc.repo.GetGradeSkipTransfer(ctx, id)
	if err != nil {
		return GradeSkipTransfer{}, err
	}

	fromGrade, err := svc.dir.GetGrade(ctx, t.FromGradeID)
	if err != nil {
		return GradeSkipTransfer{}, err
	}
	toGrade, err := svc.dir.GetGrade(ctx, t.ToGradeID)
	if err != nil {
		return GradeSkipTransfer{}, err
	}

	switch t.Status {
	case StatusPendingOwnCoord:
		if err = svc.authorizeCoordinator(ctx, actor, t.FromGradeCoordinator, fromGrade.Level, t.FromShift); err != nil {
			return GradeSkipTransfer{}, err
		}
		final := !t.ToGradeCoordinator.Valid
		err = svc.withTx(ctx, func(exec ...core.DBExecutor) ([]core.Event, error) {
			if _, err := svc.ledger.Append(ctx, Step{
				Kind:       KindGradeSkip,
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
				t, err = svc.repo.UpdateGradeSkipTransfer(ctx, t, exec...)
				return nil, err
			}
			return svc.finalizeGradeSkipTransfer(ctx, &t, actor, exec...)
		})

	case StatusPendingOtherCoord:
		if err = svc.authorizeCoordinator(ctx, actor, t.ToGradeCoordinator.String, toGrade.Level, t.ToShift); err != nil {
			return GradeSkipTransfer{}, err
		}
		err = svc.withTx(ctx, func(exec ...core.DBExecutor) ([]core.Event, error) {
			if _, err := svc.ledger.Append(ctx, Step{
				Kind:       KindGradeSkip,
				TransferID: t.ID,
				Order:      3,
				Role:       StepRoleOtherCoord,
				ActorID:    actor.ID,
				Decision:   DecisionApproved,
				Comment:    comment,
			}, exec...); err != nil {
				return nil, err
			}
			return svc.finalizeGradeSkipTransfer(ctx, &t, actor, exec...)
		})

	default:
		return GradeSkipTransfer{}, errors.Wrapf(ErrAlreadyTerminal, "status %q", t.Status)
	}

	if err != nil {
		return GradeSkipTransfer{}, err
	}
	return t, nil
}

func (svc *service) finalizeGradeSkipTransfer(ctx context.Context, t *GradeSkipTransfer, actor org.Actor, exec ...core.DBExecutor) ([]core.Event, error) {
	events, err := svc.orch.ApplyGradeSkipTransfer(ctx, t, actor, exec...)
	if err != nil {
		return nil, err
	}
	t.Status = StatusApproved
	t.UpdatedAt = nowFunc().UTC()
	if *t, err = svc.repo.UpdateGradeSkipTransfer(ctx, *t, exec...); err != nil {
		return nil, err
	}
	return events, nil
}

// DeclineGradeSkipTransfer records the acting coordinator's refusal and
// finalizes the transfer as declined.
func (svc *service) DeclineGradeSkipTransfer(ctx context.Context, actor org.Actor, id, reason string) (GradeSkipTransfer, error) {
	t, err := svc.repo.GetGradeSkipTransfer(ctx, id)
	if err != nil {
		return GradeSkipTransfer{}, err
	}

	var order int
	var role string
	switch t.Status {
	case StatusPendingOwnCoord:
		fromGrade, err := svc.dir.GetGrade(ctx, t.FromGradeID)
		if err != nil {
			return GradeSkipTransfer{}, err
		}
		if err = svc.authorizeCoordinator(ctx, actor, t.FromGradeCoordinator, fromGrade.Level, t.FromShift); err != nil {
			return GradeSkipTransfer{}, err
		}
		order, role = 2, StepRoleCoordinator
	case StatusPendingOtherCoord:
		toGrade, err := svc.dir.GetGrade(ctx, t.ToGradeID)
		if err != nil {
			return GradeSkipTransfer{}, err
		}
		if err = svc.authorizeCoordinator(ctx, actor, t.ToGradeCoordinator.String, toGrade.Level, t.ToShift); err != nil {
			return GradeSkipTransfer{}, err
		}
		order, role = 3, StepRoleOtherCoord
	default:
		return GradeSkipTransfer{}, errors.Wrapf(ErrAlreadyTerminal, "status %q", t.Status)
	}

	err = svc.withTx(ctx, func(exec ...core.DBExecutor) ([]core.Event, error) {
		if _, err := svc.ledger.Append(ctx, Step{
			Kind:       KindGradeSkip,
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
		t, err = svc.repo.UpdateGradeSkipTransfer(ctx, t, exec...)
		return nil, err
	})
	if err != nil {
		return GradeSkipTransfer{}, err
	}
	return t, nil
}

// CancelGradeSkipTransfer lets the initiating supervisor (or an admin)
// withdraw the transfer at any pending stage.
func (svc *service) CancelGradeSkipTransfer(ctx context.Context, actor org.Actor, id string) (GradeSkipTransfer, error) {
	t, err := svc.repo.GetGradeSkipTransfer(ctx, id)
	if err != nil {
		return GradeSkipTransfer{}, err
	}
	if t.Status.IsTerminal() {
		return GradeSkipTransfer{}, errors.Wrapf(ErrAlreadyTerminal, "status %q", t.Status)
	}
	if err = canCancel(actor, t.SupervisorID); err != nil {
		return GradeSkipTransfer{}, err
	}

	err = svc.withTx(ctx, func(exec ...core.DBExecutor) ([]core.Event, error) {
		order, err := svc.ledger.NextOrder(ctx, KindGradeSkip, t.ID, exec...)
		if err != nil {
			return nil, err
		}
		if _, err = svc.ledger.Append(ctx, Step{
			Kind:       KindGradeSkip,
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
		t, err = svc.repo.UpdateGradeSkipTransfer(ctx, t, exec...)
		return nil, err
	})
	if err != nil {
		return GradeSkipTransfer{}, err
	}
	return t, nil
}
