package transfer

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/org"
)

// CreateCampusTransfer opens a cross-campus request owned by the requesting
// registrar. The request carries no implicit approval step; the receiving
// side's single decision settles it.
func (svc *service) CreateCampusTransfer(ctx context.Context, actor org.Actor, n NewCampusTransfer) (CampusTransfer, error) {
	switch actor.Role {
	case org.RoleRegistrar, org.RoleAdmin:
	default:
		return CampusTransfer{}, errors.Wrapf(ErrPermissionDenied, "role %q cannot request campus transfers", actor.Role)
	}
	if err := n.Validate(); err != nil {
		return CampusTransfer{}, err
	}

	m, err := svc.members.GetMember(ctx, n.MemberID)
	if err != nil {
		return CampusTransfer{}, err
	}
	if n.ToCampusID == m.CampusID {
		return CampusTransfer{}, core.NewValidationError(errors.New("destination campus must differ"), core.FieldError{Field: "to_campus_id", Error: "destination campus must differ"})
	}
	if _, err = svc.dir.GetCampus(ctx, n.ToCampusID); err != nil {
		return CampusTransfer{}, err
	}

	status := StatusPending
	if n.Draft {
		status = StatusDraft
	}
	now := nowFunc().UTC()
	t := CampusTransfer{
		ID:           uuid.NewString(),
		MemberID:     m.ID,
		FromCampusID: m.CampusID,
		ToCampusID:   n.ToCampusID,
		FromShift:    m.Shift,
		ToShift:      n.ToShift,
		RequesterID:  actor.ID,
		ReceiverID:   n.ReceiverID,
		Category:     n.Category,
		Status:       status,
		Reason:       n.Reason,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = svc.withTx(ctx, func(exec ...core.DBExecutor) ([]core.Event, error) {
		t, err = svc.repo.CreateCampusTransfer(ctx, t, exec...)
		return nil, err
	})
	if err != nil {
		return CampusTransfer{}, err
	}
	return t, nil
}

// SubmitCampusTransfer moves a draft request to pending. Only the requester
// (or an admin) may submit.
func (svc *service) SubmitCampusTransfer(ctx context.Context, actor org.Actor, id string) (CampusTransfer, error) {
	t, err := svc.repo.GetCampusTransfer(ctx, id)
	if err != nil {
		return CampusTransfer{}, err
	}
	if t.Status.IsTerminal() {
		return CampusTransfer{}, errors.Wrapf(ErrAlreadyTerminal, "status %q", t.Status)
	}
	if t.Status != StatusDraft {
		return CampusTransfer{}, core.NewValidationError(errors.New("only draft requests can be submitted"))
	}
	if err = canCancel(actor, t.RequesterID); err != nil {
		return CampusTransfer{}, err
	}

	err = svc.withTx(ctx, func(exec ...core.DBExecutor) ([]core.Event, error) {
		t.Status = StatusPending
		t.UpdatedAt = nowFunc().UTC()
		t, err = svc.repo.UpdateCampusTransfer(ctx, t, exec...)
		return nil, err
	})
	if err != nil {
		return CampusTransfer{}, err
	}
	return t, nil
}

// ApproveCampusTransfer records the receiving side's acceptance and applies
// the move: new campus, new shift, regenerated identifier, cleared classroom.
func (svc *service) ApproveCampusTransfer(ctx context.Context, actor org.Actor, id, comment string) (CampusTransfer, error) {
	t, err := svc.repo.GetCampusTransfer(ctx, id)
	if err != nil {
		return CampusTransfer{}, err
	}
	if t.Status.IsTerminal() {
		return CampusTransfer{}, errors.Wrapf(ErrAlreadyTerminal, "status %q", t.Status)
	}
	if t.Status != StatusPending {
		return CampusTransfer{}, core.NewValidationError(errors.New("request was not submitted yet"))
	}
	if err = canReceive(actor, t.ReceiverID); err != nil {
		return CampusTransfer{}, err
	}

	err = svc.withTx(ctx, func(exec ...core.DBExecutor) ([]core.Event, error) {
		if _, err := svc.ledger.Append(ctx, Step{
			Kind:       KindCampus,
			TransferID: t.ID,
			Order:      1,
			Role:       StepRoleReceiver,
			ActorID:    actor.ID,
			Decision:   DecisionApproved,
			Comment:    comment,
		}, exec...); err != nil {
			return nil, err
		}
		events, err := svc.orch.ApplyCampusTransfer(ctx, &t, actor, exec...)
		if err != nil {
			return nil, err
		}
		t.Status = StatusApproved
		t.UpdatedAt = nowFunc().UTC()
		if t, err = svc.repo.UpdateCampusTransfer(ctx, t, exec...); err != nil {
			return nil, err
		}
		return events, nil
	})
	if err != nil {
		return CampusTransfer{}, err
	}
	return t, nil
}

// DeclineCampusTransfer records the receiving side's refusal. No entity
// mutation happens.
func (svc *service) DeclineCampusTransfer(ctx context.Context, actor org.Actor, id, reason string) (CampusTransfer, error) {
	t, err := svc.repo.GetCampusTransfer(ctx, id)
	if err != nil {
		return CampusTransfer{}, err
	}
	if t.Status.IsTerminal() {
		return CampusTransfer{}, errors.Wrapf(ErrAlreadyTerminal, "status %q", t.Status)
	}
	if t.Status != StatusPending {
		return CampusTransfer{}, core.NewValidationError(errors.New("request was not submitted yet"))
	}
	if err = canReceive(actor, t.ReceiverID); err != nil {
		return CampusTransfer{}, err
	}

	err = svc.withTx(ctx, func(exec ...core.DBExecutor) ([]core.Event, error) {
		if _, err := svc.ledger.Append(ctx, Step{
			Kind:       KindCampus,
			TransferID: t.ID,
			Order:      1,
			Role:       StepRoleReceiver,
			ActorID:    actor.ID,
			Decision:   DecisionDeclined,
			Comment:    reason,
		}, exec...); err != nil {
			return nil, err
		}
		t.Status = StatusDeclined
		t.DeclineReason = reason
		t.UpdatedAt = nowFunc().UTC()
		t, err = svc.repo.UpdateCampusTransfer(ctx, t, exec...)
		return nil, err
	})
	if err != nil {
		return CampusTransfer{}, err
	}
	return t, nil
}

// CancelCampusTransfer lets the requester (or an admin) withdraw a draft or
// pending request. The receiving side cannot cancel, only decline.
func (svc *service) CancelCampusTransfer(ctx context.Context, actor org.Actor, id string) (CampusTransfer, error) {
	t, err := svc.repo.GetCampusTransfer(ctx, id)
	if err != nil {
		return CampusTransfer{}, err
	}
	if t.Status.IsTerminal() {
		return CampusTransfer{}, errors.Wrapf(ErrAlreadyTerminal, "status %q", t.Status)
	}
	if err = canCancel(actor, t.RequesterID); err != nil {
		return CampusTransfer{}, err
	}

	err = svc.withTx(ctx, func(exec ...core.DBExecutor) ([]core.Event, error) {
		order, err := svc.ledger.NextOrder(ctx, KindCampus, t.ID, exec...)
		if err != nil {
			return nil, err
		}
		if _, err = svc.ledger.Append(ctx, Step{
			Kind:       KindCampus,
			TransferID: t.ID,
			Order:      order,
			Role:       StepRoleRequester,
			ActorID:    actor.ID,
			Decision:   DecisionCancelled,
		}, exec...); err != nil {
			return nil, err
		}
		t.Status = StatusCancelled
		t.UpdatedAt = nowFunc().UTC()
		t, err = svc.repo.UpdateCampusTransfer(ctx, t, exec...)
		return nil, err
	})
	if err != nil {
		return CampusTransfer{}, err
	}
	return t, nil
}

// canReceive gates receiving-side decisions to the designated receiver or an
// admin.
func canReceive(actor org.Actor, receiverID string) error {
	if actor.IsAdmin() || actor.ID == receiverID {
		return nil
	}
	return errors.Wrapf(ErrPermissionDenied, "actor %s is not the receiving side", actor.ID)
}
