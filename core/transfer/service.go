package transfer

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/member"
	"github.com/trezcool/shule/core/org"
)

// Service is the transfer workflow facade consumed by the API layer.
type Service interface {
	CreateClassTransfer(ctx context.Context, actor org.Actor, n NewClassTransfer) (ClassTransfer, error)
	ApproveClassTransfer(ctx context.Context, actor org.Actor, id, comment string) (ClassTransfer, error)
	DeclineClassTransfer(ctx context.Context, actor org.Actor, id, reason string) (ClassTransfer, error)
	CancelClassTransfer(ctx context.Context, actor org.Actor, id string) (ClassTransfer, error)
	GetClassTransfer(ctx context.Context, id string) (ClassTransfer, error)

	CreateShiftTransfer(ctx context.Context, actor org.Actor, n NewShiftTransfer) (ShiftTransfer, error)
	ApproveShiftTransfer(ctx context.Context, actor org.Actor, id, comment string) (ShiftTransfer, error)
	DeclineShiftTransfer(ctx context.Context, actor org.Actor, id, reason string) (ShiftTransfer, error)
	CancelShiftTransfer(ctx context.Context, actor org.Actor, id string) (ShiftTransfer, error)
	GetShiftTransfer(ctx context.Context, id string) (ShiftTransfer, error)

	CreateGradeSkipTransfer(ctx context.Context, actor org.Actor, n NewGradeSkipTransfer) (GradeSkipTransfer, error)
	ApproveGradeSkipTransfer(ctx context.Context, actor org.Actor, id, comment string) (GradeSkipTransfer, error)
	DeclineGradeSkipTransfer(ctx context.Context, actor org.Actor, id, reason string) (GradeSkipTransfer, error)
	CancelGradeSkipTransfer(ctx context.Context, actor org.Actor, id string) (GradeSkipTransfer, error)
	GetGradeSkipTransfer(ctx context.Context, id string) (GradeSkipTransfer, error)

	CreateCampusTransfer(ctx context.Context, actor org.Actor, n NewCampusTransfer) (CampusTransfer, error)
	SubmitCampusTransfer(ctx context.Context, actor org.Actor, id string) (CampusTransfer, error)
	ApproveCampusTransfer(ctx context.Context, actor org.Actor, id, comment string) (CampusTransfer, error)
	DeclineCampusTransfer(ctx context.Context, actor org.Actor, id, reason string) (CampusTransfer, error)
	CancelCampusTransfer(ctx context.Context, actor org.Actor, id string) (CampusTransfer, error)
	GetCampusTransfer(ctx context.Context, id string) (CampusTransfer, error)

	Steps(ctx context.Context, kind Kind, transferID string) ([]Step, error)
	History(ctx context.Context, memberID string) ([]ChangeRecord, error)
}

type service struct {
	db       core.DB // nil when the repositories are self-transactional (tests)
	repo     Repository
	ledger   *Ledger
	history  HistoryRepository
	members  member.Repository
	dir      org.Directory
	resolver *org.Resolver
	orch     *Orchestrator
	notifier core.NotificationSink
	audit    core.AuditSink
	logger   core.Logger
}

var _ Service = (*service)(nil) // interface compliance check

func NewService(
	db core.DB,
	repo Repository,
	ledgerRepo LedgerRepository,
	history HistoryRepository,
	members member.Repository,
	dir org.Directory,
	notifier core.NotificationSink,
	audit core.AuditSink,
	logger core.Logger,
) *service {
	return &service{
		db:       db,
		repo:     repo,
		ledger:   NewLedger(ledgerRepo),
		history:  history,
		members:  members,
		dir:      dir,
		resolver: org.NewResolver(dir),
		orch:     NewOrchestrator(members, dir, history),
		notifier: notifier,
		audit:    audit,
		logger:   logger,
	}
}

// withTx runs fn inside one database transaction when a DB is configured,
// handing it the transaction as the repositories' executor override. The
// events fn collects are published only after a successful commit.
func (svc *service) withTx(ctx context.Context, fn func(exec ...core.DBExecutor) ([]core.Event, error)) error {
	var events []core.Event
	var err error

	if svc.db == nil {
		events, err = fn()
	} else {
		var tx core.DBTransactor
		if tx, err = svc.db.BeginTx(ctx, nil); err != nil {
			return errors.Wrap(err, "beginning transaction")
		}
		if events, err = fn(tx); err != nil {
			_ = tx.Rollback()
		} else if err = tx.Commit(); err != nil {
			err = errors.Wrap(err, "committing transaction")
		}
	}
	if err != nil {
		return err
	}

	svc.publish(events...)
	return nil
}

// publish hands events to the sinks. Sink failures must never surface here;
// a panicking sink is logged and swallowed.
func (svc *service) publish(events ...core.Event) {
	for _, ev := range events {
		func() {
			defer func() {
				if r := recover(); r != nil {
					svc.logger.Error("event sink panicked", "event", ev.Name, "recovered", r)
				}
			}()
			if svc.notifier != nil {
				svc.notifier.Publish(ev)
			}
			if svc.audit != nil {
				svc.audit.Record(ev)
			}
		}()
	}
}

// Steps returns a transfer's approval ledger in step order.
func (svc *service) Steps(ctx context.Context, kind Kind, transferID string) ([]Step, error) {
	return svc.ledger.Steps(ctx, kind, transferID)
}

// History returns a member's identifier change records, newest first.
func (svc *service) History(ctx context.Context, memberID string) ([]ChangeRecord, error) {
	return svc.history.QueryChangeRecords(ctx, memberID)
}

func (svc *service) GetClassTransfer(ctx context.Context, id string) (ClassTransfer, error) {
	return svc.repo.GetClassTransfer(ctx, id)
}
func (svc *service) GetShiftTransfer(ctx context.Context, id string) (ShiftTransfer, error) {
	return svc.repo.GetShiftTransfer(ctx, id)
}
func (svc *service) GetGradeSkipTransfer(ctx context.Context, id string) (GradeSkipTransfer, error) {
	return svc.repo.GetGradeSkipTransfer(ctx, id)
}
func (svc *service) GetCampusTransfer(ctx context.Context, id string) (CampusTransfer, error) {
	return svc.repo.GetCampusTransfer(ctx, id)
}

// canInitiate gates in-campus transfer creation to supervisors and admins.
func canInitiate(actor org.Actor) error {
	switch actor.Role {
	case org.RoleSupervisor, org.RoleAdmin:
		return nil
	}
	return errors.Wrapf(ErrPermissionDenied, "role %q cannot initiate transfers", actor.Role)
}

// authorizeCoordinator verifies that the actor is the acting user of the
// given coordinator (or an admin) and that the coordinator actually manages
// the level/shift scope of the decision.
func (svc *service) authorizeCoordinator(ctx context.Context, actor org.Actor, coordinatorID, level, shift string, exec ...core.DBExecutor) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.Role != org.RoleCoordinator {
		return errors.Wrapf(ErrPermissionDenied, "role %q", actor.Role)
	}
	coord, err := svc.dir.GetCoordinator(ctx, coordinatorID, exec...)
	if err != nil {
		return err
	}
	if actor.ID != org.ResolveActorForRole(coord) && !actor.HasScope(coord.ID) {
		return errors.Wrapf(ErrPermissionDenied, "actor %s is not coordinator %s", actor.ID, coord.ID)
	}
	if !coord.Manages(level, shift) {
		return errors.Wrapf(ErrPermissionDenied, "coordinator %s does not manage level %q, shift %q", coord.ID, level, shift)
	}
	return nil
}

// canCancel gates cancellation to the initiating actor or an admin.
func canCancel(actor org.Actor, initiatorID string) error {
	if actor.IsAdmin() || actor.ID == initiatorID {
		return nil
	}
	return errors.Wrapf(ErrPermissionDenied, "actor %s did not initiate this transfer", actor.ID)
}

// memberLevel returns the level governing a member's approvals: its grade's
// level for students, the campus-independent secondary level for teachers
// without a grade.
func (svc *service) memberLevel(ctx context.Context, m member.Member, exec ...core.DBExecutor) (string, error) {
	if !m.GradeID.Valid {
		return org.LevelSecondary, nil
	}
	g, err := svc.dir.GetGrade(ctx, m.GradeID.String, exec...)
	if err != nil {
		return "", err
	}
	return g.Level, nil
}
