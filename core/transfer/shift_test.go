package transfer_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/ident"
	"github.com/trezcool/shule/core/transfer"
)

func TestService_ShiftTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("two distinct coordinators, two approvals", func(t *testing.T) {
		f, svc, rec := setup(t)
		s := f.CreateStudent(t, "stu1", "Amani K", "C01-M-24-0007", f.RoomP6MA, f.GradeP6)

		tr, err := svc.CreateShiftTransfer(ctx, supervisor, transfer.NewShiftTransfer{
			MemberID: s.ID,
			ToShift:  "A",
			Reason:   "afternoon fits the family schedule",
		})
		if err != nil {
			t.Fatalf("CreateShiftTransfer() failed: %v", err)
		}
		if tr.Status != transfer.StatusPendingOwnCoord {
			t.Errorf("Status = %q; want pending_own_coord", tr.Status)
		}
		if tr.FromShiftCoordinator != f.CoordPrimaryM.ID {
			t.Errorf("FromShiftCoordinator = %q; want %q", tr.FromShiftCoordinator, f.CoordPrimaryM.ID)
		}
		if !tr.ToShiftCoordinator.Valid || tr.ToShiftCoordinator.String != f.CoordPrimaryA.ID {
			t.Errorf("ToShiftCoordinator = %+v; want %q", tr.ToShiftCoordinator, f.CoordPrimaryA.ID)
		}

		// first approval only advances the machine
		tr, err = svc.ApproveShiftTransfer(ctx, coordPrimM, tr.ID, "ok here")
		if err != nil {
			t.Fatalf("ApproveShiftTransfer() failed: %v", err)
		}
		if tr.Status != transfer.StatusPendingOtherCoord {
			t.Errorf("Status = %q; want pending_other_coord", tr.Status)
		}
		m, _ := f.Members().GetMember(ctx, s.ID)
		if m.Shift != "M" || m.Code != s.Code {
			t.Errorf("member mutated before final approval: %q/%q", m.Shift, m.Code)
		}
		if len(rec.Events()) != 0 {
			t.Errorf("events published before final approval: %+v", rec.Events())
		}

		// destination coordinator finalizes and applies
		tr, err = svc.ApproveShiftTransfer(ctx, coordPrimA, tr.ID, "welcome")
		if err != nil {
			t.Fatalf("ApproveShiftTransfer() failed: %v", err)
		}
		if tr.Status != transfer.StatusApproved {
			t.Errorf("Status = %q; want approved", tr.Status)
		}
		if !tr.ChangeRecordID.Valid {
			t.Error("ChangeRecordID not linked")
		}

		wantCode := fmt.Sprintf("C01-A-%s-0007", ident.CurrentYearCode())
		m, _ = f.Members().GetMember(ctx, s.ID)
		if m.Shift != "A" {
			t.Errorf("Shift = %q; want A", m.Shift)
		}
		if m.Code != wantCode {
			t.Errorf("Code = %q; want %q", m.Code, wantCode)
		}

		records, err := svc.History(ctx, s.ID)
		if err != nil {
			t.Fatalf("History() failed: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("len(records) = %d; want 1", len(records))
		}
		if records[0].OldCode != "C01-M-24-0007" || records[0].NewCode != wantCode {
			t.Errorf("record = %q -> %q", records[0].OldCode, records[0].NewCode)
		}
		if records[0].Serial != "0007" {
			t.Errorf("Serial = %q; want 0007", records[0].Serial)
		}

		events := rec.Events()
		if len(events) != 1 || events[0].Name != transfer.EventShiftApplied {
			t.Fatalf("events = %+v; want one %s", events, transfer.EventShiftApplied)
		}
		if events[0].Data["old_code"] != "C01-M-24-0007" || events[0].Data["new_code"] != wantCode {
			t.Errorf("event data = %+v", events[0].Data)
		}

		steps, _ := svc.Steps(ctx, transfer.KindShift, tr.ID)
		if len(steps) != 3 {
			t.Errorf("len(steps) = %d; want 3", len(steps))
		}
	})

	t.Run("shared coordinator collapses to one approval", func(t *testing.T) {
		f, svc, _ := setup(t)
		// the secondary coordinator covers both shifts
		s := f.CreateStudent(t, "stu2", "Bahati M", "C01-M-24-0011", f.RoomS1MA, f.GradeS1)

		tr, err := svc.CreateShiftTransfer(ctx, supervisor, transfer.NewShiftTransfer{MemberID: s.ID, ToShift: "A"})
		if err != nil {
			t.Fatalf("CreateShiftTransfer() failed: %v", err)
		}
		if tr.ToShiftCoordinator.Valid {
			t.Errorf("ToShiftCoordinator = %+v; want none", tr.ToShiftCoordinator)
		}

		tr, err = svc.ApproveShiftTransfer(ctx, coordSec, tr.ID, "")
		if err != nil {
			t.Fatalf("ApproveShiftTransfer() failed: %v", err)
		}
		if tr.Status != transfer.StatusApproved {
			t.Errorf("Status = %q; want approved after single approval", tr.Status)
		}
		m, _ := f.Members().GetMember(ctx, s.ID)
		if m.Shift != "A" {
			t.Errorf("Shift = %q; want A", m.Shift)
		}
	})

	t.Run("destination classroom moves with the shift", func(t *testing.T) {
		f, svc, _ := setup(t)
		s := f.CreateStudent(t, "stu1", "Amani K", "C01-M-24-0007", f.RoomP6MA, f.GradeP6)

		tr, err := svc.CreateShiftTransfer(ctx, supervisor, transfer.NewShiftTransfer{
			MemberID:      s.ID,
			ToShift:       "A",
			ToClassroomID: f.RoomP6AA.ID,
		})
		if err != nil {
			t.Fatalf("CreateShiftTransfer() failed: %v", err)
		}
		if _, err = svc.ApproveShiftTransfer(ctx, coordPrimM, tr.ID, ""); err != nil {
			t.Fatalf("ApproveShiftTransfer() failed: %v", err)
		}
		if _, err = svc.ApproveShiftTransfer(ctx, coordPrimA, tr.ID, ""); err != nil {
			t.Fatalf("ApproveShiftTransfer() failed: %v", err)
		}

		m, _ := f.Members().GetMember(ctx, s.ID)
		if m.ClassroomID.String != f.RoomP6AA.ID {
			t.Errorf("ClassroomID = %q; want %q", m.ClassroomID.String, f.RoomP6AA.ID)
		}
		from, _ := f.Directory().GetClassroom(ctx, f.RoomP6MA.ID)
		to, _ := f.Directory().GetClassroom(ctx, f.RoomP6AA.ID)
		if from.Enrolled != 0 || to.Enrolled != 1 {
			t.Errorf("enrolled = %d/%d; want 0/1", from.Enrolled, to.Enrolled)
		}
	})

	t.Run("create rejections", func(t *testing.T) {
		f, svc, _ := setup(t)
		s := f.CreateStudent(t, "stu1", "Amani K", "C01-M-24-0007", f.RoomP6MA, f.GradeP6)

		t.Run("same shift", func(t *testing.T) {
			_, err := svc.CreateShiftTransfer(ctx, supervisor, transfer.NewShiftTransfer{MemberID: s.ID, ToShift: "M"})
			if _, ok := errors.Cause(err).(*core.ValidationError); !ok {
				t.Errorf("CreateShiftTransfer() error = %v; want validation error", err)
			}
		})
		t.Run("classroom on the wrong shift", func(t *testing.T) {
			_, err := svc.CreateShiftTransfer(ctx, supervisor, transfer.NewShiftTransfer{
				MemberID: s.ID, ToShift: "A", ToClassroomID: f.RoomP6MB.ID,
			})
			if errors.Cause(err) != transfer.ErrCrossShift {
				t.Errorf("CreateShiftTransfer() error = %v; want ErrCrossShift", err)
			}
		})
		t.Run("classroom on another campus", func(t *testing.T) {
			_, err := svc.CreateShiftTransfer(ctx, supervisor, transfer.NewShiftTransfer{
				MemberID: s.ID, ToShift: "A", ToClassroomID: f.RoomP6MAC2.ID,
			})
			if errors.Cause(err) != transfer.ErrCrossCampus {
				t.Errorf("CreateShiftTransfer() error = %v; want ErrCrossCampus", err)
			}
		})
	})

	t.Run("stage-bound authorization", func(t *testing.T) {
		f, svc, _ := setup(t)
		s := f.CreateStudent(t, "stu1", "Amani K", "C01-M-24-0007", f.RoomP6MA, f.GradeP6)

		tr, err := svc.CreateShiftTransfer(ctx, supervisor, transfer.NewShiftTransfer{MemberID: s.ID, ToShift: "A"})
		if err != nil {
			t.Fatalf("CreateShiftTransfer() failed: %v", err)
		}
		// destination coordinator may not jump the queue
		if _, err = svc.ApproveShiftTransfer(ctx, coordPrimA, tr.ID, ""); errors.Cause(err) != transfer.ErrPermissionDenied {
			t.Errorf("ApproveShiftTransfer() error = %v; want ErrPermissionDenied", err)
		}
		if _, err = svc.ApproveShiftTransfer(ctx, coordPrimM, tr.ID, ""); err != nil {
			t.Fatalf("ApproveShiftTransfer() failed: %v", err)
		}
		// source coordinator is done at this stage
		if _, err = svc.ApproveShiftTransfer(ctx, coordPrimM, tr.ID, ""); errors.Cause(err) != transfer.ErrPermissionDenied {
			t.Errorf("ApproveShiftTransfer() error = %v; want ErrPermissionDenied", err)
		}
	})

	t.Run("decline at the second stage", func(t *testing.T) {
		f, svc, rec := setup(t)
		s := f.CreateStudent(t, "stu1", "Amani K", "C01-M-24-0007", f.RoomP6MA, f.GradeP6)

		tr, err := svc.CreateShiftTransfer(ctx, supervisor, transfer.NewShiftTransfer{MemberID: s.ID, ToShift: "A"})
		if err != nil {
			t.Fatalf("CreateShiftTransfer() failed: %v", err)
		}
		if _, err = svc.ApproveShiftTransfer(ctx, coordPrimM, tr.ID, ""); err != nil {
			t.Fatalf("ApproveShiftTransfer() failed: %v", err)
		}
		tr, err = svc.DeclineShiftTransfer(ctx, coordPrimA, tr.ID, "afternoon is oversubscribed")
		if err != nil {
			t.Fatalf("DeclineShiftTransfer() failed: %v", err)
		}
		if tr.Status != transfer.StatusDeclined {
			t.Errorf("Status = %q; want declined", tr.Status)
		}
		m, _ := f.Members().GetMember(ctx, s.ID)
		if m.Shift != "M" || m.Code != s.Code {
			t.Errorf("member mutated on decline: %q/%q", m.Shift, m.Code)
		}
		if len(rec.Events()) != 0 {
			t.Errorf("events published on decline: %+v", rec.Events())
		}
	})

	t.Run("cancel mid-flight", func(t *testing.T) {
		f, svc, _ := setup(t)
		s := f.CreateStudent(t, "stu1", "Amani K", "C01-M-24-0007", f.RoomP6MA, f.GradeP6)

		tr, err := svc.CreateShiftTransfer(ctx, supervisor, transfer.NewShiftTransfer{MemberID: s.ID, ToShift: "A"})
		if err != nil {
			t.Fatalf("CreateShiftTransfer() failed: %v", err)
		}
		if _, err = svc.ApproveShiftTransfer(ctx, coordPrimM, tr.ID, ""); err != nil {
			t.Fatalf("ApproveShiftTransfer() failed: %v", err)
		}
		if tr, err = svc.CancelShiftTransfer(ctx, supervisor, tr.ID); err != nil {
			t.Fatalf("CancelShiftTransfer() failed: %v", err)
		}
		if tr.Status != transfer.StatusCancelled {
			t.Errorf("Status = %q; want cancelled", tr.Status)
		}

		steps, _ := svc.Steps(ctx, transfer.KindShift, tr.ID)
		if len(steps) != 3 || steps[2].Decision != transfer.DecisionCancelled {
			t.Errorf("steps = %+v; want cancellation as step 3", steps)
		}
	})
}
