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

func TestService_CampusTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("receiver approval applies the move", func(t *testing.T) {
		f, svc, rec := setup(t)
		s := f.CreateStudent(t, "stu1", "Amani K", "C01-M-24-0007", f.RoomP6MA, f.GradeP6)

		tr, err := svc.CreateCampusTransfer(ctx, registrar, transfer.NewCampusTransfer{
			MemberID:   s.ID,
			ToCampusID: f.Campus2.ID,
			ToShift:    "M",
			ReceiverID: receiver.ID,
			Category:   "relocation",
			Reason:     "family moved east",
		})
		if err != nil {
			t.Fatalf("CreateCampusTransfer() failed: %v", err)
		}
		if tr.Status != transfer.StatusPending {
			t.Errorf("Status = %q; want pending", tr.Status)
		}
		// no implicit step; the receiver's decision opens the ledger
		if steps, _ := svc.Steps(ctx, transfer.KindCampus, tr.ID); len(steps) != 0 {
			t.Errorf("steps = %+v; want none before the receiver decides", steps)
		}

		tr, err = svc.ApproveCampusTransfer(ctx, receiver, tr.ID, "seat available")
		if err != nil {
			t.Fatalf("ApproveCampusTransfer() failed: %v", err)
		}
		if tr.Status != transfer.StatusApproved {
			t.Errorf("Status = %q; want approved", tr.Status)
		}
		if !tr.ChangeRecordID.Valid {
			t.Error("ChangeRecordID not linked")
		}

		wantCode := fmt.Sprintf("C02-M-%s-0007", ident.CurrentYearCode())
		m, _ := f.Members().GetMember(ctx, s.ID)
		if m.CampusID != f.Campus2.ID {
			t.Errorf("CampusID = %q; want %q", m.CampusID, f.Campus2.ID)
		}
		if m.Code != wantCode {
			t.Errorf("Code = %q; want %q", m.Code, wantCode)
		}
		// the receiving campus assigns a classroom separately
		if m.ClassroomID.Valid || m.Section != "" {
			t.Errorf("classroom not cleared: %+v/%q", m.ClassroomID, m.Section)
		}
		if from, _ := f.Directory().GetClassroom(ctx, f.RoomP6MA.ID); from.Enrolled != 0 {
			t.Errorf("Enrolled = %d; want 0", from.Enrolled)
		}

		steps, _ := svc.Steps(ctx, transfer.KindCampus, tr.ID)
		if len(steps) != 1 || steps[0].Role != transfer.StepRoleReceiver || steps[0].Order != 1 {
			t.Errorf("steps = %+v; want one receiver step at order 1", steps)
		}

		events := rec.Events()
		if len(events) != 1 || events[0].Name != transfer.EventCampusApplied {
			t.Fatalf("events = %+v; want one %s", events, transfer.EventCampusApplied)
		}
		if events[0].Data["new_code"] != wantCode {
			t.Errorf("event data = %+v", events[0].Data)
		}

		records, _ := svc.History(ctx, s.ID)
		if len(records) != 1 || records[0].NewCampusCode != "C02" {
			t.Errorf("records = %+v; want one with new campus C02", records)
		}
	})

	t.Run("teacher keeps the role segment", func(t *testing.T) {
		f, svc, _ := setup(t)
		teacher := f.CreateTeacher(t, "tea1", "Mwila T", "C01-M-24-T-0001", f.Campus1.ID, "M")

		tr, err := svc.CreateCampusTransfer(ctx, registrar, transfer.NewCampusTransfer{
			MemberID: teacher.ID, ToCampusID: f.Campus2.ID, ToShift: "A", ReceiverID: receiver.ID,
		})
		if err != nil {
			t.Fatalf("CreateCampusTransfer() failed: %v", err)
		}
		if _, err = svc.ApproveCampusTransfer(ctx, receiver, tr.ID, ""); err != nil {
			t.Fatalf("ApproveCampusTransfer() failed: %v", err)
		}

		wantCode := fmt.Sprintf("C02-A-%s-T-0001", ident.CurrentYearCode())
		m, _ := f.Members().GetMember(ctx, teacher.ID)
		if m.Code != wantCode {
			t.Errorf("Code = %q; want %q", m.Code, wantCode)
		}
		if m.CampusID != f.Campus2.ID || m.Shift != "A" {
			t.Errorf("member = %q/%q", m.CampusID, m.Shift)
		}
	})

	t.Run("draft lifecycle", func(t *testing.T) {
		f, svc, _ := setup(t)
		s := f.CreateStudent(t, "stu1", "Amani K", "C01-M-24-0007", f.RoomP6MA, f.GradeP6)

		tr, err := svc.CreateCampusTransfer(ctx, registrar, transfer.NewCampusTransfer{
			MemberID:   s.ID,
			ToCampusID: f.Campus2.ID,
			ToShift:    "M",
			ReceiverID: receiver.ID,
			Draft:      true,
		})
		if err != nil {
			t.Fatalf("CreateCampusTransfer() failed: %v", err)
		}
		if tr.Status != transfer.StatusDraft {
			t.Errorf("Status = %q; want draft", tr.Status)
		}

		// drafts are invisible to the receiving side
		if _, err = svc.ApproveCampusTransfer(ctx, receiver, tr.ID, ""); err == nil {
			t.Error("ApproveCampusTransfer() accepted a draft")
		}
		if _, err = svc.DeclineCampusTransfer(ctx, receiver, tr.ID, "no"); err == nil {
			t.Error("DeclineCampusTransfer() accepted a draft")
		}

		// only the requester may submit
		if _, err = svc.SubmitCampusTransfer(ctx, receiver, tr.ID); errors.Cause(err) != transfer.ErrPermissionDenied {
			t.Errorf("SubmitCampusTransfer() error = %v; want ErrPermissionDenied", err)
		}
		if tr, err = svc.SubmitCampusTransfer(ctx, registrar, tr.ID); err != nil {
			t.Fatalf("SubmitCampusTransfer() failed: %v", err)
		}
		if tr.Status != transfer.StatusPending {
			t.Errorf("Status = %q; want pending", tr.Status)
		}
		if _, err = svc.SubmitCampusTransfer(ctx, registrar, tr.ID); err == nil {
			t.Error("SubmitCampusTransfer() accepted a second submission")
		}

		tr, err = svc.DeclineCampusTransfer(ctx, receiver, tr.ID, "no seats this term")
		if err != nil {
			t.Fatalf("DeclineCampusTransfer() failed: %v", err)
		}
		if tr.Status != transfer.StatusDeclined || tr.DeclineReason != "no seats this term" {
			t.Errorf("transfer = %q/%q", tr.Status, tr.DeclineReason)
		}
		m, _ := f.Members().GetMember(ctx, s.ID)
		if m.CampusID != f.Campus1.ID || m.Code != s.Code {
			t.Errorf("member mutated on decline: %q/%q", m.CampusID, m.Code)
		}
	})

	t.Run("create rejections", func(t *testing.T) {
		f, svc, _ := setup(t)
		s := f.CreateStudent(t, "stu1", "Amani K", "C01-M-24-0007", f.RoomP6MA, f.GradeP6)

		t.Run("supervisors cannot request", func(t *testing.T) {
			_, err := svc.CreateCampusTransfer(ctx, supervisor, transfer.NewCampusTransfer{
				MemberID: s.ID, ToCampusID: f.Campus2.ID, ToShift: "M", ReceiverID: receiver.ID,
			})
			if errors.Cause(err) != transfer.ErrPermissionDenied {
				t.Errorf("CreateCampusTransfer() error = %v; want ErrPermissionDenied", err)
			}
		})
		t.Run("same campus", func(t *testing.T) {
			_, err := svc.CreateCampusTransfer(ctx, registrar, transfer.NewCampusTransfer{
				MemberID: s.ID, ToCampusID: f.Campus1.ID, ToShift: "M", ReceiverID: receiver.ID,
			})
			if _, ok := errors.Cause(err).(*core.ValidationError); !ok {
				t.Errorf("CreateCampusTransfer() error = %v; want validation error", err)
			}
		})
	})

	t.Run("only the receiver decides, only the requester cancels", func(t *testing.T) {
		f, svc, _ := setup(t)
		s := f.CreateStudent(t, "stu1", "Amani K", "C01-M-24-0007", f.RoomP6MA, f.GradeP6)

		tr, err := svc.CreateCampusTransfer(ctx, registrar, transfer.NewCampusTransfer{
			MemberID: s.ID, ToCampusID: f.Campus2.ID, ToShift: "M", ReceiverID: receiver.ID,
		})
		if err != nil {
			t.Fatalf("CreateCampusTransfer() failed: %v", err)
		}

		if _, err = svc.ApproveCampusTransfer(ctx, registrar, tr.ID, ""); errors.Cause(err) != transfer.ErrPermissionDenied {
			t.Errorf("ApproveCampusTransfer() by requester error = %v; want ErrPermissionDenied", err)
		}
		if _, err = svc.CancelCampusTransfer(ctx, receiver, tr.ID); errors.Cause(err) != transfer.ErrPermissionDenied {
			t.Errorf("CancelCampusTransfer() by receiver error = %v; want ErrPermissionDenied", err)
		}

		if tr, err = svc.CancelCampusTransfer(ctx, registrar, tr.ID); err != nil {
			t.Fatalf("CancelCampusTransfer() failed: %v", err)
		}
		if tr.Status != transfer.StatusCancelled {
			t.Errorf("Status = %q; want cancelled", tr.Status)
		}
		steps, _ := svc.Steps(ctx, transfer.KindCampus, tr.ID)
		if len(steps) != 1 || steps[0].Role != transfer.StepRoleRequester || steps[0].Decision != transfer.DecisionCancelled {
			t.Errorf("steps = %+v; want one requester cancellation", steps)
		}

		if _, err = svc.ApproveCampusTransfer(ctx, receiver, tr.ID, ""); errors.Cause(err) != transfer.ErrAlreadyTerminal {
			t.Errorf("ApproveCampusTransfer() error = %v; want ErrAlreadyTerminal", err)
		}
	})
}
