package transfer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/ident"
)

// ChangeRecord is the immutable audit row written whenever a member's
// structured identifier is regenerated. Old and new identifiers are stored
// both verbatim and decomposed; the immutable suffix is stored once since it
// never changes across a regeneration.
type ChangeRecord struct {
	ID         string `json:"id"`
	MemberID   string `json:"member_id"`
	MemberKind string `json:"member_kind"`

	OldCode string `json:"old_code"`
	NewCode string `json:"new_code"`

	OldCampusCode string `json:"old_campus_code"`
	OldShiftCode  string `json:"old_shift_code"`
	OldYearCode   string `json:"old_year_code"`
	NewCampusCode string `json:"new_campus_code"`
	NewShiftCode  string `json:"new_shift_code"`
	NewYearCode   string `json:"new_year_code"`
	RoleCode      string `json:"role_code,omitempty"`
	Serial        string `json:"serial"`

	Kind       Kind   `json:"kind"`
	TransferID string `json:"transfer_id"`
	ActorID    string `json:"actor_id"`
	Reason     string `json:"reason,omitempty"`

	CreatedAt time.Time `json:"created_at"` // UTC
}

// HistoryRepository persists identifier change records. Records are
// append-only.
type HistoryRepository interface {
	CreateChangeRecord(ctx context.Context, r ChangeRecord, exec ...core.DBExecutor) (ChangeRecord, error)
	// QueryChangeRecords returns a member's records, newest first.
	QueryChangeRecords(ctx context.Context, memberID string, exec ...core.DBExecutor) ([]ChangeRecord, error)
}

// newChangeRecord builds a record from the parsed old and new identifiers.
// A suffix mismatch means the regeneration itself is broken, so it is treated
// as a hard error rather than written down.
func newChangeRecord(memberID, memberKind, oldCode, newCode string, kind Kind, transferID, actorID, reason string) (ChangeRecord, error) {
	oldID, err := ident.Parse(oldCode)
	if err != nil {
		return ChangeRecord{}, errors.Wrap(err, "parsing old identifier")
	}
	newID, err := ident.Parse(newCode)
	if err != nil {
		return ChangeRecord{}, errors.Wrap(err, "parsing new identifier")
	}
	if oldID.Serial != newID.Serial {
		return ChangeRecord{}, errors.Errorf("identifier suffix changed: %q -> %q", oldID.Serial, newID.Serial)
	}

	return ChangeRecord{
		ID:            uuid.NewString(),
		MemberID:      memberID,
		MemberKind:    memberKind,
		OldCode:       oldCode,
		NewCode:       newCode,
		OldCampusCode: oldID.CampusCode,
		OldShiftCode:  oldID.ShiftCode,
		OldYearCode:   oldID.YearCode,
		NewCampusCode: newID.CampusCode,
		NewShiftCode:  newID.ShiftCode,
		NewYearCode:   newID.YearCode,
		RoleCode:      newID.RoleCode,
		Serial:        newID.Serial,
		Kind:          kind,
		TransferID:    transferID,
		ActorID:       actorID,
		Reason:        reason,
		CreatedAt:     nowFunc().UTC(),
	}, nil
}
