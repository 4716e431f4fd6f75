package ident

import (
	"context"
	"fmt"

	"github.com/trezcool/shule/core"
)

// SequenceRepository allocates serial numbers, one counter per role key
// (global, not per-campus). NextValue must be an atomic read-increment-write:
// two concurrent allocations never return the same value.
type SequenceRepository interface {
	NextValue(ctx context.Context, role string, exec ...core.DBExecutor) (int, error)
}

// NextCode composes a fresh identifier for a new member, drawing the next
// serial for the role counter. Students use the empty role.
func NextCode(ctx context.Context, seq SequenceRepository, campusCode, shiftCode, roleCode string) (string, error) {
	n, err := seq.NextValue(ctx, roleKey(roleCode))
	if err != nil {
		return "", err
	}
	id := ID{
		CampusCode: campusCode,
		ShiftCode:  shiftCode,
		YearCode:   CurrentYearCode(),
		RoleCode:   roleCode,
		Serial:     fmt.Sprintf("%04d", n),
	}
	return id.String(), nil
}

func roleKey(roleCode string) string {
	if roleCode == "" {
		return "student"
	}
	return roleCode
}
