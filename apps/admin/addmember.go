package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/ident"
	"github.com/trezcool/shule/core/member"
)

// addMember enrolls a new member with a freshly allocated identifier. The
// campus is looked up by code; class/grade assignment happens later through
// the transfer workflows.
func (cli *commandLine) addMember(kind, name, campusCode, shiftCode, roleCode string) error {
	ctx := context.Background()
	campusCode = core.CleanString(campusCode)
	shiftCode = core.CleanString(shiftCode)
	roleCode = core.CleanString(roleCode)

	if kind != member.KindStudent && kind != member.KindTeacher {
		return fmt.Errorf("unknown member kind %q", kind)
	}
	if kind == member.KindStudent && roleCode != "" {
		return fmt.Errorf("students carry no role code")
	}

	var campusID string
	if err := cli.db.GetContext(ctx, &campusID, "SELECT id FROM campus WHERE code = $1", campusCode); err != nil {
		return fmt.Errorf("looking up campus %q: %w", campusCode, err)
	}

	code, err := ident.NextCode(ctx, cli.seq, campusCode, shiftCode, roleCode)
	if err != nil {
		return err
	}
	m, err := cli.members.CreateMember(ctx, member.Member{
		ID:       uuid.NewString(),
		Kind:     kind,
		Name:     core.CleanString(name),
		Code:     code,
		CampusID: campusID,
		Shift:    shiftCode,
		RoleCode: roleCode,
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s %q enrolled with identifier %s\n", m.Kind, m.Name, m.Code)
	return nil
}
