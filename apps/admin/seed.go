package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/trezcool/shule/core/org"
)

// demo fixtures: two campuses with morning/afternoon shifts, primary and
// secondary grades, two sections per grade, one coordinator per level+shift.
var seedCampuses = []struct {
	code, name string
	grades     []struct {
		level, name string
		ordinal     int
	}
}{
	{
		code: "C01", name: "Lubumbashi Main",
		grades: []struct {
			level, name string
			ordinal     int
		}{
			{org.LevelPrimary, "P5", 5},
			{org.LevelPrimary, "P6", 6},
			{org.LevelSecondary, "S1", 7},
			{org.LevelSecondary, "S2", 8},
		},
	},
	{
		code: "C02", name: "Lubumbashi East",
		grades: []struct {
			level, name string
			ordinal     int
		}{
			{org.LevelPrimary, "P6", 6},
			{org.LevelSecondary, "S1", 7},
		},
	},
}

var seedShifts = []string{"M", "A"}

func (cli *commandLine) seed() error {
	ctx := context.Background()

	tx, err := cli.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, c := range seedCampuses {
		campusID := uuid.NewString()
		if _, err = tx.ExecContext(ctx,
			"INSERT INTO campus (id, code, name) VALUES ($1, $2, $3)",
			campusID, c.code, c.name,
		); err != nil {
			return fmt.Errorf("seeding campus %s: %w", c.code, err)
		}

		for _, g := range c.grades {
			gradeID := uuid.NewString()
			if _, err = tx.ExecContext(ctx,
				"INSERT INTO grade (id, campus_id, level, name, ordinal) VALUES ($1, $2, $3, $4, $5)",
				gradeID, campusID, g.level, g.name, g.ordinal,
			); err != nil {
				return fmt.Errorf("seeding grade %s/%s: %w", c.code, g.name, err)
			}

			for _, shift := range seedShifts {
				for _, section := range []string{"A", "B"} {
					if _, err = tx.ExecContext(ctx,
						"INSERT INTO classroom (id, campus_id, grade_id, shift, section, capacity) VALUES ($1, $2, $3, $4, $5, $6)",
						uuid.NewString(), campusID, gradeID, shift, section, 35,
					); err != nil {
						return fmt.Errorf("seeding classroom %s/%s/%s%s: %w", c.code, g.name, shift, section, err)
					}
				}
			}
		}

		for _, level := range []string{org.LevelPrimary, org.LevelSecondary} {
			for _, shift := range seedShifts {
				name := fmt.Sprintf("%s %s-shift %s coordinator", c.name, shift, level)
				if _, err = tx.ExecContext(ctx,
					"INSERT INTO coordinator (id, campus_id, name, shift, level, levels, email) VALUES ($1, $2, $3, $4, $5, $6, $7)",
					uuid.NewString(), campusID, name, shift, level, pq.Array([]string{level}),
					fmt.Sprintf("%s.%s.coord@%s.shule.cd", level, shift, c.code),
				); err != nil {
					return fmt.Errorf("seeding coordinator %s: %w", name, err)
				}
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	fmt.Printf("seeded %d campuses\n", len(seedCampuses))
	return nil
}
