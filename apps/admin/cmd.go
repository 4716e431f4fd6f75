package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/shule/core/ident"
	"github.com/trezcool/shule/core/member"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db      *sqlx.DB
	members member.Repository
	seq     ident.SequenceRepository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate up|down|status|version [ARGS] - run database migrations")
	fmt.Println("  seed                                  - load the demo campuses, grades, classrooms and coordinators")
	fmt.Println("  addmember -name NAME -campus CODE -shift CODE [-kind student|teacher] [-role CODE] - enroll a member with a fresh identifier")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addMemberCmd := flag.NewFlagSet("addmember", flag.ExitOnError)
	addMemberKind := addMemberCmd.String("kind", member.KindStudent, "The member kind: student or teacher.")
	addMemberName := addMemberCmd.String("name", "", "The member's full name.")
	addMemberCampus := addMemberCmd.String("campus", "", "The campus code, eg. C01.")
	addMemberShift := addMemberCmd.String("shift", "", "The shift code, eg. M or A.")
	addMemberRole := addMemberCmd.String("role", "", "The role code for non-students, eg. T.")

	switch args[1] {
	case "migrate":
		return cli.migrate(args[2:])
	case "seed":
		return cli.seed()
	case "addmember":
		if err := addMemberCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addMemberName == "" || *addMemberCampus == "" || *addMemberShift == "" {
			addMemberCmd.Usage()
			return errHelp
		}
		return cli.addMember(*addMemberKind, *addMemberName, *addMemberCampus, *addMemberShift, *addMemberRole)
	default:
		cli.printUsage()
		return errHelp
	}
}
