package inmemdb

import (
	"sync"

	"github.com/trezcool/shule/core/member"
	"github.com/trezcool/shule/core/org"
	"github.com/trezcool/shule/core/transfer"
)

// DB is a map-backed store used by tests and local development. Repositories
// built on it ignore executor overrides; every call is its own atomic unit
// under the table mutex.
type (
	DB struct {
		members   *memberTable
		transfers *transferTable
		steps     *stepTable
		records   *recordTable
		org       *orgTable
		sequences *sequenceTable
	}

	memberTable struct {
		t     map[string]*member.Member
		mutex sync.RWMutex
	}

	transferTable struct {
		class     map[string]*transfer.ClassTransfer
		shift     map[string]*transfer.ShiftTransfer
		gradeSkip map[string]*transfer.GradeSkipTransfer
		campus    map[string]*transfer.CampusTransfer
		mutex     sync.RWMutex
	}

	stepTable struct {
		t     []transfer.Step
		mutex sync.RWMutex
	}

	recordTable struct {
		t     []transfer.ChangeRecord
		mutex sync.RWMutex
	}

	orgTable struct {
		campuses     map[string]*org.Campus
		grades       map[string]*org.Grade
		classrooms   map[string]*org.Classroom
		coordinators map[string]*org.Coordinator
		mutex        sync.RWMutex
	}

	sequenceTable struct {
		t     map[string]int
		mutex sync.Mutex
	}
)

func Open() (*DB, error) {
	db := &DB{
		members: &memberTable{t: make(map[string]*member.Member)},
		transfers: &transferTable{
			class:     make(map[string]*transfer.ClassTransfer),
			shift:     make(map[string]*transfer.ShiftTransfer),
			gradeSkip: make(map[string]*transfer.GradeSkipTransfer),
			campus:    make(map[string]*transfer.CampusTransfer),
		},
		steps:   &stepTable{},
		records: &recordTable{},
		org: &orgTable{
			campuses:     make(map[string]*org.Campus),
			grades:       make(map[string]*org.Grade),
			classrooms:   make(map[string]*org.Classroom),
			coordinators: make(map[string]*org.Coordinator),
		},
		sequences: &sequenceTable{t: make(map[string]int)},
	}
	return db, nil
}

// Seed helpers, for tests and the admin seed command.

func (db *DB) SeedCampus(c org.Campus) {
	db.org.mutex.Lock()
	defer db.org.mutex.Unlock()
	db.org.campuses[c.ID] = &c
}

func (db *DB) SeedGrade(g org.Grade) {
	db.org.mutex.Lock()
	defer db.org.mutex.Unlock()
	db.org.grades[g.ID] = &g
}

func (db *DB) SeedClassroom(c org.Classroom) {
	db.org.mutex.Lock()
	defer db.org.mutex.Unlock()
	db.org.classrooms[c.ID] = &c
}

func (db *DB) SeedCoordinator(c org.Coordinator) {
	db.org.mutex.Lock()
	defer db.org.mutex.Unlock()
	db.org.coordinators[c.ID] = &c
}
