package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/member"
	"github.com/trezcool/shule/core/org"
	"github.com/trezcool/shule/core/transfer"
	inmemdb "github.com/trezcool/shule/storage/database/inmem"
)

// Logger is a test logger; it fails the test on Fatal.
type Logger struct {
	T *testing.T
}

func (l Logger) Debug(msg string, args ...interface{}) { l.T.Logf("DEBUG: %s %v", msg, args) }
func (l Logger) Info(msg string, args ...interface{})  { l.T.Logf("INFO: %s %v", msg, args) }
func (l Logger) Warn(msg string, args ...interface{})  { l.T.Logf("WARN: %s %v", msg, args) }
func (l Logger) Error(msg string, args ...interface{}) { l.T.Logf("ERROR: %s %v", msg, args) }
func (l Logger) Fatal(msg string, args ...interface{}) { l.T.Fatalf("FATAL: %s %v", msg, args) }

// EventRecorder captures published events; it serves as both the notification
// and the audit sink.
type EventRecorder struct {
	mutex  sync.Mutex
	events []core.Event
}

var (
	_ core.NotificationSink = (*EventRecorder)(nil)
	_ core.AuditSink        = (*EventRecorder)(nil)
)

func (r *EventRecorder) Publish(ev core.Event) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.events = append(r.events, ev)
}

func (r *EventRecorder) Record(ev core.Event) {}

func (r *EventRecorder) Events() []core.Event {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]core.Event(nil), r.events...)
}

// Fixture is a seeded in-memory school: two campuses on morning ("M") and
// afternoon ("A") shifts, grades P6 (primary) and S1 (secondary) with one
// classroom per shift+section, and a coordinator per level+shift.
type Fixture struct {
	DB *inmemdb.DB

	Campus1, Campus2     org.Campus
	GradeP6, GradeS1     org.Grade // campus 1
	GradeP6C2, GradeS1C2 org.Grade // campus 2

	// campus 1 classrooms, by grade/shift/section
	RoomP6MA, RoomP6MB, RoomP6AA org.Classroom
	RoomS1MA, RoomS1AA           org.Classroom
	// campus 2 classrooms
	RoomP6MAC2, RoomS1MAC2 org.Classroom

	// campus 1 coordinators
	CoordPrimaryM, CoordPrimaryA org.Coordinator
	CoordSecondaryBoth           org.Coordinator
	// campus 2 coordinators
	CoordPrimaryMC2 org.Coordinator
}

func NewFixture(t *testing.T) *Fixture {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("opening in-memory db: %v", err)
	}

	f := &Fixture{
		DB:      db,
		Campus1: org.Campus{ID: "campus1", Code: "C01", Name: "Main"},
		Campus2: org.Campus{ID: "campus2", Code: "C02", Name: "East"},
	}
	db.SeedCampus(f.Campus1)
	db.SeedCampus(f.Campus2)

	f.GradeP6 = org.Grade{ID: "grade-p6", CampusID: "campus1", Level: org.LevelPrimary, Name: "P6", Ordinal: 6}
	f.GradeS1 = org.Grade{ID: "grade-s1", CampusID: "campus1", Level: org.LevelSecondary, Name: "S1", Ordinal: 7}
	f.GradeP6C2 = org.Grade{ID: "grade-p6-c2", CampusID: "campus2", Level: org.LevelPrimary, Name: "P6", Ordinal: 6}
	f.GradeS1C2 = org.Grade{ID: "grade-s1-c2", CampusID: "campus2", Level: org.LevelSecondary, Name: "S1", Ordinal: 7}
	for _, g := range []org.Grade{f.GradeP6, f.GradeS1, f.GradeP6C2, f.GradeS1C2} {
		db.SeedGrade(g)
	}

	f.RoomP6MA = org.Classroom{ID: "room-p6-m-a", CampusID: "campus1", GradeID: "grade-p6", Shift: "M", Section: "A", Capacity: 30}
	f.RoomP6MB = org.Classroom{ID: "room-p6-m-b", CampusID: "campus1", GradeID: "grade-p6", Shift: "M", Section: "B", Capacity: 30}
	f.RoomP6AA = org.Classroom{ID: "room-p6-a-a", CampusID: "campus1", GradeID: "grade-p6", Shift: "A", Section: "A", Capacity: 30}
	f.RoomS1MA = org.Classroom{ID: "room-s1-m-a", CampusID: "campus1", GradeID: "grade-s1", Shift: "M", Section: "A", Capacity: 30}
	f.RoomS1AA = org.Classroom{ID: "room-s1-a-a", CampusID: "campus1", GradeID: "grade-s1", Shift: "A", Section: "A", Capacity: 30}
	f.RoomP6MAC2 = org.Classroom{ID: "room-p6-m-a-c2", CampusID: "campus2", GradeID: "grade-p6-c2", Shift: "M", Section: "A", Capacity: 30}
	f.RoomS1MAC2 = org.Classroom{ID: "room-s1-m-a-c2", CampusID: "campus2", GradeID: "grade-s1-c2", Shift: "M", Section: "A", Capacity: 30}
	for _, c := range []org.Classroom{f.RoomP6MA, f.RoomP6MB, f.RoomP6AA, f.RoomS1MA, f.RoomS1AA, f.RoomP6MAC2, f.RoomS1MAC2} {
		db.SeedClassroom(c)
	}

	f.CoordPrimaryM = org.Coordinator{
		ID: "coord-prim-m", CampusID: "campus1", Name: "Primary Morning Coord",
		Shift: "M", Level: org.LevelPrimary, IsActive: true, ActorID: "actor-prim-m",
	}
	f.CoordPrimaryA = org.Coordinator{
		ID: "coord-prim-a", CampusID: "campus1", Name: "Primary Afternoon Coord",
		Shift: "A", Level: org.LevelPrimary, IsActive: true, ActorID: "actor-prim-a",
	}
	f.CoordSecondaryBoth = org.Coordinator{
		ID: "coord-sec", CampusID: "campus1", Name: "Secondary Coord",
		Shift: org.ShiftBoth, Level: org.LevelSecondary, IsActive: true, ActorID: "actor-sec",
	}
	f.CoordPrimaryMC2 = org.Coordinator{
		ID: "coord-prim-m-c2", CampusID: "campus2", Name: "East Primary Morning Coord",
		Shift: "M", Level: org.LevelPrimary, IsActive: true, ActorID: "actor-prim-m-c2",
	}
	for _, c := range []org.Coordinator{f.CoordPrimaryM, f.CoordPrimaryA, f.CoordSecondaryBoth, f.CoordPrimaryMC2} {
		db.SeedCoordinator(c)
	}

	return f
}

// NewTransferService wires a transfer service over the fixture's in-memory
// store. The in-memory repositories are self-transactional, so no DB handle is
// passed.
func (f *Fixture) NewTransferService(t *testing.T, rec *EventRecorder) transfer.Service {
	return transfer.NewService(
		nil,
		inmemdb.NewTransferRepository(f.DB),
		inmemdb.NewLedgerRepository(f.DB),
		inmemdb.NewHistoryRepository(f.DB),
		inmemdb.NewMemberRepository(f.DB),
		inmemdb.NewDirectory(f.DB),
		rec,
		rec,
		Logger{T: t},
	)
}

// Members returns a repository over the fixture store.
func (f *Fixture) Members() member.Repository {
	return inmemdb.NewMemberRepository(f.DB)
}

// Directory returns a directory over the fixture store.
func (f *Fixture) Directory() org.Directory {
	return inmemdb.NewDirectory(f.DB)
}

// CreateStudent enrolls a student assigned to the given classroom and bumps
// its enrolment count.
func (f *Fixture) CreateStudent(t *testing.T, id, name, code string, room org.Classroom, grade org.Grade) member.Member {
	now := time.Now().UTC()
	m, err := inmemdb.NewMemberRepository(f.DB).CreateMember(context.Background(), member.Member{
		ID:          id,
		Kind:        member.KindStudent,
		Name:        name,
		Code:        code,
		CampusID:    room.CampusID,
		Shift:       room.Shift,
		GradeID:     null.StringFrom(grade.ID),
		GradeName:   grade.Name,
		ClassroomID: null.StringFrom(room.ID),
		Section:     room.Section,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	if err = inmemdb.NewDirectory(f.DB).SetClassroomEnrolled(context.Background(), room.ID, 1); err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return m
}

// CreateTeacher enrolls a teacher attached to a campus and shift, without a
// classroom.
func (f *Fixture) CreateTeacher(t *testing.T, id, name, code, campusID, shift string) member.Member {
	now := time.Now().UTC()
	m, err := inmemdb.NewMemberRepository(f.DB).CreateMember(context.Background(), member.Member{
		ID:        id,
		Kind:      member.KindTeacher,
		Name:      name,
		Code:      code,
		CampusID:  campusID,
		Shift:     shift,
		RoleCode:  "T",
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateTeacher() failed: %v", err)
	}
	return m
}
